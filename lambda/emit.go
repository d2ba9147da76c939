package lambda

import (
	"encoding/base64"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// MarkOptions configures the Mark emitter.
type MarkOptions struct {
	// Indent, when non-empty, places each container entry on its own line.
	Indent string

	// SortKeys orders map entries by name instead of shape order.
	SortKeys bool
}

// EmitMark renders it as compact Mark text.
func EmitMark(it Item) string {
	return EmitMarkWithOptions(it, MarkOptions{})
}

// EmitMarkWithOptions renders it with custom options.
func EmitMarkWithOptions(it Item, opts MarkOptions) string {
	e := &markEmitter{opts: opts}
	e.emit(it, 0)
	return e.sb.String()
}

type markEmitter struct {
	sb   strings.Builder
	opts MarkOptions
}

func (e *markEmitter) emit(it Item, depth int) {
	switch it.Type() {
	case TypeNull:
		e.sb.WriteString("null")
	case TypeBool:
		if it.Bool() {
			e.sb.WriteString("true")
		} else {
			e.sb.WriteString("false")
		}
	case TypeInt, TypeInt64:
		e.sb.WriteString(strconv.FormatInt(it.Int(), 10))
	case TypeFloat:
		e.sb.WriteString(FormatFloat(it.Float()))
	case TypeDecimal:
		e.sb.WriteString(it.Decimal().String())
		e.sb.WriteByte('n')
	case TypeString:
		writeQuoted(&e.sb, it.Str().String(), '"')
	case TypeSymbol:
		writeQuoted(&e.sb, it.Str().String(), '\'')
	case TypeBinary:
		e.sb.WriteString("b'")
		e.sb.WriteString(base64.StdEncoding.EncodeToString(it.Str().Bytes()))
		e.sb.WriteByte('\'')
	case TypeDateTime:
		e.sb.WriteString("t'")
		e.sb.WriteString(it.DateTime().Format(time.RFC3339Nano))
		e.sb.WriteByte('\'')
	case TypeArray:
		e.emitSeq('[', ']', it.Array().Items, depth)
	case TypeList:
		e.emitSeq('(', ')', it.List().Items, depth)
	case TypeMap:
		e.emitMap(it.Map(), depth)
	case TypeElement:
		e.emitElement(it.Element(), depth)
	case TypeFunc:
		e.sb.WriteString("fn ")
		e.sb.WriteString(it.Func().Name.String())
	case TypeType:
		e.sb.WriteString(it.Meta().String())
	case TypeError:
		e.sb.WriteString("error(")
		writeQuoted(&e.sb, it.Err().Message.String(), '"')
		e.sb.WriteByte(')')
	default:
		e.sb.WriteString("null")
	}
}

func (e *markEmitter) newline(depth int) {
	if e.opts.Indent == "" {
		return
	}
	e.sb.WriteByte('\n')
	for i := 0; i < depth; i++ {
		e.sb.WriteString(e.opts.Indent)
	}
}

func (e *markEmitter) sep(i, depth int) {
	if i > 0 {
		e.sb.WriteByte(',')
		if e.opts.Indent == "" {
			e.sb.WriteByte(' ')
		}
	}
	e.newline(depth)
}

func (e *markEmitter) emitSeq(open, close byte, items []Item, depth int) {
	e.sb.WriteByte(open)
	for i, it := range items {
		e.sep(i, depth+1)
		e.emit(it, depth+1)
	}
	if len(items) > 0 {
		e.newline(depth)
	}
	e.sb.WriteByte(close)
}

func (e *markEmitter) emitMap(m *Map, depth int) {
	type field struct {
		name string
		v    Item
	}
	fields := make([]field, 0, len(m.Data))
	for i, entry := range m.Type.Entries() {
		if i >= len(m.Data) {
			break
		}
		fields = append(fields, field{entry.Name.String(), m.Data[i]})
	}
	if e.opts.SortKeys {
		sort.SliceStable(fields, func(i, j int) bool { return fields[i].name < fields[j].name })
	}

	e.sb.WriteByte('{')
	for i, f := range fields {
		e.sep(i, depth+1)
		writeName(&e.sb, f.name)
		e.sb.WriteString(": ")
		e.emit(f.v, depth+1)
	}
	if len(m.Data) > 0 {
		e.newline(depth)
	}
	e.sb.WriteByte('}')
}

func (e *markEmitter) emitElement(el *Element, depth int) {
	e.sb.WriteByte('<')
	writeName(&e.sb, el.Tag())
	attrs := el.Attrs()
	for i, entry := range el.Type.Entries() {
		if i >= len(attrs) {
			break
		}
		if i > 0 {
			e.sb.WriteString(", ")
		} else {
			e.sb.WriteByte(' ')
		}
		writeName(&e.sb, entry.Name.String())
		e.sb.WriteString(": ")
		e.emit(attrs[i], depth+1)
	}
	children := el.Children()
	if len(children) > 0 {
		e.sb.WriteByte(';')
		for i, c := range children {
			if i > 0 {
				e.sb.WriteByte(',')
			}
			if e.opts.Indent != "" {
				e.newline(depth + 1)
			} else {
				e.sb.WriteByte(' ')
			}
			e.emit(c, depth+1)
		}
		e.newline(depth)
	}
	e.sb.WriteByte('>')
}

func writeName(sb *strings.Builder, name string) {
	if IsBareName(name) {
		sb.WriteString(name)
		return
	}
	writeQuoted(sb, name, '"')
}

func writeQuoted(sb *strings.Builder, s string, quote byte) {
	sb.WriteByte(quote)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == rune(quote) || r == '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			sb.WriteString(`\u{`)
			sb.WriteString(strconv.FormatInt(int64(r), 16))
			sb.WriteByte('}')
		default:
			sb.WriteString(s[i : i+size])
		}
		i += size
	}
	sb.WriteByte(quote)
}

// FormatFloat renders f so that it reads back as a float.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
