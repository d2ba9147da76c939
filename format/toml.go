package format

import (
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Neumenon/lambda/lambda"
)

// ============================================================
// TOML
// ============================================================
//
// Each table writes its scalar and inline keys first, then sub-tables as
// [a.b] headers, then arrays of maps as [[a.b]] blocks. TOML has no null:
// null keys and null array items are left out.

var bareKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// TOML renders a root map as a TOML document.
func TOML(it lambda.Item) (string, error) {
	if it.Type() != lambda.TypeMap {
		return "", ErrRootNotMap
	}
	e := &tomlEmitter{}
	if err := e.table(nil, lambda.Read(it).AsMap()); err != nil {
		return "", err
	}
	return e.sb.String(), nil
}

type tomlEmitter struct {
	sb strings.Builder
}

func (e *tomlEmitter) header(open, close string, path []string) {
	if e.sb.Len() > 0 {
		e.sb.WriteByte('\n')
	}
	e.sb.WriteString(open)
	e.sb.WriteString(dottedKey(path))
	e.sb.WriteString(close)
	e.sb.WriteByte('\n')
}

func (e *tomlEmitter) table(path []string, m lambda.MapReader) error {
	var tables, arrays []string
	for name, v := range m.Entries() {
		switch {
		case v.IsNull():
		case v.IsMap():
			tables = append(tables, name)
		case tableArray(v):
			arrays = append(arrays, name)
		default:
			val, err := tomlValue(append(path, name), v)
			if err != nil {
				return err
			}
			e.sb.WriteString(tomlKey(name))
			e.sb.WriteString(" = ")
			e.sb.WriteString(val)
			e.sb.WriteByte('\n')
		}
	}

	for _, name := range tables {
		sub := append(append([]string(nil), path...), name)
		e.header("[", "]", sub)
		if err := e.table(sub, m.Get(name).AsMap()); err != nil {
			return err
		}
	}
	for _, name := range arrays {
		sub := append(append([]string(nil), path...), name)
		for v := range m.Get(name).AsArray().Items() {
			if v.IsNull() {
				continue
			}
			e.header("[[", "]]", sub)
			if err := e.table(sub, v.AsMap()); err != nil {
				return err
			}
		}
	}
	return nil
}

// tableArray reports a non-empty sequence holding only maps and nulls.
func tableArray(v lambda.ItemReader) bool {
	if !v.IsSequence() {
		return false
	}
	maps := 0
	for c := range v.AsArray().Items() {
		switch {
		case c.IsMap():
			maps++
		case !c.IsNull():
			return false
		}
	}
	return maps > 0
}

func tomlValue(path []string, v lambda.ItemReader) (string, error) {
	switch v.Type() {
	case lambda.TypeBool:
		return strconv.FormatBool(v.AsBool()), nil
	case lambda.TypeInt, lambda.TypeInt64:
		return strconv.FormatInt(v.AsInt(), 10), nil
	case lambda.TypeFloat:
		return lambda.FormatFloat(v.AsFloat()), nil
	case lambda.TypeDecimal:
		return decimalFloat(v.Item().Decimal().String()), nil
	case lambda.TypeString, lambda.TypeSymbol:
		return tomlString(v.AsString()), nil
	case lambda.TypeBinary:
		return tomlString(base64.StdEncoding.EncodeToString(v.Item().Str().Bytes())), nil
	case lambda.TypeDateTime:
		return v.Item().DateTime().Format(time.RFC3339Nano), nil
	case lambda.TypeArray, lambda.TypeList:
		var parts []string
		for i := 0; i < v.AsArray().Length(); i++ {
			c := v.AsArray().At(i)
			if c.IsNull() {
				continue
			}
			s, err := tomlValue(append(path, strconv.Itoa(i)), c)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case lambda.TypeMap:
		var parts []string
		for name, c := range v.AsMap().Entries() {
			if c.IsNull() {
				continue
			}
			s, err := tomlValue(append(path, name), c)
			if err != nil {
				return "", err
			}
			parts = append(parts, tomlKey(name)+" = "+s)
		}
		if len(parts) == 0 {
			return "{}", nil
		}
		return "{ " + strings.Join(parts, ", ") + " }", nil
	}
	return "", &UnsupportedError{Format: "toml", Path: dottedKey(path), Type: v.Type()}
}

// decimalFloat turns a decimal's text into a TOML float literal.
func decimalFloat(s string) string {
	if strings.ContainsAny(s, ".eE") {
		return s
	}
	return s + ".0"
}

func tomlKey(name string) string {
	if bareKey.MatchString(name) {
		return name
	}
	return tomlString(name)
}

func dottedKey(path []string) string {
	keys := make([]string, len(path))
	for i, p := range path {
		keys[i] = tomlKey(p)
	}
	return strings.Join(keys, ".")
}

// tomlString writes a TOML basic string.
func tomlString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\t':
			sb.WriteString(`\t`)
		case '\n':
			sb.WriteString(`\n`)
		case '\f':
			sb.WriteString(`\f`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				sb.WriteString(`\u`)
				sb.WriteString(leftPad(strconv.FormatInt(int64(r), 16), 4))
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func leftPad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}
