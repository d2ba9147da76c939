package lambda

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ============================================================
// JSON Bridge
// ============================================================
//
// Objects become maps in source key order, arrays become arrays, integral
// numbers become ints and the rest floats. Elements are written as objects
// with a "$tag" key, their attributes, and a "$children" array.

// JSON keys used for elements.
const (
	JSONTagKey      = "$tag"
	JSONChildrenKey = "$children"
)

// FromJSON decodes data into items owned by d and installs the result as
// the document root.
func FromJSON(d *Document, data []byte) (Item, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := fromJSONToken(d, dec, 0)
	if err != nil {
		return Null, errors.Wrap(err, "json")
	}
	if _, err := dec.Token(); err != io.EOF {
		return Null, errors.New("json: trailing data after value")
	}
	d.SetRoot(v)
	return v, nil
}

func fromJSONToken(d *Document, dec *json.Decoder, depth int) (Item, error) {
	if depth > maxMarkDepth {
		return Null, fmt.Errorf("nesting deeper than %d", maxMarkDepth)
	}
	tok, err := dec.Token()
	if err != nil {
		return Null, err
	}
	switch v := tok.(type) {
	case nil:
		return Null, nil
	case bool:
		return Bool(v), nil
	case json.Number:
		return jsonNumber(d, v)
	case string:
		return d.String(v)
	case json.Delim:
		switch v {
		case '[':
			var items []Item
			for dec.More() {
				it, err := fromJSONToken(d, dec, depth+1)
				if err != nil {
					return Null, err
				}
				items = append(items, it)
			}
			if _, err := dec.Token(); err != nil {
				return Null, err
			}
			return d.Array(items...), nil
		case '{':
			b := d.NewMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Null, err
				}
				key, _ := keyTok.(string)
				it, err := fromJSONToken(d, dec, depth+1)
				if err != nil {
					return Null, err
				}
				b.Put(key, it)
			}
			if _, err := dec.Token(); err != nil {
				return Null, err
			}
			return b.Build()
		}
	}
	return Null, fmt.Errorf("unexpected token %v", tok)
}

func jsonNumber(d *Document, n json.Number) (Item, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return d.Int(v), nil
		}
		return d.ParseDecimal(s)
	}
	f, err := n.Float64()
	if err != nil {
		return Null, err
	}
	return d.Float(f), nil
}

// ============================================================
// ToJSON
// ============================================================

// ToJSON encodes it as JSON. Symbols become strings, binaries base64
// strings, datetimes RFC 3339 strings and decimals bare numbers.
func ToJSON(it Item) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, it); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToJSONIndent is ToJSON followed by indentation.
func ToJSONIndent(it Item, indent string) ([]byte, error) {
	raw, err := ToJSON(it)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}

func writeJSON(buf *bytes.Buffer, it Item) error {
	switch it.Type() {
	case TypeNull:
		buf.WriteString("null")
	case TypeBool:
		buf.WriteString(strconv.FormatBool(it.Bool()))
	case TypeInt, TypeInt64:
		buf.WriteString(strconv.FormatInt(it.Int(), 10))
	case TypeFloat:
		f := it.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("json: cannot encode %s", FormatFloat(f))
		}
		buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case TypeDecimal:
		buf.WriteString(it.Decimal().String())
	case TypeString, TypeSymbol:
		writeJSONString(buf, it.Str().String())
	case TypeBinary:
		writeJSONString(buf, base64.StdEncoding.EncodeToString(it.Str().Bytes()))
	case TypeDateTime:
		writeJSONString(buf, it.DateTime().Format(time.RFC3339Nano))
	case TypeArray, TypeList:
		buf.WriteByte('[')
		for i, c := range Read(it).AsArray().items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case TypeMap:
		buf.WriteByte('{')
		i := 0
		for name, v := range Read(it).AsMap().Entries() {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, name)
			buf.WriteByte(':')
			if err := writeJSON(buf, v.Item()); err != nil {
				return err
			}
			i++
		}
		buf.WriteByte('}')
	case TypeElement:
		el := Read(it).AsElement()
		buf.WriteByte('{')
		writeJSONString(buf, JSONTagKey)
		buf.WriteByte(':')
		writeJSONString(buf, el.TagName())
		for name, v := range el.Attrs() {
			buf.WriteByte(',')
			writeJSONString(buf, name)
			buf.WriteByte(':')
			if err := writeJSON(buf, v.Item()); err != nil {
				return err
			}
		}
		if el.ChildCount() > 0 {
			buf.WriteByte(',')
			writeJSONString(buf, JSONChildrenKey)
			buf.WriteString(":[")
			i := 0
			for c := range el.Children() {
				if i > 0 {
					buf.WriteByte(',')
				}
				if err := writeJSON(buf, c.Item()); err != nil {
					return err
				}
				i++
			}
			buf.WriteByte(']')
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("json: cannot encode %s", it.Type())
	}
	return nil
}
