package input

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/Neumenon/lambda/lambda"
)

// INI parses an INI file into a map. Keys before the first [section] sit
// at the root. Dotted section names nest: [a.b] is map b inside map a.
// Values are typed: quoted strings, true/false, integers, floats, an empty
// value is null, and anything else a string.
func INI(d *lambda.Document, src []byte) (lambda.Item, error) {
	root := newIniTable()
	cur := root

	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64<<10), lambda.MaxStringLen)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		switch {
		case text == "", text[0] == ';', text[0] == '#':
			continue
		case text[0] == '[':
			end := strings.IndexByte(text, ']')
			if end < 0 {
				return lambda.Null, errors.Errorf("ini: line %d: unterminated section header", line)
			}
			name := strings.TrimSpace(text[1:end])
			if name == "" {
				return lambda.Null, errors.Errorf("ini: line %d: empty section name", line)
			}
			cur = root
			for _, part := range strings.Split(name, ".") {
				var err error
				if cur, err = cur.table(strings.TrimSpace(part)); err != nil {
					return lambda.Null, errors.Wrapf(err, "ini: line %d", line)
				}
			}
		default:
			i := strings.IndexAny(text, "=:")
			if i <= 0 {
				return lambda.Null, errors.Errorf("ini: line %d: expected key = value", line)
			}
			key := strings.TrimSpace(text[:i])
			value, err := iniValue(strings.TrimSpace(text[i+1:]))
			if err != nil {
				return lambda.Null, errors.Wrapf(err, "ini: line %d", line)
			}
			cur.set(key, value)
		}
	}
	if err := sc.Err(); err != nil {
		return lambda.Null, errors.Wrap(err, "ini")
	}
	return root.build(d)
}

// iniTable is a section under construction.
type iniTable struct {
	keys []string
	vals map[string]interface{} // iniScalar or *iniTable
}

type iniScalar struct {
	kind  lambda.TypeID
	text  string
	num   int64
	float float64
}

func newIniTable() *iniTable {
	return &iniTable{vals: make(map[string]interface{})}
}

func (t *iniTable) set(key string, v interface{}) {
	if _, ok := t.vals[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.vals[key] = v
}

func (t *iniTable) table(name string) (*iniTable, error) {
	switch v := t.vals[name].(type) {
	case *iniTable:
		return v, nil
	case nil:
		sub := newIniTable()
		t.set(name, sub)
		return sub, nil
	}
	return nil, errors.Errorf("section %q redefines a key", name)
}

func (t *iniTable) build(d *lambda.Document) (lambda.Item, error) {
	b := d.NewMap()
	for _, k := range t.keys {
		switch v := t.vals[k].(type) {
		case *iniTable:
			it, err := v.build(d)
			if err != nil {
				return lambda.Null, err
			}
			b.Put(k, it)
		case iniScalar:
			it, err := v.item(d)
			if err != nil {
				return lambda.Null, err
			}
			b.Put(k, it)
		}
	}
	return b.Build()
}

func (s iniScalar) item(d *lambda.Document) (lambda.Item, error) {
	switch s.kind {
	case lambda.TypeNull:
		return lambda.Null, nil
	case lambda.TypeBool:
		return lambda.Bool(s.text == "true"), nil
	case lambda.TypeInt:
		return d.Int(s.num), nil
	case lambda.TypeFloat:
		return d.Float(s.float), nil
	}
	return d.String(s.text)
}

func iniValue(raw string) (iniScalar, error) {
	if raw == "" {
		return iniScalar{kind: lambda.TypeNull}, nil
	}
	if raw[0] == '"' {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return iniScalar{}, errors.Wrap(err, "bad quoted value")
		}
		return iniScalar{kind: lambda.TypeString, text: s}, nil
	}
	if i := strings.IndexAny(raw, ";#"); i > 0 && (raw[i-1] == ' ' || raw[i-1] == '\t') {
		raw = strings.TrimSpace(raw[:i])
	}
	switch strings.ToLower(raw) {
	case "true", "false":
		return iniScalar{kind: lambda.TypeBool, text: strings.ToLower(raw)}, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return iniScalar{kind: lambda.TypeInt, num: n}, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && strings.ContainsAny(raw, ".eE") {
		return iniScalar{kind: lambda.TypeFloat, float: f}, nil
	}
	return iniScalar{kind: lambda.TypeString, text: raw}, nil
}
