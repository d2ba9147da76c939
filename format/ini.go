package format

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/Neumenon/lambda/lambda"
)

// ============================================================
// INI
// ============================================================
//
//   name = value          ; root scalars
//
//   [section]
//   key = a, b, c         ; sequences are comma-joined
//
//   [section.nested]      ; maps below a section become dotted sections
//   empty =               ; null

// INI renders a root map as an INI document.
func INI(it lambda.Item) (string, error) {
	if it.Type() != lambda.TypeMap {
		return "", ErrRootNotMap
	}
	var sb strings.Builder
	if err := iniSection(&sb, nil, lambda.Read(it).AsMap()); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func iniSection(sb *strings.Builder, path []string, m lambda.MapReader) error {
	var sections []string
	for name, v := range m.Entries() {
		if v.IsMap() {
			sections = append(sections, name)
			continue
		}
		val, err := iniValue(append(path, name), v)
		if err != nil {
			return err
		}
		sb.WriteString(name)
		if val == "" {
			sb.WriteString(" =\n")
			continue
		}
		sb.WriteString(" = ")
		sb.WriteString(val)
		sb.WriteByte('\n')
	}

	for _, name := range sections {
		sub := append(append([]string(nil), path...), name)
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteByte('[')
		sb.WriteString(strings.Join(sub, "."))
		sb.WriteString("]\n")
		if err := iniSection(sb, sub, m.Get(name).AsMap()); err != nil {
			return err
		}
	}
	return nil
}

func iniValue(path []string, v lambda.ItemReader) (string, error) {
	switch v.Type() {
	case lambda.TypeNull:
		return "", nil
	case lambda.TypeBool:
		return strconv.FormatBool(v.AsBool()), nil
	case lambda.TypeInt, lambda.TypeInt64:
		return strconv.FormatInt(v.AsInt(), 10), nil
	case lambda.TypeFloat:
		return lambda.FormatFloat(v.AsFloat()), nil
	case lambda.TypeDecimal:
		return v.Item().Decimal().String(), nil
	case lambda.TypeString, lambda.TypeSymbol:
		return iniString(v.AsString()), nil
	case lambda.TypeBinary:
		return base64.StdEncoding.EncodeToString(v.Item().Str().Bytes()), nil
	case lambda.TypeDateTime:
		return v.Item().DateTime().Format(time.RFC3339Nano), nil
	case lambda.TypeArray, lambda.TypeList:
		var parts []string
		for i := 0; i < v.AsArray().Length(); i++ {
			c := v.AsArray().At(i)
			if c.IsSequence() || c.IsMap() || c.IsElement() {
				return "", &UnsupportedError{Format: "ini", Path: strings.Join(append(path, strconv.Itoa(i)), "."), Type: c.Type()}
			}
			s, err := iniValue(path, c)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", "), nil
	}
	return "", &UnsupportedError{Format: "ini", Path: strings.Join(path, "."), Type: v.Type()}
}

// iniString quotes values that would not read back as typed.
func iniString(s string) string {
	if s == "" {
		return `""`
	}
	if s == strings.TrimSpace(s) && !strings.ContainsAny(s, ";#=\"\n\r,[]") {
		return s
	}
	return strconv.Quote(s)
}
