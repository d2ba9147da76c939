package input

import (
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/Neumenon/lambda/lambda"
)

// TOML parses a TOML document into a map. Keys keep document order, taken
// from the decoder's key list.
func TOML(d *lambda.Document, src []byte) (lambda.Item, error) {
	var raw map[string]interface{}
	md, err := toml.Decode(string(src), &raw)
	if err != nil {
		return lambda.Null, errors.Wrap(err, "toml")
	}

	order := make(keyOrder)
	for _, k := range md.Keys() {
		order.add(k)
	}
	return tomlItem(d, order, nil, raw)
}

// keyOrder lists child names per parent path in first-seen order. Array
// indexes are not part of a path, so every table of an array shares one
// ordering.
type keyOrder map[string][]string

func (o keyOrder) add(k toml.Key) {
	for i := range k {
		parent := strings.Join(k[:i], "\x00")
		name := k[i]
		known := false
		for _, n := range o[parent] {
			if n == name {
				known = true
				break
			}
		}
		if !known {
			o[parent] = append(o[parent], name)
		}
	}
}

// names returns the keys of m, ordered by o and then by name.
func (o keyOrder) names(path []string, m map[string]interface{}) []string {
	names := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, n := range o[strings.Join(path, "\x00")] {
		if _, ok := m[n]; ok && !seen[n] {
			names = append(names, n)
			seen[n] = true
		}
	}
	var rest []string
	for n := range m {
		if !seen[n] {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func tomlItem(d *lambda.Document, o keyOrder, path []string, v interface{}) (lambda.Item, error) {
	switch v := v.(type) {
	case map[string]interface{}:
		b := d.NewMap()
		for _, name := range o.names(path, v) {
			sub := append(append([]string(nil), path...), name)
			it, err := tomlItem(d, o, sub, v[name])
			if err != nil {
				return lambda.Null, err
			}
			b.Put(name, it)
		}
		return b.Build()
	case []map[string]interface{}:
		items := make([]lambda.Item, 0, len(v))
		for _, m := range v {
			it, err := tomlItem(d, o, path, m)
			if err != nil {
				return lambda.Null, err
			}
			items = append(items, it)
		}
		return d.Array(items...), nil
	case []interface{}:
		items := make([]lambda.Item, 0, len(v))
		for _, c := range v {
			it, err := tomlItem(d, o, path, c)
			if err != nil {
				return lambda.Null, err
			}
			items = append(items, it)
		}
		return d.Array(items...), nil
	case string:
		return d.String(v)
	case int64:
		return d.Int(v), nil
	case float64:
		return d.Float(v), nil
	case bool:
		return lambda.Bool(v), nil
	case time.Time:
		return d.DateTime(v), nil
	}
	return lambda.Null, errors.Errorf("toml: unsupported value %T at %s", v, strings.Join(path, "."))
}
