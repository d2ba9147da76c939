package input

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Neumenon/lambda/lambda"
)

// YAML parses the first document of a YAML stream. Mappings keep their
// key order. An empty stream is null.
func YAML(d *lambda.Document, src []byte) (lambda.Item, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(src, &root); err != nil {
		return lambda.Null, errors.Wrap(err, "yaml")
	}
	if root.Kind == 0 {
		return lambda.Null, nil
	}
	return yamlItem(d, &root, 0)
}

func yamlItem(d *lambda.Document, n *yaml.Node, depth int) (lambda.Item, error) {
	if depth > maxDepth {
		return lambda.Null, errors.Errorf("yaml: nesting deeper than %d at line %d", maxDepth, n.Line)
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return lambda.Null, nil
		}
		return yamlItem(d, n.Content[0], depth)

	case yaml.AliasNode:
		return yamlItem(d, n.Alias, depth+1)

	case yaml.SequenceNode:
		items := make([]lambda.Item, 0, len(n.Content))
		for _, c := range n.Content {
			it, err := yamlItem(d, c, depth+1)
			if err != nil {
				return lambda.Null, err
			}
			items = append(items, it)
		}
		return d.Array(items...), nil

	case yaml.MappingNode:
		b := d.NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return lambda.Null, errors.Errorf("yaml: non-scalar key at line %d", k.Line)
			}
			it, err := yamlItem(d, v, depth+1)
			if err != nil {
				return lambda.Null, err
			}
			b.Put(k.Value, it)
		}
		return b.Build()

	case yaml.ScalarNode:
		return yamlScalar(d, n)
	}
	return lambda.Null, errors.Errorf("yaml: unexpected node kind %d at line %d", n.Kind, n.Line)
}

func yamlScalar(d *lambda.Document, n *yaml.Node) (lambda.Item, error) {
	switch n.ShortTag() {
	case "!!null":
		return lambda.Null, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return lambda.Null, errors.Wrap(err, "yaml")
		}
		return lambda.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return d.Int(i), nil
		}
		// out of int64 range
		f, err := strconv.ParseFloat(strings.ReplaceAll(n.Value, "_", ""), 64)
		if err != nil {
			return lambda.Null, errors.Wrapf(err, "yaml: line %d", n.Line)
		}
		return d.Float(f), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return lambda.Null, errors.Wrap(err, "yaml")
		}
		return d.Float(f), nil
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return lambda.Null, errors.Wrap(err, "yaml")
		}
		return d.DateTime(t), nil
	case "!!binary":
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return lambda.Null, errors.Wrapf(err, "yaml: line %d", n.Line)
		}
		return d.Binary(b)
	}
	return d.String(n.Value)
}
