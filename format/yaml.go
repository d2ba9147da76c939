package format

import (
	"bytes"
	"encoding/base64"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Neumenon/lambda/lambda"
)

// YAML renders it as a YAML document. Elements become mappings with the
// same "$tag" and "$children" keys the JSON bridge uses.
func YAML(it lambda.Item) (string, error) {
	node, err := YAMLNode(it)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return "", errors.Wrap(err, "format: yaml")
	}
	if err := enc.Close(); err != nil {
		return "", errors.Wrap(err, "format: yaml")
	}
	return buf.String(), nil
}

// YAMLNode builds the yaml.v3 node tree for it, keeping map order.
func YAMLNode(it lambda.Item) (*yaml.Node, error) {
	return yamlNode(lambda.Read(it), "")
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func yamlNode(v lambda.ItemReader, path string) (*yaml.Node, error) {
	switch v.Type() {
	case lambda.TypeNull:
		return scalar("!!null", "null"), nil
	case lambda.TypeBool:
		return scalar("!!bool", strconv.FormatBool(v.AsBool())), nil
	case lambda.TypeInt, lambda.TypeInt64:
		return scalar("!!int", strconv.FormatInt(v.AsInt(), 10)), nil
	case lambda.TypeFloat:
		return scalar("!!float", yamlFloat(v.AsFloat())), nil
	case lambda.TypeDecimal:
		return scalar("!!float", v.Item().Decimal().String()), nil
	case lambda.TypeString, lambda.TypeSymbol:
		return scalar("!!str", v.AsString()), nil
	case lambda.TypeBinary:
		return scalar("!!binary", base64.StdEncoding.EncodeToString(v.Item().Str().Bytes())), nil
	case lambda.TypeDateTime:
		return scalar("!!timestamp", v.Item().DateTime().Format(time.RFC3339Nano)), nil

	case lambda.TypeArray, lambda.TypeList:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		i := 0
		for c := range v.AsArray().Items() {
			n, err := yamlNode(c, path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
			i++
		}
		return seq, nil

	case lambda.TypeMap:
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for name, c := range v.AsMap().Entries() {
			n, err := yamlNode(c, path+"/"+name)
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, scalar("!!str", name), n)
		}
		return m, nil

	case lambda.TypeElement:
		el := v.AsElement()
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		m.Content = append(m.Content, scalar("!!str", lambda.JSONTagKey), scalar("!!str", el.TagName()))
		for name, c := range el.Attrs() {
			n, err := yamlNode(c, path+"/@"+name)
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, scalar("!!str", name), n)
		}
		if el.ChildCount() > 0 {
			seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
			i := 0
			for c := range el.Children() {
				n, err := yamlNode(c, path+"/<"+el.TagName()+">["+strconv.Itoa(i)+"]")
				if err != nil {
					return nil, err
				}
				seq.Content = append(seq.Content, n)
				i++
			}
			m.Content = append(m.Content, scalar("!!str", lambda.JSONChildrenKey), seq)
		}
		return m, nil
	}
	return nil, &UnsupportedError{Format: "yaml", Path: path, Type: v.Type()}
}

func yamlFloat(f float64) string {
	switch s := lambda.FormatFloat(f); s {
	case "inf":
		return ".inf"
	case "-inf":
		return "-.inf"
	case "nan":
		return ".nan"
	default:
		return s
	}
}
