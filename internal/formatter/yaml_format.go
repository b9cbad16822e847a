package formatter

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
)

// YAMLFormatOptions control YAML rendering.
type YAMLFormatOptions struct {
	Indent              int
	LiteralBlockStrings bool
}

// FormatYAML renders a document as YAML, keeping object key order. Multi-line
// strings can be emitted as literal blocks ("|").
func FormatYAML(v jsonvalue.Value, opts YAMLFormatOptions) (string, error) {
	node := ToYAMLNode(v)
	if opts.LiteralBlockStrings {
		applyLiteralStyle(node)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	indent := opts.Indent
	if indent <= 0 {
		indent = 2
	}
	enc.SetIndent(indent)
	if err := enc.Encode(node); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ToYAMLNode converts a value to a yaml.Node tree in declared order.
func ToYAMLNode(v jsonvalue.Value) *yaml.Node {
	switch v.Kind() {
	case jsonvalue.Object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, m := range v.Members() {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Key},
				ToYAMLNode(m.Value))
		}
		return n
	case jsonvalue.Array:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.Elements() {
			n.Content = append(n.Content, ToYAMLNode(e))
		}
		return n
	case jsonvalue.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v.String()}
	case jsonvalue.Number:
		tag := "!!float"
		if _, ok := v.Int(); ok {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.String()}
	case jsonvalue.String:
		s, _ := v.Str()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

func applyLiteralStyle(n *yaml.Node) {
	if n == nil {
		return
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && strings.Contains(n.Value, "\n") {
		n.Style = yaml.LiteralStyle
	}
	for _, c := range n.Content {
		applyLiteralStyle(c)
	}
}
