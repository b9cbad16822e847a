package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyInput  = errors.New("input is empty or contains only whitespace")
	ErrInvalidJSON = errors.New("invalid JSON")
	ErrInvalidYAML = errors.New("invalid YAML")
)

// Parse decodes a single JSON document. Object keys keep document order.
func Parse(data []byte) (Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Value{}, ErrEmptyInput
	}
	if !gjson.ValidBytes(data) {
		return Value{}, ErrInvalidJSON
	}
	return fromResult(gjson.ParseBytes(data)), nil
}

// ParseString is Parse for string input.
func ParseString(s string) (Value, error) {
	return Parse([]byte(s))
}

// MustParse is Parse for literals known to be valid; it panics otherwise.
func MustParse(s string) Value {
	v, err := ParseString(s)
	if err != nil {
		panic(fmt.Sprintf("jsonvalue: %v: %q", err, s))
	}
	return v
}

func fromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.Null:
		return NullValue()
	case gjson.False:
		return BoolValue(false)
	case gjson.True:
		return BoolValue(true)
	case gjson.Number:
		return NumberValue(r.Raw)
	case gjson.String:
		return StringValue(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			elems := []Value{}
			r.ForEach(func(_, item gjson.Result) bool {
				elems = append(elems, fromResult(item))
				return true
			})
			return ArrayValue(elems...)
		}
		var b ObjectBuilder
		r.ForEach(func(key, item gjson.Result) bool {
			b.Set(key.Str, fromResult(item))
			return true
		})
		return b.Build()
	default:
		return Value{}
	}
}

// UnmarshalJSON lets a Value be embedded in structs decoded by encoding/json.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromYAML decodes the first YAML document. Mapping order is preserved and
// aliases are followed.
func FromYAML(data []byte) (Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Value{}, ErrEmptyInput
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Value{}, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
	}
	return FromYAMLNode(&doc), nil
}

// FromYAMLNode converts a decoded yaml.Node tree.
func FromYAMLNode(n *yaml.Node) Value {
	if n == nil {
		return Value{}
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return NullValue()
		}
		return FromYAMLNode(n.Content[0])
	case yaml.MappingNode:
		var b ObjectBuilder
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			// Merge keys (<<) are flattened into the enclosing mapping.
			if key.ShortTag() == "!!merge" {
				mergeYAML(&b, n.Content[i+1])
				continue
			}
			b.Set(key.Value, FromYAMLNode(n.Content[i+1]))
		}
		return b.Build()
	case yaml.SequenceNode:
		elems := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			elems = append(elems, FromYAMLNode(c))
		}
		return ArrayValue(elems...)
	case yaml.AliasNode:
		return FromYAMLNode(n.Alias)
	case yaml.ScalarNode:
		return yamlScalar(n)
	default:
		return Value{}
	}
}

func mergeYAML(b *ObjectBuilder, src *yaml.Node) {
	if src.Kind == yaml.AliasNode {
		src = src.Alias
	}
	switch src.Kind {
	case yaml.MappingNode:
		merged := FromYAMLNode(src)
		for _, m := range merged.Members() {
			b.Set(m.Key, m.Value)
		}
	case yaml.SequenceNode:
		for _, c := range src.Content {
			mergeYAML(b, c)
		}
	}
}

func yamlScalar(n *yaml.Node) Value {
	switch n.ShortTag() {
	case "!!null":
		return NullValue()
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return StringValue(n.Value)
		}
		return BoolValue(b)
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return StringValue(n.Value)
		}
		return IntValue(i)
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return StringValue(n.Value)
		}
		return FloatValue(f)
	default:
		return StringValue(n.Value)
	}
}

// FromAny converts Go natives, as produced by encoding/json, yaml.v3 or
// go-toml. Go maps carry no order, so their keys are sorted ascending.
// Other types take a JSON round trip.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return t, nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case json.Number:
		return NumberValue(t.String()), nil
	case int:
		return IntValue(int64(t)), nil
	case int8:
		return IntValue(int64(t)), nil
	case int16:
		return IntValue(int64(t)), nil
	case int32:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case uint:
		return NumberValue(strconv.FormatUint(uint64(t), 10)), nil
	case uint8:
		return IntValue(int64(t)), nil
	case uint16:
		return IntValue(int64(t)), nil
	case uint32:
		return IntValue(int64(t)), nil
	case uint64:
		return NumberValue(strconv.FormatUint(t, 10)), nil
	case float32:
		return floatOrError(float64(t))
	case float64:
		return floatOrError(t)
	case []any:
		elems := make([]Value, 0, len(t))
		for i, e := range t {
			v, err := FromAny(e)
			if err != nil {
				return Value{}, fmt.Errorf("element [%d]: %w", i, err)
			}
			elems = append(elems, v)
		}
		return ArrayValue(elems...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b ObjectBuilder
		for _, k := range keys {
			v, err := FromAny(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			b.Set(k, v)
		}
		return b.Build(), nil
	}

	rv := reflect.ValueOf(x)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() != reflect.String {
		// yaml.v3 may produce map[interface{}]interface{} for non-string keys.
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
		}
		return FromAny(m)
	}

	data, err := json.Marshal(x)
	if err != nil {
		return Value{}, fmt.Errorf("cannot convert %T to JSON: %w", x, err)
	}
	return Parse(data)
}

func floatOrError(f float64) (Value, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Value{}, fmt.Errorf("unsupported number %v", f)
	}
	return FloatValue(f), nil
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
