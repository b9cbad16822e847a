package loader

import (
	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
)

const maxDecodeDepth = 20

// TryDecode parses a string leaf that itself carries serialized JSON or YAML.
// Only objects and arrays count; plain words and numbers are left alone.
func TryDecode(s string) (jsonvalue.Value, bool) {
	if s == "" {
		return jsonvalue.Value{}, false
	}
	v, err := LoadRoot(s)
	if err != nil || !v.IsContainer() {
		return jsonvalue.Value{}, false
	}
	return v, true
}

// RecursiveDecode replaces every string leaf that decodes to a container with
// the decoded structure, so APIs that embed JSON inside strings become
// addressable by path.
func RecursiveDecode(v jsonvalue.Value) jsonvalue.Value {
	return recursiveDecode(v, 0)
}

func recursiveDecode(v jsonvalue.Value, depth int) jsonvalue.Value {
	if depth > maxDecodeDepth {
		return v
	}
	switch v.Kind() {
	case jsonvalue.Object:
		var b jsonvalue.ObjectBuilder
		for _, m := range v.Members() {
			b.Set(m.Key, recursiveDecode(m.Value, depth+1))
		}
		return b.Build()
	case jsonvalue.Array:
		elems := v.Elements()
		for i := range elems {
			elems[i] = recursiveDecode(elems[i], depth+1)
		}
		return jsonvalue.ArrayValue(elems...)
	case jsonvalue.String:
		s, _ := v.Str()
		if decoded, ok := TryDecode(s); ok {
			return recursiveDecode(decoded, depth+1)
		}
		return v
	default:
		return v
	}
}
