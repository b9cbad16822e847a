package pathengine

import (
	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
)

// FieldKind classifies an enumerated path.
type FieldKind string

const (
	FieldLeaf  FieldKind = "leaf"
	FieldArray FieldKind = "array"
)

// Field describes a selectable location in a document.
type Field struct {
	Path string    `json:"path" yaml:"path"`
	Kind FieldKind `json:"kind" yaml:"kind"`
}

// Enumerate returns every leaf and array path in root, depth first, in
// declared key order. See EnumerateFields.
func Enumerate(root jsonvalue.Value) []string {
	fields := EnumerateFields(root)
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Path
	}
	return out
}

// EnumerateFields walks root and reports:
//   - every array under a path P as an array field, followed by P[i] for each element;
//   - every scalar (including null) reached through a non-empty path as a leaf.
//
// Objects contribute only their children. Members with an empty key have no
// path and are skipped along with everything below them. Each path appears
// once, at its first discovery.
func EnumerateFields(root jsonvalue.Value) []Field {
	c := newCollector()
	c.walkFields(root, "")
	return c.fields
}

// FindArrayPaths returns every path whose value is an array, recursing through
// objects only. Elements of an array are not searched, so arrays nested inside
// arrays are not reported.
func FindArrayPaths(root jsonvalue.Value) []string {
	c := newCollector()
	c.walkArrays(root, "")
	out := make([]string, len(c.fields))
	for i, f := range c.fields {
		out[i] = f.Path
	}
	return out
}

type collector struct {
	seen   map[string]struct{}
	fields []Field
}

func newCollector() *collector {
	return &collector{seen: make(map[string]struct{}), fields: []Field{}}
}

func (c *collector) add(path string, kind FieldKind) {
	if _, dup := c.seen[path]; dup {
		return
	}
	c.seen[path] = struct{}{}
	c.fields = append(c.fields, Field{Path: path, Kind: kind})
}

func (c *collector) walkFields(v jsonvalue.Value, prefix string) {
	switch v.Kind() {
	case jsonvalue.Invalid:
		return
	case jsonvalue.Object:
		for _, m := range v.Members() {
			if m.Key == "" {
				continue
			}
			c.walkFields(m.Value, Join(prefix, m.Key))
		}
	case jsonvalue.Array:
		if prefix == "" {
			return
		}
		c.add(prefix, FieldArray)
		for i, e := range v.Elements() {
			c.walkFields(e, IndexPath(prefix, i))
		}
	default:
		if prefix != "" {
			c.add(prefix, FieldLeaf)
		}
	}
}

func (c *collector) walkArrays(v jsonvalue.Value, prefix string) {
	if v.Kind() != jsonvalue.Object {
		return
	}
	for _, m := range v.Members() {
		if m.Key == "" {
			continue
		}
		path := Join(prefix, m.Key)
		switch m.Value.Kind() {
		case jsonvalue.Array:
			c.add(path, FieldArray)
		case jsonvalue.Object:
			c.walkArrays(m.Value, path)
		}
	}
}
