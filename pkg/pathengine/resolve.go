package pathengine

import (
	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
)

// Resolve looks up path in root. The boolean is false when the path is
// malformed, a key or index is missing, a step indexes into the wrong kind of
// value, or any value before the last step is null. A legitimate null at the
// end of the path is found.
func Resolve(root jsonvalue.Value, path string) (jsonvalue.Value, bool) {
	p, err := Parse(path)
	if err != nil {
		return jsonvalue.Value{}, false
	}
	return ResolvePath(root, p)
}

// ResolvePath is Resolve for a pre-parsed path.
func ResolvePath(root jsonvalue.Value, p Path) (jsonvalue.Value, bool) {
	if root.IsAbsent() {
		return jsonvalue.Value{}, false
	}
	cur := root
	for _, seg := range p {
		if cur.IsNull() || cur.IsAbsent() {
			return jsonvalue.Value{}, false
		}
		var ok bool
		switch seg.Kind {
		case MemberSegment:
			cur, ok = cur.Get(seg.Key)
		case IndexSegment:
			cur, ok = cur.Index(seg.Index)
		}
		if !ok {
			return jsonvalue.Value{}, false
		}
	}
	return cur, true
}

// ResolveOr returns the display text at path, or placeholder when the path
// does not resolve or resolves to null.
func ResolveOr(root jsonvalue.Value, path, placeholder string) string {
	v, ok := Resolve(root, path)
	if !ok || v.IsNull() {
		return placeholder
	}
	return v.String()
}
