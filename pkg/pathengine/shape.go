package pathengine

import (
	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
)

// ShapeKind describes the general structure of a value.
type ShapeKind string

const (
	ShapeAbsent           ShapeKind = "absent"
	ShapeScalar           ShapeKind = "scalar"
	ShapeObject           ShapeKind = "object"
	ShapeArray            ShapeKind = "array"
	ShapeHomogeneousArray ShapeKind = "homogeneous_array" // objects sharing one key set
)

// ShapeInfo summarises a value for rendering decisions.
type ShapeInfo struct {
	Kind   ShapeKind `json:"kind" yaml:"kind"`
	Fields []string  `json:"fields,omitempty" yaml:"fields,omitempty"` // homogeneous arrays: keys of the first row
	Length int       `json:"length" yaml:"length"`                     // elements or members
}

// Shape inspects v without descending further than one level.
func Shape(v jsonvalue.Value) ShapeInfo {
	switch v.Kind() {
	case jsonvalue.Invalid:
		return ShapeInfo{Kind: ShapeAbsent}
	case jsonvalue.Object:
		return ShapeInfo{Kind: ShapeObject, Length: v.Len()}
	case jsonvalue.Array:
		if fields, ok := homogeneousFields(v); ok {
			return ShapeInfo{Kind: ShapeHomogeneousArray, Fields: fields, Length: v.Len()}
		}
		return ShapeInfo{Kind: ShapeArray, Length: v.Len()}
	default:
		return ShapeInfo{Kind: ShapeScalar}
	}
}

// IsHomogeneous reports whether arr is a non-empty array of objects that all
// share the same non-empty key set.
func IsHomogeneous(arr jsonvalue.Value) bool {
	_, ok := homogeneousFields(arr)
	return ok
}

func homogeneousFields(arr jsonvalue.Value) ([]string, bool) {
	if arr.Kind() != jsonvalue.Array || arr.Len() == 0 {
		return nil, false
	}
	first, _ := arr.Index(0)
	if first.Kind() != jsonvalue.Object || first.Len() == 0 {
		return nil, false
	}
	base := first.Keys()
	for i := 1; i < arr.Len(); i++ {
		row, _ := arr.Index(i)
		if row.Kind() != jsonvalue.Object || row.Len() != len(base) {
			return nil, false
		}
		for _, k := range base {
			if !row.Has(k) {
				return nil, false
			}
		}
	}
	return base, true
}
