package pathengine

import (
	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
)

// ValueColumn names the single column of an array of scalars: the element itself.
const ValueColumn = "value"

// ColumnsOf infers the table schema of the array at arrayPath from its first
// element only. An object yields its keys in declared order; anything else
// yields ValueColumn. Later rows may carry different keys; renderers treat a
// missing key as "no value". The result is empty, never nil, when the path
// does not resolve to a non-empty array.
func ColumnsOf(root jsonvalue.Value, arrayPath string) []string {
	arr, ok := Resolve(root, arrayPath)
	if !ok || arr.Kind() != jsonvalue.Array || arr.Len() == 0 {
		return []string{}
	}
	first, _ := arr.Index(0)
	if first.Kind() == jsonvalue.Object {
		return first.Keys()
	}
	return []string{ValueColumn}
}

// UnionColumnsOf is an opt-in alternative to ColumnsOf that collects keys from
// every object row, in first-seen order. ValueColumn is appended once when any
// row is not an object.
func UnionColumnsOf(root jsonvalue.Value, arrayPath string) []string {
	arr, ok := Resolve(root, arrayPath)
	if !ok || arr.Kind() != jsonvalue.Array {
		return []string{}
	}
	out := []string{}
	seen := make(map[string]struct{})
	scalarRow := false
	for _, row := range arr.Elements() {
		if row.Kind() != jsonvalue.Object {
			scalarRow = true
			continue
		}
		for _, k := range row.Keys() {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	if _, dup := seen[ValueColumn]; scalarRow && !dup {
		out = append(out, ValueColumn)
	}
	return out
}

// Rows returns the elements of the array at arrayPath, or nil.
func Rows(root jsonvalue.Value, arrayPath string) []jsonvalue.Value {
	arr, ok := Resolve(root, arrayPath)
	if !ok || arr.Kind() != jsonvalue.Array {
		return nil
	}
	return arr.Elements()
}

// Cell looks up column in a table row. An exact key match on an object row
// wins; otherwise column is resolved as a path relative to the row, so chart
// axes may point below the row ("meta.date"). ValueColumn on a non-object row
// is the row itself.
func Cell(row jsonvalue.Value, column string) (jsonvalue.Value, bool) {
	switch row.Kind() {
	case jsonvalue.Invalid:
		return jsonvalue.Value{}, false
	case jsonvalue.Object:
		if v, ok := row.Get(column); ok {
			return v, true
		}
		if column == "" {
			return jsonvalue.Value{}, false
		}
		return Resolve(row, column)
	default:
		if column == ValueColumn {
			return row, true
		}
		return jsonvalue.Value{}, false
	}
}
