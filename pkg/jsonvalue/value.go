// Package jsonvalue models a parsed JSON document as a closed tagged union.
// Objects keep the key order declared in the source document so that field
// pickers and table columns come out in the order the API author wrote them.
package jsonvalue

import (
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	// Invalid marks the zero Value: no document, or a lookup that found nothing.
	Invalid Kind = iota
	Null
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "absent"
	}
}

// Member is a single key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// Value is an immutable JSON value. The zero Value is absent.
type Value struct {
	kind Kind
	b    bool
	s    string // string payload, or the literal text of a number
	arr  []Value
	obj  *object
}

type object struct {
	members []Member
	index   map[string]int
}

// NullValue returns the JSON null.
func NullValue() Value { return Value{kind: Null} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: String, s: s} }

// NumberValue wraps the literal text of a JSON number. The text is kept
// verbatim so that 83.10 renders the way the API sent it.
func NumberValue(text string) Value { return Value{kind: Number, s: text} }

// IntValue wraps an integer.
func IntValue(n int64) Value { return NumberValue(strconv.FormatInt(n, 10)) }

// FloatValue wraps a float using the shortest representation that round-trips.
func FloatValue(f float64) Value { return NumberValue(formatFloat(f)) }

// ArrayValue builds an array from the given elements.
func ArrayValue(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{kind: Array, arr: elems}
}

// ObjectValue builds an object from members. On duplicate keys the last value
// wins but the key keeps the position of its first occurrence.
func ObjectValue(members ...Member) Value {
	var b ObjectBuilder
	for _, m := range members {
		b.Set(m.Key, m.Value)
	}
	return b.Build()
}

// ObjectBuilder accumulates members in insertion order.
type ObjectBuilder struct {
	members []Member
	index   map[string]int
}

// Set adds or replaces a member.
func (b *ObjectBuilder) Set(key string, v Value) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if i, ok := b.index[key]; ok {
		b.members[i].Value = v
		return
	}
	b.index[key] = len(b.members)
	b.members = append(b.members, Member{Key: key, Value: v})
}

// Build returns the finished object. The builder must not be reused.
func (b *ObjectBuilder) Build() Value {
	if b.index == nil {
		b.index = map[string]int{}
	}
	return Value{kind: Object, obj: &object{members: b.members, index: b.index}}
}

// Kind reports the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v is the zero Value.
func (v Value) IsAbsent() bool { return v.kind == Invalid }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == Null }

// IsContainer reports whether v is an array or an object.
func (v Value) IsContainer() bool { return v.kind == Array || v.kind == Object }

// Bool returns the boolean payload.
func (v Value) Bool() (bool, bool) {
	if v.kind != Bool {
		return false, false
	}
	return v.b, true
}

// Str returns the string payload.
func (v Value) Str() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.s, true
}

// NumberText returns the literal text of a number.
func (v Value) NumberText() (string, bool) {
	if v.kind != Number {
		return "", false
	}
	return v.s, true
}

// Float returns the numeric payload as float64.
func (v Value) Float() (float64, bool) {
	if v.kind != Number {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int returns the numeric payload as int64 when it is integral.
func (v Value) Int() (int64, bool) {
	if v.kind != Number {
		return 0, false
	}
	n, err := strconv.ParseInt(v.s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Len returns the number of elements or members; zero for scalars.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.arr)
	case Object:
		return len(v.obj.members)
	default:
		return 0
	}
}

// Index returns the i-th array element.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != Array || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Get returns the member stored under key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	i, ok := v.obj.index[key]
	if !ok {
		return Value{}, false
	}
	return v.obj.members[i].Value, true
}

// Has reports whether an object contains key.
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Keys returns object keys in declared order. Never nil for objects.
func (v Value) Keys() []string {
	if v.kind != Object {
		return nil
	}
	keys := make([]string, len(v.obj.members))
	for i, m := range v.obj.members {
		keys[i] = m.Key
	}
	return keys
}

// Members returns a copy of the object members in declared order.
func (v Value) Members() []Member {
	if v.kind != Object {
		return nil
	}
	out := make([]Member, len(v.obj.members))
	copy(out, v.obj.members)
	return out
}

// Elements returns a copy of the array elements.
func (v Value) Elements() []Value {
	if v.kind != Array {
		return nil
	}
	out := make([]Value, len(v.arr))
	copy(out, v.arr)
	return out
}

// Equal reports deep equality. Numbers compare by value, objects ignore key order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Invalid, Null:
		return true
	case Bool:
		return v.b == o.b
	case String:
		return v.s == o.s
	case Number:
		if v.s == o.s {
			return true
		}
		a, okA := v.Float()
		b, okB := o.Float()
		return okA && okB && a == b
	case Array:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(v.obj.members) != len(o.obj.members) {
			return false
		}
		for _, m := range v.obj.members {
			other, ok := o.Get(m.Key)
			if !ok || !m.Value.Equal(other) {
				return false
			}
		}
		return true
	}
	return false
}

// String returns display text: strings unquoted, numbers verbatim, containers
// as compact JSON, and the empty string for an absent value.
func (v Value) String() string {
	switch v.kind {
	case Invalid:
		return ""
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(v.b)
	case Number, String:
		return v.s
	default:
		b, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(b)
	}
}
