package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// MarshalJSON writes compact JSON with object keys in declared order.
// An absent value encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case Invalid, Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(v.b))
	case Number:
		if !json.Valid([]byte(v.s)) {
			return errors.New("jsonvalue: invalid number literal " + strconv.Quote(v.s))
		}
		buf.WriteString(v.s)
	case String:
		return writeString(buf, v.s)
	case Array:
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range v.obj.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// MarshalIndent is MarshalJSON followed by json.Indent.
func (v Value) MarshalIndent(prefix, indent string) ([]byte, error) {
	compact, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, prefix, indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// ToAny converts v into the Go natives used by encoding/json and CEL:
// nil, bool, int64 or float64, string, []any and map[string]any.
func (v Value) ToAny() any {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		if n, ok := v.Int(); ok {
			return n
		}
		f, _ := v.Float()
		return f
	case String:
		return v.s
	case Array:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.ToAny()
		}
		return out
	case Object:
		out := make(map[string]any, len(v.obj.members))
		for _, m := range v.obj.members {
			out[m.Key] = m.Value.ToAny()
		}
		return out
	default:
		return nil
	}
}
