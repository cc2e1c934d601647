package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindScalar
	KindList
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Value is a node of a configuration tree: a null, a scalar (string, int,
// float64 or bool), a list of values or an ordered mapping.
//
// Values are immutable once built; accessors return copies of the
// underlying slices.
type Value struct {
	kind    Kind
	scalar  any
	list    []Value
	mapping Mapping
}

// Null returns the null value.
func Null() Value {
	return Value{}
}

// Scalar wraps v as a scalar value. Integer and float types are normalised to
// int and float64; nil yields Null and unknown types are formatted as strings.
func Scalar(v any) Value {
	switch s := v.(type) {
	case nil:
		return Null()
	case string, bool, int, float64:
		return Value{kind: KindScalar, scalar: s}
	case int8:
		return Value{kind: KindScalar, scalar: int(s)}
	case int16:
		return Value{kind: KindScalar, scalar: int(s)}
	case int32:
		return Value{kind: KindScalar, scalar: int(s)}
	case int64:
		return Value{kind: KindScalar, scalar: int(s)}
	case uint:
		return Value{kind: KindScalar, scalar: int(s)}
	case uint8:
		return Value{kind: KindScalar, scalar: int(s)}
	case uint16:
		return Value{kind: KindScalar, scalar: int(s)}
	case uint32:
		return Value{kind: KindScalar, scalar: int(s)}
	case uint64:
		return Value{kind: KindScalar, scalar: float64(s)}
	case float32:
		return Value{kind: KindScalar, scalar: float64(s)}
	default:
		return Value{kind: KindScalar, scalar: fmt.Sprint(v)}
	}
}

// List builds a list value from items.
func List(items ...Value) Value {
	out := make([]Value, len(items))
	copy(out, items)
	return Value{kind: KindList, list: out}
}

// StringList builds a list of string scalars.
func StringList(items ...string) Value {
	out := make([]Value, len(items))
	for i, item := range items {
		out[i] = Scalar(item)
	}
	return Value{kind: KindList, list: out}
}

// Map wraps a mapping as a value.
func Map(m Mapping) Value {
	return Value{kind: KindMapping, mapping: m}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Scalar returns the scalar payload of v.
func (v Value) Scalar() (any, bool) {
	if v.kind != KindScalar {
		return nil, false
	}
	return v.scalar, true
}

// List returns a copy of the items of a list value.
func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	out := make([]Value, len(v.list))
	copy(out, v.list)
	return out, true
}

// Mapping returns the mapping held by v.
func (v Value) Mapping() (Mapping, bool) {
	if v.kind != KindMapping {
		return Mapping{}, false
	}
	return v.mapping, true
}

// Truthy follows the emptiness rules of the configuration format: null,
// false, 0, 0.0, "", "0" and empty collections are falsy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindScalar:
		switch s := v.scalar.(type) {
		case bool:
			return s
		case int:
			return s != 0
		case float64:
			return s != 0
		case string:
			return s != "" && s != "0"
		}
		return true
	case KindList:
		return len(v.list) > 0
	case KindMapping:
		return v.mapping.Len() > 0
	default:
		return false
	}
}

// String formats a scalar value. Nulls and collections format as "".
func (v Value) String() string {
	if v.kind != KindScalar {
		return ""
	}
	switch s := v.scalar.(type) {
	case string:
		return s
	case int:
		return strconv.Itoa(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprint(s)
	}
}

// Strings flattens v into a list of strings. A scalar yields one element, a
// list or mapping yields its scalar members in order; nested collections and
// nulls are skipped.
func (v Value) Strings() []string {
	var items []Value
	switch v.kind {
	case KindScalar:
		return []string{v.String()}
	case KindList:
		items = v.list
	case KindMapping:
		items = v.mapping.Values()
	default:
		return []string{}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.kind == KindScalar {
			out = append(out, item.String())
		}
	}
	return out
}

// Equal reports whether v and other hold the same tree.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindScalar:
		return v.scalar == other.scalar
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		return v.mapping.Equal(other.mapping)
	default:
		return true
	}
}

// Interface converts v into plain Go values: nil, scalars, []any and
// map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMapping:
		return v.mapping.Interface()
	default:
		return nil
	}
}

// MarshalJSON encodes v, keeping mapping keys in document order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindScalar:
		return json.Marshal(v.scalar)
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			data, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(data)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindMapping:
		return v.mapping.MarshalJSON()
	default:
		return []byte("null"), nil
	}
}
