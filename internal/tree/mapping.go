package tree

import (
	"bytes"
	"encoding/json"
)

// Mapping is an ordered string-keyed mapping. The zero value is an empty
// mapping. Methods that change content return a new Mapping and leave the
// receiver untouched.
type Mapping struct {
	keys   []string
	values map[string]Value
}

// NewMapping returns an empty mapping.
func NewMapping() Mapping {
	return Mapping{values: map[string]Value{}}
}

// Len returns the number of keys.
func (m Mapping) Len() int {
	return len(m.keys)
}

// Keys returns the keys in document order.
func (m Mapping) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Values returns the values in key order.
func (m Mapping) Values() []Value {
	out := make([]Value, 0, len(m.keys))
	for _, key := range m.keys {
		out = append(out, m.values[key])
	}
	return out
}

// Get returns the value stored under key.
func (m Mapping) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Lookup walks nested mappings along path. It fails when a segment is
// missing or an intermediate value is not a mapping.
func (m Mapping) Lookup(path ...string) (Value, bool) {
	current := Map(m)
	for _, key := range path {
		inner, ok := current.Mapping()
		if !ok {
			return Value{}, false
		}
		current, ok = inner.Get(key)
		if !ok {
			return Value{}, false
		}
	}
	return current, true
}

// LookupMapping is Lookup restricted to mapping values; anything else yields
// an empty mapping.
func (m Mapping) LookupMapping(path ...string) Mapping {
	v, ok := m.Lookup(path...)
	if !ok {
		return NewMapping()
	}
	inner, ok := v.Mapping()
	if !ok {
		return NewMapping()
	}
	return inner
}

// With returns a copy of m with key set to v. Existing keys keep their
// position, new keys are appended.
func (m Mapping) With(key string, v Value) Mapping {
	out := m.clone()
	out.set(key, v)
	return out
}

// WithPath returns a copy of m with v stored at path. Missing or non-mapping
// intermediate values are replaced by mappings.
func (m Mapping) WithPath(v Value, path ...string) Mapping {
	if len(path) == 0 {
		return m
	}
	if len(path) == 1 {
		return m.With(path[0], v)
	}
	child := NewMapping()
	if existing, ok := m.Get(path[0]); ok {
		if inner, ok := existing.Mapping(); ok {
			child = inner
		}
	}
	return m.With(path[0], Map(child.WithPath(v, path[1:]...)))
}

// Filter returns the entries for which keep reports true, in order.
func (m Mapping) Filter(keep func(key string, v Value) bool) Mapping {
	out := NewMapping()
	for _, key := range m.keys {
		v := m.values[key]
		if keep(key, v) {
			out.set(key, v)
		}
	}
	return out
}

// Equal reports whether both mappings hold the same keys, in the same order,
// with equal values.
func (m Mapping) Equal(other Mapping) bool {
	if len(m.keys) != len(other.keys) {
		return false
	}
	for i, key := range m.keys {
		if other.keys[i] != key {
			return false
		}
		if !m.values[key].Equal(other.values[key]) {
			return false
		}
	}
	return true
}

// Interface converts m into a plain map.
func (m Mapping) Interface() map[string]any {
	out := make(map[string]any, len(m.keys))
	for _, key := range m.keys {
		out[key] = m.values[key].Interface()
	}
	return out
}

// MarshalJSON encodes m as a JSON object with keys in document order.
func (m Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		data, err := m.values[key].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m Mapping) clone() Mapping {
	out := Mapping{
		keys:   make([]string, len(m.keys), len(m.keys)+1),
		values: make(map[string]Value, len(m.keys)+1),
	}
	copy(out.keys, m.keys)
	for key, v := range m.values {
		out.values[key] = v
	}
	return out
}

// set mutates m in place; only used on mappings that have not escaped yet.
func (m *Mapping) set(key string, v Value) {
	if m.values == nil {
		m.values = map[string]Value{}
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}
