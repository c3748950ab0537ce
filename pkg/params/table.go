package params

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Table is an insertion-ordered mapping from key to Value.
// A Table is not safe for concurrent mutation.
type Table struct {
	keys []string
	vals map[string]Value
}

// NewTable returns an empty table
func NewTable() *Table {
	return &Table{vals: make(map[string]Value)}
}

// Len returns the number of keys
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Keys returns the keys in table order
func (t *Table) Keys() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Get returns the value under key
func (t *Table) Get(key string) (Value, bool) {
	if t == nil {
		return Value{}, false
	}
	v, ok := t.vals[key]
	return v, ok
}

// Has reports whether key is present
func (t *Table) Has(key string) bool {
	_, ok := t.Get(key)
	return ok
}

// GetString returns the value under key if it is a string
func (t *Table) GetString(key string) (string, bool) {
	v, ok := t.Get(key)
	if !ok {
		return "", false
	}
	return v.AsString()
}

// Set stores value under key. An existing key keeps its position.
func (t *Table) Set(key string, v Value) {
	if t.vals == nil {
		t.vals = make(map[string]Value)
	}
	if _, ok := t.vals[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.vals[key] = v
}

// Delete removes key, returning whether it was present
func (t *Table) Delete(key string) bool {
	if t == nil {
		return false
	}
	if _, ok := t.vals[key]; !ok {
		return false
	}
	delete(t.vals, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
	return true
}

// Range calls fn for each entry in table order until fn returns false
func (t *Table) Range(fn func(key string, v Value) bool) {
	if t == nil {
		return
	}
	for _, k := range t.keys {
		if !fn(k, t.vals[k]) {
			return
		}
	}
}

// Clone returns a deep copy; a nil table clones to an empty one
func (t *Table) Clone() *Table {
	out := NewTable()
	t.Range(func(k string, v Value) bool {
		out.Set(k, v.Clone())
		return true
	})
	return out
}

// Equal reports whether both tables hold the same keys with equal values.
// Key order is not compared; a nil table equals an empty one.
func (t *Table) Equal(o *Table) bool {
	if t.Len() != o.Len() {
		return false
	}
	equal := true
	t.Range(func(k string, v Value) bool {
		ov, ok := o.Get(k)
		if !ok || !v.Equal(ov) {
			equal = false
		}
		return equal
	})
	return equal
}

// ToMap converts the table to plain Go values
func (t *Table) ToMap() map[string]interface{} {
	m := make(map[string]interface{}, t.Len())
	t.Range(func(k string, v Value) bool {
		m[k] = v.Any()
		return true
	})
	return m
}

// MarshalJSON encodes the table as an object with keys in table order
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	var err error
	i := 0
	t.Range(func(k string, v Value) bool {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		var kb, vb []byte
		if kb, err = json.Marshal(k); err != nil {
			return false
		}
		if vb, err = v.MarshalJSON(); err != nil {
			return false
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return true
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object; keys are inserted in sorted order
func (t *Table) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return err
	}
	decoded, err := TableFromMap(m)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}
