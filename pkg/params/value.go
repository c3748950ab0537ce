// Package params holds connector parameters as a closed value variant and an
// insertion-ordered table of them.
package params

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
)

// Kind discriminates the variant held by a Value
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
	KindFloat
	KindArray
	KindTable
)

// String returns the kind name used in diagnostics
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindArray:
		return "array"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Value is a single parameter value. The zero Value is the empty string.
type Value struct {
	kind Kind
	s    string
	b    bool
	i    int64
	f    float64
	arr  []Value
	tbl  *Table
}

// String builds a string value
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bool builds a boolean value
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int builds an integer value
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float builds a float value
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Array builds an array value
func Array(vs ...Value) Value {
	arr := make([]Value, len(vs))
	copy(arr, vs)
	return Value{kind: KindArray, arr: arr}
}

// TableOf wraps a nested table as a value
func TableOf(t *Table) Value {
	if t == nil {
		t = NewTable()
	}
	return Value{kind: KindTable, tbl: t}
}

// Kind returns the variant held by v
func (v Value) Kind() Kind { return v.kind }

// AsString returns the string and whether the value holds one.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsBool returns the bool and whether the value holds one.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer and whether the value holds one. Floats are not
// narrowed.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsTable returns the nested table without copying; callers must not mutate
// it through a shared value.
func (v Value) AsTable() (*Table, bool) { return v.tbl, v.kind == KindTable }

// AsFloat returns the value as float64; integers are widened.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// AsArray returns a copy of the array elements
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	out := make([]Value, len(v.arr))
	copy(out, v.arr)
	return out, true
}

// Clone returns a deep copy
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		arr := make([]Value, len(v.arr))
		for i, e := range v.arr {
			arr[i] = e.Clone()
		}
		return Value{kind: KindArray, arr: arr}
	case KindTable:
		return Value{kind: KindTable, tbl: v.tbl.Clone()}
	default:
		return v
	}
}

// Equal reports deep equality. Int and Float never compare equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindTable:
		return v.tbl.Equal(o.tbl)
	default:
		return false
	}
}

// Any converts the value back to plain Go values
// (string, bool, int64, float64, []interface{}, map[string]interface{}).
func (v Value) Any() interface{} {
	switch v.kind {
	case KindString:
		return v.s
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Any()
		}
		return out
	case KindTable:
		return v.tbl.ToMap()
	default:
		return nil
	}
}

// String renders the value for logs and tables
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		b, err := v.MarshalJSON()
		if err != nil {
			return fmt.Sprintf("<%s>", v.kind)
		}
		return string(b)
	}
}

// MarshalJSON encodes the value; nested tables keep their key order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.s)
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, fmt.Errorf("unsupported float value %v", v.f)
		}
		return json.Marshal(v.f)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindTable:
		return v.tbl.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

// FromAny converts a decoded TOML, YAML or JSON value into a Value.
func FromAny(raw interface{}) (Value, error) {
	switch x := raw.(type) {
	case Value:
		return x.Clone(), nil
	case *Table:
		return TableOf(x.Clone()), nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return fromUint(x)
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q", x.String())
		}
		return Float(f), nil
	case time.Time:
		return String(x.Format(time.RFC3339Nano)), nil
	case toml.LocalDate:
		return String(x.String()), nil
	case toml.LocalTime:
		return String(x.String()), nil
	case toml.LocalDateTime:
		return String(x.String()), nil
	case []interface{}:
		arr := make([]Value, 0, len(x))
		for i, e := range x {
			v, err := FromAny(e)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			arr = append(arr, v)
		}
		return Value{kind: KindArray, arr: arr}, nil
	case []string:
		arr := make([]Value, len(x))
		for i, e := range x {
			arr[i] = String(e)
		}
		return Value{kind: KindArray, arr: arr}, nil
	case []map[string]interface{}:
		arr := make([]Value, 0, len(x))
		for i, e := range x {
			t, err := TableFromMap(e)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			arr = append(arr, TableOf(t))
		}
		return Value{kind: KindArray, arr: arr}, nil
	case map[string]interface{}:
		t, err := TableFromMap(x)
		if err != nil {
			return Value{}, err
		}
		return TableOf(t), nil
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(x))
		for k, e := range x {
			m[fmt.Sprint(k)] = e
		}
		t, err := TableFromMap(m)
		if err != nil {
			return Value{}, err
		}
		return TableOf(t), nil
	case nil:
		return Value{}, fmt.Errorf("null values are not supported")
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, fmt.Errorf("integer %d overflows int64", u)
	}
	return Int(int64(u)), nil
}

// TableFromMap builds a table from a decoded map. Keys are inserted in sorted
// order since decoders do not keep source order.
func TableFromMap(m map[string]interface{}) (*Table, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := NewTable()
	for _, k := range keys {
		v, err := FromAny(m[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		t.Set(k, v)
	}
	return t, nil
}
