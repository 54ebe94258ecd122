// Package value provides the sealed value types carried by change-event
// snapshots and client filter literals.
//
// Numbers are kept as their decimal text (Number) until a scalar kind reads
// them. This is what lets BigInt values adjacent to 2^63 survive decoding:
// nothing is ever routed through float64 unless the producer already handed
// us a float.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"slices"
	"strconv"
	"time"
)

// Value is a sealed interface. Only Null, String, Number, Bool, List and
// Object implement it.
type Value interface {
	value() // Sealed
}

// Null represents an explicit null.
type Null struct{}

func (Null) value() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String represents a string value.
type String string

func (String) value() {}

// Number holds the decimal text of a numeric value. The scalar kind of the
// field it is compared against decides whether it is read as int64, float64
// or an arbitrary-precision integer.
type Number string

func (Number) value() {}

// MarshalJSON writes the number text unquoted.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n), nil
}

// Bool represents a boolean value.
type Bool bool

func (Bool) value() {}

// List represents an ordered list of values.
type List []Value

func (List) value() {}

// Object represents a map of string keys to values.
// Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) value() {}

// SortedKeys returns the object keys in ascending order.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Lookup returns the value stored under key. Missing keys and explicit nulls
// both report ok=false.
func (o Object) Lookup(key string) (Value, bool) {
	v, ok := o[key]
	if !ok || IsNull(v) {
		return nil, false
	}
	return v, true
}

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// FromGo converts a decoded Go value (JSON, YAML, msgpack or GraphQL
// variables) into a Value.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case json.Number:
		return Number(val.String()), nil
	case int:
		return Number(strconv.FormatInt(int64(val), 10)), nil
	case int8:
		return Number(strconv.FormatInt(int64(val), 10)), nil
	case int16:
		return Number(strconv.FormatInt(int64(val), 10)), nil
	case int32:
		return Number(strconv.FormatInt(int64(val), 10)), nil
	case int64:
		return Number(strconv.FormatInt(val, 10)), nil
	case uint:
		return Number(strconv.FormatUint(uint64(val), 10)), nil
	case uint8:
		return Number(strconv.FormatUint(uint64(val), 10)), nil
	case uint16:
		return Number(strconv.FormatUint(uint64(val), 10)), nil
	case uint32:
		return Number(strconv.FormatUint(uint64(val), 10)), nil
	case uint64:
		return Number(strconv.FormatUint(val, 10)), nil
	case float32:
		return Number(strconv.FormatFloat(float64(val), 'g', -1, 32)), nil
	case float64:
		return Number(strconv.FormatFloat(val, 'g', -1, 64)), nil
	case *big.Int:
		if val == nil {
			return Null{}, nil
		}
		return Number(val.String()), nil
	case time.Time:
		return String(val.Format(time.RFC3339Nano)), nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			converted, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			list[i] = converted
		}
		return list, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			converted, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = converted
		}
		return obj, nil
	case map[any]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("object key %v: keys must be strings", k)
			}
			converted, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", key, err)
			}
			obj[key] = converted
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ObjectFromGo converts a map into an Object.
func ObjectFromGo(m map[string]any) (Object, error) {
	if m == nil {
		return Object{}, nil
	}
	v, err := FromGo(m)
	if err != nil {
		return nil, err
	}
	return v.(Object), nil
}

// ToGo converts a Value back into plain Go values. Numbers become
// json.Number so callers can still choose their own precision.
func ToGo(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Number:
		return json.Number(val)
	case Bool:
		return bool(val)
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToGo(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToGo(elem)
		}
		return out
	default:
		return nil
	}
}

// UnmarshalJSON decodes a JSON object, keeping numbers as text.
func (o *Object) UnmarshalJSON(data []byte) error {
	v, err := decodeJSON(data)
	if err != nil {
		return err
	}
	obj, ok := v.(Object)
	if !ok {
		return fmt.Errorf("expected JSON object, got %T", v)
	}
	*o = obj
	return nil
}

// UnmarshalJSON decodes a JSON array, keeping numbers as text.
func (l *List) UnmarshalJSON(data []byte) error {
	v, err := decodeJSON(data)
	if err != nil {
		return err
	}
	list, ok := v.(List)
	if !ok {
		return fmt.Errorf("expected JSON array, got %T", v)
	}
	*l = list
	return nil
}

// MarshalJSON writes the object with sorted keys.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		elem, err := Marshal(o[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(elem)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Marshal encodes any Value as JSON.
func Marshal(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case String:
		return json.Marshal(string(val))
	case Number:
		return []byte(val), nil
	case Bool:
		return json.Marshal(bool(val))
	case List:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := Marshal(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case Object:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown value type: %T", v)
	}
}

// DecodeJSON decodes arbitrary JSON into a Value.
func DecodeJSON(data []byte) (Value, error) {
	return decodeJSON(data)
}

func decodeJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromGo(raw)
}
