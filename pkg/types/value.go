/*
Package types holds Value, a JSON value as a tagged union. Schema documents
and decoded Airflow responses are both carried as Values so the tree walkers
never type-assert an interface{}.
*/
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind is the tag of a Value.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (kind Kind) String() string {
	switch kind {
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
	}

	return "invalid"
}

/*
Value holds exactly one JSON value. The zero Value is JSON null.
Values are treated as immutable: constructors copy their inputs and the
accessors for arrays and objects return copies.
*/
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []Value
	obj  map[string]Value
}

func NewNull() Value { return Value{} }

func NewBool(b bool) Value { return Value{kind: Bool, b: b} }

func NewString(s string) Value { return Value{kind: String, str: s} }

func NewNumber(n json.Number) Value { return Value{kind: Number, num: n} }

func NewInt(i int64) Value {
	return Value{kind: Number, num: json.Number(strconv.FormatInt(i, 10))}
}

func NewFloat(f float64) Value {
	return Value{kind: Number, num: json.Number(strconv.FormatFloat(f, 'f', -1, 64))}
}

func NewArray(items ...Value) Value {
	arr := make([]Value, len(items))
	copy(arr, items)
	return Value{kind: Array, arr: arr}
}

func NewObject(fields map[string]Value) Value {
	obj := make(map[string]Value, len(fields))

	for k, v := range fields {
		obj[k] = v
	}

	return Value{kind: Object, obj: obj}
}

// EmptyObject is {}.
func EmptyObject() Value {
	return Value{kind: Object, obj: map[string]Value{}}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == Null }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == Bool }

func (v Value) AsString() (string, bool) { return v.str, v.kind == String }

func (v Value) AsNumber() (json.Number, bool) { return v.num, v.kind == Number }

/*
Items returns a copy of the elements of an array, nil for other kinds.
*/
func (v Value) Items() []Value {
	if v.kind != Array {
		return nil
	}

	out := make([]Value, len(v.arr))
	copy(out, v.arr)
	return out
}

/*
Fields returns a copy of the members of an object, nil for other kinds.
*/
func (v Value) Fields() map[string]Value {
	if v.kind != Object {
		return nil
	}

	out := make(map[string]Value, len(v.obj))

	for k, f := range v.obj {
		out[k] = f
	}

	return out
}

// Keys returns the object member names in sorted order.
func (v Value) Keys() []string {
	if v.kind != Object {
		return nil
	}

	keys := make([]string, 0, len(v.obj))

	for k := range v.obj {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	return keys
}

func (v Value) Get(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}

	f, ok := v.obj[key]
	return f, ok
}

func (v Value) Index(i int) (Value, bool) {
	if v.kind != Array || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}

	return v.arr[i], true
}

// Len is the number of elements or members; zero for scalars.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.arr)
	case Object:
		return len(v.obj)
	}

	return 0
}

/*
Equal reports structural equality. Numbers compare by their textual form
first and fall back to their float value, so 1 and 1.0 are equal.
*/
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case Null:
		return true
	case Bool:
		return v.b == other.b
	case String:
		return v.str == other.str
	case Number:
		if v.num == other.num {
			return true
		}

		a, errA := v.num.Float64()
		b, errB := other.num.Float64()
		return errA == nil && errB == nil && a == b
	case Array:
		if len(v.arr) != len(other.arr) {
			return false
		}

		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}

		return true
	case Object:
		if len(v.obj) != len(other.obj) {
			return false
		}

		for k, f := range v.obj {
			o, ok := other.obj[k]

			if !ok || !f.Equal(o) {
				return false
			}
		}

		return true
	}

	return false
}

// Clone returns a deep copy.
func (v Value) Clone() Value {
	switch v.kind {
	case Array:
		arr := make([]Value, len(v.arr))

		for i, item := range v.arr {
			arr[i] = item.Clone()
		}

		return Value{kind: Array, arr: arr}
	case Object:
		obj := make(map[string]Value, len(v.obj))

		for k, f := range v.obj {
			obj[k] = f.Clone()
		}

		return Value{kind: Object, obj: obj}
	}

	return v
}

/*
ToAny converts the Value to the plain Go representation used by
encoding/json (map[string]any, []any, json.Number, string, bool, nil).
*/
func (v Value) ToAny() any {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		return v.num
	case String:
		return v.str
	case Array:
		out := make([]any, len(v.arr))

		for i, item := range v.arr {
			out[i] = item.ToAny()
		}

		return out
	case Object:
		out := make(map[string]any, len(v.obj))

		for k, f := range v.obj {
			out[k] = f.ToAny()
		}

		return out
	}

	return nil
}

/*
FromAny converts a plain Go value into a Value. It accepts everything
encoding/json produces plus the common Go scalar types.
*/
func FromAny(in any) (Value, error) {
	switch t := in.(type) {
	case nil:
		return NewNull(), nil
	case Value:
		return t.Clone(), nil
	case bool:
		return NewBool(t), nil
	case string:
		return NewString(t), nil
	case json.Number:
		return NewNumber(t), nil
	case float64:
		return NewFloat(t), nil
	case float32:
		return NewFloat(float64(t)), nil
	case int:
		return NewInt(int64(t)), nil
	case int32:
		return NewInt(int64(t)), nil
	case int64:
		return NewInt(t), nil
	case []any:
		arr := make([]Value, len(t))

		for i, item := range t {
			val, err := FromAny(item)

			if err != nil {
				return Value{}, err
			}

			arr[i] = val
		}

		return Value{kind: Array, arr: arr}, nil
	case []string:
		arr := make([]Value, len(t))

		for i, item := range t {
			arr[i] = NewString(item)
		}

		return Value{kind: Array, arr: arr}, nil
	case map[string]any:
		obj := make(map[string]Value, len(t))

		for k, item := range t {
			val, err := FromAny(item)

			if err != nil {
				return Value{}, err
			}

			obj[k] = val
		}

		return Value{kind: Object, obj: obj}, nil
	}

	return Value{}, fmt.Errorf("unsupported JSON value of type %T", in)
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToAny())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any

	if err := dec.Decode(&raw); err != nil {
		return err
	}

	val, err := FromAny(raw)

	if err != nil {
		return err
	}

	*v = val
	return nil
}

// String renders the Value as compact JSON.
func (v Value) String() string {
	buf, err := v.MarshalJSON()

	if err != nil {
		return fmt.Sprintf("<invalid %s>", v.kind)
	}

	return string(buf)
}
