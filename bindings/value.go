package bindings

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

var fasterJson = jsoniter.ConfigCompatibleWithStandardLibrary

// Value is one decoded (or to-be-encoded) instance of a bound type: an
// ordered list of named field values. Field order matches the declaration
// order of the owning type.
//
// Field values are the Go renditions of the IDL types: bool, uint8..uint64,
// int8..int64, bin.Uint128, bin.Int128, float32, float64, string, []byte,
// solana.PublicKey, []any (vec/array), *Value (defined), and nil for an
// absent option.
type Value struct {
	typeName string
	fields   []Field
}

// Field is one named slot of a Value.
type Field struct {
	Name  string
	Value any
}

// F is shorthand for constructing a Field.
func F(name string, value any) Field {
	return Field{Name: name, Value: value}
}

// NewValue constructs a Value for the named type with the given fields, in
// order. A value with zero fields is a marker shape.
func NewValue(typeName string, fields ...Field) *Value {
	return &Value{typeName: typeName, fields: fields}
}

// TypeName returns the name of the bound type this value instantiates.
func (v *Value) TypeName() string { return v.typeName }

// Fields returns the ordered fields. Callers must not modify the returned
// slice.
func (v *Value) Fields() []Field { return v.fields }

// Get returns the value of the named field.
func (v *Value) Get(name string) (any, bool) {
	for _, f := range v.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON renders the value as a JSON object whose keys appear in
// declaration order (encoding/json maps would not preserve it).
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range v.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := fasterJson.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := fasterJson.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
