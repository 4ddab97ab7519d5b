package idl

import (
	"encoding/json"
	"fmt"
)

// TypeKind discriminates the closed set of field type shapes.
type TypeKind int

const (
	KindPrimitive TypeKind = iota
	KindVec
	KindArray
	KindOption
	KindDefined
)

// Primitive names, canonicalized. "pubkey" (new-style IDLs) is folded into
// "publicKey".
const (
	TypeBool      = "bool"
	TypeU8        = "u8"
	TypeI8        = "i8"
	TypeU16       = "u16"
	TypeI16       = "i16"
	TypeU32       = "u32"
	TypeI32       = "i32"
	TypeU64       = "u64"
	TypeI64       = "i64"
	TypeU128      = "u128"
	TypeI128      = "i128"
	TypeF32       = "f32"
	TypeF64       = "f64"
	TypeString    = "string"
	TypeBytes     = "bytes"
	TypePublicKey = "publicKey"
)

var primitives = map[string]string{
	TypeBool:      TypeBool,
	TypeU8:        TypeU8,
	TypeI8:        TypeI8,
	TypeU16:       TypeU16,
	TypeI16:       TypeI16,
	TypeU32:       TypeU32,
	TypeI32:       TypeI32,
	TypeU64:       TypeU64,
	TypeI64:       TypeI64,
	TypeU128:      TypeU128,
	TypeI128:      TypeI128,
	TypeF32:       TypeF32,
	TypeF64:       TypeF64,
	TypeString:    TypeString,
	TypeBytes:     TypeBytes,
	TypePublicKey: TypePublicKey,
	"pubkey":      TypePublicKey,
}

// Type is one field type: a primitive, or a composite over other types.
// Exactly one of the composite slots is populated, according to Kind.
type Type struct {
	Kind TypeKind

	Primitive string // Kind == KindPrimitive
	Elem      *Type  // Kind == KindVec, KindArray, KindOption
	Len       int    // Kind == KindArray
	Defined   string // Kind == KindDefined
}

func (t Type) String() string {
	switch t.Kind {
	case KindPrimitive:
		return t.Primitive
	case KindVec:
		return fmt.Sprintf("vec<%s>", t.Elem)
	case KindArray:
		return fmt.Sprintf("array<%s; %d>", t.Elem, t.Len)
	case KindOption:
		return fmt.Sprintf("option<%s>", t.Elem)
	case KindDefined:
		return fmt.Sprintf("defined(%s)", t.Defined)
	default:
		return fmt.Sprintf("unknown type kind %d", int(t.Kind))
	}
}

// UnmarshalJSON accepts the IDL JSON type spellings:
//
//	"u64"
//	{"vec": T}
//	{"array": [T, N]}
//	{"option": T}
//	{"defined": "Name"}           (old-style)
//	{"defined": {"name": "Name"}} (new-style)
func (t *Type) UnmarshalJSON(data []byte) error {
	var prim string
	if err := fasterJson.Unmarshal(data, &prim); err == nil {
		canonical, ok := primitives[prim]
		if !ok {
			return fmt.Errorf("unknown primitive type %q", prim)
		}
		t.Kind = KindPrimitive
		t.Primitive = canonical
		return nil
	}

	var composite struct {
		Vec     *Type           `json:"vec"`
		Array   json.RawMessage `json:"array"`
		Option  *Type           `json:"option"`
		Defined json.RawMessage `json:"defined"`
	}
	if err := fasterJson.Unmarshal(data, &composite); err != nil {
		return fmt.Errorf("unrecognized type spelling %s: %w", string(data), err)
	}

	switch {
	case composite.Vec != nil:
		t.Kind = KindVec
		t.Elem = composite.Vec
	case composite.Array != nil:
		var pair []json.RawMessage
		if err := fasterJson.Unmarshal(composite.Array, &pair); err != nil || len(pair) != 2 {
			return fmt.Errorf("array type must be a [type, length] pair, got %s", string(composite.Array))
		}
		var elem Type
		if err := fasterJson.Unmarshal(pair[0], &elem); err != nil {
			return err
		}
		var length int
		if err := fasterJson.Unmarshal(pair[1], &length); err != nil {
			return fmt.Errorf("array length must be an integer, got %s", string(pair[1]))
		}
		if length < 0 {
			return fmt.Errorf("array length must be non-negative, got %d", length)
		}
		t.Kind = KindArray
		t.Elem = &elem
		t.Len = length
	case composite.Option != nil:
		t.Kind = KindOption
		t.Elem = composite.Option
	case composite.Defined != nil:
		var name string
		if err := fasterJson.Unmarshal(composite.Defined, &name); err != nil {
			var named struct {
				Name string `json:"name"`
			}
			if err := fasterJson.Unmarshal(composite.Defined, &named); err != nil || named.Name == "" {
				return fmt.Errorf("unrecognized defined-type spelling %s", string(composite.Defined))
			}
			name = named.Name
		}
		t.Kind = KindDefined
		t.Defined = name
	default:
		return fmt.Errorf("unrecognized type spelling %s", string(data))
	}
	return nil
}

// MarshalJSON emits the old-style spelling; it is accepted by every consumer
// of the new-style one.
func (t Type) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case KindPrimitive:
		return fasterJson.Marshal(t.Primitive)
	case KindVec:
		return fasterJson.Marshal(map[string]*Type{"vec": t.Elem})
	case KindArray:
		return fasterJson.Marshal(map[string][2]any{"array": {t.Elem, t.Len}})
	case KindOption:
		return fasterJson.Marshal(map[string]*Type{"option": t.Elem})
	case KindDefined:
		return fasterJson.Marshal(map[string]string{"defined": t.Defined})
	default:
		return nil, fmt.Errorf("cannot marshal unknown type kind %d", int(t.Kind))
	}
}
