package bindings

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/rpcpool/anchorbind/idl"
)

// resolver maps defined-type names to their field layouts. Built once at
// load time; read-only afterwards.
type resolver map[string][]idl.Field

func encodeFields(encoder *bin.Encoder, owner string, specs []idl.Field, value *Value, res resolver) error {
	for _, spec := range specs {
		fieldValue, ok := value.Get(spec.Name)
		if !ok {
			return fmt.Errorf("%s: missing field %q", owner, spec.Name)
		}
		if err := encodeType(encoder, spec.Type, fieldValue, res); err != nil {
			return fmt.Errorf("%s.%s: %w", owner, spec.Name, err)
		}
	}
	return nil
}

func decodeFields(decoder *bin.Decoder, typeName string, specs []idl.Field, res resolver) (*Value, error) {
	var fields []Field
	for _, spec := range specs {
		fieldValue, err := decodeType(decoder, spec.Type, res)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", typeName, spec.Name, err)
		}
		fields = append(fields, Field{Name: spec.Name, Value: fieldValue})
	}
	return &Value{typeName: typeName, fields: fields}, nil
}

func encodeType(encoder *bin.Encoder, ty idl.Type, v any, res resolver) error {
	switch ty.Kind {
	case idl.KindPrimitive:
		return encodePrimitive(encoder, ty.Primitive, v)
	case idl.KindVec:
		elems, ok := v.([]any)
		if !ok {
			return typeMismatch(ty, v)
		}
		if err := encoder.WriteUint32(uint32(len(elems)), bin.LE); err != nil {
			return err
		}
		for _, elem := range elems {
			if err := encodeType(encoder, *ty.Elem, elem, res); err != nil {
				return err
			}
		}
		return nil
	case idl.KindArray:
		elems, ok := v.([]any)
		if !ok {
			return typeMismatch(ty, v)
		}
		if len(elems) != ty.Len {
			return fmt.Errorf("expected %d array elements, got %d", ty.Len, len(elems))
		}
		for _, elem := range elems {
			if err := encodeType(encoder, *ty.Elem, elem, res); err != nil {
				return err
			}
		}
		return nil
	case idl.KindOption:
		if v == nil {
			return encoder.WriteUint8(0)
		}
		if err := encoder.WriteUint8(1); err != nil {
			return err
		}
		return encodeType(encoder, *ty.Elem, v, res)
	case idl.KindDefined:
		nested, ok := v.(*Value)
		if !ok {
			return typeMismatch(ty, v)
		}
		specs, ok := res[ty.Defined]
		if !ok {
			return fmt.Errorf("undeclared type %q", ty.Defined)
		}
		return encodeFields(encoder, ty.Defined, specs, nested, res)
	default:
		return fmt.Errorf("cannot encode type %s", ty)
	}
}

func decodeType(decoder *bin.Decoder, ty idl.Type, res resolver) (any, error) {
	switch ty.Kind {
	case idl.KindPrimitive:
		return decodePrimitive(decoder, ty.Primitive)
	case idl.KindVec:
		length, err := decoder.ReadUint32(bin.LE)
		if err != nil {
			return nil, err
		}
		elems := make([]any, 0, length)
		for i := uint32(0); i < length; i++ {
			elem, err := decodeType(decoder, *ty.Elem, res)
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
		}
		return elems, nil
	case idl.KindArray:
		elems := make([]any, 0, ty.Len)
		for i := 0; i < ty.Len; i++ {
			elem, err := decodeType(decoder, *ty.Elem, res)
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
		}
		return elems, nil
	case idl.KindOption:
		present, err := decoder.ReadUint8()
		if err != nil {
			return nil, err
		}
		if present == 0 {
			return nil, nil
		}
		return decodeType(decoder, *ty.Elem, res)
	case idl.KindDefined:
		specs, ok := res[ty.Defined]
		if !ok {
			return nil, fmt.Errorf("undeclared type %q", ty.Defined)
		}
		return decodeFields(decoder, ty.Defined, specs, res)
	default:
		return nil, fmt.Errorf("cannot decode type %s", ty)
	}
}

func encodePrimitive(encoder *bin.Encoder, primitive string, v any) error {
	switch primitive {
	case idl.TypeBool:
		b, ok := v.(bool)
		if !ok {
			return primitiveMismatch(primitive, v)
		}
		return encoder.WriteBool(b)
	case idl.TypeU8:
		x, ok := v.(uint8)
		if !ok {
			return primitiveMismatch(primitive, v)
		}
		return encoder.WriteUint8(x)
	case idl.TypeI8:
		x, ok := v.(int8)
		if !ok {
			return primitiveMismatch(primitive, v)
		}
		return encoder.WriteUint8(uint8(x))
	case idl.TypeU16:
		x, ok := v.(uint16)
		if !ok {
			return primitiveMismatch(primitive, v)
		}
		return encoder.WriteUint16(x, bin.LE)
	case idl.TypeI16:
		x, ok := v.(int16)
		if !ok {
			return primitiveMismatch(primitive, v)
		}
		return encoder.WriteUint16(uint16(x), bin.LE)
	case idl.TypeU32:
		x, ok := v.(uint32)
		if !ok {
			return primitiveMismatch(primitive, v)
		}
		return encoder.WriteUint32(x, bin.LE)
	case idl.TypeI32:
		x, ok := v.(int32)
		if !ok {
			return primitiveMismatch(primitive, v)
		}
		return encoder.WriteUint32(uint32(x), bin.LE)
	case idl.TypeU64:
		x, ok := v.(uint64)
		if !ok {
			return primitiveMismatch(primitive, v)
		}
		return encoder.WriteUint64(x, bin.LE)
	case idl.TypeI64:
		x, ok := v.(int64)
		if !ok {
			return primitiveMismatch(primitive, v)
		}
		return encoder.WriteUint64(uint64(x), bin.LE)
	case idl.TypeU128:
		x, ok := v.(bin.Uint128)
		if !ok {
			return primitiveMismatch(primitive, v)
		}
		return encoder.WriteUint128(x, bin.LE)
	case idl.TypeI128:
		x, ok := v.(bin.Int128)
		if !ok {
			return primitiveMismatch(primitive, v)
		}
		return encoder.WriteInt128(x, bin.LE)
	case idl.TypeF32:
		x, ok := v.(float32)
		if !ok {
			return primitiveMismatch(primitive, v)
		}
		return encoder.WriteFloat32(x, bin.LE)
	case idl.TypeF64:
		x, ok := v.(float64)
		if !ok {
			return primitiveMismatch(primitive, v)
		}
		return encoder.WriteFloat64(x, bin.LE)
	case idl.TypeString:
		s, ok := v.(string)
		if !ok {
			return primitiveMismatch(primitive, v)
		}
		return encoder.WriteRustString(s)
	case idl.TypeBytes:
		b, ok := v.([]byte)
		if !ok {
			return primitiveMismatch(primitive, v)
		}
		if err := encoder.WriteUint32(uint32(len(b)), bin.LE); err != nil {
			return err
		}
		return encoder.WriteBytes(b, false)
	case idl.TypePublicKey:
		pk, ok := v.(solana.PublicKey)
		if !ok {
			return primitiveMismatch(primitive, v)
		}
		return encoder.WriteBytes(pk.Bytes(), false)
	default:
		return fmt.Errorf("cannot encode primitive %q", primitive)
	}
}

func decodePrimitive(decoder *bin.Decoder, primitive string) (any, error) {
	switch primitive {
	case idl.TypeBool:
		x, err := decoder.ReadBool()
		return x, err
	case idl.TypeU8:
		x, err := decoder.ReadUint8()
		return x, err
	case idl.TypeI8:
		x, err := decoder.ReadUint8()
		return int8(x), err
	case idl.TypeU16:
		x, err := decoder.ReadUint16(bin.LE)
		return x, err
	case idl.TypeI16:
		x, err := decoder.ReadUint16(bin.LE)
		return int16(x), err
	case idl.TypeU32:
		x, err := decoder.ReadUint32(bin.LE)
		return x, err
	case idl.TypeI32:
		x, err := decoder.ReadUint32(bin.LE)
		return int32(x), err
	case idl.TypeU64:
		x, err := decoder.ReadUint64(bin.LE)
		return x, err
	case idl.TypeI64:
		x, err := decoder.ReadUint64(bin.LE)
		return int64(x), err
	case idl.TypeU128:
		x, err := decoder.ReadUint128(bin.LE)
		return x, err
	case idl.TypeI128:
		x, err := decoder.ReadInt128(bin.LE)
		return x, err
	case idl.TypeF32:
		x, err := decoder.ReadFloat32(bin.LE)
		return x, err
	case idl.TypeF64:
		x, err := decoder.ReadFloat64(bin.LE)
		return x, err
	case idl.TypeString:
		x, err := decoder.ReadRustString()
		return x, err
	case idl.TypeBytes:
		length, err := decoder.ReadUint32(bin.LE)
		if err != nil {
			return nil, err
		}
		b, err := decoder.ReadNBytes(int(length))
		return b, err
	case idl.TypePublicKey:
		b, err := decoder.ReadNBytes(solana.PublicKeyLength)
		if err != nil {
			return nil, err
		}
		return solana.PublicKeyFromBytes(b), nil
	default:
		return nil, fmt.Errorf("cannot decode primitive %q", primitive)
	}
}

func typeMismatch(ty idl.Type, v any) error {
	return fmt.Errorf("expected %s value, got %T", ty, v)
}

func primitiveMismatch(primitive string, v any) error {
	return fmt.Errorf("expected %s value, got %T", primitive, v)
}
