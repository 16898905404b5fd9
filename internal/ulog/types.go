package ulog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// FieldType is a ULog primitive type.
type FieldType uint8

const (
	TypeInvalid FieldType = iota
	TypeInt8
	TypeUint8
	TypeInt16
	TypeUint16
	TypeInt32
	TypeUint32
	TypeInt64
	TypeUint64
	TypeFloat
	TypeDouble
	TypeBool
	TypeChar
	// TypeNested marks a field whose type is another format.
	TypeNested
)

var typeNames = map[string]FieldType{
	"int8_t":   TypeInt8,
	"uint8_t":  TypeUint8,
	"int16_t":  TypeInt16,
	"uint16_t": TypeUint16,
	"int32_t":  TypeInt32,
	"uint32_t": TypeUint32,
	"int64_t":  TypeInt64,
	"uint64_t": TypeUint64,
	"float":    TypeFloat,
	"double":   TypeDouble,
	"bool":     TypeBool,
	"char":     TypeChar,
}

// ParseFieldType maps a ULog type name to a primitive type. Unknown names
// return TypeInvalid.
func ParseFieldType(name string) FieldType { return typeNames[name] }

func (t FieldType) String() string {
	for k, v := range typeNames {
		if v == t {
			return k
		}
	}
	if t == TypeNested {
		return "nested"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Size is the encoded byte size of one element.
func (t FieldType) Size() int {
	switch t {
	case TypeInt8, TypeUint8, TypeBool, TypeChar:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32, TypeFloat:
		return 4
	case TypeInt64, TypeUint64, TypeDouble:
		return 8
	default:
		return 0
	}
}

// Decode reads one element of type t from b, which must hold at least Size()
// bytes. The Go type of the result is fixed per FieldType (int8, uint8, ...,
// float32, float64, bool); TypeChar yields a uint8.
func (t FieldType) Decode(b []byte) any {
	switch t {
	case TypeInt8:
		return int8(b[0])
	case TypeUint8, TypeChar:
		return b[0]
	case TypeBool:
		return b[0] != 0
	case TypeInt16:
		return int16(binary.LittleEndian.Uint16(b))
	case TypeUint16:
		return binary.LittleEndian.Uint16(b)
	case TypeInt32:
		return int32(binary.LittleEndian.Uint32(b))
	case TypeUint32:
		return binary.LittleEndian.Uint32(b)
	case TypeInt64:
		return int64(binary.LittleEndian.Uint64(b))
	case TypeUint64:
		return binary.LittleEndian.Uint64(b)
	case TypeFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case TypeDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	default:
		return nil
	}
}

// decodeString trims a char array at the first NUL.
func decodeString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// decodeKeyedValue decodes an info/parameter value given its "type name" key.
// Arrays other than char[] decode to []any.
func decodeKeyedValue(typ string, arraySize int, value []byte) (any, error) {
	ft := ParseFieldType(typ)
	if ft == TypeInvalid {
		return nil, fmt.Errorf("unknown value type %q", typ)
	}
	if ft == TypeChar {
		return decodeString(value), nil
	}
	n := 1
	if arraySize > 0 {
		n = arraySize
	}
	if len(value) < n*ft.Size() {
		return nil, fmt.Errorf("value of type %s[%d] needs %d bytes, have %d", typ, n, n*ft.Size(), len(value))
	}
	if arraySize == 0 {
		return ft.Decode(value), nil
	}
	out := make([]any, n)
	for i := range out {
		out[i] = ft.Decode(value[i*ft.Size():])
	}
	return out, nil
}
