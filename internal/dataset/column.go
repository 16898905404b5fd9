package dataset

import (
	"fmt"
	"math"

	"github.com/rzbill/flightreview/internal/ulog"
)

// Scalar is the set of Go types a column can hold.
type Scalar interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64 | bool | string
}

// Column is one typed, append-only value array of a Table.
type Column interface {
	Name() string
	// Type is the ULog primitive type. String columns report ulog.TypeChar.
	Type() ulog.FieldType
	Len() int
	// Value returns row i boxed in the column's Go type.
	Value(i int) any
	// Float returns row i as a float64. ok is false for string columns.
	Float(i int) (v float64, ok bool)

	accepts(v any) bool
	push(v any)
}

type typedColumn[T Scalar] struct {
	name string
	typ  ulog.FieldType
	data []T
}

// NewColumn returns a column holding data. The ULog type is inferred from T.
func NewColumn[T Scalar](name string, data []T) Column {
	return &typedColumn[T]{name: name, typ: scalarType[T](), data: data}
}

// Values returns the backing slice of c when it holds T.
func Values[T Scalar](c Column) ([]T, bool) {
	tc, ok := c.(*typedColumn[T])
	if !ok {
		return nil, false
	}
	return tc.data, true
}

func (c *typedColumn[T]) Name() string         { return c.name }
func (c *typedColumn[T]) Type() ulog.FieldType { return c.typ }
func (c *typedColumn[T]) Len() int             { return len(c.data) }
func (c *typedColumn[T]) Value(i int) any      { return c.data[i] }

func (c *typedColumn[T]) Float(i int) (float64, bool) {
	switch v := any(c.data[i]).(type) {
	case int8:
		return float64(v), true
	case uint8:
		return float64(v), true
	case int16:
		return float64(v), true
	case uint16:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return math.NaN(), false
	}
}

func (c *typedColumn[T]) accepts(v any) bool {
	_, ok := v.(T)
	return ok
}

func (c *typedColumn[T]) push(v any) { c.data = append(c.data, v.(T)) }

func scalarType[T Scalar]() ulog.FieldType {
	var zero T
	switch any(zero).(type) {
	case int8:
		return ulog.TypeInt8
	case uint8:
		return ulog.TypeUint8
	case int16:
		return ulog.TypeInt16
	case uint16:
		return ulog.TypeUint16
	case int32:
		return ulog.TypeInt32
	case uint32:
		return ulog.TypeUint32
	case int64:
		return ulog.TypeInt64
	case uint64:
		return ulog.TypeUint64
	case float32:
		return ulog.TypeFloat
	case float64:
		return ulog.TypeDouble
	case bool:
		return ulog.TypeBool
	default:
		return ulog.TypeChar
	}
}

// columnFor allocates an empty column matching a layout column.
func columnFor(c ulog.Column) (Column, error) {
	if c.IsString() {
		return &typedColumn[string]{name: c.Name, typ: ulog.TypeChar}, nil
	}
	switch c.Type {
	case ulog.TypeInt8:
		return &typedColumn[int8]{name: c.Name, typ: c.Type}, nil
	case ulog.TypeUint8, ulog.TypeChar:
		return &typedColumn[uint8]{name: c.Name, typ: c.Type}, nil
	case ulog.TypeInt16:
		return &typedColumn[int16]{name: c.Name, typ: c.Type}, nil
	case ulog.TypeUint16:
		return &typedColumn[uint16]{name: c.Name, typ: c.Type}, nil
	case ulog.TypeInt32:
		return &typedColumn[int32]{name: c.Name, typ: c.Type}, nil
	case ulog.TypeUint32:
		return &typedColumn[uint32]{name: c.Name, typ: c.Type}, nil
	case ulog.TypeInt64:
		return &typedColumn[int64]{name: c.Name, typ: c.Type}, nil
	case ulog.TypeUint64:
		return &typedColumn[uint64]{name: c.Name, typ: c.Type}, nil
	case ulog.TypeFloat:
		return &typedColumn[float32]{name: c.Name, typ: c.Type}, nil
	case ulog.TypeDouble:
		return &typedColumn[float64]{name: c.Name, typ: c.Type}, nil
	case ulog.TypeBool:
		return &typedColumn[bool]{name: c.Name, typ: c.Type}, nil
	default:
		return nil, fmt.Errorf("column %q: unsupported type %s", c.Name, c.Type)
	}
}
