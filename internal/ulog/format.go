package ulog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field is one declared field of a format, before flattening.
type Field struct {
	TypeName  string
	Type      FieldType
	Name      string
	ArraySize int // 0 for scalars
}

// IsPadding reports whether the field only occupies bytes.
func (f Field) IsPadding() bool { return strings.HasPrefix(f.Name, "_padding") }

// Format is a message definition: a name and an ordered field list.
type Format struct {
	Name   string
	Fields []Field
}

func (f *Format) equal(o *Format) bool {
	if f.Name != o.Name || len(f.Fields) != len(o.Fields) {
		return false
	}
	for i := range f.Fields {
		if f.Fields[i] != o.Fields[i] {
			return false
		}
	}
	return true
}

// parseFormat parses "name:type field;type[n] field;...".
func parseFormat(s string) (*Format, error) {
	name, body, ok := strings.Cut(s, ":")
	if !ok || name == "" {
		return nil, fmt.Errorf("format %q: missing name separator", s)
	}
	f := &Format{Name: name}
	for _, decl := range strings.Split(body, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		field, err := parseField(decl)
		if err != nil {
			return nil, fmt.Errorf("format %q: %w", name, err)
		}
		f.Fields = append(f.Fields, field)
	}
	return f, nil
}

// parseField parses "type name" or "type[n] name". The type is resolved
// against primitives here; anything else is kept as a nested reference and
// checked when a layout is built.
func parseField(decl string) (Field, error) {
	typ, name, ok := strings.Cut(decl, " ")
	if !ok || name == "" {
		return Field{}, fmt.Errorf("field %q: expected \"type name\"", decl)
	}
	field := Field{Name: strings.TrimSpace(name)}
	if open := strings.IndexByte(typ, '['); open >= 0 {
		if !strings.HasSuffix(typ, "]") {
			return Field{}, fmt.Errorf("field %q: unterminated array size", decl)
		}
		n, err := strconv.Atoi(typ[open+1 : len(typ)-1])
		if err != nil || n <= 0 {
			return Field{}, fmt.Errorf("field %q: bad array size", decl)
		}
		if n > maxPayloadSize {
			return Field{}, fmt.Errorf("field %q: array size %d exceeds message size limit %d", decl, n, maxPayloadSize)
		}
		field.ArraySize = n
		typ = typ[:open]
	}
	field.TypeName = typ
	field.Type = ParseFieldType(typ)
	if field.Type == TypeInvalid {
		field.Type = TypeNested
	}
	return field, nil
}

// parseKey parses an info/parameter key "type name" or "type[n] name".
func parseKey(key string) (typ string, arraySize int, name string, err error) {
	f, err := parseField(key)
	if err != nil {
		return "", 0, "", err
	}
	return f.TypeName, f.ArraySize, f.Name, nil
}

// Column is one flattened, fixed-offset value inside a record payload.
type Column struct {
	Name   string
	Type   FieldType
	Offset int
	// Len is the byte length of a char string column; 0 for numeric columns.
	Len int
}

// IsString reports whether the column holds a char array.
func (c Column) IsString() bool { return c.Type == TypeChar && c.Len > 0 }

// Layout is the resolved, immutable decoding plan for one format.
type Layout struct {
	Name            string
	Columns         []Column
	Size            int
	TimestampOffset int
}

// Equal reports whether two layouts decode identically.
func (l *Layout) Equal(o *Layout) bool {
	if l.Size != o.Size || l.TimestampOffset != o.TimestampOffset || len(l.Columns) != len(o.Columns) {
		return false
	}
	for i := range l.Columns {
		if l.Columns[i] != o.Columns[i] {
			return false
		}
	}
	return true
}

// Timestamp reads the record timestamp from a payload of Size bytes.
func (l *Layout) Timestamp(payload []byte) uint64 {
	return TypeUint64.Decode(payload[l.TimestampOffset:]).(uint64)
}

// Value decodes column i from payload.
func (l *Layout) Value(payload []byte, i int) any {
	c := l.Columns[i]
	if c.IsString() {
		return decodeString(payload[c.Offset : c.Offset+c.Len])
	}
	return c.Type.Decode(payload[c.Offset:])
}

const maxNesting = 16

// maxPayloadSize is the largest payload a message header can declare.
const maxPayloadSize = math.MaxUint16

// buildLayout flattens format name. The top-level uint64 "timestamp" field is
// lifted out of the column list into TimestampOffset.
func buildLayout(name string, formats map[string]*Format) (*Layout, error) {
	l := &Layout{Name: name, TimestampOffset: -1}
	size, err := flatten(l, "", name, formats, 0, 0)
	if err != nil {
		return nil, err
	}
	l.Size = size
	if l.TimestampOffset < 0 {
		return nil, fmt.Errorf("format %q has no uint64_t timestamp field", name)
	}
	return l, nil
}

func flatten(l *Layout, prefix, name string, formats map[string]*Format, base, depth int) (int, error) {
	if depth > maxNesting {
		return 0, fmt.Errorf("format %q: nesting deeper than %d", name, maxNesting)
	}
	f, ok := formats[name]
	if !ok {
		return 0, fmt.Errorf("unknown field type %q", name)
	}
	offset := base
	for _, field := range f.Fields {
		count := field.ArraySize
		if count == 0 {
			count = 1
		}
		if field.Type == TypeNested {
			for i := 0; i < count; i++ {
				sub := prefix + field.Name
				if field.ArraySize > 0 {
					sub = fmt.Sprintf("%s[%d]", sub, i)
				}
				n, err := flatten(l, sub+".", field.TypeName, formats, offset, depth+1)
				if err != nil {
					return 0, err
				}
				if n == 0 {
					return 0, fmt.Errorf("format %q: nested type %q has no fields", name, field.TypeName)
				}
				offset += n
				if offset > maxPayloadSize {
					return 0, fmt.Errorf("format %q: layout exceeds %d bytes at field %q", name, maxPayloadSize, field.Name)
				}
			}
			continue
		}
		width := field.Type.Size()
		if offset+count*width > maxPayloadSize {
			return 0, fmt.Errorf("format %q: layout exceeds %d bytes at field %q", name, maxPayloadSize, field.Name)
		}
		switch {
		case field.IsPadding():
		case depth == 0 && field.Name == "timestamp" && field.Type == TypeUint64 && field.ArraySize == 0:
			l.TimestampOffset = offset
		case field.Type == TypeChar && field.ArraySize > 0:
			l.Columns = append(l.Columns, Column{Name: prefix + field.Name, Type: TypeChar, Offset: offset, Len: count})
		case field.ArraySize > 0:
			for i := 0; i < count; i++ {
				l.Columns = append(l.Columns, Column{
					Name:   fmt.Sprintf("%s%s[%d]", prefix, field.Name, i),
					Type:   field.Type,
					Offset: offset + i*width,
				})
			}
		default:
			l.Columns = append(l.Columns, Column{Name: prefix + field.Name, Type: field.Type, Offset: offset})
		}
		offset += count * width
	}
	return offset - base, nil
}
