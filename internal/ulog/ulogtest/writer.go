// Package ulogtest builds synthetic ULog byte streams for tests.
package ulogtest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

var magic = []byte{'U', 'L', 'o', 'g', 0x01, 0x12, 0x35}

// Writer appends ULog messages to an in-memory buffer.
type Writer struct {
	buf bytes.Buffer
}

// New starts a version 1 log with the given start timestamp.
func New(start uint64) *Writer { return NewVersion(1, start) }

// NewVersion starts a log with an explicit version byte.
func NewVersion(version uint8, start uint64) *Writer {
	w := &Writer{}
	w.buf.Write(magic)
	w.buf.WriteByte(version)
	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], start)
	w.buf.Write(ts[:])
	return w
}

// Raw appends a message with an arbitrary type and body.
func (w *Writer) Raw(typ byte, body []byte) *Writer {
	var h [3]byte
	binary.LittleEndian.PutUint16(h[:2], uint16(len(body)))
	h[2] = typ
	w.buf.Write(h[:])
	w.buf.Write(body)
	return w
}

// FlagBits appends a 'B' message.
func (w *Writer) FlagBits(compat, incompat [8]byte) *Writer {
	body := make([]byte, 40)
	copy(body, compat[:])
	copy(body[8:], incompat[:])
	return w.Raw('B', body)
}

// Format appends an 'F' definition such as "name:uint64_t timestamp;float x;".
func (w *Writer) Format(def string) *Writer { return w.Raw('F', []byte(def)) }

func keyed(key string, value []byte) []byte {
	body := []byte{byte(len(key))}
	body = append(body, key...)
	return append(body, value...)
}

// InfoString appends an 'I' message holding a char array.
func (w *Writer) InfoString(name, value string) *Writer {
	return w.Raw('I', keyed(fmt.Sprintf("char[%d] %s", len(value), name), []byte(value)))
}

// InfoMultiple appends an 'M' message holding a char array.
func (w *Writer) InfoMultiple(name, value string, continued bool) *Writer {
	var c byte
	if continued {
		c = 1
	}
	body := append([]byte{c}, keyed(fmt.Sprintf("char[%d] %s", len(value), name), []byte(value))...)
	return w.Raw('M', body)
}

// ParamInt32 appends an int32_t 'P' message.
func (w *Writer) ParamInt32(name string, v int32) *Writer {
	return w.Raw('P', keyed("int32_t "+name, NewPayload().I32(v).Bytes()))
}

// ParamFloat appends a float 'P' message.
func (w *Writer) ParamFloat(name string, v float32) *Writer {
	return w.Raw('P', keyed("float "+name, NewPayload().F32(v).Bytes()))
}

// Subscribe appends an 'A' message.
func (w *Writer) Subscribe(msgID uint16, instance uint8, name string) *Writer {
	body := []byte{instance, 0, 0}
	binary.LittleEndian.PutUint16(body[1:], msgID)
	return w.Raw('A', append(body, name...))
}

// Unsubscribe appends an 'R' message.
func (w *Writer) Unsubscribe(msgID uint16) *Writer {
	body := make([]byte, 2)
	binary.LittleEndian.PutUint16(body, msgID)
	return w.Raw('R', body)
}

// Data appends a 'D' message.
func (w *Writer) Data(msgID uint16, payload []byte) *Writer {
	body := make([]byte, 2, 2+len(payload))
	binary.LittleEndian.PutUint16(body, msgID)
	return w.Raw('D', append(body, payload...))
}

// Log appends an 'L' message; level is the numeric level 0-7.
func (w *Writer) Log(level uint8, ts uint64, text string) *Writer {
	body := []byte{'0' + level}
	body = append(body, NewPayload().U64(ts).Bytes()...)
	return w.Raw('L', append(body, text...))
}

// Sync appends an 'S' message.
func (w *Writer) Sync() *Writer {
	return w.Raw('S', []byte{0x2F, 0x73, 0x13, 0x20, 0x25, 0x0C, 0xBB, 0x12})
}

// Dropout appends an 'O' message.
func (w *Writer) Dropout(ms uint16) *Writer {
	body := make([]byte, 2)
	binary.LittleEndian.PutUint16(body, ms)
	return w.Raw('O', body)
}

// Bytes returns the encoded log.
func (w *Writer) Bytes() []byte { return append([]byte(nil), w.buf.Bytes()...) }

// Payload builds little-endian record payloads.
type Payload struct {
	b []byte
}

// NewPayload returns an empty payload builder.
func NewPayload() *Payload { return &Payload{} }

func (p *Payload) U8(v uint8) *Payload { p.b = append(p.b, v); return p }
func (p *Payload) I8(v int8) *Payload  { p.b = append(p.b, byte(v)); return p }

func (p *Payload) Bool(v bool) *Payload {
	if v {
		return p.U8(1)
	}
	return p.U8(0)
}

func (p *Payload) U16(v uint16) *Payload {
	p.b = binary.LittleEndian.AppendUint16(p.b, v)
	return p
}

func (p *Payload) I32(v int32) *Payload {
	p.b = binary.LittleEndian.AppendUint32(p.b, uint32(v))
	return p
}

func (p *Payload) U32(v uint32) *Payload {
	p.b = binary.LittleEndian.AppendUint32(p.b, v)
	return p
}

func (p *Payload) U64(v uint64) *Payload {
	p.b = binary.LittleEndian.AppendUint64(p.b, v)
	return p
}

func (p *Payload) F32(v float32) *Payload {
	p.b = binary.LittleEndian.AppendUint32(p.b, math.Float32bits(v))
	return p
}

func (p *Payload) F64(v float64) *Payload {
	p.b = binary.LittleEndian.AppendUint64(p.b, math.Float64bits(v))
	return p
}

// Chars writes s into a NUL-padded char[n] field.
func (p *Payload) Chars(s string, n int) *Payload {
	field := make([]byte, n)
	copy(field, s)
	p.b = append(p.b, field...)
	return p
}

// Pad appends n zero bytes.
func (p *Payload) Pad(n int) *Payload {
	p.b = append(p.b, make([]byte, n)...)
	return p
}

// Bytes returns the payload.
func (p *Payload) Bytes() []byte { return p.b }
