package ulog

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/rzbill/flightreview/pkg/log"
)

// Magic is the first 7 bytes of every ULog file.
var Magic = []byte{'U', 'L', 'o', 'g', 0x01, 0x12, 0x35}

// SyncMagic is the payload of a sync message.
var SyncMagic = []byte{0x2F, 0x73, 0x13, 0x20, 0x25, 0x0C, 0xBB, 0x12}

// MaxVersion is the highest file format version the decoder understands.
const MaxVersion = 1

const (
	headerSize    = 16
	msgHeaderSize = 3
	flagBitsSize  = 40
)

// Message type codes.
const (
	MsgFlagBits      byte = 'B'
	MsgFormat        byte = 'F'
	MsgInfo          byte = 'I'
	MsgInfoMultiple  byte = 'M'
	MsgParameter     byte = 'P'
	MsgParamDefault  byte = 'Q'
	MsgSubscribe     byte = 'A'
	MsgUnsubscribe   byte = 'R'
	MsgData          byte = 'D'
	MsgLogging       byte = 'L'
	MsgLoggingTagged byte = 'C'
	MsgSync          byte = 'S'
	MsgDropout       byte = 'O'
)

// IncompatDataAppended is the only incompat flag the decoder accepts.
const IncompatDataAppended = 0x01

// Subscription binds a msg_id to a topic instance and its layout.
type Subscription struct {
	MsgID    uint16
	Instance uint8
	Name     string
	Layout   *Layout

	filtered bool
}

// Record is one data message. Payload aliases the decoder's buffer and is
// only valid for the duration of RecordSink.Record.
type Record struct {
	Sub       *Subscription
	Timestamp uint64
	Payload   []byte
	Offset    int64
}

// RecordSink receives subscriptions and records in stream order.
type RecordSink interface {
	Subscribe(sub *Subscription) error
	Record(rec Record) error
}

// Options controls decoding.
type Options struct {
	// Topics is an allow-list of topic names. Empty admits every topic.
	Topics []string
	// Strict turns per-record integrity errors and trailing truncation into
	// fatal errors.
	Strict bool
	// DiagnosticsLimit caps the itemized diagnostics list.
	DiagnosticsLimit int
	// Diagnostics, when set, receives decode issues instead of a fresh
	// collection, so a sink can report into the same list.
	Diagnostics *Diagnostics
	// Logger receives decode warnings. Optional.
	Logger log.Logger
}

// LoggedMessage is a text message written by the vehicle.
type LoggedMessage struct {
	Timestamp uint64
	Level     uint8
	Tag       uint16
	Tagged    bool
	Text      string
}

// ParamChange is a parameter update recorded in the data section.
type ParamChange struct {
	Timestamp uint64
	Name      string
	Value     any
}

// DefaultParam is a parameter default. Types bit 0 marks the system default,
// bit 1 the current configuration default.
type DefaultParam struct {
	Types uint8
	Name  string
	Value any
}

// Dropout records a gap where the logger lost data.
type Dropout struct {
	Timestamp  uint64
	DurationMs uint16
}

// File holds everything decoded from a log except the data records, which
// go to the RecordSink.
type File struct {
	Version         uint8
	StartTimestamp  uint64
	LastTimestamp   uint64
	CompatFlags     [8]byte
	IncompatFlags   [8]byte
	AppendedOffsets [3]uint64

	Formats       map[string]*Format
	Info          map[string]any
	MultiInfo     map[string][][]any
	InitialParams map[string]any
	ChangedParams []ParamChange
	DefaultParams []DefaultParam
	Messages      []LoggedMessage
	Dropouts      []Dropout
	SyncCount     int

	Diagnostics *Diagnostics
}

type decoder struct {
	r       *bufio.Reader
	off     int64
	sink    RecordSink
	opts    Options
	logger  log.Logger
	allowed map[string]bool
	subs    map[uint16]*Subscription
	file    *File
	inData  bool
	buf     []byte
}

// Decode reads a complete ULog stream from r, delivering subscriptions and
// data records to sink.
func Decode(r io.Reader, sink RecordSink, opts Options) (*File, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 64<<10)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewLogger(log.WithOutput(log.NewNullOutput()))
	}
	diags := opts.Diagnostics
	if diags == nil {
		diags = NewDiagnostics(opts.DiagnosticsLimit)
	}
	d := &decoder{
		r:      br,
		sink:   sink,
		opts:   opts,
		logger: logger.WithComponent("ulog"),
		subs:   make(map[uint16]*Subscription),
		file: &File{
			Formats:       make(map[string]*Format),
			Info:          make(map[string]any),
			MultiInfo:     make(map[string][][]any),
			InitialParams: make(map[string]any),
			Diagnostics:   diags,
		},
	}
	if len(opts.Topics) > 0 {
		d.allowed = make(map[string]bool, len(opts.Topics))
		for _, t := range opts.Topics {
			d.allowed[t] = true
		}
	}
	if err := d.readHeader(); err != nil {
		return nil, err
	}
	if err := d.run(); err != nil {
		return nil, err
	}
	if n := d.file.Diagnostics.Total(); n > 0 {
		d.logger.Warn("log decoded with diagnostics", log.Int("count", n), log.Any("kinds", d.file.Diagnostics.Counts()))
	}
	return d.file, nil
}

func (d *decoder) read(n int) ([]byte, error) {
	if cap(d.buf) < n {
		d.buf = make([]byte, n)
	}
	b := d.buf[:n]
	got, err := io.ReadFull(d.r, b)
	d.off += int64(got)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return b, nil
}

func (d *decoder) discard(n int) error {
	got, err := d.r.Discard(n)
	d.off += int64(got)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

func (d *decoder) readHeader() error {
	var h [headerSize]byte
	if _, err := io.ReadFull(d.r, h[:]); err != nil {
		return &FormatError{Offset: 0, Reason: "short file header", Err: ErrTruncated}
	}
	d.off = headerSize
	if !bytes.Equal(h[:len(Magic)], Magic) {
		return &FormatError{Offset: 0, Reason: "bad magic"}
	}
	d.file.Version = h[7]
	if d.file.Version > MaxVersion {
		return &FormatError{Offset: 7, Reason: fmt.Sprintf("unsupported version %d", d.file.Version)}
	}
	d.file.StartTimestamp = binary.LittleEndian.Uint64(h[8:])
	return nil
}

// diag records a recoverable issue, or converts it into a fatal error in
// strict mode when fatal is non-nil.
func (d *decoder) diag(diag Diagnostic, fatal error) error {
	if d.opts.Strict && fatal != nil {
		return fatal
	}
	d.file.Diagnostics.Add(diag)
	d.logger.Debug("decode issue", log.Str("kind", diag.Kind.String()), log.Int64("offset", diag.Offset), log.Str("detail", diag.Message))
	return nil
}

func (d *decoder) truncated(start int64) error {
	if !d.inData {
		return &FormatError{Offset: start, Reason: "definitions section ends mid-message", Err: ErrTruncated}
	}
	fatal := &FormatError{Offset: start, Reason: "data section ends mid-message", Err: ErrTruncated}
	return d.diag(Diagnostic{Kind: DiagTruncated, Offset: start, Message: "trailing message truncated"}, fatal)
}

func (d *decoder) run() error {
	var hdr [msgHeaderSize]byte
	for {
		start := d.off
		n, err := io.ReadFull(d.r, hdr[:])
		d.off += int64(n)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return d.truncated(start)
		}
		size := int(binary.LittleEndian.Uint16(hdr[:2]))
		typ := hdr[2]

		if typ == MsgData {
			d.inData = true
			done, err := d.handleData(start, size)
			if err != nil || done {
				return err
			}
			continue
		}

		body, err := d.read(size)
		if err != nil {
			return d.truncated(start)
		}
		if err := d.handle(start, typ, body); err != nil {
			return err
		}
	}
}

func (d *decoder) handle(start int64, typ byte, body []byte) error {
	switch typ {
	case MsgFlagBits:
		return d.handleFlagBits(start, body)
	case MsgFormat:
		return d.handleFormat(start, body)
	case MsgInfo, MsgParameter:
		return d.handleKeyed(start, typ, body)
	case MsgInfoMultiple:
		return d.handleInfoMultiple(start, body)
	case MsgParamDefault:
		return d.handleParamDefault(start, body)
	case MsgSubscribe:
		d.inData = true
		return d.handleSubscribe(start, body)
	case MsgUnsubscribe:
		d.inData = true
		if len(body) < 2 {
			return d.malformed(start, "unsubscribe shorter than 2 bytes")
		}
		delete(d.subs, binary.LittleEndian.Uint16(body))
		return nil
	case MsgLogging, MsgLoggingTagged:
		d.inData = true
		return d.handleLogging(start, typ, body)
	case MsgSync:
		d.inData = true
		if !bytes.Equal(body, SyncMagic) {
			return d.malformed(start, "sync message with bad magic")
		}
		d.file.SyncCount++
		return nil
	case MsgDropout:
		d.inData = true
		if len(body) < 2 {
			return d.malformed(start, "dropout shorter than 2 bytes")
		}
		d.file.Dropouts = append(d.file.Dropouts, Dropout{
			Timestamp:  d.file.LastTimestamp,
			DurationMs: binary.LittleEndian.Uint16(body),
		})
		return nil
	default:
		return d.diag(Diagnostic{Kind: DiagUnknownMessage, Offset: start, Message: fmt.Sprintf("unknown message type 0x%02x (%d bytes skipped)", typ, len(body))}, nil)
	}
}

func (d *decoder) malformed(start int64, msg string) error {
	return d.diag(Diagnostic{Kind: DiagMalformedMessage, Offset: start, Message: msg}, nil)
}

func (d *decoder) handleFlagBits(start int64, body []byte) error {
	if start != headerSize {
		return d.malformed(start, "flag bits message not first")
	}
	if len(body) < flagBitsSize {
		return &FormatError{Offset: start, Reason: fmt.Sprintf("flag bits message has %d bytes, want %d", len(body), flagBitsSize)}
	}
	copy(d.file.CompatFlags[:], body[0:8])
	copy(d.file.IncompatFlags[:], body[8:16])
	for i := range d.file.AppendedOffsets {
		d.file.AppendedOffsets[i] = binary.LittleEndian.Uint64(body[16+8*i:])
	}
	for i, b := range d.file.IncompatFlags {
		if i == 0 {
			b &^= IncompatDataAppended
		}
		if b != 0 {
			return &FormatError{Offset: start, Reason: fmt.Sprintf("unsupported incompat flags %x", d.file.IncompatFlags)}
		}
	}
	return nil
}

func (d *decoder) handleFormat(start int64, body []byte) error {
	f, err := parseFormat(string(body))
	if err != nil {
		return &FormatError{Offset: start, Reason: "bad format definition", Err: err}
	}
	if prev, ok := d.file.Formats[f.Name]; ok {
		if !prev.equal(f) {
			return &SchemaMismatchError{Offset: start, Name: f.Name, Reason: "format redefined with different fields"}
		}
		return nil
	}
	d.file.Formats[f.Name] = f
	return nil
}

// splitKeyed splits "key_len u8 | key | value".
func splitKeyed(body []byte) (typ string, arraySize int, name string, value []byte, err error) {
	if len(body) < 1 || int(body[0])+1 > len(body) {
		return "", 0, "", nil, fmt.Errorf("key length exceeds message")
	}
	kl := int(body[0])
	typ, arraySize, name, err = parseKey(string(body[1 : 1+kl]))
	if err != nil {
		return "", 0, "", nil, err
	}
	return typ, arraySize, name, body[1+kl:], nil
}

func (d *decoder) handleKeyed(start int64, typ byte, body []byte) error {
	vt, n, name, raw, err := splitKeyed(body)
	if err != nil {
		return d.malformed(start, err.Error())
	}
	v, err := decodeKeyedValue(vt, n, raw)
	if err != nil {
		return d.malformed(start, fmt.Sprintf("%s: %v", name, err))
	}
	if typ == MsgInfo {
		d.file.Info[name] = v
		return nil
	}
	if d.inData {
		d.file.ChangedParams = append(d.file.ChangedParams, ParamChange{Timestamp: d.file.LastTimestamp, Name: name, Value: v})
		return nil
	}
	d.file.InitialParams[name] = v
	return nil
}

func (d *decoder) handleInfoMultiple(start int64, body []byte) error {
	if len(body) < 1 {
		return d.malformed(start, "empty multi info message")
	}
	continued := body[0] != 0
	vt, n, name, raw, err := splitKeyed(body[1:])
	if err != nil {
		return d.malformed(start, err.Error())
	}
	v, err := decodeKeyedValue(vt, n, raw)
	if err != nil {
		return d.malformed(start, fmt.Sprintf("%s: %v", name, err))
	}
	lists := d.file.MultiInfo[name]
	if continued && len(lists) > 0 {
		lists[len(lists)-1] = append(lists[len(lists)-1], v)
	} else {
		lists = append(lists, []any{v})
	}
	d.file.MultiInfo[name] = lists
	return nil
}

func (d *decoder) handleParamDefault(start int64, body []byte) error {
	if len(body) < 1 {
		return d.malformed(start, "empty default parameter message")
	}
	vt, n, name, raw, err := splitKeyed(body[1:])
	if err != nil {
		return d.malformed(start, err.Error())
	}
	v, err := decodeKeyedValue(vt, n, raw)
	if err != nil {
		return d.malformed(start, fmt.Sprintf("%s: %v", name, err))
	}
	d.file.DefaultParams = append(d.file.DefaultParams, DefaultParam{Types: body[0], Name: name, Value: v})
	return nil
}

func (d *decoder) handleSubscribe(start int64, body []byte) error {
	if len(body) < 4 {
		return d.malformed(start, "subscription shorter than 4 bytes")
	}
	sub := &Subscription{
		Instance: body[0],
		MsgID:    binary.LittleEndian.Uint16(body[1:3]),
		Name:     string(bytes.TrimRight(body[3:], "\x00")),
	}
	layout, err := buildLayout(sub.Name, d.file.Formats)
	if err != nil {
		return &FormatError{Offset: start, Reason: fmt.Sprintf("subscription %q (msg_id %d)", sub.Name, sub.MsgID), Err: err}
	}
	sub.Layout = layout
	sub.filtered = d.allowed != nil && !d.allowed[sub.Name]

	if prev, ok := d.subs[sub.MsgID]; ok {
		if prev.Name != sub.Name || !prev.Layout.Equal(sub.Layout) {
			return &SchemaMismatchError{Offset: start, Name: sub.Name, MsgID: sub.MsgID,
				Reason: fmt.Sprintf("msg_id already bound to %q", prev.Name)}
		}
		if prev.Instance == sub.Instance {
			return nil
		}
	}
	d.subs[sub.MsgID] = sub
	if sub.filtered {
		return nil
	}
	return d.sink.Subscribe(sub)
}

// handleData processes a 'D' message whose header has been consumed. It
// returns done=true when decoding must stop without error (trailing
// truncation in non-strict mode).
func (d *decoder) handleData(start int64, size int) (done bool, err error) {
	if size < 2 {
		if _, rerr := d.read(size); rerr != nil {
			return true, d.truncated(start)
		}
		return false, d.malformed(start, "data message shorter than 2 bytes")
	}
	idb, rerr := d.read(2)
	if rerr != nil {
		return true, d.truncated(start)
	}
	msgID := binary.LittleEndian.Uint16(idb)
	n := size - 2

	sub, ok := d.subs[msgID]
	if !ok {
		if rerr := d.discard(n); rerr != nil {
			return true, d.truncated(start)
		}
		ierr := &IntegrityError{Offset: start, MsgID: msgID, Reason: "undefined msg_id"}
		return false, d.diag(Diagnostic{Kind: DiagUnknownDefinition, Offset: start, Message: ierr.Error()}, ierr)
	}

	if sub.filtered {
		// Only the timestamp prefix is read so LastTimestamp does not depend
		// on the allow-list.
		prefix := sub.Layout.TimestampOffset + 8
		if n < prefix {
			if rerr := d.discard(n); rerr != nil {
				return true, d.truncated(start)
			}
			return false, nil
		}
		b, rerr := d.read(prefix)
		if rerr != nil {
			return true, d.truncated(start)
		}
		d.observe(sub.Layout.Timestamp(b))
		if rerr := d.discard(n - prefix); rerr != nil {
			return true, d.truncated(start)
		}
		return false, nil
	}

	payload, rerr := d.read(n)
	if rerr != nil {
		return true, d.truncated(start)
	}
	if n != sub.Layout.Size {
		ierr := &IntegrityError{Offset: start, MsgID: msgID, Topic: sub.Name,
			Reason: fmt.Sprintf("payload is %d bytes, layout needs %d", n, sub.Layout.Size)}
		return false, d.diag(Diagnostic{Kind: DiagLengthMismatch, Offset: start, Topic: sub.Name, Message: ierr.Error()}, ierr)
	}
	ts := sub.Layout.Timestamp(payload)
	d.observe(ts)
	return false, d.sink.Record(Record{Sub: sub, Timestamp: ts, Payload: payload, Offset: start})
}

func (d *decoder) observe(ts uint64) {
	if ts > d.file.LastTimestamp {
		d.file.LastTimestamp = ts
	}
}

func (d *decoder) handleLogging(start int64, typ byte, body []byte) error {
	m := LoggedMessage{Tagged: typ == MsgLoggingTagged}
	need := 9
	if m.Tagged {
		need = 11
	}
	if len(body) < need {
		return d.malformed(start, "logged message too short")
	}
	m.Level = body[0]
	if m.Level >= '0' {
		m.Level -= '0'
	}
	p := 1
	if m.Tagged {
		m.Tag = binary.LittleEndian.Uint16(body[1:3])
		p = 3
	}
	m.Timestamp = binary.LittleEndian.Uint64(body[p:])
	m.Text = string(body[p+8:])
	d.observe(m.Timestamp)
	d.file.Messages = append(d.file.Messages, m)
	return nil
}
