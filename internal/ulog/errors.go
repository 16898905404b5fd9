package ulog

import (
	"errors"
	"fmt"
)

// ErrTruncated marks input that ended in the middle of a message.
var ErrTruncated = errors.New("truncated message")

// FormatError reports input that cannot be parsed as ULog at all: bad magic,
// unsupported version or flags, unknown field types, or truncation inside the
// definitions section.
type FormatError struct {
	Offset int64
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ulog format error at offset %d: %s: %v", e.Offset, e.Reason, e.Err)
	}
	return fmt.Sprintf("ulog format error at offset %d: %s", e.Offset, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// IntegrityError reports a single data record that does not fit its declared
// schema: an undefined msg_id, or a payload whose length differs from the
// layout size.
type IntegrityError struct {
	Offset int64
	MsgID  uint16
	Topic  string
	Reason string
}

func (e *IntegrityError) Error() string {
	if e.Topic != "" {
		return fmt.Sprintf("ulog integrity error at offset %d (msg_id %d, %s): %s", e.Offset, e.MsgID, e.Topic, e.Reason)
	}
	return fmt.Sprintf("ulog integrity error at offset %d (msg_id %d): %s", e.Offset, e.MsgID, e.Reason)
}

// SchemaMismatchError reports a definition id or topic that was bound to two
// different field layouts in the same log.
type SchemaMismatchError struct {
	Offset int64
	Name   string
	MsgID  uint16
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("ulog schema mismatch at offset %d for %q (msg_id %d): %s", e.Offset, e.Name, e.MsgID, e.Reason)
}
