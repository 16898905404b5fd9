package ulog

import "fmt"

// DiagnosticKind classifies a recoverable decode issue.
type DiagnosticKind int

const (
	DiagUnknownDefinition DiagnosticKind = iota + 1
	DiagLengthMismatch
	DiagUnknownMessage
	DiagTruncated
	DiagZeroTimestamp
	DiagNonMonotonic
	DiagDroppedRow
	DiagMalformedMessage
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagUnknownDefinition:
		return "unknown_definition"
	case DiagLengthMismatch:
		return "length_mismatch"
	case DiagUnknownMessage:
		return "unknown_message"
	case DiagTruncated:
		return "truncated"
	case DiagZeroTimestamp:
		return "zero_timestamp"
	case DiagNonMonotonic:
		return "non_monotonic"
	case DiagDroppedRow:
		return "dropped_row"
	case DiagMalformedMessage:
		return "malformed_message"
	default:
		return fmt.Sprintf("diag(%d)", int(k))
	}
}

// Diagnostic is one recoverable issue found while decoding.
type Diagnostic struct {
	Kind    DiagnosticKind
	Offset  int64
	Topic   string
	Message string
}

func (d Diagnostic) String() string {
	if d.Topic != "" {
		return fmt.Sprintf("%s at %d (%s): %s", d.Kind, d.Offset, d.Topic, d.Message)
	}
	return fmt.Sprintf("%s at %d: %s", d.Kind, d.Offset, d.Message)
}

// DefaultDiagnosticsLimit caps the itemized list; counts stay exact.
const DefaultDiagnosticsLimit = 1000

// Diagnostics accumulates recoverable issues. Counts per kind are exact; the
// itemized list keeps the first Limit entries.
type Diagnostics struct {
	limit  int
	items  []Diagnostic
	counts map[DiagnosticKind]int
}

// NewDiagnostics returns an empty collection. limit <= 0 selects
// DefaultDiagnosticsLimit.
func NewDiagnostics(limit int) *Diagnostics {
	if limit <= 0 {
		limit = DefaultDiagnosticsLimit
	}
	return &Diagnostics{limit: limit, counts: make(map[DiagnosticKind]int)}
}

// Add records d.
func (ds *Diagnostics) Add(d Diagnostic) {
	ds.counts[d.Kind]++
	if len(ds.items) < ds.limit {
		ds.items = append(ds.items, d)
	}
}

// Items returns the itemized diagnostics in the order they were found.
func (ds *Diagnostics) Items() []Diagnostic {
	if ds == nil {
		return nil
	}
	return ds.items
}

// Count returns the exact number of diagnostics of kind k.
func (ds *Diagnostics) Count(k DiagnosticKind) int {
	if ds == nil {
		return 0
	}
	return ds.counts[k]
}

// Total returns the exact number of diagnostics of all kinds.
func (ds *Diagnostics) Total() int {
	if ds == nil {
		return 0
	}
	n := 0
	for _, c := range ds.counts {
		n += c
	}
	return n
}

// Counts returns a copy of the per-kind counts keyed by kind name.
func (ds *Diagnostics) Counts() map[string]int {
	out := make(map[string]int)
	if ds == nil {
		return out
	}
	for k, c := range ds.counts {
		out[k.String()] = c
	}
	return out
}
