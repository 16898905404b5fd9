package dataset

import (
	"fmt"
	"io"
	"strings"

	"github.com/rzbill/flightreview/internal/ulog"
	"github.com/rzbill/flightreview/pkg/log"
)

// ZeroTimestampPolicy selects what happens to rows stamped 0.
type ZeroTimestampPolicy int

const (
	// ZeroTimestampRetain keeps the row and flags it RowZeroTimestamp.
	ZeroTimestampRetain ZeroTimestampPolicy = iota
	// ZeroTimestampDrop discards the row. It is still counted in Diagnostics.
	ZeroTimestampDrop
)

func (p ZeroTimestampPolicy) String() string {
	if p == ZeroTimestampDrop {
		return "drop"
	}
	return "retain"
}

// ParseZeroTimestampPolicy parses "retain" or "drop". Empty means retain.
func ParseZeroTimestampPolicy(s string) (ZeroTimestampPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "retain", "keep":
		return ZeroTimestampRetain, nil
	case "drop":
		return ZeroTimestampDrop, nil
	default:
		return 0, fmt.Errorf("unknown zero timestamp policy %q", s)
	}
}

// Deriver adds derived columns or topics to a freshly built Log.
type Deriver func(l *Log) error

// Options controls Load.
type Options struct {
	Decode        ulog.Options
	ZeroTimestamp ZeroTimestampPolicy
	Derive        []Deriver
}

// Builder is a ulog.RecordSink that accumulates topic tables.
type Builder struct {
	policy ZeroTimestampPolicy
	diags  *ulog.Diagnostics
	logger log.Logger

	topics map[TopicKey]*Topic
	bySub  map[*ulog.Subscription]*Topic
	row    []any
}

// NewBuilder returns a Builder reporting row-level issues into diags, which
// may be nil.
func NewBuilder(policy ZeroTimestampPolicy, diags *ulog.Diagnostics, logger log.Logger) *Builder {
	if diags == nil {
		diags = ulog.NewDiagnostics(0)
	}
	if logger == nil {
		logger = log.NewLogger(log.WithOutput(log.NewNullOutput()))
	}
	return &Builder{
		policy: policy,
		diags:  diags,
		logger: logger.WithComponent("dataset"),
		topics: make(map[TopicKey]*Topic),
		bySub:  make(map[*ulog.Subscription]*Topic),
	}
}

// Subscribe implements ulog.RecordSink.
func (b *Builder) Subscribe(sub *ulog.Subscription) error {
	key := TopicKey{Name: sub.Name, Instance: sub.Instance}
	if t, ok := b.topics[key]; ok {
		if !t.Layout.Equal(sub.Layout) {
			return &ulog.SchemaMismatchError{Name: sub.Name, MsgID: sub.MsgID,
				Reason: fmt.Sprintf("instance %d re-subscribed with a different layout", sub.Instance)}
		}
		b.bySub[sub] = t
		return nil
	}
	t, err := newTopic(key, sub.Layout)
	if err != nil {
		return err
	}
	b.topics[key] = t
	b.bySub[sub] = t
	b.logger.Debug("topic added", log.Str("topic", key.String()), log.Int("columns", len(sub.Layout.Columns)))
	return nil
}

// Record implements ulog.RecordSink.
func (b *Builder) Record(rec ulog.Record) error {
	t, ok := b.bySub[rec.Sub]
	if !ok {
		return fmt.Errorf("dataset: record for unknown subscription %q", rec.Sub.Name)
	}
	if rec.Timestamp == 0 && b.policy == ZeroTimestampDrop {
		b.diags.Add(ulog.Diagnostic{Kind: ulog.DiagDroppedRow, Offset: rec.Offset, Topic: t.Key.String(), Message: "zero timestamp row dropped"})
		return nil
	}
	n := len(rec.Sub.Layout.Columns)
	if cap(b.row) < n {
		b.row = make([]any, n)
	}
	row := b.row[:n]
	for i := range row {
		row[i] = rec.Sub.Layout.Value(rec.Payload, i)
	}
	flag, err := t.Table.AppendRow(rec.Timestamp, row)
	if err != nil {
		return fmt.Errorf("topic %s: %w", t.Key, err)
	}
	if flag.Has(RowZeroTimestamp) {
		b.diags.Add(ulog.Diagnostic{Kind: ulog.DiagZeroTimestamp, Offset: rec.Offset, Topic: t.Key.String(), Message: "row kept with zero timestamp"})
	}
	if flag.Has(RowNonMonotonic) {
		b.diags.Add(ulog.Diagnostic{Kind: ulog.DiagNonMonotonic, Offset: rec.Offset, Topic: t.Key.String(),
			Message: fmt.Sprintf("timestamp %d is older than the previous row", rec.Timestamp)})
	}
	return nil
}

// Build freezes the accumulated topics together with the decoded file.
func (b *Builder) Build(f *ulog.File) *Log {
	l := &Log{
		Version:        f.Version,
		StartTimestamp: f.StartTimestamp,
		LastTimestamp:  f.LastTimestamp,
		CompatFlags:    f.CompatFlags,
		IncompatFlags:  f.IncompatFlags,
		Info:           f.Info,
		MultiInfo:      f.MultiInfo,
		InitialParams:  f.InitialParams,
		ChangedParams:  f.ChangedParams,
		DefaultParams:  f.DefaultParams,
		Messages:       f.Messages,
		Dropouts:       f.Dropouts,
		Diagnostics:    b.diags,
		index:          make(map[TopicKey]*Topic, len(b.topics)),
	}
	for k, t := range b.topics {
		l.index[k] = t
		l.topics = append(l.topics, t)
	}
	l.sortTopics()
	return l
}

// Load decodes a complete log from r and builds its topic tables.
func Load(r io.Reader, opts Options) (*Log, error) {
	diags := opts.Decode.Diagnostics
	if diags == nil {
		diags = ulog.NewDiagnostics(opts.Decode.DiagnosticsLimit)
	}
	dopts := opts.Decode
	dopts.Diagnostics = diags
	b := NewBuilder(opts.ZeroTimestamp, diags, opts.Decode.Logger)
	f, err := ulog.Decode(r, b, dopts)
	if err != nil {
		return nil, err
	}
	l := b.Build(f)
	for _, d := range opts.Derive {
		if err := d(l); err != nil {
			return nil, fmt.Errorf("derive: %w", err)
		}
	}
	return l, nil
}

// LoadFile opens path, transparently decompressing it, and calls Load.
func LoadFile(path string, opts Options) (*Log, error) {
	rc, err := ulog.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Load(rc, opts)
}
