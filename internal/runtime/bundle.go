package runtime

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rzbill/flightreview/internal/dataset"
	"github.com/rzbill/flightreview/internal/derive"
	"github.com/rzbill/flightreview/internal/metadata"
	"github.com/rzbill/flightreview/internal/timeline"
	"github.com/rzbill/flightreview/internal/ulog"
)

// Summary describes a log at a glance.
type Summary struct {
	StartTimestamp  uint64        `json:"startTimestamp" cbor:"startTimestamp"`
	LastTimestamp   uint64        `json:"lastTimestamp" cbor:"lastTimestamp"`
	VehicleType     string        `json:"vehicleType" cbor:"vehicleType"`
	SoftwareVersion string        `json:"softwareVersion" cbor:"softwareVersion"`
	HardwareVersion string        `json:"hardwareVersion" cbor:"hardwareVersion"`
	Duration        time.Duration `json:"durationNs" cbor:"durationNs"`
}

// Bundle is the immutable result of reviewing one log, handed to a
// Renderer.
type Bundle struct {
	LogID       string
	Log         *dataset.Log
	Topics      []*dataset.Topic
	Timelines   map[string]timeline.Timeline
	Metadata    metadata.Metadata
	Summary     Summary
	Diagnostics *ulog.Diagnostics
}

// Renderer consumes a Bundle.
type Renderer interface {
	Render(ctx context.Context, b *Bundle) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, b *Bundle) error

func (f RendererFunc) Render(ctx context.Context, b *Bundle) error { return f(ctx, b) }

// Assemble derives the configured timelines from l and merges the stored
// metadata for logID. An empty logID skips the metadata lookup.
func (r *Runtime) Assemble(ctx context.Context, logID string, l *dataset.Log) *Bundle {
	b := &Bundle{
		LogID:       logID,
		Log:         l,
		Topics:      l.Topics(),
		Timelines:   make(map[string]timeline.Timeline, len(r.config.Timelines)),
		Diagnostics: l.Diagnostics,
		Summary: Summary{
			StartTimestamp:  l.StartTimestamp,
			LastTimestamp:   l.LastTimestamp,
			VehicleType:     derive.VehicleType(l),
			SoftwareVersion: derive.SoftwareVersion(l),
			HardwareVersion: derive.HardwareVersion(l),
			Duration:        l.Duration(),
		},
	}
	for _, tl := range r.config.Timelines {
		b.Timelines[tl.Name] = timeline.FromLog(l, tl.Topic, tl.Instance, tl.Field, tl.Closed)
	}
	if logID != "" {
		b.Metadata = r.resolver.Lookup(ctx, logID)
	}
	return b
}

// TopicInfo describes one topic without its rows.
type TopicInfo struct {
	Name     string   `json:"name" cbor:"name"`
	Instance uint8    `json:"instance" cbor:"instance"`
	Rows     int      `json:"rows" cbor:"rows"`
	Flagged  int      `json:"flagged" cbor:"flagged"`
	Columns  []string `json:"columns" cbor:"columns"`
}

// TimelineView is a timeline with display labels when the timeline has them.
type TimelineView struct {
	Events timeline.Timeline `json:"events" cbor:"events"`
	Labels []string          `json:"labels,omitempty" cbor:"labels,omitempty"`
}

// DiagnosticsView is the serializable form of ulog.Diagnostics.
type DiagnosticsView struct {
	Total  int            `json:"total" cbor:"total"`
	Counts map[string]int `json:"counts" cbor:"counts"`
	Items  []string       `json:"items,omitempty" cbor:"items,omitempty"`
}

// Document is the serializable form of a Bundle without row data.
type Document struct {
	LogID       string                  `json:"logId" cbor:"logId"`
	Summary     Summary                 `json:"summary" cbor:"summary"`
	Metadata    metadata.Metadata       `json:"metadata" cbor:"metadata"`
	Topics      []TopicInfo             `json:"topics" cbor:"topics"`
	Timelines   map[string]TimelineView `json:"timelines" cbor:"timelines"`
	Diagnostics DiagnosticsView         `json:"diagnostics" cbor:"diagnostics"`
	Messages    []MessageView           `json:"messages,omitempty" cbor:"messages,omitempty"`
}

// MessageView is a logged text message.
type MessageView struct {
	Timestamp uint64 `json:"timestamp" cbor:"timestamp"`
	Level     uint8  `json:"level" cbor:"level"`
	Text      string `json:"text" cbor:"text"`
}

// Document converts b for encoding.
func (b *Bundle) Document() Document {
	d := Document{
		LogID:     b.LogID,
		Summary:   b.Summary,
		Metadata:  b.Metadata,
		Topics:    make([]TopicInfo, 0, len(b.Topics)),
		Timelines: make(map[string]TimelineView, len(b.Timelines)),
		Diagnostics: DiagnosticsView{
			Total:  b.Diagnostics.Total(),
			Counts: b.Diagnostics.Counts(),
		},
	}
	for _, t := range b.Topics {
		d.Topics = append(d.Topics, describeTopic(t))
	}
	for name, tl := range b.Timelines {
		d.Timelines[name] = ViewTimeline(name, tl)
	}
	for _, item := range b.Diagnostics.Items() {
		d.Diagnostics.Items = append(d.Diagnostics.Items, item.String())
	}
	if b.Log != nil {
		for _, m := range b.Log.Messages {
			d.Messages = append(d.Messages, MessageView{Timestamp: m.Timestamp, Level: m.Level, Text: m.Text})
		}
	}
	return d
}

func describeTopic(t *dataset.Topic) TopicInfo {
	info := TopicInfo{Name: t.Name(), Instance: t.Instance(), Rows: t.Len(), Columns: t.Table.ColumnNames()}
	for i := 0; i < t.Len(); i++ {
		if t.Table.Flags(i) != 0 {
			info.Flagged++
		}
	}
	return info
}

// TableView is the serializable form of selected rows of a topic.
type TableView struct {
	Name       string   `json:"name" cbor:"name"`
	Instance   uint8    `json:"instance" cbor:"instance"`
	Columns    []string `json:"columns" cbor:"columns"`
	Timestamps []uint64 `json:"timestamps" cbor:"timestamps"`
	Flags      []uint8  `json:"flags" cbor:"flags"`
	Rows       [][]any  `json:"rows" cbor:"rows"`
}

// Table renders rows of t; a nil rows selects every row. Non-finite floats
// become null.
func Table(t *dataset.Topic, rows []int) TableView {
	if rows == nil {
		rows = make([]int, t.Len())
		for i := range rows {
			rows[i] = i
		}
	}
	v := TableView{
		Name:       t.Name(),
		Instance:   t.Instance(),
		Columns:    t.Table.ColumnNames(),
		Timestamps: make([]uint64, 0, len(rows)),
		Flags:      make([]uint8, 0, len(rows)),
		Rows:       make([][]any, 0, len(rows)),
	}
	for _, i := range rows {
		row := t.Table.Row(i)
		for j, val := range row {
			row[j] = finite(val)
		}
		v.Timestamps = append(v.Timestamps, t.Table.Timestamp(i))
		v.Flags = append(v.Flags, uint8(t.Table.Flags(i)))
		v.Rows = append(v.Rows, row)
	}
	return v
}

func finite(v any) any {
	switch f := v.(type) {
	case float32:
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return nil
		}
	case float64:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
	}
	return v
}

// ViewTimeline converts tl for encoding. Timelines named after a known mode
// enumeration carry a label per event.
func ViewTimeline(name string, tl timeline.Timeline) TimelineView {
	v := TimelineView{Events: sanitizeTimeline(tl)}
	if names := timeline.Names(name); names != nil {
		v.Labels = make([]string, 0, len(tl))
		for _, e := range tl {
			v.Labels = append(v.Labels, names(e.Value))
		}
	}
	return v
}

// IntervalView is one span of a timeline with its display label.
type IntervalView struct {
	Start uint64  `json:"start" cbor:"start"`
	End   uint64  `json:"end" cbor:"end"`
	Value float64 `json:"value" cbor:"value"`
	Label string  `json:"label,omitempty" cbor:"label,omitempty"`
}

// ViewIntervals returns the spans of tl, labelled like ViewTimeline.
func ViewIntervals(name string, tl timeline.Timeline) []IntervalView {
	names := timeline.Names(name)
	spans := sanitizeTimeline(tl).Intervals()
	out := make([]IntervalView, 0, len(spans))
	for _, s := range spans {
		v := IntervalView{Start: s.Start, End: s.End, Value: s.Value}
		if names != nil {
			v.Label = names(s.Value)
		}
		out = append(out, v)
	}
	return out
}

// sanitizeTimeline replaces non-finite values with the closed marker so the
// timeline can be encoded as JSON.
func sanitizeTimeline(tl timeline.Timeline) timeline.Timeline {
	out := make(timeline.Timeline, len(tl))
	for i, e := range tl {
		if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
			e.Value = timeline.ClosedMode
		}
		out[i] = e
	}
	return out
}

// TimelineNames returns the bundle's timeline names in sorted order.
func (b *Bundle) TimelineNames() []string {
	names := make([]string, 0, len(b.Timelines))
	for n := range b.Timelines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
