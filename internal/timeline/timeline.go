// Package timeline derives run-collapsed state-change sequences from a
// discrete field of a topic.
package timeline

import (
	"math"
	"sort"

	"github.com/rzbill/flightreview/internal/dataset"
)

// ClosedMode is the conventional terminal value marking the end of a log.
const ClosedMode = -1

// Event is a transition to Value at Timestamp.
type Event struct {
	Timestamp uint64  `json:"timestamp" cbor:"1,keyasint"`
	Value     float64 `json:"value" cbor:"2,keyasint"`
}

// Timeline is a sequence of events. Change events have strictly increasing
// timestamps and no two consecutive events carry the same value. The last
// event is the terminal (lastTimestamp, closed) marker and may share its
// timestamp with the final change.
type Timeline []Event

// Extract walks field of topic once and emits an event whenever its value
// differs from the last emitted one. Rows flagged with a zero timestamp and
// rows older than the last event are skipped. A missing field yields an
// empty Timeline. The terminal event is appended when lastTimestamp > 0.
func Extract(topic *dataset.Topic, field string, lastTimestamp uint64, closed float64) Timeline {
	if topic == nil {
		return Timeline{}
	}
	col, ok := topic.Column(field)
	if !ok {
		return Timeline{}
	}
	tbl := topic.Table
	var tl Timeline
	for i := 0; i < tbl.Len(); i++ {
		if tbl.Flags(i).Has(dataset.RowZeroTimestamp) {
			continue
		}
		v, ok := col.Float(i)
		if !ok {
			return Timeline{}
		}
		tl = tl.add(tbl.Timestamp(i), v)
	}
	if lastTimestamp > 0 {
		tl = append(tl, Event{Timestamp: lastTimestamp, Value: closed})
	}
	if tl == nil {
		return Timeline{}
	}
	return tl
}

func (tl Timeline) add(ts uint64, v float64) Timeline {
	n := len(tl)
	if n == 0 {
		return append(tl, Event{Timestamp: ts, Value: v})
	}
	last := tl[n-1]
	switch {
	case ts < last.Timestamp:
		return tl
	case ts == last.Timestamp:
		if n >= 2 && same(tl[n-2].Value, v) {
			return tl[:n-1]
		}
		tl[n-1].Value = v
		return tl
	case same(last.Value, v):
		return tl
	default:
		return append(tl, Event{Timestamp: ts, Value: v})
	}
}

func same(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

// FromLog extracts field of the named topic instance, using the log's last
// timestamp for the terminal event.
func FromLog(l *dataset.Log, name string, instance uint8, field string, closed float64) Timeline {
	if l == nil {
		return Timeline{}
	}
	t, ok := l.Topic(name, instance)
	if !ok {
		return Timeline{}
	}
	return Extract(t, field, l.LastTimestamp, closed)
}

// ValueAt returns the value in effect at ts, that is the value of the latest
// event with Timestamp <= ts. The last event is treated as the terminal
// marker: at exactly its timestamp the preceding value still holds. ok is
// false before the first event.
func (tl Timeline) ValueAt(ts uint64) (v float64, ok bool) {
	i := sort.Search(len(tl), func(i int) bool { return tl[i].Timestamp > ts })
	if i == 0 {
		return 0, false
	}
	if n := len(tl); i == n && n >= 2 && ts == tl[n-1].Timestamp {
		return tl[n-2].Value, true
	}
	return tl[i-1].Value, true
}

// Interval is a half-open span [Start, End) during which Value held.
type Interval struct {
	Start uint64  `json:"start"`
	End   uint64  `json:"end"`
	Value float64 `json:"value"`
}

// Intervals returns the spans between consecutive events. The terminal
// event only closes the last span, which is empty when the final change
// happened at the last timestamp.
func (tl Timeline) Intervals() []Interval {
	if len(tl) < 2 {
		return nil
	}
	out := make([]Interval, 0, len(tl)-1)
	for i := 0; i+1 < len(tl); i++ {
		out = append(out, Interval{Start: tl[i].Timestamp, End: tl[i+1].Timestamp, Value: tl[i].Value})
	}
	return out
}

// Changes returns the events without the terminal marker. It assumes the
// timeline came from Extract with a known last timestamp.
//
// Only the changes are strictly ordered. The full Timeline may end with two
// events at the same timestamp, e.g. {60, 2}, {60, -1}, when the last
// recorded row both changed the value and was the last record of the log.
func (tl Timeline) Changes() Timeline {
	if len(tl) == 0 {
		return tl
	}
	return tl[:len(tl)-1]
}
