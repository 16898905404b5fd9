package timeline

import (
	"math"
	"reflect"
	"testing"

	"github.com/rzbill/flightreview/internal/dataset"
)

func topicOf(t *testing.T, ts []uint64, vals []uint8) *dataset.Topic {
	t.Helper()
	tbl, err := dataset.NewTable(dataset.NewColumn[uint8]("main_state", nil))
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	for i := range ts {
		if _, err := tbl.AppendRow(ts[i], []any{vals[i]}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return &dataset.Topic{Key: dataset.TopicKey{Name: "commander_state"}, Table: tbl}
}

func TestExtract(t *testing.T) {
	cases := []struct {
		name string
		ts   []uint64
		vals []uint8
		last uint64
		want Timeline
	}{
		{
			name: "runs collapse",
			ts:   []uint64{10, 20, 30, 40, 50, 60},
			vals: []uint8{0, 0, 1, 1, 1, 2},
			last: 60,
			want: Timeline{{10, 0}, {30, 1}, {60, 2}, {60, ClosedMode}},
		},
		{
			name: "terminal after last change",
			ts:   []uint64{10, 20, 30},
			vals: []uint8{4, 4, 4},
			last: 90,
			want: Timeline{{10, 4}, {90, ClosedMode}},
		},
		{
			name: "empty table",
			last: 70,
			want: Timeline{{70, ClosedMode}},
		},
		{
			name: "empty table without last timestamp",
			want: Timeline{},
		},
		{
			name: "zero timestamp skipped",
			ts:   []uint64{0, 10, 20},
			vals: []uint8{9, 1, 2},
			last: 20,
			want: Timeline{{10, 1}, {20, 2}, {20, ClosedMode}},
		},
		{
			name: "older row skipped",
			ts:   []uint64{10, 30, 20, 40},
			vals: []uint8{1, 2, 3, 2},
			last: 40,
			want: Timeline{{10, 1}, {30, 2}, {40, ClosedMode}},
		},
		{
			name: "same timestamp collapses back",
			ts:   []uint64{10, 20, 20},
			vals: []uint8{1, 2, 1},
			last: 30,
			want: Timeline{{10, 1}, {30, ClosedMode}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Extract(topicOf(t, tc.ts, tc.vals), "main_state", tc.last, ClosedMode)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestExtractMissingField(t *testing.T) {
	tp := topicOf(t, []uint64{10}, []uint8{1})
	if got := Extract(tp, "nav_state", 10, ClosedMode); len(got) != 0 {
		t.Fatalf("missing field: %v", got)
	}
	if got := Extract(nil, "main_state", 10, ClosedMode); len(got) != 0 {
		t.Fatalf("nil topic: %v", got)
	}
	if got := FromLog(nil, "commander_state", 0, "main_state", ClosedMode); len(got) != 0 {
		t.Fatalf("nil log: %v", got)
	}
}

func TestExtractNaNRuns(t *testing.T) {
	tbl, _ := dataset.NewTable(dataset.NewColumn[float32]("v", nil))
	nan := float32(math.NaN())
	for i, v := range []float32{nan, nan, 1} {
		tbl.AppendRow(uint64(10*(i+1)), []any{v})
	}
	tl := Extract(&dataset.Topic{Table: tbl}, "v", 30, ClosedMode)
	if len(tl) != 3 || !math.IsNaN(tl[0].Value) || tl[1].Timestamp != 30 {
		t.Fatalf("timeline: %v", tl)
	}
}

func TestRoundTrip(t *testing.T) {
	ts := []uint64{5, 10, 15, 20, 25, 30, 35, 40}
	vals := []uint8{2, 2, 3, 3, 2, 7, 7, 7}
	tl := Extract(topicOf(t, ts, vals), "main_state", 40, ClosedMode)
	for i := 1; i < len(tl)-1; i++ {
		if tl[i].Value == tl[i-1].Value {
			t.Fatalf("consecutive events share value: %v", tl)
		}
	}
	if tl[len(tl)-1].Timestamp != 40 {
		t.Fatalf("terminal event: %v", tl)
	}
	for i := range ts {
		v, ok := tl.ValueAt(ts[i])
		if !ok || v != float64(vals[i]) {
			t.Fatalf("row %d at %d: got %v want %d", i, ts[i], v, vals[i])
		}
	}
	if _, ok := tl.ValueAt(4); ok {
		t.Fatalf("value before first event")
	}
	if v, _ := tl.ValueAt(41); v != ClosedMode {
		t.Fatalf("value after end: %v", v)
	}
}

func TestIntervals(t *testing.T) {
	tl := Timeline{{10, 0}, {30, 1}, {60, ClosedMode}}
	want := []Interval{{10, 30, 0}, {30, 60, 1}}
	if got := tl.Intervals(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if got := tl.Changes(); len(got) != 2 {
		t.Fatalf("changes: %v", got)
	}
}

func TestModeNames(t *testing.T) {
	if FlightModeName(3) != "Mission" || FlightModeName(ClosedMode) != "Closed" {
		t.Fatalf("flight mode names")
	}
	if NavStateName(21) != "Orbit" || NavStateName(11) != "Unknown (11)" {
		t.Fatalf("nav state names: %q", NavStateName(11))
	}
	if Names("other") != nil {
		t.Fatalf("unexpected names for other timeline")
	}
}

func TestChangesStrictlyOrderedWhenTerminalSharesTimestamp(t *testing.T) {
	tl := Timeline{{10, 0}, {30, 1}, {60, 2}, {60, ClosedMode}}
	changes := tl.Changes()
	for i := 1; i < len(changes); i++ {
		if changes[i].Timestamp <= changes[i-1].Timestamp {
			t.Fatalf("changes not strictly increasing: %v", changes)
		}
	}
	iv := tl.Intervals()
	if last := iv[len(iv)-1]; last.Start != 60 || last.End != 60 || last.Value != 2 {
		t.Fatalf("last interval: %+v", last)
	}
}
