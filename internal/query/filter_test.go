package query

import (
	"reflect"
	"testing"

	"github.com/rzbill/flightreview/internal/dataset"
)

func sampleTopic(t *testing.T) *dataset.Topic {
	t.Helper()
	tbl, err := dataset.NewTable(
		dataset.NewColumn[uint8]("main_state", nil),
		dataset.NewColumn[float32]("q[0]", nil),
		dataset.NewColumn[string]("name", nil),
	)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	rows := []struct {
		ts   uint64
		mode uint8
		q    float32
		name string
	}{
		{0, 0, 1, "boot"},
		{1_000_000, 1, 0.5, "a"},
		{2_000_000, 2, 0.25, "b"},
		{3_000_000, 2, 0.75, "c"},
	}
	for _, r := range rows {
		if _, err := tbl.AppendRow(r.ts, []any{r.mode, r.q, r.name}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return &dataset.Topic{Key: dataset.TopicKey{Name: "commander_state"}, Table: tbl}
}

func TestFilterRows(t *testing.T) {
	tp := sampleTopic(t)
	cases := []struct {
		expr  string
		limit int
		want  []int
	}{
		{"", 0, []int{0, 1, 2, 3}},
		{"row.main_state == 2", 0, []int{2, 3}},
		{`row["q[0]"] > 0.4 && !flagged`, 0, []int{1, 3}},
		{"flagged", 0, []int{0}},
		{"time_s >= 2.0", 0, []int{2, 3}},
		{"timestamp > 0", 2, []int{1, 2}},
		{`row.name.startsWith("b")`, 0, []int{2}},
		{"row.missing == 1", 0, nil},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			f, err := Compile(tc.expr)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			if got := f.Rows(tp, 0, tc.limit); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	for _, expr := range []string{"row.main_state ==", "timestamp + 1", "unknown_var > 1"} {
		if _, err := Compile(expr); err == nil {
			t.Fatalf("%q: expected error", expr)
		}
	}
}
