package dataset

import (
	"fmt"

	"github.com/rzbill/flightreview/internal/ulog"
)

// TopicKey identifies a topic instance within a log.
type TopicKey struct {
	Name     string
	Instance uint8
}

func (k TopicKey) String() string { return fmt.Sprintf("%s[%d]", k.Name, k.Instance) }

// Topic is one (name, instance) stream with its decoded rows.
type Topic struct {
	Key    TopicKey
	Layout *ulog.Layout
	Table  *Table
}

func newTopic(key TopicKey, layout *ulog.Layout) (*Topic, error) {
	cols := make([]Column, 0, len(layout.Columns))
	for _, lc := range layout.Columns {
		c, err := columnFor(lc)
		if err != nil {
			return nil, fmt.Errorf("topic %s: %w", key, err)
		}
		cols = append(cols, c)
	}
	t, err := NewTable(cols...)
	if err != nil {
		return nil, fmt.Errorf("topic %s: %w", key, err)
	}
	return &Topic{Key: key, Layout: layout, Table: t}, nil
}

func (t *Topic) Name() string    { return t.Key.Name }
func (t *Topic) Instance() uint8 { return t.Key.Instance }
func (t *Topic) Len() int        { return t.Table.Len() }

// Column looks up a value column by flattened field name.
func (t *Topic) Column(name string) (Column, bool) { return t.Table.Column(name) }
