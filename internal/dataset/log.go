package dataset

import (
	"fmt"
	"sort"
	"time"

	"github.com/rzbill/flightreview/internal/ulog"
)

// Log is a fully decoded flight log.
type Log struct {
	Version        uint8
	StartTimestamp uint64
	// LastTimestamp is the largest timestamp seen in any data or logged
	// message record, including topics excluded by the allow-list.
	LastTimestamp uint64
	CompatFlags   [8]byte
	IncompatFlags [8]byte

	Info          map[string]any
	MultiInfo     map[string][][]any
	InitialParams map[string]any
	ChangedParams []ulog.ParamChange
	DefaultParams []ulog.DefaultParam
	Messages      []ulog.LoggedMessage
	Dropouts      []ulog.Dropout
	Diagnostics   *ulog.Diagnostics

	topics []*Topic
	index  map[TopicKey]*Topic
}

// Topic returns the topic with the given name and instance.
func (l *Log) Topic(name string, instance uint8) (*Topic, bool) {
	t, ok := l.index[TopicKey{Name: name, Instance: instance}]
	return t, ok
}

// Topics returns all topics ordered by name then instance.
func (l *Log) Topics() []*Topic {
	out := make([]*Topic, len(l.topics))
	copy(out, l.topics)
	return out
}

// TopicsNamed returns every instance of name in instance order.
func (l *Log) TopicsNamed(name string) []*Topic {
	var out []*Topic
	for _, t := range l.topics {
		if t.Key.Name == name {
			out = append(out, t)
		}
	}
	return out
}

// AddTopic registers an additional topic, such as one synthesized from
// other topics. It fails if the key is taken.
func (l *Log) AddTopic(t *Topic) error {
	if _, ok := l.index[t.Key]; ok {
		return fmt.Errorf("dataset: topic %s already exists", t.Key)
	}
	l.index[t.Key] = t
	l.topics = append(l.topics, t)
	l.sortTopics()
	return nil
}

func (l *Log) sortTopics() {
	sort.Slice(l.topics, func(i, j int) bool {
		a, b := l.topics[i].Key, l.topics[j].Key
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Instance < b.Instance
	})
}

// Param returns the value of a parameter as of the end of the log.
func (l *Log) Param(name string) (any, bool) {
	for i := len(l.ChangedParams) - 1; i >= 0; i-- {
		if l.ChangedParams[i].Name == name {
			return l.ChangedParams[i].Value, true
		}
	}
	v, ok := l.InitialParams[name]
	return v, ok
}

// InfoString returns a string info value, or "" if absent or not a string.
func (l *Log) InfoString(key string) string {
	s, _ := l.Info[key].(string)
	return s
}

// Duration is the span between the start and last timestamps.
func (l *Log) Duration() time.Duration {
	if l.LastTimestamp <= l.StartTimestamp {
		return 0
	}
	return time.Duration(l.LastTimestamp-l.StartTimestamp) * time.Microsecond
}
