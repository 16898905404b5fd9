// Package dataset turns decoded ULog records into columnar per-topic tables.
//
// A Topic is identified by its (name, instance) pair. Every subscription of
// the same pair feeds one Table, so a topic that is unsubscribed and later
// re-subscribed keeps growing in place. Each Table holds a timestamp column,
// a row flag column and one typed column per flattened field.
//
// Rows whose timestamp is zero are kept and flagged RowZeroTimestamp unless
// the caller selects ZeroTimestampDrop. Rows that go backwards in time are
// kept and flagged RowNonMonotonic. Both cases are counted in the log's
// Diagnostics.
//
//	l, err := dataset.Load(r, dataset.Options{Decode: ulog.Options{Topics: topics}})
//	if err != nil {
//	    return err
//	}
//	if t, ok := l.Topic("commander_state", 0); ok {
//	    col, _ := t.Column("main_state")
//	    _ = col.Len()
//	}
//
// A Log is read-only once Load returns and may be shared between goroutines.
package dataset
