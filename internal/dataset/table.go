package dataset

import (
	"errors"
	"fmt"
)

// RowFlag marks rows that were kept despite a timestamp problem.
type RowFlag uint8

const (
	// RowZeroTimestamp marks a row whose timestamp is 0.
	RowZeroTimestamp RowFlag = 1 << iota
	// RowNonMonotonic marks a row older than the row before it.
	RowNonMonotonic
)

// Has reports whether all bits of g are set in f.
func (f RowFlag) Has(g RowFlag) bool { return f&g == g }

var (
	// ErrRowShape is returned when a row does not match the column set.
	ErrRowShape = errors.New("dataset: row does not match columns")
	// ErrColumnLength is returned when an added column has the wrong length.
	ErrColumnLength = errors.New("dataset: column length differs from row count")
	// ErrDuplicateColumn is returned when an added column name already exists.
	ErrDuplicateColumn = errors.New("dataset: duplicate column")
)

// Table is a columnar store of rows in arrival order. All columns always
// have the same length as the timestamp column.
type Table struct {
	timestamps []uint64
	flags      []RowFlag
	columns    []Column
	index      map[string]int
	last       uint64
}

// NewTable returns an empty table with the given columns, which must be
// empty.
func NewTable(columns ...Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		if c.Len() != 0 {
			return nil, fmt.Errorf("%w: %q has %d rows in an empty table", ErrColumnLength, c.Name(), c.Len())
		}
		if err := t.addColumn(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) addColumn(c Column) error {
	if c.Name() == "timestamp" {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name())
	}
	if _, ok := t.index[c.Name()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name())
	}
	t.index[c.Name()] = len(t.columns)
	t.columns = append(t.columns, c)
	return nil
}

// AppendRow appends one row. values must hold one value per column, each of
// the column's Go type; otherwise the table is left unchanged and
// ErrRowShape is returned. The returned flags describe the stored row.
func (t *Table) AppendRow(ts uint64, values []any) (RowFlag, error) {
	if len(values) != len(t.columns) {
		return 0, fmt.Errorf("%w: %d values for %d columns", ErrRowShape, len(values), len(t.columns))
	}
	for i, c := range t.columns {
		if !c.accepts(values[i]) {
			return 0, fmt.Errorf("%w: column %q (%s) got %T", ErrRowShape, c.Name(), c.Type(), values[i])
		}
	}
	var flag RowFlag
	if ts == 0 {
		flag |= RowZeroTimestamp
	} else {
		if ts < t.last {
			flag |= RowNonMonotonic
		}
		t.last = ts
	}
	for i, c := range t.columns {
		c.push(values[i])
	}
	t.timestamps = append(t.timestamps, ts)
	t.flags = append(t.flags, flag)
	return flag, nil
}

// AddColumn attaches a derived column. Its length must equal Len.
func (t *Table) AddColumn(c Column) error {
	if c.Len() != t.Len() {
		return fmt.Errorf("%w: %q has %d rows, table has %d", ErrColumnLength, c.Name(), c.Len(), t.Len())
	}
	return t.addColumn(c)
}

// Len returns the row count.
func (t *Table) Len() int { return len(t.timestamps) }

// Timestamp returns the timestamp of row i.
func (t *Table) Timestamp(i int) uint64 { return t.timestamps[i] }

// Timestamps returns the timestamp column. Callers must not modify it.
func (t *Table) Timestamps() []uint64 { return t.timestamps }

// Flags returns the flags of row i.
func (t *Table) Flags(i int) RowFlag { return t.flags[i] }

// Columns returns the value columns in layout order followed by derived
// columns.
func (t *Table) Columns() []Column { return t.columns }

// Column looks up a value column by flattened name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// ColumnNames lists the value column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name()
	}
	return names
}

// Row returns the values of row i, one per column.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.Value(i)
	}
	return row
}
