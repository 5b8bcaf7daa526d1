package dataset

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned when a Dataset is constructed without columns.
var ErrEmpty = errors.New("dataset: at least one column required")

// ErrRaggedColumns indicates columns of unequal length.
//
// The offending column can be identified from the error message.
type ErrRaggedColumns struct {
	Column   string
	Expected int
	Actual   int
}

func (e *ErrRaggedColumns) Error() string {
	return fmt.Sprintf("dataset: column %q has %d rows, expected %d", e.Column, e.Actual, e.Expected)
}

// Dataset is an immutable table of named columns with equal row counts.
type Dataset struct {
	cols  []Column
	index map[string]int
	rows  int
}

// New creates a Dataset from the given columns. Column names must be unique
// and all columns must have the same length.
func New(cols ...Column) (*Dataset, error) {
	if len(cols) == 0 {
		return nil, ErrEmpty
	}

	rows := cols[0].Len()
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := index[c.Name()]; dup {
			return nil, fmt.Errorf("dataset: duplicate column name %q", c.Name())
		}
		if c.Len() != rows {
			return nil, &ErrRaggedColumns{Column: c.Name(), Expected: rows, Actual: c.Len()}
		}
		index[c.Name()] = i
	}

	return &Dataset{cols: cols, index: index, rows: rows}, nil
}

// Rows returns the number of rows.
func (d *Dataset) Rows() int { return d.rows }

// NumColumns returns the number of columns.
func (d *Dataset) NumColumns() int { return len(d.cols) }

// Columns returns the columns in declaration order.
func (d *Dataset) Columns() []Column { return append([]Column(nil), d.cols...) }

// ColumnNames returns the column names in declaration order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.cols))
	for i, c := range d.cols {
		names[i] = c.Name()
	}
	return names
}

// Column returns the named column.
func (d *Dataset) Column(name string) (Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.cols[i], true
}

// ColumnAt returns the column at position i.
func (d *Dataset) ColumnAt(i int) Column { return d.cols[i] }

// ColumnIndex returns the position of the named column.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}
