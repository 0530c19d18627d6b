// Package table holds the in-memory columnar representation of one loaded
// dataset file. A table is owned by a single pipeline run and never mutated
// concurrently; transformations produce new tables.
package table

import (
	"fmt"
	"sort"
)

// Table is an ordered collection of typed columns. Column order follows the
// source header; row order follows the source file, which keeps downstream
// normalization deterministic.
type Table struct {
	columns []*Column
	index   map[string]int
}

// New builds a table from the provided columns, validating equal lengths and
// unique names.
func New(columns ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, col := range columns {
		if err := t.addColumn(col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) addColumn(col *Column) error {
	if col == nil {
		return fmt.Errorf("nil column")
	}
	if _, exists := t.index[col.Name]; exists {
		return fmt.Errorf("duplicate column %q", col.Name)
	}
	if len(t.columns) > 0 && col.Len() != t.NumRows() {
		return fmt.Errorf("column %q has %d rows, table has %d", col.Name, col.Len(), t.NumRows())
	}
	t.index[col.Name] = len(t.columns)
	t.columns = append(t.columns, col)
	return nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	if len(t.columns) == 0 {
		return 0
	}
	return t.columns[0].Len()
}

// NumColumns returns the column count.
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// Column returns the named column, or nil when absent.
func (t *Table) Column(name string) *Column {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.columns[i]
}

// Columns returns the columns in source order.
func (t *Table) Columns() []*Column {
	return t.columns
}

// ColumnNames returns the names in source order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name
	}
	return names
}

// MissingColumns returns which of the required names are absent, sorted.
func (t *Table) MissingColumns(required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := t.index[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Filter returns a new table keeping only rows where keep[i] is true.
func (t *Table) Filter(keep []bool) (*Table, error) {
	if len(keep) != t.NumRows() {
		return nil, fmt.Errorf("keep mask has %d entries, table has %d rows", len(keep), t.NumRows())
	}
	cols := make([]*Column, len(t.columns))
	for i, col := range t.columns {
		cols[i] = col.filter(keep)
	}
	return New(cols...)
}
