// Package features drives feature extraction over the fixed (user, item)
// index: the extractor contract, the registry of named extractors, and the
// assembler that merges extractor outputs into one feature matrix with
// collision-safe column naming and provenance tracking.
package features

import (
	"fmt"

	"github.com/retailai/basketfeat/internal/domain"
)

// Table is a dense numeric table keyed by the (user, item) index. Every
// column holds one value per index entry; there are no missing cells.
// Extractors fill pairs absent from their natural computation with an
// explicit feature-specific value (0 for counts, 999 for delay-style
// features).
type Table struct {
	Index   []domain.UserItem
	Columns []Column
}

// Column is one named feature column, aligned positionally to the table
// index.
type Column struct {
	Name   string
	Values []float64
}

// NewTable creates an empty table over the given index. The index slice is
// shared, not copied; callers must not mutate it afterwards.
func NewTable(index []domain.UserItem) *Table {
	return &Table{Index: index}
}

// AddColumn appends a column. The value slice must align to the index.
func (t *Table) AddColumn(name string, values []float64) error {
	if len(values) != len(t.Index) {
		return fmt.Errorf("column %q has %d values for %d index entries",
			name, len(values), len(t.Index))
	}
	t.Columns = append(t.Columns, Column{Name: name, Values: values})
	return nil
}

// AddFromMap appends a column from a sparse per-pair mapping, reindexed onto
// the table index. Pairs absent from the mapping get the fill value.
func (t *Table) AddFromMap(name string, values map[domain.UserItem]float64, fill float64) {
	column := make([]float64, len(t.Index))
	for i, key := range t.Index {
		if value, ok := values[key]; ok {
			column[i] = value
		} else {
			column[i] = fill
		}
	}
	t.Columns = append(t.Columns, Column{Name: name, Values: column})
}

// Column returns the named column's values, or false when absent.
func (t *Table) Column(name string) ([]float64, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col.Values, true
		}
	}
	return nil, false
}

// ColumnNames returns column names in insertion order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// SameIndex reports whether both tables share the exact index: same pairs in
// the same order.
func (t *Table) SameIndex(other *Table) bool {
	if len(t.Index) != len(other.Index) {
		return false
	}
	for i, key := range t.Index {
		if other.Index[i] != key {
			return false
		}
	}
	return true
}
