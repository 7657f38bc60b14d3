// Package schema introspects a SQLite database into structured table,
// column, and foreign-key records annotated with representative sample
// values. Extraction is deterministic: tables are enumerated in
// lexicographic order and columns in declaration order.
package schema

import "sort"

// ReferencedPrimaryKey is the sentinel referenced-column value meaning "the
// referenced table's own primary key", used when a foreign key declaration
// does not name an explicit target column.
const ReferencedPrimaryKey = "primary_key"

// UnknownType is the declared data type recorded for columns without one.
const UnknownType = "UNKNOWN"

// Column describes one column of a user table.
type Column struct {
	Name    string
	Type    string // declared type, "UNKNOWN" when absent
	NotNull bool
	Default string // declared default expression, "" when none
	// PKOrdinal is the 1-based position within the primary key, 0 when the
	// column is not part of it.
	PKOrdinal int
	Samples   []string // up to the configured limit of distinct non-null values
}

// ForeignKey describes one foreign-key edge declared on a table. RefColumn
// is the ReferencedPrimaryKey sentinel when the declaration does not name a
// target column.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// Table describes one user table with its columns and foreign keys.
type Table struct {
	Name        string
	Columns     []Column
	ForeignKeys []ForeignKey
}

// PrimaryKey returns the primary-key column names ordered by their position
// within the key. Empty for tables without an explicit primary key.
func (t Table) PrimaryKey() []string {
	var pk []Column

	for _, col := range t.Columns {
		if col.PKOrdinal > 0 {
			pk = append(pk, col)
		}
	}

	sort.Slice(pk, func(i, j int) bool { return pk[i].PKOrdinal < pk[j].PKOrdinal })

	names := make([]string, 0, len(pk))
	for _, col := range pk {
		names = append(names, col.Name)
	}

	return names
}

// Snapshot is the result of one extraction pass. It is immutable after
// construction and held in memory for the retrieval/backfill step.
type Snapshot struct {
	Tables []Table
}

// Table returns the named table's record, if present.
func (s *Snapshot) Table(name string) (Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}

	return Table{}, false
}
