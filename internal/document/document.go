// Package document defines the retrievable units built from an extracted
// database schema: per-column documents that are embedded and indexed, and
// per-table structural records kept in memory for context backfill.
package document

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Document type discriminators.
const (
	TypeTable  = "table"
	TypeColumn = "column"
)

// ForeignKeyEdge is one foreign-key relationship owned by a table.
type ForeignKeyEdge struct {
	Column    string `json:"column"`
	RefTable  string `json:"ref_table"`
	RefColumn string `json:"ref_column"`
}

// TableDocument is the structural record for one table. It is never embedded
// or persisted to the vector store; the retriever uses it to synthesize table
// context for tables whose columns were retrieved.
type TableDocument struct {
	Table       string           `json:"table"`
	PrimaryKey  []string         `json:"primary_key"`
	ForeignKeys []ForeignKeyEdge `json:"foreign_keys"`
}

// ID returns the document's retrieval identifier.
func (d TableDocument) ID() string {
	return "table:" + d.Table
}

// Describe renders the table's structural facts as context text. Empty
// primary-key and foreign-key sets render as "None" placeholders.
func (d TableDocument) Describe() string {
	pk := "None"
	if len(d.PrimaryKey) > 0 {
		pk = strings.Join(d.PrimaryKey, ", ")
	}

	var fkLines []string
	for _, fk := range d.ForeignKeys {
		fkLines = append(fkLines, fmt.Sprintf(" - %s.%s → %s.%s",
			d.Table, fk.Column, fk.RefTable, fk.RefColumn))
	}

	fks := " - None"
	if len(fkLines) > 0 {
		fks = strings.Join(fkLines, "\n")
	}

	return fmt.Sprintf("Table: %s\nPrimary key: %s\nForeign keys:\n%s\n", d.Table, pk, fks)
}

// Validate checks the structural invariants of a table document.
func (d TableDocument) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Table, validation.Required),
	)
}

// ColumnDocument is the embeddable unit of schema context. One exists per
// (table, column) pair; rebuilding the index fully replaces the prior
// generation, so instances are logically immutable.
type ColumnDocument struct {
	ID            string `json:"id"`
	Table         string `json:"table"`
	Column        string `json:"column"`
	Text          string `json:"text"`
	DataType      string `json:"data_type"`
	IsPrimaryKey  bool   `json:"is_primary_key"`
	IsForeignKey  bool   `json:"is_foreign_key"`
	RelatedTable  string `json:"related_table,omitempty"`
	RelatedColumn string `json:"related_column,omitempty"`
}

// ColumnID returns the retrieval identifier for a (table, column) pair.
func ColumnID(table, column string) string {
	return fmt.Sprintf("column:%s.%s", table, column)
}

// Validate checks the column document invariants: identity fields present,
// and related table/column both set or both absent, and only for foreign keys.
func (d ColumnDocument) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.ID, validation.Required),
		validation.Field(&d.Table, validation.Required),
		validation.Field(&d.Column, validation.Required),
		validation.Field(&d.Text, validation.Required),
		validation.Field(&d.DataType, validation.Required),
		validation.Field(&d.RelatedTable,
			validation.When(!d.IsForeignKey, validation.Empty.Error("related_table requires is_foreign_key")),
			validation.When(d.RelatedColumn != "", validation.Required.Error("related_table and related_column must be set together")),
		),
		validation.Field(&d.RelatedColumn,
			validation.When(!d.IsForeignKey, validation.Empty.Error("related_column requires is_foreign_key")),
			validation.When(d.RelatedTable != "", validation.Required.Error("related_table and related_column must be set together")),
		),
	)
}
