package document

import (
	"fmt"
	"strings"

	"github.com/schemarag/schemarag/internal/schema"
)

// BuildColumnDocument composes the embeddable document for one column,
// carrying over the primary/foreign key structural flags from extraction.
func BuildColumnDocument(table schema.Table, col schema.Column) (ColumnDocument, error) {
	doc := ColumnDocument{
		ID:           ColumnID(table.Name, col.Name),
		Table:        table.Name,
		Column:       col.Name,
		DataType:     col.Type,
		IsPrimaryKey: col.PKOrdinal > 0,
		Text:         describeColumn(table.Name, col),
	}

	for _, fk := range table.ForeignKeys {
		if fk.Column == col.Name {
			doc.IsForeignKey = true
			doc.RelatedTable = fk.RefTable
			doc.RelatedColumn = fk.RefColumn

			break
		}
	}

	if err := doc.Validate(); err != nil {
		return ColumnDocument{}, fmt.Errorf("invalid column document %s: %w", doc.ID, err)
	}

	return doc, nil
}

// BuildColumnDocuments builds the column documents for every table in the
// snapshot, in table order then column order.
func BuildColumnDocuments(snapshot *schema.Snapshot) ([]ColumnDocument, error) {
	var docs []ColumnDocument

	for _, table := range snapshot.Tables {
		for _, col := range table.Columns {
			doc, err := BuildColumnDocument(table, col)
			if err != nil {
				return nil, err
			}

			docs = append(docs, doc)
		}
	}

	return docs, nil
}

// BuildTableDocument records the structural facts of one table. Tables with
// no columns, no primary key, or no foreign keys are valid inputs.
func BuildTableDocument(table schema.Table) TableDocument {
	doc := TableDocument{
		Table:      table.Name,
		PrimaryKey: table.PrimaryKey(),
	}

	for _, fk := range table.ForeignKeys {
		doc.ForeignKeys = append(doc.ForeignKeys, ForeignKeyEdge{
			Column:    fk.Column,
			RefTable:  fk.RefTable,
			RefColumn: fk.RefColumn,
		})
	}

	return doc
}

// BuildTableDocuments builds the in-memory table document set keyed by table
// name, used by the retriever's backfill step.
func BuildTableDocuments(snapshot *schema.Snapshot) map[string]TableDocument {
	docs := make(map[string]TableDocument, len(snapshot.Tables))

	for _, table := range snapshot.Tables {
		docs[table.Name] = BuildTableDocument(table)
	}

	return docs
}

// describeColumn renders the single-sentence description that gets embedded.
func describeColumn(tableName string, col schema.Column) string {
	samples := "None"
	if len(col.Samples) > 0 {
		samples = strings.Join(col.Samples, ", ")
	}

	return fmt.Sprintf("Table: %s, Column: %s. Type: %s. Sample values: %s",
		tableName, col.Name, col.Type, samples)
}
