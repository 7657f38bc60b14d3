package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/schemarag/schemarag/internal/errors"
	"github.com/schemarag/schemarag/internal/logging"
)

// maxSampleLength bounds the rendered length of a single sample value.
const maxSampleLength = 50

// Extractor introspects a SQLite database into a Snapshot.
type Extractor struct {
	db          *sql.DB
	sampleLimit int
	logger      *logging.Logger
}

// NewExtractor creates an extractor over an open SQLite connection.
// sampleLimit caps the distinct non-null sample values fetched per column.
func NewExtractor(db *sql.DB, sampleLimit int, logger *logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.GetLogger()
	}

	return &Extractor{
		db:          db,
		sampleLimit: sampleLimit,
		logger:      logger,
	}
}

// Extract enumerates all user tables and introspects their columns and
// foreign keys. Per-column sampling failures are soft: the column keeps an
// empty sample list and extraction continues.
func (e *Extractor) Extract(ctx context.Context) (*Snapshot, error) {
	names, err := e.listTables(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to enumerate tables")
	}

	// Names straight from sqlite_master form the allowlist for every
	// identifier interpolated into a sampling query.
	allowed := make(map[string]bool, len(names))
	for _, name := range names {
		allowed[name] = true
	}

	snapshot := &Snapshot{Tables: make([]Table, 0, len(names))}

	for _, name := range names {
		table, err := e.extractTable(ctx, name, allowed)
		if err != nil {
			return nil, err
		}

		snapshot.Tables = append(snapshot.Tables, table)
	}

	e.logger.WithField("tables", len(snapshot.Tables)).Debug("schema extraction complete")

	return snapshot, nil
}

// listTables returns user table names in lexicographic order.
func (e *Extractor) listTables(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		names = append(names, name)
	}

	return names, rows.Err()
}

// extractTable introspects one table's columns and foreign keys.
func (e *Extractor) extractTable(ctx context.Context, name string, allowed map[string]bool) (Table, error) {
	columns, err := e.fetchColumns(ctx, name)
	if err != nil {
		return Table{}, errors.Wrapf(err, errors.ErrTypeDatabase, "failed to introspect columns of %s", name)
	}

	for i := range columns {
		columns[i].Samples = e.fetchColumnSamples(ctx, name, columns[i].Name, allowed)
	}

	foreignKeys, err := e.fetchForeignKeys(ctx, name)
	if err != nil {
		return Table{}, errors.Wrapf(err, errors.ErrTypeDatabase, "failed to introspect foreign keys of %s", name)
	}

	return Table{
		Name:        name,
		Columns:     columns,
		ForeignKeys: foreignKeys,
	}, nil
}

// fetchColumns reads pragma_table_info for one table in declaration order.
func (e *Extractor) fetchColumns(ctx context.Context, table string) ([]Column, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT name, type, "notnull", dflt_value, pk
		FROM pragma_table_info(?)
		ORDER BY cid`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column

	for rows.Next() {
		var (
			col        Column
			notNull    int
			defaultVal sql.NullString
		)

		if err := rows.Scan(&col.Name, &col.Type, &notNull, &defaultVal, &col.PKOrdinal); err != nil {
			return nil, err
		}

		if col.Type == "" {
			col.Type = UnknownType
		}

		col.NotNull = notNull != 0
		if defaultVal.Valid {
			col.Default = defaultVal.String
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// fetchForeignKeys reads pragma_foreign_key_list for one table. A NULL
// referenced column means the referenced table's own primary key and is
// recorded as the ReferencedPrimaryKey sentinel.
func (e *Extractor) fetchForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT "table", "from", "to"
		FROM pragma_foreign_key_list(?)
		ORDER BY id, seq`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var foreignKeys []ForeignKey

	for rows.Next() {
		var (
			fk        ForeignKey
			refColumn sql.NullString
		)

		if err := rows.Scan(&fk.RefTable, &fk.Column, &refColumn); err != nil {
			return nil, err
		}

		if refColumn.Valid && refColumn.String != "" {
			fk.RefColumn = refColumn.String
		} else {
			fk.RefColumn = ReferencedPrimaryKey
		}

		foreignKeys = append(foreignKeys, fk)
	}

	return foreignKeys, rows.Err()
}

// fetchColumnSamples fetches up to sampleLimit distinct non-null values in
// database-default order. Failures are soft: a column that cannot be queried
// yields an empty sample list.
func (e *Extractor) fetchColumnSamples(ctx context.Context, table, column string, allowed map[string]bool) []string {
	if e.sampleLimit <= 0 {
		return nil
	}

	// Only identifiers that came out of the enumeration itself may be
	// interpolated into the sampling query.
	if !allowed[table] {
		e.logger.WithField("table", table).Warn("skipping samples for table outside allowlist")
		return nil
	}

	query := fmt.Sprintf(`SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL LIMIT ?`,
		quoteIdentifier(column), quoteIdentifier(table), quoteIdentifier(column))

	rows, err := e.db.QueryContext(ctx, query, e.sampleLimit)
	if err != nil {
		e.logger.WithFields(map[string]interface{}{
			"table":  table,
			"column": column,
		}).WithError(err).Warn("column sampling failed, continuing without samples")

		return nil
	}
	defer rows.Close()

	var samples []string

	for rows.Next() {
		var value interface{}
		if err := rows.Scan(&value); err != nil {
			return nil
		}

		samples = append(samples, formatSampleValue(value))
	}

	if err := rows.Err(); err != nil {
		return nil
	}

	return samples
}

// quoteIdentifier wraps an identifier in double quotes, escaping embedded
// quotes, so adversarial table or column names cannot break out of the
// sampling query.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// formatSampleValue renders a scanned value as a short display string.
func formatSampleValue(value interface{}) string {
	var s string

	switch v := value.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		s = fmt.Sprintf("%v", v)
	}

	if utf8.RuneCountInString(s) > maxSampleLength {
		runes := []rune(s)
		s = string(runes[:maxSampleLength])
	}

	return s
}
