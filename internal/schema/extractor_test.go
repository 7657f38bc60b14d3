package schema

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemarag/schemarag/internal/sqlite"
)

func newTestDB(t *testing.T, statements ...string) *sql.DB {
	t.Helper()

	db, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	return db
}

func TestExtractRoundTrip(t *testing.T) {
	db := newTestDB(t,
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			customer_id INTEGER REFERENCES customers(id)
		)`,
		`INSERT INTO customers (id, name) VALUES (1, 'Ada'), (2, 'Grace')`,
		`INSERT INTO orders (id, customer_id) VALUES (10, 1), (11, 2)`,
	)

	extractor := NewExtractor(db, 5, nil)
	snapshot, err := extractor.Extract(context.Background())
	require.NoError(t, err)

	require.Len(t, snapshot.Tables, 2)
	// Lexicographic table order
	assert.Equal(t, "customers", snapshot.Tables[0].Name)
	assert.Equal(t, "orders", snapshot.Tables[1].Name)

	orders, ok := snapshot.Table("orders")
	require.True(t, ok)

	assert.Equal(t, []string{"id"}, orders.PrimaryKey())
	require.Len(t, orders.Columns, 2)
	require.Len(t, orders.ForeignKeys, 1)

	fk := orders.ForeignKeys[0]
	assert.Equal(t, "customer_id", fk.Column)
	assert.Equal(t, "customers", fk.RefTable)
	assert.Equal(t, "id", fk.RefColumn)
}

func TestExtractForeignKeySentinel(t *testing.T) {
	db := newTestDB(t,
		`CREATE TABLE customers (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER REFERENCES customers)`,
	)

	snapshot, err := NewExtractor(db, 5, nil).Extract(context.Background())
	require.NoError(t, err)

	orders, ok := snapshot.Table("orders")
	require.True(t, ok)
	require.Len(t, orders.ForeignKeys, 1)
	assert.Equal(t, ReferencedPrimaryKey, orders.ForeignKeys[0].RefColumn)
}

func TestExtractColumnDetails(t *testing.T) {
	db := newTestDB(t,
		`CREATE TABLE items (
			id INTEGER PRIMARY KEY,
			label TEXT NOT NULL DEFAULT 'unlabeled',
			anything
		)`,
		`INSERT INTO items (id, label) VALUES (1, 'a'), (2, 'b'), (3, 'a')`,
	)

	snapshot, err := NewExtractor(db, 2, nil).Extract(context.Background())
	require.NoError(t, err)

	items, ok := snapshot.Table("items")
	require.True(t, ok)
	require.Len(t, items.Columns, 3)

	label := items.Columns[1]
	assert.Equal(t, "label", label.Name)
	assert.Equal(t, "TEXT", label.Type)
	assert.True(t, label.NotNull)
	assert.Equal(t, "'unlabeled'", label.Default)
	assert.Equal(t, 0, label.PKOrdinal)
	// Distinct non-null values capped at the sample limit
	assert.Len(t, label.Samples, 2)

	// A column declared without a type reports UNKNOWN
	anything := items.Columns[2]
	assert.Equal(t, UnknownType, anything.Type)
	assert.Empty(t, anything.Samples)
}

func TestExtractEmptyTable(t *testing.T) {
	db := newTestDB(t, `CREATE TABLE empty (id INTEGER PRIMARY KEY, note TEXT)`)

	snapshot, err := NewExtractor(db, 5, nil).Extract(context.Background())
	require.NoError(t, err)

	table, ok := snapshot.Table("empty")
	require.True(t, ok)

	for _, col := range table.Columns {
		assert.Empty(t, col.Samples)
	}
}

func TestExtractQuotedIdentifiers(t *testing.T) {
	// Table and column names containing quotes must not break the sampling
	// query or allow escaping it.
	db := newTestDB(t,
		`CREATE TABLE "we""ird" ("na""me" TEXT)`,
		`INSERT INTO "we""ird" VALUES ('x')`,
	)

	snapshot, err := NewExtractor(db, 5, nil).Extract(context.Background())
	require.NoError(t, err)

	table, ok := snapshot.Table(`we"ird`)
	require.True(t, ok)
	require.Len(t, table.Columns, 1)
	assert.Equal(t, []string{"x"}, table.Columns[0].Samples)
}

func TestExtractCompositePrimaryKey(t *testing.T) {
	db := newTestDB(t,
		`CREATE TABLE line_items (
			order_id INTEGER,
			line_no INTEGER,
			qty INTEGER,
			PRIMARY KEY (order_id, line_no)
		)`,
	)

	snapshot, err := NewExtractor(db, 5, nil).Extract(context.Background())
	require.NoError(t, err)

	table, ok := snapshot.Table("line_items")
	require.True(t, ok)
	assert.Equal(t, []string{"order_id", "line_no"}, table.PrimaryKey())
}

func TestExtractSkipsSystemTables(t *testing.T) {
	db := newTestDB(t,
		`CREATE TABLE real_table (id INTEGER PRIMARY KEY AUTOINCREMENT, v TEXT)`,
		`INSERT INTO real_table (v) VALUES ('a')`,
	)

	// AUTOINCREMENT forces the sqlite_sequence system table into existence.
	snapshot, err := NewExtractor(db, 5, nil).Extract(context.Background())
	require.NoError(t, err)

	require.Len(t, snapshot.Tables, 1)
	assert.Equal(t, "real_table", snapshot.Tables[0].Name)
}

func TestFormatSampleValue(t *testing.T) {
	assert.Equal(t, "hello", formatSampleValue("hello"))
	assert.Equal(t, "42", formatSampleValue(int64(42)))
	assert.Equal(t, "blob", formatSampleValue([]byte("blob")))

	long := make([]byte, 0, 80)
	for range 80 {
		long = append(long, 'x')
	}
	assert.Len(t, formatSampleValue(string(long)), maxSampleLength)
}
