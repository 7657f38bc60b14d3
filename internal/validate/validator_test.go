package validate

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemarag/schemarag/internal/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE orders (id INTEGER PRIMARY KEY, total REAL);
		INSERT INTO orders (id, total) VALUES (1, 9.99), (2, 19.99);
	`)
	require.NoError(t, err)

	return db
}

func TestCheckForbiddenKeywordsClean(t *testing.T) {
	result := CheckForbiddenKeywords("SELECT id, total FROM orders WHERE total > 10")
	assert.True(t, result.Valid)
	assert.Empty(t, result.Reason)
}

func TestCheckForbiddenKeywordsCaseInsensitive(t *testing.T) {
	lower := CheckForbiddenKeywords("delete from orders")
	upper := CheckForbiddenKeywords("DELETE FROM orders")

	assert.False(t, lower.Valid)
	assert.False(t, upper.Valid)
	assert.Equal(t, lower.Reason, upper.Reason)
	assert.Contains(t, lower.Reason, "DELETE FROM")
}

func TestCheckForbiddenKeywordsReportsAllMatches(t *testing.T) {
	result := CheckForbiddenKeywords("UPDATE orders SET total = 0; DROP TABLE orders")

	assert.False(t, result.Valid)
	assert.Contains(t, result.Reason, "UPDATE")
	assert.Contains(t, result.Reason, "DROP TABLE")
}

func TestCheckForbiddenKeywordsSubstring(t *testing.T) {
	// Substring semantics are intentional: even a keyword inside a longer
	// statement rejects.
	result := CheckForbiddenKeywords("SELECT * FROM log WHERE action = 'update'")
	assert.False(t, result.Valid)
	assert.Contains(t, result.Reason, "UPDATE")
}

func TestCheckSchemaAndSyntaxValidQuery(t *testing.T) {
	db := newTestDB(t)

	result, err := CheckSchemaAndSyntax(context.Background(), db, "SELECT id, total FROM orders")
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestCheckSchemaAndSyntaxMissingColumn(t *testing.T) {
	db := newTestDB(t)

	result, err := CheckSchemaAndSyntax(context.Background(), db, "SELECT nonexistent FROM orders")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Reason)
}

func TestCheckSchemaAndSyntaxMissingTable(t *testing.T) {
	db := newTestDB(t)

	result, err := CheckSchemaAndSyntax(context.Background(), db, "SELECT * FROM ghosts")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Reason)
}

func TestCheckSchemaAndSyntaxSyntaxError(t *testing.T) {
	db := newTestDB(t)

	result, err := CheckSchemaAndSyntax(context.Background(), db, "SELEC id FROM orders")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Reason)
}

func TestCheckSchemaAndSyntaxDoesNotExecute(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Planning a mutating statement must leave the data untouched.
	result, err := CheckSchemaAndSyntax(ctx, db, "DELETE FROM orders")
	require.NoError(t, err)
	assert.True(t, result.Valid)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestValidateKeywordRejectionRunsFirst(t *testing.T) {
	db := newTestDB(t)

	// Keyword scan rejects before the database is consulted, even though the
	// statement would plan fine.
	result, err := Validate(context.Background(), db, "DELETE FROM orders")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Reason, "DELETE FROM")
}

func TestValidateAcceptsCleanQuery(t *testing.T) {
	db := newTestDB(t)

	result, err := Validate(context.Background(), db, "SELECT total FROM orders WHERE id = 1")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Reason)
}
