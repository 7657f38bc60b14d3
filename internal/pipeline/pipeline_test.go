package pipeline

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemarag/schemarag/internal/document"
	"github.com/schemarag/schemarag/internal/errors"
	"github.com/schemarag/schemarag/internal/retrieval"
	"github.com/schemarag/schemarag/internal/sqlite"
	"github.com/schemarag/schemarag/internal/vectorstore"
)

// fakeStore records rebuilds without embedding anything.
type fakeStore struct {
	initialized bool
	rebuilt     []document.ColumnDocument
	rebuildErr  error
}

func (f *fakeStore) Initialize(context.Context) error { f.initialized = true; return nil }

func (f *fakeStore) Rebuild(_ context.Context, docs []document.ColumnDocument) error {
	if f.rebuildErr != nil {
		return f.rebuildErr
	}

	f.rebuilt = docs

	return nil
}

func (f *fakeStore) Search(context.Context, string, int) ([]vectorstore.Hit, error) {
	return nil, nil
}

func (f *fakeStore) Stats(context.Context) (*vectorstore.Stats, error) { return &vectorstore.Stats{}, nil }
func (f *fakeStore) Clear(context.Context) error                      { return nil }
func (f *fakeStore) Close() error                                     { return nil }

// fakeRetriever returns a canned result and remembers the table documents it
// was handed.
type fakeRetriever struct {
	result       *retrieval.Result
	gotQuestion  string
	gotTableDocs map[string]document.TableDocument
}

func (f *fakeRetriever) Retrieve(_ context.Context, question string, tableDocs map[string]document.TableDocument) (*retrieval.Result, error) {
	f.gotQuestion = question
	f.gotTableDocs = tableDocs

	if f.result == nil {
		return &retrieval.Result{}, nil
	}

	return f.result, nil
}

// fakeGenerator returns a canned completion and remembers the context.
type fakeGenerator struct {
	response   string
	err        error
	gotContext string
}

func (f *fakeGenerator) Generate(_ context.Context, _, schemaContext string) (string, error) {
	f.gotContext = schemaContext

	return f.response, f.err
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT);
		CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			customer_id INTEGER REFERENCES customers(id),
			total REAL
		);
		INSERT INTO customers (id, name) VALUES (1, 'Ada');
		INSERT INTO orders (id, customer_id, total) VALUES (1, 1, 9.99);
	`)
	require.NoError(t, err)

	return db
}

func TestIndexBuildsDocumentsFromSchema(t *testing.T) {
	db := newTestDB(t)
	store := &fakeStore{}

	p := New(db, 5, store, &fakeRetriever{}, &fakeGenerator{}, nil)

	summary, err := p.Index(context.Background())
	require.NoError(t, err)

	assert.True(t, store.initialized)
	assert.Equal(t, 2, summary.Tables)
	assert.Equal(t, 5, summary.Documents) // customers(2) + orders(3)
	assert.Len(t, store.rebuilt, 5)
}

func TestIndexPropagatesRebuildFailure(t *testing.T) {
	db := newTestDB(t)
	store := &fakeStore{rebuildErr: errors.New(errors.ErrTypeEmbedding, "service down")}

	p := New(db, 5, store, &fakeRetriever{}, &fakeGenerator{}, nil)

	_, err := p.Index(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeEmbedding))
}

func TestAskValidCandidate(t *testing.T) {
	db := newTestDB(t)
	retriever := &fakeRetriever{result: &retrieval.Result{
		Columns: []vectorstore.Hit{{
			Document: document.ColumnDocument{
				ID:       document.ColumnID("orders", "total"),
				Table:    "orders",
				Column:   "total",
				Text:     "Table: orders, Column: total. Type: REAL. Sample values: 9.99",
				DataType: "REAL",
			},
			Distance: 0.3,
		}},
	}}
	generator := &fakeGenerator{response: "SELECT SUM(total) FROM orders"}

	p := New(db, 5, &fakeStore{}, retriever, generator, nil)

	answer, err := p.Ask(context.Background(), "what is the total order value?")
	require.NoError(t, err)

	assert.Equal(t, "what is the total order value?", retriever.gotQuestion)
	assert.Contains(t, generator.gotContext, "[DOCUMENT_START]")
	assert.Equal(t, "SELECT SUM(total) FROM orders", answer.SQL)
	assert.True(t, answer.Valid)
	assert.False(t, answer.NoAnswer)
	assert.Empty(t, answer.Reason)
	assert.Equal(t, 1, answer.Retrieved)
}

func TestAskHandsLiveTableDocsToRetriever(t *testing.T) {
	db := newTestDB(t)
	retriever := &fakeRetriever{}

	p := New(db, 5, &fakeStore{}, retriever, &fakeGenerator{response: "SELECT 1"}, nil)

	_, err := p.Ask(context.Background(), "q")
	require.NoError(t, err)

	require.Contains(t, retriever.gotTableDocs, "orders")
	require.Contains(t, retriever.gotTableDocs, "customers")
	assert.Equal(t, []string{"id"}, retriever.gotTableDocs["orders"].PrimaryKey)
	require.Len(t, retriever.gotTableDocs["orders"].ForeignKeys, 1)
	assert.Equal(t, "customers", retriever.gotTableDocs["orders"].ForeignKeys[0].RefTable)
}

func TestAskTrimsRawCompletion(t *testing.T) {
	db := newTestDB(t)
	generator := &fakeGenerator{response: "\n  SELECT total FROM orders\n"}

	p := New(db, 5, &fakeStore{}, &fakeRetriever{}, generator, nil)

	answer, err := p.Ask(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, "SELECT total FROM orders", answer.SQL)
	assert.True(t, answer.Valid)
}

func TestAskEmptyRetrieval(t *testing.T) {
	db := newTestDB(t)
	generator := &fakeGenerator{response: "I do not know"}

	p := New(db, 5, &fakeStore{}, &fakeRetriever{}, generator, nil)

	answer, err := p.Ask(context.Background(), "q")
	require.NoError(t, err)

	// Empty retrieval still produces an answer; the generator just gets an
	// empty schema context.
	assert.Empty(t, generator.gotContext)
	assert.Equal(t, 0, answer.Retrieved)
	assert.True(t, answer.NoAnswer)
}

func TestAskRejectedCandidate(t *testing.T) {
	db := newTestDB(t)
	generator := &fakeGenerator{response: "DELETE FROM orders"}

	p := New(db, 5, &fakeStore{}, &fakeRetriever{}, generator, nil)

	answer, err := p.Ask(context.Background(), "delete everything")
	require.NoError(t, err)

	// Rejection is a structured outcome, not an error
	assert.False(t, answer.Valid)
	assert.False(t, answer.NoAnswer)
	assert.Contains(t, answer.Reason, "DELETE FROM")
	assert.Equal(t, "DELETE FROM orders", answer.SQL)
}

func TestAskInvalidSchemaReference(t *testing.T) {
	db := newTestDB(t)
	generator := &fakeGenerator{response: "SELECT nonexistent FROM orders"}

	p := New(db, 5, &fakeStore{}, &fakeRetriever{}, generator, nil)

	answer, err := p.Ask(context.Background(), "q")
	require.NoError(t, err)

	assert.False(t, answer.Valid)
	assert.NotEmpty(t, answer.Reason)
}

func TestAskNoAnswerSentinel(t *testing.T) {
	db := newTestDB(t)
	generator := &fakeGenerator{response: "I do not know"}

	p := New(db, 5, &fakeStore{}, &fakeRetriever{}, generator, nil)

	answer, err := p.Ask(context.Background(), "what is the meaning of life?")
	require.NoError(t, err)

	assert.True(t, answer.NoAnswer)
	assert.False(t, answer.Valid)
	assert.Empty(t, answer.SQL)
	assert.Empty(t, answer.Reason)
}

func TestAskGeneratorFailureIsFatal(t *testing.T) {
	db := newTestDB(t)
	generator := &fakeGenerator{err: errors.New(errors.ErrTypeGeneration, "model offline")}

	p := New(db, 5, &fakeStore{}, &fakeRetriever{}, generator, nil)

	_, err := p.Ask(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeGeneration))
}
