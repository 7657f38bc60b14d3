package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb" // DuckDB driver

	"github.com/schemarag/schemarag/internal/document"
	"github.com/schemarag/schemarag/internal/embedding"
	"github.com/schemarag/schemarag/internal/errors"
	"github.com/schemarag/schemarag/internal/logging"
)

// Collection names are interpolated into DDL, so they are restricted to
// plain identifiers.
var collectionNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DuckDBStore implements the Store interface using DuckDB
type DuckDBStore struct {
	db         *sql.DB
	path       string
	collection string
	embedder   embedding.Provider
	logger     *logging.Logger
}

// NewDuckDBStore creates a new DuckDB-backed store with connection pooling
func NewDuckDBStore(dbPath, collection string, embedder embedding.Provider, logger *logging.Logger) (*DuckDBStore, error) {
	if !collectionNamePattern.MatchString(collection) {
		return nil, errors.Newf(errors.ErrTypeConfig, "invalid collection name: %q", collection)
	}

	if logger == nil {
		logger = logging.GetLogger()
	}

	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DuckDBStore{
		db:         db,
		path:       dbPath,
		collection: collection,
		embedder:   embedder,
		logger:     logger,
	}, nil
}

// Initialize creates the collection table if it does not exist
func (s *DuckDBStore) Initialize(ctx context.Context) error {
	createSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR PRIMARY KEY,
		table_name VARCHAR NOT NULL,
		column_name VARCHAR NOT NULL,
		data_type VARCHAR NOT NULL,
		is_primary_key BOOLEAN NOT NULL,
		is_foreign_key BOOLEAN NOT NULL,
		related_table VARCHAR,
		related_column VARCHAR,
		text VARCHAR NOT NULL,
		embedding VARCHAR NOT NULL,
		generation_id VARCHAR NOT NULL,
		indexed_at TIMESTAMP NOT NULL
	)`, s.collection)

	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return errors.Wrap(err, errors.ErrTypeVectorStore, "failed to create collection")
	}

	return nil
}

// Rebuild destructively replaces the collection contents. Every document is
// embedded before the store is touched, and the delete+insert runs in one
// transaction, so a failure at any point leaves the prior generation intact.
func (s *DuckDBStore) Rebuild(ctx context.Context, docs []document.ColumnDocument) error {
	type embeddedDoc struct {
		doc    document.ColumnDocument
		vector []float32
	}

	embedded := make([]embeddedDoc, 0, len(docs))

	for _, doc := range docs {
		if err := doc.Validate(); err != nil {
			return errors.Wrapf(err, errors.ErrTypeVectorStore, "refusing to index invalid document %s", doc.ID)
		}

		vector, err := s.embedder.Embed(ctx, doc.Text)
		if err != nil {
			return errors.Wrapf(err, errors.ErrTypeEmbedding, "failed to embed document %s", doc.ID)
		}

		embedded = append(embedded, embeddedDoc{doc: doc, vector: vector})
	}

	generation := uuid.New().String()
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeVectorStore, "failed to begin transaction")
	}

	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.collection)); err != nil {
		return errors.Wrap(err, errors.ErrTypeVectorStore, "failed to clear prior generation")
	}

	insertSQL := fmt.Sprintf(`
	INSERT INTO %s (
		id, table_name, column_name, data_type, is_primary_key, is_foreign_key,
		related_table, related_column, text, embedding, generation_id, indexed_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.collection)

	for _, e := range embedded {
		embeddingJSON, err := json.Marshal(e.vector)
		if err != nil {
			return errors.Wrapf(err, errors.ErrTypeVectorStore, "failed to marshal embedding for %s", e.doc.ID)
		}

		_, err = tx.ExecContext(ctx, insertSQL,
			e.doc.ID,
			e.doc.Table,
			e.doc.Column,
			e.doc.DataType,
			e.doc.IsPrimaryKey,
			e.doc.IsForeignKey,
			e.doc.RelatedTable,
			e.doc.RelatedColumn,
			e.doc.Text,
			string(embeddingJSON),
			generation,
			now,
		)
		if err != nil {
			return errors.Wrapf(err, errors.ErrTypeVectorStore, "failed to insert document %s", e.doc.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrTypeVectorStore, "failed to commit rebuild")
	}

	s.logger.WithFields(map[string]interface{}{
		"documents":  len(embedded),
		"generation": generation,
	}).Info("vector index rebuilt")

	return nil
}

// Search embeds the text and ranks the whole collection by cosine distance.
// Collections hold one document per column, so scanning them in full is
// cheap; ordering is ascending by distance with the document ID as a
// deterministic tiebreaker.
func (s *DuckDBStore) Search(ctx context.Context, text string, limit int) ([]Hit, error) {
	queryVector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeEmbedding, "failed to embed query")
	}

	querySQL := fmt.Sprintf(`
	SELECT id, table_name, column_name, data_type, is_primary_key, is_foreign_key,
		   COALESCE(related_table, '') AS related_table,
		   COALESCE(related_column, '') AS related_column,
		   text, embedding
	FROM %s`, s.collection)

	rows, err := s.db.QueryContext(ctx, querySQL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeVectorStore, "failed to query collection")
	}
	defer rows.Close()

	var hits []Hit

	for rows.Next() {
		var (
			doc           document.ColumnDocument
			embeddingJSON string
		)

		err := rows.Scan(
			&doc.ID, &doc.Table, &doc.Column, &doc.DataType,
			&doc.IsPrimaryKey, &doc.IsForeignKey,
			&doc.RelatedTable, &doc.RelatedColumn,
			&doc.Text, &embeddingJSON,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeVectorStore, "failed to scan document")
		}

		var vector []float32
		if err := json.Unmarshal([]byte(embeddingJSON), &vector); err != nil {
			s.logger.WithField("id", doc.ID).Warn("skipping document with unreadable embedding")
			continue
		}

		if len(vector) != len(queryVector) {
			s.logger.WithField("id", doc.ID).Warn("skipping document with mismatched embedding dimensions")
			continue
		}

		hits = append(hits, Hit{
			Document: doc,
			Distance: cosineDistance(queryVector, vector),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeVectorStore, "failed to read collection")
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}

		return hits[i].Document.ID < hits[j].Document.ID
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	return hits, nil
}

// Stats returns index statistics
func (s *DuckDBStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	statsSQL := fmt.Sprintf(`
	SELECT COUNT(*),
		   COUNT(DISTINCT table_name),
		   COALESCE(MAX(generation_id), ''),
		   MAX(indexed_at)
	FROM %s`, s.collection)

	var lastRebuilt *time.Time

	err := s.db.QueryRowContext(ctx, statsSQL).Scan(
		&stats.Documents, &stats.Tables, &stats.Generation, &lastRebuilt,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeVectorStore, "failed to read stats")
	}

	if lastRebuilt != nil {
		stats.LastRebuilt = *lastRebuilt
	}

	if info, err := os.Stat(s.path); err == nil {
		stats.DatabaseSizeMB = float64(info.Size()) / (1024 * 1024)
	}

	return stats, nil
}

// Clear removes all documents from the collection
func (s *DuckDBStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.collection)); err != nil {
		return errors.Wrap(err, errors.ErrTypeVectorStore, "failed to clear collection")
	}

	return nil
}

// Close closes the database connection
func (s *DuckDBStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}

	return nil
}

// cosineDistance computes 1 - cosine similarity. Zero-magnitude vectors are
// treated as maximally distant.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1.0
	}

	return 1.0 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
