// Package vectorstore persists embedded column documents and serves
// similarity search over them. The store owns the persisted documents: a
// rebuild fully replaces the prior generation.
package vectorstore

import (
	"context"
	"time"

	"github.com/schemarag/schemarag/internal/document"
)

// Store defines the interface for the schema document index
type Store interface {
	Initialize(ctx context.Context) error

	// Rebuild destructively replaces the whole collection with the given
	// documents. Either the new generation becomes visible as a whole or the
	// call fails and the prior generation remains available.
	Rebuild(ctx context.Context, docs []document.ColumnDocument) error

	// Search embeds the given text and returns up to limit hits ordered by
	// ascending cosine distance.
	Search(ctx context.Context, text string, limit int) ([]Hit, error)

	Stats(ctx context.Context) (*Stats, error)
	Clear(ctx context.Context) error
	Close() error
}

// Hit is one similarity-search result. Lower distance means more relevant.
type Hit struct {
	Document document.ColumnDocument `json:"document"`
	Distance float64                 `json:"distance"`
}

// Stats describes the current index generation
type Stats struct {
	Documents      int       `json:"documents"`
	Tables         int       `json:"tables"`
	Generation     string    `json:"generation"`
	LastRebuilt    time.Time `json:"last_rebuilt"`
	DatabaseSizeMB float64   `json:"database_size_mb"`
}
