// Package retrieval selects the schema documents relevant to a question. It
// runs similarity search over the indexed column documents, keeps the hits
// within an adaptive distance threshold of the best match, and backfills
// table-level context for every table that contributed a retained column.
package retrieval

import (
	"context"

	"github.com/schemarag/schemarag/internal/config"
	"github.com/schemarag/schemarag/internal/document"
	"github.com/schemarag/schemarag/internal/errors"
	"github.com/schemarag/schemarag/internal/logging"
	"github.com/schemarag/schemarag/internal/vectorstore"
)

// QueryPrefix is prepended to every question before embedding. Instruction
// tuned embedding models rank noticeably better with it, so it is part of the
// retrieval contract, not a cosmetic detail.
const QueryPrefix = "Represent this sentence for searching relevant database schema"

// Searcher is the slice of the vector store the retriever needs.
type Searcher interface {
	Search(ctx context.Context, text string, limit int) ([]vectorstore.Hit, error)
}

// Result holds the retained column hits in ascending-distance order plus the
// backfilled table records, one per distinct table, in order of first
// appearance among the columns.
type Result struct {
	Columns []vectorstore.Hit        `json:"columns"`
	Tables  []document.TableDocument `json:"tables"`
}

// Empty reports whether retrieval found nothing relevant.
func (r *Result) Empty() bool {
	return len(r.Columns) == 0 && len(r.Tables) == 0
}

// Retriever runs similarity search and adaptive-threshold filtering
type Retriever struct {
	searcher       Searcher
	candidateLimit int
	thresholdSlack float64
	logger         *logging.Logger
}

// NewRetriever creates a retriever from configuration
func NewRetriever(searcher Searcher, cfg config.RetrievalConfig, logger *logging.Logger) (*Retriever, error) {
	if cfg.ThresholdSlack < 1.0 {
		return nil, errors.Newf(errors.ErrTypeConfig,
			"threshold slack must be >= 1.0, got %g", cfg.ThresholdSlack)
	}

	if cfg.CandidateLimit <= 0 {
		return nil, errors.Newf(errors.ErrTypeConfig,
			"candidate limit must be positive, got %d", cfg.CandidateLimit)
	}

	if logger == nil {
		logger = logging.GetLogger()
	}

	return &Retriever{
		searcher:       searcher,
		candidateLimit: cfg.CandidateLimit,
		thresholdSlack: cfg.ThresholdSlack,
		logger:         logger,
	}, nil
}

// Retrieve returns the schema documents relevant to the question. Zero
// candidates is a valid outcome, not an error: the caller decides how to
// answer without schema context.
func (r *Retriever) Retrieve(ctx context.Context, question string, tableDocs map[string]document.TableDocument) (*Result, error) {
	hits, err := r.searcher.Search(ctx, QueryPrefix+question, r.candidateLimit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeVectorStore, "similarity search failed")
	}

	if len(hits) == 0 {
		return &Result{}, nil
	}

	// The best match always survives; everything within the slack factor of
	// its distance comes along. Search already returns ascending order, so
	// retention preserves it.
	threshold := hits[0].Distance * r.thresholdSlack

	var retained []vectorstore.Hit

	for _, hit := range hits {
		if hit.Distance <= threshold {
			retained = append(retained, hit)
		}
	}

	result := &Result{
		Columns: retained,
		Tables:  r.backfillTables(retained, tableDocs),
	}

	r.logger.WithFields(map[string]interface{}{
		"candidates": len(hits),
		"retained":   len(retained),
		"tables":     len(result.Tables),
		"threshold":  threshold,
	}).Debug("retrieval complete")

	return result, nil
}

// backfillTables synthesizes one table record per distinct table among the
// retained columns, in order of first appearance. A retained column whose
// table has no structural record is a soft inconsistency: it is skipped with
// a warning, never a failure.
func (r *Retriever) backfillTables(hits []vectorstore.Hit, tableDocs map[string]document.TableDocument) []document.TableDocument {
	seen := make(map[string]bool, len(hits))

	var tables []document.TableDocument

	for _, hit := range hits {
		table := hit.Document.Table
		if seen[table] {
			continue
		}

		seen[table] = true

		doc, ok := tableDocs[table]
		if !ok {
			r.logger.WithField("table", table).Warn("no structural record for retrieved table, skipping backfill")
			continue
		}

		tables = append(tables, doc)
	}

	return tables
}
