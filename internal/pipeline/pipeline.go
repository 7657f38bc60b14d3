// Package pipeline orchestrates the question-to-SQL flow: schema extraction
// and index builds at index time, then retrieve, assemble, generate and
// validate at question time. Collaborators are injected, so every stage can
// be swapped or faked independently.
package pipeline

import (
	"context"
	"database/sql"
	"strings"

	"github.com/schemarag/schemarag/internal/document"
	"github.com/schemarag/schemarag/internal/errors"
	"github.com/schemarag/schemarag/internal/generate"
	"github.com/schemarag/schemarag/internal/logging"
	"github.com/schemarag/schemarag/internal/retrieval"
	"github.com/schemarag/schemarag/internal/schema"
	"github.com/schemarag/schemarag/internal/validate"
	"github.com/schemarag/schemarag/internal/vectorstore"
)

// Retriever selects the schema documents relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, tableDocs map[string]document.TableDocument) (*retrieval.Result, error)
}

// Generator produces a raw SQL candidate from a question and schema context.
type Generator interface {
	Generate(ctx context.Context, question, schemaContext string) (string, error)
}

// Answer is the outcome of one question. Exactly one of three shapes comes
// back: a validated candidate (Valid true), a rejected candidate (Valid
// false with Reason), or a declined answer (NoAnswer true, nothing to
// validate). Fatal faults are returned as errors, never encoded here.
type Answer struct {
	Question  string `json:"question"`
	SQL       string `json:"sql,omitempty"`
	NoAnswer  bool   `json:"no_answer"`
	Valid     bool   `json:"valid"`
	Reason    string `json:"reason,omitempty"`
	Context   string `json:"context,omitempty"`
	Retrieved int    `json:"retrieved"`
}

// IndexSummary reports what an index build produced
type IndexSummary struct {
	Tables    int `json:"tables"`
	Documents int `json:"documents"`
}

// Pipeline wires the stages together around one target database
type Pipeline struct {
	db          *sql.DB
	sampleLimit int
	store       vectorstore.Store
	retriever   Retriever
	generator   Generator
	logger      *logging.Logger
}

// New creates a pipeline over an open database connection
func New(db *sql.DB, sampleLimit int, store vectorstore.Store, retriever Retriever, generator Generator, logger *logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.GetLogger()
	}

	return &Pipeline{
		db:          db,
		sampleLimit: sampleLimit,
		store:       store,
		retriever:   retriever,
		generator:   generator,
		logger:      logger,
	}
}

// Index extracts the schema and rebuilds the vector index from it. The
// rebuild fully replaces any prior index generation.
func (p *Pipeline) Index(ctx context.Context) (*IndexSummary, error) {
	snapshot, err := p.extract(ctx)
	if err != nil {
		return nil, err
	}

	docs, err := document.BuildColumnDocuments(snapshot)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeInternal, "failed to build schema documents")
	}

	if err := p.store.Initialize(ctx); err != nil {
		return nil, err
	}

	if err := p.store.Rebuild(ctx, docs); err != nil {
		return nil, err
	}

	return &IndexSummary{
		Tables:    len(snapshot.Tables),
		Documents: len(docs),
	}, nil
}

// Ask answers one natural-language question with a validated SQL candidate.
// The schema is re-extracted per question so the backfill records match the
// live database rather than whatever generation the index was built from.
func (p *Pipeline) Ask(ctx context.Context, question string) (*Answer, error) {
	snapshot, err := p.extract(ctx)
	if err != nil {
		return nil, err
	}

	tableDocs := document.BuildTableDocuments(snapshot)

	result, err := p.retriever.Retrieve(ctx, question, tableDocs)
	if err != nil {
		return nil, err
	}

	if result.Empty() {
		p.logger.WithField("question", question).Warn("no schema documents retrieved, generating without context")
	}

	schemaContext := retrieval.RenderContext(result)

	raw, err := p.generator.Generate(ctx, question, schemaContext)
	if err != nil {
		return nil, err
	}

	answer := &Answer{
		Question:  question,
		Context:   schemaContext,
		Retrieved: len(result.Columns),
	}

	if generate.IsNoAnswer(raw) {
		answer.NoAnswer = true

		p.logger.WithField("question", question).Info("model declined to answer")

		return answer, nil
	}

	// The generator hands back raw model text; tidy it here before reporting
	// and validating.
	answer.SQL = strings.TrimSpace(raw)

	verdict, err := validate.Validate(ctx, p.db, answer.SQL)
	if err != nil {
		return nil, err
	}

	answer.Valid = verdict.Valid
	answer.Reason = verdict.Reason

	p.logger.WithFields(map[string]interface{}{
		"question": question,
		"valid":    verdict.Valid,
	}).Info("question answered")

	return answer, nil
}

func (p *Pipeline) extract(ctx context.Context) (*schema.Snapshot, error) {
	extractor := schema.NewExtractor(p.db, p.sampleLimit, p.logger)

	snapshot, err := extractor.Extract(ctx)
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}
