package cmd

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schemarag/schemarag/internal/config"
	"github.com/schemarag/schemarag/internal/embedding"
	"github.com/schemarag/schemarag/internal/generate"
	"github.com/schemarag/schemarag/internal/logging"
	"github.com/schemarag/schemarag/internal/pipeline"
	"github.com/schemarag/schemarag/internal/retrieval"
	"github.com/schemarag/schemarag/internal/sqlite"
	"github.com/schemarag/schemarag/internal/vectorstore"
)

// loadConfig resolves configuration and initializes the global logger. The
// --db flag takes precedence over config file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	cfg.ExpandAllPaths()

	if err := logging.InitializeLogger(cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	return cfg, nil
}

// openDatabase opens the target SQLite database read-only. Introspection and
// the compile-only check never need write access.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sqlite.OpenReadOnly(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Database.Path, err)
	}

	return db, nil
}

// initializeStore creates the vector store with its embedding provider
func initializeStore(cfg *config.Config) (vectorstore.Store, error) {
	embedder, err := embedding.NewProvider(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}

	store, err := vectorstore.NewDuckDBStore(cfg.VectorStore.Path, cfg.VectorStore.Collection, embedder, logging.GetLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	return store, nil
}

// buildPipeline assembles the full question-answering pipeline
func buildPipeline(cfg *config.Config, db *sql.DB, store vectorstore.Store) (*pipeline.Pipeline, error) {
	logger := logging.GetLogger()

	retriever, err := retrieval.NewRetriever(store, cfg.Retrieval, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create retriever: %w", err)
	}

	client, err := generate.NewClient(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	generator, err := generate.NewGenerator(client, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	return pipeline.New(db, cfg.Database.SampleLimit, store, retriever, generator, logger), nil
}
