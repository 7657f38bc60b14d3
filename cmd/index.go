package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Extract the database schema and rebuild the vector index",
	Long: `Introspect every user table in the target database, build one document per
column with representative sample values, embed the documents, and rebuild the
vector index. The rebuild replaces any prior index in full; a failure leaves
the previous index untouched.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if err := cfg.EnsureDirectories(); err != nil {
			return fmt.Errorf("failed to create directories: %w", err)
		}

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		store, err := initializeStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		p, err := buildPipeline(cfg, db, store)
		if err != nil {
			return err
		}

		sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		sp.Suffix = " Indexing schema documents..."
		sp.Start()

		summary, err := p.Index(ctx)

		sp.Stop()

		if err != nil {
			return fmt.Errorf("index build failed: %w", err)
		}

		fmt.Printf("Indexed %d documents from %d tables into %s\n",
			summary.Documents, summary.Tables, cfg.VectorStore.Path)

		return nil
	},
}
