package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display vector index statistics",
	Long:  `Show the current index generation: document and table counts, when it was last rebuilt, and the size of the index database.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		store, err := initializeStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Initialize(ctx); err != nil {
			return err
		}

		stats, err := store.Stats(ctx)
		if err != nil {
			return fmt.Errorf("failed to get statistics: %w", err)
		}

		fmt.Printf("Index Statistics\n")
		fmt.Printf("================\n\n")
		fmt.Printf("Documents: %d\n", stats.Documents)
		fmt.Printf("Tables: %d\n", stats.Tables)
		fmt.Printf("Index Size: %.2f MB\n", stats.DatabaseSizeMB)

		if stats.Generation != "" {
			fmt.Printf("Generation: %s\n", stats.Generation)
		}

		if !stats.LastRebuilt.IsZero() {
			fmt.Printf("Last Rebuilt: %s\n", stats.LastRebuilt.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Printf("Last Rebuilt: Never\n")
		}

		return nil
	},
}
