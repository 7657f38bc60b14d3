package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all documents from the vector index",
	Long:  `Delete every indexed schema document. The target database itself is never touched. This action requires confirmation.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		force, _ := cmd.Flags().GetBool("force")

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

		if stats.Documents == 0 {
			fmt.Println("Index is already empty.")
			return nil
		}

		if !force {
			fmt.Printf("This will delete %d documents covering %d tables.\n", stats.Documents, stats.Tables)
			fmt.Printf("Type 'yes' to confirm: ")

			reader := bufio.NewReader(os.Stdin)
			response, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			if strings.TrimSpace(strings.ToLower(response)) != "yes" {
				fmt.Println("Operation cancelled.")
				return nil
			}
		}

		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear index: %w", err)
		}

		fmt.Println("Index cleared successfully.")

		return nil
	},
}

func init() {
	clearCmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")
}
