package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display the active configuration",
	Long:  `Show the resolved configuration after merging defaults, the config file and environment variables.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		fmt.Println("Active Configuration")
		fmt.Println("====================")

		fmt.Println("\nDatabase:")
		fmt.Printf("  Path: %s\n", cfg.Database.Path)
		fmt.Printf("  Sample Limit: %d\n", cfg.Database.SampleLimit)

		fmt.Println("\nVector Store:")
		fmt.Printf("  Path: %s\n", cfg.VectorStore.Path)
		fmt.Printf("  Collection: %s\n", cfg.VectorStore.Collection)

		fmt.Println("\nEmbedding:")
		fmt.Printf("  Provider: %s\n", cfg.Embedding.Provider)
		fmt.Printf("  Model: %s\n", cfg.Embedding.Model)
		fmt.Printf("  Base URL: %s\n", cfg.Embedding.BaseURL)
		fmt.Printf("  Dimensions: %d\n", cfg.Embedding.Dimensions)

		fmt.Println("\nLLM:")
		fmt.Printf("  Provider: %s\n", cfg.LLM.Provider)
		fmt.Printf("  Model: %s\n", cfg.LLM.Model)
		fmt.Printf("  Base URL: %s\n", cfg.LLM.BaseURL)
		fmt.Printf("  Max New Tokens: %d\n", cfg.LLM.MaxNewTokens)
		fmt.Printf("  Stops: %s\n", strings.Join(cfg.LLM.Stops, " "))
		fmt.Printf("  Timeout: %ds\n", cfg.LLM.TimeoutSecs)

		fmt.Println("\nRetrieval:")
		fmt.Printf("  Candidate Limit: %d\n", cfg.Retrieval.CandidateLimit)
		fmt.Printf("  Threshold Slack: %.2f\n", cfg.Retrieval.ThresholdSlack)

		fmt.Println("\nLogging:")
		fmt.Printf("  Level: %s\n", cfg.Logging.Level)
		fmt.Printf("  Format: %s\n", cfg.Logging.Format)
		fmt.Printf("  Output: %s\n", cfg.Logging.Output)

		if cfg.Logging.Output == "file" {
			fmt.Printf("  File: %s\n", cfg.Logging.File)
		}

		return nil
	},
}
