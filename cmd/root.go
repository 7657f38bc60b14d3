package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "schemarag",
	Short: "Ask natural-language questions about a SQLite database",
	Long: `schemarag turns a SQLite database into a question-answering target. It
introspects the schema into descriptive documents, embeds and indexes them for
semantic search, and uses the retrieved schema context to prompt a language
model for a SQL query. Every generated query is checked for forbidden
operations and compiled against the live database before it is reported.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	ctx := context.Background()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to the SQLite database (overrides configuration)")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(configCmd)
}
