package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Generate a validated SQL query for a natural-language question",
	Long: `Retrieve the schema documents relevant to the question, prompt the language
model for a SQL query grounded in that context, and validate the result. A
query that fails the forbidden-keyword scan or does not compile against the
database is reported as rejected along with the reason.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		question := strings.Join(args, " ")
		showContext, _ := cmd.Flags().GetBool("show-context")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
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

		answer, err := p.Ask(ctx, question)
		if err != nil {
			return fmt.Errorf("failed to answer question: %w", err)
		}

		if showContext {
			fmt.Println("Schema context:")
			fmt.Println(answer.Context)
		}

		switch {
		case answer.NoAnswer:
			fmt.Println("The model could not answer this question with the available schema.")
		case answer.Valid:
			fmt.Println(answer.SQL)
		default:
			fmt.Printf("Rejected: %s\n", answer.Reason)
			fmt.Printf("Candidate was: %s\n", answer.SQL)
		}

		return nil
	},
}

func init() {
	askCmd.Flags().Bool("show-context", false, "Print the retrieved schema context before the answer")
}
