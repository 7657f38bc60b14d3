package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schemarag/schemarag/internal/logging"
	"github.com/schemarag/schemarag/internal/schema"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the extracted schema for the target database",
	Long: `Run schema extraction against the target database and print what the
indexer would see: tables, columns with types and sample values, primary keys
and foreign-key relationships.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		extractor := schema.NewExtractor(db, cfg.Database.SampleLimit, logging.GetLogger())

		snapshot, err := extractor.Extract(ctx)
		if err != nil {
			return fmt.Errorf("schema extraction failed: %w", err)
		}

		if len(snapshot.Tables) == 0 {
			fmt.Println("No user tables found.")
			return nil
		}

		for _, table := range snapshot.Tables {
			fmt.Printf("Table: %s\n", table.Name)

			if pk := table.PrimaryKey(); len(pk) > 0 {
				fmt.Printf("  Primary key: %s\n", strings.Join(pk, ", "))
			}

			for _, col := range table.Columns {
				line := fmt.Sprintf("  %s %s", col.Name, col.Type)
				if col.NotNull {
					line += " NOT NULL"
				}

				if len(col.Samples) > 0 {
					line += fmt.Sprintf(" (e.g. %s)", strings.Join(col.Samples, ", "))
				}

				fmt.Println(line)
			}

			for _, fk := range table.ForeignKeys {
				fmt.Printf("  FK: %s -> %s.%s\n", fk.Column, fk.RefTable, fk.RefColumn)
			}

			fmt.Println()
		}

		return nil
	},
}
