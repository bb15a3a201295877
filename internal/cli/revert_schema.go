package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TsepisoMotloung/pgdatahub/internal/config"
	"github.com/TsepisoMotloung/pgdatahub/internal/storage"
)

var (
	revertSchemaTable      string
	revertSchemaSourceFile string
	revertSchemaDryRun     bool
)

// revertSchemaCmd represents the revert-schema command
var revertSchemaCmd = &cobra.Command{
	Use:   "revert-schema",
	Short: "Undo the schema changes a file's import caused",
	Long: `Revert-schema walks the schema changes a source file caused on a table
in reverse chronological order. Added columns are dropped; type
widenings and table creation are not invertible and are reported, not
undone. With --dry-run the plan is printed without executing.`,
	RunE: runRevertSchema,
}

func init() {
	rootCmd.AddCommand(revertSchemaCmd)
	revertSchemaCmd.Flags().StringVar(&revertSchemaTable, "table", "", "target table name (required)")
	revertSchemaCmd.Flags().StringVar(&revertSchemaSourceFile, "source-file", "", "source file path (required)")
	revertSchemaCmd.Flags().BoolVar(&revertSchemaDryRun, "dry-run", false, "print the plan without executing")
	revertSchemaCmd.MarkFlagRequired("table")
	revertSchemaCmd.MarkFlagRequired("source-file")
}

func runRevertSchema(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	db, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	plan, err := storage.NewLedger(db).RevertSchemaChanges(revertSchemaTable, revertSchemaSourceFile, revertSchemaDryRun)
	if err != nil {
		return err
	}
	if len(plan) == 0 {
		fmt.Printf("No schema changes recorded for %s on %s.\n", revertSchemaSourceFile, revertSchemaTable)
		return nil
	}

	verb := "Executed"
	if revertSchemaDryRun {
		verb = "Planned"
	}
	fmt.Printf("%s %d steps:\n", verb, len(plan))
	for _, a := range plan {
		if a.Statement != "" {
			fmt.Printf("  %s\n", a.Statement)
		} else {
			fmt.Printf("  (skip) %s\n", a.Note)
		}
	}
	return nil
}
