package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TsepisoMotloung/pgdatahub/internal/config"
	"github.com/TsepisoMotloung/pgdatahub/internal/storage"
)

var (
	revertTable      string
	revertSourceFile string
	revertFileHash   string
)

// revertCmd represents the revert command
var revertCmd = &cobra.Command{
	Use:   "revert",
	Short: "Remove the rows a file's import produced",
	Long: `Revert deletes the rows a previously imported file contributed to its
target table (selected by the engine's metadata columns) and removes
the matching import ledger entry, so the file can be imported again.

Select the import either by source file path or by content hash:

  pgdatahub revert --table sales_2024 --source-file /srv/data/sales/2024/q1.xlsx
  pgdatahub revert --table sales_2024 --file-hash 9f86d08...`,
	RunE: runRevert,
}

func init() {
	rootCmd.AddCommand(revertCmd)
	revertCmd.Flags().StringVar(&revertTable, "table", "", "target table name (required)")
	revertCmd.Flags().StringVar(&revertSourceFile, "source-file", "", "source file path of the import")
	revertCmd.Flags().StringVar(&revertFileHash, "file-hash", "", "SHA-256 content hash of the import")
	revertCmd.MarkFlagRequired("table")
}

func runRevert(cmd *cobra.Command, args []string) error {
	if (revertSourceFile == "") == (revertFileHash == "") {
		return fmt.Errorf("exactly one of --source-file or --file-hash is required")
	}

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	db, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	ledger := storage.NewLedger(db)

	var deleted int64
	if revertFileHash != "" {
		deleted, err = ledger.RevertByFingerprint(revertTable, revertFileHash)
	} else {
		deleted, err = ledger.RevertBySourceFile(revertTable, revertSourceFile)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %d rows from %s and removed the ledger entry.\n", deleted, revertTable)
	return nil
}
