package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TsepisoMotloung/pgdatahub/internal/config"
	"github.com/TsepisoMotloung/pgdatahub/internal/etl"
	"github.com/TsepisoMotloung/pgdatahub/internal/storage"
)

var statusDataRoot string

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show checkpoint state and recent imports",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusDataRoot, "data-root", ".", "data root to check for a checkpoint")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cp, err := etl.LoadCheckpoint(statusDataRoot)
	if err != nil {
		return err
	}
	if cp == nil {
		fmt.Println("No pause checkpoint present.")
	} else {
		fmt.Printf("Pause checkpoint from run %s (%s):\n", cp.RunID, cp.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Printf("  Data root:         %s\n", cp.DataRoot)
		fmt.Printf("  Remaining folders: %d\n", len(cp.RemainingFolders))
		fmt.Printf("  Remaining files in current folder: %d\n", len(cp.RemainingFiles))
	}

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil || cfg.SkipDB || cfg.DatabaseURL == "" {
		// Status works without a database; the checkpoint above is the
		// essential part.
		return nil
	}

	db, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := storage.NewLedger(db).RecentImports(10)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No imports recorded.")
		return nil
	}
	fmt.Println("Recent imports:")
	for _, e := range entries {
		fmt.Printf("  %s  %-30s %8d rows  %s\n",
			e.ImportedAt.Format("2006-01-02 15:04"), e.TableName, e.RowCount, e.SourceFile)
	}
	return nil
}
