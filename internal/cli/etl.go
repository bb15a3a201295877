package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TsepisoMotloung/pgdatahub/internal/config"
	"github.com/TsepisoMotloung/pgdatahub/internal/etl"
	"github.com/TsepisoMotloung/pgdatahub/internal/storage"
)

// etlCmd represents the etl command
var etlCmd = &cobra.Command{
	Use:   "etl <data_root>",
	Short: "Import a directory tree of spreadsheets",
	Long: `Etl walks the data root for spreadsheet files, groups them by leaf
folder, and imports each file into the folder's target table.

Files already recorded in the import ledger are skipped, so re-running
over the same tree never duplicates rows.

Examples:
  # Import a tree
  pgdatahub etl /srv/data

  # Import, pausing 30s after every 10 files
  ETL_PAUSE_EVERY=10 pgdatahub etl /srv/data

  # Dry run: read and infer everything, write nothing
  SKIP_DB=1 pgdatahub etl /srv/data
`,
	Args: cobra.ExactArgs(1),
	RunE: runEtl,
}

func init() {
	rootCmd.AddCommand(etlCmd)
}

func runEtl(cmd *cobra.Command, args []string) error {
	return runPipeline(args[0], false)
}

// runPipeline is shared by etl and resume: load config, open the
// database, drive the orchestrator, print the summary.
func runPipeline(dataRoot string, resume bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl+C cancels cooperatively: the in-flight file completes, then a
	// checkpoint is written.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted! Finishing the current file...")
		cancel()
	}()

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	orch := etl.NewOrchestrator(cfg, db, NewCLIProgressReporter(quiet))

	var summary *etl.Summary
	if resume {
		summary, err = orch.Resume(ctx, dataRoot)
	} else {
		summary, err = orch.Run(ctx, dataRoot)
	}
	if summary != nil {
		printSummary(summary)
	}
	if err != nil {
		return err
	}
	if summary.CheckpointWritten {
		// A checkpoint means the run did not finish; exit non-zero.
		return fmt.Errorf("run stopped with a checkpoint; resume with 'pgdatahub resume %s'", dataRoot)
	}
	return nil
}

// openDatabase connects unless the run is a dry run. The DSN is only ever
// logged in masked form.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	if cfg.SkipDB {
		log.Println("SKIP_DB=1: dry run, no database writes")
		return nil, nil
	}
	if !quiet {
		log.Printf("Connecting to %s...", storage.MaskDSN(cfg.DatabaseURL))
	}
	db, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func printSummary(s *etl.Summary) {
	fmt.Printf("\nRun %s:\n", s.RunID)
	fmt.Printf("  Imported: %d files (%d rows)\n", s.Imported, s.Rows)
	fmt.Printf("  Skipped:  %d files\n", s.Skipped)
	fmt.Printf("  Failed:   %d files\n", s.Failed)
	for _, r := range s.Results {
		if r.Outcome == etl.OutcomeFailed {
			fmt.Printf("    ✗ %s: %v\n", r.Path, r.Err)
		}
	}
}
