package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TsepisoMotloung/pgdatahub/internal/config"
	"github.com/TsepisoMotloung/pgdatahub/internal/etl"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <data_root>",
	Short: "Import spreadsheets as they appear under the data root",
	Long: `Watch monitors the data root and imports new or changed workbook files
through the same per-file pipeline as a batch run: dedup check, schema
reconciliation, audit ledger. Useful behind an upload drop directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Println("\nStopping watch...")
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
	if err := orch.Watch(ctx, args[0]); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
