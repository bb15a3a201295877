package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	quiet   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pgdatahub",
	Short: "Ingest spreadsheet trees into Postgres",
	Long: `pgdatahub imports directory trees of spreadsheet files into Postgres,
one table per leaf folder.

Imports are idempotent (a file's content hash is checked against the
import ledger), resumable (interrupted runs leave a checkpoint), and
target tables evolve in place as new columns or wider value types
appear. Every imported file and every schema change is recorded in the
etl_imports and etl_schema_changes audit tables.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./pgdatahub.yml)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "disable progress bars and non-error output")
}
