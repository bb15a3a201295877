package cli

import (
	"github.com/spf13/cobra"
)

// resumeCmd represents the resume command
var resumeCmd = &cobra.Command{
	Use:   "resume <data_root>",
	Short: "Continue an interrupted import from its checkpoint",
	Long: `Resume reads the pause checkpoint a prior interrupted run left behind
and imports exactly the remaining files: first the rest of the folder
that was in progress, then the remaining folders. The checkpoint is
deleted when the resumed run finishes cleanly.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	return runPipeline(args[0], true)
}
