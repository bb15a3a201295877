package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/TsepisoMotloung/pgdatahub/internal/etl"
)

// CLIProgressReporter renders orchestration events as progress bars and
// log lines.
type CLIProgressReporter struct {
	quiet     bool
	folderBar *progressbar.ProgressBar
}

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{quiet: quiet}
}

func (c *CLIProgressReporter) OnScanStart(dataRoot string) {
	if c.quiet {
		return
	}
	log.Printf("Scanning %s...", dataRoot)
}

func (c *CLIProgressReporter) OnScanComplete(folders, files int) {
	if c.quiet {
		return
	}
	log.Printf("Found %d workbook files in %d leaf folders", files, folders)
}

func (c *CLIProgressReporter) OnFolderStart(folder string, files int) {
	if c.quiet {
		return
	}
	if c.folderBar != nil {
		c.folderBar.Finish()
	}
	c.folderBar = progressbar.NewOptions(files,
		progressbar.OptionSetDescription(fmt.Sprintf("Importing %s", folder)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

func (c *CLIProgressReporter) OnFileDone(result etl.FileResult) {
	if c.quiet {
		return
	}
	if c.folderBar != nil {
		c.folderBar.Add(1)
	}
	if result.Outcome == etl.OutcomeFailed {
		log.Printf("✗ %s: %v", result.Path, result.Err)
	}
}

func (c *CLIProgressReporter) OnPause(seconds int) {
	if c.quiet {
		return
	}
	log.Printf("Pausing %ds before the next file...", seconds)
}

func (c *CLIProgressReporter) OnCheckpoint(path string) {
	// Checkpoints are worth a line even in quiet mode; without one the
	// operator cannot know a resume is needed.
	log.Printf("Checkpoint written to %s — run 'pgdatahub resume' to continue", path)
}
