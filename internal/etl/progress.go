package etl

// ProgressReporter receives orchestration events. Implementations must not
// block; the CLI implementation renders progress bars, tests use the no-op.
type ProgressReporter interface {
	OnScanStart(dataRoot string)
	OnScanComplete(folders, files int)
	OnFolderStart(folder string, files int)
	OnFileDone(result FileResult)
	OnPause(seconds int)
	OnCheckpoint(path string)
}

// NoOpProgressReporter ignores all events.
type NoOpProgressReporter struct{}

func (NoOpProgressReporter) OnScanStart(string)        {}
func (NoOpProgressReporter) OnScanComplete(int, int)   {}
func (NoOpProgressReporter) OnFolderStart(string, int) {}
func (NoOpProgressReporter) OnFileDone(FileResult)     {}
func (NoOpProgressReporter) OnPause(int)               {}
func (NoOpProgressReporter) OnCheckpoint(string)       {}
