package etl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/TsepisoMotloung/pgdatahub/internal/config"
	"github.com/TsepisoMotloung/pgdatahub/internal/rowsource"
	"github.com/TsepisoMotloung/pgdatahub/internal/storage"
)

// Orchestrator walks the data root, resolves each leaf folder to a target
// table and sheet, and drives the chunk loader file by file. It owns the
// commit boundary (sectional or per-statement), the pause policy, and the
// pause checkpoint.
//
// Execution is strictly sequential: one file at a time, chunks in order.
// Schema reconciliation and the audit tables both rely on that total order.
type Orchestrator struct {
	cfg      *config.Config
	db       *sql.DB // nil in dry-run mode
	progress ProgressReporter
	sleep    func(time.Duration)
}

func NewOrchestrator(cfg *config.Config, db *sql.DB, progress ProgressReporter) *Orchestrator {
	if progress == nil {
		progress = NoOpProgressReporter{}
	}
	return &Orchestrator{
		cfg:      cfg,
		db:       db,
		progress: progress,
		sleep:    time.Sleep,
	}
}

// Run scans the data root and imports every leaf folder.
func (o *Orchestrator) Run(ctx context.Context, dataRoot string) (*Summary, error) {
	folders, err := o.scan(dataRoot)
	if err != nil {
		return nil, err
	}
	return o.process(ctx, dataRoot, folders)
}

// Resume continues from the checkpoint a prior interrupted run left
// behind: first the remaining files of the in-progress folder, then the
// remaining folders.
func (o *Orchestrator) Resume(ctx context.Context, dataRoot string) (*Summary, error) {
	cp, err := LoadCheckpoint(dataRoot)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return nil, fmt.Errorf("no checkpoint found for %s", dataRoot)
	}

	scanned, err := o.scan(dataRoot)
	if err != nil {
		return nil, err
	}
	byRel := make(map[string]Folder, len(scanned))
	for _, f := range scanned {
		byRel[f.RelPath] = f
	}

	var work []Folder
	if len(cp.RemainingFiles) > 0 {
		rel, err := filepath.Rel(dataRoot, filepath.Dir(cp.RemainingFiles[0]))
		if err == nil {
			rel = filepath.ToSlash(rel)
			if f, ok := byRel[rel]; ok {
				// Keep only checkpointed files that still exist on disk.
				keep := intersectFiles(f.Files, cp.RemainingFiles)
				if len(keep) > 0 {
					work = append(work, Folder{RelPath: rel, Files: keep})
				}
			}
		}
	}
	for _, rel := range cp.RemainingFolders {
		if f, ok := byRel[rel]; ok {
			work = append(work, f)
		}
	}

	return o.process(ctx, dataRoot, work)
}

func (o *Orchestrator) scan(dataRoot string) ([]Folder, error) {
	o.progress.OnScanStart(dataRoot)
	scanner, err := NewScanner(dataRoot, o.cfg.Ignore)
	if err != nil {
		return nil, err
	}
	folders, err := scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dataRoot, err)
	}
	total := 0
	for _, f := range folders {
		total += len(f.Files)
	}
	o.progress.OnScanComplete(len(folders), total)
	return folders, nil
}

// binding ties the schema manager and ledger to one commit scope: the bare
// connection, or the current section transaction.
type binding struct {
	dbtx   storage.DBTX
	schema *storage.Manager
	ledger *storage.Ledger
}

func newBinding(dbtx storage.DBTX) *binding {
	if dbtx == nil {
		return &binding{}
	}
	ledger := storage.NewLedger(dbtx)
	return &binding{dbtx: dbtx, schema: storage.NewManager(dbtx, ledger), ledger: ledger}
}

func (o *Orchestrator) process(ctx context.Context, dataRoot string, folders []Folder) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}

	if o.db != nil {
		if err := storage.NewLedger(o.db).EnsureAuditTables(); err != nil {
			return summary, err
		}
	}

	imported := 0

	for fi, folder := range folders {
		o.progress.OnFolderStart(folder.RelPath, len(folder.Files))
		table := folder.TableName(dataRoot)
		sheet := o.cfg.SheetFor(folder.PathParts(dataRoot))

		section, err := o.beginSection()
		if err != nil {
			return summary, err
		}
		bind := newBinding(o.sectionDBTX(section))
		var uncommitted []string

		for i, file := range folder.Files {
			if ctx.Err() != nil {
				o.rollbackSection(section)
				o.writeCheckpoint(summary, dataRoot, append(uncommitted, folder.Files[i:]...), relPaths(folders[fi+1:]))
				return summary, ctx.Err()
			}

			loader := NewLoader(bind.dbtx, bind.schema, bind.ledger, o.cfg.ChunkSize)
			rows, outcome, err := loader.LoadFile(file, table, sheet)
			result := FileResult{Path: file, Table: table, Sheet: sheet, Outcome: outcome, Rows: rows, Err: err}
			summary.add(result)
			o.progress.OnFileDone(result)

			if err != nil {
				stop, stopErr := o.handleFileError(summary, dataRoot, err, section, uncommitted, folder, i, folders, fi)
				if stop {
					return summary, stopErr
				}
				continue
			}

			if section != nil {
				uncommitted = append(uncommitted, file)
			}

			if outcome == OutcomeImported {
				imported++
				hasMore := i < len(folder.Files)-1 || fi < len(folders)-1
				if o.cfg.PauseEvery > 0 && imported%o.cfg.PauseEvery == 0 && hasMore {
					if err := o.commitSection(section); err != nil {
						return summary, err
					}
					uncommitted = nil
					if section, err = o.beginSection(); err != nil {
						return summary, err
					}
					bind = newBinding(o.sectionDBTX(section))

					o.progress.OnPause(o.cfg.PauseSeconds)
					o.sleep(time.Duration(o.cfg.PauseSeconds) * time.Second)
				}
			}
		}

		if err := o.commitSection(section); err != nil {
			return summary, err
		}
	}

	if err := ClearCheckpoint(dataRoot); err != nil {
		log.Printf("Warning: %v", err)
	}
	return summary, nil
}

// handleFileError applies the failure policy. Read errors and per-file
// schema or integrity failures skip to the next file unless sectional
// commit is on, in which case the run stops behind a checkpoint.
// Connection loss is always fatal for the run.
func (o *Orchestrator) handleFileError(summary *Summary, dataRoot string, err error, section *sql.Tx, uncommitted []string, folder Folder, i int, folders []Folder, fi int) (bool, error) {
	var readErr *rowsource.ReadError

	switch {
	case storage.IsConnectionError(err):
		o.rollbackSection(section)
		remaining := append(uncommitted, folder.Files[i:]...)
		o.writeCheckpoint(summary, dataRoot, remaining, relPaths(folders[fi+1:]))
		return true, err

	case errors.As(err, &readErr):
		if !o.cfg.SectionalCommit {
			return false, nil
		}
		// Earlier files in the section are sound; keep their work and
		// stop after the unreadable file.
		if commitErr := o.commitSection(section); commitErr != nil {
			return true, commitErr
		}
		o.writeCheckpoint(summary, dataRoot, folder.Files[i+1:], relPaths(folders[fi+1:]))
		return true, nil

	default:
		if !o.cfg.SectionalCommit {
			return false, nil
		}
		// The section rolls back, taking the failed file's partial rows
		// and any earlier uncommitted files with it; all of them go back
		// on the checkpoint.
		o.rollbackSection(section)
		remaining := append(uncommitted, folder.Files[i:]...)
		o.writeCheckpoint(summary, dataRoot, remaining, relPaths(folders[fi+1:]))
		return true, nil
	}
}

func (o *Orchestrator) writeCheckpoint(summary *Summary, dataRoot string, remainingFiles, remainingFolders []string) {
	cp := &Checkpoint{
		RunID:            summary.RunID,
		DataRoot:         dataRoot,
		RemainingFolders: remainingFolders,
		RemainingFiles:   remainingFiles,
		CreatedAt:        time.Now().UTC(),
	}
	path, err := WriteCheckpoint(cp)
	if err != nil {
		log.Printf("Warning: failed to write checkpoint: %v", err)
		return
	}
	summary.CheckpointWritten = true
	o.progress.OnCheckpoint(path)
}

// beginSection opens the folder transaction in sectional-commit mode.
// Outside that mode (or in dry runs) there is no section.
func (o *Orchestrator) beginSection() (*sql.Tx, error) {
	if o.db == nil || !o.cfg.SectionalCommit {
		return nil, nil
	}
	tx, err := o.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin section transaction: %w", err)
	}
	return tx, nil
}

func (o *Orchestrator) sectionDBTX(section *sql.Tx) storage.DBTX {
	if section != nil {
		return section
	}
	if o.db != nil {
		return o.db
	}
	return nil
}

func (o *Orchestrator) commitSection(section *sql.Tx) error {
	if section == nil {
		return nil
	}
	if err := section.Commit(); err != nil {
		return fmt.Errorf("failed to commit section: %w", err)
	}
	return nil
}

func (o *Orchestrator) rollbackSection(section *sql.Tx) {
	if section == nil {
		return
	}
	if err := section.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Printf("Warning: failed to roll back section: %v", err)
	}
}

func relPaths(folders []Folder) []string {
	out := make([]string, len(folders))
	for i, f := range folders {
		out[i] = f.RelPath
	}
	return out
}

func intersectFiles(scanned, wanted []string) []string {
	want := make(map[string]bool, len(wanted))
	for _, f := range wanted {
		want[f] = true
	}
	var out []string
	for _, f := range scanned {
		if want[f] {
			out = append(out, f)
		}
	}
	return out
}
