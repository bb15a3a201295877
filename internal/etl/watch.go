package etl

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/TsepisoMotloung/pgdatahub/internal/storage"
)

// debounceDelay batches the burst of write events a spreadsheet save
// produces into a single import attempt.
const debounceDelay = 2 * time.Second

// ImportFile runs the per-file pipeline for a single workbook under the
// data root, resolving its folder to the target table and sheet the same
// way a full run would.
func (o *Orchestrator) ImportFile(ctx context.Context, dataRoot, path string) (FileResult, error) {
	rel, err := filepath.Rel(dataRoot, filepath.Dir(path))
	if err != nil {
		return FileResult{}, fmt.Errorf("%s is not under %s: %w", path, dataRoot, err)
	}
	folder := Folder{RelPath: filepath.ToSlash(rel), Files: []string{path}}
	table := folder.TableName(dataRoot)
	sheet := o.cfg.SheetFor(folder.PathParts(dataRoot))

	if o.db != nil {
		if err := storage.NewLedger(o.db).EnsureAuditTables(); err != nil {
			return FileResult{}, err
		}
	}

	bind := newBinding(o.sectionDBTX(nil))
	loader := NewLoader(bind.dbtx, bind.schema, bind.ledger, o.cfg.ChunkSize)
	rows, outcome, err := loader.LoadFile(path, table, sheet)
	result := FileResult{Path: path, Table: table, Sheet: sheet, Outcome: outcome, Rows: rows, Err: err}
	o.progress.OnFileDone(result)
	return result, err
}

// Watch imports new and changed workbooks under the data root as they
// appear, feeding the same per-file pipeline as a batch run. It blocks
// until ctx is cancelled.
func (o *Orchestrator) Watch(ctx context.Context, dataRoot string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, dataRoot); err != nil {
		return err
	}

	var mu sync.Mutex
	timers := make(map[string]*time.Timer)
	// Debounce timers fire on their own goroutines; importMu keeps imports
	// strictly one file at a time.
	var importMu sync.Mutex

	importLater := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := timers[path]; ok {
			t.Stop()
		}
		timers[path] = time.AfterFunc(debounceDelay, func() {
			mu.Lock()
			delete(timers, path)
			mu.Unlock()

			importMu.Lock()
			defer importMu.Unlock()
			if _, err := o.ImportFile(ctx, dataRoot, path); err != nil {
				log.Printf("Watch: import of %s failed: %v", path, err)
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				// New subdirectories join the watch so their files are seen.
				if err := addWatchDirs(watcher, event.Name); err != nil {
					log.Printf("Watch: failed to watch %s: %v", event.Name, err)
				}
				continue
			}
			if IsWorkbook(event.Name) {
				importLater(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watch: %v", err)
		}
	}
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && len(filepath.Base(path)) > 0 && filepath.Base(path)[0] == '.' {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
