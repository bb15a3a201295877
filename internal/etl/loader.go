package etl

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/TsepisoMotloung/pgdatahub/internal/identifier"
	"github.com/TsepisoMotloung/pgdatahub/internal/inference"
	"github.com/TsepisoMotloung/pgdatahub/internal/rowsource"
	"github.com/TsepisoMotloung/pgdatahub/internal/storage"
)

// Loader imports one workbook file into its target table, chunk by chunk:
// fingerprint and dedup check, then per chunk normalize column names,
// infer types, reconcile the table schema, and bulk-insert.
//
// A nil db makes the loader a dry run: every computation happens, every
// database call is skipped.
type Loader struct {
	db        storage.DBTX
	schema    *storage.Manager
	ledger    *storage.Ledger
	chunkSize int
	now       func() time.Time
}

func NewLoader(db storage.DBTX, schema *storage.Manager, ledger *storage.Ledger, chunkSize int) *Loader {
	return &Loader{
		db:        db,
		schema:    schema,
		ledger:    ledger,
		chunkSize: chunkSize,
		now:       time.Now,
	}
}

// FileSHA256 computes the hex content fingerprint of the file at path.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// LoadFile imports the named sheet of the workbook at path into table.
// Returns the number of rows inserted and the file outcome. The import
// ledger entry is written only after the last chunk succeeds, so a failed
// or interrupted file is seen as un-imported by the next run.
func (l *Loader) LoadFile(path, table, sheet string) (int64, Outcome, error) {
	fingerprint, err := FileSHA256(path)
	if err != nil {
		return 0, OutcomeFailed, err
	}

	if l.db != nil {
		done, err := l.ledger.IsImported(table, path, fingerprint)
		if err != nil {
			return 0, OutcomeFailed, err
		}
		if done {
			return 0, OutcomeSkipped, nil
		}
	}

	src, err := rowsource.Open(path, sheet, l.chunkSize)
	if err != nil {
		return 0, OutcomeFailed, err
	}
	defer src.Close()

	// One load timestamp for every chunk of the file.
	loadedAt := l.now().UTC()

	var total int64
	first := true
	for {
		chunk, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, OutcomeFailed, err
		}

		n, err := l.loadChunk(table, path, loadedAt, chunk, first)
		if err != nil {
			return total, OutcomeFailed, err
		}
		total += n
		first = false
	}

	if l.db != nil {
		if err := l.ledger.RecordImport(table, path, fingerprint, total, loadedAt); err != nil {
			return total, OutcomeFailed, err
		}
	}
	return total, OutcomeImported, nil
}

func (l *Loader) loadChunk(table, path string, loadedAt time.Time, chunk *rowsource.Chunk, first bool) (int64, error) {
	names := normalizeColumns(chunk.Columns)

	cols := make([]storage.Column, len(names))
	for i, name := range names {
		cols[i] = storage.Column{Name: name, Type: inferColumn(chunk, i)}
	}

	resolved := make(map[string]inference.SQLType, len(cols))
	if l.db == nil {
		for _, c := range cols {
			resolved[c.Name] = c.Type
		}
	} else {
		if first {
			if err := l.schema.EnsureTable(table, cols, path); err != nil {
				return 0, err
			}
		}
		var err error
		resolved, err = l.schema.Reconcile(table, cols, path)
		if err != nil {
			return 0, err
		}
	}

	insertCols := append(append([]string{}, names...), storage.ColSourceFile, storage.ColLoadTimestamp)
	rows := make([][]interface{}, len(chunk.Rows))
	for r, row := range chunk.Rows {
		vals := make([]interface{}, 0, len(row)+2)
		for i, v := range row {
			vals = append(vals, adaptValue(v, resolved[names[i]]))
		}
		vals = append(vals, path, loadedAt)
		rows[r] = vals
	}

	if l.db != nil {
		if err := storage.InsertRows(l.db, table, insertCols, rows); err != nil {
			return 0, err
		}
	}
	return int64(len(rows)), nil
}

// normalizeColumns converts raw header names into unique SQL identifiers.
// The metadata column names are reserved, so a user column that collides
// with them gets suffixed instead of clobbering engine data.
func normalizeColumns(names []string) []string {
	reserved := []string{storage.ColSourceFile, storage.ColLoadTimestamp}
	deduped := identifier.Dedupe(append(append([]string{}, reserved...), names...))
	return deduped[len(reserved):]
}

func inferColumn(chunk *rowsource.Chunk, idx int) inference.SQLType {
	column := make([]inference.Value, len(chunk.Rows))
	for r, row := range chunk.Rows {
		column[r] = row[idx]
	}
	return inference.InferColumn(column)
}

// adaptValue renders a cell for its reconciled column type. Columns that
// have widened to TEXT receive every value as a string; everything else
// passes through in its native driver form.
func adaptValue(v inference.Value, colType inference.SQLType) interface{} {
	if v.IsNull() {
		return nil
	}
	if colType == inference.TypeText && v.Kind() != inference.KindText {
		return v.String()
	}
	return v.SQL()
}
