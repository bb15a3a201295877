// Package rowsource reads named sheets of spreadsheet workbooks as a lazy
// sequence of fixed-size row chunks. A modern (xlsx) reader is attempted
// first; on failure a legacy (xls) reader takes over, because observed
// spreadsheets frequently carry the wrong extension. Sources are finite and
// non-restartable: re-reading a file requires reopening it.
package rowsource

import (
	"fmt"

	"github.com/TsepisoMotloung/pgdatahub/internal/inference"
)

// DefaultChunkSize is the number of rows per chunk when none is configured.
const DefaultChunkSize = 10000

// Chunk is an ordered batch of rows with a homogeneous column set. Later
// chunks of the same file may present additional columns; rows from chunks
// that lacked a column are treated as null for it.
type Chunk struct {
	Columns []string
	Rows    [][]inference.Value
}

// Source is a pull-based chunk iterator. Next returns io.EOF after the last
// chunk. Close releases the underlying file handle and is safe to call
// after Next has returned io.EOF.
type Source interface {
	Next() (*Chunk, error)
	Close() error
}

// ReadError reports that a workbook could not be opened by either reader.
// Both underlying causes are carried so operators can tell a corrupt file
// from a mislabeled one.
type ReadError struct {
	Path   string
	Modern error
	Legacy error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("unreadable workbook %s: xlsx reader: %v; xls reader: %v", e.Path, e.Modern, e.Legacy)
}

// Open opens the named sheet of the workbook at path, producing chunks of
// up to chunkSize rows. An empty sheet name selects the workbook's first
// sheet. If both readers fail, the returned error is a *ReadError.
func Open(path, sheet string, chunkSize int) (Source, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	src, modernErr := openExcel(path, sheet, chunkSize)
	if modernErr == nil {
		return src, nil
	}

	src, legacyErr := openLegacy(path, sheet, chunkSize)
	if legacyErr == nil {
		return src, nil
	}

	return nil, &ReadError{Path: path, Modern: modernErr, Legacy: legacyErr}
}
