package rowsource

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/TsepisoMotloung/pgdatahub/internal/inference"
)

// excelSource streams a sheet of a modern (xlsx/xlsm) workbook through
// excelize's row iterator, so memory stays bounded by one chunk.
type excelSource struct {
	file      *excelize.File
	rows      *excelize.Rows
	chunkSize int

	header     []string
	headerRead bool
	done       bool
}

func openExcel(path, sheet string, chunkSize int) (Source, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}

	name, err := resolveSheet(f.GetSheetList(), sheet)
	if err != nil {
		f.Close()
		return nil, err
	}

	rows, err := f.Rows(name)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &excelSource{file: f, rows: rows, chunkSize: chunkSize}, nil
}

func (s *excelSource) Next() (*Chunk, error) {
	if s.done {
		return nil, io.EOF
	}

	if !s.headerRead {
		if !s.rows.Next() {
			s.done = true
			return nil, io.EOF
		}
		header, err := s.rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read header row: %w", err)
		}
		s.header = header
		s.headerRead = true
	}

	out := make([][]inference.Value, 0, s.chunkSize)
	for len(out) < s.chunkSize && s.rows.Next() {
		raw, err := s.rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		// Cells beyond the header get generated column names; the new
		// columns appear from this chunk onward.
		for len(s.header) < len(raw) {
			s.header = append(s.header, fmt.Sprintf("column_%d", len(s.header)+1))
		}

		row := make([]inference.Value, len(raw))
		for i, cell := range raw {
			row[i] = parseCell(cell)
		}
		out = append(out, row)
	}

	if len(out) == 0 {
		s.done = true
		return nil, io.EOF
	}

	return newChunk(s.header, out), nil
}

func (s *excelSource) Close() error {
	if s.rows != nil {
		s.rows.Close()
	}
	return s.file.Close()
}

// newChunk pads every row to the final column count so the chunk's column
// set is homogeneous even when columns appeared mid-chunk.
func newChunk(header []string, rows [][]inference.Value) *Chunk {
	cols := append([]string(nil), header...)
	for i, row := range rows {
		for len(row) < len(cols) {
			row = append(row, inference.Null())
		}
		rows[i] = row
	}
	return &Chunk{Columns: cols, Rows: rows}
}

// resolveSheet matches the requested sheet name case-insensitively. An
// empty request selects the first sheet; a named sheet that is absent is
// an error rather than a silent substitution.
func resolveSheet(sheets []string, want string) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if want == "" {
		return sheets[0], nil
	}
	for _, name := range sheets {
		if strings.EqualFold(name, want) {
			return name, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found (have %s)", want, strings.Join(sheets, ", "))
}
