package rowsource

import (
	"fmt"
	"io"

	"github.com/extrame/xls"

	"github.com/TsepisoMotloung/pgdatahub/internal/inference"
)

// legacySource reads a sheet of a legacy (.xls, BIFF) workbook. The format
// is not streamable, but rows are still materialized one chunk at a time.
type legacySource struct {
	closer    io.Closer
	sheet     *xls.WorkSheet
	chunkSize int

	header     []string
	headerRead bool
	nextRow    int
	done       bool
}

func openLegacy(path, sheet string, chunkSize int) (Source, error) {
	wb, closer, err := xls.OpenWithCloser(path, "utf-8")
	if err != nil {
		return nil, err
	}

	names := make([]string, wb.NumSheets())
	for i := range names {
		names[i] = wb.GetSheet(i).Name
	}
	name, err := resolveSheet(names, sheet)
	if err != nil {
		closer.Close()
		return nil, err
	}

	var ws *xls.WorkSheet
	for i := 0; i < wb.NumSheets(); i++ {
		if wb.GetSheet(i).Name == name {
			ws = wb.GetSheet(i)
			break
		}
	}
	if ws == nil {
		closer.Close()
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	return &legacySource{closer: closer, sheet: ws, chunkSize: chunkSize}, nil
}

func (s *legacySource) Next() (*Chunk, error) {
	if s.done {
		return nil, io.EOF
	}

	lastRow := int(s.sheet.MaxRow)

	if !s.headerRead {
		if s.sheet.Row(0) == nil {
			s.done = true
			return nil, io.EOF
		}
		s.header = s.rowCells(0, -1)
		s.headerRead = true
		s.nextRow = 1
	}

	out := make([][]inference.Value, 0, s.chunkSize)
	for len(out) < s.chunkSize && s.nextRow <= lastRow {
		cells := s.rowCells(s.nextRow, len(s.header))
		s.nextRow++

		for len(s.header) < len(cells) {
			s.header = append(s.header, fmt.Sprintf("column_%d", len(s.header)+1))
		}

		row := make([]inference.Value, len(cells))
		for i, cell := range cells {
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

// rowCells reads row r as display strings. min pads short rows so data
// rows are at least header-width; pass -1 for no padding.
func (s *legacySource) rowCells(r, min int) []string {
	row := s.sheet.Row(r)
	if row == nil {
		if min < 0 {
			return nil
		}
		return make([]string, min)
	}

	// LastCol is exclusive in the BIFF row record.
	last := row.LastCol()
	width := last
	if width < min {
		width = min
	}
	cells := make([]string, width)
	for c := row.FirstCol(); c < last; c++ {
		cells[c] = row.Col(c)
	}
	return cells
}

func (s *legacySource) Close() error {
	return s.closer.Close()
}
