package rowsource

import (
	"strconv"
	"strings"
	"time"

	"github.com/TsepisoMotloung/pgdatahub/internal/inference"
)

// Spreadsheet readers surface cells as display strings; parseCell folds
// them into the closed value set the loader works with. Order matters:
// booleans before integers before floats before temporals, text last.
func parseCell(raw string) inference.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return inference.Null()
	}

	// Empty-temporal sentinels must reach the database as null, never as
	// literal strings.
	switch strings.ToLower(s) {
	case "nat", "nan", "null", "none", "n/a", "#n/a":
		return inference.Null()
	}

	switch strings.ToLower(s) {
	case "true":
		return inference.Bool(true)
	case "false":
		return inference.Bool(false)
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return inference.Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return inference.Float(f)
	}
	if t, ok := parseTemporal(s); ok {
		return inference.Temporal(t)
	}
	return inference.Text(raw)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
	"02.01.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"01/02/2006 15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04",
	"1/2/06 15:04",
}

func parseTemporal(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
