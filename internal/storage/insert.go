package storage

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Postgres caps a single statement at 65535 bind parameters. Chunks whose
// row*column product exceeds the cap are split into sub-batches; each batch
// is still one statement.
const maxBindParams = 65535

// InsertRows bulk-inserts rows into table using a multi-row parameterized
// VALUES statement. Row value order must match columns. Constraint
// rejections come back as *IntegrityError.
func InsertRows(db DBTX, table string, columns []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	if len(columns) == 0 {
		return fmt.Errorf("insert into %s: no columns", table)
	}

	rowsPerBatch := maxBindParams / len(columns)
	if rowsPerBatch < 1 {
		rowsPerBatch = 1
	}

	for start := 0; start < len(rows); start += rowsPerBatch {
		end := start + rowsPerBatch
		if end > len(rows) {
			end = len(rows)
		}
		if err := insertBatch(db, table, columns, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func insertBatch(db DBTX, table string, columns []string, rows [][]interface{}) error {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pq.QuoteIdentifier(c)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(pq.QuoteIdentifier(table))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(") VALUES ")

	args := make([]interface{}, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("insert into %s: row %d has %d values, want %d", table, i, len(row), len(columns))
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", p)
			p++
			args = append(args, v)
		}
		sb.WriteByte(')')
	}

	if _, err := db.Exec(sb.String(), args...); err != nil {
		if isConstraintViolation(err) {
			return &IntegrityError{Table: table, Err: err}
		}
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}
