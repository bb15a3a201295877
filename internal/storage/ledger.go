package storage

import (
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/TsepisoMotloung/pgdatahub/internal/inference"
)

// Schema-change types recorded in etl_schema_changes.
const (
	ChangeCreateTable = "create_table"
	ChangeAddColumn   = "add_column"
	ChangeAlterType   = "alter_type"
)

const createImportsTable = `
CREATE TABLE IF NOT EXISTS etl_imports (
    id BIGSERIAL PRIMARY KEY,
    table_name TEXT NOT NULL,
    source_file TEXT NOT NULL,
    file_sha256 TEXT NOT NULL,
    row_count BIGINT NOT NULL DEFAULT 0,
    imported_at TIMESTAMP NOT NULL DEFAULT now(),
    UNIQUE (table_name, source_file, file_sha256)
)
`

const createSchemaChangesTable = `
CREATE TABLE IF NOT EXISTS etl_schema_changes (
    id BIGSERIAL PRIMARY KEY,
    table_name TEXT NOT NULL,
    change_type TEXT NOT NULL,
    column_name TEXT,
    old_type TEXT,
    new_type TEXT,
    source_file TEXT,
    changed_at TIMESTAMP NOT NULL DEFAULT now()
)
`

// ImportEntry is one row of etl_imports.
type ImportEntry struct {
	ID         int64
	TableName  string
	SourceFile string
	FileSHA256 string
	RowCount   int64
	ImportedAt time.Time
}

// Ledger owns the two audit tables. It answers "is this file already
// imported?", records completed imports and schema changes, and performs
// the revert operations.
type Ledger struct {
	db DBTX
}

func NewLedger(db DBTX) *Ledger {
	return &Ledger{db: db}
}

// EnsureAuditTables creates etl_imports and etl_schema_changes if absent.
func (l *Ledger) EnsureAuditTables() error {
	if _, err := l.db.Exec(createImportsTable); err != nil {
		return fmt.Errorf("failed to create etl_imports: %w", err)
	}
	if _, err := l.db.Exec(createSchemaChangesTable); err != nil {
		return fmt.Errorf("failed to create etl_schema_changes: %w", err)
	}
	return nil
}

// IsImported reports whether (table, sourceFile, fingerprint) already has a
// ledger entry. Presence means done: do not reimport.
func (l *Ledger) IsImported(table, sourceFile, fingerprint string) (bool, error) {
	var n int
	err := l.db.QueryRow(
		`SELECT COUNT(*) FROM etl_imports WHERE table_name = $1 AND source_file = $2 AND file_sha256 = $3`,
		table, sourceFile, fingerprint,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query etl_imports: %w", err)
	}
	return n > 0, nil
}

// RecordImport appends the import ledger entry for a fully loaded file.
// The uniqueness constraint rejects duplicates.
func (l *Ledger) RecordImport(table, sourceFile, fingerprint string, rowCount int64, importedAt time.Time) error {
	_, err := l.db.Exec(
		`INSERT INTO etl_imports (table_name, source_file, file_sha256, row_count, imported_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		table, sourceFile, fingerprint, rowCount, importedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record import of %s: %w", sourceFile, err)
	}
	return nil
}

// RecordSchemaChange appends one etl_schema_changes entry.
func (l *Ledger) RecordSchemaChange(table, changeType, column string, oldType, newType inference.SQLType, sourceFile string) error {
	_, err := l.db.Exec(
		`INSERT INTO etl_schema_changes (table_name, change_type, column_name, old_type, new_type, source_file)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)`,
		table, changeType, column, string(oldType), string(newType), sourceFile,
	)
	if err != nil {
		return fmt.Errorf("failed to record schema change on %s: %w", table, err)
	}
	return nil
}

// RecentImports returns the newest ledger entries, most recent first.
func (l *Ledger) RecentImports(limit int) ([]ImportEntry, error) {
	rows, err := l.db.Query(
		`SELECT id, table_name, source_file, file_sha256, row_count, imported_at
		 FROM etl_imports ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query etl_imports: %w", err)
	}
	defer rows.Close()

	var out []ImportEntry
	for rows.Next() {
		var e ImportEntry
		if err := rows.Scan(&e.ID, &e.TableName, &e.SourceFile, &e.FileSHA256, &e.RowCount, &e.ImportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan etl_imports row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RevertByFingerprint deletes the rows that the file with the given content
// hash produced in the target table, then removes the ledger entry. Rows
// are selected by the source_file metadata column of the matching entries.
func (l *Ledger) RevertByFingerprint(table, fingerprint string) (int64, error) {
	rows, err := l.db.Query(
		`SELECT source_file FROM etl_imports WHERE table_name = $1 AND file_sha256 = $2`,
		table, fingerprint)
	if err != nil {
		return 0, fmt.Errorf("failed to look up fingerprint %s: %w", fingerprint, err)
	}
	var sources []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			rows.Close()
			return 0, err
		}
		sources = append(sources, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(sources) == 0 {
		return 0, fmt.Errorf("no import of fingerprint %s into %s found", fingerprint, table)
	}

	deleted, err := l.deleteTargetRows(table, sources)
	if err != nil {
		return 0, err
	}
	if _, err := l.db.Exec(
		`DELETE FROM etl_imports WHERE table_name = $1 AND file_sha256 = $2`,
		table, fingerprint); err != nil {
		return deleted, fmt.Errorf("failed to delete ledger entry: %w", err)
	}
	return deleted, nil
}

// RevertBySourceFile deletes the rows a source file produced in the target
// table, then removes the ledger entries for that file.
func (l *Ledger) RevertBySourceFile(table, sourceFile string) (int64, error) {
	deleted, err := l.deleteTargetRows(table, []string{sourceFile})
	if err != nil {
		return 0, err
	}
	if _, err := l.db.Exec(
		`DELETE FROM etl_imports WHERE table_name = $1 AND source_file = $2`,
		table, sourceFile); err != nil {
		return deleted, fmt.Errorf("failed to delete ledger entry: %w", err)
	}
	return deleted, nil
}

func (l *Ledger) deleteTargetRows(table string, sources []string) (int64, error) {
	res, err := l.db.Exec(
		fmt.Sprintf(`DELETE FROM %s WHERE source_file = ANY($1)`, pq.QuoteIdentifier(table)),
		pq.Array(sources))
	if err != nil {
		return 0, fmt.Errorf("failed to delete rows from %s: %w", table, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// RevertAction is one step of a schema revert plan.
type RevertAction struct {
	ChangeID   int64
	ChangeType string
	Column     string
	OldType    string
	NewType    string
	Statement  string // empty when the change is not invertible
	Note       string
}

// RevertSchemaChanges walks the schema changes a source file caused on a
// table in reverse chronological order. add_column entries are undone with
// DROP COLUMN; alter_type and create_table are not invertible and are only
// reported. With dryRun the plan is returned without executing. The ledger
// itself is append-only: executed reverts do not erase history, so undone
// columns use DROP COLUMN IF EXISTS to keep replays harmless.
func (l *Ledger) RevertSchemaChanges(table, sourceFile string, dryRun bool) ([]RevertAction, error) {
	rows, err := l.db.Query(
		`SELECT id, change_type, COALESCE(column_name, ''), COALESCE(old_type, ''), COALESCE(new_type, '')
		 FROM etl_schema_changes
		 WHERE table_name = $1 AND source_file = $2
		 ORDER BY id DESC`,
		table, sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to query etl_schema_changes: %w", err)
	}
	defer rows.Close()

	var plan []RevertAction
	for rows.Next() {
		var a RevertAction
		if err := rows.Scan(&a.ChangeID, &a.ChangeType, &a.Column, &a.OldType, &a.NewType); err != nil {
			return nil, fmt.Errorf("failed to scan etl_schema_changes row: %w", err)
		}
		switch a.ChangeType {
		case ChangeAddColumn:
			a.Statement = fmt.Sprintf("ALTER TABLE %s DROP COLUMN IF EXISTS %s",
				pq.QuoteIdentifier(table), pq.QuoteIdentifier(a.Column))
		case ChangeAlterType:
			a.Note = fmt.Sprintf("alter_type %s -> %s is not invertible; left in place", a.OldType, a.NewType)
		case ChangeCreateTable:
			a.Note = "create_table is not invertible; table left in place"
		}
		plan = append(plan, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if dryRun {
		return plan, nil
	}
	for _, a := range plan {
		if a.Statement == "" {
			continue
		}
		if _, err := l.db.Exec(a.Statement); err != nil {
			return plan, &SchemaError{Table: table, Column: a.Column, Err: err}
		}
	}
	return plan, nil
}
