package storage

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/TsepisoMotloung/pgdatahub/internal/inference"
)

// Engine-managed metadata columns present on every target table.
const (
	ColSourceFile    = "source_file"
	ColLoadTimestamp = "load_timestamp"
)

// Column pairs a normalized identifier with its inferred SQL type.
type Column struct {
	Name string
	Type inference.SQLType
}

// Manager owns all DDL against target tables: creation, added columns, and
// type widening. Every change is logged to the schema-change ledger.
//
// The column cache mirrors the live catalog between reconciliations and is
// invalidated whenever a reconcile touches the table.
type Manager struct {
	db     DBTX
	ledger *Ledger
	cache  map[string]map[string]inference.SQLType
}

func NewManager(db DBTX, ledger *Ledger) *Manager {
	return &Manager{
		db:     db,
		ledger: ledger,
		cache:  make(map[string]map[string]inference.SQLType),
	}
}

// tableExists checks the live catalog for the table in the current schema.
func (m *Manager) tableExists(table string) (bool, error) {
	var n int
	err := m.db.QueryRow(
		`SELECT COUNT(*) FROM information_schema.tables
		 WHERE table_schema = current_schema() AND table_name = $1`, table,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check existence of %s: %w", table, err)
	}
	return n > 0, nil
}

// EnsureTable creates the target table with the given user columns plus the
// two metadata columns if it does not exist yet, logging a create_table
// entry and one add_column entry per user column. Existing tables are left
// untouched.
func (m *Manager) EnsureTable(table string, columns []Column, sourceFile string) error {
	exists, err := m.tableExists(table)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	defs := make([]string, 0, len(columns)+2)
	for _, c := range columns {
		defs = append(defs, fmt.Sprintf("%s %s", pq.QuoteIdentifier(c.Name), c.Type))
	}
	defs = append(defs,
		fmt.Sprintf("%s TEXT NOT NULL", pq.QuoteIdentifier(ColSourceFile)),
		fmt.Sprintf("%s TIMESTAMP NOT NULL", pq.QuoteIdentifier(ColLoadTimestamp)),
	)

	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", pq.QuoteIdentifier(table), strings.Join(defs, ", "))
	if _, err := m.db.Exec(ddl); err != nil {
		return &SchemaError{Table: table, Err: err}
	}

	if err := m.ledger.RecordSchemaChange(table, ChangeCreateTable, "", "", "", sourceFile); err != nil {
		return err
	}
	for _, c := range columns {
		if err := m.ledger.RecordSchemaChange(table, ChangeAddColumn, c.Name, "", c.Type, sourceFile); err != nil {
			return err
		}
	}

	delete(m.cache, table)
	return nil
}

// Reconcile aligns the table's live column set with an incoming chunk
// schema using only safe widenings: missing columns are added, and columns
// whose inferred type is wider than the live one are altered to the join of
// the two along the ladder. Lateral moves never happen; incompatible pairs
// join at TEXT.
//
// The returned map holds the post-reconcile type of every column in the
// chunk, so the loader can render values for columns that have widened.
func (m *Manager) Reconcile(table string, columns []Column, sourceFile string) (map[string]inference.SQLType, error) {
	live, err := m.liveColumns(table)
	if err != nil {
		return nil, err
	}

	changed := false
	resolved := make(map[string]inference.SQLType, len(columns))

	for _, c := range columns {
		existing, ok := live[c.Name]
		if !ok {
			ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
				pq.QuoteIdentifier(table), pq.QuoteIdentifier(c.Name), c.Type)
			if _, err := m.db.Exec(ddl); err != nil {
				return nil, &SchemaError{Table: table, Column: c.Name, Err: err}
			}
			if err := m.ledger.RecordSchemaChange(table, ChangeAddColumn, c.Name, "", c.Type, sourceFile); err != nil {
				return nil, err
			}
			live[c.Name] = c.Type
			resolved[c.Name] = c.Type
			changed = true
			continue
		}

		joined := inference.Widen(existing, c.Type)
		if joined == existing {
			resolved[c.Name] = existing
			continue
		}

		ddl := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::%s",
			pq.QuoteIdentifier(table), pq.QuoteIdentifier(c.Name), joined,
			pq.QuoteIdentifier(c.Name), castTarget(joined))
		if _, err := m.db.Exec(ddl); err != nil {
			return nil, &SchemaError{Table: table, Column: c.Name, Err: err}
		}
		if err := m.ledger.RecordSchemaChange(table, ChangeAlterType, c.Name, existing, joined, sourceFile); err != nil {
			return nil, err
		}
		live[c.Name] = joined
		resolved[c.Name] = joined
		changed = true
	}

	if changed {
		// The cache mirrors the catalog only between reconciles.
		delete(m.cache, table)
	} else {
		m.cache[table] = live
	}
	return resolved, nil
}

// Introspect returns the current column -> type mapping straight from the
// live catalog, never from the cache.
func (m *Manager) Introspect(table string) (map[string]inference.SQLType, error) {
	rows, err := m.db.Query(
		`SELECT column_name, data_type FROM information_schema.columns
		 WHERE table_schema = current_schema() AND table_name = $1`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]inference.SQLType)
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		cols[name] = inference.ParseCatalogType(dataType)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cols, nil
}

func (m *Manager) liveColumns(table string) (map[string]inference.SQLType, error) {
	if cached, ok := m.cache[table]; ok {
		cols := make(map[string]inference.SQLType, len(cached))
		for k, v := range cached {
			cols[k] = v
		}
		return cols, nil
	}
	return m.Introspect(table)
}

// castTarget is the cast expression type used in ALTER COLUMN ... USING.
// Widening to TEXT always uses an explicit ::text; other widenings cast to
// the new type directly.
func castTarget(t inference.SQLType) string {
	if t == inference.TypeText {
		return "text"
	}
	return strings.ToLower(string(t))
}
