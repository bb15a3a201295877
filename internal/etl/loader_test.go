package etl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/TsepisoMotloung/pgdatahub/internal/storage"
)

// writeWorkbook builds a real xlsx file for loader tests.
func writeWorkbook(t *testing.T, path, sheet string, rows [][]interface{}) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func salesRows() [][]interface{} {
	return [][]interface{}{
		{"id", "name", "when"},
		{1, "alpha", "2024-01-02"},
		{2, "beta", "2024-01-03"},
		{3, "gamma", "2024-01-04"},
		{4, "delta", "2024-01-05"},
		{5, "epsilon", "2024-01-06"},
	}
}

func TestFileSHA256(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	sum, err := FileSHA256(path)
	require.NoError(t, err)
	// Well-known SHA-256 of "hello".
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", sum)
}

func TestNormalizeColumnsReservesMetadataNames(t *testing.T) {
	got := normalizeColumns([]string{"id", "Source File", "load_timestamp"})
	assert.Equal(t, []string{"id", "source_file_2", "load_timestamp_2"}, got)
}

func TestLoaderDryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q1.xlsx")
	writeWorkbook(t, path, "Data", salesRows())

	loader := NewLoader(nil, nil, nil, 100)
	rows, outcome, err := loader.LoadFile(path, "sales_2024", "Data")
	require.NoError(t, err)
	assert.Equal(t, OutcomeImported, outcome)
	assert.Equal(t, int64(5), rows)
}

func TestLoaderDryRunUnreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("junk"), 0644))

	loader := NewLoader(nil, nil, nil, 100)
	_, outcome, err := loader.LoadFile(path, "t", "Data")
	assert.Error(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
}

// TestLoaderFirstImport walks the full first-import protocol against a
// mocked database: dedup check, table creation with the audit trail,
// reconcile, bulk insert, ledger entry.
func TestLoaderFirstImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q1.xlsx")
	writeWorkbook(t, path, "Data", salesRows())

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ledger := storage.NewLedger(db)
	manager := storage.NewManager(db, ledger)

	// Dedup check: not imported yet.
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM etl_imports`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	// First chunk: table does not exist; created with 3 user columns and
	// the audit trail of 1 create_table + 3 add_column entries.
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM information_schema.tables`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`CREATE TABLE "sales_2024" \("id" INTEGER, "name" TEXT, "when" DATE, "source_file" TEXT NOT NULL, "load_timestamp" TIMESTAMP NOT NULL\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO etl_schema_changes").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO etl_schema_changes").WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("INSERT INTO etl_schema_changes").WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec("INSERT INTO etl_schema_changes").WillReturnResult(sqlmock.NewResult(4, 1))

	// Reconcile introspects the fresh table and finds nothing to change.
	mock.ExpectQuery("SELECT column_name, data_type FROM information_schema.columns").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("id", "integer").
			AddRow("name", "text").
			AddRow("when", "date").
			AddRow("source_file", "text").
			AddRow("load_timestamp", "timestamp without time zone"))

	// One bulk insert for the single chunk, then the ledger entry.
	mock.ExpectExec(`INSERT INTO "sales_2024" \("id", "name", "when", "source_file", "load_timestamp"\)`).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec("INSERT INTO etl_imports").
		WillReturnResult(sqlmock.NewResult(1, 1))

	loader := NewLoader(db, manager, ledger, 100)
	rows, outcome, err := loader.LoadFile(path, "sales_2024", "Data")
	require.NoError(t, err)
	assert.Equal(t, OutcomeImported, outcome)
	assert.Equal(t, int64(5), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderSkipsImportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q1.xlsx")
	writeWorkbook(t, path, "Data", salesRows())

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM etl_imports`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ledger := storage.NewLedger(db)
	loader := NewLoader(db, storage.NewManager(db, ledger), ledger, 100)
	rows, outcome, err := loader.LoadFile(path, "sales_2024", "Data")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Equal(t, int64(0), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
