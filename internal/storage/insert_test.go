package storage

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO "sales_2024" \("id", "name"\) VALUES \(\$1, \$2\), \(\$3, \$4\)`).
		WithArgs(int64(1), "alpha", int64(2), "beta").
		WillReturnResult(sqlmock.NewResult(0, 2))

	err = InsertRows(db, "sales_2024", []string{"id", "name"}, [][]interface{}{
		{int64(1), "alpha"},
		{int64(2), "beta"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRowsEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, InsertRows(db, "sales_2024", []string{"id"}, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRowsSplitsLargeBatches(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// 10 columns -> 6553 rows per statement; 7000 rows need two.
	cols := make([]string, 10)
	for i := range cols {
		cols[i] = string(rune('a' + i))
	}
	rows := make([][]interface{}, 7000)
	for i := range rows {
		rows[i] = make([]interface{}, 10)
	}

	mock.ExpectExec(`INSERT INTO "t"`).WillReturnResult(sqlmock.NewResult(0, 6553))
	mock.ExpectExec(`INSERT INTO "t"`).WillReturnResult(sqlmock.NewResult(0, 447))

	require.NoError(t, InsertRows(db, "t", cols, rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRowsMismatchedWidth(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	err = InsertRows(db, "t", []string{"a", "b"}, [][]interface{}{{1}})
	assert.Error(t, err)
}

func TestInsertRowsConstraintViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO "t"`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key"})

	err = InsertRows(db, "t", []string{"a"}, [][]interface{}{{1}})
	var integrityErr *IntegrityError
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, "t", integrityErr.Table)
}
