package state

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteStoreWithDB(db, nil), mock
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)

	tests := []struct {
		name string
		call func() error
	}{
		{"migrate", store.Migrate},
		{"create run", func() error { _, err := store.CreateRun("/p"); return err }},
		{"complete run", func() error { return store.CompleteRun("id", RunStatusPassed, RunTotals{}, "") }},
		{"get run", func() error { _, err := store.GetRun("id"); return err }},
		{"list runs", func() error { _, err := store.ListRuns(1); return err }},
		{"record file", func() error { return store.RecordFile(&FileResult{}) }},
		{"record files", func() error { return store.RecordFiles([]*FileResult{{}}) }},
		{"file results", func() error { _, err := store.GetFileResults("id"); return err }},
		{"clean hashes", func() error { _, err := store.CleanHashes(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.call(), "database not opened")
		})
	}
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_CreateRunError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO runs").WillReturnError(assert.AnError)

	_, err := store.CreateRun("/p")

	assert.ErrorIs(t, err, assert.AnError)
	assert.ErrorContains(t, err, "failed to create run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_GetRunQueryError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("FROM runs WHERE id").WithArgs("r1").WillReturnError(assert.AnError)

	_, err := store.GetRun("r1")

	assert.ErrorContains(t, err, "failed to get run")
	assert.NotErrorIs(t, err, ErrRunNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ListRunsScan(t *testing.T) {
	store, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"id", "root", "status", "started_at", "completed_at", "files", "tokens", "errors", "error"}).
		AddRow("r2", "/p", "passed", int64(2_000_000_000), int64(3_000_000_000), 2, 10, 0, nil).
		AddRow("r1", "/p", "running", int64(1_000_000_000), nil, 0, 0, 0, nil)
	mock.ExpectQuery("FROM runs ORDER BY started_at DESC").WithArgs(-1).WillReturnRows(rows)

	runs, err := store.ListRuns(0)

	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, RunStatusPassed, runs[0].Status)
	assert.Equal(t, int64(2), runs[0].StartedAt.Unix())
	require.NotNil(t, runs[0].CompletedAt)
	assert.Equal(t, "1s", runs[0].Duration().String())
	assert.Nil(t, runs[1].CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ListRunsRowError(t *testing.T) {
	store, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"id", "root", "status", "started_at", "completed_at", "files", "tokens", "errors", "error"}).
		AddRow("r1", "/p", "passed", int64(1), nil, 0, 0, 0, nil).
		RowError(0, assert.AnError)
	mock.ExpectQuery("FROM runs").WillReturnRows(rows)

	_, err := store.ListRuns(5)

	assert.ErrorIs(t, err, assert.AnError)
}

func TestSQLiteStore_RecordFilesRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO file_results")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := store.RecordFiles([]*FileResult{
		{RunID: "r", Path: "a.leap"},
		{RunID: "r", Path: "b.leap"},
	})

	assert.ErrorContains(t, err, "failed to record file b.leap")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_RecordFilesCommitError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO file_results").ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(assert.AnError)

	err := store.RecordFiles([]*FileResult{{RunID: "r", Path: "a.leap"}})

	assert.ErrorContains(t, err, "failed to commit")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_CompleteRunError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("UPDATE runs SET status").WillReturnError(assert.AnError)

	err := store.CompleteRun("r", RunStatusPassed, RunTotals{}, "")

	assert.ErrorContains(t, err, "failed to complete run")
	assert.NoError(t, mock.ExpectationsWereMet())
}
