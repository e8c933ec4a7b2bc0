package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/kolp/internal/common"
	"github.com/dmitrijs2005/kolp/internal/models"
)

var base = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteRepository(db)
}

func entry(op, status string, minute int) *models.HistoryEntry {
	at := base.Add(time.Duration(minute) * time.Minute)
	return &models.HistoryEntry{
		Op:         op,
		Status:     status,
		FileID:     "file-" + op,
		Name:       "kolp_backup_1.klp",
		Checksum:   "0123456789abcdef0123456789abcdef",
		Size:       128,
		StartedAt:  at.Add(-time.Second),
		FinishedAt: at,
	}
}

func TestInsert_AssignsIDAndRoundTrips(t *testing.T) {
	r := openTestDB(t)
	ctx := context.Background()

	e := entry(models.OpUpload, models.StatusOK, 1)
	require.NoError(t, r.Insert(ctx, e))
	require.NotEmpty(t, e.ID)

	list, err := r.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, *e, list[0])
}

func TestLatestSuccessful(t *testing.T) {
	r := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, entry(models.OpUpload, models.StatusOK, 1)))
	require.NoError(t, r.Insert(ctx, entry(models.OpDownload, models.StatusOK, 2)))
	require.NoError(t, r.Insert(ctx, entry(models.OpUpload, models.StatusFailed, 3)))
	require.NoError(t, r.Insert(ctx, entry(models.OpExport, models.StatusOK, 4)))

	got, err := r.LatestSuccessful(ctx, models.OpUpload, models.OpDownload)
	require.NoError(t, err)
	assert.Equal(t, models.OpDownload, got.Op)
	assert.Equal(t, base.Add(2*time.Minute), got.FinishedAt)

	got, err = r.LatestSuccessful(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.OpExport, got.Op)

	got, err = r.LatestSuccessful(ctx, models.OpUpload)
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Minute), got.FinishedAt, "failed attempts are skipped")
}

func TestLatestSuccessful_Empty(t *testing.T) {
	r := openTestDB(t)

	_, err := r.LatestSuccessful(context.Background(), models.OpUpload)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestList_NewestFirstAndLimit(t *testing.T) {
	r := openTestDB(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		require.NoError(t, r.Insert(ctx, entry(models.OpUpload, models.StatusOK, i)))
	}

	list, err := r.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, base.Add(5*time.Minute), list[0].FinishedAt)
	assert.Equal(t, base.Add(3*time.Minute), list[2].FinishedAt)

	all, err := r.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestPrune_KeepsNewest(t *testing.T) {
	r := openTestDB(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		require.NoError(t, r.Insert(ctx, entry(models.OpDownload, models.StatusOK, i)))
	}

	n, err := r.Prune(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	list, err := r.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, base.Add(5*time.Minute), list[0].FinishedAt)
	assert.Equal(t, base.Add(4*time.Minute), list[1].FinishedAt)
}

func TestRecord_InsertsAndPrunes(t *testing.T) {
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		require.NoError(t, Record(ctx, db, entry(models.OpUpload, models.StatusOK, i), 3))
	}

	list, err := NewSQLiteRepository(db).List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestRecord_RollsBackWhenPruneFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO sync_history").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM sync_history").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = Record(context.Background(), db, entry(models.OpUpload, models.StatusOK, 1), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to prune history")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO sync_history").WillReturnError(errors.New("readonly database"))

	err = NewSQLiteRepository(db).Insert(context.Background(), entry(models.OpUpload, models.StatusOK, 1))
	require.ErrorContains(t, err, "failed to insert history entry")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_ScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id"}).AddRow("only-one-column")
	mock.ExpectQuery("SELECT (.+) FROM sync_history").WillReturnRows(rows)

	_, err = NewSQLiteRepository(db).List(context.Background(), 5)
	require.ErrorContains(t, err, "failed to scan history row")
}

func TestLatestSuccessful_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM sync_history").WillReturnError(errors.New("locked"))

	_, err = NewSQLiteRepository(db).LatestSuccessful(context.Background())
	require.ErrorContains(t, err, "failed to get latest history entry")
	require.False(t, errors.Is(err, common.ErrorNotFound))
}

func TestJournal_RecordHonoursRetention(t *testing.T) {
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	j := NewJournal(db, 2)
	t.Cleanup(func() { _ = j.Close() })
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, j.Record(ctx, entry(models.OpUpload, models.StatusOK, i)))
	}

	list, err := j.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	latest, err := j.LatestSuccessful(ctx, models.OpUpload)
	require.NoError(t, err)
	assert.Equal(t, base.Add(3*time.Minute), latest.FinishedAt)
}
