package history

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/kolp/internal/models"
)

// Journal is the write side used by services: every Record is an insert
// followed by pruning to the retention limit.
type Journal struct {
	db   *sql.DB
	keep int
	repo *SQLiteRepository
}

func NewJournal(db *sql.DB, keep int) *Journal {
	return &Journal{db: db, keep: keep, repo: NewSQLiteRepository(db)}
}

func (j *Journal) Record(ctx context.Context, e *models.HistoryEntry) error {
	return Record(ctx, j.db, e, j.keep)
}

func (j *Journal) LatestSuccessful(ctx context.Context, ops ...string) (*models.HistoryEntry, error) {
	return j.repo.LatestSuccessful(ctx, ops...)
}

func (j *Journal) List(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	return j.repo.List(ctx, limit)
}

func (j *Journal) Close() error {
	return j.db.Close()
}
