package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/kolp/internal/common"
	"github.com/dmitrijs2005/kolp/internal/dbx"
	"github.com/dmitrijs2005/kolp/internal/migrations"
	"github.com/dmitrijs2005/kolp/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const columns = `id, op, status, file_id, name, checksum, size, error, started_at, finished_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Open opens the journal database at dsn and brings its schema up to date.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Record inserts e and prunes the journal to keep rows in one transaction.
func Record(ctx context.Context, db *sql.DB, e *models.HistoryEntry, keep int) error {
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := NewSQLiteRepository(tx)
		if err := r.Insert(ctx, e); err != nil {
			return err
		}
		if keep <= 0 {
			return nil
		}
		_, err := r.Prune(ctx, keep)
		return err
	})
}

func (r *SQLiteRepository) Insert(ctx context.Context, e *models.HistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO sync_history (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Op, e.Status, e.FileID, e.Name, e.Checksum, e.Size, e.Error,
		e.StartedAt.UnixMilli(), e.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) LatestSuccessful(ctx context.Context, ops ...string) (*models.HistoryEntry, error) {
	query := `SELECT ` + columns + ` FROM sync_history WHERE status = ?`
	args := []any{models.StatusOK}
	if len(ops) > 0 {
		query += ` AND op IN (?` + strings.Repeat(", ?", len(ops)-1) + `)`
		for _, op := range ops {
			args = append(args, op)
		}
	}
	query += ` ORDER BY finished_at DESC, rowid DESC LIMIT 1`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest history entry: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM sync_history ORDER BY finished_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var out []models.HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM sync_history WHERE id NOT IN (
			SELECT id FROM sync_history ORDER BY finished_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.HistoryEntry, error) {
	var (
		e                 models.HistoryEntry
		started, finished int64
	)
	if err := s.Scan(&e.ID, &e.Op, &e.Status, &e.FileID, &e.Name, &e.Checksum, &e.Size, &e.Error, &started, &finished); err != nil {
		return nil, err
	}
	e.StartedAt = time.UnixMilli(started).UTC()
	e.FinishedAt = time.UnixMilli(finished).UTC()
	return &e, nil
}
