// Package history stores the sync journal: one row per export, import,
// upload or download attempt.
package history

import (
	"context"

	"github.com/dmitrijs2005/kolp/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, e *models.HistoryEntry) error
	// LatestSuccessful returns the newest successful entry whose op is one
	// of ops (any op when none given), or common.ErrorNotFound.
	LatestSuccessful(ctx context.Context, ops ...string) (*models.HistoryEntry, error)
	List(ctx context.Context, limit int) ([]models.HistoryEntry, error)
	// Prune keeps the newest keep rows and returns how many were removed.
	Prune(ctx context.Context, keep int) (int64, error)
}
