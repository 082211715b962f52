package store

import (
	"context"
	"database/sql"

	"github.com/aslema/aslema-api/internal/domain"
)

// UserStatsStore defines the interface for per-user aggregate persistence.
type UserStatsStore interface {
	// Get retrieves the stats row for a user.
	// Returns ErrUserStatsNotFound if the user has no stats yet.
	Get(ctx context.Context, userID string) (*domain.UserStats, error)

	// GetForUpdate retrieves the stats row and locks it for the enclosing
	// transaction. Returns ErrUserStatsNotFound if none exists; callers
	// create the row lazily on the first correct answer.
	//
	// IMPORTANT: like ReviewStore.FindByIDForUpdate, this only guards
	// against lost updates when run inside a transaction.
	GetForUpdate(ctx context.Context, userID string) (*domain.UserStats, error)

	// UpsertDelta inserts or updates the user's stats row, applying xpDelta
	// as an increment on top of the stored total rather than writing
	// stats.TotalXp absolutely. When no row exists yet GetForUpdate has
	// nothing to lock, so a concurrent first write could otherwise be
	// silently overwritten; the increment makes both grants stick.
	// Streak fields and last_activity_at are replaced, except
	// longest_streak which only ever grows.
	UpsertDelta(ctx context.Context, stats *domain.UserStats, xpDelta int) error

	// ShiftActivity moves last_activity_at back by the given number of
	// days. Development tooling only.
	ShiftActivity(ctx context.Context, userID string, days int) error

	// DeleteForUser removes the user's stats row. Development tooling only.
	DeleteForUser(ctx context.Context, userID string) error

	// WithTx returns a UserStatsStore bound to the provided transaction.
	WithTx(tx *sql.Tx) UserStatsStore
}
