package store

import (
	"context"
	"database/sql"

	"github.com/aslema/aslema-api/internal/domain"
)

// ItemStore is the engine's read-only view of the content catalog.
// Item creation, tagging and audio management belong to external admin
// tooling and never happen through this interface.
type ItemStore interface {
	// NewPool returns up to limit items the user has never started
	// (no review row exists), ordered by difficulty ascending, with the
	// translation for the given locale.
	NewPool(ctx context.Context, userID, locale string, limit int) ([]domain.StudyItem, error)

	// CountNewForUser counts items matching exactly the NewPool predicate.
	CountNewForUser(ctx context.Context, userID string) (int, error)

	// WithTx returns an ItemStore bound to the provided transaction.
	WithTx(tx *sql.Tx) ItemStore
}
