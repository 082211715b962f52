package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/aslema/aslema-api/internal/domain"
)

// ReviewStore defines the interface for review and attempt persistence.
//
// The scheduling engine depends only on this narrow interface; the query
// language behind it is an implementation detail.
type ReviewStore interface {
	// FindByID retrieves a review by its unique ID.
	// Returns ErrReviewNotFound if the review does not exist.
	FindByID(ctx context.Context, id int64) (*domain.Review, error)

	// FindByIDForUpdate retrieves a review and locks its row for the
	// duration of the enclosing transaction, serializing concurrent answer
	// submissions for the same review.
	//
	// IMPORTANT: this method MUST be run within a transaction (use WithTx
	// together with store.RunInTransaction); outside one the lock is
	// released immediately and provides no protection.
	FindByIDForUpdate(ctx context.Context, id int64) (*domain.Review, error)

	// Update persists the mutable scheduling fields of an existing review.
	// CreatedAt is immutable and never written.
	// Returns ErrReviewNotFound if the review does not exist.
	Update(ctx context.Context, review *domain.Review) error

	// CreateIgnoreConflicts bulk-inserts reviews, silently skipping any
	// (user, item) pair that already has one. Returns the number of rows
	// actually created; a conflict is a defined no-op outcome, never an
	// error, which makes the bulk "start learning" call safe to retry.
	CreateIgnoreConflicts(ctx context.Context, reviews []*domain.Review) (int64, error)

	// InsertAttempt appends one answer to the attempt log.
	InsertAttempt(ctx context.Context, attempt *domain.Attempt) error

	// DuePool returns up to limit study items whose reviews are due
	// (repetitions >= 1 and next_review_at <= now), ordered by item
	// difficulty ascending, with the translation for the given locale.
	DuePool(ctx context.Context, userID, locale string, now time.Time, limit int) ([]domain.StudyItem, error)

	// LearningPool returns every in-progress study item for the user
	// (repetitions == 0), ordered by item difficulty ascending. Learning
	// items always surface, so the pool is uncapped.
	LearningPool(ctx context.Context, userID, locale string) ([]domain.StudyItem, error)

	// LearnedSince returns study items answered correctly at least once
	// with last_reviewed_at on or after since. Reporting only.
	LearnedSince(ctx context.Context, userID, locale string, since time.Time) ([]domain.StudyItem, error)

	// CountDue counts reviews matching exactly the DuePool predicate.
	CountDue(ctx context.Context, userID string, now time.Time) (int, error)

	// CountCreatedSince counts the user's reviews with created_at on or
	// after since. This feeds the daily new-item budget.
	CountCreatedSince(ctx context.Context, userID string, since time.Time) (int, error)

	// ShiftUserSchedule moves all of the user's review timestamps back by
	// the given number of days. Development tooling only.
	ShiftUserSchedule(ctx context.Context, userID string, days int) error

	// DeleteAllForUser removes all of the user's reviews and, via cascade,
	// their attempts. Development tooling only.
	DeleteAllForUser(ctx context.Context, userID string) error

	// WithTx returns a ReviewStore bound to the provided transaction so
	// multiple operations can execute atomically. The transaction is
	// created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) ReviewStore
}
