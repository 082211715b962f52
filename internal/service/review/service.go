// Package review implements the scheduling engine's use cases: starting
// items, submitting answers, and composing the daily study session.
package review

import (
	"context"
	"errors"
	"time"

	"github.com/aslema/aslema-api/internal/domain"
)

// Service-specific errors
var (
	// ErrReviewNotFound indicates the requested review does not exist.
	ErrReviewNotFound = errors.New("review not found")

	// ErrReviewNotOwned indicates the review belongs to another user.
	ErrReviewNotOwned = errors.New("review does not belong to the user")

	// ErrInvalidAnswer indicates the submitted answer failed validation.
	ErrInvalidAnswer = errors.New("invalid answer")
)

// Answer is one submitted response to a due or learning review.
type Answer struct {
	// Quality is the SM-2 quality rating, 0 through 5.
	Quality int

	// ResponseTimeMs is how long the user took, when the client measures it.
	ResponseTimeMs *int

	// UserAnswer is the free-text answer, when the exercise captures one.
	UserAnswer *string
}

// AnswerResult is the review's scheduling state after an answer.
type AnswerResult struct {
	EaseFactor   float64   `json:"ease_factor"`
	Interval     int       `json:"interval"`
	Repetitions  int       `json:"repetitions"`
	NextReviewAt time.Time `json:"next_review_at"`
}

// SessionOptions tunes the daily session composer. Zero values fall back
// to the configured defaults.
type SessionOptions struct {
	NewLimit int
	DueLimit int
	Locale   string
}

// Session is the composed daily study session. NewItems is the day's new
// work list: in-progress learning items first, then the budgeted fresh
// introductions. TotalDue counts only scheduled-due reviews.
type Session struct {
	DueReviews        []domain.StudyItem `json:"due_reviews"`
	NewItems          []domain.StudyItem `json:"new_items"`
	LearnedTodayItems []domain.StudyItem `json:"learned_today_items"`
	TotalDue          int                `json:"total_due"`
	TotalNew          int                `json:"total_new"`
	TotalLearnedToday int                `json:"total_learned_today"`
}

// StatsReport is the aggregate view returned by Stats. Counts are computed
// with the same predicates and budget formula the session composer uses, so
// they can never disagree with what TodaySession would return.
type StatsReport struct {
	TotalXp           int        `json:"total_xp"`
	CurrentStreak     int        `json:"current_streak"`
	LongestStreak     int        `json:"longest_streak"`
	LastActivityAt    *time.Time `json:"last_activity_at"`
	DueCount          int        `json:"due_count"`
	NewItemsCount     int        `json:"new_items_count"`
	LearnedTodayCount int        `json:"learned_today_count"`
	TotalNewAvailable int        `json:"total_new_available"`
}

// ReviewService exposes the scheduling engine's use cases.
type ReviewService interface {
	// StartLearning creates reviews in the initial learning state for each
	// item the user has not started yet. Items already started are skipped
	// silently; the returned count covers only newly created reviews, which
	// makes the call safe to retry.
	StartLearning(ctx context.Context, userID string, itemIDs []int64) (int64, error)

	// SubmitAnswer records one answer against a review and advances its SM-2
	// schedule, the user's streak and XP, all in a single transaction.
	// Returns ErrReviewNotFound, ErrReviewNotOwned, domain.ErrInvalidQuality
	// or ErrInvalidAnswer on bad input.
	//
	// Submitting is not idempotent: a retried success records a second
	// attempt and advances the schedule again.
	SubmitAnswer(ctx context.Context, userID string, reviewID int64, answer Answer) (*AnswerResult, error)

	// DueReviews lists the user's due study items, up to limit.
	DueReviews(ctx context.Context, userID, locale string, limit int) ([]domain.StudyItem, error)

	// TodaySession composes the daily study session: due reviews, in-progress
	// learning items, budgeted new items and today's learned list.
	TodaySession(ctx context.Context, userID string, opts SessionOptions) (*Session, error)

	// Stats returns the user's aggregates plus session counts. The streak is
	// observed read-only: a stale streak reads as 0 without being rewritten.
	Stats(ctx context.Context, userID string, dailyNewLimit int) (*StatsReport, error)

	// SimulateDays shifts the user's entire schedule back by days, as if that
	// much time had passed. Development tooling only.
	SimulateDays(ctx context.Context, userID string, days int) error

	// Reset deletes the user's reviews, attempts and stats.
	// Development tooling only.
	Reset(ctx context.Context, userID string) error
}
