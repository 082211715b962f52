package domain

import (
	"errors"
	"time"
)

// Default SM-2 state for a review that has never been answered.
const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
)

// MaxUserAnswerLength bounds the free-text answer recorded on an attempt.
const MaxUserAnswerLength = 1024

// Review-specific validation errors
var (
	// ErrReviewUserIDEmpty is returned when a review's user ID is empty.
	ErrReviewUserIDEmpty = errors.New("review user ID cannot be empty")

	// ErrReviewItemIDEmpty is returned when a review's item ID is not set.
	ErrReviewItemIDEmpty = errors.New("review item ID cannot be empty")

	// ErrReviewInvalidEaseFactor is returned when a review's ease factor is below the floor.
	ErrReviewInvalidEaseFactor = errors.New("review ease factor must be at least 1.3")

	// ErrReviewInvalidInterval is returned when a review's interval is negative,
	// or zero after the review has been answered at least once.
	ErrReviewInvalidInterval = errors.New("review interval is invalid")

	// ErrReviewInvalidRepetitions is returned when a review's repetition count is negative.
	ErrReviewInvalidRepetitions = errors.New("review repetitions must be at least 0")
)

// Review tracks a user's spaced-repetition state for a single content item.
// There is exactly one Review per (UserID, ItemID) pair; the database
// enforces this with a unique constraint.
//
// A review with Repetitions == 0 is in the "learning" state: started but not
// yet answered correctly. The first correct answer moves it to "reviewing"
// (Repetitions >= 1); any later incorrect answer drops it back to learning.
type Review struct {
	ID             int64      `json:"id"`
	UserID         string     `json:"user_id"`
	ItemID         int64      `json:"item_id"`
	EaseFactor     float64    `json:"ease_factor"`
	Interval       int        `json:"interval"` // days until the next review
	Repetitions    int        `json:"repetitions"`
	NextReviewAt   time.Time  `json:"next_review_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"` // nil until the first answer
	CreatedAt      time.Time  `json:"created_at"`       // set at "start learning", immutable
}

// NewReview creates a review in the initial learning state for the given
// user and item. The item is immediately available for review.
func NewReview(userID string, itemID int64, now time.Time) (*Review, error) {
	review := &Review{
		UserID:       userID,
		ItemID:       itemID,
		EaseFactor:   DefaultEaseFactor,
		Interval:     0, // 0 is reserved for the never-answered state
		Repetitions:  0,
		NextReviewAt: now,
		CreatedAt:    now,
	}

	if err := review.Validate(); err != nil {
		return nil, err
	}

	return review, nil
}

// Validate checks the review invariants. Interval 0 is only legal while the
// review has never been answered (LastReviewedAt == nil).
func (r *Review) Validate() error {
	if r.UserID == "" {
		return ErrReviewUserIDEmpty
	}

	if r.ItemID <= 0 {
		return ErrReviewItemIDEmpty
	}

	if r.EaseFactor < MinEaseFactor {
		return ErrReviewInvalidEaseFactor
	}

	if r.Interval < 0 {
		return ErrReviewInvalidInterval
	}

	if r.LastReviewedAt != nil && r.Interval < 1 {
		return ErrReviewInvalidInterval
	}

	if r.Repetitions < 0 {
		return ErrReviewInvalidRepetitions
	}

	return nil
}

// IsLearning reports whether the review is in the learning state
// (started but not yet answered correctly even once).
func (r *Review) IsLearning() bool {
	return r.Repetitions == 0
}

// IsDue reports whether the review is scheduled on or before now.
// Only reviews that have been answered at least once count as due;
// learning items surface through the learning set instead.
func (r *Review) IsDue(now time.Time) bool {
	return r.Repetitions >= 1 && !r.NextReviewAt.After(now)
}

// Attempt is one append-only log row per submitted answer.
// Attempts are never mutated or deleted individually.
type Attempt struct {
	ID             int64     `json:"id"`
	ReviewID       int64     `json:"review_id"`
	IsCorrect      bool      `json:"is_correct"`
	ResponseTimeMs *int      `json:"response_time_ms"`
	UserAnswer     *string   `json:"user_answer"`
	CreatedAt      time.Time `json:"created_at"`
}

// ErrAttemptAnswerTooLong is returned when the free-text answer exceeds the bound.
var ErrAttemptAnswerTooLong = errors.New("attempt user answer exceeds maximum length")

// Validate checks the attempt's field bounds.
func (a *Attempt) Validate() error {
	if a.ReviewID <= 0 {
		return ErrReviewItemIDEmpty
	}
	if a.UserAnswer != nil && len(*a.UserAnswer) > MaxUserAnswerLength {
		return ErrAttemptAnswerTooLong
	}
	return nil
}
