package domain

import (
	"errors"
	"time"
)

// UserStats-specific validation errors
var (
	// ErrStatsUserIDEmpty is returned when a stats row has no user ID.
	ErrStatsUserIDEmpty = errors.New("user stats user ID cannot be empty")

	// ErrStatsNegativeXP is returned when total XP would go negative.
	ErrStatsNegativeXP = errors.New("user stats total XP cannot be negative")

	// ErrStatsStreakInvariant is returned when the longest streak falls
	// below the current streak.
	ErrStatsStreakInvariant = errors.New("longest streak cannot be less than current streak")
)

// UserStats is the per-user aggregate row: experience points and the
// day-boundary streak counters. It is created lazily on the first correct
// answer and updated on every correct answer thereafter.
//
// TotalXp is monotonically non-decreasing and LongestStreak is a running
// maximum of CurrentStreak.
type UserStats struct {
	UserID         string     `json:"user_id"`
	TotalXp        int        `json:"total_xp"`
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	LastActivityAt *time.Time `json:"last_activity_at"` // nil until the first correct answer
}

// NewUserStats creates an empty stats row for the given user.
func NewUserStats(userID string) (*UserStats, error) {
	stats := &UserStats{UserID: userID}
	if err := stats.Validate(); err != nil {
		return nil, err
	}
	return stats, nil
}

// Validate checks the stats invariants.
func (s *UserStats) Validate() error {
	if s.UserID == "" {
		return ErrStatsUserIDEmpty
	}

	if s.TotalXp < 0 {
		return ErrStatsNegativeXP
	}

	if s.LongestStreak < s.CurrentStreak {
		return ErrStatsStreakInvariant
	}

	return nil
}
