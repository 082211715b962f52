// Package streak computes consecutive-day activity streaks.
//
// Streaks work on calendar-day granularity in the application's time zone,
// not rolling 24-hour windows. Two pure functions cover the lifecycle:
// Advance on every correct answer, Observe for read-only display. Neither
// writes state; the stored counter is only reset lazily by the next Advance.
package streak

import (
	"time"

	"github.com/aslema/aslema-api/internal/platform/clock"
)

// Advance returns the streak value after activity at now, given the last
// recorded activity. Called only on a correct answer.
//
//	no prior activity            -> 1
//	same calendar day            -> unchanged
//	exactly one day later        -> current + 1
//	gap of more than one day     -> 1
func Advance(lastActivityAt *time.Time, currentStreak int, now time.Time, loc *time.Location) int {
	if lastActivityAt == nil {
		return 1
	}

	switch days := clock.DaysBetween(*lastActivityAt, now, loc); {
	case days <= 0:
		return currentStreak
	case days == 1:
		return currentStreak + 1
	default:
		return 1
	}
}

// Observe returns the streak a user should be shown right now, decaying a
// stale counter to 0 without mutating anything. The stored value is only
// reset when the user's next correct answer calls Advance.
//
//	no prior activity            -> 0
//	gap of more than one day     -> 0 (streak already broken)
//	otherwise                    -> current, unchanged
func Observe(lastActivityAt *time.Time, currentStreak int, now time.Time, loc *time.Location) int {
	if lastActivityAt == nil {
		return 0
	}

	if clock.DaysBetween(*lastActivityAt, now, loc) > 1 {
		return 0
	}

	return currentStreak
}

// Longest returns the running maximum for the longest-streak counter after
// an Advance produced newStreak.
func Longest(longestStreak, newStreak int) int {
	if newStreak > longestStreak {
		return newStreak
	}
	return longestStreak
}
