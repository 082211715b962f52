// Package clock supplies the current time and calendar-day arithmetic for
// the scheduling engine. All day-boundary logic (streaks, daily budgets,
// "learned today") goes through a Clock so that the application time zone
// is applied uniformly and tests can freeze time.
package clock

import (
	"math"
	"time"
)

// Clock provides the current time and the location used for day boundaries.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Location returns the time zone used for calendar-day computations.
	Location() *time.Location
}

// StartOfDay returns midnight of t's calendar day in the given location.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween returns the number of calendar-day boundaries crossed between
// a and b in the given location. It is 0 for two times on the same day,
// 1 for consecutive days, and negative if b is before a.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	startA := StartOfDay(a, loc)
	startB := StartOfDay(b, loc)
	// Round rather than truncate: a DST transition makes some days 23 or
	// 25 hours long.
	return int(math.Round(startB.Sub(startA).Hours() / 24))
}

// systemClock reads the wall clock.
type systemClock struct {
	loc *time.Location
}

// New returns a Clock backed by the system wall clock that computes day
// boundaries in loc. A nil loc defaults to UTC.
func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &systemClock{loc: loc}
}

func (c *systemClock) Now() time.Time {
	return time.Now().UTC()
}

func (c *systemClock) Location() *time.Location {
	return c.loc
}

// Frozen is a Clock pinned to a fixed instant, for tests.
type Frozen struct {
	Time time.Time
	Loc  *time.Location
}

// NewFrozen returns a Clock that always reports t.
func NewFrozen(t time.Time, loc *time.Location) *Frozen {
	if loc == nil {
		loc = time.UTC
	}
	return &Frozen{Time: t, Loc: loc}
}

func (f *Frozen) Now() time.Time {
	return f.Time
}

func (f *Frozen) Location() *time.Location {
	return f.Loc
}

// Advance moves the frozen clock forward by d.
func (f *Frozen) Advance(d time.Duration) {
	f.Time = f.Time.Add(d)
}
