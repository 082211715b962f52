// Package srs implements the SuperMemo-2 scheduling algorithm.
//
// The package is deliberately free of side effects: callers supply the prior
// review state and the current time, and receive the next state back.
// Persistence is entirely the caller's responsibility.
package srs

import (
	"math"
	"time"
)

// State is the SM-2 state of a review prior to an answer.
type State struct {
	EaseFactor  float64
	Interval    int // days; 0 means the review has never been answered
	Repetitions int
}

// Result is the SM-2 state after an answer, including the computed next
// review timestamp.
type Result struct {
	EaseFactor   float64
	Interval     int
	Repetitions  int
	NextReviewAt time.Time
}

// calculateNewEaseFactor applies the SM-2 ease adjustment for the given
// quality rating. The adjustment depends on quality alone, so the ease
// factor still degrades smoothly on a barely-correct answer (quality 3).
// The result never drops below params.MinEaseFactor.
func calculateNewEaseFactor(currentEF float64, quality int, params *Params) float64 {
	q := float64(quality)
	newEF := currentEF + (0.1 - (5-q)*(0.08+(5-q)*0.02))

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}

	return newEF
}

// calculateNext computes the full SM-2 transition for a single answer.
//
// Correct answers (quality >= params.PassThreshold) increment the repetition
// count and grow the interval: 1 day after the first correct answer, 6 days
// after the second, then round(interval * easeFactor). Incorrect answers
// reset repetitions to 0 and the interval to 1 day regardless of prior state.
//
// The next review timestamp preserves the wall-clock time-of-day of now;
// day-boundary logic elsewhere reads dates through the same convention.
func calculateNext(prior State, quality int, now time.Time, params *Params) Result {
	result := Result{
		Interval:    prior.Interval,
		Repetitions: prior.Repetitions,
	}

	if quality >= params.PassThreshold {
		switch prior.Repetitions {
		case 0:
			result.Interval = params.FirstInterval
		case 1:
			result.Interval = params.SecondInterval
		default:
			result.Interval = int(math.Round(float64(prior.Interval) * prior.EaseFactor))
		}
		result.Repetitions = prior.Repetitions + 1
	} else {
		result.Repetitions = 0
		result.Interval = 1
	}

	result.EaseFactor = calculateNewEaseFactor(prior.EaseFactor, quality, params)
	result.NextReviewAt = now.AddDate(0, 0, result.Interval)

	return result
}
