package srs

import (
	"math"
	"time"

	"github.com/slowka/slowka-api/internal/domain"
)

// graduatedRepetitions is the repetition count at which an item leaves the
// fixed-interval graduation phase and its stage becomes review/mastered.
const graduatedRepetitions = 3

// calculateNewEasiness determines the new easiness factor for a review
// rated with the given quality.
//
// The adjustment follows the SM-2 formula
//
//	delta = 0.1 - (5-q) * (0.08 + (5-q)*0.02)
//
// so a perfect recall (q=5) raises easiness by 0.1 and a blackout (q=0)
// lowers it by 0.8. The result is clamped at params.MinEasiness: items can
// never get stuck in a permanent daily-review spiral with no recovery path
// once recall improves again.
func calculateNewEasiness(current float64, quality int, params *Params) float64 {
	q := float64(quality)
	newEasiness := current + (0.1 - (5-q)*(0.08+(5-q)*0.02))

	if newEasiness < params.MinEasiness {
		newEasiness = params.MinEasiness
	}

	return newEasiness
}

// calculateNewInterval determines the next interval in days.
//
// Interval progression is staged rather than purely multiplicative: the
// first two successful reviews use fixed graduation intervals to front-load
// retention, and only afterwards does the easiness-driven exponential
// growth begin. The multiplication uses the *updated* easiness factor.
//
// A failed review resets the interval to 0 regardless of how mature the
// item was: a failure means the prior interval estimate was wrong, so no
// partial credit is retained.
func calculateNewInterval(
	currentInterval int,
	newRepetitions int,
	newEasiness float64,
	passed bool,
	params *Params,
) int {
	if !passed {
		return 0
	}

	switch newRepetitions {
	case 1:
		return params.InitialInterval
	case 2:
		return params.GraduationInterval
	default:
		return int(math.Round(float64(currentInterval) * newEasiness))
	}
}

// classifyStage derives the learning-stage bucket from a state's scheduling
// fields. The rule is deterministic and interval-based:
//
//   - new:      never reviewed
//   - mastered: graduated (>= 3 consecutive passes) with an interval of at
//     least params.MasteryIntervalDays
//   - review:   graduated, shorter interval
//   - learning: everything else, including items knocked back to
//     repetitions 0 by a failure
//
// Stage is reporting only; scheduling never reads it.
func classifyStage(state *domain.ReviewState, params *Params) domain.Stage {
	switch {
	case state.TimesReviewed == 0:
		return domain.StageNew
	case state.Repetitions >= graduatedRepetitions && state.IntervalDays >= params.MasteryIntervalDays:
		return domain.StageMastered
	case state.Repetitions >= graduatedRepetitions:
		return domain.StageReview
	default:
		return domain.StageLearning
	}
}

// calculateNextState computes the full successor state for a single review
// event. It follows the immutable update pattern: the input state is never
// touched, a fresh copy is modified and returned. Identical inputs always
// produce identical outputs.
//
// The caller must have validated quality already; this function assumes it
// is within [0, 5].
func calculateNextState(
	state *domain.ReviewState,
	quality int,
	now time.Time,
	params *Params,
) *domain.ReviewState {
	next := state.Clone()

	// Easiness is adjusted on every review, pass or fail.
	next.Easiness = calculateNewEasiness(state.Easiness, quality, params)

	passed := quality >= params.PassThreshold
	if passed {
		next.Repetitions = state.Repetitions + 1
		next.TimesCorrect = state.TimesCorrect + 1
	} else {
		next.Repetitions = 0
		next.TimesWrong = state.TimesWrong + 1
	}

	next.IntervalDays = calculateNewInterval(
		state.IntervalDays,
		next.Repetitions,
		next.Easiness,
		passed,
		params,
	)

	// A zero interval means the item is due again immediately.
	next.DueAt = now.AddDate(0, 0, next.IntervalDays)

	next.LastQuality = quality
	next.LastReviewedAt = now
	next.TimesReviewed = state.TimesReviewed + 1
	next.UpdatedAt = now

	next.Stage = classifyStage(next, params)

	return next
}
