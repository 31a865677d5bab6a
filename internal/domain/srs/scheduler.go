// Package srs implements the SuperMemo-2 derived review scheduler that
// decides when a vocabulary item is due and how its difficulty evolves.
//
// The scheduler is a pure function of (current state, quality, now): it
// performs no I/O, holds no mutable state, and may be invoked concurrently
// for any number of learner-word pairs. Persistence of the returned state,
// including the atomic read-modify-write per pair, is the storage layer's
// responsibility.
package srs

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/slowka/slowka-api/internal/domain"
)

// Bounds of the quality rating scale.
const (
	MinQuality = 0
	MaxQuality = 5
)

// Common errors
var (
	// ErrInvalidQuality is returned when a quality rating falls outside
	// [0, 5]. Ratings are rejected rather than clamped: silently coercing a
	// corrupted rating would skew the easiness calculation without
	// detection.
	ErrInvalidQuality = errors.New("quality rating must be between 0 and 5")

	// ErrNilState is returned when the input review state is nil.
	ErrNilState = errors.New("review state cannot be nil")

	// ErrInvalidDays is returned when postpone days is less than 1.
	ErrInvalidDays = errors.New("postpone days must be at least 1")
)

// Scheduler defines the scheduling operations owned by this package.
type Scheduler interface {
	// RecordReview computes the successor state for a single review event
	// rated with quality in [0, 5]. The input state is never modified; on
	// error no state change is observable.
	RecordReview(
		state *domain.ReviewState,
		quality int,
		now time.Time,
	) (*domain.ReviewState, error)

	// Postpone pushes the next review forward by the given number of days
	// (at least 1) without affecting easiness or repetitions.
	Postpone(
		state *domain.ReviewState,
		days int,
		now time.Time,
	) (*domain.ReviewState, error)
}

// defaultScheduler is the standard implementation of the Scheduler interface.
type defaultScheduler struct {
	params *Params
}

// NewDefaultScheduler creates a Scheduler with default parameters.
func NewDefaultScheduler() Scheduler {
	return &defaultScheduler{
		params: NewDefaultParams(),
	}
}

// NewScheduler creates a Scheduler with custom parameters.
func NewScheduler(params *Params) Scheduler {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultScheduler{
		params: params,
	}
}

// RecordReview implements Scheduler.RecordReview.
func (s *defaultScheduler) RecordReview(
	state *domain.ReviewState,
	quality int,
	now time.Time,
) (*domain.ReviewState, error) {
	if state == nil {
		return nil, ErrNilState
	}

	if quality < MinQuality || quality > MaxQuality {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuality, quality)
	}

	return calculateNextState(state, quality, now, s.params), nil
}

// Postpone implements Scheduler.Postpone.
func (s *defaultScheduler) Postpone(
	state *domain.ReviewState,
	days int,
	now time.Time,
) (*domain.ReviewState, error) {
	if state == nil {
		return nil, ErrNilState
	}

	if days < 1 {
		return nil, ErrInvalidDays
	}

	next := state.Clone()
	next.DueAt = state.DueAt.AddDate(0, 0, days)
	next.UpdatedAt = now

	return next, nil
}

// SelectDue filters states to those due at the given instant, orders them
// by ascending due time so the longest-waiting items come first, and
// truncates the result to limit. A non-positive limit means no truncation.
// The input slice is not modified.
func SelectDue(
	states []*domain.ReviewState,
	now time.Time,
	limit int,
) []*domain.ReviewState {
	due := make([]*domain.ReviewState, 0, len(states))
	for _, state := range states {
		if state.Due(now) {
			due = append(due, state)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].DueAt.Before(due[j].DueAt)
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	return due
}
