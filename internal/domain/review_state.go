package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Stage is the coarse learning-stage bucket derived from a ReviewState's
// scheduling fields. It exists for UI messaging and progress reporting;
// scheduling itself never branches on it.
type Stage string

// Possible stage values
const (
	StageNew      Stage = "new"      // never reviewed
	StageLearning Stage = "learning" // in the fixed-interval graduation phase, or relearning after a failure
	StageReview   Stage = "review"   // graduated, exponential interval growth
	StageMastered Stage = "mastered" // graduated with a long enough interval
)

// DefaultEasiness is the SM-2 starting easiness factor for a new item.
const DefaultEasiness = 2.5

// Common validation errors for ReviewState
var (
	ErrEmptyStateUserID = errors.New("review state user ID cannot be empty")
	ErrEmptyStateWordID = errors.New("review state word ID cannot be empty")
	ErrInvalidInterval  = errors.New("interval must be greater than or equal to 0")
	ErrInvalidEasiness  = errors.New("easiness must be greater than 1.0")
)

// ReviewState tracks a learner's spaced-repetition schedule for a specific
// word. One state exists per (user, word) pair; it is mutated exclusively by
// the scheduler in internal/domain/srs, which returns fresh copies rather
// than modifying in place.
type ReviewState struct {
	UserID       uuid.UUID `json:"user_id"`
	WordID       uuid.UUID `json:"word_id"`
	Easiness     float64   `json:"easiness"`      // SM-2 easiness factor, floored at the configured minimum
	IntervalDays int       `json:"interval_days"` // Days until the next scheduled review
	Repetitions  int       `json:"repetitions"`   // Consecutive passes since the last failure
	DueAt        time.Time `json:"due_at"`        // Earliest moment the word should be presented again
	Stage        Stage     `json:"stage"`

	// Review history bookkeeping
	LastQuality    int       `json:"last_quality"` // 0-5 rating from the most recent review
	LastReviewedAt time.Time `json:"last_reviewed_at"`
	TimesReviewed  int       `json:"times_reviewed"`
	TimesCorrect   int       `json:"times_correct"`
	TimesWrong     int       `json:"times_wrong"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewReviewState creates the initial schedule for a word the learner has
// just enrolled: due immediately, default easiness, nothing reviewed yet.
func NewReviewState(userID, wordID uuid.UUID, now time.Time) (*ReviewState, error) {
	state := &ReviewState{
		UserID:       userID,
		WordID:       wordID,
		Easiness:     DefaultEasiness,
		IntervalDays: 0,
		Repetitions:  0,
		DueAt:        now, // Available for review immediately
		Stage:        StageNew,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := state.Validate(); err != nil {
		return nil, err
	}

	return state, nil
}

// Validate checks if the ReviewState has valid data.
// Returns an error if any field fails validation.
func (s *ReviewState) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrEmptyStateUserID
	}

	if s.WordID == uuid.Nil {
		return ErrEmptyStateWordID
	}

	if s.IntervalDays < 0 {
		return ErrInvalidInterval
	}

	if s.Easiness <= 1.0 {
		return ErrInvalidEasiness
	}

	return nil
}

// Clone returns a copy of the state. The scheduler uses it to honor its
// no-partial-mutation contract.
func (s *ReviewState) Clone() *ReviewState {
	c := *s
	return &c
}

// Due reports whether the word should be presented at the given instant.
func (s *ReviewState) Due(now time.Time) bool {
	return !s.DueAt.After(now)
}

// ProgressSummary aggregates a learner's review states into stage buckets
// for the progress endpoint and reminder messages.
type ProgressSummary struct {
	TotalWords int `json:"total_words"`
	DueNow     int `json:"due_now"`
	New        int `json:"new"`
	Learning   int `json:"learning"`
	Review     int `json:"review"`
	Mastered   int `json:"mastered"`
}
