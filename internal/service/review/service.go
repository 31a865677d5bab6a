// Package review implements the learner-facing review workflow: building
// review queues, recording answers through the spaced-repetition scheduler,
// enrolling words, and reporting progress.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/slowka/slowka-api/internal/domain"
)

// QueueItem pairs a due word with its schedule so the client can render the
// prompt and show scheduling details in one round trip.
type QueueItem struct {
	Word  *domain.Word        `json:"word"`
	State *domain.ReviewState `json:"state"`
}

// Queue is an ordered batch of due words, longest-waiting first.
type Queue struct {
	Items []QueueItem `json:"items"`
	// TotalDue is the learner's full due count, which may exceed len(Items)
	// when the queue limit truncated the batch.
	TotalDue int `json:"total_due"`
}

// Service provides the review workflow operations.
type Service interface {
	// GetQueue builds the learner's current review queue: due words ordered
	// by ascending due time, truncated to limit. A non-positive limit, or one
	// above the configured maximum, selects the configured maximum. An empty
	// queue is a normal result, not an error. A fresh session covering the
	// queue is cached for progress tracking.
	GetQueue(ctx context.Context, userID uuid.UUID, limit int) (*Queue, error)

	// SubmitReview records a quality rating (0-5) for a word and reschedules
	// it. The read-modify-write of the schedule runs in a single transaction
	// with a row lock, so concurrent submissions for the same word serialize.
	//
	// Returns the updated schedule, or:
	//   - srs.ErrInvalidQuality if quality is outside 0-5 (nothing is written)
	//   - ErrWordNotEnrolled if the learner has no schedule for the word
	SubmitReview(ctx context.Context, userID, wordID uuid.UUID, quality int) (*domain.ReviewState, error)

	// EnrollWord adds a word to the learner's study set, due immediately.
	// Enrolling an already-enrolled word is idempotent and returns the
	// existing schedule. Returns ErrWordNotFound if the word does not exist.
	EnrollWord(ctx context.Context, userID, wordID uuid.UUID) (*domain.ReviewState, error)

	// PostponeWord pushes a word's due time forward by the given number of
	// days (at least 1) without touching the scheduling parameters.
	PostponeWord(ctx context.Context, userID, wordID uuid.UUID, days int) (*domain.ReviewState, error)

	// Progress summarizes the learner's study set by stage, plus the current
	// due count.
	Progress(ctx context.Context, userID uuid.UUID) (*domain.ProgressSummary, error)
}

// Common error types for the review service
var (
	// ErrWordNotFound indicates the word does not exist in the catalog.
	ErrWordNotFound = errors.New("word not found")

	// ErrWordNotEnrolled indicates the learner has no review schedule for the word.
	ErrWordNotEnrolled = errors.New("word not enrolled for review")
)

// ServiceError wraps errors from the review service with the failed
// operation, so consumers can differentiate error sources with errors.As
// instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "submit_review")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// timeSource is injectable for tests; production code uses time.Now.
type timeSource func() time.Time
