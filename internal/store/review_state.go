package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/slowka/slowka-api/internal/domain"
)

// ReviewStateStore defines the interface for review-schedule persistence.
//
// The scheduler itself is pure; this store is where the atomicity contract
// lives. A review is a read-modify-write of a single (user, word) row, and
// callers that intend to write back MUST read through GetForUpdate inside a
// transaction so that overlapping reviews of the same pair serialize
// instead of losing updates.
type ReviewStateStore interface {
	// Create saves a new review state.
	// Returns ErrWordEnrolled if the learner already has a state for the word.
	Create(ctx context.Context, state *domain.ReviewState) error

	// Get retrieves the review state for a (user, word) pair.
	// Returns ErrReviewStateNotFound if it does not exist.
	// This method provides no row locking; do not use it when you plan to
	// update the row.
	Get(ctx context.Context, userID, wordID uuid.UUID) (*domain.ReviewState, error)

	// GetForUpdate retrieves a review state with a row-level lock using
	// SELECT ... FOR UPDATE. Must be called within a transaction.
	// Returns ErrReviewStateNotFound if the state does not exist.
	GetForUpdate(ctx context.Context, userID, wordID uuid.UUID) (*domain.ReviewState, error)

	// Update replaces an existing state. The UserID and WordID fields
	// identify the row. Returns ErrReviewStateNotFound if it does not exist.
	Update(ctx context.Context, state *domain.ReviewState) error

	// ListDue returns the learner's states with due_at <= now, ordered by
	// ascending due_at (longest-waiting first), truncated to limit.
	// A non-positive limit means no truncation.
	ListDue(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.ReviewState, error)

	// ListByUser returns all of the learner's states.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ReviewState, error)

	// UsersWithDue returns the IDs of users who have at least one state due
	// at the given instant, with the count of due items per user. Feeds the
	// reminder scanner.
	UsersWithDue(ctx context.Context, now time.Time) (map[uuid.UUID]int, error)

	// WithTx returns a new ReviewStateStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) ReviewStateStore
}
