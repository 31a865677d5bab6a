package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReviewSession is the short-lived state of a learner's active review sitting:
// the queue of word IDs handed out by GetQueue plus running counters. It lives
// in the cache, not the database, and expires on its own when abandoned.
type ReviewSession struct {
	UserID    uuid.UUID   `json:"user_id"`
	WordIDs   []uuid.UUID `json:"word_ids"`
	Position  int         `json:"position"`
	Answered  int         `json:"answered"`
	Correct   int         `json:"correct"`
	StartedAt time.Time   `json:"started_at"`
}

// Remaining returns how many items of the session queue are still unanswered.
func (s *ReviewSession) Remaining() int {
	if s.Position >= len(s.WordIDs) {
		return 0
	}
	return len(s.WordIDs) - s.Position
}

// SessionStore defines the interface for review-session caching. Sessions are
// keyed by user; a learner has at most one active session at a time.
type SessionStore interface {
	// Save stores the session, replacing any previous one for the user, with
	// the given time-to-live.
	Save(ctx context.Context, session *ReviewSession, ttl time.Duration) error

	// Get retrieves the user's active session.
	// Returns ErrNotFound if there is none or it has expired.
	Get(ctx context.Context, userID uuid.UUID) (*ReviewSession, error)

	// Delete removes the user's active session. Deleting a session that does
	// not exist is not an error.
	Delete(ctx context.Context, userID uuid.UUID) error
}
