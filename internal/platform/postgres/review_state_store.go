package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/slowka/slowka-api/internal/domain"
	"github.com/slowka/slowka-api/internal/platform/logger"
	"github.com/slowka/slowka-api/internal/store"
)

// PostgresReviewStateStore implements the store.ReviewStateStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewStateStore struct {
	db store.DBTX
}

// Ensure PostgresReviewStateStore implements store.ReviewStateStore interface
var _ store.ReviewStateStore = (*PostgresReviewStateStore)(nil)

// NewPostgresReviewStateStore creates a new PostgreSQL implementation of the
// ReviewStateStore interface.
func NewPostgresReviewStateStore(db store.DBTX) *PostgresReviewStateStore {
	if db == nil {
		panic("db must not be nil")
	}
	return &PostgresReviewStateStore{db: db}
}

// WithTx implements store.ReviewStateStore.WithTx
func (s *PostgresReviewStateStore) WithTx(tx *sql.Tx) store.ReviewStateStore {
	return &PostgresReviewStateStore{db: tx}
}

const reviewStateColumns = `user_id, word_id, easiness, interval_days, repetitions, due_at, stage,
		last_quality, last_reviewed_at, times_reviewed, times_correct, times_wrong,
		created_at, updated_at`

// Create implements store.ReviewStateStore.Create
func (s *PostgresReviewStateStore) Create(ctx context.Context, state *domain.ReviewState) error {
	log := logger.FromContext(ctx)

	if err := state.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO review_states (user_id, word_id, easiness, interval_days, repetitions, due_at, stage,
			last_quality, last_reviewed_at, times_reviewed, times_correct, times_wrong,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := s.db.ExecContext(ctx, query,
		state.UserID,
		state.WordID,
		state.Easiness,
		state.IntervalDays,
		state.Repetitions,
		state.DueAt,
		state.Stage,
		state.LastQuality,
		nullableTime(state.LastReviewedAt),
		state.TimesReviewed,
		state.TimesCorrect,
		state.TimesWrong,
		state.CreatedAt,
		state.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrWordEnrolled
		}
		log.Error("failed to insert review state",
			"user_id", state.UserID,
			"word_id", state.WordID,
			"error", err)
		return fmt.Errorf("failed to insert review state: %w", err)
	}

	return nil
}

// Get implements store.ReviewStateStore.Get
func (s *PostgresReviewStateStore) Get(ctx context.Context, userID, wordID uuid.UUID) (*domain.ReviewState, error) {
	query := `
		SELECT ` + reviewStateColumns + `
		FROM review_states
		WHERE user_id = $1 AND word_id = $2
	`
	return s.scanState(ctx, s.db.QueryRowContext(ctx, query, userID, wordID))
}

// GetForUpdate implements store.ReviewStateStore.GetForUpdate
// The FOR UPDATE clause takes a row-level lock, so concurrent reviews of the
// same learner-word pair queue up behind each other instead of both reading
// the same starting state. Must be called within a transaction.
func (s *PostgresReviewStateStore) GetForUpdate(ctx context.Context, userID, wordID uuid.UUID) (*domain.ReviewState, error) {
	query := `
		SELECT ` + reviewStateColumns + `
		FROM review_states
		WHERE user_id = $1 AND word_id = $2
		FOR UPDATE
	`
	return s.scanState(ctx, s.db.QueryRowContext(ctx, query, userID, wordID))
}

// Update implements store.ReviewStateStore.Update
func (s *PostgresReviewStateStore) Update(ctx context.Context, state *domain.ReviewState) error {
	log := logger.FromContext(ctx)

	if err := state.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE review_states
		SET easiness = $1, interval_days = $2, repetitions = $3, due_at = $4, stage = $5,
			last_quality = $6, last_reviewed_at = $7, times_reviewed = $8,
			times_correct = $9, times_wrong = $10, updated_at = $11
		WHERE user_id = $12 AND word_id = $13
	`

	result, err := s.db.ExecContext(ctx, query,
		state.Easiness,
		state.IntervalDays,
		state.Repetitions,
		state.DueAt,
		state.Stage,
		state.LastQuality,
		nullableTime(state.LastReviewedAt),
		state.TimesReviewed,
		state.TimesCorrect,
		state.TimesWrong,
		state.UpdatedAt,
		state.UserID,
		state.WordID,
	)

	if err != nil {
		log.Error("failed to update review state",
			"user_id", state.UserID,
			"word_id", state.WordID,
			"error", err)
		return fmt.Errorf("failed to update review state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrReviewStateNotFound
	}

	return nil
}

// ListDue implements store.ReviewStateStore.ListDue
// Ordering by due_at ascending surfaces the longest-overdue words first.
func (s *PostgresReviewStateStore) ListDue(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.ReviewState, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT ` + reviewStateColumns + `
		FROM review_states
		WHERE user_id = $1 AND due_at <= $2
		ORDER BY due_at ASC
	`
	args := []interface{}{userID, now}

	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query due review states",
			"user_id", userID,
			"error", err)
		return nil, fmt.Errorf("failed to query due review states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanStates(rows)
}

// ListByUser implements store.ReviewStateStore.ListByUser
func (s *PostgresReviewStateStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ReviewState, error) {
	query := `
		SELECT ` + reviewStateColumns + `
		FROM review_states
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to query review states",
			"user_id", userID,
			"error", err)
		return nil, fmt.Errorf("failed to query review states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanStates(rows)
}

// UsersWithDue implements store.ReviewStateStore.UsersWithDue
func (s *PostgresReviewStateStore) UsersWithDue(ctx context.Context, now time.Time) (map[uuid.UUID]int, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT user_id, COUNT(*)
		FROM review_states
		WHERE due_at <= $1
		GROUP BY user_id
	`

	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		log.Error("failed to query users with due reviews", "error", err)
		return nil, fmt.Errorf("failed to query users with due reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make(map[uuid.UUID]int)
	for rows.Next() {
		var userID uuid.UUID
		var count int
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan due count row: %w", err)
		}
		result[userID] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due count rows: %w", err)
	}

	return result, nil
}

// scanState maps a single-row query result onto a domain.ReviewState.
func (s *PostgresReviewStateStore) scanState(ctx context.Context, row *sql.Row) (*domain.ReviewState, error) {
	var state domain.ReviewState
	var lastReviewed sql.NullTime

	err := row.Scan(
		&state.UserID,
		&state.WordID,
		&state.Easiness,
		&state.IntervalDays,
		&state.Repetitions,
		&state.DueAt,
		&state.Stage,
		&state.LastQuality,
		&lastReviewed,
		&state.TimesReviewed,
		&state.TimesCorrect,
		&state.TimesWrong,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReviewStateNotFound
		}
		logger.FromContext(ctx).Error("failed to scan review state row", "error", err)
		return nil, fmt.Errorf("failed to scan review state row: %w", err)
	}

	if lastReviewed.Valid {
		state.LastReviewedAt = lastReviewed.Time
	}

	return &state, nil
}

// scanStates drains a review state result set.
func scanStates(rows *sql.Rows) ([]*domain.ReviewState, error) {
	var states []*domain.ReviewState

	for rows.Next() {
		var state domain.ReviewState
		var lastReviewed sql.NullTime

		if err := rows.Scan(
			&state.UserID,
			&state.WordID,
			&state.Easiness,
			&state.IntervalDays,
			&state.Repetitions,
			&state.DueAt,
			&state.Stage,
			&state.LastQuality,
			&lastReviewed,
			&state.TimesReviewed,
			&state.TimesCorrect,
			&state.TimesWrong,
			&state.CreatedAt,
			&state.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review state row: %w", err)
		}

		if lastReviewed.Valid {
			state.LastReviewedAt = lastReviewed.Time
		}

		states = append(states, &state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review state rows: %w", err)
	}

	return states, nil
}

// nullableTime maps a zero time onto SQL NULL.
func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
