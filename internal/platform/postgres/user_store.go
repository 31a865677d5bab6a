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
	"golang.org/x/crypto/bcrypt"
)

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db         store.DBTX
	bcryptCost int
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// NewPostgresUserStore creates a new PostgreSQL implementation of the
// UserStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller, and the bcrypt cost used
// when hashing passwords. A cost outside bcrypt's valid range falls back to
// bcrypt.DefaultCost.
func NewPostgresUserStore(db store.DBTX, bcryptCost int) *PostgresUserStore {
	if db == nil {
		panic("db must not be nil")
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &PostgresUserStore{
		db:         db,
		bcryptCost: bcryptCost,
	}
}

// WithTx implements store.UserStore.WithTx
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{
		db:         tx,
		bcryptCost: s.bcryptCost,
	}
}

// Create implements store.UserStore.Create
// It validates the user, hashes the plaintext password with bcrypt, and
// inserts the row. The plaintext password is cleared from the struct once the
// hash exists.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContext(ctx)

	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	if user.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), s.bcryptCost)
		if err != nil {
			log.Error("failed to hash password",
				"user_id", user.ID,
				"error", err)
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.HashedPassword = string(hashed)
		user.Password = ""
	}

	query := `
		INSERT INTO users (id, email, hashed_password, level, streak_days, last_activity_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.HashedPassword,
		user.Level,
		user.StreakDays,
		user.LastActivityAt,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrEmailExists
		}
		log.Error("failed to insert user",
			"user_id", user.ID,
			"error", err)
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, email, hashed_password, level, streak_days, last_activity_at, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return s.scanUser(ctx, s.db.QueryRowContext(ctx, query, id))
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, hashed_password, level, streak_days, last_activity_at, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return s.scanUser(ctx, s.db.QueryRowContext(ctx, query, email))
}

// Update implements store.UserStore.Update
// A non-empty plaintext Password is hashed and replaces the stored hash;
// otherwise the existing hash is kept.
func (s *PostgresUserStore) Update(ctx context.Context, user *domain.User) error {
	log := logger.FromContext(ctx)

	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	if user.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), s.bcryptCost)
		if err != nil {
			log.Error("failed to hash password",
				"user_id", user.ID,
				"error", err)
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.HashedPassword = string(hashed)
		user.Password = ""
	}

	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET email = $1, hashed_password = $2, level = $3, streak_days = $4, last_activity_at = $5, updated_at = $6
		WHERE id = $7
	`

	result, err := s.db.ExecContext(ctx, query,
		user.Email,
		user.HashedPassword,
		user.Level,
		user.StreakDays,
		user.LastActivityAt,
		user.UpdatedAt,
		user.ID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrEmailExists
		}
		log.Error("failed to update user",
			"user_id", user.ID,
			"error", err)
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrUserNotFound
	}

	return nil
}

// scanUser maps a single-row query result onto a domain.User.
func (s *PostgresUserStore) scanUser(ctx context.Context, row *sql.Row) (*domain.User, error) {
	var user domain.User
	var lastActivity sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&user.Level,
		&user.StreakDays,
		&lastActivity,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		logger.FromContext(ctx).Error("failed to scan user row", "error", err)
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}

	if lastActivity.Valid {
		user.LastActivityAt = lastActivity.Time
	}

	return &user, nil
}
