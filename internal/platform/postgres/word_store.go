package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/slowka/slowka-api/internal/domain"
	"github.com/slowka/slowka-api/internal/platform/logger"
	"github.com/slowka/slowka-api/internal/store"
)

// PostgresWordStore implements the store.WordStore interface
// using a PostgreSQL database as the storage backend.
type PostgresWordStore struct {
	db store.DBTX
}

// Ensure PostgresWordStore implements store.WordStore interface
var _ store.WordStore = (*PostgresWordStore)(nil)

// NewPostgresWordStore creates a new PostgreSQL implementation of the
// WordStore interface.
func NewPostgresWordStore(db store.DBTX) *PostgresWordStore {
	if db == nil {
		panic("db must not be nil")
	}
	return &PostgresWordStore{db: db}
}

// WithTx implements store.WordStore.WithTx
func (s *PostgresWordStore) WithTx(tx *sql.Tx) store.WordStore {
	return &PostgresWordStore{db: tx}
}

const wordColumns = "id, polish, translation_uk, translation_ru, example_pl, level, category, created_at, updated_at"

// Create implements store.WordStore.Create
func (s *PostgresWordStore) Create(ctx context.Context, word *domain.Word) error {
	log := logger.FromContext(ctx)

	if err := word.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO words (id, polish, translation_uk, translation_ru, example_pl, level, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		word.ID,
		word.Polish,
		word.TranslationUK,
		word.TranslationRU,
		word.ExamplePL,
		word.Level,
		word.Category,
		word.CreatedAt,
		word.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: polish headword", store.ErrDuplicate)
		}
		log.Error("failed to insert word",
			"word_id", word.ID,
			"error", err)
		return fmt.Errorf("failed to insert word: %w", err)
	}

	return nil
}

// GetByID implements store.WordStore.GetByID
func (s *PostgresWordStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Word, error) {
	query := `SELECT ` + wordColumns + ` FROM words WHERE id = $1`

	var word domain.Word
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&word.ID,
		&word.Polish,
		&word.TranslationUK,
		&word.TranslationRU,
		&word.ExamplePL,
		&word.Level,
		&word.Category,
		&word.CreatedAt,
		&word.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrWordNotFound
		}
		logger.FromContext(ctx).Error("failed to scan word row",
			"word_id", id,
			"error", err)
		return nil, fmt.Errorf("failed to scan word row: %w", err)
	}

	return &word, nil
}

// List implements store.WordStore.List
// Filter clauses are combined with AND; results are ordered by headword so
// catalog pages are stable.
func (s *PostgresWordStore) List(ctx context.Context, filter store.WordFilter) ([]*domain.Word, error) {
	log := logger.FromContext(ctx)

	var conditions []string
	var args []interface{}

	if filter.Level != "" {
		args = append(args, filter.Level)
		conditions = append(conditions, fmt.Sprintf("level = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}

	query := `SELECT ` + wordColumns + ` FROM words`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY polish ASC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query words", "error", err)
		return nil, fmt.Errorf("failed to query words: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanWords(rows)
}

// GetByIDs implements store.WordStore.GetByIDs
func (s *PostgresWordStore) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Word, error) {
	result := make(map[uuid.UUID]*domain.Word, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := `SELECT ` + wordColumns + ` FROM words WHERE id IN (` +
		strings.Join(placeholders, ", ") + `)`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Error("failed to query words by IDs", "error", err)
		return nil, fmt.Errorf("failed to query words by IDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	words, err := scanWords(rows)
	if err != nil {
		return nil, err
	}

	for _, w := range words {
		result[w.ID] = w
	}
	return result, nil
}

// scanWords drains a word result set.
func scanWords(rows *sql.Rows) ([]*domain.Word, error) {
	var words []*domain.Word

	for rows.Next() {
		var word domain.Word
		if err := rows.Scan(
			&word.ID,
			&word.Polish,
			&word.TranslationUK,
			&word.TranslationRU,
			&word.ExamplePL,
			&word.Level,
			&word.Category,
			&word.CreatedAt,
			&word.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan word row: %w", err)
		}
		words = append(words, &word)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating word rows: %w", err)
	}

	return words, nil
}
