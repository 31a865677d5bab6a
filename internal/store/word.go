package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/slowka/slowka-api/internal/domain"
)

// WordFilter narrows List queries over the vocabulary catalog.
// Zero values mean "no constraint".
type WordFilter struct {
	Level    domain.Level
	Category string
	Limit    int
	Offset   int
}

// WordStore defines the interface for vocabulary catalog persistence.
type WordStore interface {
	// Create saves a new word to the catalog.
	// Returns ErrDuplicate if the Polish headword already exists.
	Create(ctx context.Context, word *domain.Word) error

	// GetByID retrieves a word by its unique ID.
	// Returns ErrWordNotFound if the word does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Word, error)

	// List returns catalog entries matching the filter, ordered by
	// headword.
	List(ctx context.Context, filter WordFilter) ([]*domain.Word, error)

	// GetByIDs retrieves multiple words at once, keyed by ID. Missing IDs
	// are simply absent from the result; no error is returned for them.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Word, error)

	// WithTx returns a new WordStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) WordStore
}
