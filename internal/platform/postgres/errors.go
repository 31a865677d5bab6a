// Package postgres contains the PostgreSQL implementations of the store
// interfaces. All SQL lives here; the rest of the application only sees the
// interfaces and sentinel errors defined in internal/store.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes
const uniqueViolationCode = "23505" // unique constraint violation

// isUniqueViolation checks if the given error is a PostgreSQL unique
// constraint violation. Used to map duplicate inserts (emails, headwords,
// review states) onto the store's duplicate sentinels.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return true
	}
	return false
}
