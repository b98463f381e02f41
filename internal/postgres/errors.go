package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rpggio/civicmatch/internal/repository"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// constraintError translates constraint violations into repository errors.
// It returns nil for any other error.
func constraintError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return repository.ErrConflict
		case foreignKeyViolation:
			return repository.ErrForeignKeyViolation
		}
	}
	return nil
}
