package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"docvault/internal/database"
	"docvault/internal/repository"
)

// translate maps driver errors onto the repository sentinels. The original
// error stays in the chain for logging.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	switch database.PgErrorCode(err) {
	case database.CodeUniqueViolation:
		return fmt.Errorf("%w: %s: %w", repository.ErrDuplicate, database.ConstraintName(err), err)
	case database.CodeForeignKeyViolation:
		return fmt.Errorf("%w: %s: %w", repository.ErrInvalidReference, database.ConstraintName(err), err)
	}
	return err
}
