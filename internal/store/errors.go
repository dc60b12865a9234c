package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound tags a row that does not exist or belongs to another user.
	ErrNotFound = errors.New("record not found")
	// ErrPermissionDenied tags a rejection by the store's access policy.
	ErrPermissionDenied = errors.New("permission denied by store policy")
	// ErrConflict tags a uniqueness violation.
	ErrConflict = errors.New("record already exists")
)

// mapError converts driver/gorm errors into the tagged taxonomy. Anything
// unrecognized is wrapped and surfaces as an unknown store error.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42501": // insufficient_privilege (row-level security)
			return fmt.Errorf("%w: %s", ErrPermissionDenied, pgErr.Message)
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
		}
	}
	// sqlite surfaces constraint violations as plain error strings
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	if strings.Contains(strings.ToLower(err.Error()), "permission denied") {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return fmt.Errorf("store: %w", err)
}
