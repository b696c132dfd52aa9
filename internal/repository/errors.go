// Package repository provides database access for domain entities.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"gitlab.com/subshare/subshare/internal/models"
)

// Errors re-exported for callers that only import the repository.
var (
	ErrNotFound       = models.ErrNotFound
	ErrConflict       = models.ErrConflict
	ErrCatalogEmptied = models.ErrCatalogEmptied
)

// isUniqueViolation reports a PostgreSQL unique constraint violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// wrapErr maps driver errors onto the sentinel errors, keeping the store message.
func wrapErr(action string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("failed to %s: %w", action, ErrNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("failed to %s: %w: %s", action, ErrConflict, err.Error())
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}

// placeholders returns "$from, ..., $from+n-1".
func placeholders(from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(parts, ", ")
}
