package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gitlab.com/subshare/subshare/internal/database"
)

// AdminRepository answers role checks for web accounts.
type AdminRepository struct {
	db database.PGXDB
}

// NewAdminRepository creates a new AdminRepository.
func NewAdminRepository(db database.PGXDB) *AdminRepository {
	return &AdminRepository{db: db}
}

// IsAdmin reports whether the account has the admin role.
func (r *AdminRepository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM admin_users WHERE user_id = $1)
	`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check admin role: %w", err)
	}
	return exists, nil
}

// Grant gives the account the admin role. Granting twice is a no-op.
func (r *AdminRepository) Grant(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO admin_users (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to grant admin role: %w", err)
	}
	return nil
}

// Revoke removes the admin role.
func (r *AdminRepository) Revoke(ctx context.Context, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM admin_users WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke admin role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to revoke admin role: %w", ErrNotFound)
	}
	return nil
}

// List returns every admin account id.
func (r *AdminRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM admin_users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query admins: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect admins: %w", err)
	}
	return ids, nil
}
