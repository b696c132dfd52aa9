package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gitlab.com/subshare/subshare/internal/database"
	"gitlab.com/subshare/subshare/internal/models"
)

const expiredColumns = listingColumns + `, expired_at, expiry_reason, original_subscription_id`

// ExpiredRepository handles archived listing database operations.
type ExpiredRepository struct {
	db database.PGXDB
}

// NewExpiredRepository creates a new ExpiredRepository.
func NewExpiredRepository(db database.PGXDB) *ExpiredRepository {
	return &ExpiredRepository{db: db}
}

func expiredDest(e *models.ExpiredListing) []any {
	return append(listingDest(&e.Listing), &e.ExpiredAt, &e.ExpiryReason, &e.OriginalSubscriptionID)
}

// Create archives a listing. A fresh ID is always assigned; the listing's own id
// belongs in OriginalSubscriptionID.
func (r *ExpiredRepository) Create(ctx context.Context, e *models.ExpiredListing) error {
	e.ID = uuid.NewString()
	args := append(listingArgs(&e.Listing), e.ExpiryReason, e.OriginalSubscriptionID)
	err := r.db.QueryRow(ctx, `
		INSERT INTO expired_listings (`+listingWriteColumns+`, expiry_reason, original_subscription_id)
		VALUES (`+placeholders(1, listingWriteCount+2)+`)
		RETURNING created_at, updated_at, expired_at
	`, args...).Scan(&e.CreatedAt, &e.UpdatedAt, &e.ExpiredAt)
	if err != nil {
		return wrapErr("create expired listing", err)
	}
	return nil
}

// GetByID retrieves an archived listing by ID.
func (r *ExpiredRepository) GetByID(ctx context.Context, id string) (*models.ExpiredListing, error) {
	var e models.ExpiredListing
	err := r.db.QueryRow(ctx, `SELECT `+expiredColumns+` FROM expired_listings WHERE id = $1`, id).
		Scan(expiredDest(&e)...)
	if err != nil {
		return nil, wrapErr("get expired listing", err)
	}
	return &e, nil
}

// ListByUser returns a member's archived listings, most recently expired first.
func (r *ExpiredRepository) ListByUser(ctx context.Context, userID string) ([]models.ExpiredListing, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+expiredColumns+` FROM expired_listings
		WHERE user_id = $1
		ORDER BY expired_at DESC, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user expired listings: %w", err)
	}
	return scanExpired(rows)
}

// ListAll returns every archived listing, most recently expired first.
func (r *ExpiredRepository) ListAll(ctx context.Context) ([]models.ExpiredListing, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+expiredColumns+` FROM expired_listings
		ORDER BY expired_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired listings: %w", err)
	}
	return scanExpired(rows)
}

func scanExpired(rows pgx.Rows) ([]models.ExpiredListing, error) {
	defer rows.Close()

	var out []models.ExpiredListing
	for rows.Next() {
		var e models.ExpiredListing
		if err := rows.Scan(expiredDest(&e)...); err != nil {
			return nil, fmt.Errorf("failed to scan expired listing: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expired listings: %w", err)
	}
	return out, nil
}

// Delete removes an archived listing by ID.
func (r *ExpiredRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM expired_listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expired listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete expired listing: %w", ErrNotFound)
	}
	return nil
}
