package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gitlab.com/subshare/subshare/internal/database"
	"gitlab.com/subshare/subshare/internal/models"
)

const pendingColumns = listingColumns + `, approval_status, submitted_at, reviewed_at, rejection_reason, target_listing_id`

// PendingRepository handles pending submission database operations.
type PendingRepository struct {
	db database.PGXDB
}

// NewPendingRepository creates a new PendingRepository.
func NewPendingRepository(db database.PGXDB) *PendingRepository {
	return &PendingRepository{db: db}
}

func pendingDest(p *models.PendingSubmission) []any {
	return append(listingDest(&p.Listing),
		&p.ApprovalStatus, &p.SubmittedAt, &p.ReviewedAt, &p.RejectionReason, &p.TargetListingID)
}

// Create stores a submission. Status defaults to pending.
func (r *PendingRepository) Create(ctx context.Context, p *models.PendingSubmission) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.ApprovalStatus == "" {
		p.ApprovalStatus = models.ApprovalPending
	}
	args := append(listingArgs(&p.Listing), p.ApprovalStatus, p.RejectionReason, p.TargetListingID)
	err := r.db.QueryRow(ctx, `
		INSERT INTO pending_submissions (`+listingWriteColumns+`, approval_status, rejection_reason, target_listing_id)
		VALUES (`+placeholders(1, listingWriteCount+3)+`)
		RETURNING created_at, updated_at, submitted_at
	`, args...).Scan(&p.CreatedAt, &p.UpdatedAt, &p.SubmittedAt)
	if err != nil {
		return wrapErr("create pending submission", err)
	}
	return nil
}

// GetByID retrieves a submission by ID.
func (r *PendingRepository) GetByID(ctx context.Context, id string) (*models.PendingSubmission, error) {
	var p models.PendingSubmission
	err := r.db.QueryRow(ctx, `SELECT `+pendingColumns+` FROM pending_submissions WHERE id = $1`, id).
		Scan(pendingDest(&p)...)
	if err != nil {
		return nil, wrapErr("get pending submission", err)
	}
	return &p, nil
}

// ListPending returns submissions still awaiting review, oldest first.
func (r *PendingRepository) ListPending(ctx context.Context) ([]models.PendingSubmission, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+pendingColumns+` FROM pending_submissions
		WHERE approval_status = $1
		ORDER BY submitted_at, id
	`, models.ApprovalPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending submissions: %w", err)
	}
	return scanPending(rows)
}

// ListByUser returns a member's submissions, newest first.
func (r *PendingRepository) ListByUser(ctx context.Context, userID string) ([]models.PendingSubmission, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+pendingColumns+` FROM pending_submissions
		WHERE user_id = $1
		ORDER BY submitted_at DESC, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user submissions: %w", err)
	}
	return scanPending(rows)
}

func scanPending(rows pgx.Rows) ([]models.PendingSubmission, error) {
	defer rows.Close()

	var out []models.PendingSubmission
	for rows.Next() {
		var p models.PendingSubmission
		if err := rows.Scan(pendingDest(&p)...); err != nil {
			return nil, fmt.Errorf("failed to scan pending submission: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending submissions: %w", err)
	}
	return out, nil
}

// Delete removes a submission by ID.
func (r *PendingRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pending_submissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pending submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete pending submission: %w", ErrNotFound)
	}
	return nil
}
