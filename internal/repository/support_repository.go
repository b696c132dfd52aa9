package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"gitlab.com/subshare/subshare/internal/database"
	"gitlab.com/subshare/subshare/internal/models"
)

// SupportRepository handles support inbox database operations.
type SupportRepository struct {
	db database.PGXDB
}

// NewSupportRepository creates a new SupportRepository.
func NewSupportRepository(db database.PGXDB) *SupportRepository {
	return &SupportRepository{db: db}
}

// Create stores a support message.
func (r *SupportRepository) Create(ctx context.Context, m *models.SupportMessage) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO support_messages (id, user_id, name, email, subject, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING read, created_at
	`, m.ID, m.UserID, m.Name, m.Email, m.Subject, m.Message).Scan(&m.Read, &m.CreatedAt)
	if err != nil {
		return wrapErr("create support message", err)
	}
	return nil
}

// ListUnread returns unread messages, oldest first.
func (r *SupportRepository) ListUnread(ctx context.Context) ([]models.SupportMessage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, email, subject, message, read, created_at
		FROM support_messages
		WHERE NOT read
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query support messages: %w", err)
	}
	defer rows.Close()

	var out []models.SupportMessage
	for rows.Next() {
		var m models.SupportMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.Read, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan support message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating support messages: %w", err)
	}
	return out, nil
}

// CountUnread returns the number of unread messages.
func (r *SupportRepository) CountUnread(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM support_messages WHERE NOT read`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count unread support messages: %w", err)
	}
	return n, nil
}

// MarkRead flags a message as read.
func (r *SupportRepository) MarkRead(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE support_messages SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark support message read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to mark support message read: %w", ErrNotFound)
	}
	return nil
}
