package lifecycle

import (
	"context"

	"gitlab.com/subshare/subshare/internal/models"
)

// ListingStore persists published listings.
type ListingStore interface {
	List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error)
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	GetByCode(ctx context.Context, code string) (*models.Listing, error)
	Create(ctx context.Context, l *models.Listing) error
	Update(ctx context.Context, l *models.Listing) error
	Delete(ctx context.Context, id string) error
	SetVisible(ctx context.Context, id string, visible bool) error
	SetFeatured(ctx context.Context, id string, featured bool) error
	SetTelegramMessageID(ctx context.Context, id string, messageID int) error
	ReplaceAll(ctx context.Context, listings []models.Listing) error
	Codes(ctx context.Context, prefix string) ([]string, error)
	IssuedCodes(ctx context.Context, prefix string) ([]string, error)
	CountByIcon(ctx context.Context) (map[string]int, error)
}

// PendingStore persists submissions awaiting review.
type PendingStore interface {
	Create(ctx context.Context, p *models.PendingSubmission) error
	GetByID(ctx context.Context, id string) (*models.PendingSubmission, error)
	ListPending(ctx context.Context) ([]models.PendingSubmission, error)
	ListByUser(ctx context.Context, userID string) ([]models.PendingSubmission, error)
	Delete(ctx context.Context, id string) error
}

// ExpiredStore persists withdrawn and lapsed listings.
type ExpiredStore interface {
	Create(ctx context.Context, e *models.ExpiredListing) error
	GetByID(ctx context.Context, id string) (*models.ExpiredListing, error)
	ListByUser(ctx context.Context, userID string) ([]models.ExpiredListing, error)
	ListAll(ctx context.Context) ([]models.ExpiredListing, error)
	Delete(ctx context.Context, id string) error
}

// SupportStore persists messages sent to support.
type SupportStore interface {
	Create(ctx context.Context, m *models.SupportMessage) error
	ListUnread(ctx context.Context) ([]models.SupportMessage, error)
	CountUnread(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) error
}

// Stores groups the record families, all bound to the same database handle.
type Stores struct {
	Listings ListingStore
	Pending  PendingStore
	Expired  ExpiredStore
	Support  SupportStore
}

// Transactor runs fn with Stores bound to a single transaction.
// The transaction commits when fn returns nil.
type Transactor interface {
	InTx(ctx context.Context, fn func(s Stores) error) error
}
