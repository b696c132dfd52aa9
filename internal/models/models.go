// Package models defines the domain entities for the subscription marketplace.
package models

import (
	"time"
)

// MemberMarker prefixes the title of listings submitted by members.
const MemberMarker = "⭐ "

// DefaultPaymentMethod is used when a price line carries no payment method.
const DefaultPaymentMethod = "PIX"

// Approval statuses for pending submissions.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Expiry reasons for archived listings.
const (
	ExpiryWithdrawn = "withdrawn"
	ExpiryLapsed    = "lapsed"
	ExpiryAdmin     = "admin"
)

// Listing represents one shared-subscription offer.
type Listing struct {
	ID                string
	Code              string
	Title             string
	Price             string
	PaymentMethod     string
	Status            string
	Access            string
	HeaderColor       string
	PriceColor        string
	WhatsAppNumber    string
	TelegramUsername  string
	Icon              string
	AddedDate         string
	Featured          bool
	Visible           bool
	UserID            string
	ContactEmail      string
	PixKey            string
	PaymentProofImage string
	PixQRCode         string
	TelegramMessageID int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsMemberSubmitted reports whether the listing belongs to a member account.
func (l *Listing) IsMemberSubmitted() bool {
	return l.UserID != ""
}

// HasContact reports whether buyers can reach the listing owner.
func (l *Listing) HasContact() bool {
	return l.WhatsAppNumber != "" || l.TelegramUsername != ""
}

// PendingSubmission is a member-submitted listing awaiting review.
type PendingSubmission struct {
	Listing
	ApprovalStatus  string
	SubmittedAt     time.Time
	ReviewedAt      *time.Time
	RejectionReason string
	// TargetListingID is set when the submission modifies an existing listing.
	TargetListingID string
}

// ExpiredListing is a withdrawn or lapsed listing kept for resubmission.
type ExpiredListing struct {
	Listing
	ExpiredAt              time.Time
	ExpiryReason           string
	OriginalSubscriptionID string
}

// SupportMessage is a message sent to the support inbox.
type SupportMessage struct {
	ID        string
	UserID    string
	Name      string
	Email     string
	Subject   string
	Message   string
	Read      bool
	CreatedAt time.Time
}

// EmailMessage is the request accepted by the email dispatcher.
type EmailMessage struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Subject        string `json:"subject"`
	Message        string `json:"message"`
	RecipientEmail string `json:"recipientEmail,omitempty"`
}

// Listing orderings accepted by ListingFilter.
const (
	OrderRecent = "recent"
	OrderCode   = "code"
)

// ListingFilter narrows a listing query. The zero value returns every listing, newest first.
type ListingFilter struct {
	VisibleOnly  bool
	FeaturedOnly bool
	UserID       string
	OrderBy      string
}
