package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"gitlab.com/subshare/subshare/internal/catalog"
	"gitlab.com/subshare/subshare/internal/logger"
	"gitlab.com/subshare/subshare/internal/models"
)

// prepareSubmission normalizes and validates a member draft and shapes it into
// a pending record. Nothing is stored.
func (c *Controller) prepareSubmission(draft models.Listing, userID, email string) (*models.PendingSubmission, error) {
	ve := &ValidationError{}
	if userID == "" {
		ve.add("user", "is required")
	}

	draft.ContactEmail = email
	normalizeDraft(&draft)
	if v := validateListing(&draft); v.orNil() != nil {
		for field, msg := range v.Fields {
			ve.add(field, msg)
		}
	}
	if err := ve.orNil(); err != nil {
		return nil, err
	}

	if !strings.HasPrefix(draft.Title, models.MemberMarker) {
		draft.Title = models.MemberMarker + draft.Title
	}
	if draft.AddedDate == "" {
		draft.AddedDate = c.today()
	}
	catalog.ApplyDefaults(&draft)

	draft.ID = ""
	draft.Code = ""
	draft.UserID = userID
	draft.Visible = false
	draft.Featured = false
	draft.TelegramMessageID = 0

	return &models.PendingSubmission{
		Listing:        draft,
		ApprovalStatus: models.ApprovalPending,
	}, nil
}

// Submit stores a member's new listing for admin review.
func (c *Controller) Submit(ctx context.Context, draft models.Listing, userID, email string) (res *Result, err error) {
	ctx, done := c.observe(ctx, "submit")
	defer func() { done(err) }()

	p, err := c.prepareSubmission(draft, userID, email)
	if err != nil {
		return nil, err
	}
	if err := c.stores.Pending.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("store submission: %w", err)
	}

	c.log.Info().
		Str("pending_id", p.ID).
		Str("user", logger.HashAccountID(userID)).
		Msg("Listing submitted for review")

	res = &Result{Pending: p}
	c.mail(ctx, res, c.submissionNotice(p))
	return res, nil
}

// SubmitChange stores a member's edit of one of their published listings for review.
// Approval applies it to the listing; the code never changes.
func (c *Controller) SubmitChange(ctx context.Context, listingID string, draft models.Listing, userID, email string) (res *Result, err error) {
	ctx, done := c.observe(ctx, "submit_change")
	defer func() { done(err) }()

	p, err := c.prepareSubmission(draft, userID, email)
	if err != nil {
		return nil, err
	}

	target, err := c.stores.Listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("load listing: %w", err)
	}
	if target.UserID != userID {
		return nil, fmt.Errorf("change listing %s: %w", target.Code, ErrForbidden)
	}

	p.TargetListingID = target.ID
	p.Code = target.Code
	if err := c.stores.Pending.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("store change request: %w", err)
	}

	c.log.Info().
		Str("pending_id", p.ID).
		Str("code", target.Code).
		Str("user", logger.HashAccountID(userID)).
		Msg("Listing change submitted for review")

	res = &Result{Pending: p}
	c.mail(ctx, res, c.submissionNotice(p))
	return res, nil
}
