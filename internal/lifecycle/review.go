package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gitlab.com/subshare/subshare/internal/catalog"
	"gitlab.com/subshare/subshare/internal/models"
)

// Approve publishes a pending submission. A new submission becomes a visible
// listing with a unique code; a change request overwrites its target listing.
// The pending record is deleted in the same transaction.
func (c *Controller) Approve(ctx context.Context, pendingID string) (res *Result, err error) {
	ctx, done := c.observe(ctx, "approve")
	defer func() { done(err) }()

	var (
		listing  models.Listing
		isChange bool
	)
	err = c.tx.InTx(ctx, func(s Stores) error {
		p, err := s.Pending.GetByID(ctx, pendingID)
		if err != nil {
			return fmt.Errorf("load submission: %w", err)
		}
		now := c.now()
		p.ReviewedAt = &now
		p.ApprovalStatus = models.ApprovalApproved

		if p.TargetListingID != "" {
			isChange = true
			listing, err = applyChange(ctx, s, p)
		} else {
			listing, err = c.publishNew(ctx, s, p)
		}
		if err != nil {
			return err
		}

		if err := s.Pending.Delete(ctx, p.ID); err != nil {
			return fmt.Errorf("remove submission: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Info().Str("code", listing.Code).Bool("change", isChange).Msg("Submission approved")

	res = &Result{Listing: &listing}
	c.announce(ctx, res, &listing)
	if isChange {
		c.mail(ctx, res, c.modifiedNotice(&listing))
	} else {
		c.mail(ctx, res, c.approvedNotice(&listing))
	}
	return res, nil
}

func applyChange(ctx context.Context, s Stores, p *models.PendingSubmission) (models.Listing, error) {
	target, err := s.Listings.GetByID(ctx, p.TargetListingID)
	if err != nil {
		return models.Listing{}, fmt.Errorf("load listing to change: %w", err)
	}

	updated := p.Listing
	updated.ID = target.ID
	updated.Code = target.Code
	updated.UserID = target.UserID
	updated.Featured = target.Featured
	updated.TelegramMessageID = target.TelegramMessageID
	updated.Visible = true
	if updated.ContactEmail == "" {
		updated.ContactEmail = target.ContactEmail
	}

	if err := s.Listings.Update(ctx, &updated); err != nil {
		return models.Listing{}, fmt.Errorf("apply change: %w", err)
	}
	return updated, nil
}

func (c *Controller) publishNew(ctx context.Context, s Stores, p *models.PendingSubmission) (models.Listing, error) {
	l := p.Listing
	l.ID = ""
	l.Visible = true

	// A resubmitted listing carries the code it was first issued and keeps it.
	if l.Code != "" {
		live, err := s.Listings.Codes(ctx, c.cfg.CodePrefix)
		if err != nil {
			return models.Listing{}, fmt.Errorf("load codes: %w", err)
		}
		if slices.Contains(live, l.Code) {
			l.Code = ""
		}
	}
	if l.Code == "" {
		taken, err := issuedCodes(ctx, s.Listings, c.cfg.CodePrefix)
		if err != nil {
			return models.Listing{}, err
		}
		l.Code = catalog.NextFreeCode(c.cfg.CodePrefix, catalog.CategoryFor(l.Title), taken)
	}

	if err := s.Listings.Create(ctx, &l); err != nil {
		return models.Listing{}, fmt.Errorf("create listing: %w", err)
	}
	return l, nil
}

// Reject deletes a pending submission and tells the member why.
func (c *Controller) Reject(ctx context.Context, pendingID, reason string) (res *Result, err error) {
	ctx, done := c.observe(ctx, "reject")
	defer func() { done(err) }()

	var p *models.PendingSubmission
	err = c.tx.InTx(ctx, func(s Stores) error {
		var err error
		p, err = s.Pending.GetByID(ctx, pendingID)
		if err != nil {
			return fmt.Errorf("load submission: %w", err)
		}
		if err := s.Pending.Delete(ctx, p.ID); err != nil {
			return fmt.Errorf("remove submission: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := c.now()
	p.ReviewedAt = &now
	p.ApprovalStatus = models.ApprovalRejected
	p.RejectionReason = reason

	c.log.Info().Str("pending_id", p.ID).Msg("Submission rejected")

	res = &Result{Pending: p}
	c.mail(ctx, res, c.rejectedNotice(p, reason))
	return res, nil
}

// PendingForReview returns submissions awaiting review, oldest first.
func (c *Controller) PendingForReview(ctx context.Context) ([]models.PendingSubmission, error) {
	pending, err := c.stores.Pending.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return pending, nil
}

// IsNotFound reports whether err means the record is gone.
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}

// issuedCodes returns every code ever given out under prefix, archived and
// deleted listings included.
func issuedCodes(ctx context.Context, listings ListingStore, prefix string) (map[string]bool, error) {
	codes, err := listings.IssuedCodes(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("load issued codes: %w", err)
	}
	taken := make(map[string]bool, len(codes))
	for _, code := range codes {
		taken[code] = true
	}
	return taken, nil
}
