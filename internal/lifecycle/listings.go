package lifecycle

import (
	"context"
	"fmt"

	"gitlab.com/subshare/subshare/internal/catalog"
	"gitlab.com/subshare/subshare/internal/logger"
	"gitlab.com/subshare/subshare/internal/models"
)

// ListingPatch carries the fields an admin edit changes. Nil fields are kept.
// The code is not editable.
type ListingPatch struct {
	Title            *string `json:"title,omitempty"`
	Price            *string `json:"price,omitempty"`
	PaymentMethod    *string `json:"payment_method,omitempty"`
	Status           *string `json:"status,omitempty"`
	Access           *string `json:"access,omitempty"`
	WhatsAppNumber   *string `json:"whatsapp_number,omitempty"`
	TelegramUsername *string `json:"telegram_username,omitempty"`
	Icon             *string `json:"icon,omitempty"`
	HeaderColor      *string `json:"header_color,omitempty"`
	PriceColor       *string `json:"price_color,omitempty"`
	AddedDate        *string `json:"added_date,omitempty"`
	PixKey           *string `json:"pix_key,omitempty"`
}

func (p ListingPatch) apply(l *models.Listing) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&l.Title, p.Title)
	set(&l.Price, p.Price)
	set(&l.PaymentMethod, p.PaymentMethod)
	set(&l.Status, p.Status)
	set(&l.Access, p.Access)
	set(&l.WhatsAppNumber, p.WhatsAppNumber)
	set(&l.TelegramUsername, p.TelegramUsername)
	set(&l.Icon, p.Icon)
	set(&l.HeaderColor, p.HeaderColor)
	set(&l.PriceColor, p.PriceColor)
	set(&l.AddedDate, p.AddedDate)
	set(&l.PixKey, p.PixKey)
}

// SetVisible publishes or hides a listing. Hidden listings stay in the catalog
// but leave public queries and the channel.
func (c *Controller) SetVisible(ctx context.Context, id string, visible bool) (res *Result, err error) {
	ctx, done := c.observe(ctx, "set_visible")
	defer func() { done(err) }()

	l, err := c.stores.Listings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load listing: %w", err)
	}
	if err := c.stores.Listings.SetVisible(ctx, id, visible); err != nil {
		return nil, fmt.Errorf("set visibility: %w", err)
	}
	l.Visible = visible

	res = &Result{Listing: l}
	if visible {
		c.announce(ctx, res, l)
		return res, nil
	}

	c.unannounce(ctx, res, l)
	if l.TelegramMessageID != 0 {
		if err := c.stores.Listings.SetTelegramMessageID(ctx, id, 0); err != nil {
			res.warn("announcement id not cleared: " + err.Error())
		} else {
			l.TelegramMessageID = 0
		}
	}
	return res, nil
}

// SetFeatured promotes or demotes a listing.
func (c *Controller) SetFeatured(ctx context.Context, id string, featured bool) (res *Result, err error) {
	ctx, done := c.observe(ctx, "set_featured")
	defer func() { done(err) }()

	l, err := c.stores.Listings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load listing: %w", err)
	}
	if err := c.stores.Listings.SetFeatured(ctx, id, featured); err != nil {
		return nil, fmt.Errorf("set featured: %w", err)
	}
	l.Featured = featured

	res = &Result{Listing: l}
	if l.TelegramMessageID != 0 {
		c.announce(ctx, res, l)
	}
	return res, nil
}

// Update applies an admin edit to a listing and tells the owner.
func (c *Controller) Update(ctx context.Context, id string, patch ListingPatch) (res *Result, err error) {
	ctx, done := c.observe(ctx, "update")
	defer func() { done(err) }()

	l, err := c.stores.Listings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load listing: %w", err)
	}

	patch.apply(l)
	normalizeDraft(l)
	if err := validateListing(l).orNil(); err != nil {
		return nil, err
	}
	catalog.ApplyDefaults(l)

	if err := c.stores.Listings.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("update listing: %w", err)
	}

	c.log.Info().Str("code", l.Code).Msg("Listing updated")

	res = &Result{Listing: l}
	if l.TelegramMessageID != 0 {
		c.announce(ctx, res, l)
	}
	if l.IsMemberSubmitted() {
		c.mail(ctx, res, c.modifiedNotice(l))
	}
	return res, nil
}

// Expire moves a listing to the archive. The archived copy keeps the listing's
// fields, hidden and unannounced, so a resubmission starts from them.
func (c *Controller) Expire(ctx context.Context, id, reason string) (res *Result, err error) {
	ctx, done := c.observe(ctx, "expire")
	defer func() { done(err) }()

	if reason == "" {
		reason = models.ExpiryAdmin
	}

	var (
		original models.Listing
		archived *models.ExpiredListing
	)
	err = c.tx.InTx(ctx, func(s Stores) error {
		l, err := s.Listings.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load listing: %w", err)
		}
		original = *l

		archived = &models.ExpiredListing{
			Listing:                *l,
			ExpiryReason:           reason,
			OriginalSubscriptionID: l.ID,
		}
		archived.Visible = false
		archived.TelegramMessageID = 0

		if err := s.Expired.Create(ctx, archived); err != nil {
			return fmt.Errorf("archive listing: %w", err)
		}
		if err := s.Listings.Delete(ctx, l.ID); err != nil {
			return fmt.Errorf("remove listing: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Info().Str("code", original.Code).Str("reason", reason).Msg("Listing expired")

	res = &Result{Expired: archived}
	c.unannounce(ctx, res, &original)
	if reason == models.ExpiryLapsed && original.IsMemberSubmitted() {
		c.mail(ctx, res, c.lapsedNotice(&original))
	}
	return res, nil
}

// Withdraw lets a member take down their own listing. It is archived and can be resubmitted.
func (c *Controller) Withdraw(ctx context.Context, id, userID string) (*Result, error) {
	if err := c.checkOwner(ctx, id, userID); err != nil {
		return nil, err
	}
	return c.Expire(ctx, id, models.ExpiryWithdrawn)
}

// Resubmit turns an archived listing back into a pending submission dated today.
// This is the only way back after expiry.
func (c *Controller) Resubmit(ctx context.Context, expiredID, userID string) (res *Result, err error) {
	ctx, done := c.observe(ctx, "resubmit")
	defer func() { done(err) }()

	var pending *models.PendingSubmission
	err = c.tx.InTx(ctx, func(s Stores) error {
		e, err := s.Expired.GetByID(ctx, expiredID)
		if err != nil {
			return fmt.Errorf("load archived listing: %w", err)
		}
		if userID != "" && e.UserID != userID {
			return fmt.Errorf("resubmit %s: %w", e.Code, ErrForbidden)
		}

		pending = &models.PendingSubmission{
			Listing:        e.Listing,
			ApprovalStatus: models.ApprovalPending,
		}
		pending.ID = ""
		pending.AddedDate = c.today()

		if err := s.Pending.Create(ctx, pending); err != nil {
			return fmt.Errorf("create submission: %w", err)
		}
		if err := s.Expired.Delete(ctx, e.ID); err != nil {
			return fmt.Errorf("remove archived listing: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Info().
		Str("code", pending.Code).
		Str("user", logger.HashAccountID(pending.UserID)).
		Msg("Archived listing resubmitted")

	res = &Result{Pending: pending}
	c.mail(ctx, res, c.submissionNotice(pending))
	return res, nil
}

// Delete removes a listing for good.
func (c *Controller) Delete(ctx context.Context, id string) (res *Result, err error) {
	ctx, done := c.observe(ctx, "delete")
	defer func() { done(err) }()

	l, err := c.stores.Listings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load listing: %w", err)
	}
	if err := c.stores.Listings.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete listing: %w", err)
	}

	c.log.Info().Str("code", l.Code).Msg("Listing deleted")

	res = &Result{Listing: l}
	c.unannounce(ctx, res, l)
	return res, nil
}

// DeleteOwned lets a member delete their own listing.
func (c *Controller) DeleteOwned(ctx context.Context, id, userID string) (*Result, error) {
	if err := c.checkOwner(ctx, id, userID); err != nil {
		return nil, err
	}
	return c.Delete(ctx, id)
}

func (c *Controller) checkOwner(ctx context.Context, id, userID string) error {
	l, err := c.stores.Listings.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load listing: %w", err)
	}
	if userID == "" || l.UserID != userID {
		return fmt.Errorf("listing %s: %w", l.Code, ErrForbidden)
	}
	return nil
}
