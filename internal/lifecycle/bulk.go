package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gitlab.com/subshare/subshare/internal/catalog"
	"gitlab.com/subshare/subshare/internal/logger"
	"gitlab.com/subshare/subshare/internal/models"
)

// BatchResult reports a multi-record operation that may partly fail.
type BatchResult struct {
	Success  int                `json:"success"`
	Errors   int                `json:"errors"`
	Failures []string           `json:"failures,omitempty"`
	Stats    catalog.BatchStats `json:"stats"`
}

func (b *BatchResult) fail(format string, args ...any) {
	b.Errors++
	b.Failures = append(b.Failures, fmt.Sprintf(format, args...))
}

// ImportText replaces the whole catalog with the listings in a TXT backup.
// Listings without a code get one under category; duplicate codes are moved.
// Imported listings are visible. An error wrapping models.ErrCatalogEmptied
// means the old catalog is gone and the import must be retried.
func (c *Controller) ImportText(ctx context.Context, text string, category int) (n int, err error) {
	ctx, done := c.observe(ctx, "import_text")
	defer func() { done(err) }()

	listings := catalog.FromText(text)
	if len(listings) == 0 {
		ve := &ValidationError{}
		ve.add("text", "no listings found")
		return 0, ve
	}

	listings = catalog.AssignCodes(listings, c.cfg.CodePrefix, category, nil)
	for i := range listings {
		if listings[i].PaymentMethod == "" {
			listings[i].PaymentMethod = models.DefaultPaymentMethod
		}
		listings[i].Visible = true
		catalog.ApplyDefaults(&listings[i])
	}

	if err := c.stores.Listings.ReplaceAll(ctx, listings); err != nil {
		if errors.Is(err, models.ErrCatalogEmptied) {
			c.log.Error().Err(err).Int("listings", len(listings)).Msg("Import left the catalog empty")
		}
		return 0, fmt.Errorf("replace catalog: %w", err)
	}

	c.log.Info().
		Int("listings", len(listings)).
		Str("input", logger.SanitizeImport(text)).
		Msg("Catalog replaced from text import")
	return len(listings), nil
}

// PreviewText parses a TXT backup without storing anything.
func (c *Controller) PreviewText(text string, category int) []models.Listing {
	return catalog.AssignCodes(catalog.FromText(text), c.cfg.CodePrefix, category, nil)
}

// ImportChat adds the listings found in a copied chat history. Each message is
// parsed on its own; messages the marker parser cannot complete go to the
// extractor when one is configured. Records are created one by one with fresh
// codes and no rollback, so the result may be mixed. category 0 picks the
// category from each title.
func (c *Controller) ImportChat(ctx context.Context, text string, category int) (res *BatchResult, err error) {
	ctx, done := c.observe(ctx, "import_chat")
	defer func() { done(err) }()

	fragments := c.cfg.Parser.SplitBatch(text)
	res = &BatchResult{Stats: catalog.BatchStats{Fragments: len(fragments)}}
	if len(fragments) == 0 {
		return res, nil
	}

	taken, err := issuedCodes(ctx, c.stores.Listings, c.cfg.CodePrefix)
	if err != nil {
		return nil, err
	}

	for i, fragment := range fragments {
		l := c.parseFragment(ctx, fragment, &res.Stats)
		if l == nil {
			res.Stats.Discarded++
			res.fail("message %d: no listing found", i+1)
			continue
		}
		res.Stats.Parsed++

		normalizeDraft(l)
		if missing := missingFields(l); len(missing) > 0 {
			res.fail("message %d (%s): missing %s", i+1, l.Title, strings.Join(missing, ", "))
			continue
		}

		cat := category
		if cat == 0 {
			cat = catalog.CategoryFor(l.Title)
		}
		l.Code = catalog.NextFreeCode(c.cfg.CodePrefix, cat, taken)
		l.Visible = true
		if l.AddedDate == "" {
			l.AddedDate = c.today()
		}
		catalog.ApplyDefaults(l)

		if err := c.stores.Listings.Create(ctx, l); err != nil {
			c.log.Warn().Err(err).Int("message", i+1).Msg("Failed to store imported listing")
			res.fail("message %d (%s): %v", i+1, l.Title, err)
			continue
		}
		taken[l.Code] = true
		res.Success++
	}

	c.log.Info().
		Int("success", res.Success).
		Int("errors", res.Errors).
		Int("suspected_merges", res.Stats.SuspectedMerges).
		Msg("Chat import finished")
	return res, nil
}

func (c *Controller) parseFragment(ctx context.Context, fragment string, stats *catalog.BatchStats) *models.Listing {
	if catalog.LooksMerged(fragment) {
		stats.SuspectedMerges++
	}

	l := c.cfg.Parser.ParseOne(fragment)
	if l != nil && l.Title != "" && l.Price != "" {
		return l
	}
	if c.extractor == nil {
		return l
	}

	extracted, err := c.extractor.ExtractListing(ctx, fragment)
	if err != nil {
		c.log.Warn().Err(err).Msg("Listing extractor failed")
		return l
	}
	if extracted == nil {
		return l
	}
	catalog.ApplyDefaults(extracted)
	return extracted
}

// missingFields lists what an imported message lacks to become a listing.
// Channel history predates contact validation, so only presence is checked.
func missingFields(l *models.Listing) []string {
	var missing []string
	if strings.TrimSpace(strings.TrimPrefix(l.Title, models.MemberMarker)) == "" {
		missing = append(missing, "title")
	}
	if l.Price == "" {
		missing = append(missing, "price")
	}
	if !l.HasContact() {
		missing = append(missing, "contact")
	}
	return missing
}

// ExportText renders the whole catalog in the TXT backup format, ordered by code.
func (c *Controller) ExportText(ctx context.Context) (text string, err error) {
	ctx, done := c.observe(ctx, "export_text")
	defer func() { done(err) }()

	listings, err := c.stores.Listings.List(ctx, models.ListingFilter{OrderBy: models.OrderCode})
	if err != nil {
		return "", fmt.Errorf("list listings: %w", err)
	}
	return catalog.ToText(listings), nil
}

// SweepLapsed expires member listings older than the configured TTL.
// Admin-curated listings and listings without a readable date never lapse.
func (c *Controller) SweepLapsed(ctx context.Context, now time.Time) (expired int, err error) {
	listings, err := c.stores.Listings.List(ctx, models.ListingFilter{})
	if err != nil {
		return 0, fmt.Errorf("list listings: %w", err)
	}

	var errs []error
	for i := range listings {
		l := &listings[i]
		if !l.IsMemberSubmitted() || !catalog.IsLapsed(l.AddedDate, c.cfg.ListingTTL, now) {
			continue
		}
		if _, err := c.Expire(ctx, l.ID, models.ExpiryLapsed); err != nil {
			errs = append(errs, fmt.Errorf("expire %s: %w", l.Code, err))
			continue
		}
		expired++
	}
	return expired, errors.Join(errs...)
}

// ExpiringSoon returns member listings that lapse within the given number of days.
func (c *Controller) ExpiringSoon(ctx context.Context, now time.Time, within int) ([]models.Listing, error) {
	listings, err := c.stores.Listings.List(ctx, models.ListingFilter{VisibleOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}

	var out []models.Listing
	for _, l := range listings {
		if !l.IsMemberSubmitted() {
			continue
		}
		if days, ok := catalog.DaysUntilExpiry(l.AddedDate, c.cfg.ListingTTL, now); ok && days >= 0 && days <= within {
			out = append(out, l)
		}
	}
	return out, nil
}
