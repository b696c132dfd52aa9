package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gitlab.com/subshare/subshare/internal/database"
	"gitlab.com/subshare/subshare/internal/models"
)

// ListingRepository handles listing database operations.
type ListingRepository struct {
	db database.PGXDB
}

// NewListingRepository creates a new ListingRepository.
func NewListingRepository(db database.PGXDB) *ListingRepository {
	return &ListingRepository{db: db}
}

// List returns listings matching filter.
func (r *ListingRepository) List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	var (
		where []string
		args  []any
	)
	if filter.VisibleOnly {
		where = append(where, "visible")
	}
	if filter.FeaturedOnly {
		where = append(where, "featured")
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}

	query := `SELECT ` + listingColumns + ` FROM listings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	switch filter.OrderBy {
	case models.OrderCode:
		query += ` ORDER BY code`
	default:
		query += ` ORDER BY created_at DESC, code`
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(listingDest(&l)...); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}
	return listings, nil
}

// GetByID retrieves a listing by ID.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	var l models.Listing
	err := r.db.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id).
		Scan(listingDest(&l)...)
	if err != nil {
		return nil, wrapErr("get listing", err)
	}
	return &l, nil
}

// GetByCode retrieves a listing by its display code.
func (r *ListingRepository) GetByCode(ctx context.Context, code string) (*models.Listing, error) {
	var l models.Listing
	err := r.db.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE code = $1`, code).
		Scan(listingDest(&l)...)
	if err != nil {
		return nil, wrapErr("get listing by code", err)
	}
	return &l, nil
}

// Create inserts a listing, assigning an ID when it has none.
func (r *ListingRepository) Create(ctx context.Context, l *models.Listing) error {
	return insertListing(ctx, r.db, l)
}

func insertListing(ctx context.Context, db database.PGXDB, l *models.Listing) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	err := db.QueryRow(ctx, `
		INSERT INTO listings (`+listingWriteColumns+`)
		VALUES (`+placeholders(1, listingWriteCount)+`)
		RETURNING created_at, updated_at
	`, listingArgs(l)...).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return wrapErr("create listing", err)
	}
	return reserveCode(ctx, db, l.Code)
}

// reserveCode records code as issued so it is never handed out again.
func reserveCode(ctx context.Context, db database.PGXDB, code string) error {
	if code == "" {
		return nil
	}
	if _, err := db.Exec(ctx,
		`INSERT INTO issued_codes (code) VALUES ($1) ON CONFLICT DO NOTHING`, code); err != nil {
		return fmt.Errorf("failed to reserve code %s: %w", code, err)
	}
	return nil
}

// Update overwrites every field of an existing listing.
func (r *ListingRepository) Update(ctx context.Context, l *models.Listing) error {
	err := r.db.QueryRow(ctx, `
		UPDATE listings SET
			code = $2, title = $3, price = $4, payment_method = $5, status = $6, access = $7,
			header_color = $8, price_color = $9, whatsapp_number = $10, telegram_username = $11,
			icon = $12, added_date = $13, featured = $14, visible = $15, user_id = $16,
			contact_email = $17, pix_key = $18, payment_proof_image = $19, pix_qr_code = $20,
			telegram_message_id = $21, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, listingArgs(l)...).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return wrapErr("update listing", err)
	}
	return reserveCode(ctx, r.db, l.Code)
}

// Delete removes a listing by ID.
func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete listing: %w", ErrNotFound)
	}
	return nil
}

// SetVisible publishes or hides a listing.
func (r *ListingRepository) SetVisible(ctx context.Context, id string, visible bool) error {
	return r.setFlag(ctx, "visible", id, visible)
}

// SetFeatured promotes or demotes a listing.
func (r *ListingRepository) SetFeatured(ctx context.Context, id string, featured bool) error {
	return r.setFlag(ctx, "featured", id, featured)
}

func (r *ListingRepository) setFlag(ctx context.Context, column, id string, value bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE listings SET `+column+` = $2, updated_at = NOW() WHERE id = $1`, id, value)
	if err != nil {
		return fmt.Errorf("failed to set listing %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to set listing %s: %w", column, ErrNotFound)
	}
	return nil
}

// SetTelegramMessageID records the channel announcement for a listing. Zero clears it.
func (r *ListingRepository) SetTelegramMessageID(ctx context.Context, id string, messageID int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE listings SET telegram_message_id = $2 WHERE id = $1`, id, messageID)
	if err != nil {
		return fmt.Errorf("failed to set telegram message id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to set telegram message id: %w", ErrNotFound)
	}
	return nil
}

// ReplaceAll deletes every listing and inserts listings in their place.
// When the handle can begin a transaction both steps run in it, so a failed
// insert restores the previous catalog. Otherwise a failed insert after the
// delete returns an error wrapping ErrCatalogEmptied.
func (r *ListingRepository) ReplaceAll(ctx context.Context, listings []models.Listing) error {
	if beginner, ok := r.db.(database.TxBeginner); ok {
		return database.RunInTx(ctx, beginner, func(tx pgx.Tx) error {
			return replaceAll(ctx, tx, listings)
		})
	}

	err := replaceAll(ctx, r.db, listings)
	var emptied *catalogEmptiedError
	if errors.As(err, &emptied) {
		return fmt.Errorf("%w: %w", ErrCatalogEmptied, emptied.err)
	}
	return err
}

type catalogEmptiedError struct{ err error }

func (e *catalogEmptiedError) Error() string { return e.err.Error() }
func (e *catalogEmptiedError) Unwrap() error { return e.err }

func replaceAll(ctx context.Context, db database.PGXDB, listings []models.Listing) error {
	if _, err := db.Exec(ctx, `DELETE FROM listings`); err != nil {
		return fmt.Errorf("failed to clear listings: %w", err)
	}
	for i := range listings {
		if err := insertListing(ctx, db, &listings[i]); err != nil {
			return &catalogEmptiedError{err: fmt.Errorf("listing %d (%s): %w", i+1, listings[i].Code, err)}
		}
	}
	return nil
}

// Codes returns every listing code starting with prefix.
func (r *ListingRepository) Codes(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT code FROM listings WHERE starts_with(code, $1) ORDER BY code`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query listing codes: %w", err)
	}
	defer rows.Close()

	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect listing codes: %w", err)
	}
	return codes, nil
}

// IssuedCodes returns every code starting with prefix that was ever given to
// a listing, including listings since archived or deleted.
func (r *ListingRepository) IssuedCodes(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT code FROM issued_codes WHERE starts_with(code, $1)
		UNION
		SELECT code FROM listings WHERE starts_with(code, $1)
		ORDER BY code`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query issued codes: %w", err)
	}
	defer rows.Close()

	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect issued codes: %w", err)
	}
	return codes, nil
}

// CountByIcon returns the number of listings per icon key.
func (r *ListingRepository) CountByIcon(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT icon, COUNT(*) FROM listings GROUP BY icon`)
	if err != nil {
		return nil, fmt.Errorf("failed to count listings by icon: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			icon  string
			count int
		)
		if err := rows.Scan(&icon, &count); err != nil {
			return nil, fmt.Errorf("failed to scan icon count: %w", err)
		}
		counts[icon] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating icon counts: %w", err)
	}
	return counts, nil
}
