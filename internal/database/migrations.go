package database

import (
	"context"
	"fmt"
)

// listingColumnsDDL is shared by every table holding a listing-shaped record.
const listingColumnsDDL = `
	code TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	price TEXT NOT NULL DEFAULT '',
	payment_method TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	access TEXT NOT NULL DEFAULT '',
	header_color TEXT NOT NULL DEFAULT '',
	price_color TEXT NOT NULL DEFAULT '',
	whatsapp_number TEXT NOT NULL DEFAULT '',
	telegram_username TEXT NOT NULL DEFAULT '',
	icon TEXT NOT NULL DEFAULT '',
	added_date TEXT NOT NULL DEFAULT '',
	featured BOOLEAN NOT NULL DEFAULT FALSE,
	visible BOOLEAN NOT NULL DEFAULT FALSE,
	user_id TEXT NOT NULL DEFAULT '',
	contact_email TEXT NOT NULL DEFAULT '',
	pix_key TEXT NOT NULL DEFAULT '',
	payment_proof_image TEXT NOT NULL DEFAULT '',
	pix_qr_code TEXT NOT NULL DEFAULT '',
	telegram_message_id BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()`

// Tables lists every table created by RunMigrations, children first.
var Tables = []string{"support_messages", "expired_listings", "pending_submissions", "listings", "issued_codes", "admin_users"}

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, db PGXDB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS listings (
			id TEXT PRIMARY KEY,` + listingColumnsDDL + `
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_listings_code ON listings(code)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_visible ON listings(visible)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_user_id ON listings(user_id)`,

		`CREATE TABLE IF NOT EXISTS pending_submissions (
			id TEXT PRIMARY KEY,` + listingColumnsDDL + `,
			approval_status TEXT NOT NULL DEFAULT 'pending',
			submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			reviewed_at TIMESTAMPTZ,
			rejection_reason TEXT NOT NULL DEFAULT '',
			target_listing_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_status ON pending_submissions(approval_status)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_user_id ON pending_submissions(user_id)`,

		`CREATE TABLE IF NOT EXISTS expired_listings (
			id TEXT PRIMARY KEY,` + listingColumnsDDL + `,
			expired_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expiry_reason TEXT NOT NULL DEFAULT '',
			original_subscription_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expired_user_id ON expired_listings(user_id)`,

		`CREATE TABLE IF NOT EXISTS support_messages (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			subject TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL,
			read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_support_unread ON support_messages(read) WHERE NOT read`,

		// Codes stay reserved after their listing is archived or deleted.
		`CREATE TABLE IF NOT EXISTS issued_codes (
			code TEXT PRIMARY KEY,
			issued_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`INSERT INTO issued_codes (code)
			SELECT code FROM listings WHERE code <> ''
			UNION SELECT code FROM expired_listings WHERE code <> ''
			UNION SELECT code FROM pending_submissions WHERE code <> ''
			ON CONFLICT DO NOTHING`,

		`CREATE TABLE IF NOT EXISTS admin_users (
			user_id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
