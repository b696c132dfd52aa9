package repository

import (
	"gitlab.com/subshare/subshare/internal/models"
)

// listingWriteColumns are the listing-shaped columns written on insert, in listingArgs order.
const listingWriteColumns = `id, code, title, price, payment_method, status, access, header_color, price_color,
	whatsapp_number, telegram_username, icon, added_date, featured, visible, user_id, contact_email,
	pix_key, payment_proof_image, pix_qr_code, telegram_message_id`

const listingWriteCount = 21

// listingColumns are read back in listingDest order.
const listingColumns = listingWriteColumns + `, created_at, updated_at`

func listingArgs(l *models.Listing) []any {
	return []any{
		l.ID, l.Code, l.Title, l.Price, l.PaymentMethod, l.Status, l.Access, l.HeaderColor, l.PriceColor,
		l.WhatsAppNumber, l.TelegramUsername, l.Icon, l.AddedDate, l.Featured, l.Visible, l.UserID, l.ContactEmail,
		l.PixKey, l.PaymentProofImage, l.PixQRCode, l.TelegramMessageID,
	}
}

func listingDest(l *models.Listing) []any {
	return []any{
		&l.ID, &l.Code, &l.Title, &l.Price, &l.PaymentMethod, &l.Status, &l.Access, &l.HeaderColor, &l.PriceColor,
		&l.WhatsAppNumber, &l.TelegramUsername, &l.Icon, &l.AddedDate, &l.Featured, &l.Visible, &l.UserID, &l.ContactEmail,
		&l.PixKey, &l.PaymentProofImage, &l.PixQRCode, &l.TelegramMessageID, &l.CreatedAt, &l.UpdatedAt,
	}
}
