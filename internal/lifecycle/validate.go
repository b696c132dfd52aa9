package lifecycle

import (
	"net/mail"
	"regexp"
	"strings"

	"gitlab.com/subshare/subshare/internal/catalog"
	"gitlab.com/subshare/subshare/internal/models"
)

var (
	nonDigitRegex       = regexp.MustCompile(`\D`)
	telegramHandleRegex = regexp.MustCompile(`^@[A-Za-z0-9_]{5,32}$`)
)

const (
	maxFieldLength    = 200
	minWhatsAppDigits = 10
	maxWhatsAppDigits = 15
)

// normalizeDraft trims fields and canonicalizes contact handles in place.
func normalizeDraft(l *models.Listing) {
	l.Title = strings.TrimSpace(l.Title)
	l.Price = strings.TrimSpace(l.Price)
	l.PaymentMethod = strings.TrimSpace(l.PaymentMethod)
	l.Status = strings.TrimSpace(l.Status)
	l.Access = strings.TrimSpace(l.Access)
	l.AddedDate = strings.TrimSpace(l.AddedDate)
	l.ContactEmail = strings.TrimSpace(l.ContactEmail)

	l.WhatsAppNumber = nonDigitRegex.ReplaceAllString(l.WhatsAppNumber, "")

	handle := strings.TrimSpace(l.TelegramUsername)
	if handle != "" && !strings.HasPrefix(handle, "@") {
		handle = "@" + handle
	}
	l.TelegramUsername = handle

	if l.PaymentMethod == "" && l.Price != "" {
		l.PaymentMethod = models.DefaultPaymentMethod
	}
}

// validateListing checks a normalized listing.
func validateListing(l *models.Listing) *ValidationError {
	ve := &ValidationError{}

	title := strings.TrimSpace(strings.TrimPrefix(l.Title, models.MemberMarker))
	if title == "" {
		ve.add("title", "is required")
	}
	if l.Price == "" {
		ve.add("price", "is required")
	}
	if !l.HasContact() {
		ve.add("contact", "whatsapp number or telegram username is required")
	}
	if n := len(l.WhatsAppNumber); n > 0 && (n < minWhatsAppDigits || n > maxWhatsAppDigits) {
		ve.add("whatsapp_number", "must have 10 to 15 digits")
	}
	if l.TelegramUsername != "" && !telegramHandleRegex.MatchString(l.TelegramUsername) {
		ve.add("telegram_username", "must look like @handle")
	}
	if l.AddedDate != "" {
		if _, ok := catalog.ParseLocalDate(l.AddedDate); !ok {
			ve.add("added_date", "must be DD/MM/YYYY")
		}
	}
	if l.ContactEmail != "" {
		if _, err := mail.ParseAddress(l.ContactEmail); err != nil {
			ve.add("contact_email", "is not a valid address")
		}
	}

	for field, value := range map[string]string{
		"title": l.Title, "price": l.Price, "payment_method": l.PaymentMethod,
		"status": l.Status, "access": l.Access,
	} {
		if len(value) > maxFieldLength {
			ve.add(field, "is too long")
		}
	}
	return ve
}

func validateSupport(m *models.SupportMessage) *ValidationError {
	ve := &ValidationError{}
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Subject = strings.TrimSpace(m.Subject)
	m.Message = strings.TrimSpace(m.Message)

	if m.Name == "" {
		ve.add("name", "is required")
	}
	if m.Email == "" {
		ve.add("email", "is required")
	} else if _, err := mail.ParseAddress(m.Email); err != nil {
		ve.add("email", "is not a valid address")
	}
	if m.Message == "" {
		ve.add("message", "is required")
	}
	return ve
}
