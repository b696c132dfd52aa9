package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"gitlab.com/subshare/subshare/internal/models"
)

// RecordSeparator sits between records in the TXT format: two blank lines.
const RecordSeparator = "\n\n\n"

const (
	codeLabel = "Código:"
	dateLabel = "Adicionado em:"
)

var txtMarkers = []string{
	MarkerCode,
	MarkerTitle,
	MarkerPrice,
	MarkerStatus,
	MarkerAccess,
	MarkerTelegram,
	MarkerWhatsApp,
	MarkerDate,
}

// ToText renders listings in the TXT backup format.
func ToText(listings []models.Listing) string {
	records := make([]string, 0, len(listings))
	for i := range listings {
		records = append(records, formatRecord(&listings[i]))
	}
	return strings.Join(records, RecordSeparator)
}

func formatRecord(l *models.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n", MarkerCode, codeLabel, l.Code)
	fmt.Fprintf(&b, "%s %s\n", MarkerTitle, l.Title)
	fmt.Fprintf(&b, "%s %s\n", MarkerPrice, joinPrice(l.Price, l.PaymentMethod))
	fmt.Fprintf(&b, "%s %s\n", MarkerStatus, l.Status)
	fmt.Fprintf(&b, "%s %s\n", MarkerAccess, l.Access)
	fmt.Fprintf(&b, "%s %s\n", MarkerTelegram, l.TelegramUsername)
	fmt.Fprintf(&b, "%s %s\n", MarkerWhatsApp, l.WhatsAppNumber)
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s %s", MarkerDate, dateLabel, l.AddedDate)
	return b.String()
}

func joinPrice(price, method string) string {
	if method == "" {
		return price
	}
	return price + " - " + method
}

// splitTextPrice undoes joinPrice. Only the " - " joiner splits, so a free-text
// price such as "R$ 10-15" stays whole.
func splitTextPrice(value string) (price, method string) {
	if before, after, ok := strings.Cut(value, " - "); ok {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	return strings.TrimSpace(value), ""
}

// FromText parses the TXT backup format. A record is kept once it has a title
// and a price or payment method. Field values must not contain blank-line runs.
func FromText(text string) []models.Listing {
	blocks := strings.Split(normalizeNewlines(text), RecordSeparator)
	listings := make([]models.Listing, 0, len(blocks))

	for _, block := range blocks {
		var l models.Listing
		for line := range strings.SplitSeq(block, "\n") {
			marker, value, ok := matchMarker(line, txtMarkers)
			if !ok {
				continue
			}
			switch marker {
			case MarkerCode:
				l.Code = trimLabel(value, codeLabel, "Codigo:")
			case MarkerTitle:
				l.Title = value
			case MarkerPrice:
				l.Price, l.PaymentMethod = splitTextPrice(value)
			case MarkerStatus:
				l.Status = value
			case MarkerAccess:
				l.Access = value
			case MarkerTelegram:
				l.TelegramUsername = value
			case MarkerWhatsApp:
				l.WhatsAppNumber = value
			case MarkerDate:
				l.AddedDate = trimLabel(value, dateLabel)
			}
		}
		if l.Title != "" && (l.Price != "" || l.PaymentMethod != "") {
			listings = append(listings, l)
		}
	}
	return listings
}

// FromTextRecords is FromText wrapped for serialization with field aliases.
func FromTextRecords(text string) []Record {
	return Records(FromText(text))
}

func trimLabel(value string, labels ...string) string {
	for _, label := range labels {
		if rest, ok := strings.CutPrefix(value, label); ok {
			return strings.TrimSpace(rest)
		}
	}
	return value
}

// Record is the serialized form of a listing. Clients read payment method,
// whatsapp number, telegram username and added date under either a snake_case
// or a camelCase key, so both are written and either is accepted.
type Record struct {
	models.Listing
}

// Records wraps listings for serialization.
func Records(listings []models.Listing) []Record {
	out := make([]Record, len(listings))
	for i := range listings {
		out[i] = Record{Listing: listings[i]}
	}
	return out
}

type recordJSON struct {
	ID                    string `json:"id,omitempty"`
	Code                  string `json:"code"`
	Title                 string `json:"title"`
	Price                 string `json:"price"`
	PaymentMethod         string `json:"payment_method"`
	PaymentMethodAlias    string `json:"paymentMethod"`
	Status                string `json:"status"`
	Access                string `json:"access"`
	HeaderColor           string `json:"header_color,omitempty"`
	PriceColor            string `json:"price_color,omitempty"`
	WhatsAppNumber        string `json:"whatsapp_number"`
	WhatsAppNumberAlias   string `json:"whatsappNumber"`
	TelegramUsername      string `json:"telegram_username"`
	TelegramUsernameAlias string `json:"telegramUsername"`
	Icon                  string `json:"icon,omitempty"`
	AddedDate             string `json:"added_date"`
	AddedDateAlias        string `json:"addedDate"`
	Featured              bool   `json:"featured"`
	Visible               bool   `json:"visible"`
	UserID                string `json:"user_id,omitempty"`
	PixKey                string `json:"pix_key,omitempty"`
	PaymentProofImage     string `json:"payment_proof_image,omitempty"`
	PixQRCode             string `json:"pix_qr_code,omitempty"`
}

// MarshalJSON writes every aliased field under both spellings.
func (r Record) MarshalJSON() ([]byte, error) {
	l := r.Listing
	return json.Marshal(recordJSON{
		ID:                    l.ID,
		Code:                  l.Code,
		Title:                 l.Title,
		Price:                 l.Price,
		PaymentMethod:         l.PaymentMethod,
		PaymentMethodAlias:    l.PaymentMethod,
		Status:                l.Status,
		Access:                l.Access,
		HeaderColor:           l.HeaderColor,
		PriceColor:            l.PriceColor,
		WhatsAppNumber:        l.WhatsAppNumber,
		WhatsAppNumberAlias:   l.WhatsAppNumber,
		TelegramUsername:      l.TelegramUsername,
		TelegramUsernameAlias: l.TelegramUsername,
		Icon:                  l.Icon,
		AddedDate:             l.AddedDate,
		AddedDateAlias:        l.AddedDate,
		Featured:              l.Featured,
		Visible:               l.Visible,
		UserID:                l.UserID,
		PixKey:                l.PixKey,
		PaymentProofImage:     l.PaymentProofImage,
		PixQRCode:             l.PixQRCode,
	})
}

// UnmarshalJSON accepts either spelling; snake_case wins when both are set.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Listing = models.Listing{
		ID:                raw.ID,
		Code:              raw.Code,
		Title:             raw.Title,
		Price:             raw.Price,
		PaymentMethod:     firstNonEmpty(raw.PaymentMethod, raw.PaymentMethodAlias),
		Status:            raw.Status,
		Access:            raw.Access,
		HeaderColor:       raw.HeaderColor,
		PriceColor:        raw.PriceColor,
		WhatsAppNumber:    firstNonEmpty(raw.WhatsAppNumber, raw.WhatsAppNumberAlias),
		TelegramUsername:  firstNonEmpty(raw.TelegramUsername, raw.TelegramUsernameAlias),
		Icon:              raw.Icon,
		AddedDate:         firstNonEmpty(raw.AddedDate, raw.AddedDateAlias),
		Featured:          raw.Featured,
		Visible:           raw.Visible,
		UserID:            raw.UserID,
		PixKey:            raw.PixKey,
		PaymentProofImage: raw.PaymentProofImage,
		PixQRCode:         raw.PixQRCode,
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
