package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"google.golang.org/genai"

	"gitlab.com/subshare/subshare/internal/catalog"
	"gitlab.com/subshare/subshare/internal/logger"
	"gitlab.com/subshare/subshare/internal/models"
)

// ExtractTimeout bounds a single Gemini call.
const ExtractTimeout = 30 * time.Second

// ErrExtractTimeout indicates the Gemini API call timed out.
var ErrExtractTimeout = errors.New("listing extraction timed out")

// ErrNoData indicates the model found no title or price.
var ErrNoData = errors.New("no usable listing data extracted")

// listingResponse is the JSON object Gemini is asked to return.
type listingResponse struct {
	Title            string `json:"title"`
	Price            string `json:"price"`
	PaymentMethod    string `json:"payment_method"`
	Status           string `json:"status"`
	Access           string `json:"access"`
	TelegramUsername string `json:"telegram_username"`
	WhatsAppNumber   string `json:"whatsapp_number"`
}

var listingSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":             {Type: genai.TypeString, Description: "Subscription name and plan, uppercase as written"},
		"price":             {Type: genai.TypeString, Description: "Price as written, e.g. R$ 6,00"},
		"payment_method":    {Type: genai.TypeString, Description: "Payment method and period, e.g. PIX (Mensal)"},
		"status":            {Type: genai.TypeString, Description: "Availability, e.g. Assinado or Disponível"},
		"access":            {Type: genai.TypeString, Description: "How access is shared, e.g. LOGIN E SENHA or CONVITE"},
		"telegram_username": {Type: genai.TypeString, Description: "Telegram handle including @"},
		"whatsapp_number":   {Type: genai.TypeString, Description: "WhatsApp number, digits only"},
	},
	Required: []string{"title", "price"},
}

// ExtractListing reads one listing out of free text such as a forwarded
// message the marker parser could not handle.
func (c *Client) ExtractListing(ctx context.Context, text string) (*models.Listing, error) {
	if c.generator == nil {
		return nil, fmt.Errorf("gemini client not initialized")
	}

	clean := SanitizeForPrompt(text, MaxPromptTextLength)
	if clean == "" {
		return nil, fmt.Errorf("text is required")
	}

	log := logger.Component("gemini")
	log.Debug().Str("text_hash", hashText(clean)).Msg("ExtractListing called")

	return c.extract(ctx, []*genai.Part{{Text: buildListingPrompt(clean)}})
}

// ExtractListingFromImage reads one listing out of a screenshot.
func (c *Client) ExtractListingFromImage(ctx context.Context, imageBytes []byte, mimeType string) (*models.Listing, error) {
	if c.generator == nil {
		return nil, fmt.Errorf("gemini client not initialized")
	}
	if len(imageBytes) == 0 {
		return nil, fmt.Errorf("image data is required")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	return c.extract(ctx, []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: imageBytes}},
		{Text: buildListingPrompt("")},
	})
}

func (c *Client) extract(ctx context.Context, parts []*genai.Part) (*models.Listing, error) {
	log := logger.Component("gemini")

	timeoutCtx, cancel := context.WithTimeout(ctx, ExtractTimeout)
	defer cancel()

	temp := float32(0.1)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(500),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: "You are a JSON API. You MUST respond with ONLY valid JSON, no preamble or explanation. Output a single JSON object."},
			},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema:   listingSchema,
	}

	resp, err := c.generator.GenerateContent(timeoutCtx, ModelName, []*genai.Content{
		{Role: "user", Parts: parts},
	}, config)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrExtractTimeout
		}
		log.Error().Err(err).Msg("listing extraction call failed")
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if resp == nil {
		return nil, fmt.Errorf("no response from Gemini")
	}

	fullText := resp.Text()
	if fullText == "" {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	l, err := parseListingResponse(fullText)
	if err != nil {
		log.Warn().Err(err).Msg("could not parse listing extraction response")
		return nil, err
	}

	log.Debug().
		Str("title", l.Title).
		Bool("has_contact", l.HasContact()).
		Msg("listing extracted")
	return l, nil
}

func buildListingPrompt(text string) string {
	var b strings.Builder
	b.WriteString(`Extract the shared subscription offer from this `)
	if text == "" {
		b.WriteString("screenshot")
	} else {
		b.WriteString("message")
	}
	b.WriteString(`. Messages are usually in Brazilian Portuguese.

Fields:
- title: the streaming or software service and plan
- price: the price exactly as written, keeping the currency
- payment_method: what follows the price, e.g. PIX (Mensal); empty if absent
- status: availability such as Assinado or Disponível
- access: how access is shared such as LOGIN E SENHA or CONVITE
- telegram_username: Telegram handle with @
- whatsapp_number: phone number, digits only

Use an empty string for anything not present. Do not invent values.`)
	if text != "" {
		fmt.Fprintf(&b, "\n\nMessage:\n\"\"\"\n%s\n\"\"\"", text)
	}
	return b.String()
}

// parseListingResponse maps a Gemini JSON reply to a listing with
// presentation defaults applied.
func parseListingResponse(text string) (*models.Listing, error) {
	jsonText := extractJSON(text)
	if jsonText == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var r listingResponse
	if err := json.Unmarshal([]byte(jsonText), &r); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	l := &models.Listing{
		Title:            cleanField(r.Title),
		Price:            cleanField(r.Price),
		PaymentMethod:    cleanField(r.PaymentMethod),
		Status:           cleanField(r.Status),
		Access:           cleanField(r.Access),
		TelegramUsername: cleanField(r.TelegramUsername),
		WhatsAppNumber:   digitsOnly(r.WhatsAppNumber),
	}
	if l.Title == "" && l.Price == "" {
		return nil, ErrNoData
	}
	if l.TelegramUsername != "" && !strings.HasPrefix(l.TelegramUsername, "@") {
		l.TelegramUsername = "@" + l.TelegramUsername
	}
	if l.Price != "" && l.PaymentMethod == "" {
		l.PaymentMethod = models.DefaultPaymentMethod
	}

	catalog.ApplyDefaults(l)
	return l, nil
}

const maxFieldLength = 120

func cleanField(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxFieldLength {
		s = strings.TrimSpace(truncateUTF8(s, maxFieldLength))
	}
	return s
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, s)
}
