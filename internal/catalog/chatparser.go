package catalog

import (
	"regexp"
	"strings"

	"gitlab.com/subshare/subshare/internal/models"
)

// Line markers shared by the chat format and the TXT format.
const (
	MarkerCode     = "🔢"
	MarkerTitle    = "🖥"
	MarkerPrice    = "🏦"
	MarkerStatus   = "📌"
	MarkerAccess   = "🔐"
	MarkerTelegram = "📩"
	MarkerWhatsApp = "📱"
	MarkerDate     = "📅"
)

// DefaultBatchSeparator is the channel header that precedes every message
// in a copied chat history.
const DefaultBatchSeparator = "📺 SubShare | Assinaturas Compartilhadas"

// variationSelector trails emoji rendered in their colored form.
const variationSelector = "\uFE0F"

var (
	stampRegex  = regexp.MustCompile(`\[(\d{1,2}/\d{1,2}/\d{4})(?:[ ,]+\d{1,2}:\d{2})?\]`)
	digitsRegex = regexp.MustCompile(`\d+`)
)

// chatMarkers is the order in which a line is tested against the chat markers.
var chatMarkers = []string{
	MarkerTitle,
	MarkerPrice,
	MarkerStatus,
	MarkerAccess,
	MarkerTelegram,
	MarkerWhatsApp,
}

// Parser extracts listings from messages copied out of the announcement channel.
type Parser struct {
	// Separator starts each message in a multi-message dump.
	Separator string
}

// BatchStats describes how a batch dump was split and parsed.
type BatchStats struct {
	Fragments int `json:"fragments"`
	Parsed    int `json:"parsed"`
	Discarded int `json:"discarded"`
	// SuspectedMerges counts fragments with more than one title line,
	// usually a sign that the separator no longer matches the dump.
	SuspectedMerges int `json:"suspected_merges"`
}

var defaultParser = &Parser{Separator: DefaultBatchSeparator}

// ParseOne parses a single message with the default parser.
func ParseOne(text string) *models.Listing {
	return defaultParser.ParseOne(text)
}

// ParseBatch parses a multi-message dump with the default parser.
func ParseBatch(text string) []models.Listing {
	return defaultParser.ParseBatch(text)
}

func (p *Parser) separator() string {
	if p == nil || p.Separator == "" {
		return DefaultBatchSeparator
	}
	return p.Separator
}

// ParseOne extracts whatever listing fields are present in one message.
// Fields are found by their marker glyph, so line order does not matter.
// Returns nil when no marker line is found at all; callers decide whether a
// partial result is complete enough to keep.
func (p *Parser) ParseOne(text string) *models.Listing {
	text = normalizeNewlines(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	var l models.Listing
	found := false

	for _, line := range lines {
		marker, value, ok := matchMarker(line, chatMarkers)
		if !ok {
			continue
		}
		found = true

		switch marker {
		case MarkerTitle:
			l.Title = value
		case MarkerPrice:
			l.Price, l.PaymentMethod = splitChatPrice(value)
		case MarkerStatus:
			l.Status = value
		case MarkerAccess:
			l.Access = value
		case MarkerTelegram:
			l.TelegramUsername = value
		case MarkerWhatsApp:
			l.WhatsAppNumber = digitsRegex.FindString(line)
		}
	}

	if !found {
		return nil
	}

	if m := stampRegex.FindStringSubmatch(lines[0]); m != nil {
		if t, ok := ParseLocalDate(m[1]); ok {
			l.AddedDate = FormatLocalDate(t)
		}
	}

	ApplyDefaults(&l)
	return &l
}

// SplitBatch cuts a dump into message fragments. Every fragment except the
// first gets its separator back so the timestamp header stays on line one.
func (p *Parser) SplitBatch(text string) []string {
	sep := p.separator()
	parts := strings.Split(normalizeNewlines(text), sep)

	fragments := make([]string, 0, len(parts))
	for i, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if i > 0 {
			part = sep + part
		}
		fragments = append(fragments, part)
	}
	return fragments
}

// ParseBatch parses every fragment of a dump, dropping fragments that yield nothing.
// Output order follows input order.
func (p *Parser) ParseBatch(text string) []models.Listing {
	listings, _ := p.ParseBatchWithStats(text)
	return listings
}

// ParseBatchWithStats is ParseBatch plus a summary of the split.
func (p *Parser) ParseBatchWithStats(text string) ([]models.Listing, BatchStats) {
	fragments := p.SplitBatch(text)
	stats := BatchStats{Fragments: len(fragments)}
	listings := make([]models.Listing, 0, len(fragments))

	for _, fragment := range fragments {
		if LooksMerged(fragment) {
			stats.SuspectedMerges++
		}
		parsed := p.ParseOne(fragment)
		if parsed == nil {
			stats.Discarded++
			continue
		}
		listings = append(listings, *parsed)
		stats.Parsed++
	}
	return listings, stats
}

// splitChatPrice splits "R$ 6,00 - PIX (Mensal)" on the first hyphen.
func splitChatPrice(value string) (price, method string) {
	before, after, ok := strings.Cut(value, "-")
	if !ok {
		return strings.TrimSpace(value), models.DefaultPaymentMethod
	}
	method = strings.TrimSpace(after)
	if method == "" {
		method = models.DefaultPaymentMethod
	}
	return strings.TrimSpace(before), method
}

// matchMarker returns the first marker found in line and the text after it.
func matchMarker(line string, markers []string) (marker, value string, ok bool) {
	for _, m := range markers {
		idx := strings.Index(line, m)
		if idx < 0 {
			continue
		}
		rest := line[idx+len(m):]
		rest = strings.TrimPrefix(rest, variationSelector)
		return m, strings.TrimSpace(rest), true
	}
	return "", "", false
}

// LooksMerged reports whether a fragment holds more than one title line.
func LooksMerged(fragment string) bool {
	return countMarkerLines(fragment, MarkerTitle) > 1
}

func countMarkerLines(text, marker string) int {
	n := 0
	for line := range strings.SplitSeq(text, "\n") {
		if strings.Contains(line, marker) {
			n++
		}
	}
	return n
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}
