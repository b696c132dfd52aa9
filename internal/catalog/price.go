package catalog

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"gitlab.com/subshare/subshare/internal/models"
)

var amountRegex = regexp.MustCompile(`\d[\d.,]*`)

// PriceAmount pulls the first amount out of a display price such as "R$ 6,00 (Mensal)".
// Brazilian notation is assumed when a comma is present: dots group thousands and the
// comma marks decimals. Without a comma a dot followed by exactly three digits groups thousands.
func PriceAmount(price string) (decimal.Decimal, bool) {
	raw := amountRegex.FindString(price)
	raw = strings.TrimRight(raw, ".,")
	if raw == "" {
		return decimal.Zero, false
	}

	switch {
	case strings.Contains(raw, ","):
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.Replace(raw, ",", ".", 1)
		raw = strings.ReplaceAll(raw, ",", "")
	case strings.Count(raw, ".") > 1 || isThousandsGroup(raw):
		raw = strings.ReplaceAll(raw, ".", "")
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func isThousandsGroup(raw string) bool {
	idx := strings.LastIndex(raw, ".")
	return idx >= 0 && len(raw)-idx-1 == 3
}

// SortByPrice orders listings by ascending amount. Listings without a readable
// amount go last, keeping their relative order.
func SortByPrice(listings []models.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		a, okA := PriceAmount(listings[i].Price)
		b, okB := PriceAmount(listings[j].Price)
		switch {
		case okA && okB:
			return a.LessThan(b)
		case okA:
			return true
		default:
			return false
		}
	})
}

// SortByTitle orders listings alphabetically, ignoring case and the member marker.
func SortByTitle(listings []models.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		return titleKey(listings[i].Title) < titleKey(listings[j].Title)
	})
}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimPrefix(title, models.MemberMarker))
}

// Sort orders accepted by Query.
const (
	SortDate  = "date"
	SortPrice = "price"
	SortTitle = "title"
)

// Query filters and orders an already fetched listing set for display.
type Query struct {
	Search       string
	FeaturedOnly bool
	Sort         string
}

// Apply returns the listings matching q in q's order. The input is not modified.
func (q Query) Apply(listings []models.Listing) []models.Listing {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]models.Listing, 0, len(listings))
	for i := range listings {
		l := &listings[i]
		if q.FeaturedOnly && !l.Featured {
			continue
		}
		if needle != "" && !matchesSearch(l, needle) {
			continue
		}
		out = append(out, *l)
	}

	switch q.Sort {
	case SortDate:
		SortByAddedDate(out)
	case SortPrice:
		SortByPrice(out)
	case SortTitle:
		SortByTitle(out)
	}
	return out
}

func matchesSearch(l *models.Listing, needle string) bool {
	return strings.Contains(strings.ToLower(l.Title), needle) ||
		strings.Contains(strings.ToLower(l.Code), needle) ||
		strings.Contains(strings.ToLower(l.Status), needle)
}
