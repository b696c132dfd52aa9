package catalog

import (
	"sort"
	"strings"
	"time"

	"gitlab.com/subshare/subshare/internal/models"
)

const (
	localDateParseLayout  = "2/1/2006"
	localDateFormatLayout = "02/01/2006"
)

// ParseLocalDate parses a day/month/year date. Single-digit day and month are accepted.
func ParseLocalDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(localDateParseLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatLocalDate renders t as DD/MM/YYYY.
func FormatLocalDate(t time.Time) string {
	return t.Format(localDateFormatLayout)
}

// Today returns now's calendar date as DD/MM/YYYY.
func Today(now time.Time) string {
	return FormatLocalDate(now)
}

// DaysUntilExpiry returns how many whole days remain before a listing added on
// addedDate lapses under ttl. Negative once lapsed. ok is false for unparseable dates.
func DaysUntilExpiry(addedDate string, ttl time.Duration, now time.Time) (days int, ok bool) {
	added, ok := ParseLocalDate(addedDate)
	if !ok {
		return 0, false
	}
	expiry := added.Add(ttl)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(expiry.Sub(today).Hours() / 24), true
}

// IsLapsed reports whether a listing added on addedDate is past ttl.
// Listings without a parseable date never lapse.
func IsLapsed(addedDate string, ttl time.Duration, now time.Time) bool {
	days, ok := DaysUntilExpiry(addedDate, ttl, now)
	return ok && days < 0
}

// SortByAddedDate orders listings newest first. Listings with a missing or
// unparseable date go last, keeping their relative order.
func SortByAddedDate(listings []models.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		a, okA := ParseLocalDate(listings[i].AddedDate)
		b, okB := ParseLocalDate(listings[j].AddedDate)
		switch {
		case okA && okB:
			return a.After(b)
		case okA:
			return true
		default:
			return false
		}
	})
}
