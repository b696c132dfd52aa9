package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"gitlab.com/subshare/subshare/internal/models"
)

// DefaultCodePrefix is prepended to every generated listing code.
const DefaultCodePrefix = "SF"

// GenerateCode builds a listing code from a prefix, a category digit and an ordinal.
// The ordinal is zero-padded to at least three digits.
func GenerateCode(prefix string, category, ordinal int) string {
	return fmt.Sprintf("%s%d%03d", prefix, category, ordinal)
}

// CodeOrdinal extracts the ordinal from a code generated under prefix and category.
func CodeOrdinal(code, prefix string, category int) (int, bool) {
	head := prefix + strconv.Itoa(category)
	if !strings.HasPrefix(code, head) {
		return 0, false
	}
	rest := code[len(head):]
	if len(rest) < 3 {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// AddMissingCodes returns a copy of listings where every entry without a code
// gets one built from its 1-based position in the input. Existing codes are kept.
// Uniqueness against persisted codes is the caller's concern.
func AddMissingCodes(listings []models.Listing, prefix string, category int) []models.Listing {
	out := make([]models.Listing, len(listings))
	copy(out, listings)
	for i := range out {
		if out[i].Code == "" {
			out[i].Code = GenerateCode(prefix, category, i+1)
		}
	}
	return out
}

// NextFreeCode returns the code after the highest ordinal present in taken.
// Ordinals are never reused, so released codes stay retired.
func NextFreeCode(prefix string, category int, taken map[string]bool) string {
	highest := 0
	for code := range taken {
		if n, ok := CodeOrdinal(code, prefix, category); ok && n > highest {
			highest = n
		}
	}
	return GenerateCode(prefix, category, highest+1)
}

// AssignCodes runs AddMissingCodes and then re-checks the batch for collisions.
// Explicit codes win over generated ones; later duplicates are moved to the next free code.
// existing lists codes already persisted elsewhere that must not be reused.
func AssignCodes(listings []models.Listing, prefix string, category int, existing []string) []models.Listing {
	out := AddMissingCodes(listings, prefix, category)

	taken := make(map[string]bool, len(existing)+len(out))
	for _, code := range existing {
		taken[code] = true
	}

	var moved []int
	for i := range out {
		if listings[i].Code == "" {
			continue
		}
		if taken[out[i].Code] {
			moved = append(moved, i)
			continue
		}
		taken[out[i].Code] = true
	}
	for i := range out {
		if listings[i].Code != "" {
			continue
		}
		if taken[out[i].Code] {
			moved = append(moved, i)
			continue
		}
		taken[out[i].Code] = true
	}

	for _, i := range moved {
		out[i].Code = NextFreeCode(prefix, category, taken)
		taken[out[i].Code] = true
	}
	return out
}
