package lifecycle

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"gitlab.com/subshare/subshare/internal/models"
)

// ErrForbidden is returned when a member acts on a record they do not own.
var ErrForbidden = errors.New("not allowed")

// ErrMailDisabled is returned by SendEmail when no mailer is configured.
var ErrMailDisabled = errors.New("email delivery is not configured")

// ValidationError lists per-field problems found before any store call.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

// orNil returns e when it holds any problem.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Result carries what a transition produced and any side-effect warnings.
type Result struct {
	Listing  *models.Listing
	Pending  *models.PendingSubmission
	Expired  *models.ExpiredListing
	Warnings []string
}

func (r *Result) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
