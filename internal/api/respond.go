package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gitlab.com/subshare/subshare/internal/catalog"
	"gitlab.com/subshare/subshare/internal/lifecycle"
	"gitlab.com/subshare/subshare/internal/models"
)

// Body limits for decoded requests.
const (
	maxJSONBody   = 1 << 20
	maxImportBody = 8 << 20
)

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeErr maps a controller or store error onto a status code.
func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var ve *lifecycle.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "VALIDATION_FAILED",
			Message: "invalid input",
			Fields:  ve.Fields,
		})
	case errors.Is(err, lifecycle.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "not allowed")
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "record not found")
	case errors.Is(err, models.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", "listing code already in use")
	case errors.Is(err, models.ErrCatalogEmptied):
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("import left the catalog empty")
		writeError(w, http.StatusServiceUnavailable, "CATALOG_EMPTIED", "import left the catalog empty, retry immediately")
	case errors.Is(err, lifecycle.ErrMailDisabled):
		writeError(w, http.StatusServiceUnavailable, "MAIL_DISABLED", err.Error())
	default:
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode request body: %w", err)
	}
	return nil
}

type pendingJSON struct {
	ID              string         `json:"id"`
	Listing         catalog.Record `json:"listing"`
	ApprovalStatus  string         `json:"approval_status"`
	SubmittedAt     time.Time      `json:"submitted_at"`
	ContactEmail    string         `json:"contact_email,omitempty"`
	TargetListingID string         `json:"target_listing_id,omitempty"`
}

func toPendingJSON(p *models.PendingSubmission) pendingJSON {
	return pendingJSON{
		ID:              p.ID,
		Listing:         catalog.Record{Listing: p.Listing},
		ApprovalStatus:  p.ApprovalStatus,
		SubmittedAt:     p.SubmittedAt,
		ContactEmail:    p.ContactEmail,
		TargetListingID: p.TargetListingID,
	}
}

type expiredJSON struct {
	ID                     string         `json:"id"`
	Listing                catalog.Record `json:"listing"`
	ExpiredAt              time.Time      `json:"expired_at"`
	ExpiryReason           string         `json:"expiry_reason"`
	OriginalSubscriptionID string         `json:"original_subscription_id"`
}

func toExpiredJSON(e *models.ExpiredListing) expiredJSON {
	return expiredJSON{
		ID:                     e.ID,
		Listing:                catalog.Record{Listing: e.Listing},
		ExpiredAt:              e.ExpiredAt,
		ExpiryReason:           e.ExpiryReason,
		OriginalSubscriptionID: e.OriginalSubscriptionID,
	}
}

type supportJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type resultJSON struct {
	Listing  *catalog.Record `json:"listing,omitempty"`
	Pending  *pendingJSON    `json:"pending,omitempty"`
	Expired  *expiredJSON    `json:"expired,omitempty"`
	Warnings []string        `json:"warnings"`
}

func toResultJSON(res *lifecycle.Result) resultJSON {
	out := resultJSON{Warnings: res.Warnings}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	if res.Listing != nil {
		out.Listing = &catalog.Record{Listing: *res.Listing}
	}
	if res.Pending != nil {
		p := toPendingJSON(res.Pending)
		out.Pending = &p
	}
	if res.Expired != nil {
		e := toExpiredJSON(res.Expired)
		out.Expired = &e
	}
	return out
}

type listingsJSON struct {
	Listings []catalog.Record `json:"listings"`
	Count    int              `json:"count"`
}

func toListingsJSON(listings []models.Listing) listingsJSON {
	return listingsJSON{Listings: catalog.Records(listings), Count: len(listings)}
}
