package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"gitlab.com/subshare/subshare/internal/catalog"
	"gitlab.com/subshare/subshare/internal/models"
)

func queryFromRequest(r *http.Request) catalog.Query {
	q := r.URL.Query()
	featured := q.Get("featured")
	return catalog.Query{
		Search:       q.Get("q"),
		FeaturedOnly: featured == "true" || featured == "1",
		Sort:         q.Get("sort"),
	}
}

func (h *Handler) visibleCatalog(r *http.Request) ([]models.Listing, error) {
	if listings, ok := h.cache.Catalog(); ok {
		return listings, nil
	}
	listings, err := h.ctrl.Stores().Listings.List(r.Context(), models.ListingFilter{VisibleOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list visible listings: %w", err)
	}
	h.cache.SetCatalog(listings)
	return listings, nil
}

// listListings serves GET /api/listings.
func (h *Handler) listListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.visibleCatalog(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingsJSON(queryFromRequest(r).Apply(listings)))
}

// getListing serves GET /api/listings/{code}. Hidden listings are only
// shown to admins.
func (h *Handler) getListing(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))

	if l, ok := h.cache.Listing(code); ok {
		writeJSON(w, http.StatusOK, catalog.Record{Listing: l})
		return
	}

	l, err := h.ctrl.Stores().Listings.GetByCode(r.Context(), code)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if !l.Visible {
		if s := SessionFromContext(r.Context()); s == nil || !s.IsAdmin {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "record not found")
			return
		}
		writeJSON(w, http.StatusOK, catalog.Record{Listing: *l})
		return
	}

	h.cache.SetListing(*l)
	writeJSON(w, http.StatusOK, catalog.Record{Listing: *l})
}

// listingRequest is a listing body plus the owner's contact email, which
// the listing record itself does not carry.
type listingRequest struct {
	Listing      models.Listing
	ContactEmail string
}

func decodeListing(w http.ResponseWriter, r *http.Request) (*listingRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	var rec catalog.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}
	var extra struct {
		ContactEmail      string `json:"contact_email"`
		ContactEmailAlias string `json:"contactEmail"`
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}

	email := extra.ContactEmail
	if email == "" {
		email = extra.ContactEmailAlias
	}
	return &listingRequest{Listing: rec.Listing, ContactEmail: email}, nil
}

// allListings serves GET /api/admin/listings, hidden listings included.
func (h *Handler) allListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.ctrl.Stores().Listings.List(r.Context(), models.ListingFilter{OrderBy: models.OrderCode})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingsJSON(queryFromRequest(r).Apply(listings)))
}

// optionalJSON decodes an optional body; an empty body leaves dst untouched.
func optionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	err := decodeJSON(w, r, maxJSONBody, dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
