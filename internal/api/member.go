package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gitlab.com/subshare/subshare/internal/models"
)

func contactEmail(req *listingRequest, s *Session) string {
	if req.ContactEmail != "" {
		return req.ContactEmail
	}
	return s.Email
}

// submit serves POST /api/submissions.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	req, err := decodeListing(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	res, err := h.ctrl.Submit(r.Context(), req.Listing, s.UserID, contactEmail(req, s))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResultJSON(res))
}

// submitChange serves POST /api/listings/{id}/changes.
func (h *Handler) submitChange(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	req, err := decodeListing(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	res, err := h.ctrl.SubmitChange(r.Context(), chi.URLParam(r, "id"), req.Listing, s.UserID, contactEmail(req, s))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResultJSON(res))
}

// myListings serves GET /api/me/listings.
func (h *Handler) myListings(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	listings, err := h.ctrl.Stores().Listings.List(r.Context(), models.ListingFilter{UserID: s.UserID})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingsJSON(listings))
}

// myPending serves GET /api/me/pending.
func (h *Handler) myPending(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	pending, err := h.ctrl.Stores().Pending.ListByUser(r.Context(), s.UserID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pendingList(pending))
}

// myExpired serves GET /api/me/expired.
func (h *Handler) myExpired(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	expired, err := h.ctrl.Stores().Expired.ListByUser(r.Context(), s.UserID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expiredList(expired))
}

// resubmit serves POST /api/me/expired/{id}/resubmit.
func (h *Handler) resubmit(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	res, err := h.ctrl.Resubmit(r.Context(), chi.URLParam(r, "id"), s.UserID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResultJSON(res))
}

// withdraw serves POST /api/me/listings/{id}/withdraw.
func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	res, err := h.ctrl.Withdraw(r.Context(), chi.URLParam(r, "id"), s.UserID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.cache.Purge()
	writeJSON(w, http.StatusOK, toResultJSON(res))
}

// deleteOwned serves DELETE /api/me/listings/{id}.
func (h *Handler) deleteOwned(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	res, err := h.ctrl.DeleteOwned(r.Context(), chi.URLParam(r, "id"), s.UserID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.cache.Purge()
	writeJSON(w, http.StatusOK, toResultJSON(res))
}

type supportRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// submitSupport serves POST /api/support. Anonymous visitors may write too.
func (h *Handler) submitSupport(w http.ResponseWriter, r *http.Request) {
	var req supportRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	msg := models.SupportMessage{Name: req.Name, Email: req.Email, Subject: req.Subject, Message: req.Message}
	if s := SessionFromContext(r.Context()); s != nil {
		msg.UserID = s.UserID
		if msg.Email == "" {
			msg.Email = s.Email
		}
	}

	res, err := h.ctrl.SubmitSupport(r.Context(), msg)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResultJSON(res))
}

func pendingList(pending []models.PendingSubmission) []pendingJSON {
	out := make([]pendingJSON, len(pending))
	for i := range pending {
		out[i] = toPendingJSON(&pending[i])
	}
	return out
}

func expiredList(expired []models.ExpiredListing) []expiredJSON {
	out := make([]expiredJSON, len(expired))
	for i := range expired {
		out[i] = toExpiredJSON(&expired[i])
	}
	return out
}
