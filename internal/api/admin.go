package api

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"gitlab.com/subshare/subshare/internal/lifecycle"
	"gitlab.com/subshare/subshare/internal/models"
)

// ExportFilename is suggested to browsers downloading the TXT backup.
const ExportFilename = "assinaturas.txt"

type sessionJSON struct {
	UserID        string    `json:"user_id"`
	Email         string    `json:"email,omitempty"`
	IsAdmin       bool      `json:"is_admin"`
	UnreadSupport int       `json:"unread_support"`
	RefreshedAt   time.Time `json:"refreshed_at"`
}

// session serves GET /api/admin/session, the explicit refresh of the admin
// flag and unread support count.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	s := *SessionFromContext(r.Context())
	if err := h.sessions.Refresh(r.Context(), &s); err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionJSON{
		UserID:        s.UserID,
		Email:         s.Email,
		IsAdmin:       s.IsAdmin,
		UnreadSupport: s.UnreadSupport,
		RefreshedAt:   s.RefreshedAt,
	})
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.ctrl.PendingForReview(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pendingList(pending))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	res, err := h.ctrl.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.cache.Purge()
	writeJSON(w, http.StatusOK, toResultJSON(res))
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := optionalJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	res, err := h.ctrl.Reject(r.Context(), chi.URLParam(r, "id"), body.Reason)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultJSON(res))
}

func (h *Handler) updateListing(w http.ResponseWriter, r *http.Request) {
	var patch lifecycle.ListingPatch
	if err := decodeJSON(w, r, maxJSONBody, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	res, err := h.ctrl.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.cache.Purge()
	writeJSON(w, http.StatusOK, toResultJSON(res))
}

func (h *Handler) setVisibility(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Visible *bool `json:"visible"`
	}
	if err := decodeJSON(w, r, maxJSONBody, &body); err != nil || body.Visible == nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "body must set visible")
		return
	}

	res, err := h.ctrl.SetVisible(r.Context(), chi.URLParam(r, "id"), *body.Visible)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.cache.Purge()
	writeJSON(w, http.StatusOK, toResultJSON(res))
}

func (h *Handler) setFeatured(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Featured *bool `json:"featured"`
	}
	if err := decodeJSON(w, r, maxJSONBody, &body); err != nil || body.Featured == nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "body must set featured")
		return
	}

	res, err := h.ctrl.SetFeatured(r.Context(), chi.URLParam(r, "id"), *body.Featured)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.cache.Purge()
	writeJSON(w, http.StatusOK, toResultJSON(res))
}

func (h *Handler) expire(w http.ResponseWriter, r *http.Request) {
	body := struct {
		Reason string `json:"reason"`
	}{Reason: models.ExpiryAdmin}
	if err := optionalJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	res, err := h.ctrl.Expire(r.Context(), chi.URLParam(r, "id"), body.Reason)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.cache.Purge()
	writeJSON(w, http.StatusOK, toResultJSON(res))
}

func (h *Handler) deleteListing(w http.ResponseWriter, r *http.Request) {
	res, err := h.ctrl.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.cache.Purge()
	writeJSON(w, http.StatusOK, toResultJSON(res))
}

func (h *Handler) allExpired(w http.ResponseWriter, r *http.Request) {
	expired, err := h.ctrl.Stores().Expired.ListAll(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expiredList(expired))
}

// export serves the whole catalog as a TXT backup download.
func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	text, err := h.ctrl.ExportText(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": ExportFilename}))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

type importRequest struct {
	Text     string `json:"text"`
	Category int    `json:"category"`
}

// readImport accepts either a JSON body or the raw TXT with the category in
// the query string.
func readImport(w http.ResponseWriter, r *http.Request) (importRequest, error) {
	var req importRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := decodeJSON(w, r, maxImportBody, &req); err != nil {
			return req, err
		}
	} else {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBody))
		if err != nil {
			return req, fmt.Errorf("failed to read request body: %w", err)
		}
		req.Text = string(data)
		if raw := r.URL.Query().Get("category"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return req, fmt.Errorf("invalid category %q", raw)
			}
			req.Category = n
		}
	}
	if req.Category < 0 || req.Category > 9 {
		return req, fmt.Errorf("category must be between 0 and 9")
	}
	if strings.TrimSpace(req.Text) == "" {
		return req, fmt.Errorf("text is required")
	}
	return req, nil
}

func (h *Handler) importText(w http.ResponseWriter, r *http.Request) {
	req, err := readImport(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	n, err := h.ctrl.ImportText(r.Context(), req.Text, req.Category)
	h.cache.Purge()
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func (h *Handler) previewImport(w http.ResponseWriter, r *http.Request) {
	req, err := readImport(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toListingsJSON(h.ctrl.PreviewText(req.Text, req.Category)))
}

func (h *Handler) importChat(w http.ResponseWriter, r *http.Request) {
	req, err := readImport(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	res, err := h.ctrl.ImportChat(r.Context(), req.Text, req.Category)
	h.cache.Purge()
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) unreadSupport(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.ctrl.UnreadSupport(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	out := make([]supportJSON, len(msgs))
	for i, m := range msgs {
		out[i] = supportJSON{
			ID:        m.ID,
			Name:      m.Name,
			Email:     m.Email,
			Subject:   m.Subject,
			Message:   m.Message,
			Read:      m.Read,
			CreatedAt: m.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) markSupportRead(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.MarkSupportRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sendEmail(w http.ResponseWriter, r *http.Request) {
	var msg models.EmailMessage
	if err := decodeJSON(w, r, maxJSONBody, &msg); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if err := h.ctrl.SendEmail(r.Context(), msg); err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
