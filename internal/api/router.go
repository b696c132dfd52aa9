// Package api serves the marketplace HTTP API used by the web front end.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"gitlab.com/subshare/subshare/internal/lifecycle"
	"gitlab.com/subshare/subshare/internal/logger"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the API routes over a lifecycle controller.
type Handler struct {
	ctrl     *lifecycle.Controller
	sessions *SessionManager
	cache    *ListingCache
	db       Pinger
	log      zerolog.Logger
}

// NewHandler creates a Handler. cache and db may be nil.
func NewHandler(ctrl *lifecycle.Controller, sessions *SessionManager, cache *ListingCache, db Pinger) *Handler {
	return &Handler{
		ctrl:     ctrl,
		sessions: sessions,
		cache:    cache,
		db:       db,
		log:      logger.Component("api"),
	}
}

// Routes builds the router with logging, metrics and tracing applied.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(Metrics())
	r.Use(RequestLogger(h.log))

	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(h.sessions.Middleware())

		r.Get("/listings", h.listListings)
		r.Get("/listings/{code}", h.getListing)
		r.Post("/support", h.submitSupport)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)

			r.Post("/submissions", h.submit)
			r.Post("/listings/{id}/changes", h.submitChange)
			r.Get("/me/listings", h.myListings)
			r.Get("/me/pending", h.myPending)
			r.Get("/me/expired", h.myExpired)
			r.Post("/me/expired/{id}/resubmit", h.resubmit)
			r.Post("/me/listings/{id}/withdraw", h.withdraw)
			r.Delete("/me/listings/{id}", h.deleteOwned)
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(RequireUser).Get("/session", h.session)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)

				r.Get("/pending", h.listPending)
				r.Post("/pending/{id}/approve", h.approve)
				r.Post("/pending/{id}/reject", h.reject)

				r.Get("/listings", h.allListings)
				r.Patch("/listings/{id}", h.updateListing)
				r.Post("/listings/{id}/visibility", h.setVisibility)
				r.Post("/listings/{id}/featured", h.setFeatured)
				r.Post("/listings/{id}/expire", h.expire)
				r.Delete("/listings/{id}", h.deleteListing)
				r.Get("/expired", h.allExpired)

				r.Get("/export", h.export)
				r.Post("/import", h.importText)
				r.Post("/import/preview", h.previewImport)
				r.Post("/import/chat", h.importChat)

				r.Get("/support", h.unreadSupport)
				r.Post("/support/{id}/read", h.markSupportRead)
				r.Post("/email", h.sendEmail)
			})
		})
	})

	return otelhttp.NewHandler(r, "subshare-api")
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.log.Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "fail", "message": "database unreachable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
