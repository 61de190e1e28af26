package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/voxchat/voxgate/internal/config"
	"github.com/voxchat/voxgate/internal/hub"
	"github.com/voxchat/voxgate/internal/repositories"
	"github.com/voxchat/voxgate/internal/services"
)

// Handler bundles the core services behind the HTTP surface. One
// instance per process, constructed in main and shared by all routes.
type Handler struct {
	cfg          *config.Config
	hub          *hub.Hub
	sync         *services.SyncService
	interactions *services.InteractionStore
	guard        *services.FederationGuard
	tokens       *services.TokenVerifier
	presence     repositories.PresenceRepository
}

func NewHandler(cfg *config.Config, h *hub.Hub, sync *services.SyncService, interactions *services.InteractionStore, guard *services.FederationGuard, tokens *services.TokenVerifier, presence repositories.PresenceRepository) *Handler {
	return &Handler{
		cfg:          cfg,
		hub:          h,
		sync:         sync,
		interactions: interactions,
		guard:        guard,
		tokens:       tokens,
		presence:     presence,
	}
}

func (h *Handler) Router() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Gateway discovery is the one unauthenticated route.
	router.Get("/gateway", h.GatewayInfo)
	router.Get("/gateway/connect", h.GatewayConnect)

	router.Group(func(r chi.Router) {
		r.Use(h.requireUser)
		r.Get("/sync", h.SyncQuery)
		r.Get("/presence", h.BulkPresence)
		r.Get("/presence/{userID}", h.UserPresence)
		r.Post("/interactions", h.CreateInteraction)
		r.Post("/interactions/callback", h.InteractionCallback)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.requireFederation)
		r.Post("/federation/events", h.FederationEvents)
	})

	// Dispatch entry point for co-located domain handlers. Bound to the
	// internal listener in production; never exposed publicly.
	router.Post("/internal/dispatch", h.Dispatch)

	return router
}
