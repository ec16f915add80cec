// Package api is the HTTP surface of the coordinator: health, observability
// and moderation endpoints, plus the websocket mount point. Game traffic
// itself never goes over plain HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/averykip/invadersync/internal/api/handler"
	"github.com/averykip/invadersync/internal/api/middleware"
	"github.com/averykip/invadersync/internal/banstore"
	"github.com/averykip/invadersync/internal/dependencies/clock"
	basemw "github.com/averykip/invadersync/internal/middleware"
	"github.com/averykip/invadersync/internal/relay"
	"github.com/averykip/invadersync/internal/services/presence"
	"github.com/averykip/invadersync/internal/services/registry"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger       *slog.Logger
	Registry     registry.ControllerInterface
	Presence     presence.ControllerInterface
	Dispatcher   *relay.Dispatcher
	BanStore     banstore.Store
	Clock        clock.Clock
	Connections  handler.ConnectionCounter
	Socket       http.Handler // websocket entry point, mounted at /ws
	Version      string
	AdminKeyHash string // bcrypt hash; empty leaves admin endpoints open
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	healthHandler := handler.NewHealthHandler(cfg.Registry, cfg.Connections, cfg.Clock, cfg.Version)
	observeHandler := handler.NewObserveHandler(cfg.Registry, cfg.Presence)
	adminHandler := handler.NewAdminHandler(cfg.Dispatcher, cfg.BanStore, cfg.Clock)

	adminKeyMiddleware := middleware.AdminKey(cfg.AdminKeyHash)
	loggingMiddleware := basemw.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	r.Use(recoveryMiddleware)

	// The websocket mount skips the logging middleware; upgraded connections
	// would log one eternal request each
	if cfg.Socket != nil {
		r.Handle("/ws", cfg.Socket)
	}

	// Health lives at both paths: the bare one for load balancers, the /api
	// one for clients
	r.Handle("/health", loggingMiddleware(http.HandlerFunc(healthHandler.Get))).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(loggingMiddleware)

	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/login-log", adminHandler.LoginLog).Methods(http.MethodPost)

	// Observability and moderation require the admin key
	protected := api.NewRoute().Subrouter()
	protected.Use(adminKeyMiddleware)
	protected.HandleFunc("/rooms", observeHandler.ListRooms).Methods(http.MethodGet)
	protected.HandleFunc("/rooms/{code}", observeHandler.GetRoom).Methods(http.MethodGet)
	protected.HandleFunc("/users", observeHandler.ListUsers).Methods(http.MethodGet)
	protected.HandleFunc("/admin/ban", adminHandler.Ban).Methods(http.MethodPost)

	return r
}
