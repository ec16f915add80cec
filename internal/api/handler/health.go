package handler

import (
	"net/http"

	"github.com/averykip/invadersync/internal/api/response"
	"github.com/averykip/invadersync/internal/dependencies/clock"
	"github.com/averykip/invadersync/internal/services/registry"
)

// ServerName identifies this coordinator in health responses
const ServerName = "invadersync"

// ConnectionCounter reports live transport connections
type ConnectionCounter interface {
	ConnectionCount() int
}

// HealthHandler handles the health endpoints
type HealthHandler struct {
	registry    registry.ControllerInterface
	connections ConnectionCounter
	clock       clock.Clock
	version     string
	startedAt   int64 // unix seconds
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(reg registry.ControllerInterface, connections ConnectionCounter, clk clock.Clock, version string) *HealthHandler {
	return &HealthHandler{
		registry:    reg,
		connections: connections,
		clock:       clk,
		version:     version,
		startedAt:   clk.Now().Unix(),
	}
}

// Get handles GET /health and GET /api/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.registry.ListRooms(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	now := h.clock.Now()
	response.JSON(w, http.StatusOK, response.Health{
		Status:      "ok",
		Timestamp:   now,
		Server:      ServerName,
		Version:     h.version,
		Connections: h.connections.ConnectionCount(),
		Rooms:       len(rooms),
		UptimeSecs:  now.Unix() - h.startedAt,
	})
}
