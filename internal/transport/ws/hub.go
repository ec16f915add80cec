// Package ws is the websocket transport: one goroutine pair per client, a
// hub that resolves relay scopes to connections, and forced closes for
// moderation. The transport owns actor identity; everything else about a
// session lives in the services.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/averykip/invadersync/internal/model"
	"github.com/averykip/invadersync/internal/relay"
	"github.com/averykip/invadersync/internal/services/registry"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Game clients are served from arbitrary origins (itch-style embeds),
	// and nothing privileged rides on the socket
	CheckOrigin: func(r *http.Request) bool { return true },
}

// inboundFrame is the client-to-server envelope
type inboundFrame struct {
	Type model.EventType `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// outboundFrame is the server-to-client envelope
type outboundFrame struct {
	Type model.EventType `json:"type"`
	Data any             `json:"data,omitempty"`
}

// Hub tracks connected clients and fans outbound events out to them
type Hub struct {
	registry   registry.ControllerInterface
	dispatcher *relay.Dispatcher
	logger     *slog.Logger

	mu      sync.RWMutex
	clients map[model.ActorID]*client
}

// Ensure Hub satisfies the relay's delivery contract
var _ relay.Sink = (*Hub)(nil)

// NewHub creates a new Hub. Bind must be called with the dispatcher before
// the hub accepts connections; the two reference each other.
func NewHub(registry registry.ControllerInterface, logger *slog.Logger) *Hub {
	return &Hub{
		registry: registry,
		logger:   logger,
		clients:  make(map[model.ActorID]*client),
	}
}

// Bind attaches the event dispatcher
func (h *Hub) Bind(dispatcher *relay.Dispatcher) {
	h.dispatcher = dispatcher
}

// ServeHTTP upgrades the request and runs the session until the connection
// drops. Each connection gets a fresh actor identity.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	id := model.ActorID(uuid.NewString())
	c := newClient(h, id, conn)

	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()

	if err := h.dispatcher.HandleConnect(r.Context(), id); err != nil {
		h.logger.Error("session registration failed", "actor", id, "error", err)
	}
	h.logger.Info("client connected", "actor", id, "remote", r.RemoteAddr)

	go c.writePump()
	c.readPump()
}

// Deliver resolves each event's scope against current room membership and
// queues it on the matching connections
func (h *Hub) Deliver(events ...model.OutboundEvent) {
	for _, ev := range events {
		frame, err := json.Marshal(outboundFrame{Type: ev.Type, Data: ev.Payload})
		if err != nil {
			h.logger.Error("outbound encode failed", "type", ev.Type, "error", err)
			continue
		}

		switch ev.Scope {
		case model.ScopeUnicast:
			h.sendTo(ev.Target, frame)
		case model.ScopeRoomInclusive, model.ScopeRoomExclusive:
			room, err := h.registry.GetRoom(context.Background(), ev.Room)
			if err != nil {
				continue
			}
			for _, member := range room.Members {
				if ev.Scope == model.ScopeRoomExclusive && member.ID == ev.Exclude {
					continue
				}
				h.sendTo(member.ID, frame)
			}
		}
	}
}

// CloseActor severs an actor's connection. The session teardown runs through
// the normal read-loop exit path.
func (h *Hub) CloseActor(id model.ActorID) {
	h.mu.RLock()
	c := h.clients[id]
	h.mu.RUnlock()
	if c != nil {
		h.logger.Info("forcing client disconnect", "actor", id)
		c.close()
	}
}

// IsConnected reports whether an actor has a live connection
func (h *Hub) IsConnected(id model.ActorID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[id]
	return ok
}

// ConnectionCount returns the number of live connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown severs every connection
func (h *Hub) Shutdown() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.close()
	}
}

func (h *Hub) sendTo(id model.ActorID, frame []byte) {
	h.mu.RLock()
	c := h.clients[id]
	h.mu.RUnlock()
	if c != nil {
		c.enqueue(frame)
	}
}

// dropClient runs full session teardown after the read loop exits: the actor
// leaves its room, goes offline, and the departure is broadcast
func (h *Hub) dropClient(c *client) {
	h.mu.Lock()
	if h.clients[c.id] == c {
		delete(h.clients, c.id)
	}
	h.mu.Unlock()
	c.close()

	events := h.dispatcher.HandleDisconnect(context.Background(), c.id)
	h.Deliver(events...)
	h.logger.Info("client disconnected", "actor", c.id)
}
