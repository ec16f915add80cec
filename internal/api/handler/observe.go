package handler

import (
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"github.com/averykip/invadersync/internal/api/response"
	"github.com/averykip/invadersync/internal/model"
	"github.com/averykip/invadersync/internal/services/presence"
	"github.com/averykip/invadersync/internal/services/registry"
)

// ObserveHandler handles the observability endpoints
type ObserveHandler struct {
	registry registry.ControllerInterface
	presence presence.ControllerInterface
}

// NewObserveHandler creates a new observability handler
func NewObserveHandler(reg registry.ControllerInterface, pres presence.ControllerInterface) *ObserveHandler {
	return &ObserveHandler{registry: reg, presence: pres}
}

// ListRooms handles GET /api/rooms
func (h *ObserveHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.registry.ListRooms(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	views := make([]response.Room, 0, len(rooms))
	for _, room := range rooms {
		views = append(views, response.RoomFromModel(room))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Code < views[j].Code })

	response.JSON(w, http.StatusOK, response.RoomList{Rooms: views, TotalRooms: len(views)})
}

// GetRoom handles GET /api/rooms/{code}
func (h *ObserveHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])

	room, err := h.registry.GetRoom(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// ListUsers handles GET /api/users
func (h *ObserveHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actors, err := h.presence.Snapshot(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	users := make([]response.User, 0, len(actors))
	for _, actor := range actors {
		users = append(users, response.UserFromModel(actor))
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].ConnectedAt.After(users[j].ConnectedAt)
	})

	response.JSON(w, http.StatusOK, response.UserList{Users: users, TotalUsers: len(users)})
}
