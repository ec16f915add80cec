package handler

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/averykip/invadersync/internal/api/request"
	"github.com/averykip/invadersync/internal/api/response"
	"github.com/averykip/invadersync/internal/banstore"
	"github.com/averykip/invadersync/internal/dependencies/clock"
	"github.com/averykip/invadersync/internal/model"
	"github.com/averykip/invadersync/internal/relay"
	"github.com/averykip/invadersync/internal/services/moderation"
)

// AdminHandler handles the moderation endpoints
type AdminHandler struct {
	dispatcher *relay.Dispatcher
	bans       banstore.Store
	clock      clock.Clock
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(dispatcher *relay.Dispatcher, bans banstore.Store, clk clock.Clock) *AdminHandler {
	return &AdminHandler{
		dispatcher: dispatcher,
		bans:       bans,
		clock:      clk,
	}
}

// LoginLog handles POST /api/login-log
func (h *AdminHandler) LoginLog(w http.ResponseWriter, r *http.Request) {
	var req request.LoginLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}

	attempt := &model.LoginAttempt{
		Username:  req.Username,
		IsAdmin:   req.IsAdmin,
		IP:        clientIP(r),
		Timestamp: h.clock.Now(),
	}
	if err := h.bans.RecordLoginAttempt(r.Context(), attempt); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Ban handles POST /api/admin/ban
func (h *AdminHandler) Ban(w http.ResponseWriter, r *http.Request) {
	var req request.AdminBanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}

	spec := moderation.BanSpec{Requested: true, Permanent: true}
	if req.BanMinutes != nil && *req.BanMinutes != model.PermanentBanMinutes {
		spec.Permanent = false
		spec.Minutes = *req.BanMinutes
	}

	ban, err := h.dispatcher.ExecuteAdminBan(r.Context(), req.Username, req.BannedBy, req.Reason, spec)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.BanFromModel(ban))
}

// clientIP resolves the originating address, honoring the proxy header
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
