package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/averykip/invadersync/internal/api"
	"github.com/averykip/invadersync/internal/api/response"
	"github.com/averykip/invadersync/internal/factory"
	"github.com/averykip/invadersync/internal/model"
)

// testServer wires the router on top of a mocked app
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T, adminKeyHash string) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	app := factory.NewTestApp()

	router := api.NewRouter(api.RouterConfig{
		Logger:       logger,
		Registry:     app.Registry,
		Presence:     app.Presence,
		Dispatcher:   app.Dispatcher,
		BanStore:     app.BanStore,
		Clock:        app.MockClock,
		Connections:  app.Sink,
		Version:      "test",
		AdminKeyHash: adminKeyHash,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any, adminKey string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if adminKey != "" {
		req.Header.Set("X-Admin-Key", adminKey)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// makeRoom seeds a room through the dispatcher so the observe endpoints have
// something to report
func (ts *testServer) makeRoom(t *testing.T, code string, host model.ActorID, name string) {
	t.Helper()
	ctx := context.Background()

	events := ts.app.Dispatcher.Dispatch(ctx, model.InboundEvent{
		Sender:  host,
		Type:    model.EventUserConnected,
		Payload: json.RawMessage(`{"username":"` + name + `"}`),
	})
	require.Empty(t, events)

	ts.app.MockRandom.QueueString(code)
	events = ts.app.Dispatcher.Dispatch(ctx, model.InboundEvent{
		Sender:  host,
		Type:    model.EventCreateRoom,
		Payload: json.RawMessage(`{"username":"` + name + `"}`),
	})
	require.Len(t, events, 1)
	require.Equal(t, model.EventRoomCreated, events[0].Type)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, "")

	for _, path := range []string{"/health", "/api/health"} {
		rr := ts.request(http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, rr.Code, path)

		var resp response.Health
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "invadersync", resp.Server)
		assert.Equal(t, "test", resp.Version)
		assert.Zero(t, resp.Rooms)
	}
}

func TestHealthCountsRooms(t *testing.T) {
	ts := newTestServer(t, "")
	ts.makeRoom(t, "ROOM01", "alice", "Alice")

	rr := ts.request(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.Health
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Rooms)
}

func TestLoginLog(t *testing.T) {
	ts := newTestServer(t, "")

	body := map[string]any{"username": "Alice", "isAdmin": false}
	rr := ts.request(http.MethodPost, "/api/login-log", body, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	attempts := ts.app.BanMemory.LoginAttempts()
	require.Len(t, attempts, 1)
	assert.Equal(t, "Alice", attempts[0].Username)
	assert.False(t, attempts[0].IsAdmin)
}

func TestLoginLogRequiresUsername(t *testing.T) {
	ts := newTestServer(t, "")

	rr := ts.request(http.MethodPost, "/api/login-log", map[string]any{}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "INVALID_REQUEST")
}

func TestAdminKeyRequired(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sesame"), bcrypt.MinCost)
	require.NoError(t, err)
	ts := newTestServer(t, string(hash))

	// No key
	rr := ts.request(http.MethodGet, "/api/rooms", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Wrong key
	rr = ts.request(http.MethodGet, "/api/rooms", nil, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Right key
	rr = ts.request(http.MethodGet, "/api/rooms", nil, "sesame")
	assert.Equal(t, http.StatusOK, rr.Code)

	// Health stays open
	rr = ts.request(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdminKeyViaBearer(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sesame"), bcrypt.MinCost)
	require.NoError(t, err)
	ts := newTestServer(t, string(hash))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer sesame")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestListRooms(t *testing.T) {
	ts := newTestServer(t, "")
	ts.makeRoom(t, "BRAVO1", "bob", "Bob")
	ts.makeRoom(t, "ALPHA1", "alice", "Alice")

	rr := ts.request(http.MethodGet, "/api/rooms", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.RoomList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.TotalRooms)
	// Sorted by code
	assert.Equal(t, "ALPHA1", resp.Rooms[0].Code)
	assert.Equal(t, "BRAVO1", resp.Rooms[1].Code)
	assert.Equal(t, "Alice", resp.Rooms[0].HostName)
	assert.Equal(t, model.MaxRoomPlayers, resp.Rooms[0].MaxPlayers)
}

func TestGetRoom(t *testing.T) {
	ts := newTestServer(t, "")
	ts.makeRoom(t, "ROOM01", "alice", "Alice")

	rr := ts.request(http.MethodGet, "/api/rooms/ROOM01", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ROOM01", resp.Code)
	require.Len(t, resp.Members, 1)
	assert.Equal(t, "Alice", resp.Members[0].Name)
	assert.False(t, resp.GameStarted)
}

func TestGetRoomNotFound(t *testing.T) {
	ts := newTestServer(t, "")

	rr := ts.request(http.MethodGet, "/api/rooms/NOPE00", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "ROOM_NOT_FOUND")
}

func TestListUsers(t *testing.T) {
	ts := newTestServer(t, "")
	ts.makeRoom(t, "ROOM01", "alice", "Alice")

	rr := ts.request(http.MethodGet, "/api/users", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.UserList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.TotalUsers)
	assert.Equal(t, "Alice", resp.Users[0].Username)
	assert.Equal(t, "ROOM01", resp.Users[0].CurrentRoom)
	assert.True(t, resp.Users[0].IsOnline)
}

func TestAdminBan(t *testing.T) {
	ts := newTestServer(t, "")

	minutes := 60
	body := map[string]any{
		"username":   "Griefer",
		"banMinutes": minutes,
		"reason":     "aimbotting",
		"bannedBy":   "Moderator",
	}
	rr := ts.request(http.MethodPost, "/api/admin/ban", body, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.Ban
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Griefer", resp.Username)
	assert.Equal(t, "Moderator", resp.BannedBy)
	assert.False(t, resp.IsPermanent)
	require.NotNil(t, resp.BanEnd)
	assert.True(t, resp.BanEnd.Equal(ts.app.MockClock.Now().Add(time.Hour)))

	ban, err := ts.app.BanStore.FindActiveBan(context.Background(), "Griefer", ts.app.MockClock.Now())
	require.NoError(t, err)
	assert.True(t, ban.IsActive)
}

func TestAdminBanPermanentDefault(t *testing.T) {
	ts := newTestServer(t, "")

	rr := ts.request(http.MethodPost, "/api/admin/ban", map[string]any{"username": "Griefer"}, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.Ban
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.IsPermanent)
	assert.Nil(t, resp.BanEnd)
}

func TestAdminBanRequiresUsername(t *testing.T) {
	ts := newTestServer(t, "")

	rr := ts.request(http.MethodPost, "/api/admin/ban", map[string]any{"reason": "nope"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminBanEjectsOnlineTarget(t *testing.T) {
	ts := newTestServer(t, "")
	ts.makeRoom(t, "ROOM01", "eve", "Eve")

	rr := ts.request(http.MethodPost, "/api/admin/ban", map[string]any{"username": "Eve"}, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	_, err := ts.app.Registry.GetRoom(context.Background(), "ROOM01")
	assert.ErrorIs(t, err, model.ErrRoomNotFound)

	ts.app.MockScheduler.FireAll()
	assert.Contains(t, ts.app.Sink.Closed(), model.ActorID("eve"))
}
