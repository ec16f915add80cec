package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	banmemory "github.com/averykip/invadersync/internal/banstore/memory"
	"github.com/averykip/invadersync/internal/dependencies/clock"
	"github.com/averykip/invadersync/internal/dependencies/mocks"
	"github.com/averykip/invadersync/internal/dependencies/random"
	"github.com/averykip/invadersync/internal/model"
	"github.com/averykip/invadersync/internal/relay"
	"github.com/averykip/invadersync/internal/services/moderation"
	"github.com/averykip/invadersync/internal/services/presence"
	"github.com/averykip/invadersync/internal/services/registry"
	"github.com/averykip/invadersync/internal/storage/memory"
	"github.com/averykip/invadersync/internal/testutil"
)

type hubFixture struct {
	hub   *Hub
	bans  *banmemory.Store
	sched *mocks.MockScheduler
	srv   *httptest.Server
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()

	store := memory.New()
	clk := clock.New()
	rnd := random.New()
	bans := banmemory.New()
	sched := mocks.NewMockScheduler()

	reg := registry.NewController(store, clk, rnd)
	pres := presence.NewController(store, clk)
	mod := moderation.NewController(bans, reg, clk)

	logger := testutil.NopLogger()
	hub := NewHub(reg, logger)
	hub.Bind(relay.NewDispatcher(reg, pres, mod, bans, sched, clk, rnd, hub, logger))

	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})
	return &hubFixture{hub: hub, bans: bans, sched: sched, srv: srv}
}

func (f *hubFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil {
		resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, eventType string, data string) {
	t.Helper()
	frame := `{"type":"` + eventType + `"`
	if data != "" {
		frame += `,"data":` + data
	}
	frame += `}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

// readFrame reads the next frame of the wanted type, skipping others
func readFrame(t *testing.T, conn *websocket.Conn, want model.EventType) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", want)

		var frame struct {
			Type model.EventType `json:"type"`
			Data map[string]any  `json:"data"`
		}
		require.NoError(t, json.Unmarshal(payload, &frame))
		if frame.Type == want {
			return frame.Data
		}
	}
}

func TestCreateRoomRoundTrip(t *testing.T) {
	f := newHubFixture(t)
	conn := f.dial(t)

	send(t, conn, "userConnected", `{"username":"Alice"}`)
	send(t, conn, "createRoom", `{"username":"Alice"}`)

	data := readFrame(t, conn, model.EventRoomCreated)
	require.Len(t, data["roomCode"], registry.RoomCodeLength)
	require.Equal(t, true, data["isHost"])

	players := data["players"].([]any)
	require.Len(t, players, 1)
	require.Equal(t, "Alice", players[0].(map[string]any)["name"])
}

func TestJoinBroadcastsToHost(t *testing.T) {
	f := newHubFixture(t)

	host := f.dial(t)
	send(t, host, "userConnected", `{"username":"Alice"}`)
	send(t, host, "createRoom", `{"username":"Alice"}`)
	created := readFrame(t, host, model.EventRoomCreated)
	code := created["roomCode"].(string)

	guest := f.dial(t)
	send(t, guest, "userConnected", `{"username":"Bob"}`)
	send(t, guest, "joinRoom", `{"roomCode":"`+code+`","playerData":{"username":"Bob"}}`)

	joined := readFrame(t, guest, model.EventRoomJoined)
	require.Equal(t, false, joined["isHost"])

	notice := readFrame(t, host, model.EventPlayerJoined)
	require.Equal(t, "Bob", notice["newPlayer"].(map[string]any)["name"])
	require.Len(t, notice["players"].([]any), 2)
}

func TestGameplayRelayExcludesSender(t *testing.T) {
	f := newHubFixture(t)

	host := f.dial(t)
	send(t, host, "userConnected", `{"username":"Alice"}`)
	send(t, host, "createRoom", `{"username":"Alice"}`)
	created := readFrame(t, host, model.EventRoomCreated)
	code := created["roomCode"].(string)

	guest := f.dial(t)
	send(t, guest, "userConnected", `{"username":"Bob"}`)
	send(t, guest, "joinRoom", `{"roomCode":"`+code+`","playerData":{"username":"Bob"}}`)
	readFrame(t, guest, model.EventRoomJoined)

	send(t, guest, "playerMove", `{"x":42,"y":600}`)

	moved := readFrame(t, host, model.EventPlayerMoved)
	require.Equal(t, float64(42), moved["x"])
	require.NotEmpty(t, moved["playerId"])
}

func TestDisconnectBroadcastsDeparture(t *testing.T) {
	f := newHubFixture(t)

	host := f.dial(t)
	send(t, host, "userConnected", `{"username":"Alice"}`)
	send(t, host, "createRoom", `{"username":"Alice"}`)
	created := readFrame(t, host, model.EventRoomCreated)
	code := created["roomCode"].(string)

	guest := f.dial(t)
	send(t, guest, "userConnected", `{"username":"Bob"}`)
	send(t, guest, "joinRoom", `{"roomCode":"`+code+`","playerData":{"username":"Bob"}}`)
	readFrame(t, guest, model.EventRoomJoined)
	readFrame(t, host, model.EventPlayerJoined)

	require.NoError(t, guest.Close())

	left := readFrame(t, host, model.EventPlayerLeft)
	require.Equal(t, "Bob", left["leftPlayerName"])
	require.Equal(t, "leave", left["reason"])
}

func TestBannedConnectIsRejectedAndClosed(t *testing.T) {
	f := newHubFixture(t)

	err := f.bans.InsertBan(context.Background(), &model.BanRecord{
		Username: "Eve", BannedBy: "Admin", Reason: "spam",
		IsPermanent: true, IsActive: true,
	})
	require.NoError(t, err)

	conn := f.dial(t)
	send(t, conn, "userConnected", `{"username":"Eve"}`)

	notice := readFrame(t, conn, model.EventUserBanned)
	require.Equal(t, "spam", notice["reason"])

	// The deferred forced close severs the connection
	f.sched.FireAll()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, readErr := conn.ReadMessage()
	require.Error(t, readErr)
}

func TestPingPong(t *testing.T) {
	f := newHubFixture(t)
	conn := f.dial(t)

	send(t, conn, "ping", `{"timestamp":777}`)
	pong := readFrame(t, conn, model.EventPong)
	require.Equal(t, float64(777), pong["originalTimestamp"])
	require.Greater(t, pong["timestamp"], float64(0))
}

func TestConnectionCount(t *testing.T) {
	f := newHubFixture(t)
	require.Equal(t, 0, f.hub.ConnectionCount())

	conn := f.dial(t)
	send(t, conn, "ping", `{"timestamp":1}`)
	readFrame(t, conn, model.EventPong)
	require.Equal(t, 1, f.hub.ConnectionCount())

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return f.hub.ConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
