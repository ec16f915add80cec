package janitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	banmemory "github.com/averykip/invadersync/internal/banstore/memory"
	"github.com/averykip/invadersync/internal/dependencies/mocks"
	"github.com/averykip/invadersync/internal/model"
	"github.com/averykip/invadersync/internal/services/moderation"
	"github.com/averykip/invadersync/internal/services/presence"
	"github.com/averykip/invadersync/internal/services/registry"
	"github.com/averykip/invadersync/internal/storage/memory"
	"github.com/averykip/invadersync/internal/testutil"
)

type JanitorSuite struct {
	suite.Suite
	ctx      context.Context
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	bans     *banmemory.Store
	registry *registry.Controller
	presence *presence.Controller
	janitor  *Janitor
}

func TestJanitorSuite(t *testing.T) {
	suite.Run(t, new(JanitorSuite))
}

func (s *JanitorSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.bans = banmemory.New()

	store := memory.New()
	s.registry = registry.NewController(store, s.clock, s.random)
	s.presence = presence.NewController(store, s.clock)
	mod := moderation.NewController(s.bans, s.registry, s.clock)

	logger := testutil.NopLogger()
	s.janitor = New(s.presence, s.registry, mod, s.bans, s.clock, logger, DefaultConfig())
}

func (s *JanitorSuite) connect(id model.ActorID, name string) {
	_, err := s.presence.Connect(s.ctx, id, model.Profile{Name: name})
	s.Require().NoError(err)
}

func (s *JanitorSuite) makeRoom(host model.ActorID, name string) *model.Room {
	s.connect(host, name)
	s.random.QueueString("ROOM01")
	room, err := s.registry.CreateRoom(s.ctx, model.Player{ID: host, Name: name})
	s.Require().NoError(err)
	return room
}

func (s *JanitorSuite) TestSweepPresenceCollectsLapsedActors() {
	s.connect("alice", "Alice")
	s.connect("bob", "Bob")
	s.Require().NoError(s.presence.Disconnect(s.ctx, "bob"))

	// Within grace, nothing is collected
	s.clock.Advance(5 * time.Second)
	s.janitor.SweepPresence(s.ctx)
	_, err := s.presence.GetActor(s.ctx, "bob")
	s.NoError(err)

	s.clock.Advance(10 * time.Second)
	s.janitor.SweepPresence(s.ctx)

	_, err = s.presence.GetActor(s.ctx, "bob")
	s.ErrorIs(err, model.ErrActorNotFound)
	_, err = s.presence.GetActor(s.ctx, "alice")
	s.NoError(err)
}

func (s *JanitorSuite) TestSweepRoomsKeepsLiveRooms() {
	s.makeRoom("alice", "Alice")

	s.janitor.SweepRooms(s.ctx)

	_, err := s.registry.GetRoom(s.ctx, "ROOM01")
	s.NoError(err)
}

func (s *JanitorSuite) TestSweepRoomsCollectsAbandonedRoom() {
	s.makeRoom("alice", "Alice")
	s.Require().NoError(s.presence.Disconnect(s.ctx, "alice"))

	s.janitor.SweepRooms(s.ctx)

	_, err := s.registry.GetRoom(s.ctx, "ROOM01")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *JanitorSuite) TestSweepRoomsOneLiveMemberKeepsRoom() {
	room := s.makeRoom("alice", "Alice")
	s.connect("bob", "Bob")
	_, err := s.registry.JoinRoom(s.ctx, room.Code, model.Player{ID: "bob", Name: "Bob"})
	s.Require().NoError(err)
	s.Require().NoError(s.presence.Disconnect(s.ctx, "alice"))

	s.janitor.SweepRooms(s.ctx)

	_, err = s.registry.GetRoom(s.ctx, "ROOM01")
	s.NoError(err)
}

func (s *JanitorSuite) TestSweepRoomsDropsRoomMirror() {
	room := s.makeRoom("alice", "Alice")
	s.Require().NoError(s.bans.UpsertRoomMirror(s.ctx, room, s.clock.Now()))
	s.Require().NoError(s.presence.Disconnect(s.ctx, "alice"))

	s.janitor.SweepRooms(s.ctx)

	// The mirror row goes with the room, so an immediate prune finds nothing
	rooms, _, err := s.bans.PruneStaleMirrors(s.ctx, s.clock.Now().Add(time.Hour))
	s.Require().NoError(err)
	s.Zero(rooms)
}

func (s *JanitorSuite) TestSweepMirrorsPrunesStaleRows() {
	room := s.makeRoom("alice", "Alice")
	s.Require().NoError(s.bans.UpsertRoomMirror(s.ctx, room, s.clock.Now()))

	s.clock.Advance(20 * time.Minute)
	s.janitor.SweepMirrors(s.ctx)
	rooms, _, err := s.bans.PruneStaleMirrors(s.ctx, s.clock.Now().Add(-time.Hour))
	s.Require().NoError(err)
	s.Zero(rooms) // row survived the sweep, nothing older than an hour

	s.Require().NoError(s.bans.UpsertRoomMirror(s.ctx, room, s.clock.Now()))
	s.clock.Advance(40 * time.Minute)
	s.janitor.SweepMirrors(s.ctx)

	// A fresh upsert proves the old row is gone: prune with a future cutoff
	// only sees the row we just wrote
	s.Require().NoError(s.bans.UpsertRoomMirror(s.ctx, room, s.clock.Now()))
	rooms, _, err = s.bans.PruneStaleMirrors(s.ctx, s.clock.Now().Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), rooms)
}

func (s *JanitorSuite) TestSweepBansDeactivatesExpired() {
	minutes := 30
	ban := &model.BanRecord{
		Username:        "eve",
		BannedBy:        "Admin",
		Reason:          "spam",
		DurationMinutes: &minutes,
	}
	end := s.clock.Now().Add(30 * time.Minute)
	ban.BanEnd = &end
	s.Require().NoError(s.bans.InsertBan(s.ctx, ban))

	s.clock.Advance(time.Hour)
	s.janitor.SweepBans(s.ctx)

	_, err := s.bans.FindActiveBan(s.ctx, "eve", s.clock.Now())
	s.ErrorIs(err, model.ErrBanNotFound)

	// The sweep already flipped the record off, a second pass finds nothing
	n, err := s.bans.DeactivateExpiredBans(s.ctx, s.clock.Now())
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *JanitorSuite) TestStartStop() {
	cfg := DefaultConfig()
	cfg.DisconnectEvery = time.Millisecond
	cfg.RoomEvery = time.Millisecond
	cfg.MirrorEvery = time.Millisecond
	cfg.BanEvery = time.Millisecond
	logger := testutil.NopLogger()
	j := New(s.presence, s.registry,
		moderation.NewController(s.bans, s.registry, s.clock), s.bans,
		s.clock, logger, cfg)

	j.Start()
	time.Sleep(10 * time.Millisecond)
	j.Stop() // must not hang or panic
}

func (s *JanitorSuite) TestSweepsSurviveStoreErrors() {
	// Sweeps log and continue; none of them may panic on an empty world
	s.janitor.SweepPresence(s.ctx)
	s.janitor.SweepRooms(s.ctx)
	s.janitor.SweepMirrors(s.ctx)
	s.janitor.SweepBans(s.ctx)
}
