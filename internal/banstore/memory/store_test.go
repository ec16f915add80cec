package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/averykip/invadersync/internal/model"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
	now   time.Time
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StoreSuite) insertBan(username string, minutes int) *model.BanRecord {
	end := s.now.Add(time.Duration(minutes) * time.Minute)
	ban := &model.BanRecord{
		Username:        username,
		BannedBy:        "Host",
		Reason:          "griefing",
		DurationMinutes: &minutes,
		BanStart:        s.now,
		BanEnd:          &end,
	}
	s.Require().NoError(s.store.InsertBan(s.ctx, ban))
	return ban
}

func (s *StoreSuite) TestInsertBanAssignsID() {
	ban := s.insertBan("alice", 30)
	s.NotEmpty(ban.ID)
	s.True(ban.IsActive)
}

func (s *StoreSuite) TestFindActiveBan() {
	s.insertBan("alice", 30)

	found, err := s.store.FindActiveBan(s.ctx, "alice", s.now.Add(10*time.Minute))
	s.Require().NoError(err)
	s.Equal("alice", found.Username)
	s.Equal("griefing", found.Reason)
}

func (s *StoreSuite) TestFindActiveBanExpired() {
	s.insertBan("alice", 30)

	_, err := s.store.FindActiveBan(s.ctx, "alice", s.now.Add(31*time.Minute))
	s.ErrorIs(err, model.ErrBanNotFound)
}

func (s *StoreSuite) TestFindActiveBanWrongUser() {
	s.insertBan("alice", 30)

	_, err := s.store.FindActiveBan(s.ctx, "bob", s.now)
	s.ErrorIs(err, model.ErrBanNotFound)
}

func (s *StoreSuite) TestFindActiveBanPermanent() {
	ban := &model.BanRecord{
		Username:    "mallory",
		BannedBy:    "Administrador",
		Reason:      "cheating",
		BanStart:    s.now,
		IsPermanent: true,
	}
	s.Require().NoError(s.store.InsertBan(s.ctx, ban))

	// A permanent ban has no end and never expires
	found, err := s.store.FindActiveBan(s.ctx, "mallory", s.now.AddDate(10, 0, 0))
	s.Require().NoError(err)
	s.True(found.IsPermanent)
	s.Nil(found.BanEnd)
}

func (s *StoreSuite) TestDeactivateExpiredBans() {
	s.insertBan("alice", 10)
	s.insertBan("bob", 120)

	n, err := s.store.DeactivateExpiredBans(s.ctx, s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	_, err = s.store.FindActiveBan(s.ctx, "alice", s.now)
	s.ErrorIs(err, model.ErrBanNotFound)

	_, err = s.store.FindActiveBan(s.ctx, "bob", s.now.Add(time.Hour))
	s.Require().NoError(err)
}

func (s *StoreSuite) TestDeactivateLeavesPermanentBans() {
	s.Require().NoError(s.store.InsertBan(s.ctx, &model.BanRecord{
		Username:    "mallory",
		BannedBy:    "Administrador",
		IsPermanent: true,
	}))

	n, err := s.store.DeactivateExpiredBans(s.ctx, s.now.AddDate(1, 0, 0))
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *StoreSuite) TestRecordLoginAttempt() {
	err := s.store.RecordLoginAttempt(s.ctx, &model.LoginAttempt{
		Username:  "alice",
		IsAdmin:   true,
		IP:        "10.0.0.1",
		Timestamp: s.now,
	})
	s.Require().NoError(err)

	attempts := s.store.LoginAttempts()
	s.Require().Len(attempts, 1)
	s.Equal("alice", attempts[0].Username)
	s.True(attempts[0].IsAdmin)
}

func (s *StoreSuite) TestRoomMirrorLifecycle() {
	room := &model.Room{
		Code:   "ABC123",
		HostID: "actor-1",
		State:  model.RoomStateWaiting,
		Members: []model.Player{
			{ID: "actor-1", Name: "Alice"},
		},
	}
	s.Require().NoError(s.store.UpsertRoomMirror(s.ctx, room, s.now))
	s.Require().NoError(s.store.UpsertPlayerMirror(s.ctx, room.Code, &room.Members[0], true, s.now))

	mirrored, ok := s.store.MirroredRoom("ABC123")
	s.Require().True(ok)
	s.Equal(model.RoomCode("ABC123"), mirrored.Code)

	s.Require().NoError(s.store.DeleteRoomMirror(s.ctx, "ABC123"))
	_, ok = s.store.MirroredRoom("ABC123")
	s.False(ok)
}

func (s *StoreSuite) TestPruneStaleMirrors() {
	oldRoom := &model.Room{Code: "OLD111", HostID: "actor-1"}
	newRoom := &model.Room{Code: "NEW222", HostID: "actor-2"}
	s.Require().NoError(s.store.UpsertRoomMirror(s.ctx, oldRoom, s.now.Add(-time.Hour)))
	s.Require().NoError(s.store.UpsertRoomMirror(s.ctx, newRoom, s.now))

	offline := &model.Player{ID: "actor-3", Name: "Carol"}
	s.Require().NoError(s.store.UpsertPlayerMirror(s.ctx, "OLD111", offline, true, s.now.Add(-time.Hour)))
	s.Require().NoError(s.store.MarkPlayerOffline(s.ctx, "OLD111", "actor-3", s.now.Add(-time.Hour)))

	rooms, players, err := s.store.PruneStaleMirrors(s.ctx, s.now.Add(-30*time.Minute))
	s.Require().NoError(err)
	s.Equal(int64(1), rooms)
	s.Equal(int64(1), players)

	_, ok := s.store.MirroredRoom("NEW222")
	s.True(ok)
}
