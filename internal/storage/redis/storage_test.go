package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/averykip/invadersync/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.ActorTTL = time.Hour
	cfg.RoomTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Actor tests

func (s *StorageSuite) TestSaveAndGetActor() {
	actor := &model.Actor{
		ID:          "actor-1",
		Name:        "Alice",
		Avatar:      "astronaut",
		Ship:        "ship3",
		CurrentRoom: "ABC123",
		Online:      true,
		ConnectedAt: time.Now().UTC(),
	}

	err := s.storage.SaveActor(s.ctx, actor)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetActor(s.ctx, "actor-1")
	s.Require().NoError(err)
	s.Equal(actor.ID, retrieved.ID)
	s.Equal(actor.Name, retrieved.Name)
	s.Equal(actor.CurrentRoom, retrieved.CurrentRoom)
}

func (s *StorageSuite) TestGetActorNotFound() {
	_, err := s.storage.GetActor(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrActorNotFound)
}

func (s *StorageSuite) TestDeleteActorRemovesFromListing() {
	_ = s.storage.SaveActor(s.ctx, &model.Actor{ID: "actor-1", Name: "Alice"})
	_ = s.storage.SaveActor(s.ctx, &model.Actor{ID: "actor-2", Name: "Bob"})

	err := s.storage.DeleteActor(s.ctx, "actor-1")
	s.Require().NoError(err)

	actors, err := s.storage.ListActors(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(actors, 1)
	s.Equal(model.ActorID("actor-2"), actors[0].ID)
}

func (s *StorageSuite) TestListActorsSkipsExpired() {
	_ = s.storage.SaveActor(s.ctx, &model.Actor{ID: "actor-1", Name: "Alice"})
	_ = s.storage.SaveActor(s.ctx, &model.Actor{ID: "actor-2", Name: "Bob"})

	// Expire one value underneath the index
	s.mini.FastForward(2 * time.Hour)
	_ = s.storage.SaveActor(s.ctx, &model.Actor{ID: "actor-2", Name: "Bob"})

	actors, err := s.storage.ListActors(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(actors, 1)
	s.Equal(model.ActorID("actor-2"), actors[0].ID)
}

// Room tests

func (s *StorageSuite) TestSaveAndGetRoom() {
	room := &model.Room{
		Code:       "ABC123",
		HostID:     "actor-1",
		State:      model.RoomStateActive,
		SharedSeed: 424242,
		Members: []model.Player{
			{ID: "actor-1", Name: "Alice"},
			{ID: "actor-2", Name: "Bob"},
		},
	}

	err := s.storage.SaveRoom(s.ctx, room)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRoom(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(room.Code, retrieved.Code)
	s.Equal(room.SharedSeed, retrieved.SharedSeed)
	s.Len(retrieved.Members, 2)
}

func (s *StorageSuite) TestGetRoomNotFound() {
	_, err := s.storage.GetRoom(s.ctx, "NOPE")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestRoomExists() {
	exists, err := s.storage.RoomExists(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.False(exists)

	_ = s.storage.SaveRoom(s.ctx, &model.Room{Code: "ABC123"})

	exists, err = s.storage.RoomExists(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *StorageSuite) TestDeleteRoomRemovesFromListing() {
	_ = s.storage.SaveRoom(s.ctx, &model.Room{Code: "AAA111"})
	_ = s.storage.SaveRoom(s.ctx, &model.Room{Code: "BBB222"})

	err := s.storage.DeleteRoom(s.ctx, "AAA111")
	s.Require().NoError(err)

	rooms, err := s.storage.ListRooms(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(rooms, 1)
	s.Equal(model.RoomCode("BBB222"), rooms[0].Code)
}

func (s *StorageSuite) TestListRoomsEmpty() {
	rooms, err := s.storage.ListRooms(s.ctx)
	s.Require().NoError(err)
	s.Empty(rooms)
}
