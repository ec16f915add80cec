package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/averykip/invadersync/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

// Actor tests

func (s *StorageSuite) TestSaveAndGetActor() {
	actor := &model.Actor{
		ID:          "actor-1",
		Name:        "Alice",
		Avatar:      "astronaut",
		Ship:        "ship2",
		Online:      true,
		ConnectedAt: time.Now(),
	}

	err := s.storage.SaveActor(s.ctx, actor)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetActor(s.ctx, "actor-1")
	s.Require().NoError(err)
	s.Equal(actor.ID, retrieved.ID)
	s.Equal(actor.Name, retrieved.Name)
	s.Equal(actor.Ship, retrieved.Ship)
}

func (s *StorageSuite) TestGetActorNotFound() {
	_, err := s.storage.GetActor(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrActorNotFound)
}

func (s *StorageSuite) TestDeleteActor() {
	actor := &model.Actor{ID: "actor-1", Name: "Alice"}
	_ = s.storage.SaveActor(s.ctx, actor)

	err := s.storage.DeleteActor(s.ctx, "actor-1")
	s.Require().NoError(err)

	_, err = s.storage.GetActor(s.ctx, "actor-1")
	s.ErrorIs(err, model.ErrActorNotFound)
}

func (s *StorageSuite) TestListActors() {
	_ = s.storage.SaveActor(s.ctx, &model.Actor{ID: "actor-1", Name: "Alice"})
	_ = s.storage.SaveActor(s.ctx, &model.Actor{ID: "actor-2", Name: "Bob"})

	actors, err := s.storage.ListActors(s.ctx)
	s.Require().NoError(err)
	s.Len(actors, 2)
}

func (s *StorageSuite) TestListActorsEmpty() {
	actors, err := s.storage.ListActors(s.ctx)
	s.Require().NoError(err)
	s.Empty(actors)
}

// Room tests

func (s *StorageSuite) TestSaveAndGetRoom() {
	room := &model.Room{
		Code:   "ABC123",
		HostID: "actor-1",
		State:  model.RoomStateWaiting,
		Members: []model.Player{
			{ID: "actor-1", Name: "Alice", JoinedAt: time.Now()},
		},
		CreatedAt: time.Now(),
	}

	err := s.storage.SaveRoom(s.ctx, room)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRoom(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(room.Code, retrieved.Code)
	s.Equal(room.HostID, retrieved.HostID)
	s.Len(retrieved.Members, 1)
}

func (s *StorageSuite) TestGetRoomNotFound() {
	_, err := s.storage.GetRoom(s.ctx, "NOPE")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestDeleteRoom() {
	_ = s.storage.SaveRoom(s.ctx, &model.Room{Code: "ABC123"})

	err := s.storage.DeleteRoom(s.ctx, "ABC123")
	s.Require().NoError(err)

	_, err = s.storage.GetRoom(s.ctx, "ABC123")
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

func (s *StorageSuite) TestListRooms() {
	_ = s.storage.SaveRoom(s.ctx, &model.Room{Code: "AAA111"})
	_ = s.storage.SaveRoom(s.ctx, &model.Room{Code: "BBB222"})

	rooms, err := s.storage.ListRooms(s.ctx)
	s.Require().NoError(err)
	s.Len(rooms, 2)
}

// Copy-semantics tests. Readers may iterate a returned room while a
// controller mutates and re-saves its own copy, so stored state must never
// alias what callers hold.

func (s *StorageSuite) TestGetRoomReturnsCopy() {
	_ = s.storage.SaveRoom(s.ctx, &model.Room{
		Code:   "ABC123",
		HostID: "actor-1",
		Members: []model.Player{
			{ID: "actor-1", Name: "Alice", PetLevels: map[string]int{"cat": 2}},
			{ID: "actor-2", Name: "Bob"},
		},
		Snapshot: &model.WorldSnapshot{Level: 1, Enemies: []model.Enemy{{ID: "enemy_0"}}},
	})

	first, err := s.storage.GetRoom(s.ctx, "ABC123")
	s.Require().NoError(err)
	first.Members = first.Members[:1]
	first.Members[0].Name = "Mallory"
	first.Members[0].PetLevels["cat"] = 99
	first.Snapshot.Enemies[0].ID = "enemy_9"

	second, err := s.storage.GetRoom(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Len(second.Members, 2)
	s.Equal("Alice", second.Members[0].Name)
	s.Equal(2, second.Members[0].PetLevels["cat"])
	s.Equal("enemy_0", second.Snapshot.Enemies[0].ID)
}

func (s *StorageSuite) TestSaveRoomDetachesFromCaller() {
	room := &model.Room{
		Code:    "ABC123",
		Members: []model.Player{{ID: "actor-1", Name: "Alice"}},
	}
	_ = s.storage.SaveRoom(s.ctx, room)

	room.Members[0].Name = "Mallory"
	room.Members = nil

	retrieved, err := s.storage.GetRoom(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Require().Len(retrieved.Members, 1)
	s.Equal("Alice", retrieved.Members[0].Name)
}

func (s *StorageSuite) TestGetActorReturnsCopy() {
	_ = s.storage.SaveActor(s.ctx, &model.Actor{
		ID: "actor-1", Name: "Alice", PetLevels: map[string]int{"cat": 2},
	})

	first, err := s.storage.GetActor(s.ctx, "actor-1")
	s.Require().NoError(err)
	first.Name = "Mallory"
	first.PetLevels["cat"] = 99

	second, err := s.storage.GetActor(s.ctx, "actor-1")
	s.Require().NoError(err)
	s.Equal("Alice", second.Name)
	s.Equal(2, second.PetLevels["cat"])
}
