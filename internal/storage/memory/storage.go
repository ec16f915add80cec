package memory

import (
	"context"
	"sync"

	"github.com/averykip/invadersync/internal/model"
	"github.com/averykip/invadersync/internal/storage"
)

// Storage is an in-memory implementation of the storage interface. Values
// are copied on save and on read, matching the redis backend's round-trip
// semantics, so a caller mutating a returned room or actor never races
// another reader of the stored state.
type Storage struct {
	mu sync.RWMutex

	actors map[model.ActorID]*model.Actor
	rooms  map[model.RoomCode]*model.Room
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		actors: make(map[model.ActorID]*model.Actor),
		rooms:  make(map[model.RoomCode]*model.Room),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func copyActor(a *model.Actor) *model.Actor {
	cp := *a
	if a.PetLevels != nil {
		cp.PetLevels = make(map[string]int, len(a.PetLevels))
		for k, v := range a.PetLevels {
			cp.PetLevels[k] = v
		}
	}
	return &cp
}

func copyRoom(r *model.Room) *model.Room {
	cp := *r
	if r.Members != nil {
		cp.Members = make([]model.Player, len(r.Members))
		copy(cp.Members, r.Members)
		for i := range cp.Members {
			src := r.Members[i].PetLevels
			if src == nil {
				continue
			}
			levels := make(map[string]int, len(src))
			for k, v := range src {
				levels[k] = v
			}
			cp.Members[i].PetLevels = levels
		}
	}
	if r.Snapshot != nil {
		snap := *r.Snapshot
		if r.Snapshot.Enemies != nil {
			snap.Enemies = make([]model.Enemy, len(r.Snapshot.Enemies))
			copy(snap.Enemies, r.Snapshot.Enemies)
		}
		cp.Snapshot = &snap
	}
	return &cp
}

// Actor operations

func (s *Storage) SaveActor(ctx context.Context, actor *model.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors[actor.ID] = copyActor(actor)
	return nil
}

func (s *Storage) GetActor(ctx context.Context, id model.ActorID) (*model.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actor, ok := s.actors[id]
	if !ok {
		return nil, model.ErrActorNotFound
	}
	return copyActor(actor), nil
}

func (s *Storage) DeleteActor(ctx context.Context, id model.ActorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.actors, id)
	return nil
}

func (s *Storage) ListActors(ctx context.Context) ([]*model.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actors := make([]*model.Actor, 0, len(s.actors))
	for _, actor := range s.actors {
		actors = append(actors, copyActor(actor))
	}
	return actors, nil
}

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.Code] = copyRoom(room)
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return copyRoom(room), nil
}

func (s *Storage) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
	return nil
}

func (s *Storage) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[code]
	return ok, nil
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*model.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, copyRoom(room))
	}
	return rooms, nil
}
