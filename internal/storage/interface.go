package storage

import (
	"context"

	"github.com/averykip/invadersync/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Actor operations
	SaveActor(ctx context.Context, actor *model.Actor) error
	GetActor(ctx context.Context, id model.ActorID) (*model.Actor, error)
	DeleteActor(ctx context.Context, id model.ActorID) error
	ListActors(ctx context.Context) ([]*model.Actor, error)

	// Room operations
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error)
	DeleteRoom(ctx context.Context, code model.RoomCode) error
	RoomExists(ctx context.Context, code model.RoomCode) (bool, error)
	ListRooms(ctx context.Context) ([]*model.Room, error)
}
