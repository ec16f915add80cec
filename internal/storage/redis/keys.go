package redis

import (
	"fmt"

	"github.com/averykip/invadersync/internal/model"
)

// Key prefix for all session-coordinator data
const keyPrefix = "invsync"

// Key generation functions for each entity type

// actorKey returns the Redis key for an Actor
func actorKey(id model.ActorID) string {
	return fmt.Sprintf("%s:actor:%s", keyPrefix, id)
}

// roomKey returns the Redis key for a Room
func roomKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, code)
}

// actorIndexKey returns the Redis key for the SET of all actor keys
func actorIndexKey() string {
	return fmt.Sprintf("%s:idx:actors", keyPrefix)
}

// roomIndexKey returns the Redis key for the SET of all room keys
func roomIndexKey() string {
	return fmt.Sprintf("%s:idx:rooms", keyPrefix)
}
