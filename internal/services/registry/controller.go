// Package registry manages room lifecycle: creation, membership, game start
// and level progression.
package registry

import (
	"context"
	"sync"

	"github.com/averykip/invadersync/internal/dependencies/clock"
	"github.com/averykip/invadersync/internal/dependencies/random"
	"github.com/averykip/invadersync/internal/model"
	"github.com/averykip/invadersync/internal/storage"
	"github.com/averykip/invadersync/internal/worldgen"
)

const (
	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6
	// RoomCodeAlphabet is the characters used in room codes
	RoomCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// StartCountdownSeconds is the lead time between the start announcement
	// and the game actually beginning
	StartCountdownSeconds = 3
)

// Controller manages the room state machine and member operations.
//
// Storage is a plain KV layer, so every read-modify-write sequence here runs
// under the controller mutex to stay atomic with respect to concurrent events.
type Controller struct {
	mu sync.Mutex

	storage storage.Storage
	clock   clock.Clock
	random  random.Random
}

// NewController creates a new registry Controller
func NewController(storage storage.Storage, clock clock.Clock, random random.Random) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		random:  random,
	}
}

// LeaveResult describes the outcome of a member removal
type LeaveResult struct {
	Room        *model.Room
	Removed     model.Player
	NewHost     *model.Player
	RoomDeleted bool
}

// CreateRoom creates a new room with the given player as host
func (c *Controller) CreateRoom(ctx context.Context, host model.Player) (*model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	host.JoinedAt = now

	// Generate unique room code
	var code model.RoomCode
	for {
		code = model.RoomCode(c.random.String(RoomCodeLength, RoomCodeAlphabet))
		exists, err := c.storage.RoomExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
	}

	room := &model.Room{
		Code:      code,
		HostID:    host.ID,
		Members:   []model.Player{host},
		State:     model.RoomStateWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	return room, nil
}

// GetRoom retrieves a room by code
func (c *Controller) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	return c.storage.GetRoom(ctx, code)
}

// ListRooms returns all active rooms
func (c *Controller) ListRooms(ctx context.Context) ([]*model.Room, error) {
	return c.storage.ListRooms(ctx)
}

// JoinRoom adds a player to a room. Members may join mid-game; the room only
// rejects them when it is at capacity.
func (c *Controller) JoinRoom(ctx context.Context, code model.RoomCode, player model.Player) (*model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	if room.GetMember(player.ID) != nil {
		return nil, model.ErrAlreadyInRoom
	}
	if room.IsFull() {
		return nil, model.ErrRoomFull
	}

	now := c.clock.Now()
	player.JoinedAt = now
	player.InGame = room.Started()
	room.Members = append(room.Members, player)
	room.UpdatedAt = now

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	return room, nil
}

// LeaveRoom removes a player from a room. An emptied room is deleted; if the
// host left, the earliest remaining joiner becomes host.
func (c *Controller) LeaveRoom(ctx context.Context, code model.RoomCode, playerID model.ActorID) (*LeaveResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.removeLocked(ctx, code, playerID, nil)
}

// RemovePlayerIf removes a player after re-running check against the current
// room state, all under the controller mutex. Moderation uses this to make
// its external-store round trip safe against concurrent membership changes.
func (c *Controller) RemovePlayerIf(ctx context.Context, code model.RoomCode, playerID model.ActorID, check func(*model.Room) error) (*LeaveResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.removeLocked(ctx, code, playerID, check)
}

func (c *Controller) removeLocked(ctx context.Context, code model.RoomCode, playerID model.ActorID, check func(*model.Room) error) (*LeaveResult, error) {
	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	if check != nil {
		if err := check(room); err != nil {
			return nil, err
		}
	}

	member := room.GetMember(playerID)
	if member == nil {
		return nil, model.ErrNotInRoom
	}

	result := &LeaveResult{Removed: *member}
	wasHost := room.HostID == playerID

	for i, m := range room.Members {
		if m.ID == playerID {
			room.Members = append(room.Members[:i], room.Members[i+1:]...)
			break
		}
	}

	if len(room.Members) == 0 {
		result.RoomDeleted = true
		if err := c.storage.DeleteRoom(ctx, code); err != nil {
			return nil, err
		}
		return result, nil
	}

	if wasHost {
		room.HostID = room.Members[0].ID
		result.NewHost = &room.Members[0]
	}

	room.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	result.Room = room
	return result, nil
}

// BeginCountdown starts the pre-game countdown: only the host may trigger it,
// and only from the waiting state. The shared seed is drawn here so every
// member generates the same world.
func (c *Controller) BeginCountdown(ctx context.Context, code model.RoomCode, requester model.ActorID) (*model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	if room.HostID != requester {
		return nil, model.ErrNotHost
	}
	if room.State != model.RoomStateWaiting {
		return nil, model.ErrGameStarted
	}

	room.State = model.RoomStateStarting
	room.SharedSeed = c.random.Int63n(worldgen.MaxSeed)
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	return room, nil
}

// CompleteStart flips a counting-down room into the active state and
// generates the opening level. Timer callbacks call this after the countdown;
// it re-validates state so a room that emptied or reset in the meantime is
// left alone.
func (c *Controller) CompleteStart(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	if room.State != model.RoomStateStarting {
		return nil, model.ErrGameNotStarted
	}

	room.State = model.RoomStateActive
	room.StartedAt = c.clock.Now()
	room.CurrentLevel = 1
	room.Snapshot = worldgen.Generate(1, room.SharedSeed)
	room.UpdatedAt = room.StartedAt

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	return room, nil
}

// AdvanceLevel moves an active room to newLevel and regenerates the world
// with the room's existing seed. newLevel <= 0 means "next level". Any member
// may report level completion.
func (c *Controller) AdvanceLevel(ctx context.Context, code model.RoomCode, reporter model.ActorID, newLevel int) (*model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	if room.GetMember(reporter) == nil {
		return nil, model.ErrNotInRoom
	}
	if !room.Started() {
		return nil, model.ErrGameNotStarted
	}

	if newLevel <= 0 {
		newLevel = room.CurrentLevel + 1
	}

	room.CurrentLevel = newLevel
	room.Snapshot = worldgen.Generate(newLevel, room.SharedSeed)
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	return room, nil
}

// UpdateMemberProfile refreshes a member's cosmetic fields after a profile
// change while in the room
func (c *Controller) UpdateMemberProfile(ctx context.Context, code model.RoomCode, playerID model.ActorID, profile model.Profile) (*model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	member := room.GetMember(playerID)
	if member == nil {
		return nil, model.ErrNotInRoom
	}

	if profile.Name != "" {
		member.Name = profile.Name
	}
	if profile.Avatar != "" {
		member.Avatar = profile.Avatar
	}
	if profile.Ship != "" {
		member.Ship = profile.Ship
	}
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// TouchRoom refreshes a room's activity timestamp
func (c *Controller) TouchRoom(ctx context.Context, code model.RoomCode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return err
	}

	room.UpdatedAt = c.clock.Now()
	return c.storage.SaveRoom(ctx, room)
}

// DeleteRoom removes a room outright (used by the janitor)
func (c *Controller) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.storage.DeleteRoom(ctx, code)
}

// Interface for dependency injection
type ControllerInterface interface {
	CreateRoom(ctx context.Context, host model.Player) (*model.Room, error)
	GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error)
	ListRooms(ctx context.Context) ([]*model.Room, error)
	JoinRoom(ctx context.Context, code model.RoomCode, player model.Player) (*model.Room, error)
	LeaveRoom(ctx context.Context, code model.RoomCode, playerID model.ActorID) (*LeaveResult, error)
	RemovePlayerIf(ctx context.Context, code model.RoomCode, playerID model.ActorID, check func(*model.Room) error) (*LeaveResult, error)
	BeginCountdown(ctx context.Context, code model.RoomCode, requester model.ActorID) (*model.Room, error)
	CompleteStart(ctx context.Context, code model.RoomCode) (*model.Room, error)
	AdvanceLevel(ctx context.Context, code model.RoomCode, reporter model.ActorID, newLevel int) (*model.Room, error)
	UpdateMemberProfile(ctx context.Context, code model.RoomCode, playerID model.ActorID, profile model.Profile) (*model.Room, error)
	TouchRoom(ctx context.Context, code model.RoomCode) error
	DeleteRoom(ctx context.Context, code model.RoomCode) error
}

var _ ControllerInterface = (*Controller)(nil)
