// Package presence tracks the directory of connected actors, independent of
// any room membership.
package presence

import (
	"context"
	"sort"
	"time"

	"github.com/averykip/invadersync/internal/dependencies/clock"
	"github.com/averykip/invadersync/internal/model"
	"github.com/averykip/invadersync/internal/storage"
)

// Controller manages the connected-actor directory
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
}

// NewController creates a new presence Controller
func NewController(storage storage.Storage, clock clock.Clock) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
	}
}

// Connect registers an actor as online, applying any profile the client sent.
// Reconnecting under an existing ID resets the connection timestamp.
func (c *Controller) Connect(ctx context.Context, id model.ActorID, profile model.Profile) (*model.Actor, error) {
	now := c.clock.Now()

	actor, err := c.storage.GetActor(ctx, id)
	if err != nil {
		actor = &model.Actor{
			ID:     id,
			Avatar: model.DefaultAvatar,
			Ship:   model.DefaultShip,
		}
	}

	actor.ApplyProfile(profile)
	actor.Online = true
	actor.ConnectedAt = now
	actor.LastSeen = now

	if err := c.storage.SaveActor(ctx, actor); err != nil {
		return nil, err
	}
	return actor, nil
}

// GetActor retrieves an actor by ID
func (c *Controller) GetActor(ctx context.Context, id model.ActorID) (*model.Actor, error) {
	return c.storage.GetActor(ctx, id)
}

// UpdateProfile overlays a profile update onto an actor
func (c *Controller) UpdateProfile(ctx context.Context, id model.ActorID, profile model.Profile) (*model.Actor, error) {
	actor, err := c.storage.GetActor(ctx, id)
	if err != nil {
		return nil, err
	}

	actor.ApplyProfile(profile)
	actor.LastSeen = c.clock.Now()

	if err := c.storage.SaveActor(ctx, actor); err != nil {
		return nil, err
	}
	return actor, nil
}

// SetRoom records which room an actor currently occupies
func (c *Controller) SetRoom(ctx context.Context, id model.ActorID, code model.RoomCode) error {
	actor, err := c.storage.GetActor(ctx, id)
	if err != nil {
		return err
	}

	actor.CurrentRoom = code
	actor.LastSeen = c.clock.Now()
	return c.storage.SaveActor(ctx, actor)
}

// Heartbeat refreshes an actor's liveness timestamp
func (c *Controller) Heartbeat(ctx context.Context, id model.ActorID) error {
	actor, err := c.storage.GetActor(ctx, id)
	if err != nil {
		return err
	}

	actor.LastSeen = c.clock.Now()
	return c.storage.SaveActor(ctx, actor)
}

// Disconnect marks an actor offline. The record lingers until the sweep so a
// quick reconnect can reclaim it.
func (c *Controller) Disconnect(ctx context.Context, id model.ActorID) error {
	actor, err := c.storage.GetActor(ctx, id)
	if err != nil {
		return err
	}

	actor.Online = false
	actor.LastSeen = c.clock.Now()
	return c.storage.SaveActor(ctx, actor)
}

// Remove deletes an actor from the directory
func (c *Controller) Remove(ctx context.Context, id model.ActorID) error {
	return c.storage.DeleteActor(ctx, id)
}

// Snapshot returns the online actors deduplicated by display name. When two
// sessions share a name, the one that connected latest wins; an exact tie
// falls to the smallest actor ID so the result is stable.
func (c *Controller) Snapshot(ctx context.Context) ([]*model.Actor, error) {
	actors, err := c.storage.ListActors(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*model.Actor)
	for _, actor := range actors {
		if !actor.Online {
			continue
		}
		current, ok := byName[actor.Name]
		if !ok || actorWins(actor, current) {
			byName[actor.Name] = actor
		}
	}

	result := make([]*model.Actor, 0, len(byName))
	for _, actor := range byName {
		result = append(result, actor)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// FindByName returns the online actor using a display name. With duplicate
// sessions the same tie-break as Snapshot applies.
func (c *Controller) FindByName(ctx context.Context, name string) (*model.Actor, error) {
	actors, err := c.storage.ListActors(ctx)
	if err != nil {
		return nil, err
	}

	var found *model.Actor
	for _, actor := range actors {
		if !actor.Online || actor.Name != name {
			continue
		}
		if found == nil || actorWins(actor, found) {
			found = actor
		}
	}
	if found == nil {
		return nil, model.ErrActorNotFound
	}
	return found, nil
}

// SweepDisconnected removes actors that have been offline longer than
// maxOffline, returning the removed records
func (c *Controller) SweepDisconnected(ctx context.Context, maxOffline time.Duration) ([]*model.Actor, error) {
	actors, err := c.storage.ListActors(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := c.clock.Now().Add(-maxOffline)

	var removed []*model.Actor
	for _, actor := range actors {
		if actor.Online || actor.LastSeen.After(cutoff) {
			continue
		}
		if err := c.storage.DeleteActor(ctx, actor.ID); err != nil {
			return removed, err
		}
		removed = append(removed, actor)
	}
	return removed, nil
}

func actorWins(candidate, current *model.Actor) bool {
	if !candidate.ConnectedAt.Equal(current.ConnectedAt) {
		return candidate.ConnectedAt.After(current.ConnectedAt)
	}
	return candidate.ID < current.ID
}

// Interface for dependency injection
type ControllerInterface interface {
	Connect(ctx context.Context, id model.ActorID, profile model.Profile) (*model.Actor, error)
	GetActor(ctx context.Context, id model.ActorID) (*model.Actor, error)
	UpdateProfile(ctx context.Context, id model.ActorID, profile model.Profile) (*model.Actor, error)
	SetRoom(ctx context.Context, id model.ActorID, code model.RoomCode) error
	Heartbeat(ctx context.Context, id model.ActorID) error
	Disconnect(ctx context.Context, id model.ActorID) error
	Remove(ctx context.Context, id model.ActorID) error
	FindByName(ctx context.Context, name string) (*model.Actor, error)
	Snapshot(ctx context.Context) ([]*model.Actor, error)
	SweepDisconnected(ctx context.Context, maxOffline time.Duration) ([]*model.Actor, error)
}

var _ ControllerInterface = (*Controller)(nil)
