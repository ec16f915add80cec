// Package relay turns inbound protocol events into state changes and fanned
// out outbound events. Handlers are synchronous; anything deferred (countdown
// completion, forced disconnects) goes through the scheduler and is delivered
// via the Sink.
package relay

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/averykip/invadersync/internal/banstore"
	"github.com/averykip/invadersync/internal/dependencies/clock"
	"github.com/averykip/invadersync/internal/dependencies/random"
	"github.com/averykip/invadersync/internal/dependencies/scheduler"
	"github.com/averykip/invadersync/internal/model"
	"github.com/averykip/invadersync/internal/services/moderation"
	"github.com/averykip/invadersync/internal/services/presence"
	"github.com/averykip/invadersync/internal/services/registry"
)

// banDisconnectDelay gives the client time to render the ban notice before
// the server closes the connection
const banDisconnectDelay = time.Second

// Sink receives deliveries that happen outside a Dispatch call
type Sink interface {
	// Deliver fans out events to connected sessions
	Deliver(events ...model.OutboundEvent)
	// CloseActor forcibly disconnects an actor's session
	CloseActor(id model.ActorID)
}

// Dispatcher routes inbound events to the services and assembles responses
type Dispatcher struct {
	registry   registry.ControllerInterface
	presence   presence.ControllerInterface
	moderation moderation.ControllerInterface
	mirror     banstore.Store
	scheduler  scheduler.Scheduler
	clock      clock.Clock
	random     random.Random
	sink       Sink
	logger     *slog.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(
	registry registry.ControllerInterface,
	presence presence.ControllerInterface,
	moderation moderation.ControllerInterface,
	mirror banstore.Store,
	scheduler scheduler.Scheduler,
	clock clock.Clock,
	random random.Random,
	sink Sink,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		registry:   registry,
		presence:   presence,
		moderation: moderation,
		mirror:     mirror,
		scheduler:  scheduler,
		clock:      clock,
		random:     random,
		sink:       sink,
		logger:     logger,
	}
}

// HandleConnect registers a fresh session in the presence directory with a
// generated placeholder name. The client overwrites it with userConnected.
func (d *Dispatcher) HandleConnect(ctx context.Context, id model.ActorID) error {
	_, err := d.presence.Connect(ctx, id, model.Profile{Name: d.placeholderName()})
	return err
}

// HandleDisconnect tears down a session: the actor leaves its room (if any)
// and is marked offline for the presence sweep to collect
func (d *Dispatcher) HandleDisconnect(ctx context.Context, id model.ActorID) []model.OutboundEvent {
	events := d.leaveCurrentRoom(ctx, id, "leave")

	if err := d.presence.Disconnect(ctx, id); err != nil && err != model.ErrActorNotFound {
		d.logger.Warn("marking actor offline failed", "actor", id, "error", err)
	}
	return events
}

// Dispatch processes one inbound event and returns the events to deliver.
// Unknown event types and events from actors in no room are silent no-ops.
func (d *Dispatcher) Dispatch(ctx context.Context, ev model.InboundEvent) []model.OutboundEvent {
	switch ev.Type {
	case model.EventUserConnected:
		return d.handleUserConnected(ctx, ev)
	case model.EventCreateRoom:
		return d.handleCreateRoom(ctx, ev)
	case model.EventJoinRoom:
		return d.handleJoinRoom(ctx, ev)
	case model.EventStartGame:
		return d.handleStartGame(ctx, ev)
	case model.EventLevelCompleted:
		return d.handleLevelCompleted(ctx, ev)
	case model.EventLeaveRoom:
		return d.handleLeaveRoom(ctx, ev)
	case model.EventKickPlayer:
		return d.handleKickPlayer(ctx, ev)
	case model.EventAdminBanUser:
		return d.handleAdminBan(ctx, ev)
	case model.EventRequestRoomUpdate:
		return d.handleRequestRoomUpdate(ctx, ev)
	case model.EventGetConnectedUsers:
		return d.handleGetConnectedUsers(ctx, ev)
	case model.EventGetAvailableRooms:
		return d.handleGetAvailableRooms(ctx, ev)
	case model.EventPing:
		return d.handlePing(ev)

	case model.EventPlayerMove, model.EventPlayerShoot, model.EventChatMessage,
		model.EventEnemyDestroyed, model.EventEnemyShoot, model.EventPowerupTaken,
		model.EventCoinTaken, model.EventEnemyUpdate, model.EventGameStateUpdate,
		model.EventPlayerDeath, model.EventPlayerRespawn, model.EventScoreUpdate:
		return d.handleGameplay(ctx, ev)
	}

	d.logger.Debug("ignoring unknown event", "type", ev.Type, "actor", ev.Sender)
	return nil
}

// checkBan looks up an active ban for a name, failing open when the external
// store is unreachable
func (d *Dispatcher) checkBan(ctx context.Context, username string) *model.BanRecord {
	if username == "" {
		return nil
	}
	ban, err := d.moderation.CheckBan(ctx, username)
	if err != nil {
		d.logger.Error("ban check failed, allowing", "username", username, "error", err)
		return nil
	}
	return ban
}

// rejectBanned builds the ban notice and schedules the forced disconnect
func (d *Dispatcher) rejectBanned(id model.ActorID, ban *model.BanRecord) []model.OutboundEvent {
	d.scheduler.AfterFunc(banDisconnectDelay, func() {
		d.sink.CloseActor(id)
	})
	return []model.OutboundEvent{
		model.Unicast(id, model.EventUserBanned, noticeFromBan(ban)),
	}
}

// senderContext resolves the sender's actor record and current room. A nil
// room means the sender is not in one.
func (d *Dispatcher) senderContext(ctx context.Context, id model.ActorID) (*model.Actor, *model.Room) {
	actor, err := d.presence.GetActor(ctx, id)
	if err != nil {
		return nil, nil
	}
	if actor.CurrentRoom == "" {
		return actor, nil
	}
	room, err := d.registry.GetRoom(ctx, actor.CurrentRoom)
	if err != nil {
		return actor, nil
	}
	if room.GetMember(id) == nil {
		return actor, nil
	}
	return actor, room
}

func (d *Dispatcher) placeholderName() string {
	ts := strconv.FormatInt(d.clock.Now().UnixMilli(), 36)
	return "Player-" + ts + "-" + d.random.String(4, "abcdefghijklmnopqrstuvwxyz0123456789")
}

func (d *Dispatcher) nowMillis() int64 {
	return d.clock.Now().UnixMilli()
}
