// Package moderation implements kicks and bans. Ban records live in the
// external store; room mutations go through the registry so they stay atomic
// with concurrent membership changes.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/averykip/invadersync/internal/banstore"
	"github.com/averykip/invadersync/internal/dependencies/clock"
	"github.com/averykip/invadersync/internal/model"
	"github.com/averykip/invadersync/internal/services/registry"
)

// DefaultAdminName labels bans issued without an explicit admin identity
const DefaultAdminName = "Administrator"

// Controller coordinates kicks and bans between the registry and the ban store
type Controller struct {
	bans     banstore.Store
	registry registry.ControllerInterface
	clock    clock.Clock
}

// NewController creates a new moderation Controller
func NewController(bans banstore.Store, registry registry.ControllerInterface, clock clock.Clock) *Controller {
	return &Controller{
		bans:     bans,
		registry: registry,
		clock:    clock,
	}
}

// BanSpec describes the ban portion of a kick request
type BanSpec struct {
	Requested bool
	Permanent bool
	Minutes   int
}

// KickRequest identifies who is to be removed, by ID or display name
type KickRequest struct {
	Room       model.RoomCode
	Requester  model.ActorID
	TargetID   model.ActorID
	TargetName string
	Reason     string
	Ban        BanSpec
}

// KickOutcome reports what a kick did
type KickOutcome struct {
	Target model.Player
	Result *registry.LeaveResult
	Ban    *model.BanRecord
}

// CheckBan returns the active ban for a display name, nil when none applies.
// Store errors are returned as-is; callers decide whether to fail open.
func (c *Controller) CheckBan(ctx context.Context, username string) (*model.BanRecord, error) {
	ban, err := c.bans.FindActiveBan(ctx, username, c.clock.Now())
	if err != nil {
		if errors.Is(err, model.ErrBanNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ban, nil
}

// Kick removes a player from a room at the host's request, optionally banning
// them. The ban is persisted first; the removal then re-validates the room
// under the registry lock, so a concurrent host change or departure cannot be
// raced into a stale kick.
func (c *Controller) Kick(ctx context.Context, req KickRequest) (*KickOutcome, error) {
	room, err := c.registry.GetRoom(ctx, req.Room)
	if err != nil {
		return nil, err
	}

	target, err := resolveTarget(room, req)
	if err != nil {
		return nil, err
	}
	if room.HostID != req.Requester {
		return nil, model.ErrNotHost
	}
	if target.ID == req.Requester {
		return nil, model.ErrCannotKickSelf
	}

	outcome := &KickOutcome{Target: *target}

	if req.Ban.Requested {
		requesterName := ""
		if m := room.GetMember(req.Requester); m != nil {
			requesterName = m.Name
		}
		ban, err := c.insertBan(ctx, target.Name, requesterName, req.Reason, req.Ban)
		if err != nil {
			return nil, err
		}
		outcome.Ban = ban
	}

	result, err := c.registry.RemovePlayerIf(ctx, req.Room, target.ID, func(r *model.Room) error {
		if r.HostID != req.Requester {
			return model.ErrNotHost
		}
		return nil
	})
	if err != nil {
		return outcome, err
	}

	outcome.Result = result
	return outcome, nil
}

// AdminBan persists a ban by display name, outside any room context. A
// persist failure is reported to the caller rather than swallowed.
func (c *Controller) AdminBan(ctx context.Context, username, bannedBy, reason string, spec BanSpec) (*model.BanRecord, error) {
	if bannedBy == "" {
		bannedBy = DefaultAdminName
	}
	return c.insertBan(ctx, username, bannedBy, reason, spec)
}

// SweepExpiredBans deactivates bans that have run out
func (c *Controller) SweepExpiredBans(ctx context.Context) (int64, error) {
	return c.bans.DeactivateExpiredBans(ctx, c.clock.Now())
}

func (c *Controller) insertBan(ctx context.Context, username, bannedBy, reason string, spec BanSpec) (*model.BanRecord, error) {
	ban := &model.BanRecord{
		Username:    username,
		BannedBy:    bannedBy,
		Reason:      reason,
		IsPermanent: spec.Permanent,
		BanStart:    c.clock.Now(),
	}

	if spec.Permanent {
		if ban.Reason == "" {
			ban.Reason = "Banned indefinitely"
		}
	} else {
		minutes := spec.Minutes
		ban.DurationMinutes = &minutes
		end := ban.BanStart.Add(time.Duration(minutes) * time.Minute)
		ban.BanEnd = &end
		if ban.Reason == "" {
			ban.Reason = fmt.Sprintf("Banned for %d minutes", minutes)
		}
	}

	if err := c.bans.InsertBan(ctx, ban); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBanNotPersisted, err)
	}
	return ban, nil
}

func resolveTarget(room *model.Room, req KickRequest) (*model.Player, error) {
	if req.TargetID != "" {
		if m := room.GetMember(req.TargetID); m != nil {
			return m, nil
		}
	}

	if req.TargetName != "" {
		for i := range room.Members {
			if room.Members[i].Name == req.TargetName {
				return &room.Members[i], nil
			}
		}
	}
	return nil, model.ErrNotInRoom
}

// Interface for dependency injection
type ControllerInterface interface {
	CheckBan(ctx context.Context, username string) (*model.BanRecord, error)
	Kick(ctx context.Context, req KickRequest) (*KickOutcome, error)
	AdminBan(ctx context.Context, username, bannedBy, reason string, spec BanSpec) (*model.BanRecord, error)
	SweepExpiredBans(ctx context.Context) (int64, error)
}

var _ ControllerInterface = (*Controller)(nil)
