// Package janitor runs the background sweeps: presence records whose
// connection never came back, rooms whose members are all gone, stale
// dashboard mirror rows, and expired bans. Every sweep is failure-tolerant;
// a broken store never stops the tickers.
package janitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/averykip/invadersync/internal/banstore"
	"github.com/averykip/invadersync/internal/dependencies/clock"
	"github.com/averykip/invadersync/internal/model"
	"github.com/averykip/invadersync/internal/services/moderation"
	"github.com/averykip/invadersync/internal/services/presence"
	"github.com/averykip/invadersync/internal/services/registry"
)

// Config tunes the sweep cadence
type Config struct {
	// DisconnectGrace is how long an offline presence record survives before
	// it is collected
	DisconnectGrace time.Duration
	// DisconnectEvery is the presence sweep interval
	DisconnectEvery time.Duration
	// RoomEvery is the abandoned-room sweep interval
	RoomEvery time.Duration
	// MirrorEvery is the mirror-row sweep interval
	MirrorEvery time.Duration
	// MirrorMaxAge is how stale a mirror row may get before removal
	MirrorMaxAge time.Duration
	// BanEvery is the expired-ban sweep interval
	BanEvery time.Duration
}

// DefaultConfig returns the standard sweep cadence
func DefaultConfig() Config {
	return Config{
		DisconnectGrace: 8 * time.Second,
		DisconnectEvery: 8 * time.Second,
		RoomEvery:       2 * time.Minute,
		MirrorEvery:     3 * time.Minute,
		MirrorMaxAge:    30 * time.Minute,
		BanEvery:        2 * time.Minute,
	}
}

// Janitor owns the background sweep goroutines
type Janitor struct {
	presence   presence.ControllerInterface
	registry   registry.ControllerInterface
	moderation moderation.ControllerInterface
	mirror     banstore.Store
	clock      clock.Clock
	logger     *slog.Logger
	cfg        Config

	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates a new Janitor
func New(
	pres presence.ControllerInterface,
	reg registry.ControllerInterface,
	mod moderation.ControllerInterface,
	mirror banstore.Store,
	clk clock.Clock,
	logger *slog.Logger,
	cfg Config,
) *Janitor {
	return &Janitor{
		presence:   pres,
		registry:   reg,
		moderation: mod,
		mirror:     mirror,
		clock:      clk,
		logger:     logger,
		cfg:        cfg,
		stop:       make(chan struct{}),
	}
}

// Start launches the sweep goroutines
func (j *Janitor) Start() {
	j.spawn(j.cfg.DisconnectEvery, j.SweepPresence)
	j.spawn(j.cfg.RoomEvery, j.SweepRooms)
	j.spawn(j.cfg.MirrorEvery, j.SweepMirrors)
	j.spawn(j.cfg.BanEvery, j.SweepBans)
}

// Stop halts the sweeps and waits for in-flight ones to finish
func (j *Janitor) Stop() {
	close(j.stop)
	j.wg.Wait()
}

func (j *Janitor) spawn(every time.Duration, sweep func(context.Context)) {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sweep(context.Background())
			case <-j.stop:
				return
			}
		}
	}()
}

// SweepPresence collects presence records that have been offline longer than
// the grace period
func (j *Janitor) SweepPresence(ctx context.Context) {
	removed, err := j.presence.SweepDisconnected(ctx, j.cfg.DisconnectGrace)
	if err != nil {
		j.logger.Error("presence sweep failed", "error", err)
		return
	}
	if len(removed) > 0 {
		j.logger.Info("collected disconnected users", "count", len(removed))
	}
}

// SweepRooms destroys rooms whose members are all gone. A member counts as
// gone when its presence record is missing or offline.
func (j *Janitor) SweepRooms(ctx context.Context) {
	rooms, err := j.registry.ListRooms(ctx)
	if err != nil {
		j.logger.Error("room sweep failed", "error", err)
		return
	}

	var removed int
	for _, room := range rooms {
		if !j.roomAbandoned(ctx, room) {
			continue
		}
		if err := j.registry.DeleteRoom(ctx, room.Code); err != nil {
			j.logger.Error("abandoned room deletion failed", "room", room.Code, "error", err)
			continue
		}
		if err := j.mirror.DeleteRoomMirror(ctx, room.Code); err != nil {
			j.logger.Warn("room mirror delete failed", "room", room.Code, "error", err)
		}
		removed++
	}
	if removed > 0 {
		j.logger.Info("collected abandoned rooms", "count", removed)
	}
}

func (j *Janitor) roomAbandoned(ctx context.Context, room *model.Room) bool {
	if len(room.Members) == 0 {
		return true
	}
	for _, member := range room.Members {
		actor, err := j.presence.GetActor(ctx, member.ID)
		if err == nil && actor.Online {
			return false
		}
	}
	return true
}

// SweepMirrors prunes dashboard mirror rows not touched recently
func (j *Janitor) SweepMirrors(ctx context.Context) {
	cutoff := j.clock.Now().Add(-j.cfg.MirrorMaxAge)
	rooms, players, err := j.mirror.PruneStaleMirrors(ctx, cutoff)
	if err != nil {
		j.logger.Error("mirror sweep failed", "error", err)
		return
	}
	if rooms > 0 || players > 0 {
		j.logger.Info("pruned stale mirror rows", "rooms", rooms, "players", players)
	}
}

// SweepBans deactivates bans whose end has passed
func (j *Janitor) SweepBans(ctx context.Context) {
	n, err := j.moderation.SweepExpiredBans(ctx)
	if err != nil {
		j.logger.Error("ban sweep failed", "error", err)
		return
	}
	if n > 0 {
		j.logger.Info("deactivated expired bans", "count", n)
	}
}
