package relay

import (
	"context"

	"github.com/averykip/invadersync/internal/model"
)

// Mirror writes are best-effort: the dashboard copy lags behind on database
// trouble but gameplay never blocks on it.

func (d *Dispatcher) mirrorRoom(ctx context.Context, room *model.Room) {
	if err := d.mirror.UpsertRoomMirror(ctx, room, d.clock.Now()); err != nil {
		d.logger.Warn("room mirror write failed", "room", room.Code, "error", err)
	}
}

func (d *Dispatcher) mirrorPlayer(ctx context.Context, code model.RoomCode, player *model.Player, online bool) {
	if player == nil {
		return
	}
	if err := d.mirror.UpsertPlayerMirror(ctx, code, player, online, d.clock.Now()); err != nil {
		d.logger.Warn("player mirror write failed", "room", code, "player", player.ID, "error", err)
	}
}

func (d *Dispatcher) mirrorPlayerOffline(ctx context.Context, code model.RoomCode, id model.ActorID) {
	if err := d.mirror.MarkPlayerOffline(ctx, code, id, d.clock.Now()); err != nil {
		d.logger.Warn("player mirror offline mark failed", "room", code, "player", id, "error", err)
	}
}

func (d *Dispatcher) mirrorRoomDeleted(ctx context.Context, code model.RoomCode) {
	if err := d.mirror.DeleteRoomMirror(ctx, code); err != nil {
		d.logger.Warn("room mirror delete failed", "room", code, "error", err)
	}
}
