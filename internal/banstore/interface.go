// Package banstore is the boundary to the external moderation database. Ban
// records live there so they survive coordinator restarts and are shared with
// out-of-band admin tooling; the coordinator also mirrors room state into the
// same database for dashboards.
package banstore

import (
	"context"
	"time"

	"github.com/averykip/invadersync/internal/model"
)

// Store persists bans, login audit records and the room mirror
type Store interface {
	// FindActiveBan returns the active ban for a display name, or
	// model.ErrBanNotFound when none applies. A ban applies when it is
	// active and either permanent or not yet expired at now.
	FindActiveBan(ctx context.Context, username string, now time.Time) (*model.BanRecord, error)

	// InsertBan persists a new ban record, filling in its ID and BanStart
	InsertBan(ctx context.Context, ban *model.BanRecord) error

	// DeactivateExpiredBans flips is_active off on bans whose end has passed,
	// returning how many were deactivated
	DeactivateExpiredBans(ctx context.Context, now time.Time) (int64, error)

	// RecordLoginAttempt stores one login audit record
	RecordLoginAttempt(ctx context.Context, attempt *model.LoginAttempt) error

	// Room mirror operations. These are best-effort: callers log failures
	// and continue, the mirror is never read back for decisions.
	UpsertRoomMirror(ctx context.Context, room *model.Room, now time.Time) error
	UpsertPlayerMirror(ctx context.Context, code model.RoomCode, player *model.Player, online bool, now time.Time) error
	MarkPlayerOffline(ctx context.Context, code model.RoomCode, playerID model.ActorID, now time.Time) error
	DeleteRoomMirror(ctx context.Context, code model.RoomCode) error

	// PruneStaleMirrors deletes mirror rows not touched since cutoff,
	// returning (rooms removed, players removed)
	PruneStaleMirrors(ctx context.Context, cutoff time.Time) (int64, int64, error)
}
