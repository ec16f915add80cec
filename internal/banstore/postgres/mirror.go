package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/averykip/invadersync/internal/model"
)

func (s *Store) UpsertRoomMirror(ctx context.Context, room *model.Room, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO multiplayer_rooms (room_code, host_player_id, host_name, status,
		                                player_count, max_players, game_started, created_at, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (room_code) DO UPDATE SET
		   host_player_id = EXCLUDED.host_player_id,
		   host_name = EXCLUDED.host_name,
		   status = EXCLUDED.status,
		   player_count = EXCLUDED.player_count,
		   game_started = EXCLUDED.game_started,
		   last_updated = EXCLUDED.last_updated`,
		room.Code, room.HostID, hostName(room), string(room.State),
		len(room.Members), model.MaxRoomPlayers, room.Started(), room.CreatedAt, now,
	)
	if err != nil {
		return fmt.Errorf("upserting room mirror: %w", err)
	}
	return nil
}

func (s *Store) UpsertPlayerMirror(ctx context.Context, code model.RoomCode, player *model.Player, online bool, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO room_players (room_code, player_id, player_name, player_avatar,
		                           player_ship, joined_at, last_seen, is_online)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (room_code, player_id) DO UPDATE SET
		   player_name = EXCLUDED.player_name,
		   player_avatar = EXCLUDED.player_avatar,
		   player_ship = EXCLUDED.player_ship,
		   last_seen = EXCLUDED.last_seen,
		   is_online = EXCLUDED.is_online`,
		code, player.ID, player.Name, player.Avatar, player.Ship,
		player.JoinedAt, now, online,
	)
	if err != nil {
		return fmt.Errorf("upserting player mirror: %w", err)
	}
	return nil
}

func (s *Store) MarkPlayerOffline(ctx context.Context, code model.RoomCode, playerID model.ActorID, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE room_players
		 SET is_online = FALSE, last_seen = $3
		 WHERE room_code = $1 AND player_id = $2`,
		code, playerID, now,
	)
	if err != nil {
		return fmt.Errorf("marking player offline: %w", err)
	}
	return nil
}

func (s *Store) DeleteRoomMirror(ctx context.Context, code model.RoomCode) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning mirror delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM room_players WHERE room_code = $1`, code); err != nil {
		return fmt.Errorf("deleting player mirror rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM multiplayer_rooms WHERE room_code = $1`, code); err != nil {
		return fmt.Errorf("deleting room mirror row: %w", err)
	}

	return tx.Commit()
}

func (s *Store) PruneStaleMirrors(ctx context.Context, cutoff time.Time) (int64, int64, error) {
	roomsRes, err := s.db.ExecContext(ctx,
		`DELETE FROM multiplayer_rooms WHERE last_updated < $1`, cutoff)
	if err != nil {
		return 0, 0, fmt.Errorf("pruning stale room mirrors: %w", err)
	}
	rooms, _ := roomsRes.RowsAffected()

	playersRes, err := s.db.ExecContext(ctx,
		`DELETE FROM room_players WHERE is_online = FALSE AND last_seen < $1`, cutoff)
	if err != nil {
		return rooms, 0, fmt.Errorf("pruning stale player mirrors: %w", err)
	}
	players, _ := playersRes.RowsAffected()

	return rooms, players, nil
}

func hostName(room *model.Room) string {
	if m := room.GetMember(room.HostID); m != nil {
		return m.Name
	}
	return ""
}
