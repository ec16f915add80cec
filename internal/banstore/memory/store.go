// Package memory implements the moderation store in process memory. It backs
// deployments without an external database and the test suites.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/averykip/invadersync/internal/banstore"
	"github.com/averykip/invadersync/internal/model"
)

type playerKey struct {
	code model.RoomCode
	id   model.ActorID
}

type mirrorRoom struct {
	room        model.Room
	lastUpdated time.Time
}

type mirrorPlayer struct {
	player   model.Player
	online   bool
	lastSeen time.Time
}

// Store is an in-memory moderation store
type Store struct {
	mu sync.RWMutex

	bans     []*model.BanRecord
	logins   []*model.LoginAttempt
	rooms    map[model.RoomCode]*mirrorRoom
	players  map[playerKey]*mirrorPlayer
	nextID   int
}

// New creates a new in-memory moderation store
func New() *Store {
	return &Store{
		rooms:   make(map[model.RoomCode]*mirrorRoom),
		players: make(map[playerKey]*mirrorPlayer),
	}
}

// Ensure Store implements the interface
var _ banstore.Store = (*Store)(nil)

func (s *Store) FindActiveBan(ctx context.Context, username string, now time.Time) (*model.BanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Newest matching ban wins
	for i := len(s.bans) - 1; i >= 0; i-- {
		ban := s.bans[i]
		if ban.Username != username || !ban.IsActive {
			continue
		}
		if ban.BanEnd == nil || ban.BanEnd.After(now) {
			copied := *ban
			return &copied, nil
		}
	}
	return nil, model.ErrBanNotFound
}

func (s *Store) InsertBan(ctx context.Context, ban *model.BanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	ban.ID = "ban-" + strconv.Itoa(s.nextID)
	if ban.BanStart.IsZero() {
		ban.BanStart = time.Now()
	}
	ban.IsActive = true

	copied := *ban
	s.bans = append(s.bans, &copied)
	return nil
}

func (s *Store) DeactivateExpiredBans(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, ban := range s.bans {
		if ban.IsActive && !ban.IsPermanent && ban.BanEnd != nil && !ban.BanEnd.After(now) {
			ban.IsActive = false
			n++
		}
	}
	return n, nil
}

func (s *Store) RecordLoginAttempt(ctx context.Context, attempt *model.LoginAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *attempt
	s.logins = append(s.logins, &copied)
	return nil
}

// LoginAttempts returns all recorded login attempts (for testing)
func (s *Store) LoginAttempts() []*model.LoginAttempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.LoginAttempt, len(s.logins))
	copy(out, s.logins)
	return out
}

func (s *Store) UpsertRoomMirror(ctx context.Context, room *model.Room, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.Code] = &mirrorRoom{room: *room, lastUpdated: now}
	return nil
}

func (s *Store) UpsertPlayerMirror(ctx context.Context, code model.RoomCode, player *model.Player, online bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[playerKey{code: code, id: player.ID}] = &mirrorPlayer{
		player:   *player,
		online:   online,
		lastSeen: now,
	}
	return nil
}

func (s *Store) MarkPlayerOffline(ctx context.Context, code model.RoomCode, playerID model.ActorID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[playerKey{code: code, id: playerID}]; ok {
		p.online = false
		p.lastSeen = now
	}
	return nil
}

func (s *Store) DeleteRoomMirror(ctx context.Context, code model.RoomCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
	for key := range s.players {
		if key.code == code {
			delete(s.players, key)
		}
	}
	return nil
}

func (s *Store) PruneStaleMirrors(ctx context.Context, cutoff time.Time) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rooms, players int64
	for code, room := range s.rooms {
		if room.lastUpdated.Before(cutoff) {
			delete(s.rooms, code)
			rooms++
		}
	}
	for key, p := range s.players {
		if !p.online && p.lastSeen.Before(cutoff) {
			delete(s.players, key)
			players++
		}
	}
	return rooms, players, nil
}

// MirroredRoom returns the mirrored state of a room (for testing)
func (s *Store) MirroredRoom(code model.RoomCode) (*model.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, false
	}
	copied := room.room
	return &copied, true
}
