package model

import "time"

// RoomCode is the human-readable identifier for joining rooms
type RoomCode string

// RoomState represents the lifecycle stage of a room
type RoomState string

const (
	RoomStateWaiting  RoomState = "waiting"  // lobby open, game not started
	RoomStateStarting RoomState = "starting" // countdown in progress
	RoomStateActive   RoomState = "active"   // game running, persists across levels
)

// MaxRoomPlayers is the membership capacity of a room
const MaxRoomPlayers = 4

// Player is the in-room projection of an Actor. It exists only while the
// actor is a member and is never persisted beyond the room's lifetime.
type Player struct {
	ID        ActorID        `json:"id"`
	Name      string         `json:"name"`
	Avatar    string         `json:"avatar"`
	Ship      string         `json:"ship"`
	Pet       string         `json:"equippedPet,omitempty"`
	PetLevels map[string]int `json:"petLevels,omitempty"`
	JoinedAt  time.Time      `json:"-"`
	InGame    bool           `json:"inGame"`
}

// Room is one active match lobby/session
type Room struct {
	Code        RoomCode
	HostID      ActorID
	Members     []Player // join order preserved; host transfer picks Members[0]
	State       RoomState
	StartedAt   time.Time
	SharedSeed  int64 // assigned once, at game start
	CurrentLevel int
	Snapshot    *WorldSnapshot // last broadcast world state, nil before start
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Started reports whether the room's game has begun
func (r *Room) Started() bool {
	return r.State == RoomStateActive
}

// GetMember returns the member with the given actor ID, or nil
func (r *Room) GetMember(id ActorID) *Player {
	for i := range r.Members {
		if r.Members[i].ID == id {
			return &r.Members[i]
		}
	}
	return nil
}

// IsFull reports whether the room is at capacity
func (r *Room) IsFull() bool {
	return len(r.Members) >= MaxRoomPlayers
}

// PlayerList returns the member list with the in-game flag mirroring room state
func (r *Room) PlayerList() []Player {
	players := make([]Player, len(r.Members))
	for i, m := range r.Members {
		m.InGame = r.Started()
		players[i] = m
	}
	return players
}

// RoomSummary is the lobby-browser view of a room
type RoomSummary struct {
	Code        RoomCode        `json:"code"`
	HostID      ActorID         `json:"hostId"`
	HostName    string          `json:"hostName"`
	PlayerCount int             `json:"playerCount"`
	MaxPlayers  int             `json:"maxPlayers"`
	GameStarted bool            `json:"gameStarted"`
	Players     []PlayerSummary `json:"players"`
}

// PlayerSummary is the abbreviated member view used in room listings
type PlayerSummary struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Summary builds the lobby-browser view of the room
func (r *Room) Summary() RoomSummary {
	hostName := "Unknown"
	if host := r.GetMember(r.HostID); host != nil {
		hostName = host.Name
	}
	players := make([]PlayerSummary, len(r.Members))
	for i, m := range r.Members {
		players[i] = PlayerSummary{Name: m.Name, Avatar: m.Avatar}
	}
	return RoomSummary{
		Code:        r.Code,
		HostID:      r.HostID,
		HostName:    hostName,
		PlayerCount: len(r.Members),
		MaxPlayers:  MaxRoomPlayers,
		GameStarted: r.Started(),
		Players:     players,
	}
}
