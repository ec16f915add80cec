package model

import "time"

// ActorID uniquely identifies one connected transport session
type ActorID string

// Profile holds the client-supplied cosmetic identity of an actor
type Profile struct {
	Name      string         `json:"name"`
	Avatar    string         `json:"avatar"`
	Ship      string         `json:"ship"`
	Pet       string         `json:"equippedPet,omitempty"`
	PetLevels map[string]int `json:"petLevels,omitempty"`
}

// Actor represents one connected participant, independent of room membership.
// The transport layer owns its lifetime: created on connect, removed on disconnect.
type Actor struct {
	ID          ActorID
	Name        string
	Avatar      string
	Ship        string
	Pet         string
	PetLevels   map[string]int
	CurrentRoom RoomCode // empty when not in a room
	Online      bool
	ConnectedAt time.Time
	LastSeen    time.Time
}

// ApplyProfile overlays non-empty profile fields onto the actor
func (a *Actor) ApplyProfile(p Profile) {
	if p.Name != "" {
		a.Name = p.Name
	}
	if p.Avatar != "" {
		a.Avatar = p.Avatar
	}
	if p.Ship != "" {
		a.Ship = p.Ship
	}
	if p.Pet != "" {
		a.Pet = p.Pet
	}
	if len(p.PetLevels) > 0 {
		a.PetLevels = p.PetLevels
	}
}

// Default cosmetics applied when a client never sent a profile
const (
	DefaultAvatar = "astronaut"
	DefaultShip   = "ship1"
)
