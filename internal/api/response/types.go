package response

import (
	"time"

	"github.com/averykip/invadersync/internal/model"
)

// Health is the response for the health endpoints
type Health struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Server      string    `json:"server"`
	Version     string    `json:"version"`
	Connections int       `json:"connections"`
	Rooms       int       `json:"rooms"`
	UptimeSecs  int64     `json:"uptimeSeconds"`
}

// RoomMember represents one room member in API responses
type RoomMember struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Ship   string `json:"ship"`
	InGame bool   `json:"inGame"`
}

// Room represents a room in API responses
type Room struct {
	Code         string       `json:"code"`
	HostName     string       `json:"hostName"`
	PlayerCount  int          `json:"playerCount"`
	MaxPlayers   int          `json:"maxPlayers"`
	GameStarted  bool         `json:"gameStarted"`
	CurrentLevel int          `json:"currentLevel,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	Members      []RoomMember `json:"members"`
}

// RoomFromModel converts a model.Room to a response Room
func RoomFromModel(r *model.Room) Room {
	hostName := "Unknown"
	if host := r.GetMember(r.HostID); host != nil {
		hostName = host.Name
	}

	members := make([]RoomMember, len(r.Members))
	for i, m := range r.Members {
		members[i] = RoomMember{
			ID:     string(m.ID),
			Name:   m.Name,
			Avatar: m.Avatar,
			Ship:   m.Ship,
			InGame: r.Started(),
		}
	}

	return Room{
		Code:         string(r.Code),
		HostName:     hostName,
		PlayerCount:  len(r.Members),
		MaxPlayers:   model.MaxRoomPlayers,
		GameStarted:  r.Started(),
		CurrentLevel: r.CurrentLevel,
		CreatedAt:    r.CreatedAt,
		Members:      members,
	}
}

// RoomList is the response for the room listing endpoint
type RoomList struct {
	Rooms      []Room `json:"rooms"`
	TotalRooms int    `json:"totalRooms"`
}

// User represents a connected user in API responses
type User struct {
	Username    string    `json:"username"`
	ConnectedAt time.Time `json:"connectedAt"`
	CurrentRoom string    `json:"currentRoom,omitempty"`
	IsOnline    bool      `json:"isOnline"`
}

// UserFromModel converts a model.Actor to a response User
func UserFromModel(a *model.Actor) User {
	return User{
		Username:    a.Name,
		ConnectedAt: a.ConnectedAt,
		CurrentRoom: string(a.CurrentRoom),
		IsOnline:    a.Online,
	}
}

// UserList is the response for the user listing endpoint
type UserList struct {
	Users      []User `json:"users"`
	TotalUsers int    `json:"totalUsers"`
}

// Ban is the response for the admin ban endpoint
type Ban struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	BannedBy    string     `json:"bannedBy"`
	Reason      string     `json:"reason"`
	BanEnd      *time.Time `json:"banEnd,omitempty"`
	IsPermanent bool       `json:"isPermanent"`
}

// BanFromModel converts a model.BanRecord to a response Ban
func BanFromModel(b *model.BanRecord) Ban {
	return Ban{
		ID:          b.ID,
		Username:    b.Username,
		BannedBy:    b.BannedBy,
		Reason:      b.Reason,
		BanEnd:      b.BanEnd,
		IsPermanent: b.IsPermanent,
	}
}
