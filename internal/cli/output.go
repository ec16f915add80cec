package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case Room:
		o.printRoom(v)
	case RoomList:
		o.printRoomList(v)
	case UserList:
		o.printUserList(v)
	case BanResult:
		o.printBanResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type (matches API)
type HealthResult struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Server      string    `json:"server"`
	Version     string    `json:"version"`
	Connections int       `json:"connections"`
	Rooms       int       `json:"rooms"`
	UptimeSecs  int64     `json:"uptimeSeconds"`
}

// RoomMember response type
type RoomMember struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Ship   string `json:"ship"`
	InGame bool   `json:"inGame"`
}

// Room response type
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

// RoomList response type
type RoomList struct {
	Rooms      []Room `json:"rooms"`
	TotalRooms int    `json:"totalRooms"`
}

// User response type
type User struct {
	Username    string    `json:"username"`
	ConnectedAt time.Time `json:"connectedAt"`
	CurrentRoom string    `json:"currentRoom,omitempty"`
	IsOnline    bool      `json:"isOnline"`
}

// UserList response type
type UserList struct {
	Users      []User `json:"users"`
	TotalUsers int    `json:"totalUsers"`
}

// BanResult response type
type BanResult struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	BannedBy    string     `json:"bannedBy"`
	Reason      string     `json:"reason"`
	BanEnd      *time.Time `json:"banEnd,omitempty"`
	IsPermanent bool       `json:"isPermanent"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Server: %s %s\n", h.Server, h.Version)
	fmt.Printf("Connections: %d\n", h.Connections)
	fmt.Printf("Rooms: %d\n", h.Rooms)
	fmt.Printf("Uptime: %ds\n", h.UptimeSecs)
}

func (o *Output) printRoom(r Room) {
	fmt.Printf("Room: %s\n", r.Code)
	fmt.Printf("Host: %s\n", r.HostName)
	started := "no"
	if r.GameStarted {
		started = fmt.Sprintf("yes (level %d)", r.CurrentLevel)
	}
	fmt.Printf("Started: %s\n", started)
	fmt.Printf("Players (%d/%d):\n", r.PlayerCount, r.MaxPlayers)
	for _, m := range r.Members {
		fmt.Printf("  %s (%s, %s)\n", m.Name, m.Avatar, m.Ship)
	}
}

func (o *Output) printRoomList(l RoomList) {
	fmt.Printf("Rooms (%d):\n", l.TotalRooms)
	for _, r := range l.Rooms {
		state := "waiting"
		if r.GameStarted {
			state = fmt.Sprintf("level %d", r.CurrentLevel)
		}
		fmt.Printf("  %s  host=%s  players=%d/%d  %s\n",
			r.Code, r.HostName, r.PlayerCount, r.MaxPlayers, state)
	}
}

func (o *Output) printUserList(l UserList) {
	fmt.Printf("Users (%d):\n", l.TotalUsers)
	for _, u := range l.Users {
		room := u.CurrentRoom
		if room == "" {
			room = "-"
		}
		fmt.Printf("  %s  room=%s  connected=%s\n",
			u.Username, room, u.ConnectedAt.Format(time.RFC3339))
	}
}

func (o *Output) printBanResult(b BanResult) {
	fmt.Printf("Banned: %s (by %s)\n", b.Username, b.BannedBy)
	fmt.Printf("Reason: %s\n", b.Reason)
	if b.IsPermanent {
		fmt.Println("Until: permanent")
	} else if b.BanEnd != nil {
		fmt.Printf("Until: %s\n", b.BanEnd.Format(time.RFC3339))
	}
}
