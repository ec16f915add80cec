package relay

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/averykip/invadersync/internal/model"
)

// Inbound payload shapes. Clients are sloppy about optional fields, so
// everything decodes leniently; a missing or malformed body falls back to the
// zero value rather than failing the event.

type profilePayload struct {
	Username  string         `json:"username"`
	Name      string         `json:"name"`
	Avatar    string         `json:"avatar"`
	Ship      string         `json:"ship"`
	Pet       string         `json:"equippedPet"`
	PetLevels map[string]int `json:"petLevels"`
}

func (p profilePayload) profile() model.Profile {
	name := p.Name
	if name == "" {
		name = p.Username
	}
	return model.Profile{
		Name:      name,
		Avatar:    p.Avatar,
		Ship:      p.Ship,
		Pet:       p.Pet,
		PetLevels: p.PetLevels,
	}
}

type joinRoomPayload struct {
	RoomCode   model.RoomCode  `json:"roomCode"`
	PlayerData *profilePayload `json:"playerData"`
}

type levelCompletedPayload struct {
	NewLevel int `json:"newLevel"`
}

type kickPlayerPayload struct {
	PlayerIDToKick string     `json:"playerIdToKick"`
	Reason         string     `json:"reason"`
	BanMinutes     banMinutes `json:"banMinutes"`
}

type adminBanPayload struct {
	Username   string     `json:"username"`
	BanMinutes banMinutes `json:"banMinutes"`
	Reason     string     `json:"reason"`
	BannedBy   string     `json:"bannedBy"`
}

type roomCodePayload struct {
	RoomCode model.RoomCode `json:"roomCode"`
}

type pingPayload struct {
	Timestamp int64 `json:"timestamp"`
}

type playerMovePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type chatPayload struct {
	Text string `json:"text"`
}

type enemyDestroyedPayload struct {
	EnemyID string  `json:"enemyId"`
	Score   int     `json:"score"`
	EnemyX  float64 `json:"enemyX"`
	EnemyY  float64 `json:"enemyY"`
}

type powerupPayload struct {
	PowerupID string `json:"powerupId"`
}

type coinPayload struct {
	CoinID string `json:"coinId"`
}

// banMinutes accepts the three client encodings of a ban duration: a number
// of minutes, the 999999 permanent sentinel, or the legacy string markers.
// Absent means "kick only"; null means permanent.
type banMinutes struct {
	present   bool
	permanent bool
	minutes   int
}

func (b *banMinutes) UnmarshalJSON(data []byte) error {
	b.present = true

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "indefinido", "permanente":
			b.permanent = true
		default:
			n, err := strconv.Atoi(s)
			if err != nil {
				b.permanent = true
				return nil
			}
			b.setMinutes(n)
		}
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		b.setMinutes(int(n))
		return nil
	}

	// Explicit null
	b.permanent = true
	return nil
}

func (b *banMinutes) setMinutes(n int) {
	if n == model.PermanentBanMinutes {
		b.permanent = true
		return
	}
	b.minutes = n
}

// Outbound payload shapes, mirroring what clients already parse

type bannedNotice struct {
	Reason      string     `json:"reason"`
	BannedBy    string     `json:"bannedBy"`
	BanEnd      *time.Time `json:"banEnd"`
	IsPermanent bool       `json:"isPermanent"`
	BanStart    time.Time  `json:"banStart"`
}

func noticeFromBan(ban *model.BanRecord) bannedNotice {
	return bannedNotice{
		Reason:      ban.Reason,
		BannedBy:    ban.BannedBy,
		BanEnd:      ban.BanEnd,
		IsPermanent: ban.IsPermanent,
		BanStart:    ban.BanStart,
	}
}

type roomCreatedPayload struct {
	RoomCode model.RoomCode `json:"roomCode"`
	Players  []model.Player `json:"players"`
	IsHost   bool           `json:"isHost"`
}

type playerJoinedPayload struct {
	Players   []model.Player `json:"players"`
	NewPlayer *newPlayerInfo `json:"newPlayer"`
	Timestamp int64          `json:"timestamp"`
}

type newPlayerInfo struct {
	ID     model.ActorID `json:"id"`
	Name   string        `json:"name"`
	Avatar string        `json:"avatar"`
	Ship   string        `json:"ship"`
}

type gameStartingPayload struct {
	Countdown      int   `json:"countdown"`
	StartTime      int64 `json:"startTime"`
	SharedGameSeed int64 `json:"sharedGameSeed"`
}

type gameStartedPayload struct {
	Players         []model.Player `json:"players"`
	Enemies         []model.Enemy  `json:"enemies"`
	Level           int            `json:"level"`
	StartTime       int64          `json:"startTime"`
	SharedGameSeed  int64          `json:"sharedGameSeed"`
	ServerTimestamp int64          `json:"serverTimestamp"`
	GameStateHash   string         `json:"gameStateHash"`
}

type levelCompletedOut struct {
	NewLevel        int           `json:"newLevel"`
	Enemies         []model.Enemy `json:"enemies"`
	SharedGameSeed  int64         `json:"sharedGameSeed"`
	ServerTimestamp int64         `json:"serverTimestamp"`
	GameStateHash   string        `json:"gameStateHash"`
}

type playerLeftPayload struct {
	LeftPlayerName string         `json:"leftPlayerName"`
	LeftPlayerID   model.ActorID  `json:"leftPlayerId"`
	Players        []model.Player `json:"players"`
	NewHost        model.ActorID  `json:"newHost"`
	Reason         string         `json:"reason"`
	KickedBy       string         `json:"kickedBy,omitempty"`
}

type playerKickedPayload struct {
	Reason   string           `json:"reason"`
	HostName string           `json:"hostName"`
	IsBan    bool             `json:"isBan"`
	BanData  *model.BanRecord `json:"banData"`
}

type kickNotificationPayload struct {
	KickedPlayerName string `json:"kickedPlayerName"`
	KickedBy         string `json:"kickedBy"`
	Reason           string `json:"reason"`
	IsBan            bool   `json:"isBan"`
	Timestamp        int64  `json:"timestamp"`
}

type adminBanResultPayload struct {
	OK          bool       `json:"ok"`
	Error       string     `json:"error,omitempty"`
	Username    string     `json:"username,omitempty"`
	BanEnd      *time.Time `json:"banEnd,omitempty"`
	IsPermanent bool       `json:"isPermanent,omitempty"`
}

type connectedUserInfo struct {
	Username        string         `json:"username"`
	ConnectedAt     time.Time      `json:"connectedAt"`
	CurrentRoom     model.RoomCode `json:"currentRoom,omitempty"`
	IsOnline        bool           `json:"isOnline"`
	RoomPlayerCount int            `json:"roomPlayerCount"`
}

type connectedUsersPayload struct {
	Users       []connectedUserInfo `json:"users"`
	TotalUsers  int                 `json:"totalUsers"`
	ActiveRooms int                 `json:"activeRooms"`
}

type availableRoomsPayload struct {
	Rooms      []model.RoomSummary `json:"rooms"`
	TotalRooms int                 `json:"totalRooms"`
}

type roomUpdatedPayload struct {
	RoomCode model.RoomCode `json:"roomCode"`
	Players  []model.Player `json:"players"`
	IsHost   bool           `json:"isHost"`
}

type pongPayload struct {
	Timestamp         int64 `json:"timestamp"`
	OriginalTimestamp int64 `json:"originalTimestamp"`
}

type playerMovedPayload struct {
	PlayerID  model.ActorID `json:"playerId"`
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	Timestamp int64         `json:"timestamp"`
}

type chatMessageOut struct {
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type enemyDestroyedOut struct {
	EnemyID  string        `json:"enemyId"`
	PlayerID model.ActorID `json:"playerId"`
	Score    int           `json:"score"`
	EnemyX   float64       `json:"enemyX"`
	EnemyY   float64       `json:"enemyY"`
}

type powerupTakenOut struct {
	PowerupID string        `json:"powerupId"`
	PlayerID  model.ActorID `json:"playerId"`
}

type coinTakenOut struct {
	CoinID   string        `json:"coinId"`
	PlayerID model.ActorID `json:"playerId"`
}

// decode unmarshals an event payload, tolerating an empty or absent body
func decode[T any](payload json.RawMessage) T {
	var v T
	if len(payload) == 0 {
		return v
	}
	_ = json.Unmarshal(payload, &v)
	return v
}

// decorate re-encodes a raw payload as a map with extra fields injected,
// preserving whatever else the client sent
func decorate(payload json.RawMessage, extra map[string]any) map[string]any {
	out := make(map[string]any)
	if len(payload) > 0 {
		_ = json.Unmarshal(payload, &out)
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
