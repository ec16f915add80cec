package model

import "encoding/json"

// EventType identifies the type of a protocol event
type EventType string

// Inbound events (client -> server)
const (
	EventUserConnected     EventType = "userConnected"
	EventCreateRoom        EventType = "createRoom"
	EventJoinRoom          EventType = "joinRoom"
	EventStartGame         EventType = "startGame"
	EventLeaveRoom         EventType = "leaveRoom"
	EventKickPlayer        EventType = "kickPlayer"
	EventAdminBanUser      EventType = "adminBanUser"
	EventRequestRoomUpdate EventType = "requestRoomUpdate"
	EventGetConnectedUsers EventType = "getConnectedUsers"
	EventGetAvailableRooms EventType = "getAvailableRooms"
	EventPing              EventType = "ping"

	// Gameplay events relayed verbatim between room members
	EventPlayerMove      EventType = "playerMove"
	EventPlayerShoot     EventType = "playerShoot"
	EventEnemyDestroyed  EventType = "enemyDestroyed"
	EventLevelCompleted  EventType = "levelCompleted"
	EventEnemyShoot      EventType = "enemyShoot"
	EventPowerupTaken    EventType = "powerupTaken"
	EventCoinTaken       EventType = "coinTaken"
	EventEnemyUpdate     EventType = "enemyUpdate"
	EventGameStateUpdate EventType = "gameStateUpdate"
	EventPlayerDeath     EventType = "playerDeath"
	EventPlayerRespawn   EventType = "playerRespawn"
	EventScoreUpdate     EventType = "scoreUpdate"
	EventChatMessage     EventType = "chatMessage"
)

// Outbound events (server -> client)
const (
	EventUserBanned               EventType = "userBanned"
	EventRoomCreated              EventType = "roomCreated"
	EventRoomJoined               EventType = "roomJoined"
	EventRoomUpdated              EventType = "roomUpdated"
	EventJoinError                EventType = "joinError"
	EventGameError                EventType = "gameError"
	EventBanError                 EventType = "banError"
	EventPlayerJoined             EventType = "playerJoined"
	EventGameStarting             EventType = "gameStarting"
	EventGameStarted              EventType = "gameStarted"
	EventPlayerLeft               EventType = "playerLeft"
	EventPlayerKicked             EventType = "playerKicked"
	EventPlayerKickedNotification EventType = "playerKickedNotification"
	EventAdminBanResult           EventType = "adminBanResult"
	EventConnectedUsersUpdate     EventType = "connectedUsersUpdate"
	EventAvailableRoomsUpdate     EventType = "availableRoomsUpdate"
	EventPlayerMoved              EventType = "playerMoved"
	EventPong                     EventType = "pong"
)

// Scope determines which actors receive an outbound event
type Scope int

const (
	// ScopeUnicast delivers to a single target actor
	ScopeUnicast Scope = iota
	// ScopeRoomExclusive delivers to all room members except the sender
	ScopeRoomExclusive
	// ScopeRoomInclusive delivers to all room members including the sender
	ScopeRoomInclusive
)

// InboundEvent is one event received from a transport session. Sender is the
// transport-assigned actor identity; Payload is the undecoded event body.
type InboundEvent struct {
	Sender  ActorID
	Type    EventType
	Payload json.RawMessage
}

// OutboundEvent is one event to deliver. Target is the recipient for unicast
// scopes; Room resolves membership for room scopes, with Exclude skipped
// under ScopeRoomExclusive.
type OutboundEvent struct {
	Scope   Scope
	Target  ActorID
	Room    RoomCode
	Exclude ActorID
	Type    EventType
	Payload any
}

// Unicast builds an event addressed to a single actor
func Unicast(target ActorID, t EventType, payload any) OutboundEvent {
	return OutboundEvent{Scope: ScopeUnicast, Target: target, Type: t, Payload: payload}
}

// RoomInclusive builds an event addressed to every member of a room
func RoomInclusive(room RoomCode, t EventType, payload any) OutboundEvent {
	return OutboundEvent{Scope: ScopeRoomInclusive, Room: room, Type: t, Payload: payload}
}

// RoomExclusive builds an event addressed to every member of a room except one
func RoomExclusive(room RoomCode, exclude ActorID, t EventType, payload any) OutboundEvent {
	return OutboundEvent{Scope: ScopeRoomExclusive, Room: room, Exclude: exclude, Type: t, Payload: payload}
}
