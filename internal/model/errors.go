package model

import "errors"

// Common errors used across the application
var (
	// Actor errors
	ErrActorNotFound = errors.New("actor not found")

	// Room errors
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room is full")
	ErrAlreadyInRoom = errors.New("actor is already in a room")
	ErrNotInRoom     = errors.New("actor is not in the room")
	ErrNotHost       = errors.New("actor is not the host")
	ErrGameStarted   = errors.New("game has already started")
	ErrGameNotStarted = errors.New("game has not started")

	// Moderation errors
	ErrBanNotPersisted = errors.New("ban could not be persisted")
	ErrBanNotFound     = errors.New("no active ban found")
	ErrCannotKickSelf  = errors.New("host cannot kick themselves")
)
