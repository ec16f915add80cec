package relay

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/averykip/invadersync/internal/model"
	"github.com/averykip/invadersync/internal/services/moderation"
	"github.com/averykip/invadersync/internal/services/registry"
)

// startCountdown is how far ahead of actual game start the announcement goes out
const startCountdown = registry.StartCountdownSeconds * time.Second

func (d *Dispatcher) handleUserConnected(ctx context.Context, ev model.InboundEvent) []model.OutboundEvent {
	profile := decode[profilePayload](ev.Payload).profile()

	name := profile.Name
	if name == "" {
		if actor, err := d.presence.GetActor(ctx, ev.Sender); err == nil {
			name = actor.Name
		}
	}

	if ban := d.checkBan(ctx, name); ban != nil {
		d.logger.Info("banned actor rejected on connect", "username", name, "actor", ev.Sender)
		return d.rejectBanned(ev.Sender, ban)
	}

	actor, err := d.presence.Connect(ctx, ev.Sender, profile)
	if err != nil {
		d.logger.Error("presence update failed", "actor", ev.Sender, "error", err)
		return nil
	}

	// Profile changes propagate into the member list of the actor's room
	if actor.CurrentRoom != "" {
		room, err := d.registry.UpdateMemberProfile(ctx, actor.CurrentRoom, ev.Sender, profile)
		if err == nil {
			d.mirrorPlayer(ctx, room.Code, room.GetMember(ev.Sender), true)
			return []model.OutboundEvent{
				model.RoomInclusive(room.Code, model.EventPlayerJoined, playerJoinedPayload{
					Players:   room.PlayerList(),
					NewPlayer: nil,
					Timestamp: d.nowMillis(),
				}),
			}
		}
	}

	return nil
}

func (d *Dispatcher) handleCreateRoom(ctx context.Context, ev model.InboundEvent) []model.OutboundEvent {
	player := d.buildPlayer(ctx, ev.Sender, decode[profilePayload](ev.Payload))

	if ban := d.checkBan(ctx, player.Name); ban != nil {
		d.logger.Info("banned actor rejected on room create", "username", player.Name, "actor", ev.Sender)
		return []model.OutboundEvent{model.Unicast(ev.Sender, model.EventUserBanned, noticeFromBan(ban))}
	}

	room, err := d.registry.CreateRoom(ctx, player)
	if err != nil {
		d.logger.Error("room creation failed", "actor", ev.Sender, "error", err)
		return []model.OutboundEvent{model.Unicast(ev.Sender, model.EventGameError, "Could not create the room.")}
	}

	d.syncPresence(ctx, ev.Sender, player, room.Code)
	d.mirrorRoom(ctx, room)
	d.mirrorPlayer(ctx, room.Code, &room.Members[0], true)

	d.logger.Info("room created", "room", room.Code, "host", player.Name)

	return []model.OutboundEvent{
		model.Unicast(ev.Sender, model.EventRoomCreated, roomCreatedPayload{
			RoomCode: room.Code,
			Players:  room.PlayerList(),
			IsHost:   true,
		}),
	}
}

func (d *Dispatcher) handleJoinRoom(ctx context.Context, ev model.InboundEvent) []model.OutboundEvent {
	payload := decode[joinRoomPayload](ev.Payload)

	var profile profilePayload
	if payload.PlayerData != nil {
		profile = *payload.PlayerData
	}
	player := d.buildPlayer(ctx, ev.Sender, profile)

	if ban := d.checkBan(ctx, player.Name); ban != nil {
		d.logger.Info("banned actor rejected on join", "username", player.Name, "actor", ev.Sender)
		return []model.OutboundEvent{model.Unicast(ev.Sender, model.EventUserBanned, noticeFromBan(ban))}
	}

	room, err := d.registry.JoinRoom(ctx, payload.RoomCode, player)
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return []model.OutboundEvent{model.Unicast(ev.Sender, model.EventJoinError, "That room doesn't exist.")}
	case errors.Is(err, model.ErrRoomFull):
		return []model.OutboundEvent{model.Unicast(ev.Sender, model.EventJoinError, "The room is full.")}
	case errors.Is(err, model.ErrAlreadyInRoom):
		// Rejoin: resend the current room state
		room, err = d.registry.GetRoom(ctx, payload.RoomCode)
		if err != nil {
			return []model.OutboundEvent{model.Unicast(ev.Sender, model.EventJoinError, "Could not join the room.")}
		}
		return []model.OutboundEvent{
			model.Unicast(ev.Sender, model.EventRoomJoined, roomUpdatedPayload{
				RoomCode: room.Code,
				Players:  room.PlayerList(),
				IsHost:   room.HostID == ev.Sender,
			}),
		}
	case err != nil:
		d.logger.Error("room join failed", "actor", ev.Sender, "room", payload.RoomCode, "error", err)
		return []model.OutboundEvent{model.Unicast(ev.Sender, model.EventJoinError, "Could not join the room.")}
	}

	d.syncPresence(ctx, ev.Sender, player, room.Code)
	d.mirrorRoom(ctx, room)
	d.mirrorPlayer(ctx, room.Code, room.GetMember(ev.Sender), true)

	d.logger.Info("player joined room", "room", room.Code, "player", player.Name)

	return []model.OutboundEvent{
		model.RoomInclusive(room.Code, model.EventPlayerJoined, playerJoinedPayload{
			Players: room.PlayerList(),
			NewPlayer: &newPlayerInfo{
				ID:     player.ID,
				Name:   player.Name,
				Avatar: player.Avatar,
				Ship:   player.Ship,
			},
			Timestamp: d.nowMillis(),
		}),
		model.Unicast(ev.Sender, model.EventRoomJoined, roomUpdatedPayload{
			RoomCode: room.Code,
			Players:  room.PlayerList(),
			IsHost:   room.HostID == ev.Sender,
		}),
	}
}

func (d *Dispatcher) handleStartGame(ctx context.Context, ev model.InboundEvent) []model.OutboundEvent {
	_, room := d.senderContext(ctx, ev.Sender)
	if room == nil {
		return nil
	}

	started, err := d.registry.BeginCountdown(ctx, room.Code, ev.Sender)
	switch {
	case errors.Is(err, model.ErrNotHost):
		return []model.OutboundEvent{model.Unicast(ev.Sender, model.EventGameError, "Only the host can start the game.")}
	case errors.Is(err, model.ErrGameStarted):
		return []model.OutboundEvent{model.Unicast(ev.Sender, model.EventGameError, "The game has already started.")}
	case err != nil:
		d.logger.Error("game start failed", "room", room.Code, "error", err)
		return nil
	}

	code := started.Code
	d.logger.Info("game starting", "room", code, "seed", started.SharedSeed)

	// The countdown callback re-validates state; a room that emptied or was
	// deleted in the meantime just drops the start.
	d.scheduler.AfterFunc(startCountdown, func() {
		bg := context.Background()
		active, err := d.registry.CompleteStart(bg, code)
		if err != nil {
			d.logger.Info("countdown lapsed without start", "room", code, "reason", err)
			return
		}

		d.mirrorRoom(bg, active)
		d.logger.Info("game started", "room", code, "level", active.CurrentLevel,
			"enemies", len(active.Snapshot.Enemies))

		now := d.nowMillis()
		d.sink.Deliver(model.RoomInclusive(code, model.EventGameStarted, gameStartedPayload{
			Players:         active.PlayerList(),
			Enemies:         active.Snapshot.Enemies,
			Level:           active.CurrentLevel,
			StartTime:       now,
			SharedGameSeed:  active.SharedSeed,
			ServerTimestamp: now,
			GameStateHash:   active.Snapshot.Hash,
		}))
	})

	return []model.OutboundEvent{
		model.RoomInclusive(code, model.EventGameStarting, gameStartingPayload{
			Countdown:      int(startCountdown.Seconds()),
			StartTime:      d.nowMillis() + startCountdown.Milliseconds(),
			SharedGameSeed: started.SharedSeed,
		}),
	}
}

func (d *Dispatcher) handleLevelCompleted(ctx context.Context, ev model.InboundEvent) []model.OutboundEvent {
	_, room := d.senderContext(ctx, ev.Sender)
	if room == nil {
		return nil
	}

	payload := decode[levelCompletedPayload](ev.Payload)
	advanced, err := d.registry.AdvanceLevel(ctx, room.Code, ev.Sender, payload.NewLevel)
	if err != nil {
		d.logger.Warn("level advance rejected", "room", room.Code, "actor", ev.Sender, "error", err)
		return nil
	}

	d.logger.Info("level advanced", "room", room.Code, "level", advanced.CurrentLevel)

	return []model.OutboundEvent{
		model.RoomInclusive(room.Code, model.EventLevelCompleted, levelCompletedOut{
			NewLevel:        advanced.CurrentLevel,
			Enemies:         advanced.Snapshot.Enemies,
			SharedGameSeed:  advanced.SharedSeed,
			ServerTimestamp: d.nowMillis(),
			GameStateHash:   advanced.Snapshot.Hash,
		}),
	}
}

func (d *Dispatcher) handleLeaveRoom(ctx context.Context, ev model.InboundEvent) []model.OutboundEvent {
	return d.leaveCurrentRoom(ctx, ev.Sender, "leave")
}

func (d *Dispatcher) handleKickPlayer(ctx context.Context, ev model.InboundEvent) []model.OutboundEvent {
	actor, room := d.senderContext(ctx, ev.Sender)
	if room == nil {
		return nil
	}

	payload := decode[kickPlayerPayload](ev.Payload)

	req := moderation.KickRequest{
		Room:       room.Code,
		Requester:  ev.Sender,
		TargetID:   model.ActorID(payload.PlayerIDToKick),
		TargetName: payload.PlayerIDToKick,
		Reason:     payload.Reason,
	}
	if payload.BanMinutes.present {
		req.Ban = moderation.BanSpec{
			Requested: true,
			Permanent: payload.BanMinutes.permanent,
			Minutes:   payload.BanMinutes.minutes,
		}
	}

	outcome, err := d.moderation.Kick(ctx, req)
	switch {
	case errors.Is(err, model.ErrBanNotPersisted):
		d.logger.Error("ban persist failed", "room", room.Code, "target", payload.PlayerIDToKick, "error", err)
		return []model.OutboundEvent{model.Unicast(ev.Sender, model.EventBanError, "Could not record the ban.")}
	case err != nil:
		d.logger.Warn("kick rejected", "room", room.Code, "requester", ev.Sender, "error", err)
		return nil
	}

	target := outcome.Target
	isBan := outcome.Ban != nil
	_ = d.presence.SetRoom(ctx, target.ID, "")

	reason := payload.Reason
	if reason == "" {
		if isBan {
			reason = "You have been banned from room " + string(room.Code)
		} else {
			reason = "You have been kicked from room " + string(room.Code)
		}
	}

	d.logger.Info("player removed by host", "room", room.Code, "target", target.Name,
		"by", actor.Name, "ban", isBan)

	// Give the target a moment to receive the kick notice, then sever the
	// transport so the session cannot linger
	targetID := target.ID
	d.scheduler.AfterFunc(banDisconnectDelay, func() {
		d.sink.CloseActor(targetID)
	})

	events := []model.OutboundEvent{
		model.Unicast(target.ID, model.EventPlayerKicked, playerKickedPayload{
			Reason:   reason,
			HostName: actor.Name,
			IsBan:    isBan,
			BanData:  outcome.Ban,
		}),
		model.RoomInclusive(room.Code, model.EventPlayerKickedNotification, kickNotificationPayload{
			KickedPlayerName: target.Name,
			KickedBy:         actor.Name,
			Reason:           reason,
			IsBan:            isBan,
			Timestamp:        d.nowMillis(),
		}),
	}

	result := outcome.Result
	if result.RoomDeleted {
		d.mirrorRoomDeleted(ctx, room.Code)
		return events
	}

	d.mirrorRoom(ctx, result.Room)
	d.mirrorPlayerOffline(ctx, room.Code, target.ID)

	leftReason := "kick"
	if isBan {
		leftReason = "ban"
	}
	events = append(events, model.RoomInclusive(room.Code, model.EventPlayerLeft, playerLeftPayload{
		LeftPlayerName: target.Name,
		LeftPlayerID:   target.ID,
		Players:        result.Room.PlayerList(),
		NewHost:        result.Room.HostID,
		Reason:         leftReason,
		KickedBy:       actor.Name,
	}))
	return events
}

func (d *Dispatcher) handleAdminBan(ctx context.Context, ev model.InboundEvent) []model.OutboundEvent {
	payload := decode[adminBanPayload](ev.Payload)
	if payload.Username == "" {
		return []model.OutboundEvent{model.Unicast(ev.Sender, model.EventAdminBanResult, adminBanResultPayload{
			OK:    false,
			Error: "username_required",
		})}
	}

	// An absent duration means permanent
	spec := moderation.BanSpec{Requested: true, Permanent: true}
	if payload.BanMinutes.present {
		spec.Permanent = payload.BanMinutes.permanent
		spec.Minutes = payload.BanMinutes.minutes
	}

	ban, err := d.ExecuteAdminBan(ctx, payload.Username, payload.BannedBy, payload.Reason, spec)
	if err != nil {
		return []model.OutboundEvent{model.Unicast(ev.Sender, model.EventAdminBanResult, adminBanResultPayload{
			OK:    false,
			Error: "internal_error",
		})}
	}

	return []model.OutboundEvent{model.Unicast(ev.Sender, model.EventAdminBanResult, adminBanResultPayload{
		OK:          true,
		Username:    payload.Username,
		BanEnd:      ban.BanEnd,
		IsPermanent: ban.IsPermanent,
	})}
}

// ExecuteAdminBan persists an administrative ban and, when the target is
// online, ejects them from their room and schedules a forced disconnect. The
// HTTP admin endpoint and the adminBanUser event both land here.
func (d *Dispatcher) ExecuteAdminBan(ctx context.Context, username, bannedBy, reason string, spec moderation.BanSpec) (*model.BanRecord, error) {
	ban, err := d.moderation.AdminBan(ctx, username, bannedBy, reason, spec)
	if err != nil {
		d.logger.Error("admin ban persist failed", "username", username, "error", err)
		return nil, err
	}

	d.logger.Info("admin ban issued", "username", username,
		"by", ban.BannedBy, "permanent", ban.IsPermanent)

	if target, err := d.presence.FindByName(ctx, username); err == nil {
		d.sink.Deliver(d.leaveCurrentRoom(ctx, target.ID, "ban")...)
		d.sink.Deliver(model.Unicast(target.ID, model.EventUserBanned, noticeFromBan(ban)))

		targetID := target.ID
		d.scheduler.AfterFunc(banDisconnectDelay, func() {
			d.sink.CloseActor(targetID)
		})
	}
	return ban, nil
}

func (d *Dispatcher) handleRequestRoomUpdate(ctx context.Context, ev model.InboundEvent) []model.OutboundEvent {
	actor, err := d.presence.GetActor(ctx, ev.Sender)
	if err != nil {
		return nil
	}

	if ban := d.checkBan(ctx, actor.Name); ban != nil {
		d.logger.Info("banned actor rejected on room update", "username", actor.Name, "actor", ev.Sender)
		return []model.OutboundEvent{model.Unicast(ev.Sender, model.EventUserBanned, noticeFromBan(ban))}
	}

	code := decode[roomCodePayload](ev.Payload).RoomCode
	room, err := d.registry.GetRoom(ctx, code)
	if err != nil {
		return []model.OutboundEvent{model.Unicast(ev.Sender, model.EventJoinError, "That room doesn't exist.")}
	}

	if room.GetMember(ev.Sender) == nil {
		// Not a member: only re-admit a session the registry previously held
		// in this room (reconnection after a dropped transport)
		if actor.CurrentRoom != code {
			return []model.OutboundEvent{model.Unicast(ev.Sender, model.EventJoinError, "You don't have access to this room.")}
		}

		player := model.Player{
			ID:     ev.Sender,
			Name:   actor.Name,
			Avatar: actor.Avatar,
			Ship:   actor.Ship,
		}
		room, err = d.registry.JoinRoom(ctx, code, player)
		if err != nil {
			return []model.OutboundEvent{model.Unicast(ev.Sender, model.EventJoinError, "You don't have access to this room.")}
		}
		d.mirrorRoom(ctx, room)
		d.mirrorPlayer(ctx, code, room.GetMember(ev.Sender), true)
		d.logger.Info("player reconnected to room", "room", code, "player", actor.Name)
	} else {
		_ = d.registry.TouchRoom(ctx, code)
	}

	return []model.OutboundEvent{
		model.Unicast(ev.Sender, model.EventRoomUpdated, roomUpdatedPayload{
			RoomCode: code,
			Players:  room.PlayerList(),
			IsHost:   room.HostID == ev.Sender,
		}),
	}
}

func (d *Dispatcher) handleGetConnectedUsers(ctx context.Context, ev model.InboundEvent) []model.OutboundEvent {
	actors, err := d.presence.Snapshot(ctx)
	if err != nil {
		d.logger.Error("presence snapshot failed", "error", err)
		return nil
	}

	// Most recent connection first
	sort.Slice(actors, func(i, j int) bool {
		return actors[i].ConnectedAt.After(actors[j].ConnectedAt)
	})

	users := make([]connectedUserInfo, 0, len(actors))
	for _, actor := range actors {
		info := connectedUserInfo{
			Username:    actor.Name,
			ConnectedAt: actor.ConnectedAt,
			CurrentRoom: actor.CurrentRoom,
			IsOnline:    actor.Online,
		}
		if actor.CurrentRoom != "" {
			if room, err := d.registry.GetRoom(ctx, actor.CurrentRoom); err == nil {
				info.RoomPlayerCount = len(room.Members)
			}
		}
		users = append(users, info)
	}

	rooms, err := d.registry.ListRooms(ctx)
	if err != nil {
		d.logger.Error("room listing failed", "error", err)
	}

	return []model.OutboundEvent{
		model.Unicast(ev.Sender, model.EventConnectedUsersUpdate, connectedUsersPayload{
			Users:       users,
			TotalUsers:  len(users),
			ActiveRooms: len(rooms),
		}),
	}
}

func (d *Dispatcher) handleGetAvailableRooms(ctx context.Context, ev model.InboundEvent) []model.OutboundEvent {
	rooms, err := d.registry.ListRooms(ctx)
	if err != nil {
		d.logger.Error("room listing failed", "error", err)
		return nil
	}

	summaries := make([]model.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, room.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Code < summaries[j].Code
	})

	return []model.OutboundEvent{
		model.Unicast(ev.Sender, model.EventAvailableRoomsUpdate, availableRoomsPayload{
			Rooms:      summaries,
			TotalRooms: len(summaries),
		}),
	}
}

func (d *Dispatcher) handlePing(ev model.InboundEvent) []model.OutboundEvent {
	payload := decode[pingPayload](ev.Payload)
	return []model.OutboundEvent{
		model.Unicast(ev.Sender, model.EventPong, pongPayload{
			Timestamp:         d.nowMillis(),
			OriginalTimestamp: payload.Timestamp,
		}),
	}
}

// leaveCurrentRoom removes an actor from whatever room it occupies and builds
// the departure broadcast. No-op when the actor is in no room.
func (d *Dispatcher) leaveCurrentRoom(ctx context.Context, id model.ActorID, reason string) []model.OutboundEvent {
	actor, err := d.presence.GetActor(ctx, id)
	if err != nil || actor.CurrentRoom == "" {
		return nil
	}

	code := actor.CurrentRoom
	_ = d.presence.SetRoom(ctx, id, "")

	result, err := d.registry.LeaveRoom(ctx, code, id)
	if err != nil {
		return nil
	}

	d.logger.Info("player left room", "room", code, "player", result.Removed.Name, "reason", reason)

	if result.RoomDeleted {
		d.mirrorRoomDeleted(ctx, code)
		return nil
	}

	d.mirrorRoom(ctx, result.Room)
	d.mirrorPlayerOffline(ctx, code, id)

	return []model.OutboundEvent{
		model.RoomInclusive(code, model.EventPlayerLeft, playerLeftPayload{
			LeftPlayerName: result.Removed.Name,
			LeftPlayerID:   id,
			Players:        result.Room.PlayerList(),
			NewHost:        result.Room.HostID,
			Reason:         reason,
		}),
	}
}

// buildPlayer assembles the room-member projection for a sender, falling
// back to the presence directory and then to defaults
func (d *Dispatcher) buildPlayer(ctx context.Context, id model.ActorID, payload profilePayload) model.Player {
	player := model.Player{
		ID:        id,
		Name:      payload.profile().Name,
		Avatar:    payload.Avatar,
		Ship:      payload.Ship,
		Pet:       payload.Pet,
		PetLevels: payload.PetLevels,
	}

	if actor, err := d.presence.GetActor(ctx, id); err == nil {
		if player.Name == "" {
			player.Name = actor.Name
		}
		if player.Avatar == "" {
			player.Avatar = actor.Avatar
		}
		if player.Ship == "" {
			player.Ship = actor.Ship
		}
	}
	if player.Name == "" {
		player.Name = fallbackName(id)
	}
	if player.Avatar == "" {
		player.Avatar = model.DefaultAvatar
	}
	if player.Ship == "" {
		player.Ship = model.DefaultShip
	}
	return player
}

// syncPresence aligns the presence directory with a room membership change
func (d *Dispatcher) syncPresence(ctx context.Context, id model.ActorID, player model.Player, code model.RoomCode) {
	_, _ = d.presence.UpdateProfile(ctx, id, model.Profile{
		Name:      player.Name,
		Avatar:    player.Avatar,
		Ship:      player.Ship,
		Pet:       player.Pet,
		PetLevels: player.PetLevels,
	})
	_ = d.presence.SetRoom(ctx, id, code)
}

func fallbackName(id model.ActorID) string {
	s := string(id)
	if len(s) > 4 {
		s = s[:4]
	}
	return "Player-" + s
}
