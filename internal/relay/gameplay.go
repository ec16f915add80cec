package relay

import (
	"context"
	"strconv"

	"github.com/averykip/invadersync/internal/model"
)

// defaultDestroyScore is credited when the client omits a score
const defaultDestroyScore = 150

// handleGameplay relays moment-to-moment game traffic between room members.
// Senders in no room are dropped silently. The server stamps identity and
// time onto each payload but does not validate game state; clients reconcile
// against the shared seed.
func (d *Dispatcher) handleGameplay(ctx context.Context, ev model.InboundEvent) []model.OutboundEvent {
	actor, room := d.senderContext(ctx, ev.Sender)
	if room == nil {
		return nil
	}
	now := d.nowMillis()

	switch ev.Type {
	case model.EventPlayerMove:
		payload := decode[playerMovePayload](ev.Payload)
		return []model.OutboundEvent{
			model.RoomExclusive(room.Code, ev.Sender, model.EventPlayerMoved, playerMovedPayload{
				PlayerID:  ev.Sender,
				X:         payload.X,
				Y:         payload.Y,
				Timestamp: now,
			}),
		}

	case model.EventPlayerShoot:
		bullet := decorate(ev.Payload, map[string]any{
			"id":        string(ev.Sender) + "-" + strconv.FormatInt(now, 10),
			"playerId":  ev.Sender,
			"timestamp": now,
		})
		return []model.OutboundEvent{
			model.RoomInclusive(room.Code, model.EventPlayerShoot, bullet),
		}

	case model.EventChatMessage:
		payload := decode[chatPayload](ev.Payload)
		return []model.OutboundEvent{
			model.RoomInclusive(room.Code, model.EventChatMessage, chatMessageOut{
				Username:  actor.Name,
				Text:      payload.Text,
				Timestamp: now,
			}),
		}

	case model.EventEnemyDestroyed:
		payload := decode[enemyDestroyedPayload](ev.Payload)
		if payload.Score == 0 {
			payload.Score = defaultDestroyScore
		}
		return []model.OutboundEvent{
			model.RoomInclusive(room.Code, model.EventEnemyDestroyed, enemyDestroyedOut{
				EnemyID:  payload.EnemyID,
				PlayerID: ev.Sender,
				Score:    payload.Score,
				EnemyX:   payload.EnemyX,
				EnemyY:   payload.EnemyY,
			}),
		}

	case model.EventEnemyShoot:
		return []model.OutboundEvent{
			model.RoomInclusive(room.Code, model.EventEnemyShoot, decorate(ev.Payload, map[string]any{
				"timestamp": now,
			})),
		}

	case model.EventPowerupTaken:
		payload := decode[powerupPayload](ev.Payload)
		return []model.OutboundEvent{
			model.RoomInclusive(room.Code, model.EventPowerupTaken, powerupTakenOut{
				PowerupID: payload.PowerupID,
				PlayerID:  ev.Sender,
			}),
		}

	case model.EventCoinTaken:
		payload := decode[coinPayload](ev.Payload)
		return []model.OutboundEvent{
			model.RoomInclusive(room.Code, model.EventCoinTaken, coinTakenOut{
				CoinID:   payload.CoinID,
				PlayerID: ev.Sender,
			}),
		}

	case model.EventEnemyUpdate, model.EventGameStateUpdate:
		return []model.OutboundEvent{
			model.RoomExclusive(room.Code, ev.Sender, ev.Type, decorate(ev.Payload, map[string]any{
				"playerId": ev.Sender,
			})),
		}

	case model.EventPlayerDeath, model.EventPlayerRespawn:
		return []model.OutboundEvent{
			model.RoomInclusive(room.Code, ev.Type, decorate(ev.Payload, map[string]any{
				"playerId":   ev.Sender,
				"playerName": actor.Name,
			})),
		}

	case model.EventScoreUpdate:
		return []model.OutboundEvent{
			model.RoomExclusive(room.Code, ev.Sender, ev.Type, decorate(ev.Payload, map[string]any{
				"playerId":   ev.Sender,
				"playerName": actor.Name,
			})),
		}
	}

	return nil
}
