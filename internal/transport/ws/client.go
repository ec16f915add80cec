package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/averykip/invadersync/internal/model"
)

const (
	// writeWait bounds how long a single frame write may take
	writeWait = 10 * time.Second
	// pongWait is how long a connection may stay silent before it is
	// considered dead; pings go out at pingPeriod to keep it alive
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize allows for bulk enemy state updates
	maxMessageSize = 64 << 10
	// sendQueueSize is the per-client outbound buffer; a client that cannot
	// drain it is cut off rather than stalling the whole room
	sendQueueSize = 256
)

// client is one websocket session
type client struct {
	hub  *Hub
	id   model.ActorID
	conn *websocket.Conn

	send chan []byte
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

func newClient(h *Hub, id model.ActorID, conn *websocket.Conn) *client {
	return &client{
		hub:  h,
		id:   id,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
}

// enqueue queues a frame for delivery, dropping the connection when the
// client has fallen too far behind. Frames arriving after close are
// discarded; the send channel is never closed, so a late Deliver racing a
// teardown cannot send on a closed channel.
func (c *client) enqueue(frame []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	select {
	case c.send <- frame:
		c.mu.Unlock()
	default:
		c.mu.Unlock()
		c.hub.logger.Warn("client send queue overflow, dropping connection", "actor", c.id)
		c.close()
	}
}

// close severs the connection; safe to call more than once. Closing the
// underlying conn unblocks the read loop, which runs the full teardown.
func (c *client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()
	c.conn.Close()
}

// readPump decodes inbound frames and runs them through the dispatcher. It
// owns session teardown: when the loop exits, for any reason, the actor is
// dropped from the hub.
func (c *client) readPump() {
	defer c.hub.dropClient(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("read loop ended", "actor", c.id, "error", err)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.hub.logger.Debug("discarding malformed frame", "actor", c.id, "error", err)
			continue
		}
		if frame.Type == "" {
			continue
		}

		events := c.hub.dispatcher.Dispatch(context.Background(), model.InboundEvent{
			Sender:  c.id,
			Type:    frame.Type,
			Payload: frame.Data,
		})
		c.hub.Deliver(events...)
	}
}

// writePump drains the send queue onto the wire and keeps the connection
// alive with periodic pings
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
