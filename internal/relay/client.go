package relay

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/meshcall/internal/domain"
	"github.com/dkeye/meshcall/internal/wire"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 32
)

// Client is one websocket participant connection. The hub owns its room
// membership; the pumps own the socket.
type Client struct {
	id   domain.PeerID
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// room is written only by the hub goroutine.
	room domain.RoomKey
}

// ServeWS registers a fresh connection with the hub and starts its pumps.
// The participant id is relay-assigned and opaque to clients.
func ServeWS(hub *Hub, conn *websocket.Conn) {
	c := &Client{
		id:   domain.PeerID(uuid.NewString()),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	hub.register <- c
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "relay").Str("peer", string(c.id)).Msg("read error")
			}
			return
		}
		var env wire.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Warn().Err(err).Str("module", "relay").Str("peer", string(c.id)).Msg("bad json")
			continue
		}
		c.hub.inbound <- inbound{client: c, env: env}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

// trySend drops on backpressure rather than blocking the hub.
func (c *Client) trySend(data []byte) {
	select {
	case c.send <- data:
	default:
		log.Warn().Str("module", "relay").Str("peer", string(c.id)).Msg("slow client, dropping message")
	}
}

func (c *Client) sendEnvelope(env wire.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("module", "relay").Msg("marshal")
		return
	}
	c.trySend(data)
}
