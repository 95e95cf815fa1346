// Package signal implements the signaling channel adapter: a websocket
// client for the relay that delivers typed events in relay order.
package signal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/meshcall/internal/core"
	"github.com/dkeye/meshcall/internal/domain"
	"github.com/dkeye/meshcall/internal/wire"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var ErrBackpressure = errors.New("backpressure")

// Client manages the websocket connection to the relay and implements
// core.SignalChannel.
type Client struct {
	relayURL string
	conn     *websocket.Conn
	events   chan core.Event
	outgoing chan wire.Envelope
	done     chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewClient(relayURL string) *Client {
	return &Client{
		relayURL: relayURL,
		events:   make(chan core.Event, 32),
		outgoing: make(chan wire.Envelope, 32),
		done:     make(chan struct{}),
	}
}

// Connect dials the relay and joins the room-scoped stream. On success the
// read and write pumps run until the transport drops or Close is called.
func (c *Client) Connect(ctx context.Context, room domain.RoomKey) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.relayURL, nil)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", core.ErrSignalingUnavailable, c.relayURL, err)
	}
	c.conn = conn

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.readPump()
	go c.writePump()

	return c.enqueue(wire.Envelope{Type: wire.TypeJoinRoom, Room: string(room)})
}

func (c *Client) SendOffer(target domain.PeerID, sdp webrtc.SessionDescription) error {
	return c.enqueue(wire.Envelope{Type: wire.TypeOffer, Target: string(target), SDP: &sdp})
}

func (c *Client) SendAnswer(target domain.PeerID, sdp webrtc.SessionDescription) error {
	return c.enqueue(wire.Envelope{Type: wire.TypeAnswer, Target: string(target), SDP: &sdp})
}

func (c *Client) SendCandidate(target domain.PeerID, cand webrtc.ICECandidateInit) error {
	return c.enqueue(wire.Envelope{Type: wire.TypeICECandidate, Target: string(target), Candidate: &cand})
}

// Events delivers inbound events in relay order. The channel is closed when
// the transport drops.
func (c *Client) Events() <-chan core.Event { return c.events }

// Close is idempotent and stops further delivery.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	if c.conn == nil {
		// Never connected; nothing to unwind, but readers of Events must
		// still observe a closed channel.
		close(c.events)
	}
}

func (c *Client) enqueue(env wire.Envelope) error {
	select {
	case <-c.done:
		return errors.New("signal channel closed")
	default:
	}
	select {
	case c.outgoing <- env:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *Client) readPump() {
	defer func() {
		_ = c.conn.Close()
		close(c.events)
	}()

	for {
		var env wire.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				log.Warn().Err(err).Str("module", "signal").Msg("read error, channel down")
			}
			return
		}
		ev, err := toEvent(env)
		if err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("type", env.Type).Msg("dropping message")
			continue
		}
		c.events <- ev
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
		case env := <-c.outgoing:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
