// Package relay implements the signaling relay: a hub that owns room
// membership and forwards directed control messages between participants. It
// never touches media.
package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/meshcall/internal/domain"
	"github.com/dkeye/meshcall/internal/wire"
)

type inbound struct {
	client *Client
	env    wire.Envelope
}

// RoomInfo is a read-only view of one room for the HTTP surface.
type RoomInfo struct {
	Key         domain.RoomKey `json:"key"`
	MemberCount int            `json:"member_count"`
}

// Hub is the single goroutine that owns all rooms and clients. Everything
// reaches it through channels; no lock guards its state.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	snapshots  chan chan<- []RoomInfo

	rooms   map[domain.RoomKey]map[domain.PeerID]*Client
	limiter *JoinLimiter
}

func NewHub(joinLimit int, joinWindow time.Duration) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 64),
		snapshots:  make(chan chan<- []RoomInfo),
		rooms:      make(map[domain.RoomKey]map[domain.PeerID]*Client),
		limiter:    NewJoinLimiter(joinLimit, joinWindow),
	}
}

// Run processes hub events until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			log.Info().Str("module", "relay").Str("peer", string(c.id)).Msg("client registered")

		case c := <-h.unregister:
			h.leaveRoom(c)
			h.limiter.Forget(c.id)
			close(c.send)
			log.Info().Str("module", "relay").Str("peer", string(c.id)).Msg("client unregistered")

		case msg := <-h.inbound:
			h.dispatch(msg.client, msg.env)

		case reply := <-h.snapshots:
			out := make([]RoomInfo, 0, len(h.rooms))
			for key, members := range h.rooms {
				out = append(out, RoomInfo{Key: key, MemberCount: len(members)})
			}
			reply <- out
		}
	}
}

// Rooms returns a snapshot of active rooms. Blocks until Run serves it.
func (h *Hub) Rooms() []RoomInfo {
	reply := make(chan []RoomInfo, 1)
	h.snapshots <- reply
	return <-reply
}

func (h *Hub) dispatch(c *Client, env wire.Envelope) {
	switch env.Type {
	case wire.TypeJoinRoom:
		h.handleJoin(c, env)
	case wire.TypeOffer, wire.TypeAnswer, wire.TypeICECandidate:
		h.forward(c, env)
	default:
		log.Warn().Str("module", "relay").Str("type", env.Type).Msg("unknown message")
	}
}

func (h *Hub) handleJoin(c *Client, env wire.Envelope) {
	if !h.limiter.Allow(c.id) {
		c.sendEnvelope(wire.Envelope{Type: wire.TypeError, Error: "join rate exceeded"})
		return
	}
	key, err := domain.ParseRoomKey(env.Room)
	if err != nil {
		c.sendEnvelope(wire.Envelope{Type: wire.TypeError, Error: err.Error()})
		return
	}

	// Re-joining from the same connection moves the client.
	if c.room != "" {
		h.leaveRoom(c)
	}

	members, ok := h.rooms[key]
	if !ok {
		members = make(map[domain.PeerID]*Client)
		h.rooms[key] = members
		log.Info().Str("module", "relay").Str("room", string(key)).Msg("room created")
	}

	others := make([]string, 0, len(members))
	for id := range members {
		others = append(others, string(id))
	}

	members[c.id] = c
	c.room = key

	// The joiner learns who was already present; everyone present learns
	// about the joiner. The asymmetry is what fixes negotiation roles.
	c.sendEnvelope(wire.Envelope{Type: wire.TypeOtherUsers, Users: others})
	h.broadcast(key, wire.Envelope{Type: wire.TypeUserJoined, From: string(c.id)}, c.id)
	h.broadcast(key, wire.Envelope{Type: wire.TypeRoomSize, Size: len(members)}, "")

	log.Info().Str("module", "relay").Str("room", string(key)).Str("peer", string(c.id)).Int("size", len(members)).Msg("joined")
}

// forward relays a directed negotiation message to its target, rewriting
// From to the verified sender id.
func (h *Hub) forward(c *Client, env wire.Envelope) {
	if c.room == "" {
		c.sendEnvelope(wire.Envelope{Type: wire.TypeError, Error: "join a room first"})
		return
	}
	members := h.rooms[c.room]
	target, ok := members[domain.PeerID(env.Target)]
	if !ok {
		log.Debug().Str("module", "relay").Str("target", env.Target).Str("type", env.Type).Msg("target gone, dropping")
		return
	}
	target.sendEnvelope(wire.Envelope{
		Type:      env.Type,
		From:      string(c.id),
		SDP:       env.SDP,
		Candidate: env.Candidate,
	})
}

func (h *Hub) leaveRoom(c *Client) {
	if c.room == "" {
		return
	}
	key := c.room
	c.room = ""
	members, ok := h.rooms[key]
	if !ok {
		return
	}
	delete(members, c.id)
	if len(members) == 0 {
		delete(h.rooms, key)
		log.Info().Str("module", "relay").Str("room", string(key)).Msg("room deleted")
		return
	}
	h.broadcast(key, wire.Envelope{Type: wire.TypeUserLeft, From: string(c.id)}, "")
	h.broadcast(key, wire.Envelope{Type: wire.TypeRoomSize, Size: len(members)}, "")
}

func (h *Hub) broadcast(key domain.RoomKey, env wire.Envelope, except domain.PeerID) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("module", "relay").Msg("broadcast marshal")
		return
	}
	for id, m := range h.rooms[key] {
		if id == except {
			continue
		}
		m.trySend(data)
	}
}
