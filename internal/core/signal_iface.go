package core

import (
	"context"

	"github.com/pion/webrtc/v4"

	"github.com/dkeye/meshcall/internal/domain"
)

// SignalChannel abstracts the duplex control-message transport to the relay.
// Owned by the orchestrator; the orchestrator must Close() it.
type SignalChannel interface {
	// Connect joins the room-scoped message stream. After it returns the
	// Events channel delivers inbound events until the transport drops, at
	// which point the channel is closed.
	Connect(ctx context.Context, room domain.RoomKey) error

	SendOffer(target domain.PeerID, sdp webrtc.SessionDescription) error
	SendAnswer(target domain.PeerID, sdp webrtc.SessionDescription) error
	SendCandidate(target domain.PeerID, cand webrtc.ICECandidateInit) error

	Events() <-chan Event

	// Close is idempotent and stops further delivery.
	Close()
}
