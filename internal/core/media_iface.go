package core

import (
	"github.com/pion/webrtc/v4"

	"github.com/dkeye/meshcall/internal/domain"
)

// MediaConnection is one negotiated transport toward a single remote peer.
// A peer session owns exactly one and must Close() it on teardown.
type MediaConnection interface {
	// CreateOffer generates an offer and installs it as the local
	// description.
	CreateOffer() (webrtc.SessionDescription, error)
	// CreateAnswer installs the remote offer, generates an answer and
	// installs it as the local description.
	CreateAnswer(offer webrtc.SessionDescription) (webrtc.SessionDescription, error)
	// ApplyAnswer installs the remote answer on an offering connection.
	ApplyAnswer(answer webrtc.SessionDescription) error
	// AddICECandidate applies a remote ICE candidate. Callers must only
	// invoke it after a remote description is installed.
	AddICECandidate(webrtc.ICECandidateInit) error
	// AddTrack attaches a local capture track for sending.
	AddTrack(webrtc.TrackLocal) error

	// OnICECandidate sets a callback for newly gathered local candidates.
	OnICECandidate(func(webrtc.ICECandidateInit))
	// OnTrack sets a callback invoked when a remote track arrives.
	OnTrack(func(RemoteTrack))
	// OnConnectionStateChange sets a callback for transport connectivity
	// transitions, reported independently of offer/answer progress.
	OnConnectionStateChange(func(webrtc.PeerConnectionState))

	// Close releases the underlying connection. Idempotent.
	Close()
}

// MediaFactory builds the media connection for a new peer session.
type MediaFactory func(peer domain.PeerID) (MediaConnection, error)

// MediaSource holds the local capture tracks, shared read-only by every peer
// session of the room. Only the orchestrator acquires and releases it.
type MediaSource interface {
	Tracks() []webrtc.TrackLocal
	// Release stops every acquired track to free the hardware. Safe to call
	// more than once and safe on a source with no tracks.
	Release()
}
