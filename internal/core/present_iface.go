package core

import (
	"github.com/pion/webrtc/v4"

	"github.com/dkeye/meshcall/internal/domain"
)

// RemoteTrack is the subset of *webrtc.TrackRemote the orchestrator and
// presenters rely on.
type RemoteTrack interface {
	ID() string
	StreamID() string
	Kind() webrtc.RTPCodecType
}

// RemoteStream is the inbound media of one remote participant.
type RemoteStream struct {
	Peer     domain.PeerID
	StreamID string
	Tracks   []RemoteTrack
}

// Presenter is the surface the orchestrator republishes observable state to.
// All callbacks arrive from the room's event loop, one at a time.
type Presenter interface {
	// RoomSize reports the relay's participant count.
	RoomSize(n int)
	// LocalMedia reports the acquired local tracks, possibly empty.
	LocalMedia(tracks []webrtc.TrackLocal)
	// RemoteMedia reports the current inbound stream for a peer. A nil
	// stream means the peer's media is gone. Last one wins per peer.
	RemoteMedia(id domain.PeerID, stream *RemoteStream)
	// PeerConnectivity reports transport state transitions, for diagnostics.
	PeerConnectivity(id domain.PeerID, state webrtc.PeerConnectionState)
}
