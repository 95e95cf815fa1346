package orch

import (
	"github.com/pion/webrtc/v4"

	"github.com/dkeye/meshcall/internal/core"
	"github.com/dkeye/meshcall/internal/domain"
)

type sessionState int

const (
	stateNew sessionState = iota
	stateHaveLocalOffer
	stateHaveRemoteOffer
	stateConnected
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateNew:
		return "new"
	case stateHaveLocalOffer:
		return "have-local-offer"
	case stateHaveRemoteOffer:
		return "have-remote-offer"
	case stateConnected:
		return "connected"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// peerSession owns the single negotiated connection toward one remote
// participant: its role, negotiation state, buffered remote candidates and
// inbound media. All access happens on the room's event loop.
type peerSession struct {
	id    domain.PeerID
	role  domain.Role
	state sessionState
	mc    core.MediaConnection

	// remoteSet flips once a remote description is installed; until then
	// inbound candidates are buffered in arrival order.
	remoteSet bool
	pending   []webrtc.ICECandidateInit

	stream *core.RemoteStream
}

// close releases the underlying connection and discards buffered candidates.
// Idempotent; a closed session ignores every later event.
func (s *peerSession) close() {
	if s.state == stateClosed {
		return
	}
	s.state = stateClosed
	s.pending = nil
	s.stream = nil
	s.mc.Close()
}

// addRemoteTrack associates an inbound track with this session. A track
// belonging to a new stream id replaces the previous stream entirely: last
// one wins per participant.
func (s *peerSession) addRemoteTrack(track core.RemoteTrack) *core.RemoteStream {
	if s.stream == nil || s.stream.StreamID != track.StreamID() {
		s.stream = &core.RemoteStream{Peer: s.id, StreamID: track.StreamID()}
	}
	s.stream.Tracks = append(s.stream.Tracks, track)
	return s.stream
}
