package core

import (
	"github.com/pion/webrtc/v4"

	"github.com/dkeye/meshcall/internal/domain"
)

// Event is one inbound signaling event, already decoded and scoped to the
// room the channel was connected to. The adapter delivers events in relay
// order and performs no deduplication; stale or duplicate messages are the
// orchestrator's problem.
type Event interface{ event() }

// RosterSnapshot lists the participants that were already in the room when we
// joined. We initiate toward each of them.
type RosterSnapshot struct {
	Peers []domain.PeerID
}

// PeerJoined announces a participant that arrived after us. They will
// initiate toward us.
type PeerJoined struct {
	ID domain.PeerID
}

// PeerLeft announces a departed participant.
type PeerLeft struct {
	ID domain.PeerID
}

// OfferReceived carries a remote offer directed at us.
type OfferReceived struct {
	From domain.PeerID
	SDP  webrtc.SessionDescription
}

// AnswerReceived carries a remote answer directed at us.
type AnswerReceived struct {
	From domain.PeerID
	SDP  webrtc.SessionDescription
}

// CandidateReceived carries a remote ICE candidate directed at us.
type CandidateReceived struct {
	From      domain.PeerID
	Candidate webrtc.ICECandidateInit
}

// RoomSize is the relay's authoritative participant count, republished
// verbatim.
type RoomSize struct {
	Count int
}

func (RosterSnapshot) event()    {}
func (PeerJoined) event()        {}
func (PeerLeft) event()          {}
func (OfferReceived) event()     {}
func (AnswerReceived) event()    {}
func (CandidateReceived) event() {}
func (RoomSize) event()          {}
