// Package wire defines the JSON envelope exchanged with the relay. Both the
// client-side signaling adapter and the relay daemon speak this format.
package wire

import "github.com/pion/webrtc/v4"

// Message type constants. Directed messages carry Target on the way to the
// relay; the relay rewrites From before forwarding.
const (
	TypeJoinRoom     = "join-room"
	TypeOtherUsers   = "other-users"
	TypeUserJoined   = "user-joined"
	TypeUserLeft     = "user-left"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice-candidate"
	TypeRoomSize     = "room-size"
	TypeError        = "error"
)

// Envelope is the single message shape on the wire; unused fields are
// omitted per type.
type Envelope struct {
	Type      string                     `json:"type"`
	Room      string                     `json:"room,omitempty"`
	Target    string                     `json:"target,omitempty"`
	From      string                     `json:"from,omitempty"`
	SDP       *webrtc.SessionDescription `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
	Users     []string                   `json:"users,omitempty"`
	Size      int                        `json:"size,omitempty"`
	Error     string                     `json:"error,omitempty"`
}
