// Package domain contains entity without logic, just meta-data
package domain

// PeerID identifies one remote participant. It is assigned by the relay and
// stays stable for the lifetime of that participant's connection.
type PeerID string

// Role fixes which side of a peer pair opens negotiation. It is decided once,
// at session creation, and never changes within a session.
type Role int

const (
	// RoleInitiator is assigned toward peers that were already in the room
	// when we arrived: we open negotiation toward each of them.
	RoleInitiator Role = iota
	// RoleResponder is assigned toward peers that arrive after us: the
	// newcomer offers, we answer.
	RoleResponder
)

func (r Role) String() string {
	switch r {
	case RoleInitiator:
		return "initiator"
	case RoleResponder:
		return "responder"
	default:
		return "unknown"
	}
}
