package core

import "errors"

var (
	// ErrMediaUnavailable means local capture could not be acquired. Soft:
	// the room proceeds without local media.
	ErrMediaUnavailable = errors.New("media unavailable")

	// ErrNoMediaAvailable means every capture combination was denied.
	ErrNoMediaAvailable = errors.New("no media available")

	// ErrSignalingUnavailable means the relay could not be reached. Fatal to
	// room entry.
	ErrSignalingUnavailable = errors.New("signaling unavailable")

	// ErrNegotiationFailed means description or candidate application broke
	// one peer session. The session is dropped; the room survives.
	ErrNegotiationFailed = errors.New("negotiation failed")

	// ErrStaleMessage marks an answer or candidate that references a session
	// no longer in the expected state. Ignored, never surfaced.
	ErrStaleMessage = errors.New("stale signaling message")
)
