package signal

import (
	"fmt"

	"github.com/dkeye/meshcall/internal/core"
	"github.com/dkeye/meshcall/internal/domain"
	"github.com/dkeye/meshcall/internal/wire"
)

// toEvent maps a relay envelope to a typed core event.
func toEvent(env wire.Envelope) (core.Event, error) {
	switch env.Type {
	case wire.TypeOtherUsers:
		peers := make([]domain.PeerID, 0, len(env.Users))
		for _, u := range env.Users {
			peers = append(peers, domain.PeerID(u))
		}
		return core.RosterSnapshot{Peers: peers}, nil

	case wire.TypeUserJoined:
		if env.From == "" {
			return nil, fmt.Errorf("user-joined without id")
		}
		return core.PeerJoined{ID: domain.PeerID(env.From)}, nil

	case wire.TypeUserLeft:
		if env.From == "" {
			return nil, fmt.Errorf("user-left without id")
		}
		return core.PeerLeft{ID: domain.PeerID(env.From)}, nil

	case wire.TypeOffer:
		if env.From == "" || env.SDP == nil {
			return nil, fmt.Errorf("malformed offer")
		}
		return core.OfferReceived{From: domain.PeerID(env.From), SDP: *env.SDP}, nil

	case wire.TypeAnswer:
		if env.From == "" || env.SDP == nil {
			return nil, fmt.Errorf("malformed answer")
		}
		return core.AnswerReceived{From: domain.PeerID(env.From), SDP: *env.SDP}, nil

	case wire.TypeICECandidate:
		if env.From == "" || env.Candidate == nil {
			return nil, fmt.Errorf("malformed candidate")
		}
		return core.CandidateReceived{From: domain.PeerID(env.From), Candidate: *env.Candidate}, nil

	case wire.TypeRoomSize:
		return core.RoomSize{Count: env.Size}, nil

	case wire.TypeError:
		return nil, fmt.Errorf("relay error: %s", env.Error)

	default:
		return nil, fmt.Errorf("unknown signal type %q", env.Type)
	}
}
