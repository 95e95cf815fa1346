package signal

import (
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/meshcall/internal/core"
	"github.com/dkeye/meshcall/internal/domain"
	"github.com/dkeye/meshcall/internal/wire"
)

func TestToEvent(t *testing.T) {
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"}
	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0"}
	cand := webrtc.ICECandidateInit{Candidate: "candidate:1"}

	tests := []struct {
		name string
		env  wire.Envelope
		want core.Event
	}{
		{
			name: "roster snapshot",
			env:  wire.Envelope{Type: wire.TypeOtherUsers, Users: []string{"a", "b"}},
			want: core.RosterSnapshot{Peers: []domain.PeerID{"a", "b"}},
		},
		{
			name: "empty roster",
			env:  wire.Envelope{Type: wire.TypeOtherUsers},
			want: core.RosterSnapshot{Peers: []domain.PeerID{}},
		},
		{
			name: "user joined",
			env:  wire.Envelope{Type: wire.TypeUserJoined, From: "a"},
			want: core.PeerJoined{ID: "a"},
		},
		{
			name: "user left",
			env:  wire.Envelope{Type: wire.TypeUserLeft, From: "a"},
			want: core.PeerLeft{ID: "a"},
		},
		{
			name: "offer",
			env:  wire.Envelope{Type: wire.TypeOffer, From: "a", SDP: &offer},
			want: core.OfferReceived{From: "a", SDP: offer},
		},
		{
			name: "answer",
			env:  wire.Envelope{Type: wire.TypeAnswer, From: "a", SDP: &answer},
			want: core.AnswerReceived{From: "a", SDP: answer},
		},
		{
			name: "candidate",
			env:  wire.Envelope{Type: wire.TypeICECandidate, From: "a", Candidate: &cand},
			want: core.CandidateReceived{From: "a", Candidate: cand},
		},
		{
			name: "room size",
			env:  wire.Envelope{Type: wire.TypeRoomSize, Size: 4},
			want: core.RoomSize{Count: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toEvent(tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToEventMalformed(t *testing.T) {
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer}

	tests := []struct {
		name string
		env  wire.Envelope
	}{
		{name: "unknown type", env: wire.Envelope{Type: "bogus"}},
		{name: "joined without id", env: wire.Envelope{Type: wire.TypeUserJoined}},
		{name: "left without id", env: wire.Envelope{Type: wire.TypeUserLeft}},
		{name: "offer without sdp", env: wire.Envelope{Type: wire.TypeOffer, From: "a"}},
		{name: "offer without sender", env: wire.Envelope{Type: wire.TypeOffer, SDP: &offer}},
		{name: "answer without sdp", env: wire.Envelope{Type: wire.TypeAnswer, From: "a"}},
		{name: "candidate without payload", env: wire.Envelope{Type: wire.TypeICECandidate, From: "a"}},
		{name: "relay error", env: wire.Envelope{Type: wire.TypeError, Error: "room full"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := toEvent(tt.env)
			require.Error(t, err)
			assert.Nil(t, ev)
		})
	}
}
