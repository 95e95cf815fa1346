// Package console implements the presentation surface for the CLI: room
// state is rendered as structured log lines instead of video elements.
package console

import (
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/meshcall/internal/core"
	"github.com/dkeye/meshcall/internal/domain"
)

type Presenter struct{}

func New() *Presenter { return &Presenter{} }

func (*Presenter) RoomSize(n int) {
	log.Info().Str("module", "console").Int("size", n).Msg("people in call")
}

func (*Presenter) LocalMedia(tracks []webrtc.TrackLocal) {
	kinds := make([]string, 0, len(tracks))
	for _, t := range tracks {
		kinds = append(kinds, t.Kind().String())
	}
	log.Info().Str("module", "console").Strs("tracks", kinds).Msg("local media")
}

func (*Presenter) RemoteMedia(id domain.PeerID, stream *core.RemoteStream) {
	if stream == nil {
		log.Info().Str("module", "console").Str("peer", string(id)).Msg("remote media gone")
		return
	}
	log.Info().
		Str("module", "console").
		Str("peer", string(id)).
		Str("stream_id", stream.StreamID).
		Int("tracks", len(stream.Tracks)).
		Msg("remote media")
}

func (*Presenter) PeerConnectivity(id domain.PeerID, state webrtc.PeerConnectionState) {
	log.Info().Str("module", "console").Str("peer", string(id)).Str("state", state.String()).Msg("connectivity")
}
