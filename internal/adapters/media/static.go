package media

import (
	"errors"
	"io"

	"github.com/pion/webrtc/v4"
)

var (
	ErrAudioDisabled = errors.New("audio capture disabled")
	ErrVideoDisabled = errors.New("video capture disabled")
)

// StaticProvider serves static sample tracks in place of real capture
// hardware. Tracks can be toggled off to mimic a denied device.
type StaticProvider struct {
	Audio bool
	Video bool

	// StreamID groups both tracks into one media stream on the remote side.
	StreamID string
}

func (p *StaticProvider) streamID() string {
	if p.StreamID == "" {
		return "meshcall"
	}
	return p.StreamID
}

func (p *StaticProvider) OpenAudio() (webrtc.TrackLocal, io.Closer, error) {
	if !p.Audio {
		return nil, nil, ErrAudioDisabled
	}
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio", p.streamID(),
	)
	if err != nil {
		return nil, nil, err
	}
	return track, nopCloser{}, nil
}

func (p *StaticProvider) OpenVideo() (webrtc.TrackLocal, io.Closer, error) {
	if !p.Video {
		return nil, nil, ErrVideoDisabled
	}
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8},
		"video", p.streamID(),
	)
	if err != nil {
		return nil, nil, err
	}
	return track, nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
