// Package media implements the local media source: capture acquisition with
// graceful degradation and release-once semantics.
package media

import (
	"io"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/meshcall/internal/core"
)

// Provider opens capture tracks. Audio and video may each be granted or
// denied independently; a returned closer releases the device handle.
type Provider interface {
	OpenAudio() (webrtc.TrackLocal, io.Closer, error)
	OpenVideo() (webrtc.TrackLocal, io.Closer, error)
}

// Source holds acquired local tracks; it implements core.MediaSource.
type Source struct {
	tracks  []webrtc.TrackLocal
	closers []io.Closer
	once    sync.Once
}

func (s *Source) Tracks() []webrtc.TrackLocal { return s.tracks }

// Release stops every acquired track exactly once. Safe on an empty source.
func (s *Source) Release() {
	s.once.Do(func() {
		for _, c := range s.closers {
			if err := c.Close(); err != nil {
				log.Warn().Err(err).Str("module", "media").Msg("track release")
			}
		}
		log.Info().Str("module", "media").Int("tracks", len(s.tracks)).Msg("released")
	})
}

// Acquire tries capture combinations in order: audio+video, video-only,
// audio-only. The first combination the provider grants wins. When all fail
// it returns an empty source and core.ErrNoMediaAvailable; the room proceeds
// without local media.
func Acquire(p Provider) (*Source, error) {
	ladder := []struct {
		audio, video bool
	}{
		{audio: true, video: true},
		{audio: false, video: true},
		{audio: true, video: false},
	}

	for _, want := range ladder {
		src, err := attempt(p, want.audio, want.video)
		if err != nil {
			log.Warn().Err(err).
				Str("module", "media").
				Bool("audio", want.audio).
				Bool("video", want.video).
				Msg("capture denied")
			continue
		}
		log.Info().Str("module", "media").Bool("audio", want.audio).Bool("video", want.video).Msg("capture acquired")
		return src, nil
	}
	return &Source{}, core.ErrNoMediaAvailable
}

// attempt opens one combination; a partial grant is rolled back so the
// hardware is not held by a failed combination.
func attempt(p Provider, audio, video bool) (*Source, error) {
	src := &Source{}
	if audio {
		track, closer, err := p.OpenAudio()
		if err != nil {
			src.Release()
			return nil, err
		}
		src.tracks = append(src.tracks, track)
		src.closers = append(src.closers, closer)
	}
	if video {
		track, closer, err := p.OpenVideo()
		if err != nil {
			src.Release()
			return nil, err
		}
		src.tracks = append(src.tracks, track)
		src.closers = append(src.closers, closer)
	}
	return src, nil
}
