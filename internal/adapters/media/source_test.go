package media

import (
	"errors"
	"io"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/meshcall/internal/core"
)

// countingProvider wraps StaticProvider and counts how many grants were
// released, so rollback of partial grants is observable.
type countingProvider struct {
	audio, video bool
	audioOpens   int
	videoOpens   int
	closed       int
}

type countCloser struct{ p *countingProvider }

func (c countCloser) Close() error {
	c.p.closed++
	return nil
}

func (p *countingProvider) OpenAudio() (webrtc.TrackLocal, io.Closer, error) {
	if !p.audio {
		return nil, nil, ErrAudioDisabled
	}
	p.audioOpens++
	track, _, err := (&StaticProvider{Audio: true}).OpenAudio()
	if err != nil {
		return nil, nil, err
	}
	return track, countCloser{p}, nil
}

func (p *countingProvider) OpenVideo() (webrtc.TrackLocal, io.Closer, error) {
	if !p.video {
		return nil, nil, ErrVideoDisabled
	}
	p.videoOpens++
	track, _, err := (&StaticProvider{Video: true}).OpenVideo()
	if err != nil {
		return nil, nil, err
	}
	return track, countCloser{p}, nil
}

func TestAcquireFullGrant(t *testing.T) {
	p := &countingProvider{audio: true, video: true}

	src, err := Acquire(p)

	require.NoError(t, err)
	assert.Len(t, src.Tracks(), 2)
	assert.Equal(t, 1, p.audioOpens)
	assert.Equal(t, 1, p.videoOpens)
}

func TestAcquireFallsBackToVideoOnly(t *testing.T) {
	p := &countingProvider{audio: false, video: true}

	src, err := Acquire(p)

	require.NoError(t, err)
	require.Len(t, src.Tracks(), 1)
	assert.Equal(t, webrtc.RTPCodecTypeVideo, src.Tracks()[0].Kind())
}

func TestAcquireFallsBackToAudioOnly(t *testing.T) {
	p := &countingProvider{audio: true, video: false}

	src, err := Acquire(p)

	require.NoError(t, err)
	require.Len(t, src.Tracks(), 1)
	assert.Equal(t, webrtc.RTPCodecTypeAudio, src.Tracks()[0].Kind())
	// The audio+video attempt granted audio before video was denied; that
	// grant must have been rolled back before the next rung.
	assert.Equal(t, 2, p.audioOpens)
	assert.Equal(t, 1, p.closed)
}

func TestAcquireNothingAvailable(t *testing.T) {
	p := &countingProvider{}

	src, err := Acquire(p)

	require.ErrorIs(t, err, core.ErrNoMediaAvailable)
	require.NotNil(t, src)
	assert.Empty(t, src.Tracks())
}

func TestReleaseClosesOnce(t *testing.T) {
	p := &countingProvider{audio: true, video: true}
	src, err := Acquire(p)
	require.NoError(t, err)

	src.Release()
	src.Release()

	assert.Equal(t, 2, p.closed)
}

func TestReleaseOnEmptySource(t *testing.T) {
	assert.NotPanics(t, func() {
		(&Source{}).Release()
	})
}

func TestStaticProviderStreamID(t *testing.T) {
	p := &StaticProvider{Audio: true, Video: true, StreamID: "call-1"}

	audio, _, err := p.OpenAudio()
	require.NoError(t, err)
	video, _, err := p.OpenVideo()
	require.NoError(t, err)

	assert.Equal(t, "call-1", audio.StreamID())
	assert.Equal(t, "call-1", video.StreamID())

	deflt := &StaticProvider{Audio: true}
	track, _, err := deflt.OpenAudio()
	require.NoError(t, err)
	assert.Equal(t, "meshcall", track.StreamID())
}

func TestStaticProviderDenied(t *testing.T) {
	p := &StaticProvider{}

	_, _, err := p.OpenAudio()
	assert.True(t, errors.Is(err, ErrAudioDisabled))
	_, _, err = p.OpenVideo()
	assert.True(t, errors.Is(err, ErrVideoDisabled))
}
