// Package rtc adapts a pion PeerConnection to core.MediaConnection.
package rtc

import (
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/meshcall/internal/core"
	"github.com/dkeye/meshcall/internal/domain"
)

// Connection wraps one pion PeerConnection toward a single remote peer.
type Connection struct {
	pc   *webrtc.PeerConnection
	peer domain.PeerID

	closeOnce sync.Once
}

// Config builds a webrtc configuration from STUN/TURN urls, falling back to
// the public google STUN server when none are given.
func Config(iceServers []string) webrtc.Configuration {
	if len(iceServers) == 0 {
		iceServers = []string{"stun:stun.l.google.com:19302"}
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: iceServers}},
	}
}

func New(cfg webrtc.Configuration, peer domain.PeerID) (*Connection, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	return &Connection{pc: pc, peer: peer}, nil
}

// Factory returns a core.MediaFactory bound to one ICE configuration.
func Factory(cfg webrtc.Configuration) core.MediaFactory {
	return func(peer domain.PeerID) (core.MediaConnection, error) {
		return New(cfg, peer)
	}
}

func (c *Connection) CreateOffer() (webrtc.SessionDescription, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	// Trickle ICE: candidates flow through OnICECandidate, no need to wait
	// for gathering before shipping the description.
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	return offer, nil
}

func (c *Connection) CreateAnswer(offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	if err := c.pc.SetRemoteDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := c.pc.SetLocalDescription(answer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	return answer, nil
}

func (c *Connection) ApplyAnswer(answer webrtc.SessionDescription) error {
	return c.pc.SetRemoteDescription(answer)
}

func (c *Connection) AddICECandidate(ci webrtc.ICECandidateInit) error {
	return c.pc.AddICECandidate(ci)
}

func (c *Connection) AddTrack(track webrtc.TrackLocal) error {
	_, err := c.pc.AddTrack(track)
	return err
}

func (c *Connection) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand != nil {
			fn(cand.ToJSON())
		}
	})
}

func (c *Connection) OnTrack(fn func(core.RemoteTrack)) {
	c.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		log.Info().
			Str("module", "rtc").
			Str("peer", string(c.peer)).
			Str("kind", track.Kind().String()).
			Str("stream_id", track.StreamID()).
			Msg("remote track")
		fn(track)
	})
}

func (c *Connection) OnConnectionStateChange(fn func(webrtc.PeerConnectionState)) {
	c.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "rtc").Str("peer", string(c.peer)).Str("state", s.String()).Msg("peer state")
		fn(s)
	})
}

func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		if err := c.pc.Close(); err != nil {
			log.Error().Err(err).Str("module", "rtc").Str("peer", string(c.peer)).Msg("close error")
			return
		}
		log.Info().Str("module", "rtc").Str("peer", string(c.peer)).Msg("closed")
	})
}
