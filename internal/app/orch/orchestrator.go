// Package orch drives one room: it owns the peer sessions, reacts to roster
// and negotiation events from the relay, and republishes observable state to
// the presenter. All room state is mutated from a single event loop, so no
// lock guards it; the loop re-resolves the target session for every event and
// drops events whose session is gone or closed.
package orch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/meshcall/internal/core"
	"github.com/dkeye/meshcall/internal/domain"
)

type rtcEventKind int

const (
	evLocalCandidate rtcEventKind = iota
	evRemoteTrack
	evConnState
)

// rtcEvent is a transport callback re-posted onto the room's event loop.
type rtcEvent struct {
	peer      domain.PeerID
	kind      rtcEventKind
	candidate webrtc.ICECandidateInit
	track     core.RemoteTrack
	state     webrtc.PeerConnectionState
}

// AcquireFunc acquires the local media source on room entry.
type AcquireFunc func() (core.MediaSource, error)

// Orchestrator is the per-room connection orchestrator.
type Orchestrator struct {
	Signal    core.SignalChannel
	Media     core.MediaFactory
	Acquire   AcquireFunc
	Presenter core.Presenter

	mu      sync.Mutex
	entered bool
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}

	// Loop-owned state. Touched only from run() and, before the loop
	// starts, from EnterRoom.
	room   domain.RoomKey
	source core.MediaSource
	peers  map[domain.PeerID]*peerSession
	rtcEv  chan rtcEvent
}

func New(signal core.SignalChannel, media core.MediaFactory, acquire AcquireFunc, presenter core.Presenter) *Orchestrator {
	return &Orchestrator{
		Signal:    signal,
		Media:     media,
		Acquire:   acquire,
		Presenter: presenter,
		peers:     make(map[domain.PeerID]*peerSession),
		rtcEv:     make(chan rtcEvent, 64),
	}
}

// EnterRoom acquires local media, connects the signaling channel and starts
// the event loop. Idempotent. Missing media is a soft condition: the room is
// entered without local tracks. An unreachable relay aborts entry with
// core.ErrSignalingUnavailable.
func (o *Orchestrator) EnterRoom(ctx context.Context, key domain.RoomKey) error {
	o.mu.Lock()
	if o.entered || o.closed {
		o.mu.Unlock()
		return nil
	}
	o.entered = true
	o.mu.Unlock()

	o.room = key

	src, err := o.Acquire()
	if err != nil {
		if !errors.Is(err, core.ErrNoMediaAvailable) && !errors.Is(err, core.ErrMediaUnavailable) {
			log.Error().Err(err).Str("module", "orch").Msg("media acquisition")
		}
		log.Warn().Err(err).Str("module", "orch").Str("room", string(key)).Msg("entering without local media")
	}
	if src == nil {
		src = &emptySource{}
	}
	o.source = src
	o.Presenter.LocalMedia(src.Tracks())

	if err := o.Signal.Connect(ctx, key); err != nil {
		src.Release()
		o.mu.Lock()
		o.entered = false
		o.mu.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	o.mu.Lock()
	if o.closed {
		// Leave won the race against entry; unwind what we set up.
		o.mu.Unlock()
		cancel()
		src.Release()
		o.Signal.Close()
		return nil
	}
	o.cancel = cancel
	o.done = done
	o.mu.Unlock()

	go o.run(runCtx, done)
	log.Info().Str("module", "orch").Str("room", string(key)).Msg("entered room")
	return nil
}

// Leave tears the room down: every peer session is closed, local media is
// released and the signaling channel disconnected. Safe to call repeatedly
// and safe before entry completed.
func (o *Orchestrator) Leave() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	cancel, done := o.cancel, o.done
	o.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (o *Orchestrator) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer o.teardown()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-o.Signal.Events():
			if !ok {
				log.Warn().Str("module", "orch").Str("room", string(o.room)).Msg("signaling channel dropped")
				return
			}
			o.handleSignal(ev)
		case ev := <-o.rtcEv:
			o.handleRTC(ev)
		}
	}
}

func (o *Orchestrator) teardown() {
	for id := range o.peers {
		o.closeSession(id)
	}
	if o.source != nil {
		o.source.Release()
	}
	o.Signal.Close()
	log.Info().Str("module", "orch").Str("room", string(o.room)).Msg("left room")
}

func (o *Orchestrator) handleSignal(ev core.Event) {
	switch ev := ev.(type) {
	case core.RosterSnapshot:
		// We arrived later than everyone in the snapshot, so we open
		// negotiation toward each of them.
		for _, id := range ev.Peers {
			if _, ok := o.peers[id]; ok {
				continue
			}
			o.createSession(id, domain.RoleInitiator)
		}

	case core.PeerJoined:
		// A live session for a joining id means the peer reconnected while
		// the old session lingered: close-then-recreate.
		if old, ok := o.peers[ev.ID]; ok {
			log.Warn().Str("module", "orch").Str("peer", string(ev.ID)).Str("state", old.state.String()).Msg("rejoin, replacing session")
			o.closeSession(ev.ID)
		}
		o.createSession(ev.ID, domain.RoleResponder)

	case core.PeerLeft:
		o.closeSession(ev.ID)

	case core.OfferReceived:
		o.handleOffer(ev)

	case core.AnswerReceived:
		o.handleAnswer(ev)

	case core.CandidateReceived:
		o.handleCandidate(ev)

	case core.RoomSize:
		// Authoritative count from the relay, republished verbatim.
		o.Presenter.RoomSize(ev.Count)
	}
}

// createSession builds the media connection, attaches local tracks and, for
// the initiator role, opens negotiation. Returns nil when the connection
// factory fails; that peer is simply absent until a new join or offer event.
func (o *Orchestrator) createSession(id domain.PeerID, role domain.Role) *peerSession {
	mc, err := o.Media(id)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("peer", string(id)).Msg("media connection factory")
		return nil
	}

	s := &peerSession{id: id, role: role, state: stateNew, mc: mc}
	o.peers[id] = s

	mc.OnICECandidate(func(ci webrtc.ICECandidateInit) {
		o.postRTC(rtcEvent{peer: id, kind: evLocalCandidate, candidate: ci})
	})
	mc.OnTrack(func(track core.RemoteTrack) {
		o.postRTC(rtcEvent{peer: id, kind: evRemoteTrack, track: track})
	})
	mc.OnConnectionStateChange(func(st webrtc.PeerConnectionState) {
		o.postRTC(rtcEvent{peer: id, kind: evConnState, state: st})
	})

	for _, track := range o.localTracks() {
		if err := mc.AddTrack(track); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("peer", string(id)).Msg("attach local track")
		}
	}

	log.Info().Str("module", "orch").Str("peer", string(id)).Str("role", role.String()).Msg("session created")

	if role == domain.RoleInitiator {
		offer, err := mc.CreateOffer()
		if err != nil {
			o.failSession(id, err)
			return nil
		}
		s.state = stateHaveLocalOffer
		if err := o.Signal.SendOffer(id, offer); err != nil {
			log.Error().Err(err).Str("module", "orch").Str("peer", string(id)).Msg("send offer")
		}
	}
	return s
}

func (o *Orchestrator) handleOffer(ev core.OfferReceived) {
	s, ok := o.peers[ev.From]
	if !ok {
		// An offer may race ahead of the joined notification; create the
		// session on demand.
		s = o.createSession(ev.From, domain.RoleResponder)
		if s == nil {
			return
		}
	}
	if s.state != stateNew {
		log.Debug().Err(core.ErrStaleMessage).Str("module", "orch").Str("peer", string(ev.From)).Str("state", s.state.String()).Msg("offer ignored")
		return
	}

	answer, err := s.mc.CreateAnswer(ev.SDP)
	if err != nil {
		o.failSession(ev.From, err)
		return
	}
	s.remoteSet = true
	s.state = stateHaveRemoteOffer
	o.flushCandidates(s)

	if err := o.Signal.SendAnswer(ev.From, answer); err != nil {
		log.Error().Err(err).Str("module", "orch").Str("peer", string(ev.From)).Msg("send answer")
	}
}

func (o *Orchestrator) handleAnswer(ev core.AnswerReceived) {
	s, ok := o.peers[ev.From]
	if !ok || s.state != stateHaveLocalOffer {
		log.Debug().Err(core.ErrStaleMessage).Str("module", "orch").Str("peer", string(ev.From)).Msg("answer ignored")
		return
	}
	if err := s.mc.ApplyAnswer(ev.SDP); err != nil {
		o.failSession(ev.From, err)
		return
	}
	s.remoteSet = true
	o.flushCandidates(s)
}

func (o *Orchestrator) handleCandidate(ev core.CandidateReceived) {
	s, ok := o.peers[ev.From]
	if !ok {
		log.Debug().Err(core.ErrStaleMessage).Str("module", "orch").Str("peer", string(ev.From)).Msg("candidate for unknown peer ignored")
		return
	}
	if !s.remoteSet {
		s.pending = append(s.pending, ev.Candidate)
		return
	}
	if err := s.mc.AddICECandidate(ev.Candidate); err != nil {
		// A malformed candidate fails alone; the session carries on.
		log.Warn().Err(err).Str("module", "orch").Str("peer", string(ev.From)).Msg("candidate rejected")
	}
}

// flushCandidates applies candidates buffered before the remote description
// arrived, in arrival order.
func (o *Orchestrator) flushCandidates(s *peerSession) {
	for _, ci := range s.pending {
		if err := s.mc.AddICECandidate(ci); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("peer", string(s.id)).Msg("buffered candidate rejected")
		}
	}
	s.pending = nil
}

func (o *Orchestrator) handleRTC(ev rtcEvent) {
	s, ok := o.peers[ev.peer]
	if !ok || s.state == stateClosed {
		// Stale resumption: the session closed while the callback was in
		// flight.
		return
	}

	switch ev.kind {
	case evLocalCandidate:
		if err := o.Signal.SendCandidate(ev.peer, ev.candidate); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("peer", string(ev.peer)).Msg("send candidate")
		}

	case evRemoteTrack:
		o.Presenter.RemoteMedia(ev.peer, s.addRemoteTrack(ev.track))

	case evConnState:
		o.Presenter.PeerConnectivity(ev.peer, ev.state)
		switch ev.state {
		case webrtc.PeerConnectionStateConnected:
			if s.state == stateHaveLocalOffer || s.state == stateHaveRemoteOffer {
				s.state = stateConnected
			}
		case webrtc.PeerConnectionStateFailed:
			o.failSession(ev.peer, errors.New("transport failed"))
		}
	}
}

// failSession drops one broken peer; the rest of the room is unaffected.
func (o *Orchestrator) failSession(id domain.PeerID, cause error) {
	err := fmt.Errorf("%w: %v", core.ErrNegotiationFailed, cause)
	log.Error().Err(err).Str("module", "orch").Str("peer", string(id)).Msg("dropping peer")
	o.closeSession(id)
}

func (o *Orchestrator) closeSession(id domain.PeerID) {
	s, ok := o.peers[id]
	if !ok {
		return
	}
	s.close()
	delete(o.peers, id)
	o.Presenter.RemoteMedia(id, nil)
	log.Info().Str("module", "orch").Str("peer", string(id)).Msg("session closed")
}

func (o *Orchestrator) localTracks() []webrtc.TrackLocal {
	if o.source == nil {
		return nil
	}
	return o.source.Tracks()
}

// postRTC hands a transport callback to the event loop. Callbacks fire on
// pion goroutines; if the loop is gone the event is dropped rather than
// applied to torn-down state.
func (o *Orchestrator) postRTC(ev rtcEvent) {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done == nil {
		return
	}
	select {
	case o.rtcEv <- ev:
	case <-done:
	}
}

type emptySource struct{}

func (*emptySource) Tracks() []webrtc.TrackLocal { return nil }
func (*emptySource) Release()                    {}
