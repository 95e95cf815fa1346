package orch

import (
	"context"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/dkeye/meshcall/internal/core"
	"github.com/dkeye/meshcall/internal/domain"
)

type sentSDP struct {
	to  domain.PeerID
	sdp webrtc.SessionDescription
}

type sentCandidate struct {
	to   domain.PeerID
	cand webrtc.ICECandidateInit
}

type fakeSignal struct {
	mu         sync.Mutex
	connectErr error
	connected  bool
	room       domain.RoomKey
	events     chan core.Event
	offers     []sentSDP
	answers    []sentSDP
	candidates []sentCandidate
	closed     int
}

func newFakeSignal() *fakeSignal {
	return &fakeSignal{events: make(chan core.Event, 16)}
}

func (f *fakeSignal) Connect(_ context.Context, room domain.RoomKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	f.room = room
	return nil
}

func (f *fakeSignal) SendOffer(target domain.PeerID, sdp webrtc.SessionDescription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offers = append(f.offers, sentSDP{to: target, sdp: sdp})
	return nil
}

func (f *fakeSignal) SendAnswer(target domain.PeerID, sdp webrtc.SessionDescription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, sentSDP{to: target, sdp: sdp})
	return nil
}

func (f *fakeSignal) SendCandidate(target domain.PeerID, cand webrtc.ICECandidateInit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidates = append(f.candidates, sentCandidate{to: target, cand: cand})
	return nil
}

func (f *fakeSignal) Events() <-chan core.Event { return f.events }

func (f *fakeSignal) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
}

func (f *fakeSignal) sentOffers() []sentSDP {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentSDP(nil), f.offers...)
}

func (f *fakeSignal) sentAnswers() []sentSDP {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentSDP(nil), f.answers...)
}

func (f *fakeSignal) sentCandidates() []sentCandidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentCandidate(nil), f.candidates...)
}

func (f *fakeSignal) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeMedia struct {
	peer domain.PeerID

	offerErr  error
	answerErr error
	applyErr  error
	candErr   error

	tracks     []webrtc.TrackLocal
	remote     *webrtc.SessionDescription
	applied    []webrtc.ICECandidateInit
	closed     bool
	closeCount int

	onICE   func(webrtc.ICECandidateInit)
	onTrack func(core.RemoteTrack)
	onState func(webrtc.PeerConnectionState)
}

func (f *fakeMedia) CreateOffer() (webrtc.SessionDescription, error) {
	if f.offerErr != nil {
		return webrtc.SessionDescription{}, f.offerErr
	}
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "offer-to-" + string(f.peer)}, nil
}

func (f *fakeMedia) CreateAnswer(offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	if f.answerErr != nil {
		return webrtc.SessionDescription{}, f.answerErr
	}
	f.remote = &offer
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "answer-to-" + string(f.peer)}, nil
}

func (f *fakeMedia) ApplyAnswer(answer webrtc.SessionDescription) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.remote = &answer
	return nil
}

func (f *fakeMedia) AddICECandidate(ci webrtc.ICECandidateInit) error {
	if f.candErr != nil {
		return f.candErr
	}
	f.applied = append(f.applied, ci)
	return nil
}

func (f *fakeMedia) AddTrack(track webrtc.TrackLocal) error {
	f.tracks = append(f.tracks, track)
	return nil
}

func (f *fakeMedia) OnICECandidate(fn func(webrtc.ICECandidateInit))           { f.onICE = fn }
func (f *fakeMedia) OnTrack(fn func(core.RemoteTrack))                         { f.onTrack = fn }
func (f *fakeMedia) OnConnectionStateChange(fn func(webrtc.PeerConnectionState)) { f.onState = fn }

func (f *fakeMedia) Close() {
	f.closed = true
	f.closeCount++
}

type fakeTrack struct {
	id     string
	stream string
	kind   webrtc.RTPCodecType
}

func (t fakeTrack) ID() string                { return t.id }
func (t fakeTrack) StreamID() string          { return t.stream }
func (t fakeTrack) Kind() webrtc.RTPCodecType { return t.kind }

type fakeSource struct {
	tracks   []webrtc.TrackLocal
	released int
}

func (f *fakeSource) Tracks() []webrtc.TrackLocal { return f.tracks }
func (f *fakeSource) Release()                    { f.released++ }

type fakePresenter struct {
	mu      sync.Mutex
	sizes   []int
	local   [][]webrtc.TrackLocal
	remote  map[domain.PeerID]*core.RemoteStream
	states  map[domain.PeerID]webrtc.PeerConnectionState
	removed []domain.PeerID
}

func newFakePresenter() *fakePresenter {
	return &fakePresenter{
		remote: make(map[domain.PeerID]*core.RemoteStream),
		states: make(map[domain.PeerID]webrtc.PeerConnectionState),
	}
}

func (p *fakePresenter) RoomSize(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sizes = append(p.sizes, n)
}

func (p *fakePresenter) LocalMedia(tracks []webrtc.TrackLocal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.local = append(p.local, tracks)
}

func (p *fakePresenter) RemoteMedia(id domain.PeerID, stream *core.RemoteStream) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if stream == nil {
		delete(p.remote, id)
		p.removed = append(p.removed, id)
		return
	}
	p.remote[id] = stream
}

func (p *fakePresenter) PeerConnectivity(id domain.PeerID, state webrtc.PeerConnectionState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states[id] = state
}

func (p *fakePresenter) remoteOf(id domain.PeerID) *core.RemoteStream {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remote[id]
}

// testHarness wires an orchestrator with fakes, without running the event
// loop: tests drive handleSignal/handleRTC directly, mirroring the
// single-threaded execution model of the loop.
type testHarness struct {
	o      *Orchestrator
	signal *fakeSignal
	pres   *fakePresenter
	source *fakeSource
	media  map[domain.PeerID]*fakeMedia
}

func newHarness() *testHarness {
	h := &testHarness{
		signal: newFakeSignal(),
		pres:   newFakePresenter(),
		source: &fakeSource{},
		media:  make(map[domain.PeerID]*fakeMedia),
	}
	factory := func(id domain.PeerID) (core.MediaConnection, error) {
		m := &fakeMedia{peer: id}
		h.media[id] = m
		return m, nil
	}
	h.o = New(h.signal, factory, func() (core.MediaSource, error) { return h.source, nil }, h.pres)
	h.o.source = h.source
	return h
}
