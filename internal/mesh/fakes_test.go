package mesh_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/mesh"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"
)

type fakePC struct {
	mu       sync.Mutex
	calls    []string
	replaced []string
	hasVideo bool
	closed   bool
}

func (p *fakePC) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *fakePC) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakePC) Replaced() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.replaced...)
}

func (p *fakePC) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePC) CreateOffer(context.Context) (webrtc.SessionDescription, error) {
	p.record("offer")
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "offer"}, nil
}

func (p *fakePC) AcceptOffer(_ context.Context, offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	p.record("accept-offer:" + offer.SDP)
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "answer"}, nil
}

func (p *fakePC) AcceptAnswer(answer webrtc.SessionDescription) error {
	p.record("accept-answer:" + answer.SDP)
	return nil
}

func (p *fakePC) AddICECandidate(c webrtc.ICECandidateInit) error {
	p.record("candidate:" + c.Candidate)
	return nil
}

func (p *fakePC) ReplaceVideo(track webrtc.TrackLocal) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := "none"
	if track != nil {
		id = track.ID()
	}
	p.replaced = append(p.replaced, id)
	renegotiate := track != nil && !p.hasVideo
	if track != nil {
		p.hasVideo = true
	}
	return renegotiate, nil
}

func (p *fakePC) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

type fakeFactory struct {
	mu     sync.Mutex
	pcs    map[domain.ParticipantID][]*fakePC
	events map[domain.ParticipantID]mesh.PeerEvents
	tracks map[domain.ParticipantID][]webrtc.TrackLocal
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		pcs:    map[domain.ParticipantID][]*fakePC{},
		events: map[domain.ParticipantID]mesh.PeerEvents{},
		tracks: map[domain.ParticipantID][]webrtc.TrackLocal{},
	}
}

func (f *fakeFactory) NewPeerConnection(peer domain.ParticipantID, tracks []webrtc.TrackLocal, events mesh.PeerEvents) (mesh.PeerConnection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pc := &fakePC{}
	for _, t := range tracks {
		if t.Kind() == webrtc.RTPCodecTypeVideo {
			pc.hasVideo = true
		}
	}
	f.pcs[peer] = append(f.pcs[peer], pc)
	f.events[peer] = events
	f.tracks[peer] = tracks
	return pc, nil
}

// pc returns the latest transport built for peer, or nil.
func (f *fakeFactory) pc(peer domain.ParticipantID) *fakePC {
	f.mu.Lock()
	defer f.mu.Unlock()
	pcs := f.pcs[peer]
	if len(pcs) == 0 {
		return nil
	}
	return pcs[len(pcs)-1]
}

func (f *fakeFactory) built(peer domain.ParticipantID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pcs[peer])
}

func (f *fakeFactory) emit(peer domain.ParticipantID) mesh.PeerEvents {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[peer]
}

type sent struct {
	kind string
	to   domain.ParticipantID
	sdp  string
}

type recordingSignaler struct {
	mu  sync.Mutex
	out []sent
}

func (s *recordingSignaler) add(m sent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = append(s.out, m)
}

func (s *recordingSignaler) Sent() []sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sent(nil), s.out...)
}

func (s *recordingSignaler) count(kind string) int {
	n := 0
	for _, m := range s.Sent() {
		if m.kind == kind {
			n++
		}
	}
	return n
}

func (s *recordingSignaler) SendOffer(_ context.Context, to domain.ParticipantID, offer webrtc.SessionDescription) error {
	s.add(sent{kind: "offer", to: to, sdp: offer.SDP})
	return nil
}

func (s *recordingSignaler) SendAnswer(_ context.Context, to domain.ParticipantID, answer webrtc.SessionDescription) error {
	s.add(sent{kind: "answer", to: to, sdp: answer.SDP})
	return nil
}

func (s *recordingSignaler) SendCandidate(_ context.Context, to domain.ParticipantID, c webrtc.ICECandidateInit) error {
	s.add(sent{kind: "candidate", to: to, sdp: c.Candidate})
	return nil
}

type recordingObserver struct {
	mu     sync.Mutex
	states []mesh.SessionInfo
}

func (o *recordingObserver) OnSessionState(info mesh.SessionInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, info)
}

func (o *recordingObserver) OnRemoteTrack(domain.ParticipantID, *webrtc.TrackRemote, *webrtc.RTPReceiver) {}

func (o *recordingObserver) sawDegraded(peer domain.ParticipantID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, s := range o.states {
		if s.Peer == peer && s.Degraded {
			return true
		}
	}
	return false
}

func videoTrack(t *testing.T, id string) webrtc.TrackLocal {
	t.Helper()
	track, err := webrtc.NewTrackLocalStaticRTP(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, id, "local")
	require.NoError(t, err)
	return track
}

func audioTrack(t *testing.T, id string) webrtc.TrackLocal {
	t.Helper()
	track, err := webrtc.NewTrackLocalStaticRTP(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, id, "local")
	require.NoError(t, err)
	return track
}

func stateOf(m *mesh.Manager, peer domain.ParticipantID) (mesh.SessionInfo, bool) {
	for _, s := range m.Sessions() {
		if s.Peer == peer {
			return s, true
		}
	}
	return mesh.SessionInfo{}, false
}
