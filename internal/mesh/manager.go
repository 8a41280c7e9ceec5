package mesh

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc"
)

// Manager owns one negotiation session per remote participant. Operations on
// the same peer run in the order they were submitted; different peers never
// wait on each other.
type Manager struct {
	cfg      Config
	factory  PeerConnectionFactory
	signaler Signaler
	media    LocalMedia
	observer Observer
	logger   zerolog.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup

	mu       sync.Mutex
	sessions map[domain.ParticipantID]*session
	orphans  map[domain.ParticipantID][]pendingCandidate
	tracks   []webrtc.TrackLocal
	closed   bool

	// replaceMu serializes ReplaceOutgoingVideo calls.
	replaceMu sync.Mutex
}

// NewManager acquires local media once. When capture is unavailable the
// manager runs media-less and still negotiates with every peer. media and
// observer may be nil.
func NewManager(factory PeerConnectionFactory, signaler Signaler, media LocalMedia, observer Observer, logger zerolog.Logger, cfg Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	if observer == nil {
		observer = nopObserver{}
	}
	m := &Manager{
		cfg:      cfg,
		factory:  factory,
		signaler: signaler,
		media:    media,
		observer: observer,
		logger:   logger.With().Str("module", "mesh").Logger(),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[domain.ParticipantID]*session),
		orphans:  make(map[domain.ParticipantID][]pendingCandidate),
	}
	if media != nil {
		tracks, err := media.Tracks()
		switch {
		case errors.Is(err, ErrMediaUnavailable):
			m.logger.Warn().Err(err).Msg("joining without local media")
		case err != nil:
			m.logger.Error().Err(err).Msg("local media failed, joining without it")
		default:
			m.tracks = tracks
		}
	}
	return m
}

func (m *Manager) outgoing() []webrtc.TrackLocal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]webrtc.TrackLocal(nil), m.tracks...)
}

// ensure returns the session for peer, creating and starting it if needed.
// first runs right after the transport is created and before any candidates
// that were buffered for the peer.
func (m *Manager) ensure(peer domain.ParticipantID, initiator bool, first func(*session)) (*session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false
	}
	if s, ok := m.sessions[peer]; ok {
		return s, false
	}

	s := newSession(m, peer, initiator)
	m.sessions[peer] = s
	m.wg.Go(s.loop)

	s.queue.push(func() { s.start(initiator) })
	if first != nil {
		s.queue.push(func() { first(s) })
	}
	orphans := m.takeOrphansLocked(peer)
	if len(orphans) > 0 {
		s.queue.push(func() {
			for _, c := range orphans {
				s.onCandidate(c)
			}
		})
	}
	return s, true
}

func (m *Manager) session(peer domain.ParticipantID) (*session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[peer]
	return s, ok
}

// OnPeerAppeared starts a session. The initiator offers immediately.
func (m *Manager) OnPeerAppeared(peer domain.ParticipantID, isInitiator bool) {
	if _, created := m.ensure(peer, isInitiator, nil); !created {
		m.logger.Debug().Str("peer", string(peer)).Msg("peer already known")
	}
}

// OnRemoteOffer creates the session when the offer arrives first.
func (m *Manager) OnRemoteOffer(peer domain.ParticipantID, offer webrtc.SessionDescription) {
	apply := func(s *session) { s.onOffer(offer) }
	s, created := m.ensure(peer, false, apply)
	if s == nil || created {
		return
	}
	s.queue.push(func() { apply(s) })
}

func (m *Manager) OnRemoteAnswer(peer domain.ParticipantID, answer webrtc.SessionDescription) {
	s, ok := m.session(peer)
	if !ok {
		m.logger.Debug().Str("peer", string(peer)).Msg("answer for unknown peer dropped")
		return
	}
	s.queue.push(func() { s.onAnswer(answer) })
}

// OnRemoteCandidate applies a candidate in order with the peer's other
// messages, or keeps it for a short while if the session does not exist yet.
func (m *Manager) OnRemoteCandidate(peer domain.ParticipantID, candidate webrtc.ICECandidateInit) {
	c := pendingCandidate{candidate: candidate, at: m.now()}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if s, ok := m.sessions[peer]; ok {
		s.queue.push(func() { s.onCandidate(c) })
		return
	}
	m.pruneOrphansLocked()
	buf := m.orphans[peer]
	if len(buf) >= m.cfg.MaxPendingCandidates {
		buf = buf[1:]
	}
	m.orphans[peer] = append(buf, c)
}

func (m *Manager) pruneOrphansLocked() {
	cutoff := m.now().Add(-m.cfg.PendingCandidateTTL)
	for peer, buf := range m.orphans {
		fresh := lo.Filter(buf, func(c pendingCandidate, _ int) bool { return !c.at.Before(cutoff) })
		if len(fresh) == 0 {
			delete(m.orphans, peer)
			continue
		}
		m.orphans[peer] = fresh
	}
}

func (m *Manager) takeOrphansLocked(peer domain.ParticipantID) []pendingCandidate {
	m.pruneOrphansLocked()
	buf := m.orphans[peer]
	delete(m.orphans, peer)
	return buf
}

// OnPeerLeft is the only way a session is removed.
func (m *Manager) OnPeerLeft(peer domain.ParticipantID) {
	m.mu.Lock()
	s, ok := m.sessions[peer]
	delete(m.sessions, peer)
	delete(m.orphans, peer)
	m.mu.Unlock()
	if !ok {
		return
	}
	s.shutdown()
	m.logger.Info().Str("peer", string(peer)).Msg("session closed")
}

// Retry restarts negotiation with a degraded peer.
func (m *Manager) Retry(peer domain.ParticipantID) error {
	s, ok := m.session(peer)
	if !ok {
		return fmt.Errorf("retry %s: %w", peer, ErrSessionClosed)
	}
	s.queue.push(s.retry)
	return nil
}

// ReplaceOutgoingVideo swaps the outgoing video on every session and waits
// for all of them. Calls are applied one at a time in call order. A nil
// track stops sending video.
func (m *Manager) ReplaceOutgoingVideo(ctx context.Context, track webrtc.TrackLocal) error {
	m.replaceMu.Lock()
	defer m.replaceMu.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	m.tracks = withVideo(m.tracks, track)
	sessions := lo.Values(m.sessions)
	m.mu.Unlock()

	type pending struct {
		s      *session
		result chan error
	}
	waits := make([]pending, 0, len(sessions))
	for _, s := range sessions {
		s := s // per-iteration copy: go.mod targets go1.21 loop semantics
		result := make(chan error, 1)
		if s.queue.push(func() { result <- s.replaceVideo(track) }) {
			waits = append(waits, pending{s: s, result: result})
		}
	}

	var errs []error
	for _, w := range waits {
		select {
		case err := <-w.result:
			if err != nil {
				errs = append(errs, fmt.Errorf("peer %s: %w", w.s.peer, err))
			}
		case <-w.s.done:
		case <-ctx.Done():
			return errors.Join(append(errs, ctx.Err())...)
		}
	}
	return errors.Join(errs...)
}

func withVideo(tracks []webrtc.TrackLocal, video webrtc.TrackLocal) []webrtc.TrackLocal {
	out := lo.Reject(tracks, func(t webrtc.TrackLocal, _ int) bool {
		return t.Kind() == webrtc.RTPCodecTypeVideo
	})
	if video != nil {
		out = append(out, video)
	}
	return out
}

// Sessions returns a snapshot ordered by peer id.
func (m *Manager) Sessions() []SessionInfo {
	m.mu.Lock()
	sessions := lo.Values(m.sessions)
	m.mu.Unlock()

	out := lo.Map(sessions, func(s *session, _ int) SessionInfo { return s.info() })
	sort.Slice(out, func(i, j int) bool { return out[i].Peer < out[j].Peer })
	return out
}

// Close tears down every session and stops local media. When it returns no
// media flows to any peer.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	sessions := lo.Values(m.sessions)
	m.sessions = make(map[domain.ParticipantID]*session)
	m.orphans = make(map[domain.ParticipantID][]pendingCandidate)
	m.mu.Unlock()

	var wg conc.WaitGroup
	for _, s := range sessions {
		wg.Go(s.shutdown)
	}
	wg.Wait()

	if m.media != nil {
		m.media.Stop()
	}
	m.cancel()
	m.wg.Wait()
	m.logger.Info().Int("sessions", len(sessions)).Msg("mesh closed")
}

type nopObserver struct{}

func (nopObserver) OnSessionState(SessionInfo) {}
func (nopObserver) OnRemoteTrack(domain.ParticipantID, *webrtc.TrackRemote, *webrtc.RTPReceiver) {
}
