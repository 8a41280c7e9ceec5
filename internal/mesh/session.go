package mesh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

type pendingCandidate struct {
	candidate webrtc.ICECandidateInit
	at        time.Time
}

// session is the negotiation state machine for one remote participant. All
// fields below the queue are touched only from the session goroutine.
type session struct {
	peer   domain.ParticipantID
	m      *Manager
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	queue  *opQueue
	done   chan struct{}

	pc        PeerConnection
	gen       int
	remoteSet bool
	connected bool
	pending   []pendingCandidate
	timer     *time.Timer
	armed     int

	mu        sync.Mutex
	state     State
	degraded  bool
	initiator bool
}

func newSession(m *Manager, peer domain.ParticipantID, initiator bool) *session {
	ctx, cancel := context.WithCancel(m.ctx)
	return &session{
		peer:      peer,
		m:         m,
		logger:    m.logger.With().Str("peer", string(peer)).Logger(),
		ctx:       ctx,
		cancel:    cancel,
		queue:     newOpQueue(),
		done:      make(chan struct{}),
		state:     StateIdle,
		initiator: initiator,
	}
}

func (s *session) loop() {
	defer close(s.done)
	s.queue.run()
}

func (s *session) info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{Peer: s.peer, State: s.state, Degraded: s.degraded, Initiator: s.initiator}
}

func (s *session) current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *session) isDegraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *session) setState(st State) {
	s.mu.Lock()
	if st == StateConnected {
		s.degraded = false
	}
	changed := s.state != st
	s.state = st
	s.mu.Unlock()
	if changed {
		s.logger.Debug().Str("state", string(st)).Msg("session state")
		s.m.observer.OnSessionState(s.info())
	}
}

func (s *session) fail(err error) {
	s.logger.Warn().Err(err).Msg("session degraded")
	s.mu.Lock()
	already := s.degraded
	s.degraded = true
	s.mu.Unlock()
	if !already {
		s.m.observer.OnSessionState(s.info())
	}
}

// rebuild replaces the transport, discarding any negotiation progress.
func (s *session) rebuild() error {
	if s.pc != nil {
		if err := s.pc.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("close previous peer connection")
		}
		s.pc = nil
	}
	s.gen++
	s.remoteSet = false
	s.connected = false
	s.pending = nil

	gen := s.gen
	pc, err := s.m.factory.NewPeerConnection(s.peer, s.m.outgoing(), PeerEvents{
		OnCandidate: func(c webrtc.ICECandidateInit) {
			s.queue.push(func() { s.sendCandidate(gen, c) })
		},
		OnConnectionState: func(st webrtc.PeerConnectionState) {
			s.queue.push(func() { s.onConnectionState(gen, st) })
		},
		OnTrack: func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
			s.m.observer.OnRemoteTrack(s.peer, track, receiver)
		},
	})
	if err != nil {
		return fmt.Errorf("new peer connection: %w", err)
	}
	s.pc = pc
	s.mu.Lock()
	s.degraded = false
	s.state = StateIdle
	s.mu.Unlock()
	s.m.observer.OnSessionState(s.info())
	s.armTimer()
	return nil
}

// armTimer starts the negotiation deadline over. Only the latest deadline
// counts.
func (s *session) armTimer() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.armed++
	armed := s.armed
	s.timer = time.AfterFunc(s.m.cfg.NegotiationTimeout, func() {
		s.queue.push(func() { s.onTimeout(armed) })
	})
}

func (s *session) start(initiator bool) {
	if err := s.rebuild(); err != nil {
		s.fail(err)
		return
	}
	if initiator {
		s.offer()
	}
}

func (s *session) offer() {
	if s.pc == nil {
		return
	}
	desc, err := s.pc.CreateOffer(s.ctx)
	if err != nil {
		s.fail(fmt.Errorf("create offer: %w", err))
		return
	}
	s.setState(StateOffering)
	s.armTimer()
	if err := s.m.signaler.SendOffer(s.ctx, s.peer, desc); err != nil {
		s.fail(fmt.Errorf("send offer: %w", err))
	}
}

func (s *session) onOffer(desc webrtc.SessionDescription) {
	if s.pc == nil || s.isDegraded() {
		if err := s.rebuild(); err != nil {
			s.fail(err)
			return
		}
	}
	s.mu.Lock()
	offering, initiator := s.state == StateOffering, s.initiator
	s.mu.Unlock()
	if offering && initiator {
		s.logger.Debug().Msg("ignoring remote offer while our offer is pending")
		return
	}
	if offering {
		// A pending local offer cannot be rolled back, so the transport
		// starts over and answers.
		s.logger.Debug().Msg("remote offer collided with ours, answering on a new transport")
		if err := s.rebuild(); err != nil {
			s.fail(err)
			return
		}
	}

	s.setState(StateOfferReceived)
	answer, err := s.pc.AcceptOffer(s.ctx, desc)
	if err != nil {
		s.fail(fmt.Errorf("accept offer: %w", err))
		return
	}
	s.remoteSet = true
	s.flushPending()

	s.setState(StateAnswering)
	if err := s.m.signaler.SendAnswer(s.ctx, s.peer, answer); err != nil {
		s.fail(fmt.Errorf("send answer: %w", err))
		return
	}
	if s.connected {
		s.setState(StateConnected)
	}
}

func (s *session) onAnswer(desc webrtc.SessionDescription) {
	if s.pc == nil || s.current() != StateOffering {
		s.logger.Debug().Msg("answer without pending offer dropped")
		return
	}
	if err := s.pc.AcceptAnswer(desc); err != nil {
		s.fail(fmt.Errorf("accept answer: %w", err))
		return
	}
	s.remoteSet = true
	s.flushPending()
	if s.connected {
		s.setState(StateConnected)
		return
	}
	s.setState(StateAnswered)
}

func (s *session) onCandidate(c pendingCandidate) {
	if s.pc == nil {
		return
	}
	if !s.remoteSet {
		if len(s.pending) >= s.m.cfg.MaxPendingCandidates {
			s.pending = s.pending[1:]
		}
		s.pending = append(s.pending, c)
		return
	}
	if err := s.pc.AddICECandidate(c.candidate); err != nil {
		s.logger.Warn().Err(err).Msg("add ICE candidate")
	}
}

func (s *session) flushPending() {
	cutoff := s.m.now().Add(-s.m.cfg.PendingCandidateTTL)
	pending := s.pending
	s.pending = nil
	for _, c := range pending {
		if c.at.Before(cutoff) {
			continue
		}
		if err := s.pc.AddICECandidate(c.candidate); err != nil {
			s.logger.Warn().Err(err).Msg("add buffered ICE candidate")
		}
	}
}

func (s *session) sendCandidate(gen int, c webrtc.ICECandidateInit) {
	if gen != s.gen {
		return
	}
	if err := s.m.signaler.SendCandidate(s.ctx, s.peer, c); err != nil {
		s.logger.Warn().Err(err).Msg("send ICE candidate")
	}
}

func (s *session) onConnectionState(gen int, st webrtc.PeerConnectionState) {
	if gen != s.gen {
		return
	}
	s.logger.Debug().Str("peer_connection_state", st.String()).Msg("peer state")
	switch st {
	case webrtc.PeerConnectionStateConnected:
		s.connected = true
		if s.timer != nil {
			s.timer.Stop()
		}
		s.setState(StateConnected)
	case webrtc.PeerConnectionStateDisconnected:
		s.connected = false
	case webrtc.PeerConnectionStateFailed:
		s.connected = false
		s.fail(fmt.Errorf("transport failed"))
	default:
	}
}

func (s *session) onTimeout(armed int) {
	if armed != s.armed || s.current() == StateConnected {
		return
	}
	s.fail(ErrNegotiationTimeout)
}

func (s *session) replaceVideo(track webrtc.TrackLocal) error {
	if s.pc == nil {
		return ErrSessionClosed
	}
	renegotiate, err := s.pc.ReplaceVideo(track)
	if err != nil {
		return err
	}
	if renegotiate {
		s.offer()
	}
	return nil
}

// retry starts over with a fresh transport. Only degraded sessions retry.
func (s *session) retry() {
	if !s.isDegraded() {
		return
	}
	s.logger.Info().Msg("retrying negotiation")
	if err := s.rebuild(); err != nil {
		s.fail(err)
		return
	}
	s.offer()
}

// shutdown stops the session goroutine and releases the transport. It must
// not be called from the session goroutine.
func (s *session) shutdown() {
	s.cancel()
	s.queue.close()
	<-s.done
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.pc != nil {
		if err := s.pc.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("close peer connection")
		}
		s.pc = nil
	}
	s.setState(StateClosed)
}
