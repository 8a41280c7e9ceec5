package app

import (
	"context"
	"sync"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	Conn        core.SignalConnection
	Cancel      context.CancelFunc
	ClientToken string

	// Meeting binding; empty when the connection is not in a meeting.
	Meeting     domain.MeetingCode
	Participant domain.ParticipantID
}

// Registry maps live connections to the meeting membership they carry.
// It is guarded independently of the per-meeting locks and never takes one.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnectionID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.ConnectionID]*connEntry)}
}

// Attach registers a freshly accepted connection.
func (r *Registry) Attach(id core.ConnectionID, conn core.SignalConnection, cancel context.CancelFunc, clientToken string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{Conn: conn, Cancel: cancel, ClientToken: clientToken}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("client", clientToken).Msg("attached connection")
}

// Detach forgets the connection entirely.
func (r *Registry) Detach(id core.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("detached connection")
}

func (r *Registry) Conn(id core.ConnectionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.Conn, true
	}
	return nil, false
}

// Bind ties a connection to one meeting membership.
// A connection resolves to at most one meeting at a time.
func (r *Registry) Bind(id core.ConnectionID, code domain.MeetingCode, pid domain.ParticipantID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return domain.ErrNotMember
	}
	if e.Meeting != "" {
		return domain.ErrAlreadyBound
	}
	e.Meeting = code
	e.Participant = pid
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("meeting", string(code)).Str("participant", string(pid)).Msg("bound connection")
	return nil
}

func (r *Registry) Resolve(id core.ConnectionID) (domain.MeetingCode, domain.ParticipantID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok || e.Meeting == "" {
		return "", "", false
	}
	return e.Meeting, e.Participant, true
}

func (r *Registry) Unbind(id core.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.Meeting = ""
		e.Participant = ""
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("unbound connection")
}

// UnbindIf clears the binding only when it still points at code.
func (r *Registry) UnbindIf(id core.ConnectionID, code domain.MeetingCode) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok || e.Meeting != code {
		return false
	}
	e.Meeting = ""
	e.Participant = ""
	return true
}

// Release resolves and unbinds atomically. Of several concurrent callers
// for the same connection exactly one gets ok == true.
func (r *Registry) Release(id core.ConnectionID) (domain.MeetingCode, domain.ParticipantID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok || e.Meeting == "" {
		return "", "", false
	}
	code, pid := e.Meeting, e.Participant
	e.Meeting = ""
	e.Participant = ""
	return code, pid, true
}

// Cancel stops the connection's pumps; its read loop then reports the disconnect.
func (r *Registry) Cancel(id core.ConnectionID) bool {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("canceled connection")
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
