package app

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

const maxCodeAttempts = 16

type meetingEntry struct {
	mu      sync.Mutex
	meeting domain.Meeting
	roster  *core.Roster
	closed  bool
}

// MeetingTx is the view handed to MeetingStore.Update callbacks.
// It is only valid inside the callback.
type MeetingTx struct {
	Meeting *domain.Meeting
	Roster  *core.Roster
	ended   bool
}

// End deletes the meeting once the callback returns, even if members remain.
func (tx *MeetingTx) End() { tx.ended = true }

type StoreOption func(*MeetingStore)

func WithCodeGenerator(gen domain.CodeGenerator) StoreOption {
	return func(s *MeetingStore) { s.gen = gen }
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *MeetingStore) { s.now = now }
}

// MeetingStore is the in-memory table of active meetings.
// The map has its own lock; each meeting is serialized by its own mutex.
// Lock order is meeting -> store, never the reverse.
type MeetingStore struct {
	mu       sync.RWMutex
	meetings map[domain.MeetingCode]*meetingEntry
	gen      domain.CodeGenerator
	now      func() time.Time
}

func NewMeetingStore(opts ...StoreOption) *MeetingStore {
	s := &MeetingStore{
		meetings: make(map[domain.MeetingCode]*meetingEntry),
		gen:      domain.RandomCode,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MeetingStore) Now() time.Time { return s.now() }

// Create inserts a meeting with host as its sole participant and host.
func (s *MeetingStore) Create(host domain.Participant, conn core.ConnectionID, cfg domain.MeetingConfig) (domain.MeetingCode, error) {
	host.Role = domain.RoleHost
	roster := core.NewRoster()
	if err := roster.Add(core.NewMember(host, conn)); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.gen()
		if err != nil {
			return "", fmt.Errorf("generate meeting code: %w", err)
		}
		if _, taken := s.meetings[code]; taken {
			log.Warn().Str("module", "app.store").Str("meeting", string(code)).Msg("meeting code collision, regenerating")
			continue
		}
		s.meetings[code] = &meetingEntry{
			meeting: domain.Meeting{
				Code:      code,
				HostID:    host.ID,
				HostName:  host.Name,
				CreatedAt: s.now(),
				Config:    cfg,
			},
			roster: roster,
		}
		log.Info().Str("module", "app.store").Str("meeting", string(code)).Str("host", string(host.ID)).Msg("meeting created")
		return code, nil
	}
	return "", domain.ErrDuplicateCode
}

func (s *MeetingStore) entry(code domain.MeetingCode) (*meetingEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.meetings[code]
	return e, ok
}

// Update runs fn with the meeting locked. A meeting left empty, or ended via
// tx.End, is deleted before the lock is released.
func (s *MeetingStore) Update(code domain.MeetingCode, fn func(tx *MeetingTx) error) error {
	e, ok := s.entry(code)
	if !ok {
		return domain.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.ErrNotFound
	}

	tx := &MeetingTx{Meeting: &e.meeting, Roster: e.roster}
	err := fn(tx)
	if tx.ended || e.roster.Len() == 0 {
		e.closed = true
		s.mu.Lock()
		if cur, ok := s.meetings[code]; ok && cur == e {
			delete(s.meetings, code)
		}
		s.mu.Unlock()
		log.Info().Str("module", "app.store").Str("meeting", string(code)).Bool("ended", tx.ended).Msg("meeting deleted")
	}
	return err
}

// Delete removes a meeting regardless of its roster.
func (s *MeetingStore) Delete(code domain.MeetingCode) {
	s.mu.Lock()
	e, ok := s.meetings[code]
	delete(s.meetings, code)
	s.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}

func (s *MeetingStore) Get(code domain.MeetingCode) (domain.Meeting, error) {
	var out domain.Meeting
	err := s.view(code, func(e *meetingEntry) { out = e.meeting })
	return out, err
}

func (s *MeetingStore) Info(code domain.MeetingCode) (domain.MeetingInfo, error) {
	var out domain.MeetingInfo
	err := s.view(code, func(e *meetingEntry) { out = infoOf(e) })
	return out, err
}

func (s *MeetingStore) view(code domain.MeetingCode, fn func(e *meetingEntry)) error {
	e, ok := s.entry(code)
	if !ok {
		return domain.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.ErrNotFound
	}
	fn(e)
	return nil
}

func infoOf(e *meetingEntry) domain.MeetingInfo {
	return domain.MeetingInfo{
		Code:             e.meeting.Code,
		HostName:         e.meeting.HostName,
		ParticipantCount: e.roster.Len(),
		CreatedAt:        e.meeting.CreatedAt,
		Config:           e.meeting.Config,
	}
}

// AddParticipant returns the roster as it was before p joined.
func (s *MeetingStore) AddParticipant(code domain.MeetingCode, p domain.Participant, conn core.ConnectionID) ([]domain.Participant, error) {
	var snap []domain.Participant
	err := s.Update(code, func(tx *MeetingTx) error {
		if tx.Roster.Len() >= tx.Meeting.Config.MaxParticipants {
			return domain.ErrFull
		}
		if err := tx.Roster.Add(core.NewMember(p, conn)); err != nil {
			return err
		}
		snap = tx.Roster.Snapshot(p.ID)
		return nil
	})
	return snap, err
}

// RemoveParticipant is idempotent. Host departure policy is the coordinator's call.
func (s *MeetingStore) RemoveParticipant(code domain.MeetingCode, id domain.ParticipantID) {
	_ = s.Update(code, func(tx *MeetingTx) error {
		tx.Roster.Remove(id)
		return nil
	})
}

func (s *MeetingStore) List() []domain.MeetingInfo {
	s.mu.RLock()
	entries := make([]*meetingEntry, 0, len(s.meetings))
	for _, e := range s.meetings {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]domain.MeetingInfo, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.closed {
			out = append(out, infoOf(e))
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *MeetingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meetings)
}
