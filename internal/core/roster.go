package core

import (
	"sort"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/samber/lo"
)

// Roster is the participant set of one meeting.
// It is not threadsafe: the meeting store serializes access per meeting.
type Roster struct {
	byID   map[domain.ParticipantID]Member
	byConn map[ConnectionID]domain.ParticipantID
}

func NewRoster() *Roster {
	return &Roster{
		byID:   make(map[domain.ParticipantID]Member),
		byConn: make(map[ConnectionID]domain.ParticipantID),
	}
}

func (r *Roster) Len() int { return len(r.byID) }

// Add fails if either the participant id or the connection is already present.
func (r *Roster) Add(m Member) error {
	if _, ok := r.byID[m.Participant.ID]; ok {
		return domain.ErrAlreadyBound
	}
	if _, ok := r.byConn[m.Conn]; ok {
		return domain.ErrAlreadyBound
	}
	r.byID[m.Participant.ID] = m
	r.byConn[m.Conn] = m.Participant.ID
	return nil
}

// Remove is a no-op for non-members.
func (r *Roster) Remove(id domain.ParticipantID) (Member, bool) {
	m, ok := r.byID[id]
	if !ok {
		return Member{}, false
	}
	delete(r.byID, id)
	delete(r.byConn, m.Conn)
	return m, true
}

func (r *Roster) Get(id domain.ParticipantID) (Member, bool) {
	m, ok := r.byID[id]
	return m, ok
}

func (r *Roster) ByConn(conn ConnectionID) (Member, bool) {
	id, ok := r.byConn[conn]
	if !ok {
		return Member{}, false
	}
	return r.byID[id], true
}

func (r *Roster) SetRole(id domain.ParticipantID, role domain.Role) bool {
	m, ok := r.byID[id]
	if !ok {
		return false
	}
	m.Participant.Role = role
	r.byID[id] = m
	return true
}

// Members returns members ordered by join time, oldest first.
func (r *Roster) Members() []Member {
	out := lo.Values(r.byID)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Participant.JoinedAt.Equal(out[j].Participant.JoinedAt) {
			return out[i].Participant.ID < out[j].Participant.ID
		}
		return out[i].Participant.JoinedAt.Before(out[j].Participant.JoinedAt)
	})
	return out
}

// Snapshot is the public roster view, optionally leaving one participant out.
func (r *Roster) Snapshot(except domain.ParticipantID) []domain.Participant {
	members := lo.Filter(r.Members(), func(m Member, _ int) bool {
		return m.Participant.ID != except
	})
	return lo.Map(members, func(m Member, _ int) domain.Participant {
		return m.Participant
	})
}

// Oldest returns the earliest-joined member, skipping one id.
func (r *Roster) Oldest(except domain.ParticipantID) (Member, bool) {
	for _, m := range r.Members() {
		if m.Participant.ID != except {
			return m, true
		}
	}
	return Member{}, false
}
