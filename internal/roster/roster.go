// Package roster projects meeting and mesh events into what a participant
// shows: who is present, who hosts, and how each peer link is doing.
package roster

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/mesh"
	"github.com/pion/webrtc/v4"
	"github.com/samber/lo"
)

const maxChatHistory = 100

// ChatLine is one received chat message.
type ChatLine struct {
	SenderID   domain.ParticipantID
	SenderName string
	Text       string
	At         time.Time
}

// Projection receives everything a participant may want to display.
type Projection interface {
	mesh.Observer
	OnRoster(code domain.MeetingCode, self domain.ParticipantID, participants []domain.Participant)
	OnJoined(p domain.Participant)
	OnLeft(id domain.ParticipantID)
	OnHostChanged(id domain.ParticipantID)
	OnChat(line ChatLine)
	OnEnded(reason string)
}

// Entry is one roster row.
type Entry struct {
	domain.Participant
	Self    bool
	Session *mesh.SessionInfo
	Tracks  []webrtc.RTPCodecType
}

// Roster is the in-memory projection.
type Roster struct {
	mu           sync.RWMutex
	code         domain.MeetingCode
	self         domain.ParticipantID
	participants map[domain.ParticipantID]domain.Participant
	sessions     map[domain.ParticipantID]mesh.SessionInfo
	tracks       map[domain.ParticipantID][]webrtc.RTPCodecType
	chat         []ChatLine
	endReason    string
	ended        bool
}

func New() *Roster {
	return &Roster{
		participants: make(map[domain.ParticipantID]domain.Participant),
		sessions:     make(map[domain.ParticipantID]mesh.SessionInfo),
		tracks:       make(map[domain.ParticipantID][]webrtc.RTPCodecType),
	}
}

func (r *Roster) OnRoster(code domain.MeetingCode, self domain.ParticipantID, participants []domain.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = code
	r.self = self
	r.ended = false
	r.endReason = ""
	r.participants = lo.SliceToMap(participants, func(p domain.Participant) (domain.ParticipantID, domain.Participant) {
		return p.ID, p
	})
	r.sessions = make(map[domain.ParticipantID]mesh.SessionInfo)
	r.tracks = make(map[domain.ParticipantID][]webrtc.RTPCodecType)
}

func (r *Roster) OnJoined(p domain.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[p.ID] = p
}

func (r *Roster) OnLeft(id domain.ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.participants, id)
	delete(r.sessions, id)
	delete(r.tracks, id)
}

// OnHostChanged demotes the previous host. At most one host is listed.
func (r *Roster) OnHostChanged(id domain.ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for pid, p := range r.participants {
		switch {
		case pid == id:
			p.Role = domain.RoleHost
		case p.IsHost():
			p.Role = domain.RoleGuest
		default:
			continue
		}
		r.participants[pid] = p
	}
}

func (r *Roster) OnChat(line ChatLine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chat = append(r.chat, line)
	if over := len(r.chat) - maxChatHistory; over > 0 {
		r.chat = slices.Delete(r.chat, 0, over)
	}
}

func (r *Roster) OnEnded(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = true
	r.endReason = reason
	clear(r.participants)
	clear(r.sessions)
	clear(r.tracks)
}

// OnSessionState ignores sessions of peers that already left.
func (r *Roster) OnSessionState(info mesh.SessionInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info.State == mesh.StateClosed {
		delete(r.sessions, info.Peer)
		return
	}
	if _, ok := r.participants[info.Peer]; !ok {
		return
	}
	r.sessions[info.Peer] = info
}

func (r *Roster) OnRemoteTrack(peer domain.ParticipantID, track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.participants[peer]; !ok {
		return
	}
	r.tracks[peer] = lo.Uniq(append(r.tracks[peer], track.Kind()))
}

func (r *Roster) Code() domain.MeetingCode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.code
}

func (r *Roster) Self() domain.ParticipantID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.self
}

// Host returns the current host, if any.
func (r *Roster) Host() (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Find(lo.Values(r.participants), func(p domain.Participant) bool { return p.IsHost() })
}

// Entries lists participants in join order.
func (r *Roster) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := lo.MapToSlice(r.participants, func(id domain.ParticipantID, p domain.Participant) Entry {
		e := Entry{Participant: p, Self: id == r.self, Tracks: slices.Clone(r.tracks[id])}
		if info, ok := r.sessions[id]; ok {
			e.Session = &info
		}
		return e
	})
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return entries
}

// Degraded lists peers whose link needs a retry.
func (r *Roster) Degraded() []domain.ParticipantID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	degraded := lo.PickBy(r.sessions, func(_ domain.ParticipantID, info mesh.SessionInfo) bool {
		return info.Degraded
	})
	ids := lo.Keys(degraded)
	slices.Sort(ids)
	return ids
}

func (r *Roster) Chat() []ChatLine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.chat)
}

// Ended reports whether the meeting ended and why.
func (r *Roster) Ended() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.endReason, r.ended
}
