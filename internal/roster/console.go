package roster

import (
	"fmt"
	"io"
	"sync"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/mesh"
	"github.com/pion/webrtc/v4"
)

// Console prints meeting events for a terminal participant.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	names map[domain.ParticipantID]string
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w, names: make(map[domain.ParticipantID]string)}
}

func (c *Console) OnRoster(code domain.MeetingCode, self domain.ParticipantID, participants []domain.Participant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.names)
	fmt.Fprintf(c.w, "📞 Meeting %s (%d present)\n", code, len(participants))
	for _, p := range participants {
		c.names[p.ID] = p.Name
		marker := ""
		if p.ID == self {
			marker = " (you)"
		}
		if p.IsHost() {
			marker += " 👑"
		}
		fmt.Fprintf(c.w, "  %s%s\n", p.Name, marker)
	}
}

func (c *Console) OnJoined(p domain.Participant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[p.ID] = p.Name
	fmt.Fprintf(c.w, "👋 %s joined\n", p.Name)
}

func (c *Console) OnLeft(id domain.ParticipantID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "🚪 %s left\n", c.nameLocked(id))
	delete(c.names, id)
}

func (c *Console) OnHostChanged(id domain.ParticipantID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "👑 %s is now the host\n", c.nameLocked(id))
}

func (c *Console) OnChat(line ChatLine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "💬 [%s] %s: %s\n", line.At.Format("15:04"), line.SenderName, line.Text)
}

func (c *Console) OnEnded(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "⏹️  Meeting ended (%s)\n", reason)
}

// OnSessionState only reports transitions worth a line.
func (c *Console) OnSessionState(info mesh.SessionInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name := c.nameLocked(info.Peer)
	switch {
	case info.Degraded:
		fmt.Fprintf(c.w, "⚠️  Connection to %s failed (%s)\n", name, info.State)
	case info.State == mesh.StateConnected:
		fmt.Fprintf(c.w, "✅ Connected to %s\n", name)
	}
}

func (c *Console) OnRemoteTrack(peer domain.ParticipantID, track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "🎧 Receiving %s from %s\n", track.Kind(), c.nameLocked(peer))
}

func (c *Console) nameLocked(id domain.ParticipantID) string {
	if name, ok := c.names[id]; ok {
		return name
	}
	return string(id)
}

type tee []Projection

// Tee forwards every event to each projection in order.
func Tee(projections ...Projection) Projection {
	return tee(projections)
}

func (t tee) OnRoster(code domain.MeetingCode, self domain.ParticipantID, participants []domain.Participant) {
	for _, p := range t {
		p.OnRoster(code, self, participants)
	}
}

func (t tee) OnJoined(participant domain.Participant) {
	for _, p := range t {
		p.OnJoined(participant)
	}
}

func (t tee) OnLeft(id domain.ParticipantID) {
	for _, p := range t {
		p.OnLeft(id)
	}
}

func (t tee) OnHostChanged(id domain.ParticipantID) {
	for _, p := range t {
		p.OnHostChanged(id)
	}
}

func (t tee) OnChat(line ChatLine) {
	for _, p := range t {
		p.OnChat(line)
	}
}

func (t tee) OnEnded(reason string) {
	for _, p := range t {
		p.OnEnded(reason)
	}
}

func (t tee) OnSessionState(info mesh.SessionInfo) {
	for _, p := range t {
		p.OnSessionState(info)
	}
}

func (t tee) OnRemoteTrack(peer domain.ParticipantID, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
	for _, p := range t {
		p.OnRemoteTrack(peer, track, receiver)
	}
}
