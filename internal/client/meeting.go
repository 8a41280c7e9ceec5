package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
	"github.com/pion/webrtc/v4"
)

// Create opens a new meeting hosted by this client. cfg may be nil for the
// coordinator defaults.
func (c *Client) Create(ctx context.Context, hostName string, cfg *domain.MeetingConfig) (domain.MeetingCode, error) {
	c.setName(hostName)

	reply, err := c.request(ctx, protocol.TypeMeetingCreated, protocol.Create{HostName: hostName, Config: cfg})
	if err != nil {
		return "", err
	}
	created, ok := reply.(protocol.MeetingCreated)
	if !ok {
		return "", fmt.Errorf("create: unexpected reply %s", reply.MessageType())
	}
	return created.MeetingCode, nil
}

// Join enters an existing meeting and returns the roster at join time.
func (c *Client) Join(ctx context.Context, code, name string) (protocol.RosterSnapshot, error) {
	c.setName(name)
	reply, err := c.request(ctx, protocol.TypeRosterSnapshot, protocol.Join{MeetingCode: code, ParticipantName: name})
	if err != nil {
		return protocol.RosterSnapshot{}, err
	}
	snapshot, ok := reply.(protocol.RosterSnapshot)
	if !ok {
		return protocol.RosterSnapshot{}, fmt.Errorf("join: unexpected reply %s", reply.MessageType())
	}
	return snapshot, nil
}

// Leave closes every peer session before the coordinator hears about it.
func (c *Client) Leave(ctx context.Context) error {
	code, _ := c.Meeting()
	if code == "" {
		return ErrNoMeeting
	}
	c.teardown()
	_, err := c.request(ctx, protocol.TypeLeft, protocol.Leave{MeetingCode: string(code)})
	return err
}

// EndMeeting ends the current meeting for everyone. Only the host may.
func (c *Client) EndMeeting(ctx context.Context) error {
	code, _ := c.Meeting()
	if code == "" {
		return ErrNoMeeting
	}
	_, err := c.request(ctx, protocol.TypeLeft, protocol.EndMeeting{MeetingCode: string(code)})
	return err
}

// Chat sends a message to the meeting. A ping follows it so a rejection
// comes back to the caller.
func (c *Client) Chat(ctx context.Context, text string) error {
	code, _ := c.Meeting()
	if code == "" {
		return ErrNoMeeting
	}
	_, err := c.request(ctx, protocol.TypePong, protocol.ChatRequest{MeetingCode: string(code), Text: text}, protocol.Ping{})
	return err
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.request(ctx, protocol.TypePong, protocol.Ping{})
	return err
}

// ReplaceVideo switches the outgoing video of every peer session.
func (c *Client) ReplaceVideo(ctx context.Context, track webrtc.TrackLocal) error {
	m := c.currentMesh()
	if m == nil {
		return ErrNoMeeting
	}
	return m.ReplaceOutgoingVideo(ctx, track)
}

// Retry restarts negotiation with a degraded peer.
func (c *Client) Retry(peer domain.ParticipantID) error {
	m := c.currentMesh()
	if m == nil {
		return ErrNoMeeting
	}
	return m.Retry(peer)
}

// Mute stops or resumes counting a peer's incoming media. The peer keeps
// sending; nothing is signaled.
func (c *Client) Mute(peer domain.ParticipantID, muted bool) error {
	if c.currentMesh() == nil {
		return ErrNoMeeting
	}
	c.pumps.SetMuted(peer, muted)
	return nil
}

func (c *Client) setName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = strings.TrimSpace(name)
}
