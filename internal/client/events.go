package client

import (
	"encoding/json"
	"time"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
	"github.com/dkeye/Meet/internal/roster"
	"github.com/pion/webrtc/v4"
)

// handle runs on the read pump, so events are applied in arrival order.
func (c *Client) handle(msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.MeetingCreated:
		c.enter(m.MeetingCode, m.ParticipantID)
		self := c.selfParticipant(m.ParticipantID, domain.RoleHost)
		c.deps.Projection.OnRoster(m.MeetingCode, m.ParticipantID, []domain.Participant{self})
		c.reply(m)

	case protocol.RosterSnapshot:
		mesh := c.enter(m.MeetingCode, m.SelfID)
		// The snapshot lists everyone but us.
		self := c.selfParticipant(m.SelfID, domain.RoleGuest)
		c.deps.Projection.OnRoster(m.MeetingCode, m.SelfID, append([]domain.Participant{self}, m.Participants...))
		// Members already present offer to us.
		for _, p := range m.Participants {
			mesh.OnPeerAppeared(p.ID, false)
		}
		c.reply(m)

	case protocol.ParticipantJoined:
		c.deps.Projection.OnJoined(m.Participant)
		if mesh := c.currentMesh(); mesh != nil {
			mesh.OnPeerAppeared(m.Participant.ID, true)
		}

	case protocol.ParticipantLeft:
		if mesh := c.currentMesh(); mesh != nil {
			mesh.OnPeerLeft(m.ParticipantID)
		}
		c.pumps.StopPeer(m.ParticipantID)
		c.deps.Projection.OnLeft(m.ParticipantID)

	case protocol.HostChanged:
		c.deps.Projection.OnHostChanged(m.ParticipantID)

	case protocol.MeetingEnded:
		c.logger.Info().Str("reason", m.Reason).Msg("meeting ended")
		c.teardown()
		c.deps.Projection.OnEnded(m.Reason)

	case protocol.Left:
		c.teardown()
		c.reply(m)

	case protocol.Relayed:
		c.onRelayed(m)

	case protocol.ChatEvent:
		c.deps.Projection.OnChat(roster.ChatLine{
			SenderID:   m.SenderID,
			SenderName: m.SenderName,
			Text:       m.Text,
			At:         m.Timestamp,
		})

	case protocol.ErrorMsg:
		if !c.reply(m) {
			c.logger.Warn().Str("code", m.Code).Str("message", m.Message).Msg("unsolicited error")
		}

	case protocol.Pong:
		c.reply(m)
	}
}

func (c *Client) selfParticipant(id domain.ParticipantID, role domain.Role) domain.Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.Participant{ID: id, Name: c.name, Role: role, JoinedAt: time.Now()}
}

func (c *Client) onRelayed(m protocol.Relayed) {
	mesh := c.currentMesh()
	if mesh == nil {
		c.logger.Debug().Str("kind", string(m.Kind)).Msg("negotiation outside a meeting, dropping")
		return
	}
	logger := c.logger.With().Str("peer", string(m.SenderParticipantID)).Str("kind", string(m.Kind)).Logger()

	switch m.Kind {
	case protocol.TypeOffer, protocol.TypeAnswer:
		var sdp webrtc.SessionDescription
		if err := json.Unmarshal(m.Payload, &sdp); err != nil {
			logger.Warn().Err(err).Msg("bad session description")
			return
		}
		if m.Kind == protocol.TypeOffer {
			mesh.OnRemoteOffer(m.SenderParticipantID, sdp)
		} else {
			mesh.OnRemoteAnswer(m.SenderParticipantID, sdp)
		}
	case protocol.TypeCandidate:
		var candidate webrtc.ICECandidateInit
		if err := json.Unmarshal(m.Payload, &candidate); err != nil {
			logger.Warn().Err(err).Msg("bad candidate")
			return
		}
		mesh.OnRemoteCandidate(m.SenderParticipantID, candidate)
	}
}
