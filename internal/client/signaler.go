package client

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
	"github.com/pion/webrtc/v4"
)

// SendOffer, SendAnswer and SendCandidate make the client the mesh.Signaler
// of its own meeting.
func (c *Client) SendOffer(ctx context.Context, to domain.ParticipantID, offer webrtc.SessionDescription) error {
	return c.relay(ctx, protocol.TypeOffer, to, offer)
}

func (c *Client) SendAnswer(ctx context.Context, to domain.ParticipantID, answer webrtc.SessionDescription) error {
	return c.relay(ctx, protocol.TypeAnswer, to, answer)
}

func (c *Client) SendCandidate(ctx context.Context, to domain.ParticipantID, candidate webrtc.ICECandidateInit) error {
	return c.relay(ctx, protocol.TypeCandidate, to, candidate)
}

func (c *Client) relay(ctx context.Context, kind protocol.Type, to domain.ParticipantID, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, protocol.RelayRequest{Kind: kind, TargetParticipantID: to, Payload: payload})
}
