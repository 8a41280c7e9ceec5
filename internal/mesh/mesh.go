//go:generate go run go.uber.org/mock/mockgen -source=mesh.go -destination=../mocks/mock_mesh.go -package=mocks
package mesh

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/pion/webrtc/v4"
)

var (
	ErrMediaUnavailable   = errors.New("local media unavailable")
	ErrNegotiationTimeout = errors.New("negotiation timed out")
	ErrSessionClosed      = errors.New("session closed")
	ErrManagerClosed      = errors.New("mesh manager closed")
)

type State string

const (
	StateIdle          State = "idle"
	StateOffering      State = "offering"
	StateAnswered      State = "answered"
	StateOfferReceived State = "offer-received"
	StateAnswering     State = "answering"
	StateConnected     State = "connected"
	StateClosed        State = "closed"
)

// SessionInfo is a snapshot of one negotiation session.
type SessionInfo struct {
	Peer      domain.ParticipantID
	State     State
	Degraded  bool
	Initiator bool
}

// PeerConnection is the transport for one remote participant. Implementations
// do not need to be safe for concurrent use: a session calls them from its own
// goroutine only.
type PeerConnection interface {
	// CreateOffer creates an offer and applies it as the local description.
	CreateOffer(ctx context.Context) (webrtc.SessionDescription, error)
	// AcceptOffer applies a remote offer and returns the applied local answer.
	AcceptOffer(ctx context.Context, offer webrtc.SessionDescription) (webrtc.SessionDescription, error)
	AcceptAnswer(answer webrtc.SessionDescription) error
	AddICECandidate(c webrtc.ICECandidateInit) error
	// ReplaceVideo swaps the outgoing video source in place. It reports true
	// when no video sender existed and one was added, which requires a new offer.
	ReplaceVideo(track webrtc.TrackLocal) (renegotiate bool, err error)
	Close() error
}

// PeerEvents are the transport callbacks a session listens to.
type PeerEvents struct {
	OnCandidate       func(webrtc.ICECandidateInit)
	OnConnectionState func(webrtc.PeerConnectionState)
	OnTrack           func(*webrtc.TrackRemote, *webrtc.RTPReceiver)
}

type PeerConnectionFactory interface {
	NewPeerConnection(peer domain.ParticipantID, tracks []webrtc.TrackLocal, events PeerEvents) (PeerConnection, error)
}

// Signaler sends negotiation messages to one remote participant through the
// coordinator.
type Signaler interface {
	SendOffer(ctx context.Context, to domain.ParticipantID, offer webrtc.SessionDescription) error
	SendAnswer(ctx context.Context, to domain.ParticipantID, answer webrtc.SessionDescription) error
	SendCandidate(ctx context.Context, to domain.ParticipantID, candidate webrtc.ICECandidateInit) error
}

// LocalMedia yields the outgoing tracks. Tracks returns ErrMediaUnavailable
// when capture could not be acquired.
type LocalMedia interface {
	Tracks() ([]webrtc.TrackLocal, error)
	Stop()
}

// Observer receives session changes, typically a roster projection.
type Observer interface {
	OnSessionState(info SessionInfo)
	OnRemoteTrack(peer domain.ParticipantID, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)
}

type Config struct {
	NegotiationTimeout   time.Duration
	MaxPendingCandidates int
	PendingCandidateTTL  time.Duration
}

func DefaultConfig() Config {
	return Config{
		NegotiationTimeout:   20 * time.Second,
		MaxPendingCandidates: 32,
		PendingCandidateTTL:  10 * time.Second,
	}
}
