package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	httpapi "github.com/dkeye/Meet/internal/adapters/http"
	"github.com/dkeye/Meet/internal/app"
	"github.com/dkeye/Meet/internal/app/orch"
	"github.com/dkeye/Meet/internal/config"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/mesh"
	"github.com/dkeye/Meet/internal/protocol"
	"github.com/dkeye/Meet/internal/roster"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakePC struct {
	mu     sync.Mutex
	offers []webrtc.SessionDescription
	closed bool
}

func (p *fakePC) CreateOffer(context.Context) (webrtc.SessionDescription, error) {
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0 offer"}, nil
}

func (p *fakePC) AcceptOffer(_ context.Context, offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offers = append(p.offers, offer)
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0 answer"}, nil
}

func (p *fakePC) AcceptAnswer(webrtc.SessionDescription) error { return nil }
func (p *fakePC) AddICECandidate(webrtc.ICECandidateInit) error { return nil }
func (p *fakePC) ReplaceVideo(webrtc.TrackLocal) (bool, error) { return false, nil }

func (p *fakePC) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePC) Offers() []webrtc.SessionDescription {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]webrtc.SessionDescription(nil), p.offers...)
}

type fakeFactory struct {
	mu  sync.Mutex
	pcs map[domain.ParticipantID]*fakePC
}

func (f *fakeFactory) NewPeerConnection(peer domain.ParticipantID, _ []webrtc.TrackLocal, _ mesh.PeerEvents) (mesh.PeerConnection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pc := &fakePC{}
	f.pcs[peer] = pc
	return pc, nil
}

func (f *fakeFactory) PC(peer domain.ParticipantID) *fakePC {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pcs[peer]
}

type participant struct {
	*Client
	roster  *roster.Roster
	factory *fakeFactory
}

func newServer(t *testing.T, chatLimit int) string {
	t.Helper()
	cfg := &config.Config{
		Mode:       "test",
		StaticPath: t.TempDir(),
		ReadLimit:  64 * 1024,
		PingPeriod: time.Minute,
		WriteWait:  time.Second,
		SendBuffer: 64,
		Secret:     "test-secret",
		Meeting:    domain.DefaultMeetingConfig(),
	}
	gen := func() (domain.MeetingCode, error) { return "MEET-0001", nil }
	o := orch.New(app.NewRegistry(), app.NewMeetingStore(app.WithCodeGenerator(gen)), app.SimplePolicy{},
		app.NewChatRateLimiter(chatLimit, time.Minute), cfg.Meeting)

	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(httpapi.SetupRouter(ctx, cfg, o))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/signal"
}

func connect(t *testing.T, url string) participant {
	t.Helper()
	r := roster.New()
	f := &fakeFactory{pcs: make(map[domain.ParticipantID]*fakePC)}
	c, err := Dial(context.Background(), url, Dependencies{
		Factory:    f,
		Projection: r,
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return participant{Client: c, roster: r, factory: f}
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestClient_CreateJoinAndNegotiate(t *testing.T) {
	req := require.New(t)
	url := newServer(t, 5)
	ctx := testCtx(t)
	host := connect(t, url)
	guest := connect(t, url)

	// Given a meeting created by Alice
	code, err := host.Create(ctx, "Alice", nil)
	req.NoError(err)
	req.Equal(domain.MeetingCode("MEET-0001"), code)
	_, hostID := host.Meeting()

	// When Bob joins
	snapshot, err := guest.Join(ctx, string(code), "Bob")
	req.NoError(err)
	req.Len(snapshot.Participants, 1)
	req.Equal(hostID, snapshot.Participants[0].ID)
	_, guestID := guest.Meeting()
	req.Equal(snapshot.SelfID, guestID)

	// Then the present member offers and the newcomer answers
	req.Eventually(func() bool {
		sessions := host.Sessions()
		return len(sessions) == 1 && sessions[0].Peer == guestID && sessions[0].State == mesh.StateAnswered
	}, 2*time.Second, 10*time.Millisecond)
	req.Eventually(func() bool {
		pc := guest.factory.PC(hostID)
		return pc != nil && len(pc.Offers()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	req.Equal("v=0 offer", guest.factory.PC(hostID).Offers()[0].SDP)

	sessions := guest.Sessions()
	req.Len(sessions, 1)
	req.False(sessions[0].Initiator)

	// And both rosters agree
	req.Eventually(func() bool { return len(host.roster.Entries()) == 2 }, time.Second, 10*time.Millisecond)
	req.Len(guest.roster.Entries(), 2)
	h, ok := guest.roster.Host()
	req.True(ok)
	req.Equal("Alice", h.Name)
}

func TestClient_ChatAndLeave(t *testing.T) {
	req := require.New(t)
	url := newServer(t, 1)
	ctx := testCtx(t)
	host := connect(t, url)
	guest := connect(t, url)

	code, err := host.Create(ctx, "Alice", nil)
	req.NoError(err)
	_, err = guest.Join(ctx, string(code), "Bob")
	req.NoError(err)
	_, guestID := guest.Meeting()

	// Given one message allowed per interval
	req.NoError(guest.Chat(ctx, "hello"))
	req.Eventually(func() bool { return len(host.roster.Chat()) == 1 }, time.Second, 10*time.Millisecond)
	req.Equal("Bob", host.roster.Chat()[0].SenderName)

	// When Bob keeps talking
	err = guest.Chat(ctx, "again")

	// Then the coordinator's rejection reaches him
	req.ErrorIs(err, domain.ErrRateLimited)
	req.NoError(guest.Ping(ctx))

	// When Bob leaves
	req.NoError(guest.Leave(ctx))
	code, _ = guest.Meeting()
	req.Empty(code)
	req.Empty(guest.Sessions())
	req.ErrorIs(guest.Leave(ctx), ErrNoMeeting)

	// Then Alice drops him and his session
	req.Eventually(func() bool {
		return len(host.roster.Entries()) == 1 && len(host.Sessions()) == 0
	}, 2*time.Second, 10*time.Millisecond)
	pc := host.factory.PC(guestID)
	req.NotNil(pc)
	pc.mu.Lock()
	req.True(pc.closed)
	pc.mu.Unlock()
}

func TestClient_JoinUnknownMeeting(t *testing.T) {
	req := require.New(t)
	url := newServer(t, 5)
	ctx := testCtx(t)
	guest := connect(t, url)

	_, err := guest.Join(ctx, "NOPE-0000", "Bob")
	req.ErrorIs(err, domain.ErrNotFound)

	var remote *protocol.RemoteError
	req.ErrorAs(err, &remote)
	req.Equal(protocol.CodeNotFound, remote.Code)

	req.ErrorIs(guest.Chat(ctx, "hi"), ErrNoMeeting)
}

func TestClient_RejectedJoinKeepsMeeting(t *testing.T) {
	req := require.New(t)
	url := newServer(t, 5)
	ctx := testCtx(t)
	host := connect(t, url)

	// Given a host in its own meeting
	code, err := host.Create(ctx, "Alice", nil)
	req.NoError(err)

	// When it tries to join a meeting that does not exist
	_, err = host.Join(ctx, "NOPE-0000", "Alice")
	req.ErrorIs(err, domain.ErrNotFound)

	// Then it is still in its meeting and can still leave it
	current, _ := host.Meeting()
	req.Equal(code, current)
	req.NoError(host.Leave(ctx))
}

func TestClient_HostEndsMeeting(t *testing.T) {
	req := require.New(t)
	url := newServer(t, 5)
	ctx := testCtx(t)
	host := connect(t, url)
	guest := connect(t, url)

	code, err := host.Create(ctx, "Alice", nil)
	req.NoError(err)
	_, err = guest.Join(ctx, string(code), "Bob")
	req.NoError(err)

	// A guest cannot end the meeting
	req.ErrorIs(guest.EndMeeting(ctx), domain.ErrNotHost)

	// When the host ends it
	req.NoError(host.EndMeeting(ctx))

	// Then everyone is out
	req.Eventually(func() bool {
		_, ended := guest.roster.Ended()
		return ended
	}, 2*time.Second, 10*time.Millisecond)
	reason, _ := guest.roster.Ended()
	req.Equal(protocol.ReasonEndedByHost, reason)
	req.Empty(guest.Sessions())
	hostCode, _ := host.Meeting()
	req.Empty(hostCode)
}

func TestClient_CloseDisconnects(t *testing.T) {
	req := require.New(t)
	url := newServer(t, 5)
	ctx := testCtx(t)
	host := connect(t, url)
	guest := connect(t, url)

	code, err := host.Create(ctx, "Alice", nil)
	req.NoError(err)
	_, err = guest.Join(ctx, string(code), "Bob")
	req.NoError(err)

	guest.Close()
	select {
	case <-guest.Done():
	default:
		req.Fail("client still running after Close")
	}
	req.ErrorIs(guest.Ping(ctx), ErrClosed)

	req.Eventually(func() bool { return len(host.roster.Entries()) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestLookup(t *testing.T) {
	req := require.New(t)
	url := newServer(t, 5)
	ctx := testCtx(t)
	host := connect(t, url)

	_, err := Lookup(ctx, url, "MEET-0001")
	req.ErrorIs(err, domain.ErrNotFound)

	_, err = host.Create(ctx, "Alice", nil)
	req.NoError(err)

	info, err := Lookup(ctx, url, "MEET-0001")
	req.NoError(err)
	req.Equal("Alice", info.HostName)
	req.Equal(1, info.ParticipantCount)
	req.Equal(domain.DefaultMaxParticipants, info.Config.MaxParticipants)
}
