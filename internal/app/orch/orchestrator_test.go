package orch

import (
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Meet/internal/app"
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return core.ErrBackpressure
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

// drain returns and forgets everything sent so far.
func (c *fakeConn) drain(t *testing.T) []protocol.Message {
	t.Helper()
	c.mu.Lock()
	frames := c.frames
	c.frames = nil
	c.mu.Unlock()

	out := make([]protocol.Message, 0, len(frames))
	for _, f := range frames {
		m, err := protocol.DecodeEvent(f)
		require.NoError(t, err)
		out = append(out, m)
	}
	return out
}

type harness struct {
	o         *Orchestrator
	conns     map[core.ConnectionID]*fakeConn
	mu        sync.Mutex
	cancelled map[core.ConnectionID]bool
}

func fixedCodes(codes ...domain.MeetingCode) domain.CodeGenerator {
	var mu sync.Mutex
	i := 0
	return func() (domain.MeetingCode, error) {
		mu.Lock()
		defer mu.Unlock()
		c := codes[i%len(codes)]
		i++
		return c, nil
	}
}

// tickingClock advances one second per reading so join order is strict.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func newHarness(t *testing.T, policy app.Policy, codes ...domain.MeetingCode) *harness {
	t.Helper()
	if len(codes) == 0 {
		codes = []domain.MeetingCode{"ABCD-1234"}
	}
	store := app.NewMeetingStore(app.WithCodeGenerator(fixedCodes(codes...)), app.WithClock(tickingClock()))
	return &harness{
		o:         New(app.NewRegistry(), store, policy, app.NewChatRateLimiter(3, time.Minute), domain.DefaultMeetingConfig()),
		conns:     map[core.ConnectionID]*fakeConn{},
		cancelled: map[core.ConnectionID]bool{},
	}
}

func (h *harness) connect(id core.ConnectionID) *fakeConn {
	c := &fakeConn{}
	h.conns[id] = c
	h.o.Registry.Attach(id, c, func() {
		h.mu.Lock()
		h.cancelled[id] = true
		h.mu.Unlock()
	}, "")
	return c
}

func TestCreateAndJoin(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, app.SimplePolicy{})
	alice := h.connect("alice")
	bob := h.connect("bob")

	// Given Alice creates a meeting
	code, aliceID, err := h.o.OnCreate("alice", "Alice", nil)
	req.NoError(err)
	req.Equal(domain.MeetingCode("ABCD-1234"), code)
	req.Equal([]protocol.Message{protocol.MeetingCreated{MeetingCode: code, ParticipantID: aliceID}}, alice.drain(t))

	// When Bob joins with a lower-case code
	res, err := h.o.OnJoin("bob", "abcd1234", "Bob")
	req.NoError(err)

	// Then Bob gets the roster without himself
	events := bob.drain(t)
	req.Len(events, 1)
	snap, ok := events[0].(protocol.RosterSnapshot)
	req.True(ok)
	req.Equal(code, snap.MeetingCode)
	req.Equal(res.Self.ID, snap.SelfID)
	req.Len(snap.Participants, 1)
	req.Equal(aliceID, snap.Participants[0].ID)
	req.Equal(domain.RoleHost, snap.Participants[0].Role)

	// And Alice hears about Bob exactly once
	events = alice.drain(t)
	req.Len(events, 1)
	joined, ok := events[0].(protocol.ParticipantJoined)
	req.True(ok)
	req.Equal(res.Self.ID, joined.Participant.ID)
	req.Equal("Bob", joined.Participant.Name)

	info, err := h.o.Lookup("ABCD-1234")
	req.NoError(err)
	req.Equal(2, info.ParticipantCount)
	req.Equal("Alice", info.HostName)
}

func TestJoin_Rejections(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, app.SimplePolicy{})
	h.connect("host")
	cfg := domain.DefaultMeetingConfig()
	cfg.MaxParticipants = 2
	code, _, err := h.o.OnCreate("host", "Host", &cfg)
	req.NoError(err)

	h.connect("g1")
	_, err = h.o.OnJoin("g1", "nope", "G1")
	req.ErrorIs(err, domain.ErrNotFound)
	_, err = h.o.OnJoin("g1", "ZZZZ-9999", "G1")
	req.ErrorIs(err, domain.ErrNotFound)
	_, err = h.o.OnJoin("g1", string(code), "   ")
	req.ErrorIs(err, domain.ErrNameEmpty)

	_, err = h.o.OnJoin("g1", string(code), "G1")
	req.NoError(err)

	// The meeting is at capacity now
	g2 := h.connect("g2")
	_, err = h.o.OnJoin("g2", string(code), "G2")
	req.ErrorIs(err, domain.ErrFull)
	req.Empty(g2.drain(t))
	_, _, bound := h.o.Registry.Resolve("g2")
	req.False(bound)
}

func TestRelay(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, app.SimplePolicy{})
	alice := h.connect("alice")
	bob := h.connect("bob")
	carol := h.connect("carol")
	code, aliceID, err := h.o.OnCreate("alice", "Alice", nil)
	req.NoError(err)
	bobJoin, err := h.o.OnJoin("bob", string(code), "Bob")
	req.NoError(err)
	alice.drain(t)
	bob.drain(t)

	// Given an offer from Alice to Bob
	payload := []byte(`{"sdp":"v=0","type":"offer"}`)
	req.True(h.o.Router.Relay("alice", protocol.TypeOffer, bobJoin.Self.ID, payload))

	// Then only Bob receives it, tagged with Alice's id
	events := bob.drain(t)
	req.Len(events, 1)
	relayed, ok := events[0].(protocol.Relayed)
	req.True(ok)
	req.Equal(protocol.TypeOffer, relayed.Kind)
	req.Equal(aliceID, relayed.SenderParticipantID)
	req.JSONEq(string(payload), string(relayed.Payload))
	req.Empty(alice.drain(t))

	// Unknown targets and unbound senders are dropped
	req.False(h.o.Router.Relay("alice", protocol.TypeCandidate, "ghost", payload))
	req.False(h.o.Router.Relay("carol", protocol.TypeCandidate, aliceID, payload))
	req.Empty(alice.drain(t))
	req.Empty(carol.drain(t))

	// A participant that left is a stale target
	h.o.OnDisconnect("bob")
	req.False(h.o.Router.Relay("alice", protocol.TypeAnswer, bobJoin.Self.ID, payload))
}

func TestLeave_IsIdempotent(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, app.SimplePolicy{})
	alice := h.connect("alice")
	bob := h.connect("bob")
	code, _, err := h.o.OnCreate("alice", "Alice", nil)
	req.NoError(err)
	bobJoin, err := h.o.OnJoin("bob", string(code), "Bob")
	req.NoError(err)
	alice.drain(t)
	bob.drain(t)

	// When Bob leaves explicitly and then his connection drops
	req.NoError(h.o.OnExplicitLeave("bob", string(code)))
	h.o.OnDisconnect("bob")
	req.NoError(h.o.OnExplicitLeave("bob", string(code)))

	// Then Alice sees exactly one participant-left
	req.Equal([]protocol.Message{protocol.ParticipantLeft{ParticipantID: bobJoin.Self.ID}}, alice.drain(t))
	req.Equal([]protocol.Message{protocol.Left{MeetingCode: code}}, bob.drain(t))

	// And the last leave deletes the meeting
	h.o.OnDisconnect("alice")
	_, err = h.o.Lookup(string(code))
	req.ErrorIs(err, domain.ErrNotFound)
	req.Equal(0, h.o.Meetings.Len())
}

func TestLeave_WrongMeeting(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, app.SimplePolicy{})
	h.connect("alice")
	_, _, err := h.o.OnCreate("alice", "Alice", nil)
	req.NoError(err)

	req.ErrorIs(h.o.OnExplicitLeave("alice", "ZZZZ-0000"), domain.ErrNotMember)
	_, _, bound := h.o.Registry.Resolve("alice")
	req.True(bound)
}

func TestHostLeaves_HandsOver(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, app.SimplePolicy{})
	alice := h.connect("alice")
	bob := h.connect("bob")
	carol := h.connect("carol")
	code, aliceID, err := h.o.OnCreate("alice", "Alice", nil)
	req.NoError(err)
	bobJoin, err := h.o.OnJoin("bob", string(code), "Bob")
	req.NoError(err)
	_, err = h.o.OnJoin("carol", string(code), "Carol")
	req.NoError(err)
	alice.drain(t)
	bob.drain(t)
	carol.drain(t)

	h.o.OnDisconnect("alice")

	// Bob joined first so he becomes host
	want := []protocol.Message{
		protocol.ParticipantLeft{ParticipantID: aliceID},
		protocol.HostChanged{ParticipantID: bobJoin.Self.ID},
	}
	req.Equal(want, bob.drain(t))
	req.Equal(want, carol.drain(t))

	m, err := h.o.Meetings.Get(code)
	req.NoError(err)
	req.Equal(bobJoin.Self.ID, m.HostID)
	req.Equal("Bob", m.HostName)

	// The new host may end the meeting
	req.NoError(h.o.EndMeeting("bob", string(code)))
	req.Equal([]protocol.Message{protocol.MeetingEnded{Reason: protocol.ReasonEndedByHost}}, carol.drain(t))
	req.Equal([]protocol.Message{protocol.Left{MeetingCode: code}}, bob.drain(t))
	_, err = h.o.Lookup(string(code))
	req.ErrorIs(err, domain.ErrNotFound)
}

func TestHostLeaves_EndsMeetingWhenAuthoritative(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, app.SimplePolicy{HostLeavesEndsMeeting: true})
	h.connect("alice")
	bob := h.connect("bob")
	code, _, err := h.o.OnCreate("alice", "Alice", nil)
	req.NoError(err)
	_, err = h.o.OnJoin("bob", string(code), "Bob")
	req.NoError(err)
	bob.drain(t)

	h.o.OnDisconnect("alice")

	req.Equal([]protocol.Message{protocol.MeetingEnded{Reason: protocol.ReasonHostLeft}}, bob.drain(t))
	_, _, bound := h.o.Registry.Resolve("bob")
	req.False(bound)
	req.Equal(0, h.o.Meetings.Len())

	// Bob's later leave changes nothing
	req.NoError(h.o.OnExplicitLeave("bob", string(code)))
	req.Empty(bob.drain(t))
}

func TestEndMeeting_OnlyHost(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, app.SimplePolicy{})
	h.connect("alice")
	h.connect("bob")
	code, _, err := h.o.OnCreate("alice", "Alice", nil)
	req.NoError(err)
	_, err = h.o.OnJoin("bob", string(code), "Bob")
	req.NoError(err)

	req.ErrorIs(h.o.EndMeeting("bob", string(code)), domain.ErrNotHost)
	_, err = h.o.Lookup(string(code))
	req.NoError(err)
}

func TestJoinAnotherMeeting_LeavesPrevious(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, app.SimplePolicy{}, "AAAA-1111", "BBBB-2222")
	alice := h.connect("alice")
	h.connect("bob")
	carol := h.connect("carol")
	first, _, err := h.o.OnCreate("alice", "Alice", nil)
	req.NoError(err)
	second, _, err := h.o.OnCreate("bob", "Bob", nil)
	req.NoError(err)

	carolFirst, err := h.o.OnJoin("carol", string(first), "Carol")
	req.NoError(err)
	alice.drain(t)
	carol.drain(t)

	carolSecond, err := h.o.OnJoin("carol", string(second), "Carol")
	req.NoError(err)

	req.Equal([]protocol.Message{protocol.ParticipantLeft{ParticipantID: carolFirst.Self.ID}}, alice.drain(t))
	events := carol.drain(t)
	req.Len(events, 2)
	req.Equal(protocol.Left{MeetingCode: first}, events[0])
	snap, ok := events[1].(protocol.RosterSnapshot)
	req.True(ok)
	req.Equal(carolSecond.Self.ID, snap.SelfID)
	code, _, ok := h.o.Registry.Resolve("carol")
	req.True(ok)
	req.Equal(second, code)
}

func TestRejectedJoin_KeepsCurrentMeeting(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, app.SimplePolicy{}, "AAAA-1111", "BBBB-2222")
	alice := h.connect("alice")
	h.connect("bob")
	carol := h.connect("carol")
	first, _, err := h.o.OnCreate("alice", "Alice", nil)
	req.NoError(err)
	full, _, err := h.o.OnCreate("bob", "Bob", &domain.MeetingConfig{MaxParticipants: 1, AllowChat: true})
	req.NoError(err)
	_, err = h.o.OnJoin("carol", string(first), "Carol")
	req.NoError(err)
	alice.drain(t)
	carol.drain(t)

	// When Carol tries a meeting that does not exist, one that is full,
	// and one with a bad name
	_, err = h.o.OnJoin("carol", "ZZZZ-9999", "Carol")
	req.ErrorIs(err, domain.ErrNotFound)
	_, err = h.o.OnJoin("carol", string(full), "Carol")
	req.ErrorIs(err, domain.ErrFull)
	_, err = h.o.OnJoin("carol", string(full), "   ")
	req.ErrorIs(err, domain.ErrNameEmpty)

	// Then she is still in the first meeting and nobody was told otherwise
	code, _, ok := h.o.Registry.Resolve("carol")
	req.True(ok)
	req.Equal(first, code)
	info, err := h.o.Lookup(string(first))
	req.NoError(err)
	req.Equal(2, info.ParticipantCount)
	req.Empty(alice.drain(t))
	req.Empty(carol.drain(t))
	req.Equal(2, h.o.Meetings.Len())
}

func TestChat(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, app.SimplePolicy{})
	alice := h.connect("alice")
	bob := h.connect("bob")
	code, aliceID, err := h.o.OnCreate("alice", "Alice", nil)
	req.NoError(err)
	_, err = h.o.OnJoin("bob", string(code), "Bob")
	req.NoError(err)
	alice.drain(t)
	bob.drain(t)

	// Given a message from Alice
	req.NoError(h.o.Router.Chat("alice", string(code), "  hello  "))

	// Then Bob receives it and Alice does not get an echo
	events := bob.drain(t)
	req.Len(events, 1)
	msg, ok := events[0].(protocol.ChatEvent)
	req.True(ok)
	req.Equal(aliceID, msg.SenderID)
	req.Equal("Alice", msg.SenderName)
	req.Equal("hello", msg.Text)
	req.Empty(alice.drain(t))

	req.ErrorIs(h.o.Router.Chat("alice", string(code), " "), domain.ErrEmptyMessage)

	// The limiter allows three messages per minute
	req.NoError(h.o.Router.Chat("alice", string(code), "two"))
	req.NoError(h.o.Router.Chat("alice", string(code), "three"))
	req.ErrorIs(h.o.Router.Chat("alice", string(code), "four"), domain.ErrRateLimited)
}

func TestChat_DisabledAndTruncated(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, app.SimplePolicy{}, "AAAA-1111", "BBBB-2222")
	h.connect("alice")
	bob := h.connect("bob")
	h.connect("carol")

	cfg := domain.DefaultMeetingConfig()
	cfg.AllowChat = false
	quiet, _, err := h.o.OnCreate("alice", "Alice", &cfg)
	req.NoError(err)
	req.ErrorIs(h.o.Router.Chat("alice", string(quiet), "hi"), domain.ErrChatDisabled)

	open, _, err := h.o.OnCreate("carol", "Carol", nil)
	req.NoError(err)
	_, err = h.o.OnJoin("bob", string(open), "Bob")
	req.NoError(err)
	bob.drain(t)

	long := make([]rune, domain.MaxChatLength+10)
	for i := range long {
		long[i] = 'é'
	}
	req.NoError(h.o.Router.Chat("carol", string(open), string(long)))
	events := bob.drain(t)
	req.Len(events, 1)
	req.Len([]rune(events[0].(protocol.ChatEvent).Text), domain.MaxChatLength)
}

func TestChat_RejectedMessagesKeepTheirSlot(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, app.SimplePolicy{})
	h.connect("alice")
	bob := h.connect("bob")
	cfg := domain.DefaultMeetingConfig()
	cfg.AllowChat = false
	code, _, err := h.o.OnCreate("alice", "Alice", &cfg)
	req.NoError(err)
	_, err = h.o.OnJoin("bob", string(code), "Bob")
	req.NoError(err)
	bob.drain(t)

	// Given more rejected messages than the limit allows
	for i := 0; i < 5; i++ {
		req.ErrorIs(h.o.Router.Chat("alice", string(code), "hi"), domain.ErrChatDisabled)
	}

	// When chat is turned on
	req.NoError(h.o.Meetings.Update(code, func(tx *app.MeetingTx) error {
		tx.Meeting.Config.AllowChat = true
		return nil
	}))

	// Then the full window is still available
	for i := 0; i < 3; i++ {
		req.NoError(h.o.Router.Chat("alice", string(code), "hi"))
	}
	req.ErrorIs(h.o.Router.Chat("alice", string(code), "hi"), domain.ErrRateLimited)
	req.Len(bob.drain(t), 3)
}

func TestBackpressure_KicksSlowConnection(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, app.SimplePolicy{})
	h.connect("alice")
	bob := h.connect("bob")
	code, _, err := h.o.OnCreate("alice", "Alice", nil)
	req.NoError(err)
	_, err = h.o.OnJoin("bob", string(code), "Bob")
	req.NoError(err)

	// Given Bob's outbound queue is full
	bob.mu.Lock()
	bob.full = true
	bob.mu.Unlock()

	h.connect("carol")
	_, err = h.o.OnJoin("carol", string(code), "Carol")
	req.NoError(err)

	// Then Bob's connection is cancelled, Alice's is not
	h.mu.Lock()
	defer h.mu.Unlock()
	req.True(h.cancelled["bob"])
	req.False(h.cancelled["alice"])
}

func TestConcurrentJoins_RespectCapacity(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, app.SimplePolicy{})
	h.connect("host")
	code, _, err := h.o.OnCreate("host", "Host", nil)
	req.NoError(err)

	ids := []core.ConnectionID{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	for _, id := range ids {
		h.connect(id)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for _, id := range ids {
		wg.Add(1)
		go func(id core.ConnectionID) {
			defer wg.Done()
			if _, err := h.o.OnJoin(id, string(code), string(id)); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	req.Equal(domain.DefaultMaxParticipants-1, admitted)
	info, err := h.o.Lookup(string(code))
	req.NoError(err)
	req.Equal(domain.DefaultMaxParticipants, info.ParticipantCount)
}
