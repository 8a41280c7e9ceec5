// Package client is the participant side of the coordinator protocol. It owns
// one WebSocket to the coordinator and feeds the mesh manager of the current
// meeting.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/Meet/internal/adapters/rtc"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/mesh"
	"github.com/dkeye/Meet/internal/protocol"
	"github.com/dkeye/Meet/internal/roster"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

var (
	ErrClosed    = errors.New("client closed")
	ErrNoMeeting = errors.New("not in a meeting")
)

// Dependencies are the pieces a client drives. Media is called once per
// meeting because leaving stops the local tracks.
type Dependencies struct {
	Factory    mesh.PeerConnectionFactory
	Media      func() mesh.LocalMedia
	Projection roster.Projection
	Mesh       mesh.Config
	Logger     zerolog.Logger
}

type Client struct {
	deps   Dependencies
	conn   *websocket.Conn
	send   chan []byte
	logger zerolog.Logger
	pumps  *rtc.PumpManager
	stats  *rtc.PacketCounter

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// reqMu keeps one awaited request in flight.
	reqMu sync.Mutex

	mu       sync.Mutex
	pending  *call
	mesh     *mesh.Manager
	code     domain.MeetingCode
	self     domain.ParticipantID
	name     string
}

// Dial connects to the coordinator's signaling endpoint.
func Dial(ctx context.Context, url string, deps Dependencies) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if deps.Media == nil {
		deps.Media = func() mesh.LocalMedia { return rtc.NoMedia() }
	}
	if deps.Projection == nil {
		deps.Projection = roster.New()
	}
	if deps.Mesh == (mesh.Config{}) {
		deps.Mesh = mesh.DefaultConfig()
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		deps:   deps,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: deps.Logger.With().Str("module", "client").Logger(),
		pumps:  rtc.NewPumpManager(),
		stats:  &rtc.PacketCounter{},
		ctx:    cctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.readPump()
	go c.writePump()
	return c, nil
}

// Done is closed once the connection to the coordinator is gone.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close tears down the mesh and the connection. It does not send leave: the
// coordinator treats the disconnect as one.
func (c *Client) Close() {
	c.teardown()
	c.cancel()
	<-c.done
}

// Received reports how much remote media reached this participant.
func (c *Client) Received() (packets, bytes uint64) {
	return c.stats.Packets(), c.stats.Bytes()
}

func (c *Client) Meeting() (domain.MeetingCode, domain.ParticipantID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code, c.self
}

// Sessions is the mesh snapshot of the current meeting.
func (c *Client) Sessions() []mesh.SessionInfo {
	m := c.currentMesh()
	if m == nil {
		return nil
	}
	return m.Sessions()
}

func (c *Client) currentMesh() *mesh.Manager {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mesh
}

func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.teardown()
		c.failPending()
		_ = c.conn.Close()
		close(c.done)
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := protocol.DecodeEvent(data)
		if err != nil {
			c.logger.Warn().Err(err).Msg("ignoring undecodable event")
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cancel()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Error().Err(err).Msg("write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Warn().Err(err).Msg("ping failed")
				return
			}
		}
	}
}

// enqueue hands a message to the write pump.
func (c *Client) enqueue(ctx context.Context, m protocol.Message) error {
	data, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return ErrClosed
	}
}

// call is the request currently waiting for its reply.
type call struct {
	expect protocol.Type
	// barrier calls end with a ping; errors before the pong belong to them.
	barrier bool
	replies chan protocol.Message
}

// request sends msgs and waits for the reply of kind expect. Replies come back
// in request order, so a single pending call is enough.
func (c *Client) request(ctx context.Context, expect protocol.Type, msgs ...protocol.Message) (protocol.Message, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	cl := &call{
		expect:  expect,
		barrier: expect == protocol.TypePong && len(msgs) > 1,
		replies: make(chan protocol.Message, len(msgs)+1),
	}
	c.mu.Lock()
	c.pending = cl
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		if c.pending == cl {
			c.pending = nil
		}
		c.mu.Unlock()
	}()

	for _, m := range msgs {
		if err := c.enqueue(ctx, m); err != nil {
			return nil, err
		}
	}

	var failed error
	for {
		select {
		case reply, ok := <-cl.replies:
			if !ok {
				return nil, ErrClosed
			}
			if e, isErr := reply.(protocol.ErrorMsg); isErr {
				failed = fmt.Errorf("%s: %w", msgs[0].MessageType(), e.Err())
				if cl.barrier {
					continue
				}
				return nil, failed
			}
			if failed != nil {
				return nil, failed
			}
			return reply, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.done:
			return nil, ErrClosed
		}
	}
}

// reply hands m to the pending call. It reports false when nobody waits for
// it, e.g. a pong that outlived its call.
func (c *Client) reply(m protocol.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl := c.pending
	if cl == nil {
		return false
	}
	_, isErr := m.(protocol.ErrorMsg)
	if !isErr && m.MessageType() != cl.expect {
		return false
	}
	select {
	case cl.replies <- m:
	default:
		return false
	}
	return true
}

func (c *Client) failPending() {
	c.mu.Lock()
	cl := c.pending
	c.pending = nil
	c.mu.Unlock()
	if cl != nil {
		close(cl.replies)
	}
}

// enter starts a fresh mesh for a meeting this client just entered.
func (c *Client) enter(code domain.MeetingCode, self domain.ParticipantID) *mesh.Manager {
	c.teardown()
	m := mesh.NewManager(c.deps.Factory, c, c.deps.Media(), observer{c}, c.deps.Logger, c.deps.Mesh)
	c.mu.Lock()
	c.mesh = m
	c.code = code
	c.self = self
	c.mu.Unlock()
	c.logger.Info().Str("meeting", string(code)).Str("self", string(self)).Msg("entered meeting")
	return m
}

// teardown closes the mesh of the current meeting. No media flows to any peer
// once it returns.
func (c *Client) teardown() {
	c.mu.Lock()
	m := c.mesh
	c.mesh = nil
	c.code = ""
	c.self = ""
	c.mu.Unlock()
	if m == nil {
		return
	}
	m.Close()
	c.pumps.StopAll()
}

// observer starts draining remote tracks before the projection sees them.
type observer struct{ c *Client }

func (o observer) OnSessionState(info mesh.SessionInfo) {
	if info.Degraded {
		o.c.logger.Warn().Str("peer", string(info.Peer)).Str("state", string(info.State)).Msg("peer session degraded")
	}
	o.c.deps.Projection.OnSessionState(info)
}

func (o observer) OnRemoteTrack(peer domain.ParticipantID, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
	o.c.pumps.Start(o.c.ctx, peer, track.ID(), track, map[string]*rtc.Sink{
		"stats": rtc.NewSink(o.c.stats),
	})
	o.c.deps.Projection.OnRemoteTrack(peer, track, receiver)
}
