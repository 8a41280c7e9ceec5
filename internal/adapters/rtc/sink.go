package rtc

import (
	"sync/atomic"

	"github.com/pion/rtp"
)

type SinkState int32

const (
	SinkActive SinkState = iota
	SinkMuted
	SinkRemoved
)

// PacketWriter accepts RTP packets, e.g. *webrtc.TrackLocalStaticRTP.
type PacketWriter interface {
	WriteRTP(*rtp.Packet) error
}

// Sink is one consumer of a remote track.
type Sink struct {
	W     PacketWriter
	state atomic.Int32 // SinkActive by default
}

func NewSink(w PacketWriter) *Sink {
	return &Sink{W: w}
}

func (s *Sink) State() SinkState {
	return SinkState(s.state.Load())
}

func (s *Sink) SetMuted(muted bool) {
	if muted {
		s.state.CompareAndSwap(int32(SinkActive), int32(SinkMuted))
		return
	}
	s.state.CompareAndSwap(int32(SinkMuted), int32(SinkActive))
}

func (s *Sink) Remove() {
	s.state.Store(int32(SinkRemoved))
}

// PacketCounter is a sink that only keeps receive statistics.
type PacketCounter struct {
	packets atomic.Uint64
	bytes   atomic.Uint64
}

func (c *PacketCounter) WriteRTP(pkt *rtp.Packet) error {
	c.packets.Add(1)
	c.bytes.Add(uint64(len(pkt.Payload)))
	return nil
}

func (c *PacketCounter) Packets() uint64 { return c.packets.Load() }
func (c *PacketCounter) Bytes() uint64   { return c.bytes.Load() }
