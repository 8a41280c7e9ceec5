package rtc

import (
	"context"
	"maps"
	"sync"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RTPReader is the read side of a remote track (*webrtc.TrackRemote).
type RTPReader interface {
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}

// Pump reads one remote track and fans packets out to its sinks.
type Pump struct {
	src RTPReader

	mu    sync.RWMutex
	sinks map[string]*Sink

	cancel context.CancelFunc
	done   chan struct{}
}

func newPump(src RTPReader, cancel context.CancelFunc) *Pump {
	return &Pump{
		src:    src,
		sinks:  make(map[string]*Sink),
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (p *Pump) loop(ctx context.Context, logger *zerolog.Logger) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("pump ctx done, removing sinks")
			p.removeAll()
			return
		default:
		}
		pkt, _, err := p.src.ReadRTP()
		if err != nil {
			logger.Debug().Err(err).Msg("pump read RTP stopped")
			p.removeAll()
			return
		}
		p.forward(pkt, logger)
	}
}

func (p *Pump) forward(pkt *rtp.Packet, logger *zerolog.Logger) {
	p.mu.RLock()
	snapshot := maps.Clone(p.sinks)
	p.mu.RUnlock()

	var dirty []string
	for name, sink := range snapshot {
		switch sink.State() {
		case SinkRemoved:
			dirty = append(dirty, name)
		case SinkMuted:
		case SinkActive:
			if err := sink.W.WriteRTP(pkt); err != nil {
				logger.Warn().Err(err).Str("sink", name).Msg("sink write error, removing sink")
				sink.Remove()
				dirty = append(dirty, name)
			}
		}
	}

	if len(dirty) > 0 {
		p.mu.Lock()
		for _, name := range dirty {
			delete(p.sinks, name)
		}
		p.mu.Unlock()
	}
}

func (p *Pump) removeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.sinks {
		s.Remove()
	}
}

func (p *Pump) AddSink(name string, s *Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sinks[name] = s
}

// Done is closed when the pump stopped reading.
func (p *Pump) Done() <-chan struct{} { return p.done }

// PumpManager tracks the pumps of every remote participant.
type PumpManager struct {
	mu    sync.Mutex
	pumps map[domain.ParticipantID]map[string]*Pump
}

func NewPumpManager() *PumpManager {
	return &PumpManager{pumps: make(map[domain.ParticipantID]map[string]*Pump)}
}

// Start begins pumping a remote track. A pump already running for the same
// track id is replaced.
func (m *PumpManager) Start(ctx context.Context, peer domain.ParticipantID, trackID string, src RTPReader, sinks map[string]*Sink) *Pump {
	logger := log.With().
		Str("module", "rtc.pump").
		Str("peer", string(peer)).
		Str("track_id", trackID).
		Logger()

	pumpCtx, cancel := context.WithCancel(ctx)
	pump := newPump(src, cancel)
	for name, s := range sinks {
		pump.AddSink(name, s)
	}

	m.mu.Lock()
	tracks, ok := m.pumps[peer]
	if !ok {
		tracks = make(map[string]*Pump)
		m.pumps[peer] = tracks
	}
	if old, ok := tracks[trackID]; ok {
		logger.Info().Msg("replacing existing pump")
		old.removeAll()
		old.cancel()
	}
	tracks[trackID] = pump
	m.mu.Unlock()

	logger.Info().Msg("starting pump")
	go pump.loop(pumpCtx, &logger)
	return pump
}

// SetMuted mutes or unmutes every sink of a peer locally.
func (m *PumpManager) SetMuted(peer domain.ParticipantID, muted bool) {
	m.mu.Lock()
	pumps := maps.Clone(m.pumps[peer])
	m.mu.Unlock()
	for _, p := range pumps {
		p.mu.RLock()
		for _, s := range p.sinks {
			s.SetMuted(muted)
		}
		p.mu.RUnlock()
	}
}

// StopPeer stops every pump of a peer that left.
func (m *PumpManager) StopPeer(peer domain.ParticipantID) {
	m.mu.Lock()
	pumps := m.pumps[peer]
	delete(m.pumps, peer)
	m.mu.Unlock()
	for _, p := range pumps {
		p.removeAll()
		p.cancel()
	}
}

func (m *PumpManager) StopAll() {
	m.mu.Lock()
	peers := make([]domain.ParticipantID, 0, len(m.pumps))
	for peer := range m.pumps {
		peers = append(peers, peer)
	}
	m.mu.Unlock()
	for _, peer := range peers {
		m.StopPeer(peer)
	}
}

func (m *PumpManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, tracks := range m.pumps {
		n += len(tracks)
	}
	return n
}
