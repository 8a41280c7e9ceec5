package rtc

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Meet/internal/mesh"
	"github.com/google/uuid"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

const (
	opusPayloadType = 111
	opusFrame       = 20 * time.Millisecond
	opusClockRate   = 48000
)

// opusSilence is a single Opus frame of digital silence.
var opusSilence = []byte{0xf8, 0xff, 0xfe}

// StaticMedia is the local media of a headless participant. It either has no
// tracks at all or one audio track that carries silence.
type StaticMedia struct {
	tracks []webrtc.TrackLocal
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NoMedia is a participant without any capture device.
func NoMedia() *StaticMedia {
	return &StaticMedia{}
}

// NewSilentAudio starts a local audio track that sends silence.
func NewSilentAudio(ctx context.Context) (*StaticMedia, error) {
	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: opusClockRate, Channels: 2},
		"audio-"+uuid.NewString(), "meet")
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	m := &StaticMedia{tracks: []webrtc.TrackLocal{track}, cancel: cancel}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		writeSilence(ctx, track)
	}()
	return m, nil
}

func (m *StaticMedia) Tracks() ([]webrtc.TrackLocal, error) {
	if len(m.tracks) == 0 {
		return nil, mesh.ErrMediaUnavailable
	}
	return m.tracks, nil
}

func (m *StaticMedia) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func writeSilence(ctx context.Context, track PacketWriter) {
	ticker := time.NewTicker(opusFrame)
	defer ticker.Stop()

	samplesPerFrame := uint32(opusClockRate * opusFrame / time.Second)
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:     2,
			PayloadType: opusPayloadType,
		},
		Payload: opusSilence,
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pkt.SequenceNumber++
			pkt.Timestamp += samplesPerFrame
			if err := track.WriteRTP(pkt); err != nil {
				log.Debug().Err(err).Str("module", "rtc.media").Msg("write silence")
			}
		}
	}
}
