package rtc

import (
	"context"
	"errors"
	"io"

	"github.com/dkeye/Meet/internal/config"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/mesh"
	"github.com/pion/interceptor"
	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

// Connection adapts a pion PeerConnection to mesh.PeerConnection.
type Connection struct {
	pc     *webrtc.PeerConnection
	peer   domain.ParticipantID
	logger zerolog.Logger
	events mesh.PeerEvents
	video  *webrtc.RTPSender
}

// ICEConfiguration converts configured STUN/TURN servers.
func ICEConfiguration(servers []config.ICEServer) webrtc.Configuration {
	cfg := webrtc.Configuration{}
	for _, s := range servers {
		ice := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != "" {
			ice.Credential = s.Credential
			ice.CredentialType = webrtc.ICECredentialTypePassword
		}
		cfg.ICEServers = append(cfg.ICEServers, ice)
	}
	return cfg
}

type Factory struct {
	api    *webrtc.API
	config webrtc.Configuration
	logger zerolog.Logger
}

// NewFactory builds a pion API with the default codecs and interceptors.
func NewFactory(servers []config.ICEServer, logger zerolog.Logger) (*Factory, error) {
	media := &webrtc.MediaEngine{}
	if err := media.RegisterDefaultCodecs(); err != nil {
		return nil, err
	}
	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(media, registry); err != nil {
		return nil, err
	}
	return &Factory{
		api:    webrtc.NewAPI(webrtc.WithMediaEngine(media), webrtc.WithInterceptorRegistry(registry)),
		config: ICEConfiguration(servers),
		logger: logger.With().Str("module", "rtc").Logger(),
	}, nil
}

// NewPeerConnection adds the given outgoing tracks. Without outgoing audio a
// receive-only transceiver is added. Without outgoing video a send-receive
// transceiver with a silent placeholder track is added, so a camera that shows
// up later is a ReplaceTrack and never needs a new offer. pion cannot roll
// back a local offer, so offers from both sides at once could not be undone.
func (f *Factory) NewPeerConnection(peer domain.ParticipantID, tracks []webrtc.TrackLocal, events mesh.PeerEvents) (mesh.PeerConnection, error) {
	pc, err := f.api.NewPeerConnection(f.config)
	if err != nil {
		return nil, err
	}
	c := &Connection{
		pc:     pc,
		peer:   peer,
		logger: f.logger.With().Str("peer", string(peer)).Logger(),
		events: events,
	}

	sending := map[webrtc.RTPCodecType]bool{}
	for _, t := range tracks {
		sender, err := pc.AddTrack(t)
		if err != nil {
			_ = pc.Close()
			return nil, err
		}
		go c.drainRTCP(sender)
		if t.Kind() == webrtc.RTPCodecTypeVideo {
			c.video = sender
		}
		sending[t.Kind()] = true
	}
	if !sending[webrtc.RTPCodecTypeAudio] {
		if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio, webrtc.RTPTransceiverInit{Direction: webrtc.RTPTransceiverDirectionRecvonly}); err != nil {
			_ = pc.Close()
			return nil, err
		}
	}
	if !sending[webrtc.RTPCodecTypeVideo] {
		tr, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{Direction: webrtc.RTPTransceiverDirectionSendrecv})
		if err != nil {
			_ = pc.Close()
			return nil, err
		}
		c.video = tr.Sender()
		go c.drainRTCP(c.video)
	}

	c.bind()
	return c, nil
}

func (c *Connection) bind() {
	c.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		c.logger.Debug().Str("ice_state", s.String()).Msg("ICE state")
	})

	c.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		c.logger.Info().Str("peer_connection_state", s.String()).Msg("Peer state")
		if c.events.OnConnectionState != nil {
			c.events.OnConnectionState(s)
		}
	})

	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand != nil && c.events.OnCandidate != nil {
			c.events.OnCandidate(cand.ToJSON())
		}
	})

	c.pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		c.logger.Info().
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Str("stream_id", track.StreamID()).
			Msg("OnTrack received")
		if track.Kind() == webrtc.RTPCodecTypeVideo {
			c.requestKeyframe(track)
		}
		if c.events.OnTrack != nil {
			c.events.OnTrack(track, receiver)
		}
	})
}

func (c *Connection) CreateOffer(ctx context.Context) (webrtc.SessionDescription, error) {
	if err := ctx.Err(); err != nil {
		return webrtc.SessionDescription{}, err
	}
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	return offer, nil
}

func (c *Connection) AcceptOffer(ctx context.Context, offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	if err := ctx.Err(); err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := c.pc.SetRemoteDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := c.pc.SetLocalDescription(answer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	return answer, nil
}

func (c *Connection) AcceptAnswer(answer webrtc.SessionDescription) error {
	return c.pc.SetRemoteDescription(answer)
}

func (c *Connection) AddICECandidate(ci webrtc.ICECandidateInit) error {
	return c.pc.AddICECandidate(ci)
}

// ReplaceVideo swaps the track on the video sender every connection carries.
func (c *Connection) ReplaceVideo(track webrtc.TrackLocal) (bool, error) {
	return false, c.video.ReplaceTrack(track)
}

func (c *Connection) Close() error {
	err := c.pc.Close()
	if err != nil {
		c.logger.Error().Err(err).Msg("close error")
	} else {
		c.logger.Info().Msg("closed")
	}
	return err
}

// drainRTCP keeps interceptors running for an outgoing track.
func (c *Connection) drainRTCP(sender *webrtc.RTPSender) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := sender.Read(buf); err != nil {
			if !errors.Is(err, io.EOF) {
				c.logger.Debug().Err(err).Msg("rtcp reader stopped")
			}
			return
		}
	}
}

func (c *Connection) requestKeyframe(track *webrtc.TrackRemote) {
	err := c.pc.WriteRTCP([]rtcp.Packet{&rtcp.PictureLossIndication{MediaSSRC: uint32(track.SSRC())}})
	if err != nil {
		c.logger.Debug().Err(err).Msg("keyframe request")
	}
}
