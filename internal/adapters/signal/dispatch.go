package signal

import (
	"github.com/dkeye/Meet/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleSignal(c *WsSignalConn, data []byte) {
	m, err := protocol.DecodeRequest(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("rejected message")
		ctl.replyError(c, err)
		return
	}

	switch m := m.(type) {
	case protocol.Create:
		if _, _, err := ctl.Orch.OnCreate(c.id, m.HostName, m.Config); err != nil {
			ctl.replyError(c, err)
		}
	case protocol.Join:
		if _, err := ctl.Orch.OnJoin(c.id, m.MeetingCode, m.ParticipantName); err != nil {
			ctl.replyError(c, err)
		}
	case protocol.Leave:
		if err := ctl.Orch.OnExplicitLeave(c.id, m.MeetingCode); err != nil {
			ctl.replyError(c, err)
		}
	case protocol.EndMeeting:
		if err := ctl.Orch.EndMeeting(c.id, m.MeetingCode); err != nil {
			ctl.replyError(c, err)
		}
	case protocol.RelayRequest:
		ctl.Orch.Router.Relay(c.id, m.Kind, m.TargetParticipantID, m.Payload)
	case protocol.ChatRequest:
		if err := ctl.Orch.Router.Chat(c.id, m.MeetingCode, m.Text); err != nil {
			ctl.replyError(c, err)
		}
	case protocol.Ping:
		ctl.reply(c, protocol.Pong{})
	default:
		log.Warn().Str("module", "signal").Str("type", string(m.MessageType())).Msg("unhandled signal")
	}
}

func (ctl *SignalWSController) replyError(c *WsSignalConn, err error) {
	ctl.reply(c, protocol.ErrorFor(err))
}

func (ctl *SignalWSController) reply(c *WsSignalConn, m protocol.Message) {
	frame, err := protocol.Encode(m)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("reply encode")
		return
	}
	if err := c.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("reply dropped")
	}
}
