package orch

import (
	"github.com/dkeye/Meet/internal/app"
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Orchestrator is the session coordinator: it turns connection-level events
// into meeting membership changes and broadcasts the result.
//
// Every mutation of a meeting, together with the sends it causes, runs inside
// MeetingStore.Update, so all members observe membership changes in the order
// they were processed. Sends only enqueue (SignalConnection.TrySend) and never
// block on the network.
type Orchestrator struct {
	Registry *app.Registry
	Meetings *app.MeetingStore
	Policy   app.Policy
	Defaults domain.MeetingConfig
	Router   *Router
}

func New(reg *app.Registry, meetings *app.MeetingStore, policy app.Policy, limiter *app.ChatRateLimiter, defaults domain.MeetingConfig) *Orchestrator {
	return &Orchestrator{
		Registry: reg,
		Meetings: meetings,
		Policy:   policy,
		Defaults: defaults,
		Router: &Router{
			Registry: reg,
			Meetings: meetings,
			Policy:   policy,
			Limiter:  limiter,
		},
	}
}

// send enqueues one message for conn and records back-pressure in res.
func send(reg *app.Registry, res *core.PublishResult, conn core.ConnectionID, m protocol.Message) {
	frame, err := protocol.Encode(m)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode message")
		return
	}
	sendFrame(reg, res, conn, frame)
}

func sendFrame(reg *app.Registry, res *core.PublishResult, conn core.ConnectionID, frame core.Frame) {
	sc, ok := reg.Conn(conn)
	if !ok {
		return
	}
	if err := sc.TrySend(frame); err != nil {
		res.Dropped = append(res.Dropped, conn)
		return
	}
	res.SendTo++
}

// broadcast sends m to every member except one participant.
func broadcast(reg *app.Registry, roster *core.Roster, except domain.ParticipantID, m protocol.Message) core.PublishResult {
	res := core.PublishResult{}
	frame, err := protocol.Encode(m)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode broadcast")
		return res
	}
	for _, member := range roster.Members() {
		if member.Participant.ID == except {
			continue
		}
		sendFrame(reg, &res, member.Conn, frame)
	}
	log.Debug().Str("module", "orch").Str("type", string(m.MessageType())).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

// handleDropped applies the back-pressure policy. Must run outside meeting locks.
func handleDropped(reg *app.Registry, policy app.Policy, code domain.MeetingCode, res core.PublishResult) {
	if policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch policy.OnBackPressure(code, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("conn", string(slow)).Str("meeting", string(code)).Msg("kicking slow connection")
			reg.Cancel(slow)
		case app.MarkSlow, app.DropFrame, app.NoAction:
		}
	}
}
