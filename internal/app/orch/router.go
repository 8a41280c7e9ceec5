package orch

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/dkeye/Meet/internal/app"
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Router forwards negotiation messages between members of the same meeting
// and fans out chat. It never inspects negotiation payloads.
type Router struct {
	Registry *app.Registry
	Meetings *app.MeetingStore
	Policy   app.Policy
	Limiter  *app.ChatRateLimiter
}

// Relay delivers one negotiation message to target. Messages from unbound
// senders or for targets outside the sender's meeting are dropped silently.
func (r *Router) Relay(sender core.ConnectionID, kind protocol.Type, target domain.ParticipantID, payload json.RawMessage) bool {
	code, from, ok := r.Registry.Resolve(sender)
	if !ok {
		log.Debug().Str("module", "orch.router").Str("conn", string(sender)).Str("type", string(kind)).Msg("relay from unbound connection dropped")
		return false
	}
	if target == from {
		return false
	}

	delivered := false
	res := core.PublishResult{}
	err := r.Meetings.Update(code, func(tx *app.MeetingTx) error {
		to, ok := tx.Roster.Get(target)
		if !ok {
			return nil
		}
		send(r.Registry, &res, to.Conn, protocol.Relayed{
			Kind:                kind,
			SenderParticipantID: from,
			Payload:             payload,
		})
		delivered = res.SendTo > 0
		return nil
	})
	handleDropped(r.Registry, r.Policy, code, res)
	if err != nil || !delivered {
		log.Debug().Str("module", "orch.router").Str("meeting", string(code)).Str("target", string(target)).Str("type", string(kind)).Msg("relay to stale target dropped")
		return false
	}
	return true
}

// Chat broadcasts text from the sender to every other member.
func (r *Router) Chat(sender core.ConnectionID, rawCode string, text string) error {
	code, from, ok := r.Registry.Resolve(sender)
	if !ok {
		return domain.ErrNotMember
	}
	if rawCode != "" {
		if c, valid := domain.ParseCode(rawCode); !valid || c != code {
			return domain.ErrNotMember
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > domain.MaxChatLength {
		text = string([]rune(text)[:domain.MaxChatLength])
	}

	res := core.PublishResult{}
	err := r.Meetings.Update(code, func(tx *app.MeetingTx) error {
		if !tx.Meeting.Config.AllowChat {
			return domain.ErrChatDisabled
		}
		self, ok := tx.Roster.Get(from)
		if !ok {
			return domain.ErrNotMember
		}
		// Only messages that would be delivered count against the window.
		if !r.Limiter.Allow(from) {
			return domain.ErrRateLimited
		}
		res = broadcast(r.Registry, tx.Roster, from, protocol.ChatEvent{
			SenderID:   from,
			SenderName: self.Participant.Name,
			Text:       text,
			Timestamp:  r.Meetings.Now(),
		})
		return nil
	})
	handleDropped(r.Registry, r.Policy, code, res)
	return err
}
