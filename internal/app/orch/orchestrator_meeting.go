package orch

import (
	"errors"

	"github.com/dkeye/Meet/internal/app"
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
	"github.com/rs/zerolog/log"
)

type JoinResult struct {
	Code   domain.MeetingCode
	Self   domain.Participant
	Roster []domain.Participant
}

// OnCreate creates a meeting with the caller as host and sole participant.
// cfg nil means the server defaults.
func (o *Orchestrator) OnCreate(conn core.ConnectionID, hostName string, cfg *domain.MeetingConfig) (domain.MeetingCode, domain.ParticipantID, error) {
	host, err := domain.NewParticipant(hostName, domain.RoleHost, o.Meetings.Now())
	if err != nil {
		return "", "", err
	}
	o.switchAway(conn, "create")
	config := o.Defaults
	if cfg != nil {
		config = *cfg
	}

	code, err := o.Meetings.Create(*host, conn, config)
	if err != nil {
		return "", "", err
	}
	if err := o.Registry.Bind(conn, code, host.ID); err != nil {
		o.Meetings.Delete(code)
		return "", "", err
	}

	res := core.PublishResult{}
	send(o.Registry, &res, conn, protocol.MeetingCreated{MeetingCode: code, ParticipantID: host.ID})
	handleDropped(o.Registry, o.Policy, code, res)
	log.Info().Str("module", "orch").Str("conn", string(conn)).Str("meeting", string(code)).Msg("created meeting")
	return code, host.ID, nil
}

// OnJoin admits the caller into an existing meeting. The joiner receives the
// roster without itself; every other member receives one participant-joined.
func (o *Orchestrator) OnJoin(conn core.ConnectionID, rawCode string, name string) (JoinResult, error) {
	code, ok := domain.ParseCode(rawCode)
	if !ok {
		return JoinResult{}, domain.ErrNotFound
	}
	p, err := domain.NewParticipant(name, domain.RoleGuest, o.Meetings.Now())
	if err != nil {
		return JoinResult{}, err
	}
	if prev, _, ok := o.Registry.Resolve(conn); ok {
		// A rejected join leaves the current membership alone.
		if err := o.admissible(code); err != nil && (prev != code || !errors.Is(err, domain.ErrFull)) {
			log.Info().Err(err).Str("module", "orch").Str("conn", string(conn)).Str("meeting", string(code)).Msg("join rejected")
			return JoinResult{}, err
		}
		o.switchAway(conn, "join")
	}

	result := JoinResult{Code: code, Self: *p}
	res := core.PublishResult{}
	err = o.Meetings.Update(code, func(tx *app.MeetingTx) error {
		if tx.Roster.Len() >= tx.Meeting.Config.MaxParticipants {
			return domain.ErrFull
		}
		if err := tx.Roster.Add(core.NewMember(*p, conn)); err != nil {
			return err
		}
		if err := o.Registry.Bind(conn, code, p.ID); err != nil {
			tx.Roster.Remove(p.ID)
			return err
		}

		result.Roster = tx.Roster.Snapshot(p.ID)
		send(o.Registry, &res, conn, protocol.RosterSnapshot{
			MeetingCode:  code,
			SelfID:       p.ID,
			Participants: result.Roster,
		})
		res.Merge(broadcast(o.Registry, tx.Roster, p.ID, protocol.ParticipantJoined{Participant: *p}))
		return nil
	})
	handleDropped(o.Registry, o.Policy, code, res)
	if err != nil {
		log.Info().Err(err).Str("module", "orch").Str("conn", string(conn)).Str("meeting", string(code)).Msg("join rejected")
		return JoinResult{}, err
	}
	log.Info().Str("module", "orch").Str("conn", string(conn)).Str("meeting", string(code)).Str("participant", string(p.ID)).Msg("joined meeting")
	return result, nil
}

// OnExplicitLeave has the same effect as a disconnect. Safe to repeat.
func (o *Orchestrator) OnExplicitLeave(conn core.ConnectionID, rawCode string) error {
	bound, _, ok := o.Registry.Resolve(conn)
	if !ok {
		return nil
	}
	if rawCode != "" {
		if code, valid := domain.ParseCode(rawCode); !valid || code != bound {
			return domain.ErrNotMember
		}
	}
	o.depart(conn)

	res := core.PublishResult{}
	send(o.Registry, &res, conn, protocol.Left{MeetingCode: bound})
	return nil
}

// OnDisconnect removes whatever membership conn carried.
func (o *Orchestrator) OnDisconnect(conn core.ConnectionID) {
	if code, ok := o.depart(conn); ok {
		log.Info().Str("module", "orch").Str("conn", string(conn)).Str("meeting", string(code)).Msg("disconnected from meeting")
	}
}

// EndMeeting lets the host end the meeting for everybody.
func (o *Orchestrator) EndMeeting(conn core.ConnectionID, rawCode string) error {
	bound, pid, ok := o.Registry.Resolve(conn)
	if !ok {
		return domain.ErrNotMember
	}
	if code, valid := domain.ParseCode(rawCode); !valid || code != bound {
		return domain.ErrNotMember
	}

	res := core.PublishResult{}
	err := o.Meetings.Update(bound, func(tx *app.MeetingTx) error {
		if tx.Meeting.HostID != pid {
			return domain.ErrNotHost
		}
		o.evictAll(tx, pid, protocol.ReasonEndedByHost, &res)
		tx.Roster.Remove(pid)
		o.Registry.UnbindIf(conn, bound)
		send(o.Registry, &res, conn, protocol.Left{MeetingCode: bound})
		tx.End()
		return nil
	})
	handleDropped(o.Registry, o.Policy, bound, res)
	if err != nil {
		return err
	}
	log.Info().Str("module", "orch").Str("meeting", string(bound)).Msg("meeting ended by host")
	return nil
}

// Lookup returns the public view of a meeting.
func (o *Orchestrator) Lookup(rawCode string) (domain.MeetingInfo, error) {
	code, ok := domain.ParseCode(rawCode)
	if !ok {
		return domain.MeetingInfo{}, domain.ErrNotFound
	}
	return o.Meetings.Info(code)
}

// admissible reports whether code names a live meeting with room left.
func (o *Orchestrator) admissible(code domain.MeetingCode) error {
	info, err := o.Meetings.Info(code)
	if err != nil {
		return err
	}
	if info.ParticipantCount >= info.Config.MaxParticipants {
		return domain.ErrFull
	}
	return nil
}

// switchAway leaves the meeting conn is in, if any, before it creates or joins
// another one. The caller is told with left, as for an explicit leave.
func (o *Orchestrator) switchAway(conn core.ConnectionID, reason string) {
	prev, ok := o.depart(conn)
	if !ok {
		return
	}
	res := core.PublishResult{}
	send(o.Registry, &res, conn, protocol.Left{MeetingCode: prev})
	handleDropped(o.Registry, o.Policy, prev, res)
	log.Info().Str("module", "orch").Str("conn", string(conn)).Str("from_meeting", string(prev)).Str("reason", reason).Msg("left previous meeting")
}

// depart removes the membership bound to conn. Of concurrent leave and
// disconnect for the same connection only the first has any effect.
func (o *Orchestrator) depart(conn core.ConnectionID) (domain.MeetingCode, bool) {
	code, pid, ok := o.Registry.Release(conn)
	if !ok {
		return "", false
	}
	o.Router.Limiter.Forget(pid)

	res := core.PublishResult{}
	err := o.Meetings.Update(code, func(tx *app.MeetingTx) error {
		m, ok := tx.Roster.Remove(pid)
		if !ok {
			return nil
		}
		if m.Participant.IsHost() && o.Policy != nil && o.Policy.HostAuthoritative() {
			o.evictAll(tx, pid, protocol.ReasonHostLeft, &res)
			tx.End()
			return nil
		}

		res.Merge(broadcast(o.Registry, tx.Roster, pid, protocol.ParticipantLeft{ParticipantID: pid}))
		if m.Participant.IsHost() {
			o.handOver(tx, &res)
		}
		return nil
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Error().Err(err).Str("module", "orch").Str("meeting", string(code)).Msg("depart")
	}
	handleDropped(o.Registry, o.Policy, code, res)
	return code, true
}

// evictAll tells everyone but except that the meeting ended and unbinds them.
func (o *Orchestrator) evictAll(tx *app.MeetingTx, except domain.ParticipantID, reason string, res *core.PublishResult) {
	for _, m := range tx.Roster.Members() {
		if m.Participant.ID == except {
			continue
		}
		send(o.Registry, res, m.Conn, protocol.MeetingEnded{Reason: reason})
		o.Registry.UnbindIf(m.Conn, tx.Meeting.Code)
		o.Router.Limiter.Forget(m.Participant.ID)
		tx.Roster.Remove(m.Participant.ID)
	}
}

// handOver promotes the earliest-joined remaining member to host.
func (o *Orchestrator) handOver(tx *app.MeetingTx, res *core.PublishResult) {
	next, ok := tx.Roster.Oldest("")
	if !ok {
		return
	}
	tx.Roster.SetRole(next.Participant.ID, domain.RoleHost)
	tx.Meeting.HostID = next.Participant.ID
	tx.Meeting.HostName = next.Participant.Name
	res.Merge(broadcast(o.Registry, tx.Roster, "", protocol.HostChanged{ParticipantID: next.Participant.ID}))
	log.Info().Str("module", "orch").Str("meeting", string(tx.Meeting.Code)).Str("host", string(next.Participant.ID)).Msg("host handed over")
}
