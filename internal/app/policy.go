package app

import (
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

// Policy decides what happens to slow connections and to a meeting whose
// host leaves.
type Policy interface {
	OnBackPressure(meeting domain.MeetingCode, conn core.ConnectionID) BackpressureAction
	HostAuthoritative() bool
}

// SimplePolicy kicks slow members; HostLeavesEndsMeeting picks the teardown mode.
type SimplePolicy struct {
	HostLeavesEndsMeeting bool
}

func (SimplePolicy) OnBackPressure(domain.MeetingCode, core.ConnectionID) BackpressureAction {
	return KickMember
}

func (p SimplePolicy) HostAuthoritative() bool { return p.HostLeavesEndsMeeting }
