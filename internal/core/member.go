package core

import "github.com/dkeye/Meet/internal/domain"

// Member binds domain.Participant and its transport endpoint.
// This is what a roster stores and fans out to.
type Member struct {
	Participant domain.Participant
	Conn        ConnectionID
}

func NewMember(p domain.Participant, conn ConnectionID) Member {
	return Member{Participant: p, Conn: conn}
}
