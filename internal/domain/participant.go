// Package domain contains entity without logic, just meta-data
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxParticipantIDLen = 36
	MaxNameLen          = 36
)

type ParticipantID string

type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

type Participant struct {
	ID       ParticipantID `json:"id"`
	Name     string        `json:"name"`
	Role     Role          `json:"role"`
	JoinedAt time.Time     `json:"joinedAt"`
}

// NewParticipant is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewParticipant(name string, role Role, now time.Time) (*Participant, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	return &Participant{
		ID:       ParticipantID(uuid.NewString()),
		Name:     name,
		Role:     role,
		JoinedAt: now,
	}, nil
}

func (p *Participant) IsHost() bool { return p.Role == RoleHost }

// NormalizeName trims the display name and checks its bounds.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) == 0 {
		return "", ErrNameEmpty
	}
	if len([]rune(name)) > MaxNameLen {
		return "", ErrNameTooLong
	}
	return name, nil
}
