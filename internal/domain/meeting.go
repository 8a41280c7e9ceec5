package domain

import "time"

const (
	DefaultMaxParticipants = 8
	// MaxParticipantsLimit caps what a creator may ask for; a full mesh
	// needs n*(n-1)/2 peer connections.
	MaxParticipantsLimit = 32
	MaxChatLength        = 1000
)

type MeetingConfig struct {
	MaxParticipants  int  `json:"maxParticipants" mapstructure:"max_participants" validate:"gte=2,lte=32"`
	AllowAudio       bool `json:"allowAudio" mapstructure:"allow_audio"`
	AllowVideo       bool `json:"allowVideo" mapstructure:"allow_video"`
	AllowScreenShare bool `json:"allowScreenShare" mapstructure:"allow_screen_share"`
	AllowChat        bool `json:"allowChat" mapstructure:"allow_chat"`
}

func DefaultMeetingConfig() MeetingConfig {
	return MeetingConfig{
		MaxParticipants:  DefaultMaxParticipants,
		AllowAudio:       true,
		AllowVideo:       true,
		AllowScreenShare: true,
		AllowChat:        true,
	}
}

// Meeting is the meeting meta. The roster lives next to it in core.Roster.
type Meeting struct {
	Code      MeetingCode
	HostID    ParticipantID
	HostName  string
	CreatedAt time.Time
	Config    MeetingConfig
}

// MeetingInfo is the public lookup view of a meeting.
type MeetingInfo struct {
	Code             MeetingCode   `json:"meetingCode"`
	HostName         string        `json:"hostName"`
	ParticipantCount int           `json:"participantCount"`
	CreatedAt        time.Time     `json:"createdAt"`
	Config           MeetingConfig `json:"config"`
}
