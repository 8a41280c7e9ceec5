// Package protocol defines the messages exchanged on the real-time event
// channel. Every message travels in an Envelope {type, payload}.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/dkeye/Meet/internal/domain"
)

type Type string

// client -> server
const (
	TypeCreate     Type = "create"
	TypeJoin       Type = "join"
	TypeLeave      Type = "leave"
	TypeEndMeeting Type = "end-meeting"
	TypePing       Type = "ping"
)

// server -> client
const (
	TypeMeetingCreated    Type = "meeting-created"
	TypeRosterSnapshot    Type = "roster-snapshot"
	TypeParticipantJoined Type = "participant-joined"
	TypeParticipantLeft   Type = "participant-left"
	TypeHostChanged       Type = "host-changed"
	TypeMeetingEnded      Type = "meeting-ended"
	TypeLeft              Type = "left"
	TypeError             Type = "error"
	TypePong              Type = "pong"
)

// both directions, with direction-specific payloads
const (
	TypeOffer     Type = "negotiation-offer"
	TypeAnswer    Type = "negotiation-answer"
	TypeCandidate Type = "negotiation-candidate"
	TypeChat      Type = "chat-message"
)

type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Message interface {
	MessageType() Type
}

// Error codes carried by ErrorMsg.
const (
	CodeBadPayload   = "bad_payload"
	CodeNotFound     = "not_found"
	CodeFull         = "full"
	CodeNotHost      = "not_host"
	CodeNotMember    = "not_member"
	CodeChatDisabled = "chat_disabled"
	CodeRateLimited  = "rate_limited"
	CodeInternal     = "internal"
)

// ---- client -> server ----

type Create struct {
	HostName string                `json:"hostName" validate:"required,max=36"`
	Config   *domain.MeetingConfig `json:"config,omitempty" validate:"omitempty"`
}

type Join struct {
	MeetingCode     string `json:"meetingCode" validate:"required"`
	ParticipantName string `json:"participantName" validate:"required,max=36"`
}

type Leave struct {
	MeetingCode string `json:"meetingCode"`
}

type EndMeeting struct {
	MeetingCode string `json:"meetingCode" validate:"required"`
}

// RelayRequest asks the router to forward Payload to one participant.
type RelayRequest struct {
	Kind                Type                 `json:"-"`
	TargetParticipantID domain.ParticipantID `json:"targetParticipantId" validate:"required"`
	Payload             json.RawMessage      `json:"payload" validate:"required"`
}

type ChatRequest struct {
	MeetingCode string `json:"meetingCode" validate:"required"`
	Text        string `json:"text" validate:"required"`
}

type Ping struct{}

func (Create) MessageType() Type         { return TypeCreate }
func (Join) MessageType() Type           { return TypeJoin }
func (Leave) MessageType() Type          { return TypeLeave }
func (EndMeeting) MessageType() Type     { return TypeEndMeeting }
func (r RelayRequest) MessageType() Type { return r.Kind }
func (ChatRequest) MessageType() Type    { return TypeChat }
func (Ping) MessageType() Type           { return TypePing }

// ---- server -> client ----

type MeetingCreated struct {
	MeetingCode   domain.MeetingCode   `json:"meetingCode"`
	ParticipantID domain.ParticipantID `json:"participantId"`
}

type RosterSnapshot struct {
	MeetingCode  domain.MeetingCode   `json:"meetingCode"`
	SelfID       domain.ParticipantID `json:"selfId"`
	Participants []domain.Participant `json:"participants"`
}

type ParticipantJoined struct {
	Participant domain.Participant `json:"participant"`
}

type ParticipantLeft struct {
	ParticipantID domain.ParticipantID `json:"participantId"`
}

type HostChanged struct {
	ParticipantID domain.ParticipantID `json:"participantId"`
}

const (
	ReasonHostLeft    = "host-left"
	ReasonEndedByHost = "ended-by-host"
)

type MeetingEnded struct {
	Reason string `json:"reason"`
}

type Left struct {
	MeetingCode domain.MeetingCode `json:"meetingCode"`
}

// Relayed is a negotiation message delivered to its target.
type Relayed struct {
	Kind                Type                 `json:"-"`
	SenderParticipantID domain.ParticipantID `json:"senderParticipantId"`
	Payload             json.RawMessage      `json:"payload"`
}

type ChatEvent struct {
	SenderID   domain.ParticipantID `json:"senderId"`
	SenderName string               `json:"senderName"`
	Text       string               `json:"text"`
	Timestamp  time.Time            `json:"timestamp"`
}

type ErrorMsg struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type Pong struct{}

func (MeetingCreated) MessageType() Type    { return TypeMeetingCreated }
func (RosterSnapshot) MessageType() Type    { return TypeRosterSnapshot }
func (ParticipantJoined) MessageType() Type { return TypeParticipantJoined }
func (ParticipantLeft) MessageType() Type   { return TypeParticipantLeft }
func (HostChanged) MessageType() Type       { return TypeHostChanged }
func (MeetingEnded) MessageType() Type      { return TypeMeetingEnded }
func (Left) MessageType() Type              { return TypeLeft }
func (r Relayed) MessageType() Type         { return r.Kind }
func (ChatEvent) MessageType() Type         { return TypeChat }
func (ErrorMsg) MessageType() Type          { return TypeError }
func (Pong) MessageType() Type              { return TypePong }
