package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrUnknownType = errors.New("unknown message type")
	ErrBadPayload  = errors.New("bad payload")
)

var validate = validator.New()

// Encode wraps m into its envelope.
func Encode(m Message) ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.MessageType(), err)
	}
	return json.Marshal(Envelope{Type: m.MessageType(), Payload: payload})
}

// DecodeRequest parses a client -> server message. Unknown kinds and
// unknown payload fields are rejected.
func DecodeRequest(data []byte) (Message, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	var m Message
	switch env.Type {
	case TypeCreate:
		var p Create
		err = strict(env.Payload, &p)
		m = p
	case TypeJoin:
		var p Join
		err = strict(env.Payload, &p)
		m = p
	case TypeLeave:
		var p Leave
		err = strict(env.Payload, &p)
		m = p
	case TypeEndMeeting:
		var p EndMeeting
		err = strict(env.Payload, &p)
		m = p
	case TypeOffer, TypeAnswer, TypeCandidate:
		p := RelayRequest{Kind: env.Type}
		err = strict(env.Payload, &p)
		m = p
	case TypeChat:
		var p ChatRequest
		err = strict(env.Payload, &p)
		m = p
	case TypePing:
		var p Ping
		err = strict(env.Payload, &p)
		m = p
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	if err != nil {
		return nil, err
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// DecodeEvent parses a server -> client message.
func DecodeEvent(data []byte) (Message, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	var m Message
	switch env.Type {
	case TypeMeetingCreated:
		var p MeetingCreated
		err = strict(env.Payload, &p)
		m = p
	case TypeRosterSnapshot:
		var p RosterSnapshot
		err = strict(env.Payload, &p)
		m = p
	case TypeParticipantJoined:
		var p ParticipantJoined
		err = strict(env.Payload, &p)
		m = p
	case TypeParticipantLeft:
		var p ParticipantLeft
		err = strict(env.Payload, &p)
		m = p
	case TypeHostChanged:
		var p HostChanged
		err = strict(env.Payload, &p)
		m = p
	case TypeMeetingEnded:
		var p MeetingEnded
		err = strict(env.Payload, &p)
		m = p
	case TypeLeft:
		var p Left
		err = strict(env.Payload, &p)
		m = p
	case TypeOffer, TypeAnswer, TypeCandidate:
		p := Relayed{Kind: env.Type}
		err = strict(env.Payload, &p)
		m = p
	case TypeChat:
		var p ChatEvent
		err = strict(env.Payload, &p)
		m = p
	case TypeError:
		var p ErrorMsg
		err = strict(env.Payload, &p)
		m = p
	case TypePong:
		var p Pong
		err = strict(env.Payload, &p)
		m = p
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the validator tags of request payloads.
func Validate(m Message) error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadPayload, m.MessageType(), err)
	}
	return nil
}

func decodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("%w: missing type", ErrBadPayload)
	}
	return env, nil
}

func strict(payload json.RawMessage, v any) error {
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}
