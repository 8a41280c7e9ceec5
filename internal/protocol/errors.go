package protocol

import (
	"errors"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/go-playground/validator/v10"
)

// ErrorFor maps a failed request onto the error message sent back to the
// requester. Unknown failures are reported as internal without details.
func ErrorFor(err error) ErrorMsg {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, ErrBadPayload), errors.Is(err, ErrUnknownType), errors.As(err, &verrs),
		errors.Is(err, domain.ErrNameEmpty), errors.Is(err, domain.ErrNameTooLong),
		errors.Is(err, domain.ErrEmptyMessage):
		return ErrorMsg{Code: CodeBadPayload, Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return ErrorMsg{Code: CodeNotFound, Message: "meeting not found"}
	case errors.Is(err, domain.ErrFull):
		return ErrorMsg{Code: CodeFull, Message: "meeting is full"}
	case errors.Is(err, domain.ErrNotHost):
		return ErrorMsg{Code: CodeNotHost, Message: "only the host can do this"}
	case errors.Is(err, domain.ErrNotMember), errors.Is(err, domain.ErrAlreadyBound):
		return ErrorMsg{Code: CodeNotMember, Message: err.Error()}
	case errors.Is(err, domain.ErrChatDisabled):
		return ErrorMsg{Code: CodeChatDisabled, Message: "chat is disabled in this meeting"}
	case errors.Is(err, domain.ErrRateLimited):
		return ErrorMsg{Code: CodeRateLimited, Message: "too many messages"}
	default:
		return ErrorMsg{Code: CodeInternal}
	}
}

var sentinels = map[string]error{
	CodeBadPayload:   ErrBadPayload,
	CodeNotFound:     domain.ErrNotFound,
	CodeFull:         domain.ErrFull,
	CodeNotHost:      domain.ErrNotHost,
	CodeNotMember:    domain.ErrNotMember,
	CodeChatDisabled: domain.ErrChatDisabled,
	CodeRateLimited:  domain.ErrRateLimited,
}

// RemoteError is an error reply as seen by a client. It unwraps to the
// matching sentinel so callers can use errors.Is.
type RemoteError struct {
	Code    string
	Message string
}

func (m ErrorMsg) Err() error {
	return &RemoteError{Code: m.Code, Message: m.Message}
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

func (e *RemoteError) Unwrap() error {
	return sentinels[e.Code]
}
