package domain

import "errors"

var (
	ErrNameTooLong = errors.New("name too long")
	ErrNameEmpty   = errors.New("name empty")

	ErrNotFound      = errors.New("meeting not found")
	ErrFull          = errors.New("meeting is full")
	ErrDuplicateCode = errors.New("duplicate meeting code")
	ErrAlreadyBound  = errors.New("connection already bound to a meeting")
	ErrNotMember     = errors.New("not a member of the meeting")
	ErrNotHost       = errors.New("only the host can do that")
	ErrChatDisabled  = errors.New("chat is disabled in this meeting")
	ErrRateLimited   = errors.New("rate limited")
	ErrEmptyMessage  = errors.New("empty message")
)
