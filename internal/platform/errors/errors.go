package apperrors

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNoActiveSession     = errors.New("no active session")
	ErrActiveSessionExists = errors.New("an unfinished session already exists")
	ErrUnreachable         = errors.New("remote unreachable")
	ErrRemoteRejected      = errors.New("remote rejected request")
	ErrChannelClosed       = errors.New("broadcast channel closed")
)
