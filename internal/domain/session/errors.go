package session

import "errors"

// Sentinel kinds for session errors.
var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrAlreadyStarted    = errors.New("session already started")
	ErrNotActive         = errors.New("session not active")
	ErrCallEnded         = errors.New("call has ended")
	ErrUploadInProgress  = errors.New("upload in progress")
	ErrAlreadyRecording  = errors.New("already recording")
	ErrNotAnswered       = errors.New("current question not answered")
	ErrClosed            = errors.New("session closed")
)
