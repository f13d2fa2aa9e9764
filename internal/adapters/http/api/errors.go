package api

import (
	"errors"
	"fmt"

	"github.com/okian/rehearse/internal/domain/session"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal error")
)

// NewKind tags a sentinel with the operation that raised it.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind tags a sentinel and its cause with the operation that raised it.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %v", op, kind, err)
}

// isConflict reports whether a session action failed on a state guard
// rather than an infrastructure fault.
func isConflict(err error) bool {
	for _, kind := range []error{
		session.ErrInvalidTransition,
		session.ErrAlreadyStarted,
		session.ErrNotActive,
		session.ErrCallEnded,
		session.ErrUploadInProgress,
		session.ErrAlreadyRecording,
		session.ErrNotAnswered,
		session.ErrClosed,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
