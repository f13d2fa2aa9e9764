package session

import (
	"context"

	"github.com/okian/rehearse/internal/domain/model"
)

// QuestionSource fetches the ordered question list for a session.
type QuestionSource interface {
	Questions(ctx context.Context, sessionID string) ([]model.Question, error)
}

// AnswerSink uploads one recorded answer with its metadata.
type AnswerSink interface {
	UploadAnswer(ctx context.Context, up model.AnswerUpload) error
}

// Backend bundles the remote API operations the controller needs.
type Backend interface {
	QuestionSource
	AnswerSink
}

// Device grants access to an audio capture source. Start fails when access
// is denied; the controller surfaces that as a notification and stays put.
type Device interface {
	Start(ctx context.Context) (Stream, error)
}

// Stream is one live capture. Chunks is closed after Stop.
type Stream interface {
	Chunks() <-chan []byte
	MimeType() string
	Stop() error
}

// Notifier receives the discrete user-facing events the controller emits.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}

// Navigator is signaled exactly once when a session finishes, carrying the
// session id whose feedback view should be shown.
type Navigator interface {
	SessionFinished(ctx context.Context, sessionID string)
}

// PlayableFactory wraps assembled audio into a playable handle. A nil return
// is valid and means no per-recording resource is held.
type PlayableFactory func(data []byte, mimeType string) model.Playable
