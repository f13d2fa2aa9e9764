package backend

import "errors"

var (
	// ErrUnexpectedStatus indicates a non-2xx response from the feedback API.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrUploadRejected indicates the API accepted the request but refused
	// the answer.
	ErrUploadRejected = errors.New("answer upload rejected")

	// ErrFeedbackUnavailable indicates feedback was requested before the
	// backend finished producing it.
	ErrFeedbackUnavailable = errors.New("feedback not available")
)
