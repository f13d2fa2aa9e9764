package model

import "errors"

// Sentinel kinds for model errors.
var (
	ErrNoQuestions        = errors.New("no questions in session")
	ErrMalformedQuestions = errors.New("malformed question list")
)
