package model

import "time"

// FinishedSession is the event emitted when a session completes its last
// upload. It flows through the feedback pipeline queue; EventID makes the
// enqueue idempotent.
type FinishedSession struct {
	EventID    string    `json:"event_id"`
	SessionID  string    `json:"session_id"`
	FinishedAt time.Time `json:"finished_at"`
}
