// Package types contains common types used across the application
package types

// SessionSnapshot is the read shape of a live session exposed to the HTTP
// layer and the driver.
type SessionSnapshot struct {
	SessionID               string `json:"session_id"`
	Phase                   string `json:"phase"`
	QuestionCount           int    `json:"question_count"`
	CurrentQuestionIndex    int    `json:"current_question_index"`
	CurrentQuestionText     string `json:"current_question_text"`
	IsRecording             bool   `json:"is_recording"`
	IsUploading             bool   `json:"is_uploading"`
	CallActive              bool   `json:"call_active"`
	AnsweredCurrent         bool   `json:"answered_current"`
	AutoRecordSecondsLeft   int    `json:"auto_record_seconds_left"`
	RecordingElapsedSeconds int    `json:"recording_elapsed_seconds"`
	ErrorMessage            string `json:"error_message,omitempty"`
}

// FeedbackResult is the read shape of a feedback pipeline outcome.
type FeedbackResult struct {
	SessionID string      `json:"session_id"`
	Status    string      `json:"status"`
	Message   string      `json:"message,omitempty"`
	Feedback  interface{} `json:"feedback,omitempty"`
}
