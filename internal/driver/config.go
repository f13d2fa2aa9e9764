package driver

import "time"

// Config holds configuration for a rehearsal exercise run.
type Config struct {
	BaseURL          string        // Base URL of the service
	NumSessions      int           // Number of interview sessions to drive
	Workers          int           // Number of concurrent workers
	Timeout          time.Duration // HTTP request timeout
	AnswerSeconds    int           // How long to keep each recording open
	FeedbackAttempts int           // Feedback poll attempts per session
	FeedbackInterval time.Duration // Delay between feedback polls
	LogFile          string        // Log file for run output
	Verbose          bool          // Enable verbose logging
}

// Snapshot mirrors the session read shape served by the API.
type Snapshot struct {
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

// FeedbackResult mirrors the feedback read shape served by the API.
type FeedbackResult struct {
	SessionID string                 `json:"session_id"`
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Feedback  map[string]interface{} `json:"feedback,omitempty"`
}

// Stats holds run statistics.
type Stats struct {
	SessionsStarted   int
	SessionsCompleted int
	SessionsFailed    int
	AnswersSubmitted  int
	FeedbackReceived  int
	FeedbackTimeouts  int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
