// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9090".
	Addr string `koanf:"addr"`

	// BackendBaseURL is the base URL of the remote feedback API.
	BackendBaseURL string `koanf:"backend_base_url"`

	// BackendTimeoutMS bounds each backend HTTP request.
	BackendTimeoutMS int `koanf:"backend_timeout_ms"`

	// CountdownSeconds is the grace period before auto-starting a recording.
	CountdownSeconds int `koanf:"countdown_seconds"`

	// MaxRecordingSeconds caps a single answer recording.
	MaxRecordingSeconds int `koanf:"max_recording_seconds"`

	// UploadMaxAttempts sets how many times an answer upload is attempted.
	// 1 means no automatic retry; the user re-triggers manually.
	UploadMaxAttempts int `koanf:"upload_max_attempts"`

	// UploadRetryDelayMS is the initial backoff delay between upload attempts.
	UploadRetryDelayMS int `koanf:"upload_retry_delay_ms"`

	// PollAttempts and PollIntervalMS drive the feedback status poller.
	PollAttempts   int `koanf:"poll_attempts"`
	PollIntervalMS int `koanf:"poll_interval_ms"`

	// QueueSize bounds the finished-session queue feeding the pollers.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of feedback poller workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the pipeline deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// CaptureSource is the path of the audio source to record from.
	// Empty selects the built-in silence source.
	CaptureSource string `koanf:"capture_source"`

	// CaptureChunkMS paces capture chunk emission, mirroring a recorder timeslice.
	CaptureChunkMS int `koanf:"capture_chunk_ms"`

	// CaptureMime is the negotiated audio encoding of captured chunks.
	CaptureMime string `koanf:"capture_mime"`
}

// New creates a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:            "info",
		Addr:                ":9090",
		BackendBaseURL:      "http://localhost:8000",
		BackendTimeoutMS:    30_000,
		CountdownSeconds:    30,
		MaxRecordingSeconds: 90,
		UploadMaxAttempts:   1,
		UploadRetryDelayMS:  1_000,
		PollAttempts:        30,
		PollIntervalMS:      3_000,
		QueueSize:           1_024,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          10_000,
		CaptureSource:       "",
		CaptureChunkMS:      250,
		CaptureMime:         "audio/webm;codecs=opus",
	}
	return c
}
