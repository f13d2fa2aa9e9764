package worker

import (
	"time"

	"github.com/okian/rehearse/pkg/clock"
	"github.com/okian/rehearse/pkg/logger"
)

// Option applies a configuration option to the PollWorker.
type Option func(*PollWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *PollWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithPollAttempts bounds how many status polls one session gets.
func WithPollAttempts(attempts int) Option {
	return func(w *PollWorker) {
		if attempts > 0 {
			w.pollAttempts = attempts
		}
	}
}

// WithPollInterval sets the delay between status polls.
func WithPollInterval(interval time.Duration) Option {
	return func(w *PollWorker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

// WithClock sets the clock driving poll pacing.
func WithClock(clk clock.Clock) Option {
	return func(w *PollWorker) {
		if clk != nil {
			w.clk = clk
		}
	}
}

// WithDeriver replaces the feedback normalization function.
func WithDeriver(d Deriver) Option {
	return func(w *PollWorker) {
		if d != nil {
			w.derive = d
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *PollWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
