package session

import (
	"github.com/okian/rehearse/pkg/clock"
	"github.com/okian/rehearse/pkg/logger"
)

// Default session configuration constants.
const (
	defaultCountdownSeconds    = 30
	defaultMaxRecordingSeconds = 90
)

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithCountdownSeconds sets the auto-record grace period.
func WithCountdownSeconds(seconds int) Option {
	return func(c *Controller) {
		if seconds > 0 {
			c.countdownSeconds = seconds
		}
	}
}

// WithMaxRecordingSeconds caps a single recording.
func WithMaxRecordingSeconds(seconds int) Option {
	return func(c *Controller) {
		if seconds > 0 {
			c.maxRecordingSeconds = seconds
		}
	}
}

// WithNotifier sets the notification sink.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithNavigator sets the collaborator signaled when the session finishes.
func WithNavigator(nav Navigator) Option {
	return func(c *Controller) {
		if nav != nil {
			c.navigator = nav
		}
	}
}

// WithPlayableFactory sets how assembled audio becomes a playable handle.
func WithPlayableFactory(f PlayableFactory) Option {
	return func(c *Controller) {
		if f != nil {
			c.playables = f
		}
	}
}

// WithClock sets the time source; tests inject a manual clock.
func WithClock(clk clock.Clock) Option {
	return func(c *Controller) {
		if clk != nil {
			c.clk = clk
		}
	}
}

// WithLogger sets a custom logger for the controller.
func WithLogger(log logger.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.logger = log
		}
	}
}
