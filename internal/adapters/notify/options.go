package notify

import (
	"github.com/okian/rehearse/pkg/clock"
	"github.com/okian/rehearse/pkg/logger"
)

const defaultCapacity = 128

// Option configures the Center.
type Option func(*Center)

// WithCapacity bounds how many notifications are retained.
func WithCapacity(n int) Option {
	return func(c *Center) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithClock sets the clock used for entry timestamps.
func WithClock(clk clock.Clock) Option {
	return func(c *Center) {
		if clk != nil {
			c.clk = clk
		}
	}
}

// WithLogger sets the logger instance.
func WithLogger(l logger.Logger) Option {
	return func(c *Center) {
		if l != nil {
			c.logger = l
		}
	}
}
