package capture

import (
	"time"

	"github.com/okian/rehearse/pkg/clock"
	"github.com/okian/rehearse/pkg/logger"
)

const (
	defaultChunkInterval = 250 * time.Millisecond
	defaultChunkSize     = 4096
	defaultMimeType      = "audio/webm;codecs=opus"
)

// Option configures the Device.
type Option func(*Device)

// WithSource sets the file path backing the capture stream. An empty source
// selects the built-in silence generator.
func WithSource(path string) Option {
	return func(d *Device) {
		d.source = path
	}
}

// WithChunkInterval sets how often a chunk is emitted.
func WithChunkInterval(interval time.Duration) Option {
	return func(d *Device) {
		if interval > 0 {
			d.chunkInterval = interval
		}
	}
}

// WithChunkSize sets the chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(d *Device) {
		if size > 0 {
			d.chunkSize = size
		}
	}
}

// WithMimeType sets the mime type reported for captured audio.
func WithMimeType(mime string) Option {
	return func(d *Device) {
		if mime != "" {
			d.mime = mime
		}
	}
}

// WithClock sets the clock driving chunk pacing.
func WithClock(clk clock.Clock) Option {
	return func(d *Device) {
		if clk != nil {
			d.clk = clk
		}
	}
}

// WithLogger sets the logger instance.
func WithLogger(l logger.Logger) Option {
	return func(d *Device) {
		if l != nil {
			d.logger = l
		}
	}
}
