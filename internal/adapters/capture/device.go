// Package capture provides the audio capture device backing interview
// recordings. Audio comes from a configured source file, or from a built-in
// silence generator when none is set, paced into fixed-size chunks.
package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/okian/rehearse/internal/domain/session"
	"github.com/okian/rehearse/pkg/clock"
	"github.com/okian/rehearse/pkg/logger"
)

// Device opens capture streams.
type Device struct {
	source        string
	chunkInterval time.Duration
	chunkSize     int
	mime          string
	clk           clock.Clock
	logger        logger.Logger
}

// NewDevice creates a capture device with default configuration.
func NewDevice(opts ...Option) *Device {
	d := &Device{
		chunkInterval: defaultChunkInterval,
		chunkSize:     defaultChunkSize,
		mime:          defaultMimeType,
		clk:           clock.Real(),
		logger:        logger.Get().Named("capture"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Start opens the audio source and begins emitting chunks. The stream lives
// until Stop is called, the context is cancelled or the source runs dry.
func (d *Device) Start(ctx context.Context) (session.Stream, error) {
	var src io.ReadCloser
	if d.source == "" {
		src = silenceSource{}
	} else {
		f, err := os.Open(d.source)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, d.source)
		}
		src = f
	}

	s := &stream{
		ch:        make(chan []byte, 64),
		mime:      d.mime,
		src:       src,
		chunkSize: d.chunkSize,
		ticker:    d.clk.NewTicker(d.chunkInterval),
		stop:      make(chan struct{}),
	}
	go s.pump(ctx)

	d.logger.Debug(ctx, "capture started",
		logger.String("source", d.source),
		logger.Duration("chunkInterval", d.chunkInterval),
	)
	return s, nil
}

type stream struct {
	ch        chan []byte
	mime      string
	src       io.ReadCloser
	chunkSize int
	ticker    clock.Ticker
	stop      chan struct{}
	stopOnce  sync.Once
}

func (s *stream) Chunks() <-chan []byte { return s.ch }

func (s *stream) MimeType() string { return s.mime }

func (s *stream) Stop() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

// pump emits one chunk per tick until stopped or the source is exhausted.
// It owns the chunk channel and closes it on the way out.
func (s *stream) pump(ctx context.Context) {
	defer close(s.ch)
	defer s.src.Close()
	defer s.ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-s.ticker.C():
			buf := make([]byte, s.chunkSize)
			n, err := s.src.Read(buf)
			if n > 0 {
				select {
				case s.ch <- buf[:n]:
				case <-s.stop:
					return
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}
}

// silenceSource is an endless stream of zero samples, used when no capture
// source is configured.
type silenceSource struct{}

func (silenceSource) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func (silenceSource) Close() error { return nil }
