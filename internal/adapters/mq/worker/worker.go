// Package worker defines the feedback pollers that turn finished sessions
// into stored, normalized feedback.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/rehearse/internal/adapters/mq/queue"
	"github.com/okian/rehearse/internal/domain/feedback"
	"github.com/okian/rehearse/internal/domain/model"
	"github.com/okian/rehearse/internal/domain/types"
	"github.com/okian/rehearse/pkg/clock"
	"github.com/okian/rehearse/pkg/logger"
	"github.com/okian/rehearse/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultPollAttempts = 30
	defaultPollInterval = 3 * time.Second
)

// Event abstracts what workers read off the queue.
type Event = queue.Event

// Backend is the slice of the feedback API the poller needs.
type Backend interface {
	FeedbackStatus(ctx context.Context, sessionID string) (model.FeedbackStatusReport, error)
	Feedback(ctx context.Context, sessionID string) (model.RawFeedback, error)
}

// Store receives finished results.
type Store interface {
	Put(ctx context.Context, result types.FeedbackResult) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Deriver normalizes a raw feedback payload.
type Deriver func(raw model.RawFeedback) model.NormalizedFeedback

// Worker processes finished-session events until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// PollWorker implements Worker: it polls the backend for feedback readiness,
// derives the normalized result and stores it.
type PollWorker struct {
	queue   Queue
	backend Backend
	store   Store
	derive  Deriver
	name    string

	// Configuration
	pollAttempts int
	pollInterval time.Duration
	clk          clock.Clock

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewPollWorker creates a new worker with configuration options.
func NewPollWorker(q Queue, backend Backend, store Store, opts ...Option) *PollWorker {
	w := &PollWorker{
		queue:        q,
		backend:      backend,
		store:        store,
		derive:       feedback.Derive,
		name:         "worker",
		pollAttempts: defaultPollAttempts,
		pollInterval: defaultPollInterval,
		clk:          clock.Real(),
		shutdown:     make(chan struct{}),
		done:         make(chan struct{}),
		logger:       logger.Get().Named("worker"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *PollWorker) Run(ctx context.Context) {
	defer close(w.done)

	eventChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error processing finished session", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *PollWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvent drives one session from "finished" to a stored result. The
// backend is polled until it reports completion, errors out or the attempt
// budget runs dry.
func (w *PollWorker) processEvent(ctx context.Context, event Event) error {
	start := w.clk.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(w.clk.Now().Sub(start).Milliseconds()))
	}()

	ticker := w.clk.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= w.pollAttempts; attempt++ {
		report, err := w.pollOnce(ctx, event.SessionID)
		if err != nil {
			w.logger.Warn(ctx, "status poll failed",
				logger.String("sessionID", event.SessionID),
				logger.Int("attempt", attempt),
				logger.Error(err),
			)
		} else {
			switch report.Status {
			case model.FeedbackCompleted, model.FeedbackSuccess:
				return w.deriveAndStore(ctx, event.SessionID)
			case model.FeedbackError:
				return w.storeFailure(ctx, event.SessionID, report.Message)
			}
			// processing / not_started: keep polling
		}

		if attempt == w.pollAttempts {
			break
		}
		select {
		case <-ticker.C():
		case <-w.shutdown:
			return fmt.Errorf("session %s: %w", event.SessionID, ErrStopped)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	metrics.RecordFeedbackFailure()
	return w.storeFailure(ctx, event.SessionID, "feedback generation timed out")
}

func (w *PollWorker) pollOnce(ctx context.Context, sessionID string) (model.FeedbackStatusReport, error) {
	metrics.RecordFeedbackPoll()
	return w.backend.FeedbackStatus(ctx, sessionID)
}

func (w *PollWorker) deriveAndStore(ctx context.Context, sessionID string) error {
	raw, err := w.backend.Feedback(ctx, sessionID)
	if err != nil {
		metrics.RecordFeedbackFailure()
		metrics.RecordWorkerError()
		if storeErr := w.storeFailure(ctx, sessionID, "failed to fetch feedback"); storeErr != nil {
			return storeErr
		}
		return fmt.Errorf("fetch feedback for %s: %w", sessionID, err)
	}

	deriveStart := w.clk.Now()
	normalized := w.derive(raw)
	metrics.RecordDerivationLatency(float64(w.clk.Now().Sub(deriveStart).Milliseconds()))
	metrics.RecordFeedbackDerivation()

	result := types.FeedbackResult{
		SessionID: sessionID,
		Status:    model.FeedbackSuccess,
		Feedback:  normalized,
	}
	if err := w.store.Put(ctx, result); err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("store result for %s: %w", sessionID, err)
	}

	w.logger.Info(ctx, "feedback derived",
		logger.String("sessionID", sessionID),
		logger.Int("overallScore", normalized.OverallScore),
	)
	return nil
}

func (w *PollWorker) storeFailure(ctx context.Context, sessionID, message string) error {
	result := types.FeedbackResult{
		SessionID: sessionID,
		Status:    model.FeedbackError,
		Message:   message,
	}
	if err := w.store.Put(ctx, result); err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("store failure for %s: %w", sessionID, err)
	}
	return nil
}
