// Package service provides the core application service that owns live
// interview sessions and the feedback pipeline behind them.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rehearse/internal/adapters/capture"
	eventqueue "github.com/okian/rehearse/internal/adapters/mq/queue"
	workerpool "github.com/okian/rehearse/internal/adapters/mq/worker"
	"github.com/okian/rehearse/internal/adapters/notify"
	"github.com/okian/rehearse/internal/adapters/repository"
	"github.com/okian/rehearse/internal/domain/dedupe"
	"github.com/okian/rehearse/internal/domain/model"
	sessionctrl "github.com/okian/rehearse/internal/domain/session"
	"github.com/okian/rehearse/internal/domain/types"
	"github.com/okian/rehearse/pkg/clock"
	"github.com/okian/rehearse/pkg/logger"
	"github.com/okian/rehearse/pkg/metrics"
)

// Sentinel kinds for service errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotStarted      = errors.New("service not started")
	ErrNoBackend       = errors.New("no backend configured")
	ErrFeedbackPending = errors.New("feedback not ready")
)

const shutdownTimeout = 10 * time.Second

// Backend bundles everything the service needs from the remote feedback API.
type Backend interface {
	sessionctrl.Backend
	workerpool.Backend
}

// Service implements the API dependencies for the rehearsal system.
type Service struct {
	mu sync.RWMutex

	// Core components
	sessions    map[string]*sessionctrl.Controller
	results     repository.Store
	deduper     dedupe.Deduper
	eventQueue  eventqueue.Queue
	workers     []*workerpool.PollWorker
	notifCenter *notify.Center

	// Injected capabilities
	backend Backend
	device  sessionctrl.Device
	clk     clock.Clock

	// Configuration
	workerCount         int
	queueSize           int
	dedupeSize          int
	countdownSeconds    int
	maxRecordingSeconds int
	pollAttempts        int
	pollInterval        time.Duration

	// State
	started   bool
	runCtx    context.Context
	cancelRun context.CancelFunc

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithBackend sets the remote feedback API client.
func WithBackend(b Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.backend = b
		}
	}
}

// WithDevice sets the audio capture device.
func WithDevice(d sessionctrl.Device) Option {
	return func(s *Service) {
		if d != nil {
			s.device = d
		}
	}
}

// WithNotifyCenter sets the notification center.
func WithNotifyCenter(c *notify.Center) Option {
	return func(s *Service) {
		if c != nil {
			s.notifCenter = c
		}
	}
}

// WithClock sets the clock shared by sessions and pollers.
func WithClock(clk clock.Clock) Option {
	return func(s *Service) {
		if clk != nil {
			s.clk = clk
		}
	}
}

// WithResultStore replaces the feedback results store.
func WithResultStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.results = store
		}
	}
}

// WithWorkerCount sets the number of feedback poller workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the finished-session queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithCountdownSeconds sets the auto-record grace period per question.
func WithCountdownSeconds(seconds int) Option {
	return func(s *Service) {
		if seconds > 0 {
			s.countdownSeconds = seconds
		}
	}
}

// WithMaxRecordingSeconds sets the per-answer recording cap.
func WithMaxRecordingSeconds(seconds int) Option {
	return func(s *Service) {
		if seconds > 0 {
			s.maxRecordingSeconds = seconds
		}
	}
}

// WithPollAttempts bounds how many status polls one finished session gets.
func WithPollAttempts(attempts int) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.pollAttempts = attempts
		}
	}
}

// WithPollInterval sets the delay between feedback status polls.
func WithPollInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:            make(map[string]*sessionctrl.Controller),
		workerCount:         runtime.NumCPU(),
		queueSize:           1024,
		dedupeSize:          10000,
		countdownSeconds:    30,
		maxRecordingSeconds: 90,
		pollAttempts:        30,
		pollInterval:        3 * time.Second,
		clk:                 clock.Real(),
		logger:              nil, // set on Start when not injected
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.backend == nil {
		return ErrNoBackend
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.device == nil {
		s.device = capture.NewDevice()
	}
	if s.notifCenter == nil {
		s.notifCenter = notify.NewCenter(notify.WithClock(s.clk))
	}
	if s.results == nil {
		s.results = repository.NewMemStore()
	}

	s.logger.Info(ctx, "starting rehearsal service...")

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithBufferSize(s.queueSize),
	)

	s.runCtx, s.cancelRun = context.WithCancel(context.Background())
	s.workers = make([]*workerpool.PollWorker, 0, s.workerCount)
	for i := 0; i < s.workerCount; i++ {
		w := workerpool.NewPollWorker(s.eventQueue, s.backend, s.results,
			workerpool.WithName(fmt.Sprintf("poller-%d", i)),
			workerpool.WithPollAttempts(s.pollAttempts),
			workerpool.WithPollInterval(s.pollInterval),
			workerpool.WithClock(s.clk),
		)
		s.workers = append(s.workers, w)
		go w.Run(s.runCtx)
	}
	metrics.UpdateWorkerCount(s.workerCount)

	s.started = true
	s.logger.Info(ctx, "rehearsal service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop gracefully shuts down the service: sessions are torn down, the queue
// is closed and the pollers drain.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping rehearsal service...")

	for id, ctrl := range s.sessions {
		if err := ctrl.Close(); err != nil {
			s.logger.Warn(ctx, "session teardown failed", logger.String("sessionID", id), logger.Error(err))
		}
	}
	s.sessions = make(map[string]*sessionctrl.Controller)
	metrics.UpdateActiveSessions(0)

	if s.eventQueue != nil {
		_ = s.eventQueue.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	for _, w := range s.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "worker shutdown failed", logger.Error(err))
		}
	}
	s.cancelRun()

	s.started = false
	s.logger.Info(ctx, "rehearsal service stopped")
}

// CreateSession creates and starts a new interview session. A question load
// failure still yields a registered session; its snapshot carries the
// terminal failure.
func (s *Service) CreateSession(ctx context.Context) (types.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return types.SessionSnapshot{}, ErrNotStarted
	}

	id := uuid.NewString()
	ctrl, err := sessionctrl.New(id, s.backend, s.device,
		sessionctrl.WithCountdownSeconds(s.countdownSeconds),
		sessionctrl.WithMaxRecordingSeconds(s.maxRecordingSeconds),
		sessionctrl.WithNotifier(s.notifCenter.For(id)),
		sessionctrl.WithNavigator(s),
		sessionctrl.WithPlayableFactory(capture.NewPlayableFactory(s.logger)),
		sessionctrl.WithClock(s.clk),
		sessionctrl.WithLogger(s.logger),
	)
	if err != nil {
		return types.SessionSnapshot{}, fmt.Errorf("create session: %w", err)
	}

	if err := ctrl.Start(ctx); err != nil {
		s.logger.Warn(ctx, "session failed to start", logger.String("sessionID", id), logger.Error(err))
	}

	s.sessions[id] = ctrl
	metrics.UpdateActiveSessions(len(s.sessions))
	return ctrl.Snapshot(), nil
}

// Session returns the snapshot of a live session.
func (s *Service) Session(_ context.Context, sessionID string) (types.SessionSnapshot, error) {
	ctrl, err := s.controller(sessionID)
	if err != nil {
		return types.SessionSnapshot{}, err
	}
	return ctrl.Snapshot(), nil
}

// StartRecording begins capturing the current answer of a session.
func (s *Service) StartRecording(ctx context.Context, sessionID string) error {
	ctrl, err := s.controller(sessionID)
	if err != nil {
		return err
	}
	return ctrl.StartRecording(ctx)
}

// StopRecording finishes the in-progress capture of a session.
func (s *Service) StopRecording(ctx context.Context, sessionID string) error {
	ctrl, err := s.controller(sessionID)
	if err != nil {
		return err
	}
	return ctrl.StopRecording(ctx)
}

// Next uploads the current answer and advances the session.
func (s *Service) Next(ctx context.Context, sessionID string) error {
	ctrl, err := s.controller(sessionID)
	if err != nil {
		return err
	}
	return ctrl.Next(ctx)
}

// EndCall ends the session's call.
func (s *Service) EndCall(ctx context.Context, sessionID string) error {
	ctrl, err := s.controller(sessionID)
	if err != nil {
		return err
	}
	return ctrl.EndCall(ctx)
}

// CloseSession tears a session down and forgets it. Any derived feedback
// stays available.
func (s *Service) CloseSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctrl, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	metrics.UpdateActiveSessions(len(s.sessions))
	return ctrl.Close()
}

// FeedbackResult returns the derived feedback for a session. While the
// pipeline is still polling, ErrFeedbackPending is returned for sessions the
// service knows about.
func (s *Service) FeedbackResult(ctx context.Context, sessionID string) (types.FeedbackResult, error) {
	s.mu.RLock()
	started := s.started
	_, known := s.sessions[sessionID]
	s.mu.RUnlock()

	if !started {
		return types.FeedbackResult{}, ErrNotStarted
	}

	result, err := s.results.Get(ctx, sessionID)
	if err == nil {
		return result, nil
	}
	if errors.Is(err, repository.ErrNotFound) && known {
		return types.FeedbackResult{}, ErrFeedbackPending
	}
	return types.FeedbackResult{}, err
}

// Notifications returns the most recent user-facing notifications.
func (s *Service) Notifications(limit int) []notify.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.notifCenter == nil {
		return nil
	}
	return s.notifCenter.Recent(limit)
}

// SessionFinished implements the session navigator: a finished session is
// handed to the feedback pipeline exactly once.
func (s *Service) SessionFinished(ctx context.Context, sessionID string) {
	if s.deduper.SeenAndRecord(ctx, sessionID) {
		s.logger.Debug(ctx, "finished session already enqueued", logger.String("sessionID", sessionID))
		return
	}

	event := model.FinishedSession{
		EventID:    uuid.NewString(),
		SessionID:  sessionID,
		FinishedAt: s.clk.Now(),
	}
	if !s.eventQueue.Enqueue(ctx, event) {
		// Let a later retry re-enqueue rather than losing the session.
		s.deduper.Unrecord(ctx, sessionID)
		s.logger.Error(ctx, "failed to enqueue finished session", logger.String("sessionID", sessionID))
		return
	}

	s.logger.Info(ctx, "finished session enqueued",
		logger.String("sessionID", sessionID),
		logger.String("eventID", event.EventID),
	)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		stats["activeSessions"] = len(s.sessions)
		stats["queueLength"] = s.eventQueue.Len(ctx)
		stats["storedResults"] = s.results.Count(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
		metrics.UpdateActiveSessions(len(s.sessions))
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

func (s *Service) controller(sessionID string) (*sessionctrl.Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	ctrl, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ctrl, nil
}
