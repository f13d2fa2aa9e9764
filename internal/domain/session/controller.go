// Package session implements the interview session controller: question
// sequencing, the auto-record countdown, the recording lifecycle and
// per-question answer upload, modeled as an explicit finite-state machine.
package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/rehearse/internal/domain/model"
	"github.com/okian/rehearse/internal/domain/types"
	"github.com/okian/rehearse/pkg/clock"
	"github.com/okian/rehearse/pkg/logger"
	"github.com/okian/rehearse/pkg/metrics"
)

// Controller owns the mutable state of one interview session. All external
// calls (fetch, capture, upload) degrade to notifications; the only terminal
// error is a failed initial question fetch.
type Controller struct {
	mu sync.Mutex

	id         string
	fsm        *sessionFSM
	questions  []model.Question
	recordings []*model.Recording
	current    int

	callActive  bool
	uploading   bool
	secondsLeft int
	elapsed     int
	failure     string

	// Configuration
	countdownSeconds    int
	maxRecordingSeconds int

	// Injected capabilities
	backend   Backend
	device    Device
	notifier  Notifier
	navigator Navigator
	playables PlayableFactory
	clk       clock.Clock

	// Live capture state
	rec           *captureRun
	stopCountdown func()
	stopElapsed   func()

	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	logger logger.Logger
}

// New creates a controller for one session. The controller is inert until
// Start is called.
func New(sessionID string, backend Backend, device Device, opts ...Option) (*Controller, error) {
	fsm, err := newSessionFSM(sessionID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		id:                  sessionID,
		fsm:                 fsm,
		backend:             backend,
		device:              device,
		notifier:            nopNotifier{},
		navigator:           nopNavigator{},
		playables:           func([]byte, string) model.Playable { return nil },
		clk:                 clock.Real(),
		countdownSeconds:    defaultCountdownSeconds,
		maxRecordingSeconds: defaultMaxRecordingSeconds,
		ctx:                 ctx,
		cancel:              cancel,
		logger:              logger.Get().Named("session"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Start fetches the question list and enters the first question. A fetch
// failure or an empty list is terminal; the caller must create a fresh
// session to retry.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if err := c.fsm.Transition(eventLoad); err != nil {
		return ErrAlreadyStarted
	}

	qs, err := c.backend.Questions(ctx, c.id)
	if err == nil && len(qs) == 0 {
		err = model.ErrNoQuestions
	}
	if err != nil {
		c.failure = fmt.Sprintf("failed to load interview questions: %v", err)
		_ = c.fsm.Transition(eventLoadFailed)
		metrics.RecordSessionFailed()
		c.logger.Error(ctx, "question fetch failed", logger.String("sessionID", c.id), logger.Error(err))
		return fmt.Errorf("fetch questions: %w", err)
	}

	// Questions are presented in ascending order no matter how the backend
	// returns them.
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })

	c.questions = qs
	c.recordings = make([]*model.Recording, len(qs))
	for i := range c.recordings {
		c.recordings[i] = &model.Recording{}
	}
	c.current = 0
	c.callActive = true

	_ = c.fsm.Transition(eventQuestionsLoaded)
	c.enterQuestionLocked()

	metrics.RecordSessionStarted()
	c.logger.Info(ctx, "session started",
		logger.String("sessionID", c.id),
		logger.Int("questions", len(qs)),
	)
	return nil
}

// StartRecording begins capturing the current answer. It cancels any active
// countdown first. A capture denial keeps the session in place and surfaces
// a notification only.
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startRecordingLocked(ctx, false)
}

func (c *Controller) startRecordingLocked(ctx context.Context, auto bool) error {
	if c.closed {
		return ErrClosed
	}
	if !c.callActive {
		return ErrCallEnded
	}
	if c.uploading {
		return ErrUploadInProgress
	}
	phase := c.fsm.Current()
	if phase == PhaseRecording {
		return ErrAlreadyRecording
	}
	if phase != PhaseCountdown && phase != PhaseAnswered {
		return fmt.Errorf("%w: cannot record in phase %q", ErrNotActive, phase)
	}

	// Starting a recording cancels the countdown immediately, even when the
	// device ends up denying access.
	c.stopCountdownLocked()
	c.secondsLeft = 0

	// The capture run outlives the triggering call; it is bound to the
	// controller's lifetime, not the caller's.
	stream, err := c.device.Start(c.ctx)
	if err != nil {
		c.notify(ctx, notifMicDenied)
		c.logger.Warn(ctx, "capture start denied", logger.String("sessionID", c.id), logger.Error(err))
		return fmt.Errorf("start capture: %w", err)
	}

	_ = c.fsm.Transition(eventRecord)
	c.rec = newCaptureRun(stream)
	c.elapsed = 0
	c.startElapsedLocked()

	metrics.RecordRecordingStarted()
	if auto {
		metrics.RecordAutoRecordStart()
	}
	c.logger.Debug(ctx, "recording started",
		logger.String("sessionID", c.id),
		logger.Int("question", c.current),
		logger.Bool("auto", auto),
	)
	return nil
}

// StopRecording finishes the in-progress capture and fills the current
// question's recording slot. Calling it when not recording is a no-op.
func (c *Controller) StopRecording(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.fsm.Current() != PhaseRecording {
		return nil
	}
	c.stopRecordingLocked(ctx)
	return nil
}

func (c *Controller) stopRecordingLocked(ctx context.Context) {
	c.stopElapsedLocked()

	rec := c.rec
	c.rec = nil

	var data []byte
	var mime string
	if rec != nil {
		var err error
		data, mime, err = rec.finish()
		if err != nil {
			c.logger.Warn(ctx, "capture stop failed", logger.String("sessionID", c.id), logger.Error(err))
		}
	}

	// Re-recording replaces the slot; the previous playable handle must be
	// released to avoid leaking resources.
	c.recordings[c.current].Release()
	c.recordings[c.current] = &model.Recording{
		Data:     data,
		MimeType: mime,
		Playable: c.playables(data, mime),
	}

	_ = c.fsm.Transition(eventStop)

	metrics.RecordRecordingStopped()
	metrics.RecordRecordingDuration(float64(c.elapsed))
	c.notify(ctx, notifAnswerSaved)
	c.logger.Debug(ctx, "recording stopped",
		logger.String("sessionID", c.id),
		logger.Int("question", c.current),
		logger.Int("seconds", c.elapsed),
		logger.Int("bytes", len(data)),
	)
}

// Next uploads the current answer and advances the session. It is rejected
// with a notification while the current question is unanswered, and blocked
// silently while an upload is outstanding or the call has ended.
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if !c.callActive {
		return ErrCallEnded
	}
	if c.uploading {
		return ErrUploadInProgress
	}
	// The question counts as answered only once its slot holds assembled
	// audio. A first recording still in progress does not qualify.
	if !c.recordings[c.current].HasAudio() {
		c.notify(ctx, notifRecordFirst)
		return ErrNotAnswered
	}
	if c.fsm.Current() == PhaseRecording {
		// A re-record of an answered question is stopped and saved before
		// advancing.
		c.stopRecordingLocked(ctx)
	}

	if err := c.fsm.Transition(eventNext); err != nil {
		return err
	}
	c.uploading = true

	q := c.questions[c.current]
	rec := c.recordings[c.current]
	up := model.AnswerUpload{
		SessionID:     c.id,
		QuestionID:    q.ID,
		QuestionText:  q.Text,
		QuestionOrder: q.Order,
		IsLast:        c.current == len(c.questions)-1,
		Audio:         rec.Data,
		MimeType:      rec.MimeType,
	}

	start := c.clk.Now()
	c.mu.Unlock()
	err := c.backend.UploadAnswer(ctx, up)
	c.mu.Lock()

	c.uploading = false
	metrics.RecordUploadLatency(float64(c.clk.Now().Sub(start).Milliseconds()))

	if !c.callActive {
		// The call ended while the upload was in flight; the session stays
		// in its absorbing phase regardless of the outcome.
		return nil
	}

	if err != nil {
		_ = c.fsm.Transition(eventUploadFailed)
		c.notify(ctx, notifUploadFailed)
		metrics.RecordUploadError()
		c.logger.Warn(ctx, "answer upload failed",
			logger.String("sessionID", c.id),
			logger.String("questionID", q.ID),
			logger.Error(err),
		)
		return fmt.Errorf("upload answer: %w", err)
	}

	metrics.RecordAnswerUploaded()

	if up.IsLast {
		_ = c.fsm.Transition(eventSessionComplete)
		metrics.RecordSessionFinished()
		c.logger.Info(ctx, "session finished", logger.String("sessionID", c.id))
		c.navigator.SessionFinished(ctx, c.id)
		return nil
	}

	c.current++
	_ = c.fsm.Transition(eventUploadSucceeded)
	c.enterQuestionLocked()
	return nil
}

// EndCall stops any in-progress recording and moves the session into its
// absorbing call-ended phase. Further actions become no-ops.
func (c *Controller) EndCall(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if !c.callActive {
		return nil
	}

	if c.fsm.Current() == PhaseRecording {
		c.stopRecordingLocked(ctx)
	}
	c.stopCountdownLocked()
	c.secondsLeft = 0
	c.callActive = false
	_ = c.fsm.Transition(eventEndCall)

	c.notify(ctx, notifCallEnded)
	c.logger.Info(ctx, "call ended", logger.String("sessionID", c.id))
	return nil
}

// Close tears the session down: the capture device is stopped, both timers
// are cleared and every playable handle is released exactly once.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.rec != nil {
		_, _, _ = c.rec.finish()
		c.rec = nil
	}
	c.stopCountdownLocked()
	c.secondsLeft = 0
	c.stopElapsedLocked()
	c.cancel()

	for _, rec := range c.recordings {
		rec.Release()
	}
	return nil
}

// Snapshot returns the observable state of the session.
func (c *Controller) Snapshot() types.SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := types.SessionSnapshot{
		SessionID:               c.id,
		Phase:                   c.fsm.Current(),
		QuestionCount:           len(c.questions),
		CurrentQuestionIndex:    c.current,
		IsRecording:             c.fsm.Current() == PhaseRecording,
		IsUploading:             c.uploading,
		CallActive:              c.callActive,
		AutoRecordSecondsLeft:   c.secondsLeft,
		RecordingElapsedSeconds: c.elapsed,
		ErrorMessage:            c.failure,
	}
	if c.current < len(c.questions) {
		snap.CurrentQuestionText = c.questions[c.current].Text
		snap.AnsweredCurrent = c.recordings[c.current].HasAudio()
	}
	return snap
}

// enterQuestionLocked runs the per-question sub-cycle: an answered question
// skips straight to the answered phase, an unanswered one arms the
// auto-record countdown.
func (c *Controller) enterQuestionLocked() {
	if c.recordings[c.current].HasAudio() {
		_ = c.fsm.Transition(eventAlreadyAnswered)
		c.secondsLeft = 0
		return
	}
	c.secondsLeft = c.countdownSeconds
	c.startCountdownLocked()
}

func (c *Controller) startCountdownLocked() {
	c.stopCountdownLocked()

	stop := make(chan struct{})
	var once sync.Once
	c.stopCountdown = func() { once.Do(func() { close(stop) }) }

	ticker := c.clk.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-c.ctx.Done():
				return
			case <-ticker.C():
				c.onCountdownTick()
			}
		}
	}()
}

func (c *Controller) stopCountdownLocked() {
	if c.stopCountdown != nil {
		c.stopCountdown()
		c.stopCountdown = nil
	}
}

func (c *Controller) onCountdownTick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.callActive || c.fsm.Current() != PhaseCountdown {
		return
	}
	if c.secondsLeft > 0 {
		c.secondsLeft--
	}
	if c.secondsLeft > 0 {
		return
	}

	// Grace period expired on an unanswered question: auto-start recording.
	if err := c.startRecordingLocked(c.ctx, true); err != nil {
		c.logger.Warn(c.ctx, "auto-record failed", logger.String("sessionID", c.id), logger.Error(err))
	}
}

func (c *Controller) startElapsedLocked() {
	c.stopElapsedLocked()

	stop := make(chan struct{})
	var once sync.Once
	c.stopElapsed = func() { once.Do(func() { close(stop) }) }

	ticker := c.clk.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-c.ctx.Done():
				return
			case <-ticker.C():
				c.onElapsedTick()
			}
		}
	}()
}

func (c *Controller) stopElapsedLocked() {
	if c.stopElapsed != nil {
		c.stopElapsed()
		c.stopElapsed = nil
	}
}

func (c *Controller) onElapsedTick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.fsm.Current() != PhaseRecording {
		return
	}
	c.elapsed++
	if c.elapsed < c.maxRecordingSeconds {
		return
	}

	// Hard cap reached: force the stop and tell the user once.
	c.notify(c.ctx, notifTimesUp)
	c.stopRecordingLocked(c.ctx)
}

// captureRun owns one live capture: a collector goroutine buffers chunks
// until the stream's channel closes.
type captureRun struct {
	stream Stream
	mu     sync.Mutex
	chunks [][]byte
	done   chan struct{}
}

func newCaptureRun(stream Stream) *captureRun {
	r := &captureRun{stream: stream, done: make(chan struct{})}
	go r.collect()
	return r
}

func (r *captureRun) collect() {
	for chunk := range r.stream.Chunks() {
		r.mu.Lock()
		r.chunks = append(r.chunks, chunk)
		r.mu.Unlock()
	}
	close(r.done)
}

// finish stops the stream, waits for the chunk channel to drain and returns
// the assembled audio. Every chunk produced before Stop is included.
func (r *captureRun) finish() ([]byte, string, error) {
	err := r.stream.Stop()
	<-r.done

	r.mu.Lock()
	defer r.mu.Unlock()
	size := 0
	for _, chunk := range r.chunks {
		size += len(chunk)
	}
	data := make([]byte, 0, size)
	for _, chunk := range r.chunks {
		data = append(data, chunk...)
	}
	return data, r.stream.MimeType(), err
}

func (c *Controller) notify(ctx context.Context, n model.Notification) {
	variant := n.Variant
	if variant == "" {
		variant = model.VariantDefault
	}
	metrics.RecordNotification(variant)
	c.notifier.Notify(ctx, n)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, model.Notification) {}

type nopNavigator struct{}

func (nopNavigator) SessionFinished(context.Context, string) {}
