package session_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/rehearse/internal/domain/model"
	"github.com/okian/rehearse/internal/domain/session"
	"github.com/okian/rehearse/pkg/clock"
	"github.com/okian/rehearse/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	logger.SetLevelString("error")
	os.Exit(m.Run())
}

// waitFor polls cond until it holds or the deadline passes. Timer goroutines
// consume injected ticks asynchronously, so assertions on tick-driven state
// go through here.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

type fakeBackend struct {
	mu           sync.Mutex
	questions    []model.Question
	questionsErr error
	uploadErr    error
	uploads      []model.AnswerUpload
}

func (b *fakeBackend) Questions(_ context.Context, _ string) ([]model.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.questionsErr != nil {
		return nil, b.questionsErr
	}
	return b.questions, nil
}

func (b *fakeBackend) UploadAnswer(_ context.Context, up model.AnswerUpload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.uploadErr != nil {
		return b.uploadErr
	}
	b.uploads = append(b.uploads, up)
	return nil
}

func (b *fakeBackend) uploaded() []model.AnswerUpload {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.AnswerUpload, len(b.uploads))
	copy(out, b.uploads)
	return out
}

func (b *fakeBackend) setUploadErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploadErr = err
}

type fakeStream struct {
	ch   chan []byte
	once sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{ch: make(chan []byte, 16)}
}

func (s *fakeStream) Chunks() <-chan []byte { return s.ch }
func (s *fakeStream) MimeType() string      { return "audio/webm;codecs=opus" }
func (s *fakeStream) Stop() error {
	s.once.Do(func() { close(s.ch) })
	return nil
}

func (s *fakeStream) feed(chunk []byte) { s.ch <- chunk }

type fakeDevice struct {
	mu      sync.Mutex
	denied  bool
	streams []*fakeStream
}

func (d *fakeDevice) Start(_ context.Context) (session.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.denied {
		return nil, errors.New("permission denied")
	}
	s := newFakeStream()
	d.streams = append(d.streams, s)
	return s, nil
}

func (d *fakeDevice) last() *fakeStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.streams) == 0 {
		return nil
	}
	return d.streams[len(d.streams)-1]
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []model.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note model.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

func (n *recordingNotifier) count(title string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, note := range n.notes {
		if note.Title == title {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) lastVariant(title string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.notes) - 1; i >= 0; i-- {
		if n.notes[i].Title == title {
			return n.notes[i].Variant
		}
	}
	return ""
}

type fakeNavigator struct {
	mu       sync.Mutex
	finished []string
}

func (n *fakeNavigator) SessionFinished(_ context.Context, sessionID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.finished = append(n.finished, sessionID)
}

func (n *fakeNavigator) sessions() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.finished))
	copy(out, n.finished)
	return out
}

type countingPlayable struct {
	releases *int32
}

func (p countingPlayable) Release() { atomic.AddInt32(p.releases, 1) }

type harness struct {
	ctrl      *session.Controller
	backend   *fakeBackend
	device    *fakeDevice
	notifier  *recordingNotifier
	navigator *fakeNavigator
	clk       *clock.Manual
	releases  int32
	handles   int32
}

func newHarness(t *testing.T, questions []model.Question, opts ...session.Option) *harness {
	t.Helper()

	h := &harness{
		backend:   &fakeBackend{questions: questions},
		device:    &fakeDevice{},
		notifier:  &recordingNotifier{},
		navigator: &fakeNavigator{},
		clk:       clock.NewManual(time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)),
	}

	factory := func(data []byte, _ string) model.Playable {
		if len(data) == 0 {
			return nil
		}
		atomic.AddInt32(&h.handles, 1)
		return countingPlayable{releases: &h.releases}
	}

	all := append([]session.Option{
		session.WithClock(h.clk),
		session.WithNotifier(h.notifier),
		session.WithNavigator(h.navigator),
		session.WithPlayableFactory(factory),
		session.WithCountdownSeconds(3),
		session.WithMaxRecordingSeconds(5),
	}, opts...)

	ctrl, err := session.New("sess-1", h.backend, h.device, all...)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	h.ctrl = ctrl
	t.Cleanup(func() { _ = ctrl.Close() })
	return h
}

func twoQuestions() []model.Question {
	return []model.Question{
		{ID: "q2", Text: "Why this role?", Order: 2},
		{ID: "q1", Text: "Tell me about yourself", Order: 1},
	}
}

// answerCurrent records a short answer for the current question and stops.
func (h *harness) answerCurrent(ctx context.Context, t *testing.T, chunks ...[]byte) {
	t.Helper()
	if err := h.ctrl.StartRecording(ctx); err != nil {
		t.Fatalf("start recording: %v", err)
	}
	stream := h.device.last()
	if len(chunks) == 0 {
		chunks = [][]byte{[]byte("audio")}
	}
	for _, c := range chunks {
		stream.feed(c)
	}
	if err := h.ctrl.StopRecording(ctx); err != nil {
		t.Fatalf("stop recording: %v", err)
	}
}

func TestStart(t *testing.T) {
	ctx := context.Background()

	Convey("Given questions arriving out of order", t, func() {
		h := newHarness(t, twoQuestions())

		Convey("When the session starts", func() {
			err := h.ctrl.Start(ctx)
			snap := h.ctrl.Snapshot()

			Convey("Then it enters the first question's countdown in order", func() {
				So(err, ShouldBeNil)
				So(snap.Phase, ShouldEqual, session.PhaseCountdown)
				So(snap.QuestionCount, ShouldEqual, 2)
				So(snap.CurrentQuestionIndex, ShouldEqual, 0)
				So(snap.CurrentQuestionText, ShouldEqual, "Tell me about yourself")
				So(snap.AutoRecordSecondsLeft, ShouldEqual, 3)
				So(snap.CallActive, ShouldBeTrue)
			})

			Convey("And a second start is rejected", func() {
				So(h.ctrl.Start(ctx), ShouldEqual, session.ErrAlreadyStarted)
			})
		})
	})

	Convey("Given a backend that fails to return questions", t, func() {
		h := newHarness(t, nil)
		h.backend.questionsErr = errors.New("boom")

		Convey("When the session starts", func() {
			err := h.ctrl.Start(ctx)
			snap := h.ctrl.Snapshot()

			Convey("Then the session fails terminally with a message", func() {
				So(err, ShouldNotBeNil)
				So(snap.Phase, ShouldEqual, session.PhaseFailed)
				So(snap.ErrorMessage, ShouldContainSubstring, "failed to load interview questions")
			})
		})
	})

	Convey("Given an empty question list", t, func() {
		h := newHarness(t, nil)

		err := h.ctrl.Start(ctx)
		So(err, ShouldNotBeNil)
		So(h.ctrl.Snapshot().Phase, ShouldEqual, session.PhaseFailed)
	})
}

func TestCountdownAutoRecord(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started session with a 3s countdown", t, func() {
		h := newHarness(t, twoQuestions())
		So(h.ctrl.Start(ctx), ShouldBeNil)

		Convey("When the countdown runs out", func() {
			h.clk.Advance(3 * time.Second)

			Convey("Then recording starts automatically", func() {
				So(waitFor(func() bool { return h.ctrl.Snapshot().IsRecording }), ShouldBeTrue)
				So(h.device.last(), ShouldNotBeNil)
			})
		})

		Convey("When recording starts before the countdown runs out", func() {
			h.clk.Advance(1 * time.Second)
			So(waitFor(func() bool { return h.ctrl.Snapshot().AutoRecordSecondsLeft == 2 }), ShouldBeTrue)
			So(h.ctrl.StartRecording(ctx), ShouldBeNil)

			Convey("Then the countdown is cancelled", func() {
				snap := h.ctrl.Snapshot()
				So(snap.IsRecording, ShouldBeTrue)
				So(snap.AutoRecordSecondsLeft, ShouldEqual, 0)

				// No further ticks may fire a second device start.
				h.clk.Advance(10 * time.Second)
				So(waitFor(func() bool { return h.ctrl.Snapshot().RecordingElapsedSeconds >= 5 }), ShouldBeTrue)
				h.device.mu.Lock()
				streams := len(h.device.streams)
				h.device.mu.Unlock()
				So(streams, ShouldEqual, 1)
			})
		})
	})
}

func TestRecordingLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started session", t, func() {
		h := newHarness(t, twoQuestions())
		So(h.ctrl.Start(ctx), ShouldBeNil)

		Convey("When capture access is denied", func() {
			h.device.denied = true
			err := h.ctrl.StartRecording(ctx)

			Convey("Then the session stays put with a destructive notification", func() {
				So(err, ShouldNotBeNil)
				So(h.notifier.count("Microphone access denied"), ShouldEqual, 1)
				So(h.notifier.lastVariant("Microphone access denied"), ShouldEqual, model.VariantDestructive)
				snap := h.ctrl.Snapshot()
				So(snap.Phase, ShouldEqual, session.PhaseCountdown)
				So(snap.IsRecording, ShouldBeFalse)
			})
		})

		Convey("When an answer is recorded and stopped", func() {
			h.answerCurrent(ctx, t, []byte("first "), []byte("chunk"))
			snap := h.ctrl.Snapshot()

			Convey("Then the slot is filled and confirmed", func() {
				So(snap.Phase, ShouldEqual, session.PhaseAnswered)
				So(snap.AnsweredCurrent, ShouldBeTrue)
				So(h.notifier.count("Answer recorded"), ShouldEqual, 1)
			})

			Convey("And stopping again is a no-op", func() {
				So(h.ctrl.StopRecording(ctx), ShouldBeNil)
				So(h.notifier.count("Answer recorded"), ShouldEqual, 1)
			})
		})

		Convey("When a recording hits the duration cap", func() {
			So(h.ctrl.StartRecording(ctx), ShouldBeNil)
			h.device.last().feed([]byte("long answer"))
			h.clk.Advance(8 * time.Second)

			Convey("Then it is force-stopped with exactly one time's-up notice", func() {
				So(waitFor(func() bool { return h.ctrl.Snapshot().Phase == session.PhaseAnswered }), ShouldBeTrue)
				So(h.notifier.count("Time's up"), ShouldEqual, 1)
				So(h.notifier.count("Answer recorded"), ShouldEqual, 1)
				So(h.ctrl.Snapshot().AnsweredCurrent, ShouldBeTrue)
			})
		})

		Convey("When the answer is re-recorded", func() {
			h.answerCurrent(ctx, t)
			So(atomic.LoadInt32(&h.handles), ShouldEqual, 1)

			h.answerCurrent(ctx, t, []byte("better answer"))

			Convey("Then the prior playable handle is released once", func() {
				So(atomic.LoadInt32(&h.releases), ShouldEqual, 1)
				So(atomic.LoadInt32(&h.handles), ShouldEqual, 2)
				So(h.ctrl.Snapshot().AnsweredCurrent, ShouldBeTrue)
			})
		})
	})
}

func TestNext(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started session", t, func() {
		h := newHarness(t, twoQuestions())
		So(h.ctrl.Start(ctx), ShouldBeNil)

		Convey("When next is requested before answering", func() {
			err := h.ctrl.Next(ctx)

			Convey("Then it is rejected with a destructive notification", func() {
				So(err, ShouldEqual, session.ErrNotAnswered)
				So(h.notifier.count("Record an answer first"), ShouldEqual, 1)
				So(h.ctrl.Snapshot().CurrentQuestionIndex, ShouldEqual, 0)
			})
		})

		Convey("When next is requested during the first recording", func() {
			So(h.ctrl.StartRecording(ctx), ShouldBeNil)
			h.device.last().feed([]byte("spoken answer"))
			err := h.ctrl.Next(ctx)
			snap := h.ctrl.Snapshot()

			Convey("Then it is rejected and the recording keeps going", func() {
				So(err, ShouldEqual, session.ErrNotAnswered)
				So(h.notifier.count("Record an answer first"), ShouldEqual, 1)
				So(h.backend.uploaded(), ShouldBeEmpty)
				So(snap.IsRecording, ShouldBeTrue)
				So(snap.CurrentQuestionIndex, ShouldEqual, 0)
			})
		})

		Convey("When next is requested during a re-record", func() {
			h.answerCurrent(ctx, t)
			So(h.ctrl.StartRecording(ctx), ShouldBeNil)
			h.device.last().feed([]byte("better take"))
			err := h.ctrl.Next(ctx)

			Convey("Then the re-record is stopped, saved and uploaded", func() {
				So(err, ShouldBeNil)
				ups := h.backend.uploaded()
				So(ups, ShouldHaveLength, 1)
				So(string(ups[0].Audio), ShouldEqual, "better take")
				So(h.ctrl.Snapshot().CurrentQuestionIndex, ShouldEqual, 1)
			})
		})

		Convey("When the first answer uploads successfully", func() {
			h.answerCurrent(ctx, t)
			err := h.ctrl.Next(ctx)
			snap := h.ctrl.Snapshot()

			Convey("Then the upload carries the question metadata", func() {
				So(err, ShouldBeNil)
				ups := h.backend.uploaded()
				So(ups, ShouldHaveLength, 1)
				So(ups[0].SessionID, ShouldEqual, "sess-1")
				So(ups[0].QuestionID, ShouldEqual, "q1")
				So(ups[0].QuestionText, ShouldEqual, "Tell me about yourself")
				So(ups[0].QuestionOrder, ShouldEqual, 1)
				So(ups[0].IsLast, ShouldBeFalse)
				So(ups[0].MimeType, ShouldEqual, "audio/webm;codecs=opus")
			})

			Convey("And the next question's countdown is armed", func() {
				So(snap.CurrentQuestionIndex, ShouldEqual, 1)
				So(snap.CurrentQuestionText, ShouldEqual, "Why this role?")
				So(snap.Phase, ShouldEqual, session.PhaseCountdown)
				So(snap.AutoRecordSecondsLeft, ShouldEqual, 3)
			})
		})

		Convey("When the upload fails", func() {
			h.answerCurrent(ctx, t)
			h.backend.setUploadErr(errors.New("network down"))
			err := h.ctrl.Next(ctx)

			Convey("Then the session stays on the question with a notification", func() {
				So(err, ShouldNotBeNil)
				So(h.notifier.count("Upload failed"), ShouldEqual, 1)
				snap := h.ctrl.Snapshot()
				So(snap.CurrentQuestionIndex, ShouldEqual, 0)
				So(snap.Phase, ShouldEqual, session.PhaseAnswered)
				So(snap.AnsweredCurrent, ShouldBeTrue)
			})

			Convey("And next succeeds after the fault clears", func() {
				h.backend.setUploadErr(nil)
				So(h.ctrl.Next(ctx), ShouldBeNil)
				So(h.ctrl.Snapshot().CurrentQuestionIndex, ShouldEqual, 1)
			})
		})

		Convey("When the last answer uploads", func() {
			h.answerCurrent(ctx, t)
			So(h.ctrl.Next(ctx), ShouldBeNil)
			h.answerCurrent(ctx, t)
			So(h.ctrl.Next(ctx), ShouldBeNil)

			Convey("Then the session finishes and signals navigation once", func() {
				snap := h.ctrl.Snapshot()
				So(snap.Phase, ShouldEqual, session.PhaseFinished)
				ups := h.backend.uploaded()
				So(ups, ShouldHaveLength, 2)
				So(ups[1].IsLast, ShouldBeTrue)
				So(h.navigator.sessions(), ShouldResemble, []string{"sess-1"})
			})
		})
	})
}

func TestEndCall(t *testing.T) {
	ctx := context.Background()

	Convey("Given a session recording an answer", t, func() {
		h := newHarness(t, twoQuestions())
		So(h.ctrl.Start(ctx), ShouldBeNil)
		So(h.ctrl.StartRecording(ctx), ShouldBeNil)
		h.device.last().feed([]byte("partial"))

		Convey("When the call ends", func() {
			So(h.ctrl.EndCall(ctx), ShouldBeNil)
			snap := h.ctrl.Snapshot()

			Convey("Then the recording stops and the session is absorbed", func() {
				So(snap.Phase, ShouldEqual, session.PhaseCallEnded)
				So(snap.CallActive, ShouldBeFalse)
				So(snap.IsRecording, ShouldBeFalse)
				So(h.notifier.count("Call ended"), ShouldEqual, 1)
			})

			Convey("And every further action is a no-op", func() {
				So(h.ctrl.StartRecording(ctx), ShouldEqual, session.ErrCallEnded)
				So(h.ctrl.Next(ctx), ShouldEqual, session.ErrCallEnded)
				So(h.ctrl.EndCall(ctx), ShouldBeNil)
				So(h.notifier.count("Call ended"), ShouldEqual, 1)
			})
		})
	})
}

func TestClose(t *testing.T) {
	ctx := context.Background()

	Convey("Given a session with two recorded answers", t, func() {
		h := newHarness(t, twoQuestions())
		So(h.ctrl.Start(ctx), ShouldBeNil)
		h.answerCurrent(ctx, t)
		So(h.ctrl.Next(ctx), ShouldBeNil)
		h.answerCurrent(ctx, t)

		Convey("When the session is closed twice", func() {
			So(h.ctrl.Close(), ShouldBeNil)
			So(h.ctrl.Close(), ShouldBeNil)

			Convey("Then each playable handle is released exactly once", func() {
				So(atomic.LoadInt32(&h.handles), ShouldEqual, 2)
				So(atomic.LoadInt32(&h.releases), ShouldEqual, 2)
			})

			Convey("And further actions report the closed state", func() {
				So(h.ctrl.StartRecording(ctx), ShouldEqual, session.ErrClosed)
				So(h.ctrl.Next(ctx), ShouldEqual, session.ErrClosed)
			})
		})
	})
}
