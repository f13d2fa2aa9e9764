package worker_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/okian/rehearse/internal/adapters/mq/queue"
	"github.com/okian/rehearse/internal/adapters/mq/worker"
	"github.com/okian/rehearse/internal/domain/model"
	"github.com/okian/rehearse/internal/domain/types"
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

type mockQueue struct {
	eventChan chan queue.Event
}

func newMockQueue() *mockQueue {
	return &mockQueue{eventChan: make(chan queue.Event, 10)}
}

func (mq *mockQueue) Dequeue(_ context.Context) <-chan queue.Event {
	return mq.eventChan
}

func (mq *mockQueue) addEvent(event queue.Event) {
	mq.eventChan <- event
}

type mockBackend struct {
	mu          sync.Mutex
	statuses    []model.FeedbackStatusReport
	statusCalls int
	raw         model.RawFeedback
	feedbackErr error
}

func (mb *mockBackend) FeedbackStatus(_ context.Context, _ string) (model.FeedbackStatusReport, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	idx := mb.statusCalls
	mb.statusCalls++
	if idx >= len(mb.statuses) {
		return mb.statuses[len(mb.statuses)-1], nil
	}
	return mb.statuses[idx], nil
}

func (mb *mockBackend) Feedback(_ context.Context, _ string) (model.RawFeedback, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.feedbackErr != nil {
		return model.RawFeedback{}, mb.feedbackErr
	}
	return mb.raw, nil
}

func (mb *mockBackend) calls() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.statusCalls
}

type mockStore struct {
	mu      sync.Mutex
	results map[string]types.FeedbackResult
}

func newMockStore() *mockStore {
	return &mockStore{results: make(map[string]types.FeedbackResult)}
}

func (ms *mockStore) Put(_ context.Context, result types.FeedbackResult) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.results[result.SessionID] = result
	return nil
}

func (ms *mockStore) get(sessionID string) (types.FeedbackResult, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	r, ok := ms.results[sessionID]
	return r, ok
}

func floatPtr(v float64) *float64 { return &v }

func TestPollWorker(t *testing.T) {
	Convey("Given a worker over a queue, backend and store", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		mq := newMockQueue()
		store := newMockStore()
		clk := clock.NewManual(time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC))

		Convey("When feedback is ready on the first poll", func() {
			backend := &mockBackend{
				statuses: []model.FeedbackStatusReport{{Status: model.FeedbackSuccess}},
				raw: model.RawFeedback{
					ConfidenceScore: floatPtr(8),
					Sentiment:       "positive",
				},
			}
			w := worker.NewPollWorker(mq, backend, store, worker.WithClock(clk), worker.WithName("poller-1"))
			go w.Run(ctx)

			mq.addEvent(queue.Event{EventID: "evt1", SessionID: "sess-1"})

			Convey("Then the derived result lands in the store", func() {
				So(waitFor(func() bool { _, ok := store.get("sess-1"); return ok }), ShouldBeTrue)
				result, _ := store.get("sess-1")
				So(result.Status, ShouldEqual, model.FeedbackSuccess)
				normalized, ok := result.Feedback.(model.NormalizedFeedback)
				So(ok, ShouldBeTrue)
				So(normalized.OverallScore, ShouldEqual, 90)
			})

			So(w.Shutdown(context.Background()), ShouldBeNil)
		})

		Convey("When the backend needs a few polls", func() {
			backend := &mockBackend{
				statuses: []model.FeedbackStatusReport{
					{Status: model.FeedbackProcessing},
					{Status: model.FeedbackProcessing},
					{Status: model.FeedbackCompleted},
				},
			}
			w := worker.NewPollWorker(mq, backend, store,
				worker.WithClock(clk),
				worker.WithPollInterval(3*time.Second),
			)
			go w.Run(ctx)

			mq.addEvent(queue.Event{EventID: "evt1", SessionID: "sess-2"})

			Convey("Then each advance of the clock triggers the next poll", func() {
				So(waitFor(func() bool { return backend.calls() == 1 }), ShouldBeTrue)
				clk.Advance(3 * time.Second)
				So(waitFor(func() bool { return backend.calls() == 2 }), ShouldBeTrue)
				clk.Advance(3 * time.Second)
				So(waitFor(func() bool { _, ok := store.get("sess-2"); return ok }), ShouldBeTrue)
				result, _ := store.get("sess-2")
				So(result.Status, ShouldEqual, model.FeedbackSuccess)
			})

			So(w.Shutdown(context.Background()), ShouldBeNil)
		})

		Convey("When the backend reports a generation error", func() {
			backend := &mockBackend{
				statuses: []model.FeedbackStatusReport{{Status: model.FeedbackError, Message: "transcription failed"}},
			}
			w := worker.NewPollWorker(mq, backend, store, worker.WithClock(clk))
			go w.Run(ctx)

			mq.addEvent(queue.Event{EventID: "evt1", SessionID: "sess-3"})

			Convey("Then an error result is stored with the message", func() {
				So(waitFor(func() bool { _, ok := store.get("sess-3"); return ok }), ShouldBeTrue)
				result, _ := store.get("sess-3")
				So(result.Status, ShouldEqual, model.FeedbackError)
				So(result.Message, ShouldEqual, "transcription failed")
			})

			So(w.Shutdown(context.Background()), ShouldBeNil)
		})

		Convey("When the poll budget runs out", func() {
			backend := &mockBackend{
				statuses: []model.FeedbackStatusReport{{Status: model.FeedbackProcessing}},
			}
			w := worker.NewPollWorker(mq, backend, store,
				worker.WithClock(clk),
				worker.WithPollAttempts(2),
				worker.WithPollInterval(time.Second),
			)
			go w.Run(ctx)

			mq.addEvent(queue.Event{EventID: "evt1", SessionID: "sess-4"})

			Convey("Then a timeout result is stored", func() {
				So(waitFor(func() bool { return backend.calls() == 1 }), ShouldBeTrue)
				clk.Advance(time.Second)
				So(waitFor(func() bool { _, ok := store.get("sess-4"); return ok }), ShouldBeTrue)
				result, _ := store.get("sess-4")
				So(result.Status, ShouldEqual, model.FeedbackError)
				So(result.Message, ShouldEqual, "feedback generation timed out")
			})

			So(w.Shutdown(context.Background()), ShouldBeNil)
		})

		Convey("When the worker is shut down idle", func() {
			backend := &mockBackend{statuses: []model.FeedbackStatusReport{{Status: model.FeedbackProcessing}}}
			w := worker.NewPollWorker(mq, backend, store, worker.WithClock(clk))
			go w.Run(ctx)

			Convey("Then shutdown returns promptly", func() {
				shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), time.Second)
				defer cancelShutdown()
				So(w.Shutdown(shutdownCtx), ShouldBeNil)
			})
		})
	})
}
