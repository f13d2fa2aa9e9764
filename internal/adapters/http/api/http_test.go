package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/rehearse/internal/adapters/http/api"
	"github.com/okian/rehearse/internal/adapters/notify"
	"github.com/okian/rehearse/internal/domain/model"
	"github.com/okian/rehearse/internal/domain/session"
	"github.com/okian/rehearse/internal/domain/types"
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

var errSessionNotFound = errors.New("session not found")

type stubDeps struct {
	snapshots   map[string]types.SessionSnapshot
	created     types.SessionSnapshot
	createErr   error
	actionErr   error
	actions     []string
	feedback    types.FeedbackResult
	feedbackErr error
	notes       []notify.Entry
}

func (s *stubDeps) CreateSession(_ context.Context) (types.SessionSnapshot, error) {
	return s.created, s.createErr
}

func (s *stubDeps) Session(_ context.Context, sessionID string) (types.SessionSnapshot, error) {
	snap, ok := s.snapshots[sessionID]
	if !ok {
		return types.SessionSnapshot{}, errSessionNotFound
	}
	return snap, nil
}

func (s *stubDeps) CloseSession(_ context.Context, sessionID string) error {
	if _, ok := s.snapshots[sessionID]; !ok {
		return errSessionNotFound
	}
	s.actions = append(s.actions, "close:"+sessionID)
	return nil
}

func (s *stubDeps) act(name, sessionID string) error {
	if _, ok := s.snapshots[sessionID]; !ok {
		return errSessionNotFound
	}
	if s.actionErr != nil {
		return s.actionErr
	}
	s.actions = append(s.actions, name+":"+sessionID)
	return nil
}

func (s *stubDeps) StartRecording(_ context.Context, id string) error { return s.act("record", id) }
func (s *stubDeps) StopRecording(_ context.Context, id string) error  { return s.act("stop", id) }
func (s *stubDeps) Next(_ context.Context, id string) error           { return s.act("next", id) }
func (s *stubDeps) EndCall(_ context.Context, id string) error        { return s.act("end", id) }

func (s *stubDeps) FeedbackResult(_ context.Context, _ string) (types.FeedbackResult, error) {
	return s.feedback, s.feedbackErr
}

func (s *stubDeps) Notifications(limit int) []notify.Entry {
	if limit > 0 && limit < len(s.notes) {
		return s.notes[len(s.notes)-limit:]
	}
	return s.notes
}

type stubStats struct{}

func (stubStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestServer(deps *stubDeps) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps, stubStats{}).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func doRequest(t *testing.T, method, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func TestSessionRoutes(t *testing.T) {
	Convey("Given the API over a stubbed service", t, func() {
		deps := &stubDeps{
			created: types.SessionSnapshot{SessionID: "sess-1", Phase: session.PhaseCountdown, QuestionCount: 2},
			snapshots: map[string]types.SessionSnapshot{
				"sess-1": {SessionID: "sess-1", Phase: session.PhaseCountdown, QuestionCount: 2},
			},
		}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When a session is created", func() {
			resp, body := doRequest(t, http.MethodPost, srv.URL+"/sessions")

			Convey("Then 201 carries the snapshot", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				var snap types.SessionSnapshot
				So(json.Unmarshal(body, &snap), ShouldBeNil)
				So(snap.SessionID, ShouldEqual, "sess-1")
				So(snap.Phase, ShouldEqual, session.PhaseCountdown)
			})
		})

		Convey("When the wrong method hits /sessions", func() {
			resp, _ := doRequest(t, http.MethodGet, srv.URL+"/sessions")
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When a session is fetched", func() {
			resp, body := doRequest(t, http.MethodGet, srv.URL+"/sessions/sess-1")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var snap types.SessionSnapshot
			So(json.Unmarshal(body, &snap), ShouldBeNil)
			So(snap.QuestionCount, ShouldEqual, 2)
		})

		Convey("When an unknown session is fetched", func() {
			resp, _ := doRequest(t, http.MethodGet, srv.URL+"/sessions/ghost")
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When session actions are posted", func() {
			for _, action := range []string{"record", "stop", "next", "end"} {
				resp, _ := doRequest(t, http.MethodPost, srv.URL+"/sessions/sess-1/"+action)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			}

			Convey("Then each action reached the service", func() {
				So(deps.actions, ShouldResemble, []string{
					"record:sess-1", "stop:sess-1", "next:sess-1", "end:sess-1",
				})
			})
		})

		Convey("When a guard rejects the action", func() {
			deps.actionErr = session.ErrNotAnswered
			resp, _ := doRequest(t, http.MethodPost, srv.URL+"/sessions/sess-1/next")
			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
		})

		Convey("When the action is unknown", func() {
			resp, _ := doRequest(t, http.MethodPost, srv.URL+"/sessions/sess-1/dance")
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a session is deleted", func() {
			resp, _ := doRequest(t, http.MethodDelete, srv.URL+"/sessions/sess-1")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.actions, ShouldContain, "close:sess-1")
		})
	})
}

func TestFeedbackRoute(t *testing.T) {
	Convey("Given the API over a stubbed service", t, func() {
		deps := &stubDeps{
			snapshots: map[string]types.SessionSnapshot{"sess-1": {SessionID: "sess-1"}},
		}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When feedback is still pending", func() {
			deps.feedbackErr = errors.New("feedback not ready")
			resp, body := doRequest(t, http.MethodGet, srv.URL+"/sessions/sess-1/feedback")

			Convey("Then 202 signals processing", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(string(body), ShouldContainSubstring, "processing")
			})
		})

		Convey("When feedback is ready", func() {
			deps.feedback = types.FeedbackResult{
				SessionID: "sess-1",
				Status:    model.FeedbackSuccess,
				Feedback:  model.NormalizedFeedback{OverallScore: 85},
			}
			resp, body := doRequest(t, http.MethodGet, srv.URL+"/sessions/sess-1/feedback")

			Convey("Then 200 carries the result", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var result types.FeedbackResult
				So(json.Unmarshal(body, &result), ShouldBeNil)
				So(result.Status, ShouldEqual, model.FeedbackSuccess)
			})
		})

		Convey("When the session is unknown", func() {
			deps.feedbackErr = errSessionNotFound
			resp, _ := doRequest(t, http.MethodGet, srv.URL+"/sessions/ghost/feedback")
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestNotificationsAndStats(t *testing.T) {
	Convey("Given the API over a stubbed service", t, func() {
		deps := &stubDeps{
			notes: []notify.Entry{
				{SessionID: "sess-1", Notification: model.Notification{Title: "Answer recorded"}, At: time.Now()},
				{SessionID: "sess-1", Notification: model.Notification{Title: "Call ended"}, At: time.Now()},
			},
		}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When notifications are listed", func() {
			resp, body := doRequest(t, http.MethodGet, srv.URL+"/notifications?limit=1")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var entries []notify.Entry
			So(json.Unmarshal(body, &entries), ShouldBeNil)
			So(entries, ShouldHaveLength, 1)
			So(entries[0].Notification.Title, ShouldEqual, "Call ended")
		})

		Convey("When the limit is malformed", func() {
			resp, _ := doRequest(t, http.MethodGet, srv.URL+"/notifications?limit=many")
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When stats are requested", func() {
			resp, body := doRequest(t, http.MethodGet, srv.URL+"/stats")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(string(body), ShouldContainSubstring, "started")
		})

		Convey("When health metrics are scraped", func() {
			resp, _ := doRequest(t, http.MethodGet, srv.URL+"/healthz")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
