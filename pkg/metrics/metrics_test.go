package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestManagerRegistersOnCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewManager(WithPrometheusRegistry(reg), WithNamespace("test"), WithSubsystem("session"))
	if m == nil {
		t.Fatal("manager is nil")
	}

	m.sessionsStarted.Inc()
	m.answersUploaded.Inc()
	m.notifications.WithLabelValues("destructive").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metric families")
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "test_session_") {
			t.Errorf("unexpected metric name %q", mf.GetName())
		}
	}
}

func TestGlobalHelpers(t *testing.T) {
	before := testutil.ToFloat64(globalManager.sessionsStarted)

	RecordSessionStarted()
	RecordSessionFinished()
	RecordSessionFailed()
	UpdateActiveSessions(3)
	RecordRecordingStarted()
	RecordRecordingStopped()
	RecordAutoRecordStart()
	RecordRecordingDuration(42)
	RecordAnswerUploaded()
	RecordUploadError()
	RecordUploadLatency(12.5)
	RecordNotification("default")
	RecordFeedbackPoll()
	RecordFeedbackDerivation()
	RecordFeedbackFailure()
	RecordDerivationLatency(1.5)
	UpdateQueueSize(10)
	UpdateQueueCapacity(100)
	RecordQueueEnqueue()
	RecordQueueDequeue()
	RecordQueueEnqueueError()
	UpdateWorkerCount(4)
	RecordWorkerProcessingLatency(250)
	RecordWorkerError()
	RecordHTTPRequest("sessions", "POST", "200")
	RecordHTTPRequestDuration("sessions", "POST", "200", 3.2)
	RecordErrorByType("client_error", "medium")
	RecordErrorByEndpoint("sessions", "POST", "client_error")
	RecordErrorLatency("http", "client_error", 3.2)
	UpdateSystemMemoryUsage(1 << 20)
	UpdateSystemGoroutineCount(42)

	after := testutil.ToFloat64(globalManager.sessionsStarted)
	if after != before+1 {
		t.Errorf("sessionsStarted = %v, want %v", after, before+1)
	}
	if got := testutil.ToFloat64(globalManager.sessionsActive); got != 3 {
		t.Errorf("sessionsActive = %v, want 3", got)
	}
	if GetRegistry() == nil {
		t.Error("expected custom registry")
	}
}
