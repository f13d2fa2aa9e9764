package session

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Phase names for an interview session.
// These must remain as untyped string constants for statekit.StateID compatibility.
const (
	PhaseIdle      = "idle"
	PhaseLoading   = "loading"
	PhaseCountdown = "countdown"
	PhaseRecording = "recording"
	PhaseAnswered  = "answered"
	PhaseUploading = "uploading"
	PhaseFinished  = "finished"
	PhaseCallEnded = "call_ended"
	PhaseFailed    = "failed"
)

// Events driving session transitions.
const (
	eventLoad            = "load"
	eventQuestionsLoaded = "questions_loaded"
	eventLoadFailed      = "load_failed"
	eventAlreadyAnswered = "already_answered"
	eventRecord          = "record"
	eventStop            = "stop"
	eventNext            = "next"
	eventUploadSucceeded = "upload_succeeded"
	eventUploadFailed    = "upload_failed"
	eventSessionComplete = "session_complete"
	eventEndCall         = "end_call"
)

// fsmContext carries state data.
type fsmContext struct {
	SessionID string
}

// sessionFSM owns the valid phases and transitions of one session.
type sessionFSM struct {
	interpreter *statekit.Interpreter[fsmContext]
}

func newSessionFSM(sessionID string) (*sessionFSM, error) {
	builder := statekit.NewMachine[fsmContext]("interview-session").
		WithInitial(statekit.StateID(PhaseIdle)).
		WithContext(fsmContext{SessionID: sessionID})

	builder.State(PhaseIdle).
		On(eventLoad).Target(PhaseLoading).
		Done()

	builder.State(PhaseLoading).
		On(eventQuestionsLoaded).Target(PhaseCountdown).
		On(eventLoadFailed).Target(PhaseFailed).
		Done()

	builder.State(PhaseCountdown).
		On(eventRecord).Target(PhaseRecording).
		On(eventAlreadyAnswered).Target(PhaseAnswered).
		On(eventEndCall).Target(PhaseCallEnded).
		Done()

	builder.State(PhaseRecording).
		On(eventStop).Target(PhaseAnswered).
		On(eventEndCall).Target(PhaseCallEnded).
		Done()

	builder.State(PhaseAnswered).
		On(eventRecord).Target(PhaseRecording).
		On(eventNext).Target(PhaseUploading).
		On(eventEndCall).Target(PhaseCallEnded).
		Done()

	builder.State(PhaseUploading).
		On(eventUploadSucceeded).Target(PhaseCountdown).
		On(eventUploadFailed).Target(PhaseAnswered).
		On(eventSessionComplete).Target(PhaseFinished).
		On(eventEndCall).Target(PhaseCallEnded).
		Done()

	// Absorbing phases
	builder.State(PhaseFinished).Done()
	builder.State(PhaseCallEnded).Done()
	builder.State(PhaseFailed).Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &sessionFSM{interpreter: interpreter}, nil
}

// Transition attempts to apply an event to the session.
func (f *sessionFSM) Transition(event string) error {
	before := f.Current()
	f.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := f.Current()

	if before != after {
		return nil
	}

	// No transition matched; the event is invalid for the current phase.
	return fmt.Errorf("%w: event %q in phase %q", ErrInvalidTransition, event, before)
}

func (f *sessionFSM) Current() string {
	return string(f.interpreter.State().Value)
}
