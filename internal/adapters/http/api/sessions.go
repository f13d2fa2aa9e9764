// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// SessionsHandler handles session lifecycle and action requests.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleCreateSession handles POST /sessions requests.
func (h *SessionsHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	snap, err := h.deps.CreateSession(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// HandleSession routes /sessions/{id} and /sessions/{id}/{action} requests.
func (h *SessionsHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.session"

	// Extract path parameters after /sessions/
	path := strings.TrimPrefix(r.URL.Path, "/sessions/")
	if path == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	sessionID, action, _ := strings.Cut(path, "/")
	if sessionID == "" || strings.Contains(action, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	if action == "" {
		h.handleSessionResource(w, r, sessionID)
		return
	}
	h.handleSessionAction(w, r, sessionID, action)
}

func (h *SessionsHandler) handleSessionResource(w http.ResponseWriter, r *http.Request, sessionID string) {
	const op = "api.session"
	switch r.Method {
	case http.MethodGet:
		snap, err := h.deps.Session(r.Context(), sessionID)
		if err != nil {
			translateActionError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	case http.MethodDelete:
		if err := h.deps.CloseSession(r.Context(), sessionID); err != nil {
			translateActionError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, ackResponse{Status: "closed"})
	default:
		http.NotFound(w, r)
	}
}

func (h *SessionsHandler) handleSessionAction(w http.ResponseWriter, r *http.Request, sessionID, action string) {
	const op = "api.session_action"

	if action == "feedback" {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		h.handleFeedback(w, r, sessionID)
		return
	}

	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var err error
	switch action {
	case "record":
		err = h.deps.StartRecording(r.Context(), sessionID)
	case "stop":
		err = h.deps.StopRecording(r.Context(), sessionID)
	case "next":
		err = h.deps.Next(r.Context(), sessionID)
	case "end":
		err = h.deps.EndCall(r.Context(), sessionID)
	default:
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if err != nil {
		translateActionError(w, op, err)
		return
	}

	snap, err := h.deps.Session(r.Context(), sessionID)
	if err != nil {
		translateActionError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
