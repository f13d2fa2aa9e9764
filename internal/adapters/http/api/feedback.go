// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// pendingResponse is returned while the feedback pipeline is still polling.
type pendingResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// handleFeedback handles GET /sessions/{id}/feedback requests.
func (h *SessionsHandler) handleFeedback(w http.ResponseWriter, r *http.Request, sessionID string) {
	const op = "api.feedback"

	result, err := h.deps.FeedbackResult(r.Context(), sessionID)
	if err != nil {
		if isPending(err) {
			writeJSON(w, http.StatusAccepted, pendingResponse{SessionID: sessionID, Status: "processing"})
			return
		}
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
