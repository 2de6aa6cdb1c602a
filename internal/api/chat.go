package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/aquasense/aquasense/internal/orchestrator"
	"github.com/aquasense/aquasense/internal/session"
)

// maxChatBodyBytes caps one chat request body.
const maxChatBodyBytes = 64 << 10 // 64KB

// maxMessageLen caps the user message length in runes.
const maxMessageLen = 4000

// TurnHandler is the orchestration surface the chat handler depends on.
// orchestrator.Orchestrator satisfies it.
type TurnHandler interface {
	HandleTurn(ctx context.Context, sessionID, userID, message string, loc *session.Location) *orchestrator.Response
}

// chatRequest is one inbound chat message.
type chatRequest struct {
	SessionID string            `json:"sessionId"`
	UserID    string            `json:"userId"`
	Message   string            `json:"message"`
	Location  *session.Location `json:"location,omitempty"`
}

type chatHandler struct {
	turns  TurnHandler
	logger *slog.Logger
}

// send handles POST /api/v1/chat.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	body := io.LimitReader(r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", h.logger)
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "empty_message", "message is required", h.logger)
		return
	}
	if len([]rune(req.Message)) > maxMessageLen {
		writeError(w, http.StatusBadRequest, "message_too_long", "message exceeds maximum length", h.logger)
		return
	}
	if req.Location != nil && !req.Location.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_location", "location out of geospatial bounds", h.logger)
		return
	}
	if req.SessionID == "" {
		// First message of a new conversation: mint a session id the
		// client carries forward.
		req.SessionID = uuid.NewString()
	}

	resp := h.turns.HandleTurn(r.Context(), req.SessionID, req.UserID, req.Message, req.Location)
	writeJSON(w, http.StatusOK, resp, h.logger)
}
