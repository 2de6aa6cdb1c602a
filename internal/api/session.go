package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aquasense/aquasense/internal/session"
)

// maxHistoryLimit caps one history page.
const maxHistoryLimit = 200

type sessionHandler struct {
	store  session.Store
	logger *slog.Logger
}

// sessionView is the JSON shape of a session snapshot. The memory bag is
// internal state and deliberately not exposed.
type sessionView struct {
	ID        string            `json:"id"`
	Language  string            `json:"language,omitempty"`
	Location  *session.Location `json:"location,omitempty"`
	TurnCount int               `json:"turnCount"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// get handles GET /api/v1/sessions/{id}.
func (h *sessionHandler) get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView{
		ID:        sess.ID,
		Language:  sess.Language,
		Location:  sess.Location,
		TurnCount: sess.TurnCount,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}, h.logger)
}

// history handles GET /api/v1/sessions/{id}/history?limit=N.
func (h *sessionHandler) history(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer", h.logger)
			return
		}
		limit = min(parsed, maxHistoryLimit)
	}

	turns, err := h.store.History(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if turns == nil {
		turns = []session.Turn{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"turns": turns}, h.logger)
}

func (h *sessionHandler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", "session does not exist", h.logger)
	case errors.Is(err, session.ErrEmptySessionID):
		writeError(w, http.StatusBadRequest, "empty_session_id", "session id is required", h.logger)
	default:
		h.logger.Error("session store failure", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", h.logger)
	}
}
