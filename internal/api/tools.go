package api

import (
	"log/slog"
	"net/http"

	"github.com/aquasense/aquasense/internal/tools"
)

type toolsHandler struct {
	registry *tools.Registry
	logger   *slog.Logger
}

// toolView describes one registered capability.
type toolView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// list handles GET /api/v1/tools.
func (h *toolsHandler) list(w http.ResponseWriter, _ *http.Request) {
	views := make([]toolView, 0, h.registry.Count())
	for _, name := range h.registry.Names() {
		t, err := h.registry.Get(name)
		if err != nil {
			continue
		}
		views = append(views, toolView{Name: t.Name(), Description: t.Describe()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": views}, h.logger)
}
