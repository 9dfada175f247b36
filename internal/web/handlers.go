package web

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/ContactPort/internal/core"
)

// handleDashboard renders the main conversion page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var groups []FormatGroup
	for _, name := range core.Groups() {
		groups = append(groups, FormatGroup{
			Name:    name,
			Formats: core.ByGroup(name),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	Dashboard(groups, s.service.HistoryEnabled()).Render(r.Context(), w)
}

// handleHealthz reports process liveness.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"formats": core.FormatCount(),
		"history": s.service.HistoryEnabled(),
	})
}

// handleListFormats returns all source formats organized by group.
func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.ListFormatsByGroup())
}

// handleDownloadTemplate serves an empty CSV with the columns a source
// format expects, for use as an import template.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	formatKey := chi.URLParam(r, "formatKey")
	if formatKey == "" {
		writeError(w, http.StatusBadRequest, "missing format key")
		return
	}

	format, err := core.ResolveFormat(formatKey)
	if err != nil {
		s.respondError(w, r, err, statusForError(err))
		return
	}

	columns := format.KnownColumns
	if len(columns) == 0 {
		columns = format.EmailColumns[:1]
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-template.csv"`, format.Key))

	cw := csv.NewWriter(w)
	cw.Write(columns)
	cw.Flush()
}

// handleQueueStatus returns the current state of the conversion limiter.
// Used for monitoring and to check if the system can accept more work.
func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.LimiterStatus())
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
