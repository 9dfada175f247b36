package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleHistory returns recent conversion runs.
// Returns an empty list when no database is configured.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 50)

	records, err := s.service.ListConversions(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, records)
}

// handleHistoryEntry returns a single conversion run by ID.
func (s *Server) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing conversion id")
		return
	}

	record, err := s.service.GetConversion(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, statusForError(err))
		return
	}

	writeJSON(w, record)
}
