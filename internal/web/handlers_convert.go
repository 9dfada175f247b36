package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/ContactPort/internal/core"
)

// handleConvert accepts a CSV upload and starts a conversion job.
// The file streams through a temp spool, so memory stays constant
// regardless of file size.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	formatKey := chi.URLParam(r, "formatKey")
	if formatKey == "" {
		writeError(w, http.StatusBadRequest, "missing format key")
		return
	}

	maxSize := s.cfg.Convert.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	topics, err := parseTopicsForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid topics format")
		return
	}

	// Attach request metadata so history records the caller
	ctx := WithRequestMetadata(r.Context(), r)
	jobID, err := s.service.StartConversion(ctx, formatKey, header.Filename, file, header.Size, topics)
	if err != nil {
		s.respondError(w, r, err, statusForError(err))
		return
	}

	writeJSON(w, map[string]string{"job_id": jobID})
}

// handlePreview analyzes a CSV file and returns what the conversion
// would produce, without writing anything.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	formatKey := chi.URLParam(r, "formatKey")
	if formatKey == "" {
		writeError(w, http.StatusBadRequest, "missing format key")
		return
	}

	maxSize := s.cfg.Convert.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	topics, err := parseTopicsForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid topics format")
		return
	}

	result, err := s.service.AnalyzeFile(r.Context(), formatKey, data, topics)
	if err != nil {
		s.respondError(w, r, err, statusForError(err))
		return
	}

	writeJSON(w, result)
}

// parseTopicsForm decodes the optional topics form field, a JSON array of
// {"name": ..., "preference": ...} objects.
func parseTopicsForm(r *http.Request) ([]core.TopicPreference, error) {
	raw := r.FormValue("topics")
	if raw == "" {
		return nil, nil
	}

	var topics []core.TopicPreference
	if err := json.Unmarshal([]byte(raw), &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

// handleConvertProgress streams conversion progress via Server-Sent Events.
// Supports resumption via lastEventId query parameter for reconnection.
func (s *Server) handleConvertProgress(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "missing job ID")
		return
	}

	// Support resumption from last event ID
	// The event ID is the progress percentage, allowing clients to skip
	// already-received events after reconnection
	lastEventIDStr := r.URL.Query().Get("lastEventId")
	var lastEventID int
	if lastEventIDStr != "" {
		lastEventID, _ = strconv.Atoi(lastEventIDStr)
	}

	progressCh, err := s.service.SubscribeProgress(jobID)
	if err != nil {
		s.respondError(w, r, err, statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Track event ID for resumption support
	// Using progress percentage as event ID provides natural deduplication
	eventID := lastEventID

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				// Channel closed - conversion complete or cancelled
				fmt.Fprintf(w, "event: complete\ndata: {}\n\n")
				flusher.Flush()
				return
			}

			// Calculate current progress percentage for event ID
			currentPercent := progress.Percent()

			// Skip events that were already sent (for resumption)
			// Only skip if we have a lastEventId and current is not greater
			if lastEventIDStr != "" && currentPercent <= lastEventID {
				continue
			}

			eventID = currentPercent
			data, _ := json.Marshal(progress)

			// Include event ID for client-side tracking and resumption
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", eventID, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleConvertStatus returns a point-in-time snapshot of a job for polling
// clients that cannot hold an SSE connection open.
func (s *Server) handleConvertStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "missing job ID")
		return
	}

	status, err := s.service.GetJobStatus(jobID)
	if err != nil {
		s.respondError(w, r, err, statusForError(err))
		return
	}

	writeJSON(w, status)
}

// handleConvertResult returns the final result of a conversion, blocking
// until the job finishes.
func (s *Server) handleConvertResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "missing job ID")
		return
	}

	result, err := s.service.GetConversionResult(jobID)
	if err != nil {
		s.respondError(w, r, err, statusForError(err))
		return
	}

	writeJSON(w, result)
}

// handleCancelConvert cancels an in-progress conversion.
func (s *Server) handleCancelConvert(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "missing job ID")
		return
	}

	if err := s.service.CancelConversion(jobID); err != nil {
		s.respondError(w, r, err, statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"cancelled"}`))
}

// handleDownload serves the converted output file.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "missing job ID")
		return
	}

	path, name, err := s.service.DownloadInfo(jobID)
	if err != nil {
		if strings.Contains(err.Error(), "still running") {
			writeError(w, http.StatusConflict, "conversion still running")
			return
		}
		s.respondError(w, r, err, statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	http.ServeFile(w, r, path)
}
