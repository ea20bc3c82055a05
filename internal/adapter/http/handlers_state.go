package adapthttp

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kittenfeed/internal/domain"
)

func familyID(r *http.Request) string {
	return chi.URLParam(r, "familyID")
}

// millis converts an optional epoch-millisecond timestamp; nil means now.
func millis(ts *int64) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return time.UnixMilli(*ts)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	st, err := s.states.Get(r.Context(), familyID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleReplaceState(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxStateBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("read body: %w", err))
		return
	}
	if _, err := s.states.Replace(r.Context(), familyID(r), raw); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var body domain.Settings
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st, err := s.states.UpdateSettings(r.Context(), familyID(r), body)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
