package adapthttp

import (
	"errors"
	"net/http"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.summaries.Summary(r.Context(), familyID(r), r.URL.Query().Get("unit"), s.states.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 30)
	items, err := s.summaries.Daily(r.Context(), familyID(r), days, s.states.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": len(items), "items": items})
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	if s.advice == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("advice is not configured"))
		return
	}
	a, err := s.advice.Advice(r.Context(), familyID(r), s.states.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
