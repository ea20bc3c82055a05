package adapthttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleAddWeight(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Weight    float64 `json:"weight"`
		Timestamp *int64  `json:"timestamp"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st, err := s.states.AddWeight(r.Context(), familyID(r), body.Weight, millis(body.Timestamp))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleDeleteWeight(w http.ResponseWriter, r *http.Request) {
	st, err := s.states.DeleteWeight(r.Context(), familyID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleEditWeight(w http.ResponseWriter, r *http.Request) {
	var body timestampBody
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Timestamp == nil {
		writeError(w, http.StatusBadRequest, errTimestampRequired)
		return
	}
	st, err := s.states.EditWeightTime(r.Context(), familyID(r), chi.URLParam(r, "id"), millis(body.Timestamp))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
