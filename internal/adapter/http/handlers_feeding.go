package adapthttp

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kittenfeed/internal/domain"
)

var errTimestampRequired = errors.New("timestamp is required")

type timestampBody struct {
	Timestamp *int64 `json:"timestamp"`
}

func (s *Server) handleAddFeeding(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type      string  `json:"type"`
		Amount    float64 `json:"amount"`
		Timestamp *int64  `json:"timestamp"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st, err := s.states.AddFeeding(r.Context(), familyID(r), domain.FoodType(body.Type), body.Amount, millis(body.Timestamp))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleDeleteFeeding(w http.ResponseWriter, r *http.Request) {
	st, err := s.states.DeleteFeeding(r.Context(), familyID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleEditFeeding(w http.ResponseWriter, r *http.Request) {
	var body timestampBody
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Timestamp == nil {
		writeError(w, http.StatusBadRequest, errTimestampRequired)
		return
	}
	st, err := s.states.EditFeedingTime(r.Context(), familyID(r), chi.URLParam(r, "id"), millis(body.Timestamp))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
