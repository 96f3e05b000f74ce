package sandbox

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/ipp-client/internal/types"
)

func (s *Server) decodeSubmission(w http.ResponseWriter, r *http.Request) (types.QuestionnaireSubmission, bool) {
	var sub types.QuestionnaireSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		s.invalid(w, "responses", "Invalid JSON body")
		return sub, false
	}
	if err := sub.Validate(); err != nil {
		s.invalid(w, "responses", "Field required")
		return sub, false
	}
	return sub, true
}

func (s *Server) handleCreateQuestionnaire(w http.ResponseWriter, r *http.Request) {
	sub, ok := s.decodeSubmission(w, r)
	if !ok {
		return
	}
	u := currentUser(r)
	q := s.store.createQuestionnaire(u.ID, sub, s.now())
	s.logger.Info("sandbox.questionnaire.saved", "questionnaire_id", q.ID, "user_id", u.ID, "complete", sub.IsComplete)
	s.jsonResponse(w, http.StatusOK, q)
}

// handleLatestQuestionnaire answers null when the user has none.
func (s *Server) handleLatestQuestionnaire(w http.ResponseWriter, r *http.Request) {
	q, ok := s.store.latestQuestionnaire(currentUser(r).ID)
	if !ok {
		s.jsonResponse(w, http.StatusOK, nil)
		return
	}
	s.jsonResponse(w, http.StatusOK, q)
}

func (s *Server) handleUpdateQuestionnaire(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.detail(w, http.StatusNotFound, "Questionnaire not found")
		return
	}
	sub, ok := s.decodeSubmission(w, r)
	if !ok {
		return
	}
	u := currentUser(r)
	q, ok := s.store.updateQuestionnaire(u.ID, id, sub, s.now())
	if !ok {
		s.detail(w, http.StatusNotFound, "Questionnaire not found")
		return
	}
	s.logger.Info("sandbox.questionnaire.updated", "questionnaire_id", q.ID, "user_id", u.ID, "complete", sub.IsComplete)
	s.jsonResponse(w, http.StatusOK, q)
}
