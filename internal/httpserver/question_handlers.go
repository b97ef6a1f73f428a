package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voxpoll/voxpoll/internal/survey"
)

type questionPayload struct {
	SurveyID      int64   `json:"survey_id"`
	QuestionText  string  `json:"question_text"`
	QuestionOrder int     `json:"question_order"`
	FollowupCount int     `json:"followup_count"`
	QuestionType  string  `json:"question_type"`
	Objectives    string  `json:"question_objectives"`
}

func (p questionPayload) toQuestion() survey.Question {
	return survey.Question{
		SurveyID:      p.SurveyID,
		QuestionText:  p.QuestionText,
		QuestionOrder: p.QuestionOrder,
		FollowupCount: p.FollowupCount,
		QuestionType:  p.QuestionType,
		Objectives:    p.Objectives,
	}
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	surveyID := queryInt64(r, "survey_id")
	if surveyID == 0 {
		s.respondError(w, http.StatusBadRequest, errors.New("survey_id query parameter required"))
		return
	}
	out, err := s.store.ListQuestionsBySurvey(r.Context(), surveyID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if out == nil {
		out = []survey.Question{}
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var p questionPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	created, err := s.store.CreateQuestion(r.Context(), p.toQuestion())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleCreateQuestionsBulk(w http.ResponseWriter, r *http.Request) {
	var payloads []questionPayload
	if err := json.NewDecoder(r.Body).Decode(&payloads); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	qs := make([]survey.Question, 0, len(payloads))
	for _, p := range payloads {
		qs = append(qs, p.toQuestion())
	}
	created, err := s.store.CreateQuestions(r.Context(), qs)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListQuestionsByType(w http.ResponseWriter, r *http.Request) {
	questionType := chi.URLParam(r, "questionType")
	surveyID := queryInt64(r, "survey_id")
	if surveyID == 0 {
		s.respondError(w, http.StatusBadRequest, errors.New("survey_id query parameter required"))
		return
	}
	if _, err := s.store.GetSurvey(r.Context(), surveyID); err != nil {
		s.respondStoreError(w, err)
		return
	}
	out, err := s.store.ListQuestionsByType(r.Context(), surveyID, questionType)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if out == nil {
		out = []survey.Question{}
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "questionID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	q, err := s.store.GetQuestion(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, q)
}

func (s *Server) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "questionID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	var p questionPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	q := p.toQuestion()
	q.ID = id
	updated, err := s.store.UpdateQuestion(r.Context(), q)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "questionID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.DeleteQuestion(r.Context(), id); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleReorderQuestions(w http.ResponseWriter, r *http.Request) {
	surveyID, err := pathID(r, "surveyID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	var body struct {
		QuestionIDs []int64 `json:"question_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if len(body.QuestionIDs) == 0 {
		s.respondError(w, http.StatusBadRequest, errors.New("question_ids required"))
		return
	}
	out, err := s.store.ReorderQuestions(r.Context(), surveyID, body.QuestionIDs)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, out)
}
