package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/voxpoll/voxpoll/internal/survey"
)

type surveyPayload struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	UserID      *string `json:"user_id"`
	Language    *string `json:"language"`
}

func (s *Server) handleCreateSurvey(w http.ResponseWriter, r *http.Request) {
	var p surveyPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	sv := survey.Survey{}
	applySurveyPayload(&sv, p)
	created, err := s.store.CreateSurvey(r.Context(), sv)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListSurveys(w http.ResponseWriter, r *http.Request) {
	f := survey.SurveyFilter{
		Status: r.URL.Query().Get("status"),
		UserID: r.URL.Query().Get("user_id"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	out, err := s.store.ListSurveys(r.Context(), f)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if out == nil {
		out = []survey.Survey{}
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "surveyID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	sv, err := s.store.GetSurvey(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sv)
}

func (s *Server) handleGetSurveyWithQuestions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "surveyID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	sv, err := s.store.GetSurvey(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	questions, err := s.store.ListQuestionsBySurvey(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if questions == nil {
		questions = []survey.Question{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"survey":    sv,
		"questions": questions,
	})
}

func (s *Server) handleUpdateSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "surveyID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	var p surveyPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	sv, err := s.store.GetSurvey(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	applySurveyPayload(&sv, p)
	updated, err := s.store.UpdateSurvey(r.Context(), sv)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "surveyID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.DeleteSurvey(r.Context(), id); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func applySurveyPayload(sv *survey.Survey, p surveyPayload) {
	if p.Title != nil {
		sv.Title = *p.Title
	}
	if p.Description != nil {
		sv.Description = *p.Description
	}
	if p.Status != nil {
		sv.Status = *p.Status
	}
	if p.UserID != nil {
		sv.UserID = *p.UserID
	}
	if p.Language != nil {
		sv.Language = *p.Language
	}
}
