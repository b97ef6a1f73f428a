package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/voxpoll/voxpoll/internal/survey"
)

type responsePayload struct {
	SurveyID   int64  `json:"survey_id"`
	Respondent string `json:"respondent_identifier"`
	Status     string `json:"status"`
}

func (s *Server) handleListResponses(w http.ResponseWriter, r *http.Request) {
	f := survey.ResponseFilter{
		SurveyID: queryInt64(r, "survey_id"),
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
	}
	out, err := s.store.ListResponses(r.Context(), f)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if out == nil {
		out = []survey.Response{}
	}
	s.respondJSON(w, http.StatusOK, out)
}

// handleCreateResponse opens a new response session. Anonymous respondents
// get a generated identifier so a session can always be resumed.
func (s *Server) handleCreateResponse(w http.ResponseWriter, r *http.Request) {
	var p responsePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if p.Respondent == "" {
		p.Respondent = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = "in_progress"
	}
	created, err := s.store.CreateResponse(r.Context(), survey.Response{
		SurveyID:   p.SurveyID,
		Respondent: p.Respondent,
		Status:     p.Status,
	})
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetResponse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "responseID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.store.GetResponse(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetResponseWithConversations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "responseID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.store.GetResponse(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	turns, err := s.store.ListTurnsByResponse(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if turns == nil {
		turns = []survey.Turn{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"response":      resp,
		"conversations": turns,
	})
}

func (s *Server) handleUpdateResponse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "responseID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	var p responsePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.store.GetResponse(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if p.Respondent != "" {
		resp.Respondent = p.Respondent
	}
	if p.Status != "" {
		resp.Status = p.Status
	}
	updated, err := s.store.UpdateResponse(r.Context(), resp)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleUpdateResponseStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "responseID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if body.Status == "" {
		s.respondError(w, http.StatusBadRequest, errors.New("status required"))
		return
	}
	updated, err := s.store.UpdateResponseStatus(r.Context(), id, body.Status)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleResponseStatistics(w http.ResponseWriter, r *http.Request) {
	surveyID, err := pathID(r, "surveyID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := s.store.GetSurvey(r.Context(), surveyID); err != nil {
		s.respondStoreError(w, err)
		return
	}
	stats, err := s.store.ResponseStatistics(r.Context(), surveyID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDeleteResponse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "responseID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.DeleteResponse(r.Context(), id); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}
