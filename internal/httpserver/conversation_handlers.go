package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/voxpoll/voxpoll/internal/survey"
)

type turnPayload struct {
	ResponseID int64  `json:"survey_response_id"`
	Speaker    string `json:"speaker_type"`
	Message    string `json:"message_text"`
	Order      int    `json:"conversation_order"`
}

func (s *Server) handleListTurns(w http.ResponseWriter, r *http.Request) {
	responseID := queryInt64(r, "response_id")
	if responseID == 0 {
		s.respondError(w, http.StatusBadRequest, errors.New("response_id query parameter required"))
		return
	}
	out, err := s.store.ListTurnsByResponse(r.Context(), responseID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if out == nil {
		out = []survey.Turn{}
	}
	s.respondJSON(w, http.StatusOK, out)
}

// handleCreateTurn inserts a turn verbatim. Conversational appends go through
// the orchestrator; this endpoint exists for imports and administration.
func (s *Server) handleCreateTurn(w http.ResponseWriter, r *http.Request) {
	var p turnPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	created, err := s.store.CreateTurn(r.Context(), survey.Turn{
		ResponseID: p.ResponseID,
		Speaker:    survey.SpeakerType(p.Speaker),
		Message:    p.Message,
		Order:      p.Order,
	})
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, created)
}

// handleCreateTurnsBulk inserts a batch of turns for one response. Entries
// without an explicit order are numbered after the current latest turn, in
// list position.
func (s *Server) handleCreateTurnsBulk(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ResponseID    int64         `json:"response_id"`
		Conversations []turnPayload `json:"conversations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := s.store.GetResponse(r.Context(), body.ResponseID); err != nil {
		s.respondStoreError(w, err)
		return
	}
	if len(body.Conversations) == 0 {
		s.respondError(w, http.StatusBadRequest, errors.New("conversations required"))
		return
	}

	nextOrder := 1
	latest, err := s.store.LatestTurnByResponse(r.Context(), body.ResponseID)
	switch {
	case err == nil:
		nextOrder = latest.Order + 1
	case errors.Is(err, survey.ErrNotFound):
		// first turns for this response
	default:
		s.respondStoreError(w, err)
		return
	}

	created := make([]survey.Turn, 0, len(body.Conversations))
	for _, p := range body.Conversations {
		order := p.Order
		if order == 0 {
			order = nextOrder
			nextOrder++
		}
		t, err := s.store.CreateTurn(r.Context(), survey.Turn{
			ResponseID: body.ResponseID,
			Speaker:    survey.SpeakerType(p.Speaker),
			Message:    p.Message,
			Order:      order,
		})
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err)
			return
		}
		created = append(created, t)
	}
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTurn(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "turnID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	t, err := s.store.GetTurn(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTurn(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "turnID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.DeleteTurn(r.Context(), id); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleLatestTurn(w http.ResponseWriter, r *http.Request) {
	responseID, err := pathID(r, "responseID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	t, err := s.store.LatestTurnByResponse(r.Context(), responseID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleSearchTurns(w http.ResponseWriter, r *http.Request) {
	responseID, err := pathID(r, "responseID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	query := r.URL.Query().Get("query")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, errors.New("query parameter required"))
		return
	}
	if _, err := s.store.GetResponse(r.Context(), responseID); err != nil {
		s.respondStoreError(w, err)
		return
	}
	out, err := s.store.SearchTurnsByResponse(r.Context(), responseID, query)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if out == nil {
		out = []survey.Turn{}
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCountTurns(w http.ResponseWriter, r *http.Request) {
	responseID, err := pathID(r, "responseID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	n, err := s.store.CountTurnsByResponse(r.Context(), responseID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"count": n})
}
