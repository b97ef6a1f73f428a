// Package httpserver exposes the REST and streaming endpoints of the VoxPoll
// backend.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/voxpoll/voxpoll/internal/conversation"
	"github.com/voxpoll/voxpoll/internal/survey"
	"github.com/voxpoll/voxpoll/internal/version"
)

// ConversationService is the orchestration capability consumed by the chat
// endpoints.
type ConversationService interface {
	StartConversation(ctx context.Context, responseID int64) (<-chan conversation.Event, error)
	Continue(ctx context.Context, responseID int64, userMessage string) (<-chan conversation.Event, error)
}

// Server routes HTTP requests to the survey store and the conversation
// orchestrator.
type Server struct {
	store    survey.Store
	convo    ConversationService
	logger   *log.Logger
	logLevel string
}

// New creates a Server.
func New(store survey.Store, convo ConversationService, logger *log.Logger, logLevel string) *Server {
	return &Server{store: store, convo: convo, logger: logger, logLevel: logLevel}
}

// Router returns the configured chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Post("/chat", s.handleChat)
	r.Post("/first_chat", s.handleFirstChat)

	r.Route("/surveys", func(sr chi.Router) {
		sr.Post("/", s.handleCreateSurvey)
		sr.Get("/", s.handleListSurveys)
		sr.Get("/{surveyID}", s.handleGetSurvey)
		sr.Get("/{surveyID}/with-questions", s.handleGetSurveyWithQuestions)
		sr.Patch("/{surveyID}", s.handleUpdateSurvey)
		sr.Delete("/{surveyID}", s.handleDeleteSurvey)
	})

	r.Route("/questions", func(qr chi.Router) {
		qr.Get("/", s.handleListQuestions)
		qr.Post("/", s.handleCreateQuestion)
		qr.Post("/bulk", s.handleCreateQuestionsBulk)
		qr.Get("/type/{questionType}", s.handleListQuestionsByType)
		qr.Get("/{questionID}", s.handleGetQuestion)
		qr.Put("/{questionID}", s.handleUpdateQuestion)
		qr.Delete("/{questionID}", s.handleDeleteQuestion)
		qr.Put("/survey/{surveyID}/reorder", s.handleReorderQuestions)
	})

	r.Route("/responses", func(rr chi.Router) {
		rr.Get("/", s.handleListResponses)
		rr.Post("/", s.handleCreateResponse)
		rr.Get("/statistics/{surveyID}", s.handleResponseStatistics)
		rr.Get("/{responseID}", s.handleGetResponse)
		rr.Get("/{responseID}/with-conversations", s.handleGetResponseWithConversations)
		rr.Put("/{responseID}", s.handleUpdateResponse)
		rr.Put("/{responseID}/status", s.handleUpdateResponseStatus)
		rr.Delete("/{responseID}", s.handleDeleteResponse)
	})

	r.Route("/conversations", func(cr chi.Router) {
		cr.Get("/", s.handleListTurns)
		cr.Post("/", s.handleCreateTurn)
		cr.Post("/bulk", s.handleCreateTurnsBulk)
		cr.Get("/{turnID}", s.handleGetTurn)
		cr.Delete("/{turnID}", s.handleDeleteTurn)
		cr.Get("/response/{responseID}/latest", s.handleLatestTurn)
		cr.Get("/response/{responseID}/count", s.handleCountTurns)
		cr.Get("/response/{responseID}/search", s.handleSearchTurns)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Version,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	s.respondJSON(w, status, map[string]any{"error": err.Error()})
}

// respondStoreError maps survey.ErrNotFound to 404 and everything else to 500.
func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, survey.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, err)
		return
	}
	s.respondError(w, http.StatusInternalServerError, err)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

func queryInt64(r *http.Request, name string) int64 {
	n, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return n
}

func (s *Server) isDebug() bool { return s.logLevel == "debug" }

func (s *Server) debugf(format string, args ...any) {
	if s.logger != nil && s.isDebug() {
		s.logger.Printf("DEBUG "+format, args...)
	}
}

func (s *Server) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
