package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voxpoll/voxpoll/internal/conversation"
)

// doneSentinel terminates every successful stream so clients can tell "no
// more tokens" from a dropped connection.
const doneSentinel = "[DONE]"

type chatRequest struct {
	ResponseID int64  `json:"response_id"`
	Message    string `json:"message"`
}

type firstChatRequest struct {
	ResponseID int64 `json:"response_id"`
}

// handleChat runs one conversation exchange and streams the reply as SSE.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	if !s.validateResponseID(w, r, req.ResponseID) {
		return
	}

	ch, err := s.convo.Continue(r.Context(), req.ResponseID, req.Message)
	if err != nil {
		s.respondConversationError(w, err)
		return
	}
	s.streamEvents(w, r, ch)
}

// handleFirstChat opens a conversation; duplicate calls on a session that
// already has turns degrade to a plain continue.
func (s *Server) handleFirstChat(w http.ResponseWriter, r *http.Request) {
	var req firstChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	if !s.validateResponseID(w, r, req.ResponseID) {
		return
	}

	ch, err := s.convo.StartConversation(r.Context(), req.ResponseID)
	if err != nil {
		s.respondConversationError(w, err)
		return
	}
	s.streamEvents(w, r, ch)
}

// validateResponseID rejects unknown response ids with a 404 before any
// stream is opened.
func (s *Server) validateResponseID(w http.ResponseWriter, r *http.Request, id int64) bool {
	if _, err := s.store.GetResponse(r.Context(), id); err != nil {
		s.logf("chat: invalid response id %d: %v", id, err)
		s.respondStoreError(w, err)
		return false
	}
	return true
}

func (s *Server) respondConversationError(w http.ResponseWriter, err error) {
	if errors.Is(err, conversation.ErrSessionNotFound) {
		s.respondError(w, http.StatusNotFound, err)
		return
	}
	s.respondError(w, http.StatusInternalServerError, err)
}

// streamEvents frames orchestrator output as SSE, flushing each fragment as
// it arrives and finishing with the [DONE] sentinel.
//
// Client disconnect is polled once per fragment. On disconnect the loop stops
// writing but keeps draining the channel: the orchestrator is not cancelled,
// so a reply the model already committed to generating still reaches the
// transcript. The wasted generation is the accepted price for never losing a
// turn.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request, ch <-chan conversation.Event) {
	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, _ := w.(http.Flusher)

	start := time.Now()
	disconnected := false
	fragments := 0

	for ev := range ch {
		if disconnected {
			continue
		}
		select {
		case <-r.Context().Done():
			s.logf("chat: client disconnected after %d fragments, draining stream", fragments)
			disconnected = true
			continue
		default:
		}

		fragments++
		writeSSE(w, ev.Text)
		if flusher != nil {
			flusher.Flush()
		}
	}

	if !disconnected {
		writeSSE(w, doneSentinel)
		if flusher != nil {
			flusher.Flush()
		}
	}
	s.debugf("chat: stream finished fragments=%d total_ms=%d disconnected=%v",
		fragments, time.Since(start).Milliseconds(), disconnected)
}

// writeSSE writes one SSE event. Multi-line payloads become multiple data:
// lines of the same event, per the SSE framing rules.
func writeSSE(w io.Writer, payload string) {
	for _, line := range strings.Split(payload, "\n") {
		_, _ = io.WriteString(w, "data: "+line+"\n")
	}
	_, _ = io.WriteString(w, "\n")
}
