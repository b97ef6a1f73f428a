package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/voxpoll/voxpoll/internal/conversation"
	"github.com/voxpoll/voxpoll/internal/survey"
	"github.com/voxpoll/voxpoll/internal/survey/sqlite"
)

type fakeConvo struct {
	fragments []string
	events    []conversation.Event
	err       error
	lastMsg   string
}

func (f *fakeConvo) StartConversation(ctx context.Context, responseID int64) (<-chan conversation.Event, error) {
	return f.Continue(ctx, responseID, "")
}

func (f *fakeConvo) Continue(ctx context.Context, responseID int64, userMessage string) (<-chan conversation.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastMsg = userMessage
	events := f.events
	if events == nil {
		for _, frag := range f.fragments {
			events = append(events, conversation.Event{Text: frag})
		}
	}
	ch := make(chan conversation.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func newTestServer(t *testing.T, convo ConversationService) (*httptest.Server, survey.Store) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(New(store, convo, nil, "info").Router())
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func seedResponse(t *testing.T, store survey.Store) survey.Response {
	t.Helper()
	ctx := context.Background()
	sv, err := store.CreateSurvey(ctx, survey.Survey{Title: "t", Status: "active"})
	if err != nil {
		t.Fatalf("seed survey: %v", err)
	}
	resp, err := store.CreateResponse(ctx, survey.Response{SurveyID: sv.ID, Respondent: "r", Status: "in_progress"})
	if err != nil {
		t.Fatalf("seed response: %v", err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeConvo{})
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	var body map[string]any
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("unexpected health response: %d %v", resp.StatusCode, body)
	}
	if body["version"] == "" {
		t.Fatal("expected version in health payload")
	}
}

func TestChatUnknownResponseIs404(t *testing.T) {
	srv, _ := newTestServer(t, &fakeConvo{fragments: []string{"hi"}})
	resp := postJSON(t, srv.URL+"/chat", map[string]any{"response_id": 999, "message": "hello"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestChatStreamsSSEWithDoneSentinel(t *testing.T) {
	convo := &fakeConvo{fragments: []string{"Hello ", "there!"}}
	srv, store := newTestServer(t, convo)
	session := seedResponse(t, store)

	resp := postJSON(t, srv.URL+"/chat", map[string]any{"response_id": session.ID, "message": "hi"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected SSE content type, got %q", ct)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read stream: %v", err)
	}
	body := buf.String()
	want := "data: Hello \n\ndata: there!\n\ndata: [DONE]\n\n"
	if body != want {
		t.Fatalf("unexpected stream body:\n%q\nwant:\n%q", body, want)
	}
	if convo.lastMsg != "hi" {
		t.Fatalf("user message not forwarded, got %q", convo.lastMsg)
	}
}

func TestFirstChatStreams(t *testing.T) {
	convo := &fakeConvo{fragments: []string{"Welcome."}}
	srv, store := newTestServer(t, convo)
	session := seedResponse(t, store)

	resp := postJSON(t, srv.URL+"/first_chat", map[string]any{"response_id": session.ID})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "data: Welcome.") || !strings.Contains(buf.String(), "data: [DONE]") {
		t.Fatalf("unexpected stream body: %q", buf.String())
	}
}

func TestChatMultilineFragmentFraming(t *testing.T) {
	convo := &fakeConvo{fragments: []string{"line one\nline two"}}
	srv, store := newTestServer(t, convo)
	session := seedResponse(t, store)

	resp := postJSON(t, srv.URL+"/chat", map[string]any{"response_id": session.ID, "message": "x"})
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "data: line one\ndata: line two\n\n") {
		t.Fatalf("multi-line fragment not split into data lines: %q", buf.String())
	}
}

func TestChatSessionNotFoundFromOrchestrator(t *testing.T) {
	convo := &fakeConvo{err: fmt.Errorf("response 1: %w", conversation.ErrSessionNotFound)}
	srv, store := newTestServer(t, convo)
	session := seedResponse(t, store)

	resp := postJSON(t, srv.URL+"/chat", map[string]any{"response_id": session.ID, "message": "x"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 from orchestrator error, got %d", resp.StatusCode)
	}
}

func TestChatBadJSON(t *testing.T) {
	srv, _ := newTestServer(t, &fakeConvo{})
	resp, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSurveyCRUDOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t, &fakeConvo{})

	resp := postJSON(t, srv.URL+"/surveys", map[string]any{
		"title": "Commute survey", "description": "d", "status": "active",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created survey.Survey
	decodeBody(t, resp, &created)
	if created.ID == 0 || created.Title != "Commute survey" {
		t.Fatalf("unexpected created survey: %+v", created)
	}

	getResp, err := http.Get(fmt.Sprintf("%s/surveys/%d", srv.URL, created.ID))
	if err != nil {
		t.Fatalf("GET survey: %v", err)
	}
	var got survey.Survey
	decodeBody(t, getResp, &got)
	if got.ID != created.ID {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	patchBody, _ := json.Marshal(map[string]any{"status": "closed"})
	patchReq, _ := http.NewRequest(http.MethodPatch,
		fmt.Sprintf("%s/surveys/%d", srv.URL, created.ID), bytes.NewReader(patchBody))
	patchResp, err := http.DefaultClient.Do(patchReq)
	if err != nil {
		t.Fatalf("PATCH survey: %v", err)
	}
	var patched survey.Survey
	decodeBody(t, patchResp, &patched)
	if patched.Status != "closed" || patched.Title != "Commute survey" {
		t.Fatalf("patch should change only provided fields: %+v", patched)
	}

	delReq, _ := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/surveys/%d", srv.URL, created.ID), nil)
	delResp, err := http.DefaultClient.Do(delReq)
	if err != nil {
		t.Fatalf("DELETE survey: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", delResp.StatusCode)
	}

	missing, err := http.Get(fmt.Sprintf("%s/surveys/%d", srv.URL, created.ID))
	if err != nil {
		t.Fatalf("GET deleted survey: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", missing.StatusCode)
	}
}

func TestListSurveysReturnsEmptyArray(t *testing.T) {
	srv, _ := newTestServer(t, &fakeConvo{})
	resp, err := http.Get(srv.URL + "/surveys")
	if err != nil {
		t.Fatalf("GET /surveys: %v", err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("expected empty JSON array, got %q", buf.String())
	}
}

func TestQuestionBulkCreateAndReorder(t *testing.T) {
	srv, store := newTestServer(t, &fakeConvo{})
	sv, err := store.CreateSurvey(context.Background(), survey.Survey{Title: "t"})
	if err != nil {
		t.Fatalf("seed survey: %v", err)
	}

	resp := postJSON(t, srv.URL+"/questions/bulk", []map[string]any{
		{"survey_id": sv.ID, "question_text": "Q1", "question_order": 1},
		{"survey_id": sv.ID, "question_text": "Q2", "question_order": 2},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var qs []survey.Question
	decodeBody(t, resp, &qs)
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}

	reorderBody, _ := json.Marshal(map[string]any{"question_ids": []int64{qs[1].ID, qs[0].ID}})
	req, _ := http.NewRequest(http.MethodPut,
		fmt.Sprintf("%s/questions/survey/%d/reorder", srv.URL, sv.ID), bytes.NewReader(reorderBody))
	reorderResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT reorder: %v", err)
	}
	var reordered []survey.Question
	decodeBody(t, reorderResp, &reordered)
	if reordered[0].ID != qs[1].ID || reordered[0].QuestionOrder != 1 {
		t.Fatalf("reorder not applied: %+v", reordered)
	}
}

func TestCreateResponseGeneratesRespondent(t *testing.T) {
	srv, store := newTestServer(t, &fakeConvo{})
	sv, err := store.CreateSurvey(context.Background(), survey.Survey{Title: "t"})
	if err != nil {
		t.Fatalf("seed survey: %v", err)
	}

	resp := postJSON(t, srv.URL+"/responses", map[string]any{"survey_id": sv.ID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created survey.Response
	decodeBody(t, resp, &created)
	if created.Respondent == "" {
		t.Fatal("expected generated respondent identifier")
	}
	if created.Status != "in_progress" {
		t.Fatalf("expected default status, got %q", created.Status)
	}
}

func TestResponseWithConversations(t *testing.T) {
	srv, store := newTestServer(t, &fakeConvo{})
	session := seedResponse(t, store)
	if _, err := store.CreateTurn(context.Background(), survey.Turn{
		ResponseID: session.ID, Speaker: survey.SpeakerAssistant, Message: "Welcome.", Order: 1,
	}); err != nil {
		t.Fatalf("seed turn: %v", err)
	}

	resp, err := http.Get(fmt.Sprintf("%s/responses/%d/with-conversations", srv.URL, session.ID))
	if err != nil {
		t.Fatalf("GET with-conversations: %v", err)
	}
	var body struct {
		Response      survey.Response `json:"response"`
		Conversations []survey.Turn   `json:"conversations"`
	}
	decodeBody(t, resp, &body)
	if body.Response.ID != session.ID || len(body.Conversations) != 1 {
		t.Fatalf("unexpected payload: %+v", body)
	}
}

func TestCountAndLatestTurnEndpoints(t *testing.T) {
	srv, store := newTestServer(t, &fakeConvo{})
	session := seedResponse(t, store)
	ctx := context.Background()
	for i, msg := range []string{"a", "b"} {
		if _, err := store.CreateTurn(ctx, survey.Turn{
			ResponseID: session.ID, Speaker: survey.SpeakerAssistant, Message: msg, Order: i + 1,
		}); err != nil {
			t.Fatalf("seed turn: %v", err)
		}
	}

	countResp, err := http.Get(fmt.Sprintf("%s/conversations/response/%d/count", srv.URL, session.ID))
	if err != nil {
		t.Fatalf("GET count: %v", err)
	}
	var count map[string]int
	decodeBody(t, countResp, &count)
	if count["count"] != 2 {
		t.Fatalf("expected count 2, got %d", count["count"])
	}

	latestResp, err := http.Get(fmt.Sprintf("%s/conversations/response/%d/latest", srv.URL, session.ID))
	if err != nil {
		t.Fatalf("GET latest: %v", err)
	}
	var latest survey.Turn
	decodeBody(t, latestResp, &latest)
	if latest.Message != "b" || latest.Order != 2 {
		t.Fatalf("unexpected latest turn: %+v", latest)
	}
}

func TestResponseStatisticsEndpoint(t *testing.T) {
	srv, store := newTestServer(t, &fakeConvo{})
	ctx := context.Background()
	sv, err := store.CreateSurvey(ctx, survey.Survey{Title: "t"})
	if err != nil {
		t.Fatalf("seed survey: %v", err)
	}
	for _, status := range []string{"in_progress", "completed"} {
		if _, err := store.CreateResponse(ctx, survey.Response{SurveyID: sv.ID, Status: status}); err != nil {
			t.Fatalf("seed response: %v", err)
		}
	}

	resp, err := http.Get(fmt.Sprintf("%s/responses/statistics/%d", srv.URL, sv.ID))
	if err != nil {
		t.Fatalf("GET statistics: %v", err)
	}
	var stats survey.ResponseStatistics
	decodeBody(t, resp, &stats)
	if stats.TotalCount != 2 {
		t.Fatalf("expected total 2, got %d", stats.TotalCount)
	}
	if stats.StatusCounts["completed"] != 1 || stats.StatusCounts["in_progress"] != 1 {
		t.Fatalf("unexpected status counts: %v", stats.StatusCounts)
	}
	if len(stats.RecentResponses) != 2 {
		t.Fatalf("expected 2 recent responses, got %d", len(stats.RecentResponses))
	}

	missing, err := http.Get(srv.URL + "/responses/statistics/9999")
	if err != nil {
		t.Fatalf("GET missing statistics: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown survey, got %d", missing.StatusCode)
	}
}

func TestSearchTurnsEndpoint(t *testing.T) {
	srv, store := newTestServer(t, &fakeConvo{})
	session := seedResponse(t, store)
	ctx := context.Background()
	for i, msg := range []string{"I like pasta.", "Nothing else."} {
		if _, err := store.CreateTurn(ctx, survey.Turn{
			ResponseID: session.ID, Speaker: survey.SpeakerUser, Message: msg, Order: i + 1,
		}); err != nil {
			t.Fatalf("seed turn: %v", err)
		}
	}

	resp, err := http.Get(fmt.Sprintf("%s/conversations/response/%d/search?query=pasta", srv.URL, session.ID))
	if err != nil {
		t.Fatalf("GET search: %v", err)
	}
	var hits []survey.Turn
	decodeBody(t, resp, &hits)
	if len(hits) != 1 || hits[0].Message != "I like pasta." {
		t.Fatalf("unexpected hits: %+v", hits)
	}

	noQuery, err := http.Get(fmt.Sprintf("%s/conversations/response/%d/search", srv.URL, session.ID))
	if err != nil {
		t.Fatalf("GET search without query: %v", err)
	}
	noQuery.Body.Close()
	if noQuery.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without query, got %d", noQuery.StatusCode)
	}
}

func TestCreateTurnsBulkEndpoint(t *testing.T) {
	srv, store := newTestServer(t, &fakeConvo{})
	session := seedResponse(t, store)
	if _, err := store.CreateTurn(context.Background(), survey.Turn{
		ResponseID: session.ID, Speaker: survey.SpeakerAssistant, Message: "Welcome.", Order: 1,
	}); err != nil {
		t.Fatalf("seed turn: %v", err)
	}

	resp := postJSON(t, srv.URL+"/conversations/bulk", map[string]any{
		"response_id": session.ID,
		"conversations": []map[string]any{
			{"speaker_type": "user", "message_text": "Hi."},
			{"speaker_type": "assistant", "message_text": "First question?"},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created []survey.Turn
	decodeBody(t, resp, &created)
	if len(created) != 2 {
		t.Fatalf("expected 2 created turns, got %d", len(created))
	}
	// numbering continues after the existing latest turn
	if created[0].Order != 2 || created[1].Order != 3 {
		t.Fatalf("unexpected orders: %d, %d", created[0].Order, created[1].Order)
	}

	missing := postJSON(t, srv.URL+"/conversations/bulk", map[string]any{
		"response_id":   9999,
		"conversations": []map[string]any{{"speaker_type": "user", "message_text": "x"}},
	})
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown response, got %d", missing.StatusCode)
	}
}

func TestQuestionsByTypeEndpoint(t *testing.T) {
	srv, store := newTestServer(t, &fakeConvo{})
	sv, err := store.CreateSurvey(context.Background(), survey.Survey{Title: "t"})
	if err != nil {
		t.Fatalf("seed survey: %v", err)
	}
	if _, err := store.CreateQuestions(context.Background(), []survey.Question{
		{SurveyID: sv.ID, QuestionText: "Rate us", QuestionOrder: 1, QuestionType: "rating"},
		{SurveyID: sv.ID, QuestionText: "Tell us more", QuestionOrder: 2, QuestionType: "open"},
	}); err != nil {
		t.Fatalf("seed questions: %v", err)
	}

	resp, err := http.Get(fmt.Sprintf("%s/questions/type/rating?survey_id=%d", srv.URL, sv.ID))
	if err != nil {
		t.Fatalf("GET by type: %v", err)
	}
	var qs []survey.Question
	decodeBody(t, resp, &qs)
	if len(qs) != 1 || qs[0].QuestionText != "Rate us" {
		t.Fatalf("unexpected questions: %+v", qs)
	}

	noSurvey, err := http.Get(srv.URL + "/questions/type/rating")
	if err != nil {
		t.Fatalf("GET by type without survey_id: %v", err)
	}
	noSurvey.Body.Close()
	if noSurvey.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without survey_id, got %d", noSurvey.StatusCode)
	}
}

func TestChatStreamsErrorFragmentBeforeDone(t *testing.T) {
	genErr := errors.New("backend outage")
	convo := &fakeConvo{events: []conversation.Event{
		{Text: "partial "},
		{Text: conversation.ErrorMarker + " failed to generate a response: backend outage", Err: genErr},
	}}
	srv, store := newTestServer(t, convo)
	session := seedResponse(t, store)

	resp := postJSON(t, srv.URL+"/chat", map[string]any{"response_id": session.ID, "message": "hi"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("in-band failures must not change the status, got %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read stream: %v", err)
	}
	body := buf.String()
	errIdx := strings.Index(body, "data: "+conversation.ErrorMarker)
	doneIdx := strings.Index(body, "data: [DONE]")
	if errIdx < 0 {
		t.Fatalf("expected error fragment on the wire:\n%q", body)
	}
	if doneIdx < errIdx {
		t.Fatalf("expected [DONE] after the error fragment:\n%q", body)
	}
}

func TestStreamDrainsAfterClientDisconnect(t *testing.T) {
	s := New(nil, nil, nil, "info")

	ch := make(chan conversation.Event)
	produced := make(chan struct{})
	go func() {
		// unbuffered: every send below blocks until the handler consumes it
		for _, frag := range []string{"one", "two", "three"} {
			ch <- conversation.Event{Text: frag}
		}
		close(produced)
		close(ch)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/chat", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	s.streamEvents(rec, req, ch)

	select {
	case <-produced:
	default:
		t.Fatal("streamEvents returned before draining the channel")
	}
	if body := rec.Body.String(); body != "" {
		t.Fatalf("nothing should reach a disconnected client, got %q", body)
	}
}

func TestListTurnsRequiresResponseID(t *testing.T) {
	srv, _ := newTestServer(t, &fakeConvo{})
	resp, err := http.Get(srv.URL + "/conversations")
	if err != nil {
		t.Fatalf("GET /conversations: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without response_id, got %d", resp.StatusCode)
	}
}
