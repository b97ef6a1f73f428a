// Package conversation coordinates survey chat sessions: it assembles context
// from the question catalog and the transcript, drives the generative
// provider, and records each turn.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/voxpoll/voxpoll/internal/provider"
	"github.com/voxpoll/voxpoll/internal/survey"
)

// ErrSessionNotFound is returned when a response id does not resolve to an
// existing response. It is the only failure that crosses the orchestrator
// boundary; everything else degrades to in-band stream events.
var ErrSessionNotFound = errors.New("conversation session not found")

// ErrorMarker prefixes the final fragment emitted when generation fails
// mid-stream, so clients can tell an error message from model output.
const ErrorMarker = "[error]"

// systemTurnPrefix labels the assistant turn persisted after a generation
// failure as system-authored.
const systemTurnPrefix = "[system]"

// Event is one element of the orchestrated stream. Err is set alongside Text
// on the final event of a failed generation; the channel closing marks the
// end of the stream in both the success and failure cases.
type Event struct {
	Text string
	Err  error
}

// SessionReader resolves response sessions and their surveys' questions.
type SessionReader interface {
	GetResponse(ctx context.Context, id int64) (survey.Response, error)
	ListQuestionsBySurvey(ctx context.Context, surveyID int64) ([]survey.Question, error)
}

// Transcript is the ordered turn log the orchestrator reads and appends to.
type Transcript interface {
	Append(ctx context.Context, responseID int64, speaker survey.SpeakerType, text string) (survey.Turn, error)
	ListByResponse(ctx context.Context, responseID int64) ([]survey.Turn, error)
}

// Orchestrator is stateless between invocations: every call reconstructs its
// context from the session reader and the transcript, so concurrent calls for
// different response ids are independent.
type Orchestrator struct {
	sessions   SessionReader
	transcript Transcript
	gen        provider.Generator
	logger     *log.Logger
}

// New wires an orchestrator. The provider is chosen once at startup and
// injected; the orchestrator never looks one up globally.
func New(sessions SessionReader, transcript Transcript, gen provider.Generator, logger *log.Logger) *Orchestrator {
	return &Orchestrator{sessions: sessions, transcript: transcript, gen: gen, logger: logger}
}

// StartConversation opens the first exchange of a session. Calling it on a
// session that already has turns is not an error; it behaves exactly like
// Continue with an empty message.
func (o *Orchestrator) StartConversation(ctx context.Context, responseID int64) (<-chan Event, error) {
	return o.Continue(ctx, responseID, "")
}

// Continue runs one conversation exchange. The returned channel yields text
// fragments as the provider produces them and is closed when the exchange is
// over; the caller must drain it. If userMessage is non-empty it is appended
// as a user turn before the provider is invoked.
//
// The pipeline goroutine runs on a context detached from ctx's cancellation:
// once generation has started, a dropped client connection must not prevent
// the assistant turn from being persisted.
func (o *Orchestrator) Continue(ctx context.Context, responseID int64, userMessage string) (<-chan Event, error) {
	resp, err := o.sessions.GetResponse(ctx, responseID)
	if err != nil {
		if errors.Is(err, survey.ErrNotFound) {
			return nil, fmt.Errorf("response %d: %w", responseID, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("resolve response %d: %w", responseID, err)
	}

	ch := make(chan Event, 10)
	go o.run(context.WithoutCancel(ctx), resp, userMessage, ch)
	return ch, nil
}

func (o *Orchestrator) run(ctx context.Context, resp survey.Response, userMessage string, ch chan<- Event) {
	defer close(ch)

	if userMessage != "" {
		if _, err := o.transcript.Append(ctx, resp.ID, survey.SpeakerUser, userMessage); err != nil {
			o.fail(ctx, resp.ID, ch, fmt.Errorf("record user message: %w", err))
			return
		}
	}

	questions, err := o.sessions.ListQuestionsBySurvey(ctx, resp.SurveyID)
	if err != nil {
		o.fail(ctx, resp.ID, ch, fmt.Errorf("load questions: %w", err))
		return
	}

	turns, err := o.transcript.ListByResponse(ctx, resp.ID)
	if err != nil {
		o.fail(ctx, resp.ID, ch, fmt.Errorf("load history: %w", err))
		return
	}
	history := historyMessages(turns)

	prompt := BuildPrompt(questions)

	stream, err := o.gen.GenerateStream(ctx, prompt, history)
	if err != nil {
		o.fail(ctx, resp.ID, ch, fmt.Errorf("open generation stream: %w", err))
		return
	}

	var full []byte
	for ev := range stream {
		if ev.Err != nil {
			o.fail(ctx, resp.ID, ch, ev.Err)
			return
		}
		full = append(full, ev.Text...)
		ch <- Event{Text: ev.Text}
	}

	// All fragments are already on the wire; a persistence failure from here
	// on degrades inside the transcript store and never reaches the client.
	stored, err := o.transcript.Append(ctx, resp.ID, survey.SpeakerAssistant, string(full))
	if err != nil {
		o.logf("response %d: persist assistant turn: %v", resp.ID, err)
		return
	}
	if !stored.Persisted() {
		o.logf("response %d: assistant turn not durably stored (placeholder id)", resp.ID)
	}
}

// fail forwards a human-readable error fragment, best-effort persists a
// system-authored turn describing the failure, and lets the stream end
// normally.
func (o *Orchestrator) fail(ctx context.Context, responseID int64, ch chan<- Event, cause error) {
	o.logf("response %d: generation failed: %v", responseID, cause)
	ch <- Event{
		Text: fmt.Sprintf("%s failed to generate a response: %v", ErrorMarker, cause),
		Err:  cause,
	}
	if _, err := o.transcript.Append(ctx, responseID, survey.SpeakerAssistant,
		fmt.Sprintf("%s error while generating the response: %v", systemTurnPrefix, cause)); err != nil {
		o.logf("response %d: persist error turn: %v", responseID, err)
	}
}

// historyMessages maps turns to role-tagged provider messages: user turns keep
// the user role, everything else becomes assistant.
func historyMessages(turns []survey.Turn) []provider.Message {
	msgs := make([]provider.Message, 0, len(turns))
	for _, t := range turns {
		role := provider.RoleAssistant
		if t.Speaker == survey.SpeakerUser {
			role = provider.RoleUser
		}
		msgs = append(msgs, provider.Message{Role: role, Content: t.Message})
	}
	return msgs
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.logger != nil {
		o.logger.Printf(format, args...)
	}
}
