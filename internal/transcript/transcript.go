// Package transcript maintains the ordered conversation log for response
// sessions. It layers the ordering and failure policy of the conversation
// pipeline on top of the raw turn table.
package transcript

import (
	"context"
	"log"
	"time"

	"github.com/voxpoll/voxpoll/internal/survey"
)

// canonicalTimestampLayout is the millisecond-precision UTC layout used on the
// retry path. Some storage backends reject nanosecond timestamps; a
// freshly formatted value with an explicit +00:00 offset is accepted
// everywhere.
const canonicalTimestampLayout = "2006-01-02T15:04:05.000+00:00"

// TurnWriter is the subset of survey.Store the transcript needs.
type TurnWriter interface {
	CreateTurn(ctx context.Context, t survey.Turn) (survey.Turn, error)
	ListTurnsByResponse(ctx context.Context, responseID int64) ([]survey.Turn, error)
	CountTurnsByResponse(ctx context.Context, responseID int64) (int, error)
}

// Store appends and lists conversation turns for a response session.
type Store struct {
	turns  TurnWriter
	logger *log.Logger
	now    func() time.Time
}

// New creates a transcript store over the given turn table.
func New(turns TurnWriter, logger *log.Logger) *Store {
	return &Store{turns: turns, logger: logger, now: time.Now}
}

// CanonicalTimestamp returns the current time formatted and reparsed through
// the canonical millisecond UTC layout.
func CanonicalTimestamp(now time.Time) time.Time {
	formatted := now.UTC().Format(canonicalTimestampLayout)
	ts, err := time.Parse(canonicalTimestampLayout, formatted)
	if err != nil {
		// The layout round-trips its own output; this cannot happen.
		return now.UTC().Truncate(time.Millisecond)
	}
	return ts
}

// Append stores a new turn with order = count(existing)+1.
//
// The order computation is a read-then-write sequence: two concurrent appends
// against the same response id can observe the same count and insert duplicate
// order values. Callers that need guaranteed ordering must not issue
// concurrent conversation requests for one response id.
//
// If the insert fails it is retried exactly once with a freshly generated,
// canonically formatted timestamp. If the retry also fails, Append returns a
// non-persisted placeholder turn carrying survey.PlaceholderTurnID instead of
// an error, so a conversation that already streamed its text to the
// respondent is not torn down over a storage hiccup.
func (s *Store) Append(ctx context.Context, responseID int64, speaker survey.SpeakerType, text string) (survey.Turn, error) {
	count, err := s.turns.CountTurnsByResponse(ctx, responseID)
	if err != nil {
		return survey.Turn{}, err
	}
	order := count + 1

	turn := survey.Turn{
		ResponseID: responseID,
		Speaker:    speaker,
		Message:    text,
		Order:      order,
	}

	stored, err := s.turns.CreateTurn(ctx, turn)
	if err == nil {
		return stored, nil
	}
	s.logf("transcript: append failed for response %d, retrying with canonical timestamp: %v", responseID, err)

	turn.CreatedAt = CanonicalTimestamp(s.now())
	stored, retryErr := s.turns.CreateTurn(ctx, turn)
	if retryErr == nil {
		s.logf("transcript: retry succeeded for response %d, turn id=%d", responseID, stored.ID)
		return stored, nil
	}
	s.logf("transcript: retry failed for response %d, returning placeholder turn: %v", responseID, retryErr)

	now := s.now().UTC()
	turn.ID = survey.PlaceholderTurnID
	turn.CreatedAt = now
	turn.UpdatedAt = now
	return turn, nil
}

// ListByResponse returns all turns for a response ordered ascending.
func (s *Store) ListByResponse(ctx context.Context, responseID int64) ([]survey.Turn, error) {
	return s.turns.ListTurnsByResponse(ctx, responseID)
}

func (s *Store) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
