package transcript

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/voxpoll/voxpoll/internal/survey"
)

type fakeTurnWriter struct {
	turns    []survey.Turn
	nextID   int64
	failures int // number of CreateTurn calls that will fail
	created  []survey.Turn
	countErr error
}

func (f *fakeTurnWriter) CreateTurn(ctx context.Context, t survey.Turn) (survey.Turn, error) {
	f.created = append(f.created, t)
	if f.failures > 0 {
		f.failures--
		return survey.Turn{}, errors.New("datetime format rejected")
	}
	f.nextID++
	t.ID = f.nextID
	f.turns = append(f.turns, t)
	return t, nil
}

func (f *fakeTurnWriter) ListTurnsByResponse(ctx context.Context, responseID int64) ([]survey.Turn, error) {
	var out []survey.Turn
	for _, t := range f.turns {
		if t.ResponseID == responseID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTurnWriter) CountTurnsByResponse(ctx context.Context, responseID int64) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	n := 0
	for _, t := range f.turns {
		if t.ResponseID == responseID {
			n++
		}
	}
	return n, nil
}

func TestAppendAssignsSequentialOrder(t *testing.T) {
	writer := &fakeTurnWriter{}
	store := New(writer, nil)
	ctx := context.Background()

	first, err := store.Append(ctx, 1, survey.SpeakerAssistant, "Welcome.")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	second, err := store.Append(ctx, 1, survey.SpeakerUser, "Hi.")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	other, err := store.Append(ctx, 2, survey.SpeakerAssistant, "Welcome.")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if first.Order != 1 || second.Order != 2 {
		t.Fatalf("expected orders 1,2 got %d,%d", first.Order, second.Order)
	}
	if other.Order != 1 {
		t.Fatalf("order is scoped per response, got %d", other.Order)
	}
	if !first.Persisted() || !second.Persisted() {
		t.Fatal("expected persisted turns with real ids")
	}
}

func TestAppendRetriesWithCanonicalTimestamp(t *testing.T) {
	writer := &fakeTurnWriter{failures: 1}
	store := New(writer, nil)
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 891234567, time.UTC)
	store.now = func() time.Time { return fixed }

	turn, err := store.Append(context.Background(), 1, survey.SpeakerAssistant, "text")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !turn.Persisted() {
		t.Fatal("retry should have stored the turn")
	}
	if len(writer.created) != 2 {
		t.Fatalf("expected 2 insert attempts, got %d", len(writer.created))
	}
	if !writer.created[0].CreatedAt.IsZero() {
		t.Fatal("first attempt should leave timestamp assignment to the store")
	}
	got := writer.created[1].CreatedAt
	want := time.Date(2026, 3, 4, 5, 6, 7, 891000000, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("retry timestamp = %v, want millisecond-truncated %v", got, want)
	}
}

func TestAppendReturnsPlaceholderAfterDoubleFailure(t *testing.T) {
	writer := &fakeTurnWriter{failures: 2}
	store := New(writer, nil)

	turn, err := store.Append(context.Background(), 1, survey.SpeakerAssistant, "lost text")
	if err != nil {
		t.Fatalf("double failure must not surface an error, got %v", err)
	}
	if turn.ID != survey.PlaceholderTurnID {
		t.Fatalf("expected placeholder id %d, got %d", survey.PlaceholderTurnID, turn.ID)
	}
	if turn.Persisted() {
		t.Fatal("placeholder turn must report as not persisted")
	}
	if turn.Message != "lost text" || turn.Order != 1 {
		t.Fatalf("placeholder should still carry the turn content, got %+v", turn)
	}
	if turn.CreatedAt.IsZero() || turn.UpdatedAt.IsZero() {
		t.Fatal("placeholder should carry timestamps for display")
	}
}

func TestAppendPropagatesCountError(t *testing.T) {
	writer := &fakeTurnWriter{countErr: errors.New("connection refused")}
	store := New(writer, nil)

	if _, err := store.Append(context.Background(), 1, survey.SpeakerUser, "x"); err == nil {
		t.Fatal("expected count failure to propagate")
	}
	if len(writer.created) != 0 {
		t.Fatal("no insert should be attempted when the count fails")
	}
}

func TestCanonicalTimestamp(t *testing.T) {
	in := time.Date(2026, 1, 2, 3, 4, 5, 678999999, time.FixedZone("PST", -8*3600))
	out := CanonicalTimestamp(in)

	if out.Location() != time.UTC && out.Format("-07:00") != "+00:00" {
		t.Fatalf("expected UTC offset, got %v", out)
	}
	if out.Nanosecond()%int(time.Millisecond) != 0 {
		t.Fatalf("expected millisecond precision, got %d ns", out.Nanosecond())
	}
	if !out.Equal(time.Date(2026, 1, 2, 11, 4, 5, 678000000, time.UTC)) {
		t.Fatalf("unexpected canonical value: %v", out)
	}
}
