package worker

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
	"example.com/fittrack/internal/generation"
)

type stubStore struct {
	puts []domain.Recommendation
	err  error
}

func (s *stubStore) Put(_ context.Context, rec domain.Recommendation) error {
	if s.err != nil {
		return s.err
	}
	s.puts = append(s.puts, rec)
	return nil
}

func (s *stubStore) Get(context.Context, string) (*domain.Recommendation, error) {
	return nil, nil
}

func (s *stubStore) ListByUser(context.Context, string) ([]domain.Recommendation, error) {
	return nil, nil
}

func fixedGenerator(text string, err error) generation.Generator {
	return generation.Func(func(context.Context, string) (string, error) {
		return text, err
	})
}

func runningFact() events.ActivityRecorded {
	return events.ActivityRecorded{
		ActivityID:  "a1",
		UserID:      "u1",
		Kind:        "running",
		DurationMin: 30,
		Calories:    300,
		StartedAt:   time.Date(2026, time.March, 1, 7, 0, 0, 0, time.UTC),
	}
}

func newTestHandler(t *testing.T, gen generation.Generator, store domain.RecommendationRepository) *RecommendationHandler {
	t.Helper()
	return NewRecommendationHandler(gen, store, time.Second, log.New(testWriter{t}, "", 0))
}

func TestHandlePersistsParsedRecommendation(t *testing.T) {
	response := "```json\n" + `{
		"analysis": "Even pacing throughout.",
		"improvements": ["Add a cooldown walk"],
		"suggestions": ["Recovery run tomorrow"],
		"safety": ["Stretch your calves"]
	}` + "\n```"

	store := &stubStore{}
	handler := newTestHandler(t, fixedGenerator(response, nil), store)

	require.NoError(t, handler.Handle(context.Background(), runningFact()))
	require.Len(t, store.puts, 1)

	rec := store.puts[0]
	require.Equal(t, "a1", rec.ActivityID)
	require.Equal(t, "u1", rec.UserID)
	require.Equal(t, domain.KindRunning, rec.Kind)
	require.Equal(t, "Even pacing throughout.", rec.Analysis)
	require.Equal(t, []string{"Add a cooldown walk"}, rec.Improvements)
	require.Equal(t, []string{"Recovery run tomorrow"}, rec.Suggestions)
	require.Equal(t, []string{"Stretch your calves"}, rec.Safety)
	require.False(t, rec.CreatedAt.IsZero())
}

func TestHandleFallsBackWhenGenerationFails(t *testing.T) {
	store := &stubStore{}
	handler := newTestHandler(t, fixedGenerator("", errors.New("model unavailable")), store)

	require.NoError(t, handler.Handle(context.Background(), runningFact()))
	require.Len(t, store.puts, 1)

	rec := store.puts[0]
	require.Equal(t, "a1", rec.ActivityID)
	require.NotEmpty(t, rec.Analysis)
	require.Empty(t, rec.Improvements)
	require.Empty(t, rec.Suggestions)
	require.Empty(t, rec.Safety)
}

func TestHandleFallsBackOnMalformedResponse(t *testing.T) {
	store := &stubStore{}
	handler := newTestHandler(t, fixedGenerator("I had trouble with that request.", nil), store)

	require.NoError(t, handler.Handle(context.Background(), runningFact()))
	require.Len(t, store.puts, 1)

	rec := store.puts[0]
	require.NotEmpty(t, rec.Analysis)
	require.Empty(t, rec.Improvements)
	require.Empty(t, rec.Suggestions)
	require.Empty(t, rec.Safety)
}

func TestHandleFallbackIsDeterministicAcrossRetries(t *testing.T) {
	store := &stubStore{}
	handler := newTestHandler(t, fixedGenerator("", errors.New("down")), store)
	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	handler.now = func() time.Time { return now }

	fact := runningFact()
	require.NoError(t, handler.Handle(context.Background(), fact))
	require.NoError(t, handler.Handle(context.Background(), fact))

	// Two persists, identical content: last write wins with the same value.
	require.Len(t, store.puts, 2)
	require.Equal(t, store.puts[0], store.puts[1])
	require.Equal(t, FallbackRecommendation(fact, now), store.puts[1])
}

func TestHandleSwallowsPersistFailure(t *testing.T) {
	store := &stubStore{err: errors.New("store down")}
	handler := newTestHandler(t, fixedGenerator("", errors.New("down")), store)

	// The fact is dropped, not redelivered.
	require.NoError(t, handler.Handle(context.Background(), runningFact()))
}

func TestHandleBoundsGenerationCall(t *testing.T) {
	var sawDeadline bool
	gen := generation.Func(func(ctx context.Context, _ string) (string, error) {
		_, sawDeadline = ctx.Deadline()
		return "", errors.New("timeout")
	})

	store := &stubStore{}
	handler := newTestHandler(t, gen, store)

	require.NoError(t, handler.Handle(context.Background(), runningFact()))
	require.True(t, sawDeadline)
}
