package worker

import (
	"context"
	"log"
	"time"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
	"example.com/fittrack/internal/generation"
)

// RecommendationHandler turns one activity fact into exactly one stored
// recommendation. Every accepted fact produces a recommendation: the
// structured model output when the call and parse succeed, fallback content
// otherwise. Reprocessing a fact replaces the previous value.
type RecommendationHandler struct {
	generator generation.Generator
	store     domain.RecommendationRepository
	timeout   time.Duration
	logger    *log.Logger
	now       func() time.Time
}

// NewRecommendationHandler constructs the handler.
func NewRecommendationHandler(generator generation.Generator, store domain.RecommendationRepository, timeout time.Duration, logger *log.Logger) *RecommendationHandler {
	if logger == nil {
		logger = log.New(log.Writer(), "[worker] ", log.LstdFlags)
	}
	return &RecommendationHandler{
		generator: generator,
		store:     store,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
	}
}

// Handle processes a single fact. It always returns nil: a persistence
// failure is logged and the fact dropped rather than redelivered, so a
// permanently failing fact cannot cause a requeue storm.
func (h *RecommendationHandler) Handle(ctx context.Context, fact events.ActivityRecorded) error {
	rec := h.buildRecommendation(ctx, fact)

	if err := h.store.Put(ctx, rec); err != nil {
		h.logger.Printf("persist recommendation failed, dropping fact (activity=%s): %v", fact.ActivityID, err)
		recordPersistFailure()
		return nil
	}

	recordProcessed()
	return nil
}

func (h *RecommendationHandler) buildRecommendation(ctx context.Context, fact events.ActivityRecorded) domain.Recommendation {
	prompt := BuildPrompt(fact)

	callCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	raw, err := h.generator.Generate(callCtx, prompt)
	if err != nil {
		h.logger.Printf("generation failed (activity=%s): %v", fact.ActivityID, err)
		recordGenerationFailure()
		return FallbackRecommendation(fact, h.now())
	}

	parsed, err := ParseResponse(raw)
	if err != nil {
		h.logger.Printf("unparsable model response (activity=%s): %v", fact.ActivityID, err)
		recordParseFallback()
		return FallbackRecommendation(fact, h.now())
	}

	return domain.Recommendation{
		ActivityID:   fact.ActivityID,
		UserID:       fact.UserID,
		Kind:         domain.ActivityKind(fact.Kind),
		Analysis:     parsed.Analysis,
		Improvements: parsed.Improvements,
		Suggestions:  parsed.Suggestions,
		Safety:       parsed.Safety,
		CreatedAt:    h.now().UTC(),
	}
}
