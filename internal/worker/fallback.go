package worker

import (
	"fmt"
	"time"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
)

var fallbackNotes = map[domain.ActivityKind]string{
	domain.KindRunning: "Keep a conversational pace for most runs and reserve faster efforts for one session a week.",
	domain.KindWalking: "Brisk walking at a pace that raises your breathing is enough to build an aerobic base.",
	domain.KindCycling: "Maintain a steady cadence and ease off before your legs fully fatigue.",
}

// FallbackRecommendation builds the deterministic recommendation used when
// the generation call fails or its output cannot be parsed. The analysis
// text is activity-kind-aware; the list sections stay empty.
func FallbackRecommendation(fact events.ActivityRecorded, now time.Time) domain.Recommendation {
	kind := domain.ActivityKind(fact.Kind)

	analysis := fmt.Sprintf(
		"Your %s session of %d minutes (%d calories) was recorded. A detailed analysis is temporarily unavailable.",
		fact.Kind, fact.DurationMin, fact.Calories,
	)
	if note, ok := fallbackNotes[kind]; ok {
		analysis += " " + note
	}

	return domain.Recommendation{
		ActivityID:   fact.ActivityID,
		UserID:       fact.UserID,
		Kind:         kind,
		Analysis:     analysis,
		Improvements: []string{},
		Suggestions:  []string{},
		Safety:       []string{},
		CreatedAt:    now.UTC(),
	}
}
