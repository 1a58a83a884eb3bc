package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrActivityNotFound is returned when an activity cannot be located.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrRecommendationNotFound is returned when no recommendation exists for an activity.
	ErrRecommendationNotFound = errors.New("recommendation not found")
)

// ActivityRepository captures persistence operations for activities.
type ActivityRepository interface {
	Create(ctx context.Context, activity Activity) error
	Get(ctx context.Context, activityID string) (*Activity, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Activity, error)
}

// RecommendationRepository captures persistence operations for recommendations.
// Put replaces any prior value stored for the same activity id.
type RecommendationRepository interface {
	Put(ctx context.Context, rec Recommendation) error
	Get(ctx context.Context, activityID string) (*Recommendation, error)
	ListByUser(ctx context.Context, userID string) ([]Recommendation, error)
}

// Service orchestrates activity and recommendation workflows.
type Service struct {
	activities      ActivityRepository
	recommendations RecommendationRepository
}

// NewService constructs a Service.
func NewService(activities ActivityRepository, recommendations RecommendationRepository) *Service {
	return &Service{activities: activities, recommendations: recommendations}
}

// RecordActivityInput captures the payload from the API layer.
type RecordActivityInput struct {
	UserID      string
	Kind        string
	DurationMin int
	Calories    int
	StartedAt   time.Time
	Metrics     map[string]float64
}

// RecordActivity assigns identity and timestamps, then persists the activity.
func (s *Service) RecordActivity(ctx context.Context, input RecordActivityInput) (*Activity, error) {
	now := time.Now().UTC()
	activity := Activity{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Kind:        ActivityKind(strings.ToLower(strings.TrimSpace(input.Kind))),
		DurationMin: input.DurationMin,
		Calories:    input.Calories,
		StartedAt:   input.StartedAt.UTC(),
		Metrics:     input.Metrics,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// GetActivity fetches an activity by id.
func (s *Service) GetActivity(ctx context.Context, activityID string) (*Activity, error) {
	activity, err := s.activities.Get(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}
	return activity, nil
}

// ListActivitiesByUser fetches the most recent activities for a user.
func (s *Service) ListActivitiesByUser(ctx context.Context, userID string, limit int) ([]Activity, error) {
	return s.activities.ListByUser(ctx, userID, limit)
}

// GetRecommendation fetches the recommendation stored for an activity.
func (s *Service) GetRecommendation(ctx context.Context, activityID string) (*Recommendation, error) {
	rec, err := s.recommendations.Get(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrRecommendationNotFound
	}
	return rec, nil
}

// ListRecommendationsByUser fetches all recommendations belonging to a user.
func (s *Service) ListRecommendationsByUser(ctx context.Context, userID string) ([]Recommendation, error) {
	return s.recommendations.ListByUser(ctx, userID)
}
