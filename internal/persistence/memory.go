// Package persistence provides storage backends for activities and
// recommendations.
package persistence

import (
	"context"
	"sort"
	"sync"

	"example.com/fittrack/internal/domain"
)

// InMemoryActivityStore keeps activities in memory for local development
// and tests.
type InMemoryActivityStore struct {
	mu         sync.RWMutex
	activities map[string]domain.Activity
}

// NewInMemoryActivityStore constructs an empty store.
func NewInMemoryActivityStore() *InMemoryActivityStore {
	return &InMemoryActivityStore{activities: make(map[string]domain.Activity)}
}

// Create implements domain.ActivityRepository.
func (s *InMemoryActivityStore) Create(ctx context.Context, activity domain.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities[activity.ID] = activity
	return nil
}

// Get implements domain.ActivityRepository. A missing id yields (nil, nil).
func (s *InMemoryActivityStore) Get(ctx context.Context, activityID string) (*domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activity, ok := s.activities[activityID]
	if !ok {
		return nil, nil
	}
	return &activity, nil
}

// ListByUser implements domain.ActivityRepository, newest first.
func (s *InMemoryActivityStore) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Activity, 0)
	for _, activity := range s.activities {
		if activity.UserID == userID {
			out = append(out, activity)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// InMemoryRecommendationStore keeps recommendations in memory, one per
// activity id with last-write-wins replacement.
type InMemoryRecommendationStore struct {
	mu              sync.RWMutex
	recommendations map[string]domain.Recommendation
}

// NewInMemoryRecommendationStore constructs an empty store.
func NewInMemoryRecommendationStore() *InMemoryRecommendationStore {
	return &InMemoryRecommendationStore{recommendations: make(map[string]domain.Recommendation)}
}

// Put implements domain.RecommendationRepository.
func (s *InMemoryRecommendationStore) Put(ctx context.Context, rec domain.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recommendations[rec.ActivityID] = rec
	return nil
}

// Get implements domain.RecommendationRepository. A missing id yields (nil, nil).
func (s *InMemoryRecommendationStore) Get(ctx context.Context, activityID string) (*domain.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.recommendations[activityID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// ListByUser implements domain.RecommendationRepository, newest first.
func (s *InMemoryRecommendationStore) ListByUser(ctx context.Context, userID string) ([]domain.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Recommendation, 0)
	for _, rec := range s.recommendations {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
