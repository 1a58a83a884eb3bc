// Package postgres provides pgx-backed persistence for activities and
// recommendations.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/fittrack/internal/domain"
)

// ActivityRepository stores activities in Postgres.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository constructs an ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

// Create persists the activity.
func (r *ActivityRepository) Create(ctx context.Context, activity domain.Activity) error {
	metrics, err := json.Marshal(activity.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	const query = `INSERT INTO activities (activity_id, user_id, kind, duration_min, calories, started_at, metrics, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = r.pool.Exec(ctx, query,
		activity.ID,
		activity.UserID,
		string(activity.Kind),
		activity.DurationMin,
		activity.Calories,
		activity.StartedAt,
		metrics,
		activity.CreatedAt,
		activity.UpdatedAt,
	)
	return err
}

// Get fetches an activity by id; a missing id yields (nil, nil).
func (r *ActivityRepository) Get(ctx context.Context, activityID string) (*domain.Activity, error) {
	const query = `SELECT activity_id, user_id, kind, duration_min, calories, started_at, metrics, created_at, updated_at
        FROM activities WHERE activity_id=$1`

	row := r.pool.QueryRow(ctx, query, activityID)
	activity, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return activity, nil
}

// ListByUser fetches the most recent activities for a user.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Activity, error) {
	const query = `SELECT activity_id, user_id, kind, duration_min, calories, started_at, metrics, created_at, updated_at
        FROM activities WHERE user_id=$1 ORDER BY started_at DESC, activity_id LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Activity, 0)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *activity)
	}
	return out, rows.Err()
}

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var (
		activity domain.Activity
		kind     string
		metrics  []byte
	)
	if err := row.Scan(&activity.ID, &activity.UserID, &kind, &activity.DurationMin, &activity.Calories, &activity.StartedAt, &metrics, &activity.CreatedAt, &activity.UpdatedAt); err != nil {
		return nil, err
	}
	activity.Kind = domain.ActivityKind(kind)
	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &activity.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
	}
	return &activity, nil
}

// RecommendationRepository stores recommendations in Postgres, one row per
// activity id.
type RecommendationRepository struct {
	pool *pgxpool.Pool
}

// NewRecommendationRepository constructs a RecommendationRepository.
func NewRecommendationRepository(pool *pgxpool.Pool) *RecommendationRepository {
	return &RecommendationRepository{pool: pool}
}

// Put upserts the recommendation; a later write for the same activity id
// replaces the earlier one.
func (r *RecommendationRepository) Put(ctx context.Context, rec domain.Recommendation) error {
	improvements, err := json.Marshal(rec.Improvements)
	if err != nil {
		return fmt.Errorf("marshal improvements: %w", err)
	}
	suggestions, err := json.Marshal(rec.Suggestions)
	if err != nil {
		return fmt.Errorf("marshal suggestions: %w", err)
	}
	safety, err := json.Marshal(rec.Safety)
	if err != nil {
		return fmt.Errorf("marshal safety: %w", err)
	}

	const query = `INSERT INTO recommendations (activity_id, user_id, kind, analysis, improvements, suggestions, safety, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (activity_id) DO UPDATE SET
            user_id = EXCLUDED.user_id,
            kind = EXCLUDED.kind,
            analysis = EXCLUDED.analysis,
            improvements = EXCLUDED.improvements,
            suggestions = EXCLUDED.suggestions,
            safety = EXCLUDED.safety,
            created_at = EXCLUDED.created_at`

	_, err = r.pool.Exec(ctx, query,
		rec.ActivityID,
		rec.UserID,
		string(rec.Kind),
		rec.Analysis,
		improvements,
		suggestions,
		safety,
		rec.CreatedAt,
	)
	return err
}

// Get fetches the recommendation for an activity; missing yields (nil, nil).
func (r *RecommendationRepository) Get(ctx context.Context, activityID string) (*domain.Recommendation, error) {
	const query = `SELECT activity_id, user_id, kind, analysis, improvements, suggestions, safety, created_at
        FROM recommendations WHERE activity_id=$1`

	row := r.pool.QueryRow(ctx, query, activityID)
	rec, err := scanRecommendation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// ListByUser fetches all recommendations for a user, newest first.
func (r *RecommendationRepository) ListByUser(ctx context.Context, userID string) ([]domain.Recommendation, error) {
	const query = `SELECT activity_id, user_id, kind, analysis, improvements, suggestions, safety, created_at
        FROM recommendations WHERE user_id=$1 ORDER BY created_at DESC, activity_id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Recommendation, 0)
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanRecommendation(row pgx.Row) (*domain.Recommendation, error) {
	var (
		rec          domain.Recommendation
		kind         string
		improvements []byte
		suggestions  []byte
		safety       []byte
	)
	if err := row.Scan(&rec.ActivityID, &rec.UserID, &kind, &rec.Analysis, &improvements, &suggestions, &safety, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Kind = domain.ActivityKind(kind)

	for _, pair := range []struct {
		raw  []byte
		dest *[]string
	}{
		{improvements, &rec.Improvements},
		{suggestions, &rec.Suggestions},
		{safety, &rec.Safety},
	} {
		*pair.dest = []string{}
		if len(pair.raw) > 0 {
			if err := json.Unmarshal(pair.raw, pair.dest); err != nil {
				return nil, fmt.Errorf("unmarshal recommendation lists: %w", err)
			}
		}
	}
	return &rec, nil
}
