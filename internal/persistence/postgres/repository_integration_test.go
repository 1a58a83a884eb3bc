//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/fittrack/internal/domain"
)

func TestRecommendationUpsertLastWriteWins(t *testing.T) {
	ctx := context.Background()
	pool := setupDatabase(t, ctx)

	repo := NewRecommendationRepository(pool)
	activityID := uuid.NewString()

	first := domain.Recommendation{
		ActivityID:   activityID,
		UserID:       "u1",
		Kind:         domain.KindRunning,
		Analysis:     "first pass",
		Improvements: []string{"one"},
		Suggestions:  []string{},
		Safety:       []string{"careful"},
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Put(ctx, first))

	second := first
	second.Analysis = "second pass"
	second.Improvements = []string{"two", "three"}
	require.NoError(t, repo.Put(ctx, second))

	stored, err := repo.Get(ctx, activityID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "second pass", stored.Analysis)
	require.Equal(t, []string{"two", "three"}, stored.Improvements)
	require.Equal(t, []string{}, stored.Suggestions)
}

func TestRecommendationGetMissing(t *testing.T) {
	ctx := context.Background()
	pool := setupDatabase(t, ctx)

	repo := NewRecommendationRepository(pool)
	stored, err := repo.Get(ctx, uuid.NewString())
	require.NoError(t, err)
	require.Nil(t, stored)
}

func TestActivityRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := setupDatabase(t, ctx)

	repo := NewActivityRepository(pool)
	activity := domain.Activity{
		ID:          uuid.NewString(),
		UserID:      "u1",
		Kind:        domain.KindCycling,
		DurationMin: 60,
		Calories:    500,
		StartedAt:   time.Now().UTC().Truncate(time.Microsecond),
		Metrics:     map[string]float64{"avg_speed_kmh": 27.5},
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Create(ctx, activity))

	stored, err := repo.Get(ctx, activity.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, activity.Kind, stored.Kind)
	require.Equal(t, activity.Metrics, stored.Metrics)

	list, err := repo.ListByUser(ctx, "u1", 10)
	require.NoError(t, err)
	require.NotEmpty(t, list)
}

func setupDatabase(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("fitness"),
		postgrescontainer.WithUsername("fittrack"),
		postgrescontainer.WithPassword("fittrack"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	files := []string{
		"../../../db/postgres/migrations/0001_init.up.sql",
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, rel := range files {
		path := resolvePath(t, rel)
		contents, readErr := os.ReadFile(path)
		require.NoError(t, readErr)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoError(t, execErr)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
