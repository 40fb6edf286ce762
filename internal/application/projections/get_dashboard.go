package projections

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"workouts/internal/adapters/storage/workout"
)

// GetDashboardStatsQuery carries input for the dashboard stats projection.
type GetDashboardStatsQuery struct {
	OwnerID string
	Now     time.Time
}

// DashboardStats summarises one owner's live workouts.
type DashboardStats struct {
	Total    int
	Active   int
	Upcoming int // dated after Now
}

// GetDashboardStatsDeps holds dependencies for the dashboard stats projection.
type GetDashboardStatsDeps struct {
	WorkoutStore WorkoutStore
}

// QueryGetDashboardStats counts an owner's workouts for the dashboard header.
// PRE: query.OwnerID is non-empty
// POST: counts ignore search and trainer filters and exclude soft-deleted rows
func QueryGetDashboardStats(ctx context.Context, query GetDashboardStatsQuery, deps GetDashboardStatsDeps) (DashboardStats, error) {
	active := true
	var stats DashboardStats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := deps.WorkoutStore.Count(gctx, workout.ListFilter{OwnerID: query.OwnerID})
		stats.Total = n
		return err
	})
	g.Go(func() error {
		n, err := deps.WorkoutStore.Count(gctx, workout.ListFilter{OwnerID: query.OwnerID, Active: &active})
		stats.Active = n
		return err
	})
	g.Go(func() error {
		n, err := deps.WorkoutStore.Count(gctx, workout.ListFilter{OwnerID: query.OwnerID, DateAfter: query.Now})
		stats.Upcoming = n
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardStats{}, err
	}
	return stats, nil
}
