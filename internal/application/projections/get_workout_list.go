package projections

import (
	"context"

	"workouts/internal/adapters/storage/workout"
	"workouts/internal/application/listutil"
	domainWorkout "workouts/internal/domain/workout"
)

// GetWorkoutListQuery carries query parameters.
type GetWorkoutListQuery struct {
	OwnerID string
	Active  *bool
	Search  string // title substring
	Trainer string // trainer substring
	Page    int
	PerPage int // 0 returns every matching row on one page
}

// GetWorkoutListResult carries the query result.
type GetWorkoutListResult struct {
	Workouts []domainWorkout.Workout
	Page     listutil.PageInfo
}

// GetWorkoutListDeps holds dependencies for GetWorkoutList.
type GetWorkoutListDeps struct {
	WorkoutStore WorkoutStore
}

// QueryGetWorkoutList retrieves one owner's live workouts ordered by date.
// PRE: query.OwnerID is non-empty
// POST: Returns the requested page, clamped to the available range
// INVARIANT: soft-deleted workouts are never returned
func QueryGetWorkoutList(ctx context.Context, query GetWorkoutListQuery, deps GetWorkoutListDeps) (GetWorkoutListResult, error) {
	filter := workout.ListFilter{
		OwnerID: query.OwnerID,
		Active:  query.Active,
		Title:   query.Search,
		Trainer: query.Trainer,
	}

	if query.PerPage <= 0 {
		workouts, err := deps.WorkoutStore.List(ctx, filter)
		if err != nil {
			return GetWorkoutListResult{}, err
		}
		if workouts == nil {
			workouts = []domainWorkout.Workout{}
		}
		return GetWorkoutListResult{
			Workouts: workouts,
			Page:     listutil.NewPageInfo(1, max(len(workouts), 1), len(workouts)),
		}, nil
	}

	total, err := deps.WorkoutStore.Count(ctx, filter)
	if err != nil {
		return GetWorkoutListResult{}, err
	}
	page := listutil.NewPageInfo(query.Page, query.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	workouts, err := deps.WorkoutStore.List(ctx, filter)
	if err != nil {
		return GetWorkoutListResult{}, err
	}
	if workouts == nil {
		workouts = []domainWorkout.Workout{}
	}
	return GetWorkoutListResult{Workouts: workouts, Page: page}, nil
}
