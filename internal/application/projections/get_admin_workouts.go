package projections

import (
	"context"

	"workouts/internal/adapters/storage/account"
	"workouts/internal/adapters/storage/workout"
	"workouts/internal/application/listutil"
	domainWorkout "workouts/internal/domain/workout"
)

// GetAdminWorkoutsQuery carries query parameters for the admin workout table.
type GetAdminWorkoutsQuery struct {
	OwnerID    string
	ActiveOnly bool
	Trashed    workout.Trashed
	Page       int
	PerPage    int // listutil.DefaultPerPage when zero
}

// AdminWorkoutRow is a workout together with its owner's display name.
type AdminWorkoutRow struct {
	domainWorkout.Workout
	OwnerName string
}

// OwnerOption is one entry in the owner filter.
type OwnerOption struct {
	ID   string
	Name string
}

// GetAdminWorkoutsResult carries the query result.
type GetAdminWorkoutsResult struct {
	Rows   []AdminWorkoutRow
	Owners []OwnerOption
	Page   listutil.PageInfo
}

// GetAdminWorkoutsDeps holds dependencies for GetAdminWorkouts.
type GetAdminWorkoutsDeps struct {
	WorkoutStore WorkoutStore
	AccountStore AccountStore
}

// QueryGetAdminWorkouts lists workouts across every owner for the admin panel.
// PRE: caller has checked the admin role
// POST: rows are ordered by date; trashed rows appear only when query.Trashed asks for them
func QueryGetAdminWorkouts(ctx context.Context, query GetAdminWorkoutsQuery, deps GetAdminWorkoutsDeps) (GetAdminWorkoutsResult, error) {
	filter := workout.ListFilter{
		OwnerID: query.OwnerID,
		Trashed: query.Trashed,
	}
	if query.ActiveOnly {
		active := true
		filter.Active = &active
	}

	total, err := deps.WorkoutStore.Count(ctx, filter)
	if err != nil {
		return GetAdminWorkoutsResult{}, err
	}
	page := listutil.NewPageInfo(query.Page, query.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	workouts, err := deps.WorkoutStore.List(ctx, filter)
	if err != nil {
		return GetAdminWorkoutsResult{}, err
	}

	accounts, err := deps.AccountStore.List(ctx, account.ListFilter{})
	if err != nil {
		return GetAdminWorkoutsResult{}, err
	}
	names := make(map[string]string, len(accounts))
	owners := make([]OwnerOption, 0, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
		owners = append(owners, OwnerOption{ID: a.ID, Name: a.Name})
	}

	rows := make([]AdminWorkoutRow, 0, len(workouts))
	for _, w := range workouts {
		rows = append(rows, AdminWorkoutRow{Workout: w, OwnerName: names[w.OwnerID]})
	}
	return GetAdminWorkoutsResult{Rows: rows, Owners: owners, Page: page}, nil
}
