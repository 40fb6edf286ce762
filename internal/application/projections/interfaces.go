package projections

import (
	"context"

	"workouts/internal/adapters/storage/account"
	"workouts/internal/adapters/storage/workout"
	domainAccount "workouts/internal/domain/account"
	domainWorkout "workouts/internal/domain/workout"
)

// WorkoutStore interface for workout queries.
type WorkoutStore interface {
	List(ctx context.Context, filter workout.ListFilter) ([]domainWorkout.Workout, error)
	Count(ctx context.Context, filter workout.ListFilter) (int, error)
}

// AccountStore interface for account queries.
type AccountStore interface {
	List(ctx context.Context, filter account.ListFilter) ([]domainAccount.Account, error)
}
