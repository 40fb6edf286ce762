package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"workouts/internal/adapters/metrics"
	"workouts/internal/domain/account"
	"workouts/internal/domain/workout"
)

// WorkoutStoreForAdmin defines the store interface needed by the admin orchestrators.
type WorkoutStoreForAdmin interface {
	SoftDelete(ctx context.Context, id string, now time.Time) error
	Restore(ctx context.Context, id string, now time.Time) error
	ForceDelete(ctx context.Context, id string) error
}

// AdminWorkoutAction names an administrative lifecycle action.
type AdminWorkoutAction string

// Admin actions.
const (
	AdminActionDelete      AdminWorkoutAction = "delete"
	AdminActionRestore     AdminWorkoutAction = "restore"
	AdminActionForceDelete AdminWorkoutAction = "force-delete"
)

// ErrUnknownAdminAction is returned for an action outside the admin action set.
var ErrUnknownAdminAction = errors.New("unknown admin action")

// AdminWorkoutInput carries input for the admin workout orchestrator.
type AdminWorkoutInput struct {
	Requester  workout.Requester
	Action     AdminWorkoutAction
	WorkoutIDs []string
}

// AdminWorkoutDeps holds dependencies for AdminWorkout.
type AdminWorkoutDeps struct {
	WorkoutStore WorkoutStoreForAdmin
	Now          func() time.Time
}

// AdminWorkoutResult reports how a bulk action went.
type AdminWorkoutResult struct {
	Applied  int
	NotFound int
}

// ExecuteAdminWorkout applies a lifecycle action to any owner's workouts.
// Ids that do not match a row in the right state are counted, not failed.
// PRE: Requester has the admin role
// POST: each matched workout is soft-deleted, restored or removed
func ExecuteAdminWorkout(ctx context.Context, input AdminWorkoutInput, deps AdminWorkoutDeps) (AdminWorkoutResult, error) {
	if err := requireAdmin(input.Requester); err != nil {
		return AdminWorkoutResult{}, err
	}

	now := truncatedNow(deps.Now)
	var result AdminWorkoutResult
	for _, id := range input.WorkoutIDs {
		var err error
		switch input.Action {
		case AdminActionDelete:
			err = deps.WorkoutStore.SoftDelete(ctx, id, now)
		case AdminActionRestore:
			err = deps.WorkoutStore.Restore(ctx, id, now)
		case AdminActionForceDelete:
			err = deps.WorkoutStore.ForceDelete(ctx, id)
		default:
			return result, ErrUnknownAdminAction
		}
		if isNotFound(err) {
			result.NotFound++
			continue
		}
		if err != nil {
			return result, err
		}
		result.Applied++
		metrics.RecordWorkoutEvent("admin_" + string(input.Action))
		slog.Info("workout_event", "event", "workout_admin_"+string(input.Action), "workout_id", id, "admin_id", input.Requester.ID)
	}
	return result, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, workout.ErrNotFound)
}

// --- Admin Edit Workout ---

// AdminEditWorkoutInput carries input for the admin edit orchestrators.
type AdminEditWorkoutInput struct {
	Requester workout.Requester
	WorkoutID string
	Fields    workout.Input // ignored by ExecuteAdminGetWorkout
}

// ExecuteAdminGetWorkout loads any owner's live workout for the admin edit form.
// PRE: Requester has the admin role
// POST: Returns the workout, or an error wrapping workout.ErrNotFound when missing or trashed
func ExecuteAdminGetWorkout(ctx context.Context, input AdminEditWorkoutInput, deps ShowWorkoutDeps) (workout.Workout, error) {
	if err := requireAdmin(input.Requester); err != nil {
		return workout.Workout{}, err
	}
	return deps.WorkoutStore.GetByID(ctx, input.WorkoutID, false)
}

// ExecuteAdminUpdateWorkout applies a partial update to any owner's workout.
// PRE: Requester has the admin role
// POST: only supplied fields change; ValidationErrors leave the record untouched
// INVARIANT: OwnerID never changes, an admin edit does not reassign the workout
func ExecuteAdminUpdateWorkout(ctx context.Context, input AdminEditWorkoutInput, deps UpdateWorkoutDeps) (workout.Workout, error) {
	if err := requireAdmin(input.Requester); err != nil {
		return workout.Workout{}, err
	}

	existing, err := deps.WorkoutStore.GetByID(ctx, input.WorkoutID, false)
	if err != nil {
		return workout.Workout{}, err
	}

	now := truncatedNow(deps.Now)
	attrs, errs := workout.ValidateUpdate(input.Fields, now, workout.DefaultMessages)
	if len(errs) > 0 {
		return workout.Workout{}, errs
	}
	if attrs.IsEmpty() {
		return existing, nil
	}

	updated, err := deps.WorkoutStore.Update(ctx, existing.ID, attrs, now)
	if err != nil {
		return workout.Workout{}, err
	}

	metrics.RecordWorkoutEvent("admin_updated")
	slog.Info("workout_event", "event", "workout_admin_updated", "workout_id", updated.ID, "admin_id", input.Requester.ID, "fields", attrs.String())
	return updated, nil
}

func requireAdmin(r workout.Requester) error {
	if !r.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if r.Role != account.RoleAdmin {
		return workout.ErrForbidden
	}
	return nil
}
