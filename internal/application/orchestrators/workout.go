package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"workouts/internal/adapters/metrics"
	"workouts/internal/domain/workout"
)

// ErrUnauthenticated is returned when an operation needs an identity and the requester has none.
var ErrUnauthenticated = errors.New("unauthenticated")

// WorkoutStoreForCreate defines the store interface needed by CreateWorkout.
type WorkoutStoreForCreate interface {
	Create(ctx context.Context, w workout.Workout) error
}

// WorkoutStoreForLookup defines the store interface needed by ShowWorkout.
type WorkoutStoreForLookup interface {
	GetByID(ctx context.Context, id string, includeTrashed bool) (workout.Workout, error)
}

// WorkoutStoreForUpdate defines the store interface needed by UpdateWorkout.
type WorkoutStoreForUpdate interface {
	GetByID(ctx context.Context, id string, includeTrashed bool) (workout.Workout, error)
	Update(ctx context.Context, id string, attrs workout.Attributes, now time.Time) (workout.Workout, error)
}

// WorkoutStoreForDelete defines the store interface needed by DeleteWorkout.
type WorkoutStoreForDelete interface {
	GetByID(ctx context.Context, id string, includeTrashed bool) (workout.Workout, error)
	SoftDelete(ctx context.Context, id string, now time.Time) error
}

// messagesOrDefault falls back to the API message set when none is given.
func messagesOrDefault(m workout.Messages) workout.Messages {
	if m == (workout.Messages{}) {
		return workout.DefaultMessages
	}
	return m
}

func truncatedNow(now func() time.Time) time.Time {
	return now().UTC().Truncate(time.Second)
}

// --- Create Workout ---

// CreateWorkoutInput carries input for the create workout orchestrator.
type CreateWorkoutInput struct {
	Requester workout.Requester
	Fields    workout.Input
	Messages  workout.Messages // DefaultMessages when zero
}

// CreateWorkoutDeps holds dependencies for CreateWorkout.
type CreateWorkoutDeps struct {
	WorkoutStore WorkoutStoreForCreate
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteCreateWorkout validates and persists a new workout owned by the requester.
// PRE: Requester is authenticated
// POST: Workout persisted with OwnerID = Requester.ID, or workout.ValidationErrors returned and nothing written
// INVARIANT: any owner key in Fields is ignored
func ExecuteCreateWorkout(ctx context.Context, input CreateWorkoutInput, deps CreateWorkoutDeps) (workout.Workout, error) {
	if !input.Requester.IsAuthenticated() {
		return workout.Workout{}, ErrUnauthenticated
	}

	now := truncatedNow(deps.Now)
	attrs, errs := workout.ValidateCreate(input.Fields, now, messagesOrDefault(input.Messages))
	if len(errs) > 0 {
		return workout.Workout{}, errs
	}

	w := workout.Workout{
		ID:        deps.GenerateID(),
		OwnerID:   input.Requester.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	w.Apply(attrs)

	if err := deps.WorkoutStore.Create(ctx, w); err != nil {
		return workout.Workout{}, err
	}

	slog.Info("workout_event", "event", "workout_created", "workout_id", w.ID, "owner_id", w.OwnerID)
	metrics.RecordWorkoutEvent("created")
	return w, nil
}

// --- Show Workout ---

// ShowWorkoutInput carries input for the show workout orchestrator.
type ShowWorkoutInput struct {
	Requester workout.Requester
	WorkoutID string
}

// ShowWorkoutDeps holds dependencies for ShowWorkout.
type ShowWorkoutDeps struct {
	WorkoutStore WorkoutStoreForLookup
}

// ExecuteShowWorkout returns a single workout the requester owns.
// PRE: Requester is authenticated
// POST: a missing, trashed or foreign workout all report workout.ErrNotFound
func ExecuteShowWorkout(ctx context.Context, input ShowWorkoutInput, deps ShowWorkoutDeps) (workout.Workout, error) {
	if !input.Requester.IsAuthenticated() {
		return workout.Workout{}, ErrUnauthenticated
	}
	w, err := deps.WorkoutStore.GetByID(ctx, input.WorkoutID, false)
	if err != nil {
		return workout.Workout{}, err
	}
	if !workout.CanAccess(input.Requester, w) {
		return workout.Workout{}, workout.ErrNotFound
	}
	return w, nil
}

// --- Update Workout ---

// UpdateWorkoutInput carries input for the update workout orchestrator.
type UpdateWorkoutInput struct {
	Requester workout.Requester
	WorkoutID string
	Fields    workout.Input
	Messages  workout.Messages // DefaultMessages when zero
}

// UpdateWorkoutDeps holds dependencies for UpdateWorkout.
type UpdateWorkoutDeps struct {
	WorkoutStore WorkoutStoreForUpdate
	Now          func() time.Time
}

// ExecuteUpdateWorkout applies a partial update to a workout the requester owns.
// Order: lookup, validate, authorize, persist.
// PRE: Requester is authenticated
// POST: only supplied fields change; on any error nothing is written
// INVARIANT: OwnerID never changes
func ExecuteUpdateWorkout(ctx context.Context, input UpdateWorkoutInput, deps UpdateWorkoutDeps) (workout.Workout, error) {
	if !input.Requester.IsAuthenticated() {
		return workout.Workout{}, ErrUnauthenticated
	}

	existing, err := deps.WorkoutStore.GetByID(ctx, input.WorkoutID, false)
	if err != nil {
		return workout.Workout{}, err
	}

	// Validation precedes CanAccess on update: a stranger sending bad fields gets
	// ValidationErrors, not ErrForbidden. Do not reorder.
	now := truncatedNow(deps.Now)
	attrs, errs := workout.ValidateUpdate(input.Fields, now, messagesOrDefault(input.Messages))
	if len(errs) > 0 {
		return workout.Workout{}, errs
	}

	if !workout.CanAccess(input.Requester, existing) {
		slog.Info("workout_event", "event", "workout_update_denied", "workout_id", existing.ID, "requester_id", input.Requester.ID)
		return workout.Workout{}, workout.ErrForbidden
	}

	if attrs.IsEmpty() {
		return existing, nil
	}

	updated, err := deps.WorkoutStore.Update(ctx, existing.ID, attrs, now)
	if err != nil {
		return workout.Workout{}, err
	}

	slog.Info("workout_event", "event", "workout_updated", "workout_id", updated.ID, "fields", attrs.String())
	metrics.RecordWorkoutEvent("updated")
	return updated, nil
}

// --- Delete Workout ---

// DeleteWorkoutInput carries input for the delete workout orchestrator.
type DeleteWorkoutInput struct {
	Requester workout.Requester
	WorkoutID string
}

// DeleteWorkoutDeps holds dependencies for DeleteWorkout.
type DeleteWorkoutDeps struct {
	WorkoutStore WorkoutStoreForDelete
	Now          func() time.Time
}

// ExecuteDeleteWorkout soft-deletes a workout the requester owns.
// PRE: Requester is authenticated
// POST: DeletedAt set; workout.ErrForbidden leaves the record untouched
func ExecuteDeleteWorkout(ctx context.Context, input DeleteWorkoutInput, deps DeleteWorkoutDeps) error {
	if !input.Requester.IsAuthenticated() {
		return ErrUnauthenticated
	}

	existing, err := deps.WorkoutStore.GetByID(ctx, input.WorkoutID, false)
	if err != nil {
		return err
	}
	if !workout.CanAccess(input.Requester, existing) {
		slog.Info("workout_event", "event", "workout_delete_denied", "workout_id", existing.ID, "requester_id", input.Requester.ID)
		return workout.ErrForbidden
	}

	if err := deps.WorkoutStore.SoftDelete(ctx, existing.ID, truncatedNow(deps.Now)); err != nil {
		return err
	}

	slog.Info("workout_event", "event", "workout_deleted", "workout_id", existing.ID)
	metrics.RecordWorkoutEvent("soft_deleted")
	return nil
}
