package viewstate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	storeWorkout "workouts/internal/adapters/storage/workout"
	"workouts/internal/application/listutil"
	"workouts/internal/application/orchestrators"
	"workouts/internal/application/projections"
	"workouts/internal/domain/workout"
)

// Store is the workout persistence the controller needs.
type Store interface {
	Create(ctx context.Context, w workout.Workout) error
	GetByID(ctx context.Context, id string, includeTrashed bool) (workout.Workout, error)
	Update(ctx context.Context, id string, attrs workout.Attributes, now time.Time) (workout.Workout, error)
	SoftDelete(ctx context.Context, id string, now time.Time) error
	List(ctx context.Context, filter storeWorkout.ListFilter) ([]workout.Workout, error)
	Count(ctx context.Context, filter storeWorkout.ListFilter) (int, error)
}

// Deps holds dependencies for a Controller.
type Deps struct {
	WorkoutStore Store
	GenerateID   func() string
	Now          func() time.Time
}

// Controller applies UI transitions to a State.
type Controller struct {
	surface Surface
	deps    Deps
}

// NewController creates a Controller for surface.
func NewController(surface Surface, deps Deps) *Controller {
	return &Controller{surface: surface, deps: deps}
}

// Surface returns the surface this controller serves.
func (c *Controller) Surface() Surface {
	return c.surface
}

// OpenCreate opens the modal with a blank form.
// POST: editing nothing; errors cleared
func (c *Controller) OpenCreate(s *State) {
	s.resetForm()
	s.ModalOpen = true
}

// OpenEdit loads an owned workout into the form and opens the modal.
// A missing or foreign workout leaves the state browsing with an error flash.
func (c *Controller) OpenEdit(ctx context.Context, s *State, requester workout.Requester, id string) error {
	w, err := c.deps.WorkoutStore.GetByID(ctx, id, false)
	if errors.Is(err, workout.ErrNotFound) {
		s.setFlash(FlashError, FlashNotFound)
		return nil
	}
	if err != nil {
		return err
	}
	if !workout.CanAccess(requester, w) {
		slog.Info("workout_event", "event", "workout_edit_denied", "surface", c.surface.Name, "workout_id", id, "requester_id", requester.ID)
		s.setFlash(FlashError, FlashUnauthorized)
		return nil
	}
	s.Errors = nil
	s.EditingID = w.ID
	s.Form = FormFromWorkout(w)
	s.ModalOpen = true
	return nil
}

// Cancel discards the form and closes the modal.
func (c *Controller) Cancel(s *State) {
	s.resetForm()
}

// Save validates and persists the submitted form: create rules when nothing is loaded,
// update rules otherwise.
// POST: on validation failure the modal stays open with errors and the submitted values
func (c *Controller) Save(ctx context.Context, s *State, requester workout.Requester, form Form) error {
	s.Form = form
	var err error
	if s.Editing() {
		_, err = orchestrators.ExecuteUpdateWorkout(ctx, orchestrators.UpdateWorkoutInput{
			Requester: requester,
			WorkoutID: s.EditingID,
			Fields:    form.Input(),
			Messages:  c.surface.Messages,
		}, orchestrators.UpdateWorkoutDeps{WorkoutStore: c.deps.WorkoutStore, Now: c.deps.Now})
	} else {
		_, err = orchestrators.ExecuteCreateWorkout(ctx, orchestrators.CreateWorkoutInput{
			Requester: requester,
			Fields:    form.Input(),
			Messages:  c.surface.Messages,
		}, orchestrators.CreateWorkoutDeps{WorkoutStore: c.deps.WorkoutStore, GenerateID: c.deps.GenerateID, Now: c.deps.Now})
	}

	var verrs workout.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		s.ModalOpen = true
		s.Errors = verrs
		return nil
	case errors.Is(err, workout.ErrForbidden):
		s.resetForm()
		s.setFlash(FlashError, FlashUnauthorized)
		return nil
	case errors.Is(err, workout.ErrNotFound):
		s.resetForm()
		s.setFlash(FlashError, FlashNotFound)
		return nil
	case err != nil:
		return err
	}

	text := FlashCreated
	if s.Editing() {
		text = FlashUpdated
	}
	s.resetForm()
	s.setFlash(FlashMessage, text)
	return nil
}

// Delete soft-deletes an owned workout. The modal is left as it was.
func (c *Controller) Delete(ctx context.Context, s *State, requester workout.Requester, id string) error {
	err := orchestrators.ExecuteDeleteWorkout(ctx, orchestrators.DeleteWorkoutInput{
		Requester: requester,
		WorkoutID: id,
	}, orchestrators.DeleteWorkoutDeps{WorkoutStore: c.deps.WorkoutStore, Now: c.deps.Now})
	switch {
	case errors.Is(err, workout.ErrForbidden):
		s.setFlash(FlashError, FlashUnauthorized)
	case errors.Is(err, workout.ErrNotFound):
		s.setFlash(FlashError, FlashNotFound)
	case err != nil:
		return err
	default:
		s.setFlash(FlashMessage, FlashDeleted)
	}
	return nil
}

// SetSearch changes the title search and returns to page 1.
func (c *Controller) SetSearch(s *State, search string) {
	s.Search = search
	s.Page = 1
}

// SetTrainerFilter changes the trainer filter and returns to page 1.
func (c *Controller) SetTrainerFilter(s *State, trainer string) {
	s.Trainer = trainer
	s.Page = 1
}

// SetPage moves to page n; View clamps it to the available range.
func (c *Controller) SetPage(s *State, n int) {
	if n < 1 {
		n = 1
	}
	s.Page = n
}

// View is everything a page render needs.
type View struct {
	Surface   Surface
	Workouts  []workout.Workout
	Page      listutil.PageInfo
	Stats     *projections.DashboardStats
	Search    string
	Trainer   string
	ModalOpen bool
	Editing   bool
	Form      Form
	Errors    workout.ValidationErrors
	Flash     *Flash
}

// View renders the current page of the requester's workouts.
// POST: s.Page is clamped into range; any pending flash is consumed
func (c *Controller) View(ctx context.Context, s *State, requester workout.Requester) (View, error) {
	list, err := projections.QueryGetWorkoutList(ctx, projections.GetWorkoutListQuery{
		OwnerID: requester.ID,
		Search:  s.Search,
		Trainer: s.Trainer,
		Page:    s.Page,
		PerPage: c.surface.PageSize,
	}, projections.GetWorkoutListDeps{WorkoutStore: c.deps.WorkoutStore})
	if err != nil {
		return View{}, err
	}
	s.Page = list.Page.Page

	v := View{
		Surface:   c.surface,
		Workouts:  list.Workouts,
		Page:      list.Page,
		Search:    s.Search,
		Trainer:   s.Trainer,
		ModalOpen: s.ModalOpen,
		Editing:   s.Editing(),
		Form:      s.Form,
		Errors:    s.Errors,
	}

	if c.surface.ShowStats {
		stats, err := projections.QueryGetDashboardStats(ctx, projections.GetDashboardStatsQuery{
			OwnerID: requester.ID,
			Now:     c.deps.Now().UTC(),
		}, projections.GetDashboardStatsDeps{WorkoutStore: c.deps.WorkoutStore})
		if err != nil {
			return View{}, err
		}
		v.Stats = &stats
	}

	v.Flash = s.takeFlash()
	return v, nil
}
