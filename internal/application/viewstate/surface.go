// Package viewstate holds the interactive workout list state for the server-rendered pages.
// One Controller serves both the dashboard and the manager; a Surface carries what differs.
package viewstate

import (
	"strconv"
	"time"

	"workouts/internal/domain/workout"
)

// Surface parameterizes a Controller.
type Surface struct {
	Name            string
	PageSize        int
	ShowStats       bool
	ShowDescription bool
	Messages        workout.Messages
}

// Surfaces.
var (
	Dashboard = Surface{Name: "dashboard", PageSize: 6, ShowStats: true, ShowDescription: true, Messages: workout.UIMessages}
	Manager   = Surface{Name: "manager", PageSize: 10, Messages: workout.UIMessages}
)

// Flash messages.
const (
	FlashCreated      = "Workout created successfully!"
	FlashUpdated      = "Workout updated successfully!"
	FlashDeleted      = "Workout deleted successfully!"
	FlashUnauthorized = "Unauthorized action."
	FlashNotFound     = "Workout not found."
)

// Form holds the modal's field values as the browser submits them.
type Form struct {
	Title       string
	Description string
	Trainer     string
	Date        string // workout.FormLayout
	Slots       string
	IsActive    bool
}

// BlankForm is the form shown when creating a workout.
func BlankForm() Form {
	return Form{Slots: "1", IsActive: true}
}

// FormFromWorkout loads a stored workout into the form.
func FormFromWorkout(w workout.Workout) Form {
	return Form{
		Title:       w.Title,
		Description: w.Description,
		Trainer:     w.Trainer,
		Date:        w.Date.UTC().Format(workout.FormLayout),
		Slots:       strconv.Itoa(w.Slots),
		IsActive:    w.IsActive,
	}
}

// Input converts the form into raw field data. Every field counts as supplied.
func (f Form) Input() workout.Input {
	return workout.Input{
		workout.FieldTitle:       f.Title,
		workout.FieldDescription: f.Description,
		workout.FieldTrainer:     f.Trainer,
		workout.FieldDate:        f.Date,
		workout.FieldSlots:       f.Slots,
		workout.FieldIsActive:    f.IsActive,
	}
}

// FlashKind distinguishes success from error flashes.
type FlashKind string

// Flash kinds.
const (
	FlashMessage FlashKind = "message"
	FlashError   FlashKind = "error"
)

// Flash is a one-shot notice shown on the next render.
type Flash struct {
	Kind FlashKind
	Text string
}

// State is one session's view of one surface.
type State struct {
	Search    string
	Trainer   string
	Page      int
	ModalOpen bool
	EditingID string // empty while creating
	Form      Form
	Errors    workout.ValidationErrors
	flash     *Flash
	touched   time.Time
}

// NewState returns the browsing state a surface starts in.
func NewState() *State {
	return &State{Page: 1, Form: BlankForm()}
}

// Editing reports whether the modal holds an existing workout.
func (s *State) Editing() bool {
	return s.EditingID != ""
}

func (s *State) setFlash(kind FlashKind, text string) {
	s.flash = &Flash{Kind: kind, Text: text}
}

// takeFlash returns the pending flash and clears it.
func (s *State) takeFlash() *Flash {
	f := s.flash
	s.flash = nil
	return f
}

func (s *State) resetForm() {
	s.ModalOpen = false
	s.EditingID = ""
	s.Form = BlankForm()
	s.Errors = nil
}
