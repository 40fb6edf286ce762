package workout

import (
	"errors"
	"time"
)

// Length and range limits enforced on write.
const (
	MaxTitleLength   = 255
	MaxTrainerLength = 255
	MinSlots         = 1
	MaxSlots         = 100
)

// Field names as they appear in request payloads, forms and error maps.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldTrainer     = "trainer"
	FieldDate        = "date"
	FieldSlots       = "slots"
	FieldIsActive    = "is_active"
)

// FieldOrder is the canonical field order used when reporting validation errors.
var FieldOrder = []string{FieldTitle, FieldDescription, FieldTrainer, FieldDate, FieldSlots, FieldIsActive}

// Timestamp layouts.
const (
	// DisplayLayout is the serialized form of every workout timestamp.
	DisplayLayout = "2006-01-02 15:04:05"
	// FormLayout matches an HTML datetime-local input.
	FormLayout = "2006-01-02T15:04"
)

// Domain errors
var (
	ErrNotFound  = errors.New("workout not found")
	ErrForbidden = errors.New("this action is unauthorized")
)

// Workout is a scheduled training session owned by the account that created it.
// DeletedAt is zero unless the workout has been soft-deleted.
type Workout struct {
	ID          string
	Title       string
	Description string
	Trainer     string
	Date        time.Time
	Slots       int
	IsActive    bool
	OwnerID     string // AccountID of creator, immutable
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   time.Time
}

// IsTrashed reports whether the workout has been soft-deleted.
// INVARIANT: Workout fields are not mutated
func (w Workout) IsTrashed() bool {
	return !w.DeletedAt.IsZero()
}

// IsUpcoming reports whether the workout date is still ahead of now.
// A stored workout may drift into the past; that is not an error.
func (w Workout) IsUpcoming(now time.Time) bool {
	return w.Date.After(now)
}

// Apply copies the supplied attributes onto the workout. Unsupplied attributes are left untouched.
// PRE: attrs has been produced by ValidateCreate or ValidateUpdate
// POST: only fields with non-nil attributes are changed; OwnerID is never changed
func (w *Workout) Apply(attrs Attributes) {
	if attrs.Title != nil {
		w.Title = *attrs.Title
	}
	if attrs.Description != nil {
		w.Description = *attrs.Description
	}
	if attrs.Trainer != nil {
		w.Trainer = *attrs.Trainer
	}
	if attrs.Date != nil {
		w.Date = *attrs.Date
	}
	if attrs.Slots != nil {
		w.Slots = *attrs.Slots
	}
	if attrs.IsActive != nil {
		w.IsActive = *attrs.IsActive
	}
}
