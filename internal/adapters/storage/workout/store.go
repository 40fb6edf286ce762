package workout

import (
	"context"
	"time"

	domain "workouts/internal/domain/workout"
)

// Store persists Workout state.
type Store interface {
	Create(ctx context.Context, value domain.Workout) error
	GetByID(ctx context.Context, id string, includeTrashed bool) (domain.Workout, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Workout, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	Update(ctx context.Context, id string, attrs domain.Attributes, now time.Time) (domain.Workout, error)
	SoftDelete(ctx context.Context, id string, now time.Time) error
	Restore(ctx context.Context, id string, now time.Time) error
	ForceDelete(ctx context.Context, id string) error
}

// Trashed selects how soft-deleted rows are treated by List and Count.
type Trashed string

// Trashed modes.
const (
	TrashedExclude Trashed = ""
	TrashedInclude Trashed = "with"
	TrashedOnly    Trashed = "only"
)

// ParseTrashed maps a filter value onto a Trashed mode; unknown values exclude trashed rows.
func ParseTrashed(s string) Trashed {
	switch Trashed(s) {
	case TrashedInclude, TrashedOnly:
		return Trashed(s)
	}
	return TrashedExclude
}

// ListFilter carries filtering parameters for List and Count.
// Zero values mean "no constraint"; Limit 0 means unpaginated.
type ListFilter struct {
	OwnerID   string
	Active    *bool
	Title     string
	Trainer   string
	DateAfter time.Time
	Trashed   Trashed
	Limit     int
	Offset    int
}
