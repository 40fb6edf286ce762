package workout_test

import (
	"encoding/json"
	"testing"
	"time"

	"workouts/internal/domain/workout"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func validInput() workout.Input {
	return workout.Input{
		"title":       "Power Training",
		"description": "Leg day",
		"trainer":     "John Doe",
		"date":        now.Add(time.Hour).Format(workout.DisplayLayout),
		"slots":       json.Number("10"),
	}
}

// TestValidateCreate_Valid tests that a complete future workout passes and defaults is_active.
func TestValidateCreate_Valid(t *testing.T) {
	attrs, errs := workout.ValidateCreate(validInput(), now, workout.DefaultMessages)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if *attrs.Title != "Power Training" {
		t.Errorf("expected title=Power Training, got %s", *attrs.Title)
	}
	if *attrs.Slots != 10 {
		t.Errorf("expected slots=10, got %d", *attrs.Slots)
	}
	if attrs.IsActive == nil || !*attrs.IsActive {
		t.Error("expected is_active to default to true")
	}
	if !attrs.Date.Equal(now.Add(time.Hour)) {
		t.Errorf("expected date=%v, got %v", now.Add(time.Hour), *attrs.Date)
	}
}

// TestValidateCreate_Rules tests each rule reports its canonical message.
func TestValidateCreate_Rules(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
		drop  bool
		want  string
	}{
		{name: "missing title", field: "title", drop: true, want: "The title field is required."},
		{name: "blank title", field: "title", value: "   ", want: "The title field is required."},
		{name: "long title", field: "title", value: string(make([]rune, 256)), want: "The title field must not be greater than 255 characters."},
		{name: "numeric title", field: "title", value: json.Number("5"), want: "The title field must be a string."},
		{name: "missing description", field: "description", drop: true, want: "The description field is required."},
		{name: "missing trainer", field: "trainer", drop: true, want: "The trainer field is required."},
		{name: "missing date", field: "date", drop: true, want: "The date field is required."},
		{name: "garbage date", field: "date", value: "next tuesday", want: "The date field must be a valid date."},
		{name: "past date", field: "date", value: now.Add(-time.Minute).Format(workout.DisplayLayout), want: "The workout date must be in the future."},
		{name: "date equal to now", field: "date", value: now.Format(time.RFC3339), want: "The workout date must be in the future."},
		{name: "missing slots", field: "slots", drop: true, want: "The slots field is required."},
		{name: "zero slots", field: "slots", value: json.Number("0"), want: "There must be at least 1 slot available."},
		{name: "too many slots", field: "slots", value: json.Number("101"), want: "The slots field must not be greater than 100."},
		{name: "fractional slots", field: "slots", value: json.Number("2.5"), want: "The slots field must be an integer."},
		{name: "bad is_active", field: "is_active", value: "maybe", want: "The is_active field must be true or false."},
		{name: "fractional is_active", field: "is_active", value: float64(1.5), want: "The is_active field must be true or false."},
		{name: "out of range is_active", field: "is_active", value: 2, want: "The is_active field must be true or false."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			if tt.drop {
				delete(in, tt.field)
			} else {
				in[tt.field] = tt.value
			}
			_, errs := workout.ValidateCreate(in, now, workout.DefaultMessages)
			if got := errs[tt.field]; got != tt.want {
				t.Errorf("errs[%s] = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

// TestValidateCreate_SlotBounds tests the inclusive slot range.
func TestValidateCreate_SlotBounds(t *testing.T) {
	for _, slots := range []any{1, 100, "42", float64(7)} {
		in := validInput()
		in["slots"] = slots
		if _, errs := workout.ValidateCreate(in, now, workout.DefaultMessages); len(errs) != 0 {
			t.Errorf("slots=%v: unexpected errors %v", slots, errs)
		}
	}
}

// TestValidateCreate_UIMessages tests the UI variant of the slots maximum message.
func TestValidateCreate_UIMessages(t *testing.T) {
	in := validInput()
	in["slots"] = "500"
	_, errs := workout.ValidateCreate(in, now, workout.UIMessages)
	if errs["slots"] != "Maximum 100 slots allowed." {
		t.Errorf("expected UI slots message, got %q", errs["slots"])
	}
}

// TestValidateUpdate_Partial tests that only supplied fields are validated and returned.
func TestValidateUpdate_Partial(t *testing.T) {
	attrs, errs := workout.ValidateUpdate(workout.Input{"slots": json.Number("5")}, now, workout.DefaultMessages)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if attrs.Slots == nil || *attrs.Slots != 5 {
		t.Errorf("expected slots=5, got %v", attrs.Slots)
	}
	if attrs.Title != nil || attrs.Date != nil || attrs.IsActive != nil {
		t.Errorf("expected only slots to be set, got %s", attrs)
	}
}

// TestValidateUpdate_SuppliedFieldsStillChecked tests "sometimes" semantics on present fields.
func TestValidateUpdate_SuppliedFieldsStillChecked(t *testing.T) {
	_, errs := workout.ValidateUpdate(workout.Input{
		"title": "",
		"date":  now.Add(-time.Hour).Format(workout.FormLayout),
	}, now, workout.DefaultMessages)
	if errs["title"] != "The title field is required." {
		t.Errorf("expected title required, got %q", errs["title"])
	}
	if errs["date"] != "The workout date must be in the future." {
		t.Errorf("expected future date message, got %q", errs["date"])
	}
	if got := errs.Fields(); len(got) != 2 || got[0] != "title" || got[1] != "date" {
		t.Errorf("expected fields [title date], got %v", got)
	}
}

// TestValidateUpdate_Empty tests that an empty update is valid and supplies nothing.
func TestValidateUpdate_Empty(t *testing.T) {
	attrs, errs := workout.ValidateUpdate(workout.Input{}, now, workout.DefaultMessages)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !attrs.IsEmpty() {
		t.Errorf("expected empty attributes, got %s", attrs)
	}
}

// TestDateRoundTrip tests that a validated date survives the display layout to the second.
func TestDateRoundTrip(t *testing.T) {
	in := validInput()
	in["date"] = "2026-03-01T15:30:45.123456Z"
	attrs, errs := workout.ValidateCreate(in, now, workout.DefaultMessages)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	parsed, err := time.Parse(workout.DisplayLayout, attrs.Date.Format(workout.DisplayLayout))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(*attrs.Date) {
		t.Errorf("round trip: got %v, want %v", parsed, *attrs.Date)
	}
}

// TestWorkout_Apply tests that Apply only touches supplied fields.
func TestWorkout_Apply(t *testing.T) {
	w := workout.Workout{ID: "w1", Title: "Old", Slots: 10, OwnerID: "acct-1", IsActive: true}
	slots := 5
	w.Apply(workout.Attributes{Slots: &slots})
	if w.Slots != 5 || w.Title != "Old" || w.OwnerID != "acct-1" || !w.IsActive {
		t.Errorf("unexpected workout after apply: %+v", w)
	}
}

// TestCanAccess tests the ownership predicate.
func TestCanAccess(t *testing.T) {
	w := workout.Workout{ID: "w1", OwnerID: "acct-1"}
	tests := []struct {
		name string
		req  workout.Requester
		want bool
	}{
		{"owner", workout.Requester{ID: "acct-1"}, true},
		{"other user", workout.Requester{ID: "acct-2"}, false},
		{"admin who is not owner", workout.Requester{ID: "acct-3", Role: "admin"}, false},
		{"anonymous", workout.Requester{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := workout.CanAccess(tt.req, w); got != tt.want {
				t.Errorf("CanAccess = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestWorkout_IsUpcoming tests that past dates are not an error, just not upcoming.
func TestWorkout_IsUpcoming(t *testing.T) {
	w := workout.Workout{Date: now.Add(-time.Hour)}
	if w.IsUpcoming(now) {
		t.Error("expected past workout not to be upcoming")
	}
	if w.IsTrashed() {
		t.Error("expected zero DeletedAt to mean not trashed")
	}
}
