package viewstate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	storeWorkout "workouts/internal/adapters/storage/workout"
	"workouts/internal/domain/workout"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// memStore is a map-backed Store.
type memStore struct {
	mu       sync.Mutex
	workouts map[string]workout.Workout
}

func newMemStore() *memStore {
	return &memStore{workouts: make(map[string]workout.Workout)}
}

func (m *memStore) Create(_ context.Context, w workout.Workout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workouts[w.ID] = w
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string, includeTrashed bool) (workout.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workouts[id]
	if !ok || (w.IsTrashed() && !includeTrashed) {
		return workout.Workout{}, workout.ErrNotFound
	}
	return w, nil
}

func (m *memStore) Update(_ context.Context, id string, attrs workout.Attributes, now time.Time) (workout.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workouts[id]
	if !ok || w.IsTrashed() {
		return workout.Workout{}, workout.ErrNotFound
	}
	w.Apply(attrs)
	w.UpdatedAt = now
	m.workouts[id] = w
	return w, nil
}

func (m *memStore) SoftDelete(_ context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workouts[id]
	if !ok || w.IsTrashed() {
		return workout.ErrNotFound
	}
	w.DeletedAt = now
	m.workouts[id] = w
	return nil
}

func (m *memStore) match(f storeWorkout.ListFilter) []workout.Workout {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []workout.Workout
	for _, w := range m.workouts {
		if w.IsTrashed() || (f.OwnerID != "" && w.OwnerID != f.OwnerID) {
			continue
		}
		if f.Active != nil && w.IsActive != *f.Active {
			continue
		}
		if f.Title != "" && !strings.Contains(strings.ToLower(w.Title), strings.ToLower(f.Title)) {
			continue
		}
		if f.Trainer != "" && !strings.Contains(strings.ToLower(w.Trainer), strings.ToLower(f.Trainer)) {
			continue
		}
		if !f.DateAfter.IsZero() && !w.Date.After(f.DateAfter) {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (m *memStore) List(_ context.Context, f storeWorkout.ListFilter) ([]workout.Workout, error) {
	out := m.match(f)
	if f.Limit > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:min(f.Offset+f.Limit, len(out))]
	}
	return out, nil
}

func (m *memStore) Count(_ context.Context, f storeWorkout.ListFilter) (int, error) {
	return len(m.match(f)), nil
}

var (
	alice = workout.Requester{ID: "alice", Role: "user"}
	bob   = workout.Requester{ID: "bob", Role: "user"}
)

func newTestController(surface Surface, store *memStore) *Controller {
	n := 0
	return NewController(surface, Deps{
		WorkoutStore: store,
		GenerateID: func() string {
			n++
			return fmt.Sprintf("w-%d", n)
		},
		Now: func() time.Time { return testNow },
	})
}

func validForm() Form {
	return Form{
		Title:       "Power Training",
		Description: "Strength and conditioning",
		Trainer:     "Jane Doe",
		Date:        "2026-03-08T09:00",
		Slots:       "20",
		IsActive:    true,
	}
}

func TestOpenCreate_BlankForm(t *testing.T) {
	c := newTestController(Dashboard, newMemStore())
	s := NewState()
	s.Errors = workout.ValidationErrors{"title": "x"}
	s.Form.Title = "leftover"

	c.OpenCreate(s)
	if !s.ModalOpen || s.Editing() {
		t.Fatalf("expected modal open for create, got %+v", s)
	}
	if s.Form != BlankForm() {
		t.Errorf("expected blank form, got %+v", s.Form)
	}
	if s.Form.Slots != "1" || !s.Form.IsActive {
		t.Errorf("expected slots=1 and active, got %+v", s.Form)
	}
	if s.Errors != nil {
		t.Error("expected errors cleared")
	}
}

func TestSave_CreateThenEdit(t *testing.T) {
	store := newMemStore()
	c := newTestController(Dashboard, store)
	s := NewState()
	ctx := context.Background()

	c.OpenCreate(s)
	if err := c.Save(ctx, s, alice, validForm()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if s.ModalOpen {
		t.Error("expected modal closed after save")
	}
	w, ok := store.workouts["w-1"]
	if !ok || w.OwnerID != "alice" {
		t.Fatalf("expected w-1 owned by alice, got %+v", w)
	}

	v, err := c.View(ctx, s, alice)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if v.Flash == nil || v.Flash.Text != FlashCreated {
		t.Errorf("expected created flash, got %+v", v.Flash)
	}
	if v, _ := c.View(ctx, s, alice); v.Flash != nil {
		t.Error("expected flash consumed after one render")
	}

	if err := c.OpenEdit(ctx, s, alice, "w-1"); err != nil {
		t.Fatalf("open edit: %v", err)
	}
	if s.Form.Date != "2026-03-08T09:00" {
		t.Errorf("expected form date in datetime-local layout, got %s", s.Form.Date)
	}
	form := s.Form
	form.Slots = "25"
	if err := c.Save(ctx, s, alice, form); err != nil {
		t.Fatalf("save edit: %v", err)
	}
	if store.workouts["w-1"].Slots != 25 {
		t.Errorf("expected slots=25, got %d", store.workouts["w-1"].Slots)
	}
	if v, _ := c.View(ctx, s, alice); v.Flash == nil || v.Flash.Text != FlashUpdated {
		t.Errorf("expected updated flash, got %+v", v.Flash)
	}
}

func TestSave_ValidationKeepsEditing(t *testing.T) {
	store := newMemStore()
	c := newTestController(Manager, store)
	s := NewState()

	c.OpenCreate(s)
	form := validForm()
	form.Title = ""
	form.Slots = "150"
	if err := c.Save(context.Background(), s, alice, form); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !s.ModalOpen {
		t.Error("expected modal to stay open")
	}
	if s.Errors["title"] != "The title field is required." {
		t.Errorf("unexpected title error %q", s.Errors["title"])
	}
	if s.Errors["slots"] != "Maximum 100 slots allowed." {
		t.Errorf("unexpected slots error %q", s.Errors["slots"])
	}
	if s.Form.Slots != "150" {
		t.Error("expected submitted values kept")
	}
	if len(store.workouts) != 0 {
		t.Error("expected nothing persisted")
	}
}

func TestOpenEdit_Foreign(t *testing.T) {
	store := newMemStore()
	c := newTestController(Dashboard, store)
	ctx := context.Background()
	if err := c.Save(ctx, NewState(), bob, validForm()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := NewState()
	if err := c.OpenEdit(ctx, s, alice, "w-1"); err != nil {
		t.Fatalf("open edit: %v", err)
	}
	if s.ModalOpen || s.Editing() {
		t.Error("expected to stay browsing")
	}
	v, _ := c.View(ctx, s, alice)
	if v.Flash == nil || v.Flash.Kind != FlashError || v.Flash.Text != FlashUnauthorized {
		t.Errorf("expected unauthorized flash, got %+v", v.Flash)
	}

	if err := c.OpenEdit(ctx, s, alice, "missing"); err != nil {
		t.Fatalf("open edit: %v", err)
	}
	if v, _ := c.View(ctx, s, alice); v.Flash == nil || v.Flash.Text != FlashNotFound {
		t.Errorf("expected not found flash, got %+v", v.Flash)
	}
}

func TestDelete(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	for _, surface := range []Surface{Dashboard, Manager} {
		t.Run(surface.Name, func(t *testing.T) {
			c := newTestController(surface, store)
			if err := c.Save(ctx, NewState(), bob, validForm()); err != nil {
				t.Fatalf("seed: %v", err)
			}
			id := "w-1"

			s := NewState()
			c.OpenCreate(s)
			if err := c.Delete(ctx, s, alice, id); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if store.workouts[id].IsTrashed() {
				t.Fatal("expected foreign workout untouched")
			}
			if !s.ModalOpen {
				t.Error("expected modal state untouched")
			}
			if v, _ := c.View(ctx, s, alice); v.Flash == nil || v.Flash.Text != FlashUnauthorized {
				t.Errorf("expected unauthorized flash, got %+v", v.Flash)
			}

			if err := c.Delete(ctx, s, bob, id); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if !store.workouts[id].IsTrashed() {
				t.Error("expected workout soft-deleted")
			}
			if v, _ := c.View(ctx, s, bob); v.Flash == nil || v.Flash.Text != FlashDeleted {
				t.Errorf("expected deleted flash, got %+v", v.Flash)
			}
			delete(store.workouts, id)
		})
	}
}

func TestSearchResetsPage(t *testing.T) {
	store := newMemStore()
	c := newTestController(Dashboard, store)
	ctx := context.Background()
	for i := 0; i < 14; i++ {
		form := validForm()
		form.Title = fmt.Sprintf("Session %02d", i)
		form.Date = testNow.Add(time.Duration(i+1) * time.Hour).Format(workout.FormLayout)
		if err := c.Save(ctx, NewState(), alice, form); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	s := NewState()
	c.SetPage(s, 3)
	v, err := c.View(ctx, s, alice)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if v.Page.Page != 3 || len(v.Workouts) != 2 {
		t.Fatalf("expected page 3 with 2 rows, got page %d with %d", v.Page.Page, len(v.Workouts))
	}

	c.SetSearch(s, "session 1")
	if s.Page != 1 {
		t.Errorf("expected page reset to 1, got %d", s.Page)
	}
	v, _ = c.View(ctx, s, alice)
	if v.Page.Total != 4 {
		t.Errorf("expected 4 matches for 'session 1', got %d", v.Page.Total)
	}

	c.SetPage(s, 2)
	c.SetTrainerFilter(s, "jane")
	if s.Page != 1 {
		t.Errorf("expected trainer filter to reset page, got %d", s.Page)
	}
}

func TestView_ClampsPageAndStats(t *testing.T) {
	store := newMemStore()
	c := newTestController(Dashboard, store)
	ctx := context.Background()
	if err := c.Save(ctx, NewState(), alice, validForm()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := NewState()
	c.SetPage(s, 50)
	v, err := c.View(ctx, s, alice)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if s.Page != 1 || v.Page.Page != 1 {
		t.Errorf("expected clamped to page 1, got %d", s.Page)
	}
	if v.Stats == nil || v.Stats.Total != 1 || v.Stats.Active != 1 || v.Stats.Upcoming != 1 {
		t.Errorf("unexpected stats %+v", v.Stats)
	}

	mc := newTestController(Manager, store)
	if v, _ := mc.View(ctx, NewState(), alice); v.Stats != nil {
		t.Error("expected no stats on manager")
	}
}

func TestCancel(t *testing.T) {
	c := newTestController(Dashboard, newMemStore())
	s := NewState()
	c.OpenCreate(s)
	s.Form.Title = "draft"
	s.Errors = workout.ValidationErrors{"title": "x"}
	c.Cancel(s)
	if s.ModalOpen || s.Errors != nil || s.Form != BlankForm() {
		t.Errorf("expected browsing with blank form, got %+v", s)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	clock := testNow
	r.now = func() time.Time { return clock }

	_ = r.With("sess-1", "dashboard", func(s *State) error { s.Search = "power"; return nil })
	_ = r.With("sess-1", "manager", func(*State) error { return nil })
	_ = r.With("sess-2", "dashboard", func(*State) error { return nil })

	var got string
	_ = r.With("sess-1", "dashboard", func(s *State) error { got = s.Search; return nil })
	if got != "power" {
		t.Errorf("expected state to persist per session, got %q", got)
	}
	if r.Len() != 3 {
		t.Fatalf("expected 3 states, got %d", r.Len())
	}

	r.Drop("sess-1")
	if r.Len() != 1 {
		t.Errorf("expected 1 state after drop, got %d", r.Len())
	}

	clock = clock.Add(IdleTimeout + time.Minute)
	if n := r.Sweep(); n != 1 || r.Len() != 0 {
		t.Errorf("expected sweep to remove 1, removed %d leaving %d", n, r.Len())
	}
}
