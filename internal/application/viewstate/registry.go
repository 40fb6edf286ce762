package viewstate

import (
	"sync"
	"time"
)

// IdleTimeout is how long an untouched state is kept.
const IdleTimeout = 24 * time.Hour

type registryKey struct {
	session string
	surface string
}

type entry struct {
	mu    sync.Mutex
	state *State
}

// Registry keeps one State per session and surface.
type Registry struct {
	mu      sync.Mutex
	entries map[registryKey]*entry
	now     func() time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[registryKey]*entry), now: time.Now}
}

// With runs fn against the session's state for surface, creating it on first use.
// Calls for the same session and surface are serialized.
func (r *Registry) With(session, surface string, fn func(*State) error) error {
	r.mu.Lock()
	key := registryKey{session: session, surface: surface}
	e, ok := r.entries[key]
	if !ok {
		e = &entry{state: NewState()}
		r.entries[key] = e
	}
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.touched = r.now()
	return fn(e.state)
}

// Drop forgets every state held for session.
func (r *Registry) Drop(session string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.entries {
		if key.session == session {
			delete(r.entries, key)
		}
	}
}

// Sweep removes states idle for longer than IdleTimeout and returns how many were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-IdleTimeout)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, e := range r.entries {
		if !e.mu.TryLock() {
			continue
		}
		idle := e.state.touched.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(r.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports how many states are held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
