package screen

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/reservation-console/internal/core/domain"
)

// Mountable is anything the registry can unmount.
type Mountable interface {
	Name() string
	Unmount()
}

type entry struct {
	key      string
	screen   Mountable
	lastSeen time.Time
}

// Registry tracks the one screen each visitor has mounted, the way a
// single-page app keeps exactly one routed child alive.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
	log     zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
		log:     log,
	}
}

// Swap makes s the visitor's mounted screen under key, unmounting whatever
// was mounted before.
func (r *Registry) Swap(visitor, key string, s Mountable) {
	r.mu.Lock()
	prev := r.entries[visitor]
	r.entries[visitor] = &entry{key: key, screen: s, lastSeen: r.now()}
	r.mu.Unlock()

	if prev != nil && prev.screen != s {
		prev.screen.Unmount()
	}
}

// Current returns the visitor's screen if it is the one mounted under key.
func (r *Registry) Current(visitor, key string) (Mountable, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[visitor]
	if !ok || e.key != key {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.screen, true
}

// Release unmounts the visitor's screen, if any.
func (r *Registry) Release(visitor string) {
	r.mu.Lock()
	e := r.entries[visitor]
	delete(r.entries, visitor)
	r.mu.Unlock()

	if e != nil {
		e.screen.Unmount()
	}
}

// Sweep unmounts screens whose visitor has been idle longer than idle and
// returns how many it released.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*entry
	for visitor, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e)
			delete(r.entries, visitor)
		}
	}
	r.mu.Unlock()

	for _, e := range stale {
		e.screen.Unmount()
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done, then unmounts everything.
func (r *Registry) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.releaseAll()
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				r.log.Debug().Int("released", n).Msg("unmounted idle screens")
			}
		}
	}
}

func (r *Registry) releaseAll() {
	r.mu.Lock()
	all := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range all {
		e.screen.Unmount()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Lookup returns the visitor's mounted module for key with its concrete
// record type.
func Lookup[T domain.Record](r *Registry, visitor, key string) (*Module[T], bool) {
	s, ok := r.Current(visitor, key)
	if !ok {
		return nil, false
	}
	m, ok := s.(*Module[T])
	return m, ok
}
