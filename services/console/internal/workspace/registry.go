package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type entry struct {
	ws       *Workspace
	lastSeen time.Time
}

// Registry maps session ids to workspaces and evicts idle ones.
type Registry struct {
	deps    Deps
	idleTTL time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

func NewRegistry(deps Deps, idleTTL time.Duration) *Registry {
	return &Registry{
		deps:    deps,
		idleTTL: idleTTL,
		now:     time.Now,
		entries: map[string]*entry{},
	}
}

// Open returns the session's workspace, creating it on first use, and marks it active.
func (r *Registry) Open(id string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		e = &entry{ws: New(id, r.deps)}
		r.entries[id] = e
		slog.Debug("workspace created", "session", id)
	}
	e.lastSeen = r.now()
	return e.ws
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops workspaces idle longer than the TTL and returns how many went.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				slog.Info("idle workspaces evicted", "count", n)
			}
		}
	}
}
