// Package registry holds the authoritative map of live downloads keyed by URL.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nyantunes/nyantunes/internal/engine/types"
)

// Entry is one row of a snapshot.
type Entry struct {
	URL  string
	Task types.TaskInfo
}

// Registry maps a download URL to its live task. A URL is present iff a
// pending or in-progress task exists for it. All check-then-act sequences
// run under a single mutex.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*types.Task
}

func New() *Registry {
	return &Registry{tasks: make(map[string]*types.Task)}
}

// Get returns a copy of the task registered for url.
func (r *Registry) Get(url string) (types.TaskInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[url]
	if !ok {
		return types.TaskInfo{}, false
	}
	return t.Info(), true
}

// Contains reports whether url has a live task.
func (r *Registry) Contains(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tasks[url]
	return ok
}

// Insert registers task under url, failing with ErrDuplicateKey if present.
func (r *Registry) Insert(url string, task *types.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[url]; ok {
		return fmt.Errorf("%w: %s", types.ErrDuplicateKey, url)
	}
	r.tasks[url] = task
	return nil
}

// Remove deletes url and returns the task that was registered, if any.
func (r *Registry) Remove(url string) (*types.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[url]
	if ok {
		delete(r.tasks, url)
	}
	return t, ok
}

// RemoveIf deletes url only if it still maps to task.
func (r *Registry) RemoveIf(url string, task *types.Task) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.tasks[url]; ok && cur == task {
		delete(r.tasks, url)
		return true
	}
	return false
}

// Update runs fn on task while holding the lock, provided url still maps to
// task. It returns the post-update copy and whether fn ran.
func (r *Registry) Update(url string, task *types.Task, fn func(*types.Task)) (types.TaskInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.tasks[url]
	if !ok || cur != task {
		return types.TaskInfo{}, false
	}
	fn(cur)
	return cur.Info(), true
}

// Lookup returns the live task for url. The pointer must only be mutated
// through Update.
func (r *Registry) Lookup(url string) (*types.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[url]
	return t, ok
}

// Drain removes and returns every task.
func (r *Registry) Drain() []*types.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*types.Task, 0, len(r.tasks))
	for url, t := range r.tasks {
		out = append(out, t)
		delete(r.tasks, url)
	}
	return out
}

// Snapshot returns a consistent copy of every entry, oldest first.
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	entries := make([]Entry, 0, len(r.tasks))
	for url, t := range r.tasks {
		entries = append(entries, Entry{URL: url, Task: t.Info()})
	}
	r.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Task.StartedAt, entries[j].Task.StartedAt
		if a.Equal(b) {
			return entries[i].URL < entries[j].URL
		}
		return a.Before(b)
	})
	return entries
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
