package orchestrator

import (
	"path/filepath"
	"sync"

	"github.com/lsproxy-dev/lsproxy/src/language"
	"github.com/lsproxy-dev/lsproxy/src/model"
)

// WorkerRegistry is a Language -> WorkerDescriptor mapping, owned
// exclusively by the Orchestrator. At most one entry exists per language
// at any time.
type WorkerRegistry struct {
	mu       sync.RWMutex
	memstore map[language.Language]*model.WorkerDescriptor
}

// NewWorkerRegistry constructs an empty WorkerRegistry.
func NewWorkerRegistry() *WorkerRegistry {
	return &WorkerRegistry{
		memstore: make(map[language.Language]*model.WorkerDescriptor),
	}
}

// Get returns the descriptor for lang, if any.
func (r *WorkerRegistry) Get(lang language.Language) (*model.WorkerDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.memstore[lang]
	return d, ok
}

// Set inserts or replaces the descriptor for its language.
func (r *WorkerRegistry) Set(d *model.WorkerDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memstore[d.Language] = d
}

// Delete removes the entry for lang, if present.
func (r *WorkerRegistry) Delete(lang language.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.memstore, lang)
}

// SetState updates the state of the entry for lang in place in the map,
// by swapping in a shallow copy of the descriptor rather than mutating
// the existing one. Callers elsewhere (HTTP handlers, the dispatcher)
// hold descriptor pointers returned by Get/All and read State without
// taking this registry's lock; copy-on-write keeps those reads safe
// since a descriptor, once handed out, is never mutated after the fact.
func (r *WorkerRegistry) SetState(lang language.Language, state model.WorkerState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.memstore[lang]
	if !ok {
		return
	}
	next := *d
	next.State = state
	r.memstore[lang] = &next
}

// All returns a snapshot of every registered descriptor.
func (r *WorkerRegistry) All() []*model.WorkerDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.WorkerDescriptor, 0, len(r.memstore))
	for _, d := range r.memstore {
		out = append(out, d)
	}
	return out
}

// ForFile looks up the worker registered for the language implied by
// path's extension, independent of whether path exists on disk.
func (r *WorkerRegistry) ForFile(path string) (*model.WorkerDescriptor, bool) {
	lang, ok := language.ForExtension(filepath.Ext(path))
	if !ok {
		return nil, false
	}
	return r.Get(lang)
}
