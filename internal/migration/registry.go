package migration

import (
	"cmp"
	"iter"
	"slices"
)

type registryEntry struct {
	version int
	step    Step
}

// Registry maps version numbers to steps and iterates them in version order.
// It is populated at startup and must not be mutated while a run is in
// progress.
type Registry struct {
	entries []registryEntry // sorted by version, unique
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register associates step with version, replacing any existing step.
func (r *Registry) Register(version int, step Step) {
	i, found := slices.BinarySearchFunc(r.entries, version, func(e registryEntry, v int) int {
		return cmp.Compare(e.version, v)
	})
	if found {
		r.entries[i].step = step
		return
	}
	r.entries = slices.Insert(r.entries, i, registryEntry{version: version, step: step})
}

// Len returns the number of registered steps.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Versions returns the registered versions in ascending order.
func (r *Registry) Versions() []int {
	versions := make([]int, len(r.entries))
	for i, e := range r.entries {
		versions[i] = e.version
	}
	return versions
}

// Ascending yields (version, step) pairs in increasing version order.
func (r *Registry) Ascending() iter.Seq2[int, Step] {
	return func(yield func(int, Step) bool) {
		for _, e := range r.entries {
			if !yield(e.version, e.step) {
				return
			}
		}
	}
}

// Descending yields (version, step) pairs in decreasing version order.
func (r *Registry) Descending() iter.Seq2[int, Step] {
	return func(yield func(int, Step) bool) {
		for i := len(r.entries) - 1; i >= 0; i-- {
			if !yield(r.entries[i].version, r.entries[i].step) {
				return
			}
		}
	}
}
