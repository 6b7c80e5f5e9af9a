// Package dedupe provides best-effort at-most-once admission for call events.
package dedupe

import "sync"

// DefaultCapacity bounds the registry to roughly the platform's webhook
// retry horizon.
const DefaultCapacity = 500

// Registry remembers the last N processed call identifiers. Insertion order
// is kept so that the single oldest entry is evicted when the registry is
// full. State lives for the process lifetime only.
//
// This is explicitly best-effort, not a correctness guarantee: two
// near-simultaneous deliveries of the same callID can both pass
// ShouldProcess before either calls MarkProcessed. Downstream idempotency
// (the record synchronizer) must tolerate the duplicate. MarkProcessed is
// invoked only after the external write succeeded, so an event whose side
// effects never happened is not silently dropped on redelivery.
type Registry struct {
	mu    sync.Mutex
	cap   int
	seen  map[string]struct{}
	order []string
}

// NewRegistry creates a registry holding at most capacity entries.
// Non-positive capacity falls back to DefaultCapacity.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		cap:  capacity,
		seen: make(map[string]struct{}, capacity),
	}
}

// ShouldProcess reports whether the call has not been processed yet. An empty
// callID always passes: with no identifier there is nothing to dedupe on.
func (r *Registry) ShouldProcess(callID string) bool {
	if callID == "" {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, dup := r.seen[callID]
	return !dup
}

// MarkProcessed records the call as processed, evicting the oldest entry
// when the registry is full. Idempotent.
func (r *Registry) MarkProcessed(callID string) {
	if callID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.seen[callID]; dup {
		return
	}
	if len(r.order) >= r.cap {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.seen, oldest)
	}
	r.seen[callID] = struct{}{}
	r.order = append(r.order, callID)
}

// Len returns the current number of remembered call identifiers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
