package history

import (
	"sync"

	"github.com/doeshing/aish/internal/domain"
)

// Ring is the executor's append-only, capacity-bounded command history.
// The oldest entry is evicted first once the ring is full.
type Ring struct {
	mu       sync.Mutex
	entries  []domain.HistoryEntry
	capacity int
}

// NewRing builds a ring with the given capacity (default when <= 0).
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = domain.DefaultHistorySize
	}
	return &Ring{capacity: capacity}
}

// Append records an entry, evicting the oldest when full.
func (r *Ring) Append(entry domain.HistoryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) >= r.capacity {
		r.entries = r.entries[1:]
	}
	r.entries = append(r.entries, entry)
}

// Entries returns a copy, oldest first.
func (r *Ring) Entries() []domain.HistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.HistoryEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len reports the number of stored entries.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
