package session

import (
	"sync"

	"github.com/magicworkstation/workstation-server-go/internal/game"
)

// History keeps a bounded window of recent published snapshots for a single
// game, newest last. It backs debugging and replay inspection; the durable
// store only ever holds the latest version.
type History struct {
	mu       sync.RWMutex
	capacity int
	states   []*game.Snapshot
}

// NewHistory creates a history ring keeping at most capacity snapshots.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		capacity: capacity,
		states:   make([]*game.Snapshot, 0, capacity),
	}
}

// Record appends a snapshot, evicting the oldest entry once full.
func (h *History) Record(snapshot *game.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.states) == h.capacity {
		copy(h.states, h.states[1:])
		h.states = h.states[:len(h.states)-1]
	}
	h.states = append(h.states, snapshot)
}

// Latest returns the most recent snapshot, or nil when empty.
func (h *History) Latest() *game.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.states) == 0 {
		return nil
	}
	return h.states[len(h.states)-1]
}

// At returns the snapshot with the given version, or nil if it has been
// evicted or never existed.
func (h *History) At(version uint64) *game.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i := len(h.states) - 1; i >= 0; i-- {
		if h.states[i].Version == version {
			return h.states[i]
		}
	}
	return nil
}

// Size returns the number of retained snapshots.
func (h *History) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.states)
}
