package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is the in-process SnapshotStore used when no database is
// configured and throughout the tests. State survives for the lifetime of
// the process only.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
	}
}

// Save keeps the record unless a newer version is already present.
func (m *MemoryStore) Save(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.records[rec.GameID]; ok && existing.Version > rec.Version {
		return nil
	}
	m.records[rec.GameID] = cloneRecord(rec)
	return nil
}

// Load returns the latest record for a game.
func (m *MemoryStore) Load(_ context.Context, gameID string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneRecord(rec)
	return &out, nil
}

// LoadAll returns every stored record, ordered by game id.
func (m *MemoryStore) LoadAll(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameID < out[j].GameID })
	return out, nil
}

// Delete removes a game's record. Deleting an absent game is not an error.
func (m *MemoryStore) Delete(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, gameID)
	return nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() {}

func cloneRecord(rec Record) Record {
	out := rec
	out.PlayerNames = append([]string{}, rec.PlayerNames...)
	out.State = append([]byte{}, rec.State...)
	return out
}
