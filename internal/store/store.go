// Package store persists game snapshots. Persistence is at-least-once and
// decoupled from the in-memory state: a write that loses a race with a newer
// version is simply discarded.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports that no snapshot exists for the requested game.
var ErrNotFound = errors.New("snapshot not found")

// Record is one durable snapshot row: the latest published state of a game
// plus the metadata the lobby listing needs without decoding the state blob.
type Record struct {
	GameID      string
	Name        string
	Version     uint64
	PlayerNames []string
	State       []byte
	UpdatedAt   time.Time
}

// SnapshotStore is the durable snapshot repository. Save keeps only the
// newest version per game; LoadAll feeds session rehydration after a restart.
type SnapshotStore interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, gameID string) (*Record, error)
	LoadAll(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, gameID string) error
	Close()
}
