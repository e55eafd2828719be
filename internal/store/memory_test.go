package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(gameID string, version uint64) Record {
	return Record{
		GameID:      gameID,
		Name:        "Test Game",
		Version:     version,
		PlayerNames: []string{"Alice", "Bob"},
		State:       []byte(`{"game_id":"` + gameID + `"}`),
		UpdatedAt:   time.Now().UTC(),
	}
}

func TestMemoryStoreSaveLoad(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, testRecord("g1", 1)))
	rec, err := m.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.Version)
	assert.Equal(t, []string{"Alice", "Bob"}, rec.PlayerNames)

	_, err = m.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreIgnoresStaleVersion(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, testRecord("g1", 5)))
	require.NoError(t, m.Save(ctx, testRecord("g1", 3)))

	rec, err := m.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), rec.Version)
}

func TestMemoryStoreLoadAllOrdered(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, m.Save(ctx, testRecord(id, 1)))
	}
	records, err := m.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0].GameID)
	assert.Equal(t, "b", records[1].GameID)
	assert.Equal(t, "c", records[2].GameID)
}

func TestMemoryStoreDelete(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, testRecord("g1", 1)))
	require.NoError(t, m.Delete(ctx, "g1"))
	_, err := m.Load(ctx, "g1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent game is fine.
	require.NoError(t, m.Delete(ctx, "g1"))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, testRecord("g1", 1)))
	rec, err := m.Load(ctx, "g1")
	require.NoError(t, err)
	rec.State[0] = 'X'
	rec.PlayerNames[0] = "Mallory"

	fresh, err := m.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, byte('{'), fresh.State[0])
	assert.Equal(t, "Alice", fresh.PlayerNames[0])
}
