package session

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/magicworkstation/workstation-server-go/internal/game"
	"github.com/magicworkstation/workstation-server-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestSession(t *testing.T, snapshots store.SnapshotStore) (*Session, *game.Player, *game.Player) {
	t.Helper()
	g := game.NewGame("Test Game")
	alice := game.NewPlayer("Alice", 20)
	bob := game.NewPlayer("Bob", 20)
	require.NoError(t, g.AddPlayer(alice))
	require.NoError(t, g.AddPlayer(bob))

	proc := game.NewProcessor(rand.New(rand.NewSource(11)), nil, 7)
	s := NewSession(g, 0, proc, snapshots, Options{StartingLife: 20, HistorySize: 16}, zaptest.NewLogger(t))
	s.Start()
	t.Cleanup(s.Close)
	return s, alice, bob
}

func chatAction(t *testing.T, text string) game.Action {
	t.Helper()
	data, err := json.Marshal(map[string]string{"message": text})
	require.NoError(t, err)
	return game.Action{Type: game.ActionSendChat, Data: data}
}

func TestSubmitBumpsVersion(t *testing.T) {
	s, alice, _ := newTestSession(t, nil)
	ctx := context.Background()

	first, _, err := s.Submit(ctx, alice.ID, chatAction(t, "one"))
	require.NoError(t, err)
	second, _, err := s.Submit(ctx, alice.ID, chatAction(t, "two"))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first.Version)
	assert.Equal(t, uint64(2), second.Version)
	assert.Len(t, second.Chat, 2)
}

func TestSubmitRejectionKeepsVersion(t *testing.T) {
	s, alice, _ := newTestSession(t, nil)
	ctx := context.Background()

	before, err := s.Snapshot(ctx)
	require.NoError(t, err)

	_, _, err = s.Submit(ctx, alice.ID, game.Action{Type: "bogus"})
	require.ErrorIs(t, err, game.ErrInvalidAction)

	after, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	// The cached snapshot pointer itself is unchanged.
	assert.Same(t, before, after)
}

func TestSubmitNonParticipant(t *testing.T) {
	s, _, _ := newTestSession(t, nil)
	_, _, err := s.Submit(context.Background(), "stranger", chatAction(t, "hi"))
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestConcurrentSubmitsAllApply(t *testing.T) {
	s, alice, bob := newTestSession(t, nil)
	ctx := context.Background()

	const perPlayer = 50
	var wg sync.WaitGroup
	for _, pid := range []string{alice.ID, bob.ID} {
		wg.Add(1)
		go func(pid string) {
			defer wg.Done()
			for i := 0; i < perPlayer; i++ {
				_, _, err := s.Submit(ctx, pid, chatAction(t, fmt.Sprintf("%s %d", pid, i)))
				assert.NoError(t, err)
			}
		}(pid)
	}
	wg.Wait()

	snapshot, err := s.Snapshot(ctx)
	require.NoError(t, err)
	// No update is lost and the version count matches the applied actions.
	assert.Equal(t, uint64(2*perPlayer), snapshot.Version)
	assert.Len(t, snapshot.Chat, 2*perPlayer)
}

func TestPublisherReceivesEveryCommit(t *testing.T) {
	g := game.NewGame("Pub Game")
	alice := game.NewPlayer("Alice", 20)
	require.NoError(t, g.AddPlayer(alice))
	proc := game.NewProcessor(rand.New(rand.NewSource(1)), nil, 7)

	var mu sync.Mutex
	var versions []uint64
	s := NewSession(g, 0, proc, nil, Options{}, zaptest.NewLogger(t))
	s.SetPublisher(func(gameID string, snapshot *game.Snapshot) {
		mu.Lock()
		versions = append(versions, snapshot.Version)
		mu.Unlock()
	})
	s.Start()
	defer s.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _, err := s.Submit(ctx, alice.ID, chatAction(t, "msg"))
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{1, 2, 3}, versions)
}

func TestJoinSecondPlayer(t *testing.T) {
	g := game.NewGame("Open Game")
	require.NoError(t, g.AddPlayer(game.NewPlayer("Alice", 20)))
	proc := game.NewProcessor(rand.New(rand.NewSource(1)), nil, 7)
	s := NewSession(g, 0, proc, nil, Options{StartingLife: 20}, zaptest.NewLogger(t))
	s.Start()
	defer s.Close()

	ctx := context.Background()
	playerID, snapshot, err := s.Join(ctx, "Bob")
	require.NoError(t, err)
	assert.Len(t, snapshot.PlayerOrder, 2)
	assert.Equal(t, "Bob", snapshot.Players[playerID].Name)

	member, err := s.Participant(ctx, playerID)
	require.NoError(t, err)
	assert.True(t, member)

	// Third seat does not exist.
	_, _, err = s.Join(ctx, "Carol")
	assert.ErrorIs(t, err, game.ErrCapacityExceeded)
}

func TestSnapshotPersistedToStore(t *testing.T) {
	mem := store.NewMemoryStore()
	s, alice, _ := newTestSession(t, mem)
	ctx := context.Background()

	snapshot, _, err := s.Submit(ctx, alice.ID, chatAction(t, "persist me"))
	require.NoError(t, err)

	// Persistence trails the commit; poll briefly.
	require.Eventually(t, func() bool {
		rec, err := mem.Load(ctx, s.GameID())
		return err == nil && rec.Version == snapshot.Version
	}, 2*time.Second, 10*time.Millisecond)

	rec, err := mem.Load(ctx, s.GameID())
	require.NoError(t, err)
	decoded, err := game.DecodeSnapshot(rec.State)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Checksum(), decoded.Checksum())
	assert.Equal(t, []string{"Alice", "Bob"}, rec.PlayerNames)
}

func TestPersistWritesCurrentSnapshot(t *testing.T) {
	mem := store.NewMemoryStore()
	s, alice, _ := newTestSession(t, mem)
	ctx := context.Background()

	snapshot, err := s.Persist(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), snapshot.Version)

	require.Eventually(t, func() bool {
		_, err := mem.Load(ctx, s.GameID())
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	// A commit racing the creation persist can never be displaced by it:
	// both flow through the same serialization goroutine, so the store ends
	// up at the newest version.
	submitted, _, err := s.Submit(ctx, alice.ID, chatAction(t, "newer"))
	require.NoError(t, err)
	_, err = s.Persist(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		rec, err := mem.Load(ctx, s.GameID())
		return err == nil && rec.Version == submitted.Version
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubmitAfterClose(t *testing.T) {
	s, alice, _ := newTestSession(t, nil)
	s.Close()
	_, _, err := s.Submit(context.Background(), alice.ID, chatAction(t, "late"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestHistoryTracksRecentVersions(t *testing.T) {
	s, alice, _ := newTestSession(t, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := s.Submit(ctx, alice.ID, chatAction(t, "msg"))
		require.NoError(t, err)
	}

	h := s.History()
	assert.Equal(t, uint64(5), h.Latest().Version)
	at := h.At(3)
	require.NotNil(t, at)
	assert.Len(t, at.Chat, 3)
}
