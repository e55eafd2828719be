package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPopulatedGame(t *testing.T) *Game {
	t.Helper()
	g, alice, bob := newTestGame(t)
	proc := NewProcessor(rand.New(rand.NewSource(1)), nil, 7)

	count := 3
	_, err := proc.Apply(g, alice.ID, Action{
		Type: ActionDraw,
		Data: payload(t, map[string]any{"count": count}),
	})
	require.NoError(t, err)

	host := battlefieldCard(t, g, alice, "Forest")
	aura := battlefieldCard(t, g, alice, "Wild Growth")
	aura.AttachedToID = host.ID
	aura.Counters.Adjust("+1/+1", 2, false)
	host.Tapped = true

	_, err = proc.Apply(g, bob.ID, Action{
		Type: ActionCreateDie,
		Data: payload(t, map[string]any{"kind": "d6", "x": 5.0, "y": 5.0}),
	})
	require.NoError(t, err)
	_, err = proc.Apply(g, bob.ID, Action{
		Type: ActionSendChat,
		Data: payload(t, map[string]any{"message": "good luck"}),
	})
	require.NoError(t, err)
	return g
}

func TestBuildSnapshotIsDeepCopy(t *testing.T) {
	g := buildPopulatedGame(t)
	s := BuildSnapshot(g, 7)

	require.Equal(t, uint64(7), s.Version)
	before := s.Checksum()

	// Mutating the game must not reach into an already built snapshot.
	alice := g.Players[g.PlayerOrder[0]]
	alice.Life = 1
	for _, c := range alice.Zones[ZoneBattlefield].Cards {
		c.Tapped = false
		c.Counters.Adjust("+1/+1", 5, false)
	}
	g.Chat[0].Text = "edited"

	assert.Equal(t, before, s.Checksum())
}

func TestSnapshotRoundtrip(t *testing.T) {
	g := buildPopulatedGame(t)
	s := BuildSnapshot(g, 3)

	restored := FromSnapshot(s)
	s2 := BuildSnapshot(restored, 3)
	assert.Equal(t, s.Checksum(), s2.Checksum())

	// Zone ordering survives the roundtrip.
	alice := restored.Players[s.PlayerOrder[0]]
	require.Equal(t, len(s.Players[alice.ID].Zones[string(ZoneHand)]), alice.Zones[ZoneHand].Size())
	for i, cv := range s.Players[alice.ID].Zones[string(ZoneHand)] {
		assert.Equal(t, cv.ID, alice.Zones[ZoneHand].Cards[i].ID)
	}
}

func TestEncodeSnapshotStable(t *testing.T) {
	g := buildPopulatedGame(t)
	s := BuildSnapshot(g, 9)

	first, err := EncodeSnapshot(s)
	require.NoError(t, err)
	second, err := EncodeSnapshot(s)
	require.NoError(t, err)
	// Byte-identical encoding is what lets reconnecting clients verify they
	// missed nothing.
	assert.Equal(t, first, second)

	decoded, err := DecodeSnapshot(first)
	require.NoError(t, err)
	assert.Equal(t, s.Checksum(), decoded.Checksum())
}

func TestChecksumDetectsChange(t *testing.T) {
	g := buildPopulatedGame(t)
	a := BuildSnapshot(g, 1)

	alice := g.Players[g.PlayerOrder[0]]
	alice.Life -= 3
	b := BuildSnapshot(g, 1)

	assert.NotEqual(t, a.Checksum(), b.Checksum())
}

func TestValidateSerializationRoundtrip(t *testing.T) {
	g := buildPopulatedGame(t)
	s := BuildSnapshot(g, 4)
	assert.NoError(t, ValidateSerializationRoundtrip(s))
}

func TestAttachmentChainTermination(t *testing.T) {
	g, alice, _ := newTestGame(t)
	a := battlefieldCard(t, g, alice, "A")
	b := battlefieldCard(t, g, alice, "B")
	a.AttachedToID = b.ID
	b.AttachedToID = "long-gone"

	// A dangling host reference counts as a terminated chain.
	assert.True(t, g.attachmentChainTerminates(a.ID))
}

func TestAddPlayerCapacity(t *testing.T) {
	g := NewGame("full")
	require.NoError(t, g.AddPlayer(NewPlayer("One", 20)))
	require.NoError(t, g.AddPlayer(NewPlayer("Two", 20)))
	err := g.AddPlayer(NewPlayer("Three", 20))
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Len(t, g.PlayerOrder, 2)
}
