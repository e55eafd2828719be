package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeckSource struct {
	decks map[string]*DeckList
}

func (f *fakeDeckSource) Deck(name string) (*DeckList, error) {
	deck, ok := f.decks[name]
	if !ok {
		return nil, notFoundf("deck %s", name)
	}
	return deck, nil
}

func burnDeck() *DeckList {
	deck := &DeckList{Name: "burn"}
	for i := 0; i < 20; i++ {
		deck.Main = append(deck.Main, DeckCard{CatalogID: "lightning_bolt", Name: "Lightning Bolt"})
	}
	for i := 0; i < 40; i++ {
		deck.Main = append(deck.Main, DeckCard{CatalogID: "mountain", Name: "Mountain"})
	}
	deck.Sideboard = append(deck.Sideboard, DeckCard{CatalogID: "smash_to_smithereens", Name: "Smash to Smithereens"})
	return deck
}

func TestLoadDeckFillsLibraryAndSideboard(t *testing.T) {
	g, alice, _ := newTestGame(t)
	decks := &fakeDeckSource{decks: map[string]*DeckList{"burn": burnDeck()}}
	proc := NewProcessor(rand.New(rand.NewSource(3)), decks, 7)

	outcome, err := proc.Apply(g, alice.ID, Action{
		Type: ActionLoadDeck,
		Data: payload(t, map[string]any{"deckName": "burn"}),
	})
	require.NoError(t, err)
	assert.Equal(t, 61, outcome.Loaded)
	assert.Equal(t, 60, alice.Zones[ZoneLibrary].Size())
	assert.Equal(t, 1, alice.Zones[ZoneSideboard].Size())

	// Minted instances carry fresh unique ids.
	seen := map[string]bool{}
	for _, c := range alice.Zones[ZoneLibrary].Cards {
		require.False(t, seen[c.ID])
		seen[c.ID] = true
		assert.Equal(t, alice.ID, c.OwnerID)
	}
}

func TestLoadDeckReplacesPreviousLibrary(t *testing.T) {
	g, alice, _ := newTestGame(t)
	decks := &fakeDeckSource{decks: map[string]*DeckList{"burn": burnDeck()}}
	proc := NewProcessor(rand.New(rand.NewSource(3)), decks, 7)

	stale := alice.Zones[ZoneLibrary].Cards[0].ID
	_, err := proc.Apply(g, alice.ID, Action{
		Type: ActionLoadDeck,
		Data: payload(t, map[string]any{"deckName": "burn"}),
	})
	require.NoError(t, err)

	card, _, _ := g.FindCard(stale)
	assert.Nil(t, card)
}

func TestLoadDeckUnknownName(t *testing.T) {
	g, alice, _ := newTestGame(t)
	decks := &fakeDeckSource{decks: map[string]*DeckList{}}
	proc := NewProcessor(rand.New(rand.NewSource(3)), decks, 7)

	_, err := proc.Apply(g, alice.ID, Action{
		Type: ActionLoadDeck,
		Data: payload(t, map[string]any{"deckName": "missing"}),
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 10, alice.Zones[ZoneLibrary].Size())
}

func TestLoadDeckWithoutSource(t *testing.T) {
	g, alice, _ := newTestGame(t)
	proc := newTestProcessor()

	_, err := proc.Apply(g, alice.ID, Action{
		Type: ActionLoadDeck,
		Data: payload(t, map[string]any{"deckName": "burn"}),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
