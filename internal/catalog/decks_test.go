package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeDeckFile(t *testing.T, dir, filename string, deck deckFile) {
	t.Helper()
	data, err := json.Marshal(deck)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename+".json"), data, 0o644))
}

func TestDeckStoreResolvesThroughCatalog(t *testing.T) {
	dir := t.TempDir()
	catalogPath := writeCatalogFile(t, dir)
	c, err := Load(catalogPath, zaptest.NewLogger(t))
	require.NoError(t, err)

	writeDeckFile(t, dir, "burn", deckFile{
		Name:      "Burn",
		Main:      []string{"lightning_bolt", "lightning_bolt", "unknown_card"},
		Sideboard: []string{"grizzly_bears"},
	})

	ds := NewDeckStore(dir, c, zaptest.NewLogger(t))
	deck, err := ds.Deck("burn")
	require.NoError(t, err)

	assert.Equal(t, "Burn", deck.Name)
	require.Len(t, deck.Main, 3)
	assert.Equal(t, "Lightning Bolt", deck.Main[0].Name)

	// Unknown ids still resolve to a playable card.
	assert.Equal(t, "Unknown Card", deck.Main[2].Name)
	assert.Equal(t, "unknown_card", deck.Main[2].CatalogID)

	require.Len(t, deck.Sideboard, 1)
	assert.Equal(t, "2", deck.Sideboard[0].Power)
}

func TestDeckStoreNormalizedFilenameFallback(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(filepath.Join(dir, "absent.json"), zaptest.NewLogger(t))
	require.NoError(t, err)

	writeDeckFile(t, dir, "mono_red", deckFile{Main: []string{"mountain"}})

	ds := NewDeckStore(dir, c, zaptest.NewLogger(t))
	deck, err := ds.Deck("Mono Red")
	require.NoError(t, err)
	assert.Equal(t, "Mono Red", deck.Name)
	require.Len(t, deck.Main, 1)
	assert.Equal(t, "Mountain", deck.Main[0].Name)
}

func TestDeckStoreMissingDeck(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(filepath.Join(dir, "absent.json"), zaptest.NewLogger(t))
	require.NoError(t, err)

	ds := NewDeckStore(dir, c, zaptest.NewLogger(t))
	_, err = ds.Deck("nope")
	assert.Error(t, err)
}
