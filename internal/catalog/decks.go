package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/magicworkstation/workstation-server-go/internal/game"
	"go.uber.org/zap"
)

// deckFile is the on-disk deck format: a name plus card-id lists.
type deckFile struct {
	Name      string   `json:"name"`
	Main      []string `json:"main"`
	Sideboard []string `json:"sideboard"`
}

// DeckStore resolves named decks against the catalog. It implements
// game.DeckSource. Deck files are cached after first read.
type DeckStore struct {
	dir     string
	catalog *Catalog
	logger  *zap.Logger

	mu    sync.Mutex
	cache map[string]*game.DeckList
}

// NewDeckStore creates a deck store reading from dir.
func NewDeckStore(dir string, c *Catalog, logger *zap.Logger) *DeckStore {
	return &DeckStore{
		dir:     dir,
		catalog: c,
		logger:  logger,
		cache:   make(map[string]*game.DeckList),
	}
}

// Deck loads the named deck, resolving each card id through the catalog.
// Unknown ids still mint cards - the name is reconstructed from the id - so a
// stale catalog never blocks a game.
func (ds *DeckStore) Deck(name string) (*game.DeckList, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if cached, ok := ds.cache[name]; ok {
		return cached, nil
	}

	raw, err := ds.readDeckFile(name)
	if err != nil {
		return nil, err
	}

	deck := &game.DeckList{Name: raw.Name}
	if deck.Name == "" {
		deck.Name = name
	}
	for _, cardID := range raw.Main {
		deck.Main = append(deck.Main, ds.resolve(cardID))
	}
	for _, cardID := range raw.Sideboard {
		deck.Sideboard = append(deck.Sideboard, ds.resolve(cardID))
	}

	ds.cache[name] = deck
	ds.logger.Debug("deck loaded",
		zap.String("deck", name),
		zap.Int("main", len(deck.Main)),
		zap.Int("sideboard", len(deck.Sideboard)),
	)
	return deck, nil
}

// readDeckFile tries the exact file name first, then the normalized form the
// deck-save path writes.
func (ds *DeckStore) readDeckFile(name string) (*deckFile, error) {
	paths := []string{
		filepath.Join(ds.dir, name+".json"),
		filepath.Join(ds.dir, NormalizeID(name)+".json"),
	}
	var lastErr error
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		var raw deckFile
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse deck %s: %w", path, err)
		}
		return &raw, nil
	}
	return nil, fmt.Errorf("deck %q: %w", name, lastErr)
}

// resolve maps a deck entry to the fields stamped onto minted cards.
func (ds *DeckStore) resolve(cardID string) game.DeckCard {
	if info, ok := ds.catalog.Lookup(cardID); ok {
		return game.DeckCard{
			CatalogID: cardID,
			Name:      info.Name,
			Power:     info.Power,
			Toughness: info.Toughness,
		}
	}
	// Recover by name search before giving up on metadata.
	displayName := NameFromID(cardID)
	if foundID, ok := ds.catalog.FindByName(displayName); ok {
		info, _ := ds.catalog.Lookup(foundID)
		return game.DeckCard{
			CatalogID: foundID,
			Name:      info.Name,
			Power:     info.Power,
			Toughness: info.Toughness,
		}
	}
	return game.DeckCard{CatalogID: cardID, Name: displayName}
}
