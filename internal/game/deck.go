package game

// DeckCard is one entry of a resolved deck list: a catalog reference plus the
// display fields the engine copies onto minted card instances.
type DeckCard struct {
	CatalogID string
	Name      string
	Power     string
	Toughness string
}

// DeckList is a named deck resolved against the card catalog.
type DeckList struct {
	Name      string
	Main      []DeckCard
	Sideboard []DeckCard
}

// DeckSource resolves deck names to deck lists. The catalog package provides
// the file-backed implementation; tests supply fixtures.
type DeckSource interface {
	Deck(name string) (*DeckList, error)
}

// loadDeck replaces the player's library and sideboard with freshly minted
// card instances from the named deck, then shuffles the library. This is the
// bulk insert of the card lifecycle; the discarded instances are the only
// cards ever dropped outside of game deletion.
func (p *Processor) loadDeck(player *Player, action Action, outcome *Outcome) (*Outcome, error) {
	var payload loadDeckPayload
	if err := decodePayload(action, &payload); err != nil {
		return nil, err
	}
	if p.decks == nil {
		return nil, notFoundf("deck %s", payload.DeckName)
	}
	deck, err := p.decks.Deck(payload.DeckName)
	if err != nil {
		return nil, notFoundf("deck %s: %v", payload.DeckName, err)
	}

	library := player.Zones[ZoneLibrary]
	sideboard := player.Zones[ZoneSideboard]
	library.Cards = library.Cards[:0]
	sideboard.Cards = sideboard.Cards[:0]

	for _, entry := range deck.Main {
		library.Add(p.mintDeckCard(entry, player.ID), -1)
	}
	for _, entry := range deck.Sideboard {
		sideboard.Add(p.mintDeckCard(entry, player.ID), -1)
	}
	p.shuffleLibrary(player)

	outcome.Loaded = len(deck.Main) + len(deck.Sideboard)
	return outcome, nil
}

func (p *Processor) mintDeckCard(entry DeckCard, ownerID string) *Card {
	card := NewCard(entry.CatalogID, entry.Name, ownerID)
	card.Power = entry.Power
	card.Toughness = entry.Toughness
	return card
}
