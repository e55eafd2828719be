package game

// ZoneType identifies one of the fixed per-player zones.
type ZoneType string

const (
	ZoneLibrary     ZoneType = "library"
	ZoneHand        ZoneType = "hand"
	ZoneBattlefield ZoneType = "battlefield"
	ZoneGraveyard   ZoneType = "graveyard"
	ZoneExile       ZoneType = "exile"
	ZoneSideboard   ZoneType = "sideboard"
)

// ZoneTypes lists every zone a player owns, in canonical order.
var ZoneTypes = []ZoneType{
	ZoneLibrary,
	ZoneHand,
	ZoneBattlefield,
	ZoneGraveyard,
	ZoneExile,
	ZoneSideboard,
}

// ValidZoneType reports whether the given name is a known zone.
func ValidZoneType(zt ZoneType) bool {
	switch zt {
	case ZoneLibrary, ZoneHand, ZoneBattlefield, ZoneGraveyard, ZoneExile, ZoneSideboard:
		return true
	default:
		return false
	}
}

// Zone is an ordered container of cards. Library and hand are order-significant,
// battlefield cards carry explicit coordinates instead, and the remaining zones
// treat order as incidental.
type Zone struct {
	Type     ZoneType
	PlayerID string
	Cards    []*Card
}

// NewZone creates an empty zone owned by the given player.
func NewZone(zt ZoneType, playerID string) *Zone {
	return &Zone{
		Type:     zt,
		PlayerID: playerID,
		Cards:    make([]*Card, 0),
	}
}

// Add appends a card, or splices it at index when index is in range.
func (z *Zone) Add(card *Card, index int) {
	if index < 0 || index >= len(z.Cards) {
		z.Cards = append(z.Cards, card)
		return
	}
	z.Cards = append(z.Cards, nil)
	copy(z.Cards[index+1:], z.Cards[index:])
	z.Cards[index] = card
}

// RemoveByID removes and returns the card with the given id, or nil.
func (z *Zone) RemoveByID(cardID string) *Card {
	for i, card := range z.Cards {
		if card.ID == cardID {
			z.Cards = append(z.Cards[:i], z.Cards[i+1:]...)
			return card
		}
	}
	return nil
}

// FindByID returns the card with the given id, or nil.
func (z *Zone) FindByID(cardID string) *Card {
	for _, card := range z.Cards {
		if card.ID == cardID {
			return card
		}
	}
	return nil
}

// IndexOf returns the position of the card in the zone, or -1.
func (z *Zone) IndexOf(cardID string) int {
	for i, card := range z.Cards {
		if card.ID == cardID {
			return i
		}
	}
	return -1
}

// Size returns the number of cards in the zone.
func (z *Zone) Size() int {
	return len(z.Cards)
}
