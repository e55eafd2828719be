package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/magicworkstation/workstation-server-go/internal/game/counters"
)

// Default position for cards that enter the battlefield without explicit
// coordinates (tokens, cards moved from hidden zones).
const (
	defaultBattlefieldX = 100.0
	defaultBattlefieldY = 100.0
)

// DefaultStartingLife is the life total players begin with unless the game
// was created with a different value.
const DefaultStartingLife = 20

// DefaultStartingHandSize is the number of cards drawn after a mulligan.
const DefaultStartingHandSize = 7

// MaxChatMessageLen caps individual chat entries; longer text is truncated.
const MaxChatMessageLen = 500

// MaxPlayers is the fixed number of player slots per game.
const MaxPlayers = 2

// Card is inert data plus state. Cards never enforce rules; any client may
// tap, flip, move, or annotate any card.
type Card struct {
	ID           string
	CatalogID    string // reference into the external card catalog
	Name         string
	OwnerID      string
	Tapped       bool
	FaceDown     bool
	AttachedToID string // battlefield-only host reference; empty if none
	Token        bool
	Power        string
	Toughness    string
	X            float64
	Y            float64
	Counters     *counters.Counters
}

// newID mints a globally-unique id. Ids are never reused within a game.
func newID() string {
	return uuid.NewString()
}

// NewCard mints a card instance with a fresh globally-unique id.
func NewCard(catalogID, name, ownerID string) *Card {
	return &Card{
		ID:        newID(),
		CatalogID: catalogID,
		Name:      name,
		OwnerID:   ownerID,
		Counters:  counters.NewCounters(),
	}
}

// NewToken mints a token-flagged card that lives on the battlefield.
func NewToken(name, ownerID, power, toughness string) *Card {
	card := NewCard("", name, ownerID)
	card.Token = true
	card.Power = power
	card.Toughness = toughness
	card.X = defaultBattlefieldX
	card.Y = defaultBattlefieldY
	return card
}

// DiceToken is a positioned die on the table. Value is nil while the die is
// still "rolling" on the wire; the server resolves it before publishing.
type DiceToken struct {
	ID      string
	OwnerID string
	Kind    string // e.g. "d6", "d20"
	X       float64
	Y       float64
	Value   *int
}

// TargetArrow is a transient visual pointer from one card to a card or player.
// Arrows never affect card ownership or zones.
type TargetArrow struct {
	ID         string
	OwnerID    string
	FromCardID string
	ToID       string // card id or player id
}

// ChatMessage is one append-only chat log entry.
type ChatMessage struct {
	PlayerID   string
	PlayerName string
	Text       string
	Timestamp  time.Time
}

// Player holds a display name, an unbounded life total, and one zone of each
// kind.
type Player struct {
	ID    string
	Name  string
	Life  int
	Zones map[ZoneType]*Zone
}

// NewPlayer creates a player with empty zones.
func NewPlayer(name string, startingLife int) *Player {
	p := &Player{
		ID:    newID(),
		Name:  name,
		Life:  startingLife,
		Zones: make(map[ZoneType]*Zone, len(ZoneTypes)),
	}
	for _, zt := range ZoneTypes {
		p.Zones[zt] = NewZone(zt, p.ID)
	}
	return p
}

// FindCard returns the card and its zone, or nil if the player does not own it.
func (p *Player) FindCard(cardID string) (*Card, *Zone) {
	for _, zt := range ZoneTypes {
		zone := p.Zones[zt]
		if card := zone.FindByID(cardID); card != nil {
			return card, zone
		}
	}
	return nil, nil
}

// Game is the authoritative state of one match. It performs no rules
// validation of its own; all mutation flows through the Processor.
type Game struct {
	ID             string
	Name           string
	CreatedAt      time.Time
	Players        map[string]*Player
	PlayerOrder    []string // join order; at most MaxPlayers entries
	ActivePlayerID string
	TurnNumber     int
	CurrentPhase   Phase
	Dice           map[string]*DiceToken
	Arrows         map[string]*TargetArrow
	Chat           []ChatMessage
}

// NewGame creates an empty game shell with turn one at untap.
func NewGame(name string) *Game {
	return &Game{
		ID:           newID(),
		Name:         name,
		CreatedAt:    time.Now().UTC(),
		Players:      make(map[string]*Player),
		PlayerOrder:  make([]string, 0, MaxPlayers),
		TurnNumber:   1,
		CurrentPhase: PhaseUntap,
		Dice:         make(map[string]*DiceToken),
		Arrows:       make(map[string]*TargetArrow),
		Chat:         make([]ChatMessage, 0),
	}
}

// AddPlayer fills the next free slot. The first player to join becomes the
// active player.
func (g *Game) AddPlayer(p *Player) error {
	if len(g.PlayerOrder) >= MaxPlayers {
		return ErrCapacityExceeded
	}
	g.Players[p.ID] = p
	g.PlayerOrder = append(g.PlayerOrder, p.ID)
	if g.ActivePlayerID == "" {
		g.ActivePlayerID = p.ID
	}
	return nil
}

// HasPlayer reports whether playerID is a participant of this game.
func (g *Game) HasPlayer(playerID string) bool {
	_, ok := g.Players[playerID]
	return ok
}

// OtherPlayerID returns the opponent of playerID, or the empty string when the
// second slot is still open.
func (g *Game) OtherPlayerID(playerID string) string {
	for _, id := range g.PlayerOrder {
		if id != playerID {
			return id
		}
	}
	return ""
}

// FindCard searches every player's zones for the card.
func (g *Game) FindCard(cardID string) (*Card, *Player, *Zone) {
	for _, id := range g.PlayerOrder {
		player := g.Players[id]
		if card, zone := player.FindCard(cardID); card != nil {
			return card, player, zone
		}
	}
	return nil, nil, nil
}

// CardIDs returns the set of every card id currently in the game.
func (g *Game) CardIDs() map[string]string {
	ids := make(map[string]string)
	for _, pid := range g.PlayerOrder {
		for _, zt := range ZoneTypes {
			for _, card := range g.Players[pid].Zones[zt].Cards {
				ids[card.ID] = card.OwnerID
			}
		}
	}
	return ids
}

// attachmentChainTerminates walks attached_to_id pointers starting at cardID
// and reports whether the walk ends without revisiting a card. A pointer to a
// card that no longer exists (a dangling host) terminates the chain.
func (g *Game) attachmentChainTerminates(cardID string) bool {
	seen := make(map[string]bool)
	current := cardID
	for current != "" {
		if seen[current] {
			return false
		}
		seen[current] = true
		card, _, _ := g.FindCard(current)
		if card == nil {
			return true
		}
		current = card.AttachedToID
	}
	return true
}
