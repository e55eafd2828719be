package game

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// Outcome describes what a successfully applied action did, for the few
// actions whose effect size is not implied by the request (partial draws,
// deck loads, mass untaps).
type Outcome struct {
	Action   string
	Drawn    int
	Loaded   int
	Untapped int
}

// Processor applies one action at a time to a game state. It is a pure state
// transition: no I/O, no timers, and the caller-supplied random source makes
// shuffles and die rolls deterministic under test.
//
// The processor never checks an action against the game's actual rules.
// Tapping an opponent's card, attaching an Aura to a land, drawing during
// combat - all of it applies. Only broken references and malformed payloads
// are rejected, and a rejected action leaves the state untouched.
type Processor struct {
	rng              *rand.Rand
	decks            DeckSource
	startingHandSize int
	now              func() time.Time
}

// NewProcessor creates a processor. decks may be nil when deck loading is not
// wired (every load_deck then fails with not found).
func NewProcessor(rng *rand.Rand, decks DeckSource, startingHandSize int) *Processor {
	if startingHandSize <= 0 {
		startingHandSize = DefaultStartingHandSize
	}
	return &Processor{
		rng:              rng,
		decks:            decks,
		startingHandSize: startingHandSize,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Apply executes one action on behalf of playerID. On error the game state is
// guaranteed unmodified; every handler validates its references before the
// first mutation.
func (p *Processor) Apply(g *Game, playerID string, action Action) (*Outcome, error) {
	player, ok := g.Players[playerID]
	if !ok {
		return nil, notFoundf("player %s is not a participant", playerID)
	}

	outcome := &Outcome{Action: action.Type}

	switch action.Type {
	case ActionMoveCard:
		return outcome, p.moveCard(g, action)
	case ActionTapCard:
		return outcome, p.tapCard(g, action)
	case ActionToggleFace:
		return outcome, p.toggleFace(g, action)
	case ActionAttachCard:
		return outcome, p.attachCard(g, action)
	case ActionUnattach:
		return outcome, p.unattachCard(g, action)
	case ActionAddCounter:
		return outcome, p.addCounter(g, action)
	case ActionDraw:
		return p.draw(player, action, outcome)
	case ActionShuffle:
		p.shuffleLibrary(player)
		return outcome, nil
	case ActionMulligan:
		return p.mulligan(player, outcome)
	case ActionNextPhase:
		p.nextPhase(g)
		return outcome, nil
	case ActionNextTurn:
		p.nextTurn(g)
		return outcome, nil
	case ActionChangeLife:
		return outcome, p.changeLife(player, action)
	case ActionSetLife:
		return outcome, p.setLife(player, action)
	case ActionUntapAll:
		outcome.Untapped = p.untapAll(player)
		return outcome, nil
	case ActionCreateToken:
		return outcome, p.createToken(player, action)
	case ActionCreateDie:
		return outcome, p.createDie(g, player, action)
	case ActionMoveDie:
		return outcome, p.moveDie(g, action)
	case ActionRemoveDie:
		return outcome, p.removeDie(g, action)
	case ActionReorderHand:
		return outcome, p.reorderHand(g, action)
	case ActionCreateArrow:
		return outcome, p.createArrow(g, player, action)
	case ActionRemoveArrow:
		return outcome, p.removeArrow(g, action)
	case ActionSendChat:
		return outcome, p.sendChat(g, player, action)
	case ActionLoadDeck:
		return p.loadDeck(player, action, outcome)
	default:
		return nil, invalidActionf("unknown action type: %s", action.Type)
	}
}

// moveCard relocates a card to another of its owner's zones. Leaving the
// battlefield clears the card's attachment; entering it without coordinates
// keeps the card's last known position.
func (p *Processor) moveCard(g *Game, action Action) error {
	var payload moveCardPayload
	if err := decodePayload(action, &payload); err != nil {
		return err
	}
	if !ValidZoneType(payload.ToZone) {
		return invalidActionf("unknown zone %q", payload.ToZone)
	}
	card, owner, fromZone := g.FindCard(payload.CardID)
	if card == nil {
		return notFoundf("card %s", payload.CardID)
	}

	toZone := owner.Zones[payload.ToZone]
	fromZone.RemoveByID(card.ID)

	if fromZone.Type == ZoneBattlefield && toZone.Type != ZoneBattlefield {
		card.AttachedToID = ""
	}
	if toZone.Type == ZoneBattlefield && payload.X != nil && payload.Y != nil {
		card.X = *payload.X
		card.Y = *payload.Y
	}

	index := -1
	if payload.Index != nil {
		index = *payload.Index
	}
	toZone.Add(card, index)
	return nil
}

func (p *Processor) tapCard(g *Game, action Action) error {
	var payload cardPayload
	if err := decodePayload(action, &payload); err != nil {
		return err
	}
	card, _, _ := g.FindCard(payload.CardID)
	if card == nil {
		return notFoundf("card %s", payload.CardID)
	}
	card.Tapped = !card.Tapped
	return nil
}

func (p *Processor) toggleFace(g *Game, action Action) error {
	var payload cardPayload
	if err := decodePayload(action, &payload); err != nil {
		return err
	}
	card, _, _ := g.FindCard(payload.CardID)
	if card == nil {
		return notFoundf("card %s", payload.CardID)
	}
	card.FaceDown = !card.FaceDown
	return nil
}

// attachCard points a card at a host. The only rejections are self-reference,
// a missing target, and a would-be cycle, detected by walking the existing
// chain upward from the target before anything is mutated.
func (p *Processor) attachCard(g *Game, action Action) error {
	var payload attachPayload
	if err := decodePayload(action, &payload); err != nil {
		return err
	}
	card, _, _ := g.FindCard(payload.CardID)
	if card == nil {
		return notFoundf("card %s", payload.CardID)
	}
	if payload.TargetCardID == payload.CardID {
		return invalidAttachmentf("card %s cannot attach to itself", payload.CardID)
	}
	target, _, _ := g.FindCard(payload.TargetCardID)
	if target == nil {
		return invalidAttachmentf("target %s does not exist", payload.TargetCardID)
	}

	// Walk up from the target; finding the card itself means the new edge
	// would close a loop.
	seen := map[string]bool{}
	for current := target; current != nil; {
		if current.ID == payload.CardID {
			return invalidAttachmentf("attaching %s to %s would create a cycle",
				payload.CardID, payload.TargetCardID)
		}
		if seen[current.ID] {
			break
		}
		seen[current.ID] = true
		if current.AttachedToID == "" {
			break
		}
		current, _, _ = g.FindCard(current.AttachedToID)
	}

	card.AttachedToID = payload.TargetCardID
	return nil
}

func (p *Processor) unattachCard(g *Game, action Action) error {
	var payload cardPayload
	if err := decodePayload(action, &payload); err != nil {
		return err
	}
	card, _, _ := g.FindCard(payload.CardID)
	if card == nil {
		return notFoundf("card %s", payload.CardID)
	}
	card.AttachedToID = ""
	return nil
}

// addCounter adjusts the named counter on a card. Loyalty-style counters may
// go negative; every other kind is floored at zero.
func (p *Processor) addCounter(g *Game, action Action) error {
	var payload counterPayload
	if err := decodePayload(action, &payload); err != nil {
		return err
	}
	card, _, _ := g.FindCard(payload.CardID)
	if card == nil {
		return notFoundf("card %s", payload.CardID)
	}
	kind := payload.CounterType
	if kind == "" {
		kind = "counter"
	}
	delta := 1
	if payload.Delta != nil {
		delta = *payload.Delta
	}
	card.Counters.Adjust(kind, delta, kind == "loyalty")
	return nil
}

// draw moves up to count cards from the head of the library into the hand,
// preserving order. Running out is not an error; the outcome reports how many
// cards actually moved.
func (p *Processor) draw(player *Player, action Action, outcome *Outcome) (*Outcome, error) {
	var payload drawPayload
	if err := decodePayload(action, &payload); err != nil {
		return nil, err
	}
	count := 1
	if payload.Count != nil {
		count = *payload.Count
	}
	outcome.Drawn = p.drawCards(player, count)
	return outcome, nil
}

func (p *Processor) drawCards(player *Player, count int) int {
	library := player.Zones[ZoneLibrary]
	hand := player.Zones[ZoneHand]
	if count > len(library.Cards) {
		count = len(library.Cards)
	}
	if count <= 0 {
		return 0
	}
	drawn := library.Cards[:count]
	library.Cards = append([]*Card{}, library.Cards[count:]...)
	hand.Cards = append(hand.Cards, drawn...)
	return count
}

func (p *Processor) shuffleLibrary(player *Player) {
	library := player.Zones[ZoneLibrary]
	p.rng.Shuffle(len(library.Cards), func(i, j int) {
		library.Cards[i], library.Cards[j] = library.Cards[j], library.Cards[i]
	})
}

// mulligan returns the hand to the library, shuffles, and draws the configured
// starting hand size.
func (p *Processor) mulligan(player *Player, outcome *Outcome) (*Outcome, error) {
	library := player.Zones[ZoneLibrary]
	hand := player.Zones[ZoneHand]
	library.Cards = append(library.Cards, hand.Cards...)
	hand.Cards = hand.Cards[:0]
	p.shuffleLibrary(player)
	outcome.Drawn = p.drawCards(player, p.startingHandSize)
	return outcome, nil
}

// nextPhase advances through the fixed cycle. Cleanup does not wrap; leaving
// it requires next_turn.
func (p *Processor) nextPhase(g *Game) {
	if g.CurrentPhase == PhaseCleanup {
		return
	}
	g.CurrentPhase = NextPhase(g.CurrentPhase)
}

// nextTurn resets the phase, bumps the turn counter, and hands the turn to
// the other participant.
func (p *Processor) nextTurn(g *Game) {
	g.CurrentPhase = PhaseUntap
	g.TurnNumber++
	if other := g.OtherPlayerID(g.ActivePlayerID); other != "" {
		g.ActivePlayerID = other
	}
}

func (p *Processor) changeLife(player *Player, action Action) error {
	var payload lifePayload
	if err := decodePayload(action, &payload); err != nil {
		return err
	}
	player.Life += payload.Delta
	return nil
}

func (p *Processor) setLife(player *Player, action Action) error {
	var payload lifePayload
	if err := decodePayload(action, &payload); err != nil {
		return err
	}
	player.Life = payload.Total
	return nil
}

func (p *Processor) untapAll(player *Player) int {
	count := 0
	for _, card := range player.Zones[ZoneBattlefield].Cards {
		if card.Tapped {
			card.Tapped = false
			count++
		}
	}
	return count
}

func (p *Processor) createToken(player *Player, action Action) error {
	var payload tokenPayload
	if err := decodePayload(action, &payload); err != nil {
		return err
	}
	name := payload.Name
	if name == "" {
		name = "Token"
	}
	power, toughness := payload.Power, payload.Toughness
	if power == "" {
		power = "1"
	}
	if toughness == "" {
		toughness = "1"
	}
	token := NewToken(name, player.ID, power, toughness)
	player.Zones[ZoneBattlefield].Add(token, -1)
	return nil
}

// createDie places a die and resolves its value immediately. The visible
// "rolling" delay is a client-side animation over the resolved value.
func (p *Processor) createDie(g *Game, player *Player, action Action) error {
	var payload createDiePayload
	if err := decodePayload(action, &payload); err != nil {
		return err
	}
	sides, err := parseDieKind(payload.Kind)
	if err != nil {
		return err
	}
	value := p.rng.Intn(sides) + 1
	die := &DiceToken{
		ID:      newID(),
		OwnerID: player.ID,
		Kind:    payload.Kind,
		X:       payload.X,
		Y:       payload.Y,
		Value:   &value,
	}
	g.Dice[die.ID] = die
	return nil
}

func (p *Processor) moveDie(g *Game, action Action) error {
	var payload moveDiePayload
	if err := decodePayload(action, &payload); err != nil {
		return err
	}
	die, ok := g.Dice[payload.DieID]
	if !ok {
		return notFoundf("die %s", payload.DieID)
	}
	die.X = payload.X
	die.Y = payload.Y
	return nil
}

func (p *Processor) removeDie(g *Game, action Action) error {
	var payload removeDiePayload
	if err := decodePayload(action, &payload); err != nil {
		return err
	}
	if _, ok := g.Dice[payload.DieID]; !ok {
		return notFoundf("die %s", payload.DieID)
	}
	delete(g.Dice, payload.DieID)
	return nil
}

// reorderHand splices a card to a new index within its owner's hand.
func (p *Processor) reorderHand(g *Game, action Action) error {
	var payload reorderHandPayload
	if err := decodePayload(action, &payload); err != nil {
		return err
	}
	card, owner, zone := g.FindCard(payload.CardID)
	if card == nil {
		return notFoundf("card %s", payload.CardID)
	}
	if zone.Type != ZoneHand {
		return invalidActionf("card %s is not in a hand", payload.CardID)
	}
	hand := owner.Zones[ZoneHand]
	hand.RemoveByID(card.ID)
	index := payload.NewIndex
	if index < 0 {
		index = 0
	}
	if index >= len(hand.Cards) {
		index = -1 // append
	}
	hand.Add(card, index)
	return nil
}

func (p *Processor) createArrow(g *Game, player *Player, action Action) error {
	var payload arrowPayload
	if err := decodePayload(action, &payload); err != nil {
		return err
	}
	if card, _, _ := g.FindCard(payload.FromCardID); card == nil {
		return notFoundf("card %s", payload.FromCardID)
	}
	if !g.HasPlayer(payload.ToID) {
		if card, _, _ := g.FindCard(payload.ToID); card == nil {
			return notFoundf("arrow target %s", payload.ToID)
		}
	}
	arrow := &TargetArrow{
		ID:         newID(),
		OwnerID:    player.ID,
		FromCardID: payload.FromCardID,
		ToID:       payload.ToID,
	}
	g.Arrows[arrow.ID] = arrow
	return nil
}

func (p *Processor) removeArrow(g *Game, action Action) error {
	var payload removeArrowPayload
	if err := decodePayload(action, &payload); err != nil {
		return err
	}
	if _, ok := g.Arrows[payload.ArrowID]; !ok {
		return notFoundf("arrow %s", payload.ArrowID)
	}
	delete(g.Arrows, payload.ArrowID)
	return nil
}

func (p *Processor) sendChat(g *Game, player *Player, action Action) error {
	var payload chatPayload
	if err := decodePayload(action, &payload); err != nil {
		return err
	}
	text := payload.Message
	if runes := []rune(text); len(runes) > MaxChatMessageLen {
		text = string(runes[:MaxChatMessageLen])
	}
	g.Chat = append(g.Chat, ChatMessage{
		PlayerID:   player.ID,
		PlayerName: player.Name,
		Text:       text,
		Timestamp:  p.now(),
	})
	return nil
}

// parseDieKind turns "d6", "d20", ... into a side count.
func parseDieKind(kind string) (int, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(kind)), "d")
	sides, err := strconv.Atoi(trimmed)
	if err != nil || sides < 2 {
		return 0, invalidActionf("unknown die kind %q", kind)
	}
	return sides, nil
}
