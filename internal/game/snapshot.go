package game

import (
	"sort"
	"time"

	"github.com/magicworkstation/workstation-server-go/internal/game/counters"
)

// Snapshot is the complete serialized projection of a game, published after
// every successfully applied action and pushed whole to every client - no
// diffing. Field order and sorted collections keep the JSON encoding of an
// unchanged state byte-for-byte stable, which is what makes reconnect
// verification trivial.
type Snapshot struct {
	GameID         string                `json:"game_id"`
	Name           string                `json:"name"`
	Version        uint64                `json:"version"`
	CreatedAt      time.Time             `json:"created_at"`
	PlayerOrder    []string              `json:"player_order"`
	ActivePlayerID string                `json:"active_player_id"`
	TurnNumber     int                   `json:"turn_number"`
	CurrentPhase   string                `json:"current_phase"`
	Players        map[string]PlayerView `json:"players"`
	Dice           []DieView             `json:"dice"`
	Arrows         []ArrowView           `json:"arrows"`
	Chat           []ChatView            `json:"chat"`
}

// PlayerView is one player's slice of the snapshot.
type PlayerView struct {
	ID    string                `json:"id"`
	Name  string                `json:"name"`
	Life  int                   `json:"life_total"`
	Zones map[string][]CardView `json:"zones"`
}

// CardView exposes a card on the wire. Catalog content (artwork, oracle text)
// is resolved client-side from the catalog reference and never travels here.
type CardView struct {
	ID           string         `json:"id"`
	CatalogID    string         `json:"catalog_id,omitempty"`
	Name         string         `json:"name"`
	OwnerID      string         `json:"owner_id"`
	Tapped       bool           `json:"tapped"`
	FaceDown     bool           `json:"face_down"`
	AttachedToID string         `json:"attached_to_id,omitempty"`
	Token        bool           `json:"is_token,omitempty"`
	Power        string         `json:"power,omitempty"`
	Toughness    string         `json:"toughness,omitempty"`
	X            float64        `json:"x"`
	Y            float64        `json:"y"`
	Counters     map[string]int `json:"counters,omitempty"`
}

// DieView exposes a dice token on the wire. A nil value renders as "rolling".
type DieView struct {
	ID      string  `json:"id"`
	OwnerID string  `json:"owner_id"`
	Kind    string  `json:"kind"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Value   *int    `json:"value"`
}

// ArrowView exposes a targeting arrow on the wire.
type ArrowView struct {
	ID         string `json:"id"`
	OwnerID    string `json:"owner_id"`
	FromCardID string `json:"from_card_id"`
	ToID       string `json:"to_id"`
}

// ChatView exposes one chat log entry on the wire.
type ChatView struct {
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}

// BuildSnapshot projects the full game state at the given version. The result
// shares nothing with the live state.
func BuildSnapshot(g *Game, version uint64) *Snapshot {
	snapshot := &Snapshot{
		GameID:         g.ID,
		Name:           g.Name,
		Version:        version,
		CreatedAt:      g.CreatedAt,
		PlayerOrder:    append([]string{}, g.PlayerOrder...),
		ActivePlayerID: g.ActivePlayerID,
		TurnNumber:     g.TurnNumber,
		CurrentPhase:   string(g.CurrentPhase),
		Players:        make(map[string]PlayerView, len(g.Players)),
		Dice:           make([]DieView, 0, len(g.Dice)),
		Arrows:         make([]ArrowView, 0, len(g.Arrows)),
		Chat:           make([]ChatView, 0, len(g.Chat)),
	}

	for _, pid := range g.PlayerOrder {
		player := g.Players[pid]
		view := PlayerView{
			ID:    player.ID,
			Name:  player.Name,
			Life:  player.Life,
			Zones: make(map[string][]CardView, len(ZoneTypes)),
		}
		for _, zt := range ZoneTypes {
			zone := player.Zones[zt]
			cards := make([]CardView, 0, len(zone.Cards))
			for _, card := range zone.Cards {
				cards = append(cards, cardView(card))
			}
			view.Zones[string(zt)] = cards
		}
		snapshot.Players[pid] = view
	}

	for _, die := range g.Dice {
		view := DieView{
			ID:      die.ID,
			OwnerID: die.OwnerID,
			Kind:    die.Kind,
			X:       die.X,
			Y:       die.Y,
		}
		if die.Value != nil {
			v := *die.Value
			view.Value = &v
		}
		snapshot.Dice = append(snapshot.Dice, view)
	}
	sort.Slice(snapshot.Dice, func(i, j int) bool {
		return snapshot.Dice[i].ID < snapshot.Dice[j].ID
	})

	for _, arrow := range g.Arrows {
		snapshot.Arrows = append(snapshot.Arrows, ArrowView{
			ID:         arrow.ID,
			OwnerID:    arrow.OwnerID,
			FromCardID: arrow.FromCardID,
			ToID:       arrow.ToID,
		})
	}
	sort.Slice(snapshot.Arrows, func(i, j int) bool {
		return snapshot.Arrows[i].ID < snapshot.Arrows[j].ID
	})

	for _, msg := range g.Chat {
		snapshot.Chat = append(snapshot.Chat, ChatView{
			PlayerID:   msg.PlayerID,
			PlayerName: msg.PlayerName,
			Text:       msg.Text,
			Timestamp:  msg.Timestamp,
		})
	}

	return snapshot
}

func cardView(card *Card) CardView {
	view := CardView{
		ID:           card.ID,
		CatalogID:    card.CatalogID,
		Name:         card.Name,
		OwnerID:      card.OwnerID,
		Tapped:       card.Tapped,
		FaceDown:     card.FaceDown,
		AttachedToID: card.AttachedToID,
		Token:        card.Token,
		Power:        card.Power,
		Toughness:    card.Toughness,
		X:            card.X,
		Y:            card.Y,
	}
	if card.Counters.Len() > 0 {
		view.Counters = card.Counters.ToMap()
	}
	return view
}

// FromSnapshot rebuilds live game state from a snapshot, the inverse of
// BuildSnapshot. Used when rehydrating sessions from durable storage.
func FromSnapshot(s *Snapshot) *Game {
	g := &Game{
		ID:             s.GameID,
		Name:           s.Name,
		CreatedAt:      s.CreatedAt,
		Players:        make(map[string]*Player, len(s.Players)),
		PlayerOrder:    append([]string{}, s.PlayerOrder...),
		ActivePlayerID: s.ActivePlayerID,
		TurnNumber:     s.TurnNumber,
		CurrentPhase:   Phase(s.CurrentPhase),
		Dice:           make(map[string]*DiceToken, len(s.Dice)),
		Arrows:         make(map[string]*TargetArrow, len(s.Arrows)),
		Chat:           make([]ChatMessage, 0, len(s.Chat)),
	}

	for _, pid := range s.PlayerOrder {
		view := s.Players[pid]
		player := &Player{
			ID:    view.ID,
			Name:  view.Name,
			Life:  view.Life,
			Zones: make(map[ZoneType]*Zone, len(ZoneTypes)),
		}
		for _, zt := range ZoneTypes {
			zone := NewZone(zt, player.ID)
			for _, cv := range view.Zones[string(zt)] {
				zone.Cards = append(zone.Cards, cardFromView(cv))
			}
			player.Zones[zt] = zone
		}
		g.Players[pid] = player
	}

	for _, dv := range s.Dice {
		die := &DiceToken{
			ID:      dv.ID,
			OwnerID: dv.OwnerID,
			Kind:    dv.Kind,
			X:       dv.X,
			Y:       dv.Y,
		}
		if dv.Value != nil {
			v := *dv.Value
			die.Value = &v
		}
		g.Dice[die.ID] = die
	}

	for _, av := range s.Arrows {
		g.Arrows[av.ID] = &TargetArrow{
			ID:         av.ID,
			OwnerID:    av.OwnerID,
			FromCardID: av.FromCardID,
			ToID:       av.ToID,
		}
	}

	for _, cv := range s.Chat {
		g.Chat = append(g.Chat, ChatMessage{
			PlayerID:   cv.PlayerID,
			PlayerName: cv.PlayerName,
			Text:       cv.Text,
			Timestamp:  cv.Timestamp,
		})
	}

	return g
}

func cardFromView(cv CardView) *Card {
	return &Card{
		ID:           cv.ID,
		CatalogID:    cv.CatalogID,
		Name:         cv.Name,
		OwnerID:      cv.OwnerID,
		Tapped:       cv.Tapped,
		FaceDown:     cv.FaceDown,
		AttachedToID: cv.AttachedToID,
		Token:        cv.Token,
		Power:        cv.Power,
		Toughness:    cv.Toughness,
		X:            cv.X,
		Y:            cv.Y,
		Counters:     counters.FromMap(cv.Counters),
	}
}
