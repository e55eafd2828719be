package game

import "encoding/json"

// Action type names as they appear on the wire.
const (
	ActionMoveCard    = "move_card"
	ActionTapCard     = "tap_card"
	ActionToggleFace  = "toggle_face"
	ActionAttachCard  = "attach_card"
	ActionUnattach    = "unattach_card"
	ActionAddCounter  = "add_counter"
	ActionDraw        = "draw"
	ActionShuffle     = "shuffle"
	ActionMulligan    = "mulligan"
	ActionNextPhase   = "next_phase"
	ActionNextTurn    = "next_turn"
	ActionChangeLife  = "change_life"
	ActionSetLife     = "set_life"
	ActionUntapAll    = "untap_all"
	ActionCreateToken = "create_token"
	ActionCreateDie   = "create_die"
	ActionMoveDie     = "move_die"
	ActionRemoveDie   = "remove_die"
	ActionReorderHand = "reorder_hand"
	ActionCreateArrow = "create_arrow"
	ActionRemoveArrow = "remove_arrow"
	ActionSendChat    = "send_chat"
	ActionLoadDeck    = "load_deck"
)

// Action is one inbound state mutation request: a type plus its raw payload,
// exactly as received in a websocket frame.
type Action struct {
	Type string          `json:"action"`
	Data json.RawMessage `json:"data"`
}

// Payload structs mirror the wire field names used by the clients.

type moveCardPayload struct {
	CardID string   `json:"cardId"`
	ToZone ZoneType `json:"toZone"`
	Index  *int     `json:"index"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
}

type cardPayload struct {
	CardID string `json:"cardId"`
}

type attachPayload struct {
	CardID       string `json:"cardId"`
	TargetCardID string `json:"targetCardId"`
}

type counterPayload struct {
	CardID      string `json:"cardId"`
	CounterType string `json:"counterType"`
	Delta       *int   `json:"delta"`
}

type drawPayload struct {
	Count *int `json:"count"`
}

type lifePayload struct {
	Delta int `json:"delta"`
	Total int `json:"total"`
}

type tokenPayload struct {
	Name      string `json:"name"`
	Power     string `json:"power"`
	Toughness string `json:"toughness"`
}

type createDiePayload struct {
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type moveDiePayload struct {
	DieID string  `json:"dieId"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type removeDiePayload struct {
	DieID string `json:"dieId"`
}

type reorderHandPayload struct {
	CardID   string `json:"cardId"`
	NewIndex int    `json:"newIndex"`
}

type arrowPayload struct {
	FromCardID string `json:"fromCardId"`
	ToID       string `json:"toId"`
}

type removeArrowPayload struct {
	ArrowID string `json:"arrowId"`
}

type chatPayload struct {
	Message string `json:"message"`
}

type loadDeckPayload struct {
	DeckName string `json:"deckName"`
}

// decodePayload unmarshals the raw action data into the typed payload,
// translating malformed JSON into an invalid-action error. A missing payload
// decodes as the zero value, matching clients that omit "data" entirely.
func decodePayload(a Action, out any) error {
	if len(a.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(a.Data, out); err != nil {
		return invalidActionf("malformed %s payload: %v", a.Type, err)
	}
	return nil
}
