package server

import (
	"encoding/json"

	"github.com/magicworkstation/workstation-server-go/internal/game"
)

// Frame type markers for outbound WebSocket messages.
const (
	frameGameStateUpdate = "game_state_update"
	frameError           = "error"
)

// stateFrame carries a full snapshot to the client. Every update is the
// whole state; clients never diff.
type stateFrame struct {
	Type  string         `json:"type"`
	State *game.Snapshot `json:"state"`
}

// errorFrame reports a rejected action. It goes to the submitter only, never
// the opponent.
type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func encodeStateFrame(snapshot *game.Snapshot) ([]byte, error) {
	return json.Marshal(stateFrame{Type: frameGameStateUpdate, State: snapshot})
}

func encodeErrorFrame(err error) []byte {
	data, marshalErr := json.Marshal(errorFrame{Type: frameError, Message: err.Error()})
	if marshalErr != nil {
		return []byte(`{"type":"error","message":"internal error"}`)
	}
	return data
}
