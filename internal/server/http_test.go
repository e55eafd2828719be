package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/magicworkstation/workstation-server-go/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestCreateGameEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.http.URL+"/api/games", map[string]any{
		"game_name":   "API Game",
		"player_name": "Alice",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created createGameResponse
	decodeBody(t, resp, &created)
	assert.NotEmpty(t, created.GameID)
	assert.NotEmpty(t, created.PlayerID)
	require.NotNil(t, created.State)
	assert.Equal(t, "API Game", created.State.Name)
	assert.Equal(t, 20, created.State.Players[created.PlayerID].Life)
}

func TestCreateGameRequiresPlayerName(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts.http.URL+"/api/games", map[string]any{"game_name": "x"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestJoinGameEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.http.URL+"/api/games", map[string]any{"player_name": "Alice"})
	var created createGameResponse
	decodeBody(t, resp, &created)

	resp = postJSON(t, ts.http.URL+"/api/games/"+created.GameID+"/join", map[string]any{"player_name": "Bob"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var joined joinGameResponse
	decodeBody(t, resp, &joined)
	assert.Len(t, joined.State.PlayerOrder, 2)

	// Third join conflicts.
	resp = postJSON(t, ts.http.URL+"/api/games/"+created.GameID+"/join", map[string]any{"player_name": "Carol"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Unknown game 404s.
	resp = postJSON(t, ts.http.URL+"/api/games/nope/join", map[string]any{"player_name": "Dan"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListGamesEndpoint(t *testing.T) {
	ts := newTestServer(t)
	postJSON(t, ts.http.URL+"/api/games", map[string]any{"player_name": "Alice"}).Body.Close()
	postJSON(t, ts.http.URL+"/api/games", map[string]any{"player_name": "Bob"}).Body.Close()

	resp, err := http.Get(ts.http.URL + "/api/games")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Games []struct {
			GameID      string   `json:"game_id"`
			PlayerNames []string `json:"player_names"`
		} `json:"games"`
	}
	decodeBody(t, resp, &listing)
	assert.Len(t, listing.Games, 2)
}

func TestGameStateEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts.http.URL+"/api/games", map[string]any{"player_name": "Alice"})
	var created createGameResponse
	decodeBody(t, resp, &created)

	resp, err := http.Get(ts.http.URL + "/api/games/" + created.GameID + "/state")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state game.Snapshot
	decodeBody(t, resp, &state)
	assert.Equal(t, created.GameID, state.GameID)

	resp, err = http.Get(ts.http.URL + "/api/games/missing/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteGameEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts.http.URL+"/api/games", map[string]any{"player_name": "Alice"})
	var created createGameResponse
	decodeBody(t, resp, &created)

	req, err := http.NewRequest(http.MethodDelete, ts.http.URL+"/api/games/"+created.GameID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.http.URL + "/api/games/" + created.GameID + "/state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLoadDeckEndpointUnknownDeck(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts.http.URL+"/api/games", map[string]any{"player_name": "Alice"})
	var created createGameResponse
	decodeBody(t, resp, &created)

	// No deck source is wired in tests, so every deck is unknown.
	resp = postJSON(t, ts.http.URL+"/api/games/"+created.GameID+"/players/"+created.PlayerID+"/deck",
		map[string]any{"deck_name": "burn"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.http.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
