package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/magicworkstation/workstation-server-go/internal/game"
	"github.com/magicworkstation/workstation-server-go/internal/session"
	"github.com/magicworkstation/workstation-server-go/internal/store"
	"go.uber.org/zap"
)

// API is the REST surface for game lifecycle. Gameplay itself stays on the
// WebSocket; these endpoints create, list, join, inspect and delete games.
type API struct {
	manager *session.Manager
	hub     *Hub
	logger  *zap.Logger
}

func NewAPI(manager *session.Manager, hub *Hub, logger *zap.Logger) *API {
	return &API{manager: manager, hub: hub, logger: logger}
}

// Router builds the full HTTP handler, REST and WebSocket both.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/games", func(r chi.Router) {
		r.Post("/", a.createGame)
		r.Get("/", a.listGames)
		r.Route("/{gameID}", func(r chi.Router) {
			r.Get("/state", a.gameState)
			r.Post("/join", a.joinGame)
			r.Delete("/", a.deleteGame)
			r.Post("/players/{playerID}/deck", a.loadDeck)
		})
	})
	r.Get("/ws/{gameID}/{playerID}", a.hub.HandleWS)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

type createGameRequest struct {
	GameName     string `json:"game_name"`
	PlayerName   string `json:"player_name"`
	StartingLife int    `json:"starting_life"`
}

type createGameResponse struct {
	GameID   string         `json:"game_id"`
	PlayerID string         `json:"player_id"`
	State    *game.Snapshot `json:"state"`
}

func (a *API) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeBadRequest(w, "invalid request body")
		return
	}
	req.PlayerName = strings.TrimSpace(req.PlayerName)
	if req.PlayerName == "" {
		a.writeBadRequest(w, "player_name is required")
		return
	}

	_, playerID, snapshot, err := a.manager.CreateGame(strings.TrimSpace(req.GameName), req.PlayerName, req.StartingLife)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, createGameResponse{
		GameID:   snapshot.GameID,
		PlayerID: playerID,
		State:    snapshot,
	})
}

func (a *API) listGames(w http.ResponseWriter, r *http.Request) {
	infos, err := a.manager.List(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"games": infos})
}

func (a *API) gameState(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.manager.Get(chi.URLParam(r, "gameID"))
	if !ok {
		a.writeError(w, game.ErrNotFound)
		return
	}
	snapshot, err := sess.Snapshot(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, snapshot)
}

type joinGameRequest struct {
	PlayerName string `json:"player_name"`
}

type joinGameResponse struct {
	GameID   string         `json:"game_id"`
	PlayerID string         `json:"player_id"`
	State    *game.Snapshot `json:"state"`
}

func (a *API) joinGame(w http.ResponseWriter, r *http.Request) {
	var req joinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeBadRequest(w, "invalid request body")
		return
	}
	req.PlayerName = strings.TrimSpace(req.PlayerName)
	if req.PlayerName == "" {
		a.writeBadRequest(w, "player_name is required")
		return
	}

	gameID := chi.URLParam(r, "gameID")
	sess, ok := a.manager.Get(gameID)
	if !ok {
		a.writeError(w, game.ErrNotFound)
		return
	}
	playerID, snapshot, err := sess.Join(r.Context(), req.PlayerName)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, joinGameResponse{
		GameID:   gameID,
		PlayerID: playerID,
		State:    snapshot,
	})
}

func (a *API) deleteGame(w http.ResponseWriter, r *http.Request) {
	if err := a.manager.Delete(r.Context(), chi.URLParam(r, "gameID")); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type loadDeckRequest struct {
	DeckName string `json:"deck_name"`
}

func (a *API) loadDeck(w http.ResponseWriter, r *http.Request) {
	var req loadDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeBadRequest(w, "invalid request body")
		return
	}
	req.DeckName = strings.TrimSpace(req.DeckName)
	if req.DeckName == "" {
		a.writeBadRequest(w, "deck_name is required")
		return
	}

	sess, ok := a.manager.Get(chi.URLParam(r, "gameID"))
	if !ok {
		a.writeError(w, game.ErrNotFound)
		return
	}

	data, err := json.Marshal(map[string]string{"deckName": req.DeckName})
	if err != nil {
		a.writeError(w, err)
		return
	}
	snapshot, _, err := sess.Submit(r.Context(), chi.URLParam(r, "playerID"), game.Action{
		Type: game.ActionLoadDeck,
		Data: data,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, snapshot)
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (a *API) writeBadRequest(w http.ResponseWriter, msg string) {
	a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrNotFound), errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrCapacityExceeded):
		status = http.StatusConflict
	case errors.Is(err, game.ErrInvalidAction), errors.Is(err, game.ErrInvalidAttachment):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrClosed):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed", zap.Error(err))
	}
	a.writeJSON(w, status, map[string]string{"error": err.Error()})
}
