package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/magicworkstation/workstation-server-go/internal/game"
	"github.com/magicworkstation/workstation-server-go/internal/session"
	"go.uber.org/zap"
)

const (
	defaultWriteWait  = 10 * time.Second
	defaultSendBuffer = 16
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 64 * 1024
)

// Hub owns every live WebSocket connection, grouped by game. It implements
// session.Publisher: committed snapshots fan out to all connections of the
// game, while rejected actions are answered on the submitting connection
// alone.
type Hub struct {
	manager    *session.Manager
	upgrader   websocket.Upgrader
	writeWait  time.Duration
	sendBuffer int
	logger     *zap.Logger

	mu    sync.RWMutex
	conns map[string]map[*conn]struct{}
}

// conn is one player's socket. All writes go through the buffered send
// channel and a single write pump, since gorilla connections allow only one
// concurrent writer.
type conn struct {
	gameID   string
	playerID string
	ws       *websocket.Conn
	send     chan []byte
}

// NewHub creates a hub over the registry. writeWait and sendBuffer of zero
// mean defaults.
func NewHub(manager *session.Manager, writeWait time.Duration, sendBuffer int, logger *zap.Logger) *Hub {
	if writeWait <= 0 {
		writeWait = defaultWriteWait
	}
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Hub{
		manager:    manager,
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		writeWait:  writeWait,
		sendBuffer: sendBuffer,
		logger:     logger,
	}
}

// Publish fans a committed snapshot out to every connection of the game. It
// never blocks: a client whose buffer is full misses this frame and catches
// up on the next one, every frame being the full state.
func (h *Hub) Publish(gameID string, snapshot *game.Snapshot) {
	frame, err := encodeStateFrame(snapshot)
	if err != nil {
		h.logger.Error("failed to encode state frame",
			zap.String("game_id", gameID),
			zap.Error(err),
		)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[gameID] {
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("dropping state frame for slow client",
				zap.String("game_id", gameID),
				zap.String("player_id", c.playerID),
				zap.Uint64("version", snapshot.Version),
			)
		}
	}
}

// HandleWS serves GET /ws/{gameID}/{playerID}. Knowing the pair is the whole
// credential: any connection presenting a valid one is rebound to the seat,
// which is also how reconnects work.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	playerID := chi.URLParam(r, "playerID")

	sess, ok := h.manager.Get(gameID)
	if !ok {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	member, err := sess.Participant(r.Context(), playerID)
	if err != nil {
		http.Error(w, "game unavailable", http.StatusNotFound)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	if !member {
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "not a participant")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.writeWait))
		_ = ws.Close()
		return
	}

	c := &conn{
		gameID:   gameID,
		playerID: playerID,
		ws:       ws,
		send:     make(chan []byte, h.sendBuffer),
	}
	h.register(c)
	h.logger.Info("client connected",
		zap.String("game_id", gameID),
		zap.String("player_id", playerID),
	)

	// Opening the socket delivers the current state unconditionally, so a
	// reconnecting client needs no resync protocol.
	if snapshot, err := sess.Snapshot(r.Context()); err == nil {
		if frame, err := encodeStateFrame(snapshot); err == nil {
			c.send <- frame
		}
	}

	go h.writePump(c)
	h.readPump(c, sess)
}

func (h *Hub) register(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns == nil {
		h.conns = make(map[string]map[*conn]struct{})
	}
	if h.conns[c.gameID] == nil {
		h.conns[c.gameID] = make(map[*conn]struct{})
	}
	h.conns[c.gameID][c] = struct{}{}
}

func (h *Hub) unregister(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if peers, ok := h.conns[c.gameID]; ok {
		if _, ok := peers[c]; ok {
			delete(peers, c)
			close(c.send)
			if len(peers) == 0 {
				delete(h.conns, c.gameID)
			}
		}
	}
}

func (h *Hub) readPump(c *conn, sess *session.Session) {
	defer func() {
		h.unregister(c)
		_ = c.ws.Close()
		h.logger.Info("client disconnected",
			zap.String("game_id", c.gameID),
			zap.String("player_id", c.playerID),
		)
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var action game.Action
		if err := json.Unmarshal(msg, &action); err != nil {
			h.sendError(c, err)
			continue
		}

		if _, _, err := sess.Submit(context.Background(), c.playerID, action); err != nil {
			h.sendError(c, err)
		}
	}
}

func (h *Hub) sendError(c *conn, err error) {
	select {
	case c.send <- encodeErrorFrame(err):
	default:
	}
}

func (h *Hub) writePump(c *conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(h.writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
