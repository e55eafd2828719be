package session

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/magicworkstation/workstation-server-go/internal/config"
	"github.com/magicworkstation/workstation-server-go/internal/game"
	"github.com/magicworkstation/workstation-server-go/internal/store"
	"go.uber.org/zap"
)

// GameInfo is the lobby-listing projection of a running game.
type GameInfo struct {
	GameID      string    `json:"game_id"`
	Name        string    `json:"name"`
	PlayerCount int       `json:"player_count"`
	PlayerNames []string  `json:"player_names"`
	CreatedAt   time.Time `json:"created_at"`
	Version     uint64    `json:"version"`
}

// Manager is the process-wide registry of active games: an owned,
// concurrency-safe map from game id to session with an explicit
// creation/eviction lifecycle.
type Manager struct {
	cfg       config.GameConfig
	snapshots store.SnapshotStore
	decks     game.DeckSource
	logger    *zap.Logger

	mu        sync.RWMutex
	sessions  map[string]*Session
	publisher Publisher

	// newRand seeds each session's processor; tests override it for
	// deterministic shuffles.
	newRand func() *rand.Rand
}

// NewManager creates an empty registry.
func NewManager(cfg config.GameConfig, snapshots store.SnapshotStore, decks game.DeckSource, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:       cfg,
		snapshots: snapshots,
		decks:     decks,
		logger:    logger,
		sessions:  make(map[string]*Session),
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// SetPublisher registers the snapshot fan-out for all sessions, current and
// future. Must be called before games are created.
func (m *Manager) SetPublisher(p Publisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publisher = p
}

// SetRandSource overrides per-session random sources, for deterministic
// tests.
func (m *Manager) SetRandSource(newRand func() *rand.Rand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.newRand = newRand
}

// CreateGame creates a new game with its first player seated and starts its
// session. startingLife of zero means the configured default.
func (m *Manager) CreateGame(gameName, playerName string, startingLife int) (*Session, string, *game.Snapshot, error) {
	if startingLife <= 0 {
		startingLife = m.cfg.StartingLife
	}
	if gameName == "" {
		gameName = fmt.Sprintf("%s's Game", playerName)
	}

	g := game.NewGame(gameName)
	player := game.NewPlayer(playerName, startingLife)
	if err := g.AddPlayer(player); err != nil {
		return nil, "", nil, err
	}

	s := m.startSession(g, 0, startingLife)

	// Persist the creation state immediately so the game is recoverable
	// before its first action.
	snapshot, err := s.Persist(context.Background())
	if err != nil {
		return nil, "", nil, err
	}

	m.logger.Info("game created",
		zap.String("game_id", g.ID),
		zap.String("game_name", gameName),
		zap.String("player_id", player.ID),
	)
	return s, player.ID, snapshot, nil
}

// Get returns the session for a game id.
func (m *Manager) Get(gameID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[gameID]
	return s, ok
}

// Delete evicts a game: the session stops and the durable snapshot row is
// removed. This is the only path that destroys cards.
func (m *Manager) Delete(ctx context.Context, gameID string) error {
	m.mu.Lock()
	s, ok := m.sessions[gameID]
	if ok {
		delete(m.sessions, gameID)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: game %s", game.ErrNotFound, gameID)
	}

	s.Close()
	if m.snapshots != nil {
		if err := m.snapshots.Delete(ctx, gameID); err != nil {
			m.logger.Warn("failed to delete stored snapshot",
				zap.String("game_id", gameID),
				zap.Error(err),
			)
		}
	}
	m.logger.Info("game deleted", zap.String("game_id", gameID))
	return nil
}

// List returns lobby metadata for every active game, ordered by creation
// time then id.
func (m *Manager) List(ctx context.Context) ([]GameInfo, error) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	infos := make([]GameInfo, 0, len(sessions))
	for _, s := range sessions {
		snapshot, err := s.Snapshot(ctx)
		if err != nil {
			if err == ErrClosed {
				continue
			}
			return nil, err
		}
		names := make([]string, 0, len(snapshot.PlayerOrder))
		for _, pid := range snapshot.PlayerOrder {
			names = append(names, snapshot.Players[pid].Name)
		}
		infos = append(infos, GameInfo{
			GameID:      snapshot.GameID,
			Name:        snapshot.Name,
			PlayerCount: len(snapshot.PlayerOrder),
			PlayerNames: names,
			CreatedAt:   snapshot.CreatedAt,
			Version:     snapshot.Version,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].GameID < infos[j].GameID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos, nil
}

// Rehydrate rebuilds sessions from the durable store after a restart. Games
// already registered are left alone.
func (m *Manager) Rehydrate(ctx context.Context) error {
	if m.snapshots == nil {
		return nil
	}
	records, err := m.snapshots.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stored snapshots: %w", err)
	}
	restored := 0
	for _, rec := range records {
		if _, exists := m.Get(rec.GameID); exists {
			continue
		}
		snapshot, err := game.DecodeSnapshot(rec.State)
		if err != nil {
			m.logger.Warn("skipping undecodable stored snapshot",
				zap.String("game_id", rec.GameID),
				zap.Error(err),
			)
			continue
		}
		g := game.FromSnapshot(snapshot)
		m.startSession(g, rec.Version, m.cfg.StartingLife)
		restored++
	}
	if restored > 0 {
		m.logger.Info("sessions rehydrated", zap.Int("games", restored))
	}
	return nil
}

// CloseAll stops every session, for shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

func (m *Manager) startSession(g *game.Game, version uint64, startingLife int) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	proc := game.NewProcessor(m.newRand(), m.decks, m.cfg.StartingHandSize)
	s := NewSession(g, version, proc, m.snapshots, Options{
		StartingLife: startingLife,
		HistorySize:  m.cfg.HistorySize,
	}, m.logger)
	if m.publisher != nil {
		s.SetPublisher(m.publisher)
	}
	s.Start()
	m.sessions[g.ID] = s
	return s
}
