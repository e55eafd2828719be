// Package session owns the in-memory authoritative state of running games.
// Each game has exactly one serialization domain: a single goroutine applies
// actions strictly in arrival order, so concurrent submitters never interleave
// and no update is ever lost. Different games share nothing and run fully in
// parallel.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/magicworkstation/workstation-server-go/internal/game"
	"github.com/magicworkstation/workstation-server-go/internal/store"
	"go.uber.org/zap"
)

// ErrClosed reports a submission to a session that has been shut down.
var ErrClosed = errors.New("session closed")

// Publisher receives every published snapshot for fan-out to connected
// clients. It must not block; the hub hands frames to buffered per-client
// queues.
type Publisher func(gameID string, snapshot *game.Snapshot)

// Options tune a session.
type Options struct {
	StartingLife int
	HistorySize  int
}

type opKind int

const (
	opAction opKind = iota
	opJoin
	opRead
	opPersist
)

type request struct {
	kind     opKind
	playerID string
	action   game.Action
	joinName string
	reply    chan response
}

type response struct {
	snapshot *game.Snapshot
	outcome  *game.Outcome
	playerID string
	err      error
}

// Session owns one game's state. All reads and writes flow through the
// request channel; the run goroutine is the only code that touches the game
// after Start.
type Session struct {
	gameID string
	opts   Options
	logger *zap.Logger

	g       *game.Game
	proc    *game.Processor
	version uint64
	latest  *game.Snapshot

	history   *History
	snapshots store.SnapshotStore
	publish   Publisher

	requests  chan request
	persistCh chan *game.Snapshot
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewSession wraps a game in a session at the given version. The version is
// zero for new games and the stored version when rehydrating.
func NewSession(g *game.Game, version uint64, proc *game.Processor, snapshots store.SnapshotStore, opts Options, logger *zap.Logger) *Session {
	if opts.StartingLife <= 0 {
		opts.StartingLife = game.DefaultStartingLife
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = 64
	}
	s := &Session{
		gameID:    g.ID,
		opts:      opts,
		logger:    logger.With(zap.String("game_id", g.ID)),
		g:         g,
		proc:      proc,
		version:   version,
		latest:    game.BuildSnapshot(g, version),
		history:   NewHistory(opts.HistorySize),
		snapshots: snapshots,
		requests:  make(chan request),
		persistCh: make(chan *game.Snapshot, 1),
		closed:    make(chan struct{}),
	}
	s.history.Record(s.latest)
	return s
}

// SetPublisher registers the snapshot fan-out callback. Must be called before
// Start.
func (s *Session) SetPublisher(p Publisher) {
	s.publish = p
}

// Start launches the serialization and persistence goroutines.
func (s *Session) Start() {
	s.wg.Add(2)
	go s.run()
	go s.persistLoop()
}

// Close stops the session. Queued requests that have not begun executing fail
// with ErrClosed; the action being applied when Close lands still completes.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	s.wg.Wait()
}

// GameID returns the id of the owned game.
func (s *Session) GameID() string {
	return s.gameID
}

// Submit applies one action on behalf of playerID and returns the resulting
// snapshot. The reply arrives only after the in-memory mutation is committed;
// durable persistence trails behind.
func (s *Session) Submit(ctx context.Context, playerID string, action game.Action) (*game.Snapshot, *game.Outcome, error) {
	resp, err := s.send(ctx, request{kind: opAction, playerID: playerID, action: action})
	if err != nil {
		return nil, nil, err
	}
	return resp.snapshot, resp.outcome, resp.err
}

// Snapshot returns the latest published snapshot. It flows through the same
// queue as actions, so the result is always a fully-applied state.
func (s *Session) Snapshot(ctx context.Context) (*game.Snapshot, error) {
	resp, err := s.send(ctx, request{kind: opRead})
	if err != nil {
		return nil, err
	}
	return resp.snapshot, resp.err
}

// Persist queues the current snapshot for durable storage without mutating
// state. The request flows through the run goroutine like every other op, so
// it never races a commit's own persist.
func (s *Session) Persist(ctx context.Context) (*game.Snapshot, error) {
	resp, err := s.send(ctx, request{kind: opPersist})
	if err != nil {
		return nil, err
	}
	return resp.snapshot, resp.err
}

// Join fills the game's second slot and returns the new player's id along
// with the snapshot that now includes them.
func (s *Session) Join(ctx context.Context, playerName string) (string, *game.Snapshot, error) {
	resp, err := s.send(ctx, request{kind: opJoin, joinName: playerName})
	if err != nil {
		return "", nil, err
	}
	return resp.playerID, resp.snapshot, resp.err
}

// Participant reports whether playerID belongs to this game, per the latest
// snapshot.
func (s *Session) Participant(ctx context.Context, playerID string) (bool, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	_, ok := snapshot.Players[playerID]
	return ok, nil
}

// History exposes the bounded snapshot history.
func (s *Session) History() *History {
	return s.history
}

func (s *Session) send(ctx context.Context, req request) (response, error) {
	req.reply = make(chan response, 1)
	select {
	case s.requests <- req:
	case <-s.closed:
		return response{}, ErrClosed
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
	// The action is queued at this point: a submitter disconnecting while it
	// waits does not cancel the mutation, only the delivery of the reply.
	select {
	case resp := <-req.reply:
		return resp, nil
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
}

func (s *Session) run() {
	defer s.wg.Done()
	defer close(s.persistCh)
	for {
		select {
		case req := <-s.requests:
			req.reply <- s.handle(req)
		case <-s.closed:
			return
		}
	}
}

func (s *Session) handle(req request) response {
	switch req.kind {
	case opRead:
		return response{snapshot: s.latest}

	case opPersist:
		s.queuePersist(s.latest)
		return response{snapshot: s.latest}

	case opJoin:
		player := game.NewPlayer(req.joinName, s.opts.StartingLife)
		if err := s.g.AddPlayer(player); err != nil {
			return response{err: err}
		}
		s.commit()
		s.logger.Info("player joined",
			zap.String("player_id", player.ID),
			zap.String("player_name", player.Name),
		)
		return response{snapshot: s.latest, playerID: player.ID}

	case opAction:
		outcome, err := s.proc.Apply(s.g, req.playerID, req.action)
		if err != nil {
			// Rejected actions leave the state untouched and are reported
			// only to the submitter.
			s.logger.Debug("action rejected",
				zap.String("action", req.action.Type),
				zap.String("player_id", req.playerID),
				zap.Error(err),
			)
			return response{err: err}
		}
		s.commit()
		s.logger.Debug("action applied",
			zap.String("action", req.action.Type),
			zap.String("player_id", req.playerID),
			zap.Uint64("version", s.version),
		)
		return response{snapshot: s.latest, outcome: outcome}

	default:
		return response{err: fmt.Errorf("unknown session op %d", req.kind)}
	}
}

// commit publishes a new version: bump the counter, rebuild the snapshot,
// record it, queue it for persistence, and fan it out.
func (s *Session) commit() {
	s.version++
	s.latest = game.BuildSnapshot(s.g, s.version)
	s.history.Record(s.latest)
	s.queuePersist(s.latest)
	if s.publish != nil {
		s.publish(s.gameID, s.latest)
	}
}

// queuePersist hands the snapshot to the persistence goroutine, replacing any
// not-yet-written older version. Only the latest state matters durably, so
// coalescing under load is safe. Called from the run goroutine only; a second
// sender could reorder the drain-and-retry loop.
func (s *Session) queuePersist(snapshot *game.Snapshot) {
	for {
		select {
		case s.persistCh <- snapshot:
			return
		default:
			select {
			case <-s.persistCh:
			default:
			}
		}
	}
}

func (s *Session) persistLoop() {
	defer s.wg.Done()
	for snapshot := range s.persistCh {
		s.persist(snapshot)
	}
}

func (s *Session) persist(snapshot *game.Snapshot) {
	if s.snapshots == nil {
		return
	}
	data, err := game.EncodeSnapshot(snapshot)
	if err != nil {
		s.logger.Error("failed to encode snapshot", zap.Error(err))
		return
	}
	names := make([]string, 0, len(snapshot.PlayerOrder))
	for _, pid := range snapshot.PlayerOrder {
		names = append(names, snapshot.Players[pid].Name)
	}
	rec := store.Record{
		GameID:      snapshot.GameID,
		Name:        snapshot.Name,
		Version:     snapshot.Version,
		PlayerNames: names,
		State:       data,
		UpdatedAt:   time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.snapshots.Save(ctx, rec); err != nil {
		// At-least-once: a failed write is logged and superseded by the next
		// snapshot rather than retried in place.
		s.logger.Warn("failed to persist snapshot",
			zap.Uint64("version", snapshot.Version),
			zap.Error(err),
		)
	}
}
