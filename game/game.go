// Package game runs one chess session: the human's moves, the engine's replies,
// undo/redo, and everything that has to happen after a move lands.
package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"termchess-local/engine"
	"termchess-local/history"
	"termchess-local/record"
	"termchess-local/rules"
	"termchess-local/sound"
	"termchess-local/validator"
)

var (
	ErrGameOver    = errors.New("game is over")
	ErrNotYourTurn = errors.New("not your turn")
	ErrNoEngine    = errors.New("no engine attached")

	ErrPositionChanged = errors.New("position changed during engine search")
)

// Snapshot is one entry of the session history.
type Snapshot struct {
	FEN      string
	Moves    []string // SAN, from the session's start position
	LastMove string   // UCI of the move that produced FEN, "" at the start
}

// Clone returns a copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	s.Moves = append([]string(nil), s.Moves...)
	return s
}

// MoveResult describes a move that was played.
type MoveResult struct {
	SAN      string
	UCI      string
	Traits   rules.Traits
	Snapshot Snapshot
	Status   rules.Status
}

// Recorder persists the move list as it changes.
type Recorder interface {
	Update(moves []string, st rules.Status) error
}

// Options holds the collaborators of a Session. Zero values pick defaults; a nil
// Oracle means the standard oracle.
type Options struct {
	ID        string // defaults to a new UUID
	Oracle    rules.Oracle
	Engine    engine.Engine // nil: no opponent, the session runs in solo mode
	Sound     *sound.Service
	Recorder  Recorder
	Logger    *log.Logger
	Human     rules.Color // defaults to White
	Solo      bool
	StartFEN  string // defaults to rules.StartFEN
	ThinkTime time.Duration
	CacheTTL  time.Duration
}

// Session is a single game. All methods are safe for concurrent use.
type Session struct {
	id        string
	startFEN  string
	std       *rules.Standard
	validator *validator.Validator
	history   *history.Log[Snapshot]
	engine    engine.Engine
	sound     *sound.Service
	recorder  Recorder
	log       *log.Logger
	human     rules.Color
	think     time.Duration
	evals     *ttlCache[engine.Score]

	solo bool
	mu   sync.Mutex
}

// New creates a session at the start position and seeds its history.
func New(opts Options) (*Session, error) {
	std := rules.NewStandard()
	oracle := opts.Oracle
	if oracle == nil {
		oracle = std
	}
	start := opts.StartFEN
	if start == "" {
		start = rules.StartFEN
	}
	if _, err := std.Status(start); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	snd := opts.Sound
	if snd == nil {
		snd = sound.NewService(nil, false, 0, logger)
	}
	human := opts.Human
	if human == rules.NoColor {
		human = rules.White
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	s := &Session{
		id:        id,
		startFEN:  start,
		std:       std,
		validator: validator.New(oracle),
		history:   history.New(Snapshot.Clone),
		engine:    opts.Engine,
		sound:     snd,
		recorder:  opts.Recorder,
		log:       logger,
		human:     human,
		think:     opts.ThinkTime,
		evals:     newTTLCache[engine.Score](50, ttl),
		solo:      opts.Solo || opts.Engine == nil,
	}
	s.history.Add(Snapshot{FEN: start})
	s.log.Printf("session %s: new game, human=%s solo=%v oracle=%s", s.id, human, s.solo, oracle.Name())
	s.sound.Play(sound.GameStart)
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Human() rules.Color { return s.human }

func (s *Session) StartFEN() string { return s.startFEN }

// Current returns the snapshot under the history cursor.
func (s *Session) Current() Snapshot {
	snap, _ := s.history.Current()
	return snap
}

// Status reports the state of the current position.
func (s *Session) Status() (rules.Status, error) {
	return s.std.Status(s.Current().FEN)
}

// LegalMoves lists the legal moves of the current position in SAN.
func (s *Session) LegalMoves() ([]string, error) {
	return s.std.LegalMoves(s.Current().FEN)
}

// Validate checks token against the current position without playing it.
func (s *Session) Validate(token string) validator.Result {
	return s.validator.Validate(token, s.Current().FEN)
}

// Play validates token against the current position and plays it.
func (s *Session) Play(token string) (MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.Current()
	st, err := s.std.Status(cur.FEN)
	if err != nil {
		return MoveResult{}, err
	}
	if st.Over() {
		return MoveResult{}, ErrGameOver
	}
	if !s.solo && st.Turn != s.human {
		return MoveResult{}, ErrNotYourTurn
	}
	return s.apply(token, cur)
}

// PlayUCI plays a move given in coordinate notation, such as "e2e4" or "a7a8q".
func (s *Session) PlayUCI(uci string) (MoveResult, error) {
	san, err := s.std.SANFromUCI(s.Current().FEN, uci)
	if err != nil {
		s.sound.Play(sound.Error)
		return MoveResult{}, &validator.LegalityError{
			Token:  uci,
			Reason: fmt.Sprintf("move '%s' is not legal in current position", uci),
			Err:    err,
		}
	}
	return s.Play(san)
}

// EngineMove asks the engine for a move in the current position and plays it.
// The session is not locked during the search; if the position changes before
// the engine answers, the move is dropped and ErrPositionChanged is returned.
func (s *Session) EngineMove(ctx context.Context) (MoveResult, error) {
	if s.engine == nil {
		return MoveResult{}, ErrNoEngine
	}
	s.mu.Lock()
	cur := s.Current()
	st, err := s.std.Status(cur.FEN)
	if err == nil && st.Over() {
		err = ErrGameOver
	} else if err == nil && !s.solo && st.Turn == s.human {
		err = ErrNotYourTurn
	}
	s.mu.Unlock()
	if err != nil {
		return MoveResult{}, err
	}

	uci, err := s.engine.BestMove(ctx, cur.FEN, s.think)
	if err != nil {
		return MoveResult{}, fmt.Errorf("engine move: %w", err)
	}
	san, err := s.std.SANFromUCI(cur.FEN, uci)
	if err != nil {
		return MoveResult{}, fmt.Errorf("engine played %s: %w", uci, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if now := s.Current(); now.FEN != cur.FEN || len(now.Moves) != len(cur.Moves) {
		s.log.Printf("session %s: dropping engine move %s, position changed", s.id, uci)
		return MoveResult{}, ErrPositionChanged
	}
	s.log.Printf("session %s: engine plays %s (%s)", s.id, san, uci)
	return s.apply(san, cur)
}

// apply must be called while holding the lock.
func (s *Session) apply(token string, cur Snapshot) (MoveResult, error) {
	res := s.validator.Validate(token, cur.FEN)
	if res.Err != nil {
		s.sound.Play(sound.Error)
		return MoveResult{}, res.Err
	}
	next, err := res.Handle.Apply()
	if err != nil {
		s.sound.Play(sound.Error)
		return MoveResult{}, err
	}

	uci := res.Handle.UCI()
	san, err := s.std.SANFromUCI(cur.FEN, uci)
	if err != nil {
		san = res.Handle.SAN()
	}
	snap := Snapshot{
		FEN:      next,
		Moves:    append(append([]string(nil), cur.Moves...), san),
		LastMove: uci,
	}
	s.history.Add(snap)

	st, err := s.std.Status(next)
	if err != nil {
		return MoveResult{}, err
	}
	traits := res.Handle.Traits()
	s.sound.PlayMove(traits)
	if st.Over() {
		s.sound.Play(sound.GameEnd)
	}
	s.log.Printf("session %s: %s -> %s", s.id, san, next)
	s.persist(snap.Moves, st)

	return MoveResult{SAN: san, UCI: uci, Traits: traits, Snapshot: snap.Clone(), Status: st}, nil
}

func (s *Session) persist(moves []string, st rules.Status) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Update(moves, st); err != nil {
		s.log.Printf("session %s: failed to save record: %v", s.id, err)
	}
}

// Undo steps back through history. Against an engine it keeps stepping until it
// is the human's turn again, so one undo takes back a move pair.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.history.Undo() {
		return false
	}
	if !s.solo {
		for !s.humanTurn() && s.history.Undo() {
		}
	}
	s.afterJump()
	return true
}

// Redo is the inverse of Undo.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.history.Redo() {
		return false
	}
	if !s.solo {
		for !s.humanTurn() && s.history.Redo() {
		}
	}
	s.afterJump()
	return true
}

func (s *Session) CanUndo() bool { return s.history.CanUndo() }

func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// afterJump must be called while holding the lock.
func (s *Session) afterJump() {
	cur := s.Current()
	st, err := s.std.Status(cur.FEN)
	if err != nil {
		return
	}
	s.persist(cur.Moves, st)
}

func (s *Session) humanTurn() bool {
	return rules.SideToMove(s.Current().FEN) == s.human
}

// HumanToMove reports whether the next move is the human's to make.
func (s *Session) HumanToMove() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.solo || s.humanTurn()
}

// EngineToMove reports whether the session is waiting on the engine.
func (s *Session) EngineToMove() bool {
	s.mu.Lock()
	solo := s.solo
	s.mu.Unlock()
	if solo || s.engine == nil {
		return false
	}
	st, err := s.Status()
	return err == nil && !st.Over() && st.Turn != s.human
}

// ToggleSolo switches between playing the engine and moving both sides.
// Without an engine the session stays in solo mode. Returns the new mode.
func (s *Session) ToggleSolo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine != nil {
		s.solo = !s.solo
	}
	return s.solo
}

func (s *Session) Solo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.solo
}

// ModeDescription describes the current mode for display.
func (s *Session) ModeDescription() string {
	if s.Solo() {
		return "Solo mode: Human controls both sides"
	}
	return "AI mode: Human vs AI"
}

// Evaluate scores the current position, reusing recent results for the same position.
func (s *Session) Evaluate(ctx context.Context) (engine.Score, error) {
	if s.engine == nil {
		return engine.Score{}, ErrNoEngine
	}
	fen := s.Current().FEN
	if sc, ok := s.evals.get(fen); ok {
		return sc, nil
	}
	sc, err := s.engine.Evaluate(ctx, fen)
	if err != nil {
		return engine.Score{}, fmt.Errorf("evaluate: %w", err)
	}
	s.evals.set(fen, sc)
	return sc, nil
}

// Hint suggests a move for the side to move, in SAN.
func (s *Session) Hint(ctx context.Context) (string, error) {
	sc, err := s.Evaluate(ctx)
	if err != nil {
		return "", err
	}
	if sc.Best == "" {
		return "", engine.ErrNoMove
	}
	return s.std.SANFromUCI(s.Current().FEN, sc.Best)
}

// PGN renders the game up to the current position.
func (s *Session) PGN(white, black string) (string, error) {
	cur := s.Current()
	st, err := s.std.Status(cur.FEN)
	if err != nil {
		return "", err
	}
	return record.Encode(record.Header{
		SessionID: s.id,
		White:     white,
		Black:     black,
		StartFEN:  s.startFEN,
		Result:    record.ResultFor(st),
	}, cur.Moves)
}

// Close shuts down the engine and the recorder, if they need it.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	if s.engine != nil {
		errs = append(errs, s.engine.Close())
	}
	if c, ok := s.recorder.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
