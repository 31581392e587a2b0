package game

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termchess-local/engine"
	"termchess-local/rules"
	"termchess-local/sound"
	"termchess-local/validator"
)

type scriptedEngine struct {
	mu      sync.Mutex
	moves   []string
	score   engine.Score
	evals   int
	closed  bool
	lastFEN string
}

func (e *scriptedEngine) Connect(ctx context.Context) error { return nil }

func (e *scriptedEngine) BestMove(ctx context.Context, fen string, think time.Duration) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastFEN = fen
	if len(e.moves) == 0 {
		return "", engine.ErrNoMove
	}
	mv := e.moves[0]
	e.moves = e.moves[1:]
	return mv, nil
}

func (e *scriptedEngine) Evaluate(ctx context.Context, fen string) (engine.Score, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evals++
	return e.score, nil
}

func (e *scriptedEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// slowEngine blocks in BestMove until release is closed.
type slowEngine struct {
	scriptedEngine
	started chan struct{}
	release chan struct{}
}

func (e *slowEngine) BestMove(ctx context.Context, fen string, think time.Duration) (string, error) {
	close(e.started)
	<-e.release
	return e.scriptedEngine.BestMove(ctx, fen, think)
}

type memRecorder struct {
	moves  []string
	status rules.Status
	calls  int
	closed bool
}

func (r *memRecorder) Update(moves []string, st rules.Status) error {
	r.moves = append([]string(nil), moves...)
	r.status = st
	r.calls++
	return nil
}

func (r *memRecorder) Close() error {
	r.closed = true
	return nil
}

type effectLog struct {
	mu      sync.Mutex
	effects []sound.Effect
}

func (l *effectLog) Play(e sound.Effect, volume float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.effects = append(l.effects, e)
	return nil
}

func (l *effectLog) last() sound.Effect {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.effects[len(l.effects)-1]
}

func newSolo(t *testing.T) *Session {
	t.Helper()
	s, err := New(Options{})
	require.NoError(t, err)
	return s
}

func TestNewSession(t *testing.T) {
	s := newSolo(t)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, rules.StartFEN, s.Current().FEN)
	assert.Empty(t, s.Current().Moves)
	assert.True(t, s.Solo(), "no engine means solo")
	assert.True(t, s.ToggleSolo(), "stays solo without an engine")
	assert.True(t, s.Solo())
	assert.False(t, s.CanUndo())
	assert.False(t, s.CanRedo())
	assert.Equal(t, "Solo mode: Human controls both sides", s.ModeDescription())

	named, err := New(Options{ID: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", named.ID())

	_, err = New(Options{StartFEN: "not a fen"})
	var pe *rules.PositionError
	assert.ErrorAs(t, err, &pe)
}

func TestSoloPlayUndoRedo(t *testing.T) {
	rec := &memRecorder{}
	s, err := New(Options{Recorder: rec})
	require.NoError(t, err)

	res, err := s.Play("e4")
	require.NoError(t, err)
	assert.Equal(t, "e4", res.SAN)
	assert.Equal(t, "e2e4", res.UCI)
	assert.Equal(t, rules.Black, res.Status.Turn)

	_, err = s.Play("e5")
	require.NoError(t, err)
	assert.Equal(t, []string{"e4", "e5"}, s.Current().Moves)
	assert.Equal(t, "e7e5", s.Current().LastMove)
	assert.Equal(t, []string{"e4", "e5"}, rec.moves)

	require.True(t, s.Undo())
	assert.Equal(t, []string{"e4"}, s.Current().Moves)
	assert.Equal(t, []string{"e4"}, rec.moves)
	assert.True(t, s.CanRedo())

	require.True(t, s.Redo())
	assert.Equal(t, []string{"e4", "e5"}, s.Current().Moves)

	require.True(t, s.Undo())
	_, err = s.Play("c5")
	require.NoError(t, err)
	assert.False(t, s.CanRedo(), "a new move drops the redo tail")
	assert.Equal(t, []string{"e4", "c5"}, s.Current().Moves)

	assert.True(t, s.Undo())
	assert.True(t, s.Undo())
	assert.False(t, s.Undo())
	assert.Equal(t, rules.StartFEN, s.Current().FEN)
}

func TestPlayRejectsBadMoves(t *testing.T) {
	effects := &effectLog{}
	snd := sound.NewService(effects, true, 1, nil)
	s, err := New(Options{Sound: snd})
	require.NoError(t, err)
	assert.Equal(t, sound.GameStart, effects.last())

	_, err = s.Play("e5")
	var le *validator.LegalityError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "move 'e5' is not legal in current position", le.Error())
	assert.Equal(t, sound.Error, effects.last())

	_, err = s.Play("Zz9")
	require.Error(t, err)
	assert.Equal(t, rules.StartFEN, s.Current().FEN)
	assert.False(t, s.CanUndo())
}

func TestCheckmateEndsGame(t *testing.T) {
	effects := &effectLog{}
	rec := &memRecorder{}
	s, err := New(Options{Sound: sound.NewService(effects, true, 1, nil), Recorder: rec})
	require.NoError(t, err)

	var res MoveResult
	for _, mv := range []string{"e4", "e5", "Qh5", "Nc6", "Bc4", "Nf6", "Qxf7"} {
		res, err = s.Play(mv)
		require.NoError(t, err, mv)
	}
	assert.Equal(t, "Qxf7#", res.SAN, "recorded SAN is canonical")
	assert.True(t, res.Traits.Checkmate)
	assert.True(t, res.Status.Over())
	assert.Equal(t, rules.White, res.Status.Winner)
	assert.Equal(t, rules.Checkmate, rec.status.Ending)

	effects.mu.Lock()
	tail := effects.effects[len(effects.effects)-2:]
	effects.mu.Unlock()
	assert.Equal(t, []sound.Effect{sound.Checkmate, sound.GameEnd}, tail)

	_, err = s.Play("Ke7")
	assert.ErrorIs(t, err, ErrGameOver)

	pgn, err := s.PGN("Player", "Friend")
	require.NoError(t, err)
	assert.Contains(t, pgn, `[Result "1-0"]`)
	assert.Contains(t, pgn, "Qxf7#")
}

func TestEngineGame(t *testing.T) {
	eng := &scriptedEngine{moves: []string{"e7e5", "b8c6"}}
	s, err := New(Options{Engine: eng, Human: rules.White})
	require.NoError(t, err)
	assert.False(t, s.Solo())
	assert.Equal(t, "AI mode: Human vs AI", s.ModeDescription())
	assert.True(t, s.HumanToMove())
	assert.False(t, s.EngineToMove())

	_, err = s.EngineMove(context.Background())
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = s.Play("e4")
	require.NoError(t, err)
	assert.True(t, s.EngineToMove())
	_, err = s.Play("d5")
	assert.ErrorIs(t, err, ErrNotYourTurn)

	res, err := s.EngineMove(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "e5", res.SAN)
	assert.Equal(t, "e7e5", res.UCI)

	_, err = s.Play("Nf3")
	require.NoError(t, err)
	_, err = s.EngineMove(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"e4", "e5", "Nf3", "Nc6"}, s.Current().Moves)

	require.True(t, s.Undo(), "undo takes back a move pair")
	assert.Equal(t, []string{"e4", "e5"}, s.Current().Moves)
	require.True(t, s.Undo())
	assert.Equal(t, rules.StartFEN, s.Current().FEN)
	assert.False(t, s.Undo())

	require.True(t, s.Redo())
	assert.Equal(t, []string{"e4", "e5"}, s.Current().Moves)

	assert.True(t, s.ToggleSolo())
	_, err = s.Play("e5")
	require.Error(t, err)
	_, err = s.Play("Nf3")
	require.NoError(t, err)
	_, err = s.Play("Nc6")
	require.NoError(t, err, "solo mode moves both sides")
}

func TestEngineAsWhite(t *testing.T) {
	eng := &scriptedEngine{moves: []string{"d2d4"}}
	s, err := New(Options{Engine: eng, Human: rules.Black})
	require.NoError(t, err)
	assert.False(t, s.HumanToMove())
	assert.True(t, s.EngineToMove())

	res, err := s.EngineMove(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "d4", res.SAN)
	assert.Equal(t, rules.StartFEN, eng.lastFEN)
	assert.True(t, s.HumanToMove())
}

func TestEngineMoveErrors(t *testing.T) {
	_, err := newSolo(t).EngineMove(context.Background())
	assert.ErrorIs(t, err, ErrNoEngine)

	eng := &scriptedEngine{moves: []string{"e2e5"}}
	s, err := New(Options{Engine: eng, Human: rules.Black})
	require.NoError(t, err)
	_, err = s.EngineMove(context.Background())
	assert.ErrorIs(t, err, rules.ErrIllegal)

	_, err = s.EngineMove(context.Background())
	assert.ErrorIs(t, err, engine.ErrNoMove)
	assert.Equal(t, rules.StartFEN, s.Current().FEN)
}

func TestEngineSearchDoesNotBlockSession(t *testing.T) {
	eng := &slowEngine{
		scriptedEngine: scriptedEngine{moves: []string{"e7e5"}},
		started:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	s, err := New(Options{Engine: eng, Human: rules.White})
	require.NoError(t, err)
	_, err = s.Play("e4")
	require.NoError(t, err)

	type outcome struct {
		res MoveResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := s.EngineMove(context.Background())
		done <- outcome{res, err}
	}()
	<-eng.started

	polled := make(chan struct{})
	go func() {
		s.Solo()
		s.HumanToMove()
		s.ModeDescription()
		close(polled)
	}()
	select {
	case <-polled:
	case <-time.After(time.Second):
		t.Fatal("session accessors blocked while the engine was thinking")
	}

	close(eng.release)
	out := <-done
	require.NoError(t, out.err)
	assert.Equal(t, "e5", out.res.SAN)
	assert.Equal(t, []string{"e4", "e5"}, s.Current().Moves)
}

func TestEngineMoveDroppedAfterUndo(t *testing.T) {
	eng := &slowEngine{
		scriptedEngine: scriptedEngine{moves: []string{"e7e5"}},
		started:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	s, err := New(Options{Engine: eng, Human: rules.White})
	require.NoError(t, err)
	_, err = s.Play("e4")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.EngineMove(context.Background())
		done <- err
	}()
	<-eng.started
	require.True(t, s.Undo())
	close(eng.release)

	assert.ErrorIs(t, <-done, ErrPositionChanged)
	assert.Equal(t, rules.StartFEN, s.Current().FEN)
	assert.True(t, s.CanRedo())
}

func TestEvaluateAndHint(t *testing.T) {
	eng := &scriptedEngine{score: engine.Centipawns(35, "g1f3")}
	s, err := New(Options{Engine: eng})
	require.NoError(t, err)

	sc, err := s.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "+0.35", sc.String())

	hint, err := s.Hint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Nf3", hint)
	assert.Equal(t, 1, eng.evals, "second lookup is served from the cache")

	_, err = s.Play("e4")
	require.NoError(t, err)
	_, err = s.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, eng.evals)

	_, err = newSolo(t).Evaluate(context.Background())
	assert.ErrorIs(t, err, ErrNoEngine)
}

func TestCloseReleasesCollaborators(t *testing.T) {
	eng := &scriptedEngine{}
	rec := &memRecorder{}
	s, err := New(Options{Engine: eng, Recorder: rec})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.True(t, eng.closed)
	assert.True(t, rec.closed)
}

func TestSessionOracles(t *testing.T) {
	for _, kind := range []rules.Kind{rules.KindStandard, rules.KindBitboard} {
		t.Run(kind.String(), func(t *testing.T) {
			oracle, err := rules.New(kind)
			require.NoError(t, err)
			s, err := New(Options{Oracle: oracle})
			require.NoError(t, err)

			for _, mv := range []string{"e4", "d5", "exd5", "Qxd5", "Nc3"} {
				_, err := s.Play(mv)
				require.NoError(t, err, mv)
			}
			assert.Equal(t, "e4 d5 exd5 Qxd5 Nc3", strings.Join(s.Current().Moves, " "))
			assert.True(t, s.Validate("Qa5").Valid)

			blocked := s.Validate("Qxd1")
			assert.True(t, blocked.Valid)
			assert.True(t, blocked.Checked)
			assert.False(t, blocked.Legal)
			var legality *validator.LegalityError
			assert.ErrorAs(t, blocked.Err, &legality)
		})
	}
}

func TestSessionConcurrentUse(t *testing.T) {
	s := newSolo(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Play("e4")
			s.LegalMoves()
			s.Status()
			s.Undo()
		}()
	}
	wg.Wait()
	st, err := s.Status()
	require.NoError(t, err)
	assert.False(t, st.Over())
}

func TestTTLCache(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTTLCache[int](2, time.Minute)
	c.now = func() time.Time { return now }

	c.set("a", 1)
	now = now.Add(time.Second)
	c.set("b", 2)
	v, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(time.Second)
	c.set("c", 3)
	assert.Equal(t, 2, c.size())
	_, ok = c.get("a")
	assert.False(t, ok, "oldest entry is evicted")

	now = now.Add(2 * time.Minute)
	_, ok = c.get("c")
	assert.False(t, ok, "expired")
	assert.Equal(t, 1, c.size())
}

func TestPlayUCI(t *testing.T) {
	s := newSolo(t)

	res, err := s.PlayUCI("g1f3")
	require.NoError(t, err)
	assert.Equal(t, "Nf3", res.SAN)

	_, err = s.PlayUCI("e2e4")
	var le *validator.LegalityError
	require.ErrorAs(t, err, &le, "white has already moved")
	assert.Equal(t, "move 'e2e4' is not legal in current position", le.Error())
	assert.Equal(t, []string{"Nf3"}, s.Current().Moves)

	promo, err := New(Options{StartFEN: "7k/P7/8/8/8/8/8/K7 w - - 0 1"})
	require.NoError(t, err)
	res, err = promo.PlayUCI("a7a8q")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.SAN, "a8=Q"), res.SAN)
	assert.True(t, res.Traits.Promotion)
}
