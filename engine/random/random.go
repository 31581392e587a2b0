// Package random is an opponent that plays uniformly random legal moves.
package random

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/dylhunn/dragontoothmg"

	"termchess-local/engine"
	"termchess-local/rules"
)

type Engine struct {
	rng *rand.Rand
	mu  sync.Mutex
}

// New returns a random mover seeded with seed, so games can be replayed in tests.
func New(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

func (e *Engine) Connect(ctx context.Context) error {
	return ctx.Err()
}

func (e *Engine) BestMove(ctx context.Context, fen string, _ time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	board, err := rules.LoadBoard(fen)
	if err != nil {
		return "", err
	}
	moves := board.GenerateLegalMoves()
	if len(moves) == 0 {
		return "", engine.ErrNoMove
	}
	e.mu.Lock()
	mv := moves[e.rng.Intn(len(moves))]
	e.mu.Unlock()
	return uciString(mv), nil
}

// Evaluate has no opinion about the position: it always reports 0.00.
func (e *Engine) Evaluate(ctx context.Context, fen string) (engine.Score, error) {
	best, err := e.BestMove(ctx, fen, 0)
	if err != nil && !errors.Is(err, engine.ErrNoMove) {
		return engine.Score{}, err
	}
	return engine.Centipawns(0, best), nil
}

func (e *Engine) Close() error {
	return nil
}

func uciString(mv dragontoothmg.Move) string {
	return mv.String()
}
