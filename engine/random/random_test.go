package random

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termchess-local/engine"
	"termchess-local/rules"
)

func TestBestMoveIsLegal(t *testing.T) {
	e := New(1)
	std := rules.NewStandard()
	fen := rules.StartFEN
	for i := 0; i < 20; i++ {
		mv, err := e.BestMove(context.Background(), fen, 0)
		if errors.Is(err, engine.ErrNoMove) {
			break
		}
		require.NoError(t, err)
		san, err := std.SANFromUCI(fen, mv)
		require.NoError(t, err, "move %d: %s in %s", i, mv, fen)
		h, err := std.Check(san, fen)
		require.NoError(t, err)
		fen, err = h.Apply()
		require.NoError(t, err)
	}
}

func TestSameSeedSameMoves(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 5; i++ {
		m1, err := a.BestMove(context.Background(), rules.StartFEN, 0)
		require.NoError(t, err)
		m2, err := b.BestMove(context.Background(), rules.StartFEN, 0)
		require.NoError(t, err)
		assert.Equal(t, m1, m2)
	}
}

func TestNoMoves(t *testing.T) {
	stalemate := "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"
	_, err := New(1).BestMove(context.Background(), stalemate, 0)
	assert.ErrorIs(t, err, engine.ErrNoMove)

	score, err := New(1).Evaluate(context.Background(), stalemate)
	require.NoError(t, err)
	assert.Equal(t, "+0.00", score.String())
	assert.Equal(t, "", score.Best)
}

func TestBadPositionAndCancel(t *testing.T) {
	_, err := New(1).BestMove(context.Background(), "nope", 0)
	var perr *rules.PositionError
	assert.True(t, errors.As(err, &perr))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, New(1).Connect(ctx), context.Canceled)
	_, err = New(1).BestMove(ctx, rules.StartFEN, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
