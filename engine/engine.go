// Package engine defines the interface for computer opponents.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Engine picks and scores moves. Positions are FEN strings and moves are in UCI
// coordinate notation ("e2e4", "e7e8q").
type Engine interface {
	// Connect starts the engine and prepares it for a new game.
	Connect(ctx context.Context) error

	// BestMove returns the move the engine would play in fen, searching for at most think.
	BestMove(ctx context.Context, fen string, think time.Duration) (string, error)

	// Evaluate scores fen from the point of view of the side to move.
	Evaluate(ctx context.Context, fen string) (Score, error)

	// Close shuts the engine down. It is safe to call more than once.
	Close() error
}

// ErrNoMove is returned by BestMove when the side to move has no legal move.
var ErrNoMove = errors.New("engine has no move")

// Kind selects an Engine implementation.
type Kind uint8

const (
	KindUCI Kind = iota
	KindRandom
)

func (k Kind) String() string {
	switch k {
	case KindUCI:
		return "uci"
	case KindRandom:
		return "random"
	}
	return "unknown"
}

// ParseKind maps a configuration string to a Kind. "stockfish" is accepted as an alias for "uci".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "uci", "stockfish":
		return KindUCI, nil
	case "random":
		return KindRandom, nil
	}
	return 0, fmt.Errorf("unknown opponent %q", s)
}

// MaxDifficulty is full engine strength.
const MaxDifficulty = 20

// Config holds configuration for starting an engine.
type Config struct {
	Kind       Kind
	Path       string        // Path to the UCI binary
	Difficulty int           // 0-20, 20 is unrestricted
	ThinkTime  time.Duration // Per-move search time
	EvalDepth  int           // Search depth for Evaluate
}

// DefaultConfig returns a reasonable default configuration.
func DefaultConfig() Config {
	return Config{
		Kind:       KindUCI,
		Path:       "stockfish",
		Difficulty: 10,
		ThinkTime:  3 * time.Second,
		EvalDepth:  12,
	}
}

// ClampDifficulty forces d into 0..MaxDifficulty.
func ClampDifficulty(d int) int {
	if d < 0 {
		return 0
	}
	if d > MaxDifficulty {
		return MaxDifficulty
	}
	return d
}

// Elo is the rating a limited-strength engine is asked to play at for difficulty d.
func Elo(d int) int {
	return 800 + 100*ClampDifficulty(d)
}

// Available reports whether the engine binary at path can be found.
func Available(path string) error {
	if _, err := exec.LookPath(path); err != nil {
		return fmt.Errorf("engine %q not found: %w", path, err)
	}
	return nil
}

// Score is an evaluation in centipawns or as a forced mate, from the side to move's view.
// Exactly one of CP and Mate is set.
type Score struct {
	CP   *int
	Mate *int
	Best string
}

// String renders the score as "+0.35", "-1.20" or "#3" / "#-2".
func (s Score) String() string {
	switch {
	case s.Mate != nil:
		return fmt.Sprintf("#%d", *s.Mate)
	case s.CP != nil:
		return fmt.Sprintf("%+.2f", float64(*s.CP)/100)
	}
	return "?"
}

// Centipawns is a convenience constructor for a CP score.
func Centipawns(cp int, best string) Score {
	return Score{CP: &cp, Best: best}
}

// MateIn is a convenience constructor for a mate score.
func MateIn(n int, best string) Score {
	return Score{Mate: &n, Best: best}
}
