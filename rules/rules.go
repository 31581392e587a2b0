// Package rules answers chess-rules questions on behalf of the rest of the program.
//
// Move legality is delegated to an Oracle. Two implementations exist: Standard, backed by
// github.com/corentings/chess/v2, and Bitboard, backed by github.com/dylhunn/dragontoothmg.
// Which one a session uses is chosen from configuration through Kind.
package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrIllegal is returned by Oracle.Check when a token is understood but no legal
// move in the position matches it.
var ErrIllegal = errors.New("illegal move")

// PositionError reports a position descriptor the oracle could not load.
type PositionError struct {
	FEN string
	Err error
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("invalid position %q: %v", e.FEN, e.Err)
}

func (e *PositionError) Unwrap() error { return e.Err }

// Oracle decides whether a SAN token is playable in a position.
type Oracle interface {
	// Check returns an applyable Handle for a legal move. It returns an error
	// wrapping ErrIllegal when the move cannot be played, or a *PositionError
	// when fen cannot be loaded.
	Check(token, fen string) (Handle, error)
	Name() string
}

// Handle is a move confirmed legal by an Oracle, bound to the position it was checked in.
type Handle interface {
	SAN() string
	UCI() string
	Traits() Traits
	// Apply returns the position after the move.
	Apply() (string, error)
}

// Traits describes what a legal move does on the board.
type Traits struct {
	Capture   bool
	EnPassant bool
	Check     bool
	Checkmate bool
	Castle    bool
	Promotion bool
}

// Kind selects an Oracle implementation.
type Kind uint8

const (
	KindStandard Kind = iota
	KindBitboard
)

func (k Kind) String() string {
	switch k {
	case KindStandard:
		return "standard"
	case KindBitboard:
		return "bitboard"
	}
	return "unknown"
}

// ParseKind maps a configuration string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard":
		return KindStandard, nil
	case "bitboard":
		return KindBitboard, nil
	}
	return 0, fmt.Errorf("unknown rules oracle %q", s)
}

// New returns the Oracle for kind.
func New(kind Kind) (Oracle, error) {
	switch kind {
	case KindStandard:
		return NewStandard(), nil
	case KindBitboard:
		return NewBitboard(), nil
	}
	return nil, fmt.Errorf("unknown rules oracle %d", kind)
}

// Color is a side.
type Color uint8

const (
	NoColor Color = iota
	White
	Black
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	}
	return ""
}

// Other returns the opposing side.
func (c Color) Other() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	}
	return NoColor
}

// ParseColor accepts "white", "w", "black" and "b".
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return NoColor, fmt.Errorf("unknown color %q", s)
}

// Ending is the way a game has finished, if it has.
type Ending uint8

const (
	InProgress Ending = iota
	Checkmate
	Stalemate
	InsufficientMaterial
	OtherDraw
)

// Status summarises a position.
type Status struct {
	Turn     Color
	FullMove int
	Ending   Ending
	Winner   Color
}

// Over reports whether the game has ended.
func (s Status) Over() bool {
	return s.Ending != InProgress
}

// String describes the status for display, e.g. "White wins by checkmate".
func (s Status) String() string {
	switch s.Ending {
	case Checkmate:
		w := s.Winner.String()
		return strings.ToUpper(w[:1]) + w[1:] + " wins by checkmate"
	case Stalemate:
		return "Draw by stalemate"
	case InsufficientMaterial:
		return "Draw by insufficient material"
	case OtherDraw:
		return "Draw"
	}
	return "Game in progress"
}

// FullMoveNumber reads the sixth FEN field, defaulting to 1.
func FullMoveNumber(fen string) int {
	fields := strings.Fields(fen)
	if len(fields) < 6 {
		return 1
	}
	n, err := strconv.Atoi(fields[5])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// SideToMove reads the second FEN field without loading the position.
func SideToMove(fen string) Color {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return NoColor
	}
	switch fields[1] {
	case "w":
		return White
	case "b":
		return Black
	}
	return NoColor
}
