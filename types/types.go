// Package types contains shared data structures for termchess-local.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// BoardState is a display-oriented view of a position.
// Squares are indexed a1=0, b1=1 ... h8=63 and hold a FEN piece letter, or 0 when empty.
type BoardState struct {
	FEN         string   `json:"fen"`
	Squares     [64]byte `json:"-"`
	Rows        []string `json:"rows"` // rank 8 first, '.' for empty, as in FEN without run lengths
	WhiteToMove bool     `json:"white_to_move"`
	MoveNumber  int      `json:"move_number"`
	Phase       string   `json:"phase"` // "playing", "finished"
	Outcome     string   `json:"outcome"`
	LastMove    struct {
		From int `json:"from"`
		To   int `json:"to"`
	} `json:"last_move"`
}

// Finished returns true if the game is over.
func (b *BoardState) Finished() bool {
	return b.Phase == "finished"
}

// At returns the piece letter on the square at file x (0=a), rank y (0=1).
func (b *BoardState) At(x, y int) byte {
	if x < 0 || x > 7 || y < 0 || y > 7 {
		return 0
	}
	return b.Squares[y*8+x]
}

// BoardPos represents a square as file x (0=a) and rank y (0=1).
type BoardPos struct {
	X int
	Y int
}

// Square returns the 0..63 index of p.
func (p BoardPos) Square() int {
	return p.Y*8 + p.X
}

// String returns the algebraic name, such as "e4".
func (p BoardPos) String() string {
	return fmt.Sprintf("%c%d", 'a'+p.X, p.Y+1)
}

// NewBoardState builds the display state for fen. lastMove is the UCI text of the move
// that led to it, or "".
func NewBoardState(fen, lastMove string) (*BoardState, error) {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return nil, fmt.Errorf("invalid FEN %q", fen)
	}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("invalid FEN %q: want 8 ranks", fen)
	}

	state := &BoardState{FEN: fen, WhiteToMove: fields[1] == "w", MoveNumber: 1, Phase: "playing"}
	state.LastMove.From, state.LastMove.To = -1, -1
	for i, rank := range ranks {
		y := 7 - i
		x := 0
		row := make([]byte, 0, 8)
		for _, ch := range []byte(rank) {
			if ch >= '1' && ch <= '8' {
				for n := 0; n < int(ch-'0'); n++ {
					row = append(row, '.')
				}
				x += int(ch - '0')
				continue
			}
			if x > 7 {
				return nil, fmt.Errorf("invalid FEN %q: rank %d too long", fen, y+1)
			}
			state.Squares[y*8+x] = ch
			row = append(row, ch)
			x++
		}
		if x != 8 {
			return nil, fmt.Errorf("invalid FEN %q: rank %d has %d squares", fen, y+1, x)
		}
		state.Rows = append(state.Rows, string(row))
	}
	if len(fields) >= 6 {
		if n, err := strconv.Atoi(fields[5]); err == nil && n > 0 {
			state.MoveNumber = n
		}
	}
	if len(lastMove) >= 4 {
		state.LastMove.From = squareIndex(lastMove[0:2])
		state.LastMove.To = squareIndex(lastMove[2:4])
	}
	return state, nil
}

func squareIndex(s string) int {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return -1
	}
	return int(s[1]-'1')*8 + int(s[0]-'a')
}
