package server

import (
	"encoding/json"

	"termchess-local/game"
	"termchess-local/notation"
	"termchess-local/types"
	"termchess-local/validator"
)

// MessageType is the kind of a websocket message.
type MessageType string

const (
	MessageTypeMove      MessageType = "move"
	MessageTypeUndo      MessageType = "undo"
	MessageTypeRedo      MessageType = "redo"
	MessageTypeGameState MessageType = "gameState"
	MessageTypeError     MessageType = "error"
)

// Message is the envelope of every websocket frame.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type moveRequest struct {
	SAN string `json:"san"`
	UCI string `json:"uci"`
}

type validateRequest struct {
	SAN   string `json:"san"`
	FEN   string `json:"fen"`
	Rules string `json:"rules"`
}

type createRequest struct {
	FEN   string `json:"fen"`
	Rules string `json:"rules"`
}

// MoveJSON is a parsed SAN token.
type MoveJSON struct {
	Token       string `json:"token"`
	SAN         string `json:"san"`
	Piece       string `json:"piece"`
	Destination string `json:"destination,omitempty"`
	FromFile    string `json:"from_file,omitempty"`
	FromRank    string `json:"from_rank,omitempty"`
	Capture     bool   `json:"capture"`
	Check       bool   `json:"check"`
	Checkmate   bool   `json:"checkmate"`
	Castle      string `json:"castle,omitempty"`
	Promotion   string `json:"promotion,omitempty"`
}

func moveJSON(m notation.Move) MoveJSON {
	out := MoveJSON{
		Token:       m.Token,
		SAN:         m.String(),
		Piece:       m.Piece.String(),
		Destination: m.Destination,
		Capture:     m.Capture,
		Check:       m.Check,
		Checkmate:   m.Checkmate,
		Castle:      m.Castle.String(),
		Promotion:   m.Promotion.String(),
	}
	if m.FromFile != 0 {
		out.FromFile = string(m.FromFile)
	}
	if m.FromRank != 0 {
		out.FromRank = string(m.FromRank)
	}
	return out
}

// ValidationJSON is a validator.Result. Legal is present only when a position was given.
type ValidationJSON struct {
	Valid bool      `json:"valid"`
	Legal *bool     `json:"legal,omitempty"`
	Move  *MoveJSON `json:"move,omitempty"`
	UCI   string    `json:"uci,omitempty"`
	Error string    `json:"error,omitempty"`
}

func validationJSON(res validator.Result) ValidationJSON {
	out := ValidationJSON{Valid: res.Valid}
	if res.Valid {
		m := moveJSON(res.Move)
		out.Move = &m
	}
	if res.Checked {
		legal := res.Legal
		out.Legal = &legal
	}
	if res.Handle != nil {
		out.UCI = res.Handle.UCI()
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// GameState is what clients see of a session.
type GameState struct {
	ID      string            `json:"id"`
	Board   *types.BoardState `json:"board"`
	Moves   []string          `json:"moves"`
	Status  string            `json:"status"`
	CanUndo bool              `json:"can_undo"`
	CanRedo bool              `json:"can_redo"`
}

func gameState(s *game.Session) (GameState, error) {
	snap := s.Current()
	board, err := types.NewBoardState(snap.FEN, snap.LastMove)
	if err != nil {
		return GameState{}, err
	}
	st, err := s.Status()
	if err != nil {
		return GameState{}, err
	}
	if st.Over() {
		board.Phase = "finished"
		board.Outcome = st.String()
	}
	moves := snap.Moves
	if moves == nil {
		moves = []string{}
	}
	return GameState{
		ID:      s.ID(),
		Board:   board,
		Moves:   moves,
		Status:  st.String(),
		CanUndo: s.CanUndo(),
		CanRedo: s.CanRedo(),
	}, nil
}
