package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"
)

// Standard is the default Oracle, backed by github.com/corentings/chess/v2.
// Besides legality it answers the position queries a game session needs.
type Standard struct{}

func NewStandard() *Standard {
	return &Standard{}
}

func (s *Standard) Name() string {
	return "standard"
}

func (s *Standard) load(fen string) (*chess.Game, error) {
	if strings.TrimSpace(fen) == "" {
		return nil, &PositionError{FEN: fen, Err: errors.New("empty position")}
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, &PositionError{FEN: fen, Err: err}
	}
	return chess.NewGame(opt), nil
}

func (s *Standard) Check(token, fen string) (Handle, error) {
	g, err := s.load(fen)
	if err != nil {
		return nil, err
	}
	pos := g.Position()
	m, err := chess.AlgebraicNotation{}.Decode(pos, strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllegal, err)
	}
	return &standardMove{pos: pos, move: m}, nil
}

// Status reports whose turn it is and whether the game in fen has ended.
func (s *Standard) Status(fen string) (Status, error) {
	g, err := s.load(fen)
	if err != nil {
		return Status{}, err
	}
	pos := g.Position()
	st := Status{
		Turn:     fromChessColor(pos.Turn()),
		FullMove: FullMoveNumber(fen),
	}
	switch g.Method() {
	case chess.Checkmate:
		st.Ending = Checkmate
		st.Winner = st.Turn.Other()
	case chess.Stalemate:
		st.Ending = Stalemate
	case chess.InsufficientMaterial:
		st.Ending = InsufficientMaterial
	case chess.NoMethod:
	default:
		if g.Outcome() == chess.Draw {
			st.Ending = OtherDraw
		}
	}
	return st, nil
}

// LegalMoves lists every legal move in fen in SAN.
func (s *Standard) LegalMoves(fen string) ([]string, error) {
	g, err := s.load(fen)
	if err != nil {
		return nil, err
	}
	pos := g.Position()
	valid := g.ValidMoves()
	moves := make([]string, 0, len(valid))
	for i := range valid {
		moves = append(moves, chess.AlgebraicNotation{}.Encode(pos, &valid[i]))
	}
	return moves, nil
}

// SANFromUCI converts an engine move such as "e7e8q" to SAN for fen.
func (s *Standard) SANFromUCI(fen, uci string) (string, error) {
	g, err := s.load(fen)
	if err != nil {
		return "", err
	}
	pos := g.Position()
	valid := g.ValidMoves()
	for i := range valid {
		if (chess.UCINotation{}).Encode(pos, &valid[i]) == uci {
			return chess.AlgebraicNotation{}.Encode(pos, &valid[i]), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrIllegal, uci)
}

type standardMove struct {
	pos  *chess.Position
	move *chess.Move
}

func (m *standardMove) SAN() string {
	return chess.AlgebraicNotation{}.Encode(m.pos, m.move)
}

func (m *standardMove) UCI() string {
	return chess.UCINotation{}.Encode(m.pos, m.move)
}

func (m *standardMove) Traits() Traits {
	t := Traits{
		Capture:   m.move.HasTag(chess.Capture) || m.move.HasTag(chess.EnPassant),
		EnPassant: m.move.HasTag(chess.EnPassant),
		Check:     m.move.HasTag(chess.Check),
		Castle:    m.move.HasTag(chess.KingSideCastle) || m.move.HasTag(chess.QueenSideCastle),
		Promotion: m.move.Promo() != chess.NoPieceType,
	}
	if t.Check {
		if next := m.pos.Update(m.move); next != nil {
			t.Checkmate = next.Status() == chess.Checkmate
		}
	}
	return t
}

func (m *standardMove) Apply() (string, error) {
	next := m.pos.Update(m.move)
	if next == nil {
		return "", fmt.Errorf("apply %s: no resulting position", m.SAN())
	}
	return next.String(), nil
}

func fromChessColor(c chess.Color) Color {
	switch c {
	case chess.White:
		return White
	case chess.Black:
		return Black
	}
	return NoColor
}
