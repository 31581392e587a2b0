package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dylhunn/dragontoothmg"

	"termchess-local/notation"
)

// Bitboard is an Oracle built on the dragontoothmg move generator. It matches the
// parsed SAN descriptor against the generated legal moves instead of decoding SAN itself.
type Bitboard struct{}

func NewBitboard() *Bitboard {
	return &Bitboard{}
}

func (b *Bitboard) Name() string {
	return "bitboard"
}

func (b *Bitboard) Check(token, fen string) (Handle, error) {
	desc, err := notation.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllegal, err)
	}
	board, err := LoadBoard(fen)
	if err != nil {
		return nil, err
	}

	var matches []dragontoothmg.Move
	for _, mv := range board.GenerateLegalMoves() {
		if matchDescriptor(&board, mv, desc) {
			matches = append(matches, mv)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: no legal move matches %s", ErrIllegal, desc.Token)
	case 1:
		return &bitboardMove{board: board, move: matches[0], desc: desc}, nil
	}
	return nil, fmt.Errorf("%w: %s is ambiguous (%d candidates)", ErrIllegal, desc.Token, len(matches))
}

// LoadBoard parses fen for dragontoothmg. Malformed input is rejected up front, since the
// library panics on it or silently misreads it.
func LoadBoard(fen string) (board dragontoothmg.Board, err error) {
	if err := checkFEN(fen); err != nil {
		return board, &PositionError{FEN: fen, Err: err}
	}
	defer func() {
		if r := recover(); r != nil {
			err = &PositionError{FEN: fen, Err: fmt.Errorf("%v", r)}
		}
	}()
	return dragontoothmg.ParseFen(fen), nil
}

func checkFEN(fen string) error {
	fields := strings.Fields(fen)
	if len(fields) != 6 {
		return fmt.Errorf("expected 6 fields, got %d", len(fields))
	}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return fmt.Errorf("expected 8 ranks, got %d", len(ranks))
	}
	kings := map[rune]int{}
	for _, rank := range ranks {
		n := 0
		for _, c := range rank {
			switch {
			case c >= '1' && c <= '8':
				n += int(c - '0')
			case strings.ContainsRune("pnbrqkPNBRQK", c):
				n++
				if c == 'k' || c == 'K' {
					kings[c]++
				}
			default:
				return fmt.Errorf("bad piece %q", c)
			}
		}
		if n != 8 {
			return fmt.Errorf("rank %q has %d squares", rank, n)
		}
	}
	if kings['K'] != 1 || kings['k'] != 1 {
		return errors.New("each side needs exactly one king")
	}
	if fields[1] != "w" && fields[1] != "b" {
		return fmt.Errorf("bad side to move %q", fields[1])
	}
	if fields[2] != "-" && strings.Trim(fields[2], "KQkq") != "" {
		return fmt.Errorf("bad castling rights %q", fields[2])
	}
	if fields[3] != "-" && !notation.IsSquare(fields[3]) {
		return fmt.Errorf("bad en passant square %q", fields[3])
	}
	for _, f := range fields[4:] {
		if _, err := strconv.Atoi(f); err != nil {
			return fmt.Errorf("bad move counter %q", f)
		}
	}
	return nil
}

func matchDescriptor(board *dragontoothmg.Board, mv dragontoothmg.Move, desc notation.Move) bool {
	from, to := mv.From(), mv.To()
	piece := pieceOn(board, from)
	castling := piece == notation.King && absDiff(fileOf(from), fileOf(to)) == 2

	if desc.IsCastle() {
		if !castling {
			return false
		}
		return (desc.Castle == notation.Kingside) == (fileOf(to) > fileOf(from))
	}
	if castling || piece != desc.Piece || SquareName(to) != desc.Destination {
		return false
	}
	name := SquareName(from)
	if desc.FromFile != 0 && name[0] != desc.FromFile {
		return false
	}
	if desc.FromRank != 0 && name[1] != desc.FromRank {
		return false
	}
	if fromDragonPiece(mv.Promote()) != desc.Promotion {
		return false
	}
	if desc.Capture && !isCapture(board, mv) {
		return false
	}
	return true
}

// pieceOn returns the side-to-move's piece on sq.
func pieceOn(board *dragontoothmg.Board, sq uint8) notation.Piece {
	bbs := &board.White
	if !board.Wtomove {
		bbs = &board.Black
	}
	bit := uint64(1) << sq
	switch {
	case bbs.Pawns&bit != 0:
		return notation.Pawn
	case bbs.Knights&bit != 0:
		return notation.Knight
	case bbs.Bishops&bit != 0:
		return notation.Bishop
	case bbs.Rooks&bit != 0:
		return notation.Rook
	case bbs.Queens&bit != 0:
		return notation.Queen
	case bbs.Kings&bit != 0:
		return notation.King
	}
	return notation.NoPiece
}

// isCapture extends dragontoothmg.IsCapture with en passant.
func isCapture(board *dragontoothmg.Board, mv dragontoothmg.Move) bool {
	return dragontoothmg.IsCapture(mv, board) || isEnPassant(board, mv)
}

func isEnPassant(board *dragontoothmg.Board, mv dragontoothmg.Move) bool {
	from, to := mv.From(), mv.To()
	if pieceOn(board, from) != notation.Pawn || fileOf(from) == fileOf(to) {
		return false
	}
	return (board.White.All|board.Black.All)&(uint64(1)<<to) == 0
}

func fromDragonPiece(p dragontoothmg.Piece) notation.Piece {
	switch p {
	case dragontoothmg.Knight:
		return notation.Knight
	case dragontoothmg.Bishop:
		return notation.Bishop
	case dragontoothmg.Rook:
		return notation.Rook
	case dragontoothmg.Queen:
		return notation.Queen
	}
	return notation.NoPiece
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

type bitboardMove struct {
	board dragontoothmg.Board
	move  dragontoothmg.Move
	desc  notation.Move
}

func (m *bitboardMove) after() dragontoothmg.Board {
	next := m.board
	next.Apply(m.move)
	return next
}

func (m *bitboardMove) SAN() string {
	t := m.Traits()
	san := m.desc
	san.Token = ""
	san.Check = t.Check && !t.Checkmate
	san.Checkmate = t.Checkmate
	if !san.IsCastle() {
		san.Capture = t.Capture
		san.FromRank = 0
		san.FromFile = 0
		from := SquareName(m.move.From())
		switch {
		case san.Piece == notation.Pawn:
			if t.Capture {
				san.FromFile = from[0]
			}
		case san.Piece != notation.King:
			san.FromFile, san.FromRank = m.disambiguation(from)
		}
	}
	return san.String()
}

// disambiguation returns the origin file and rank SAN needs to tell this move
// apart from other legal moves of the same piece kind to the same square.
func (m *bitboardMove) disambiguation(from string) (file, rank byte) {
	board := m.board
	piece := pieceOn(&board, m.move.From())
	var rivals, sameFile, sameRank int
	for _, mv := range board.GenerateLegalMoves() {
		if mv.To() != m.move.To() || mv.From() == m.move.From() || pieceOn(&board, mv.From()) != piece {
			continue
		}
		rivals++
		other := SquareName(mv.From())
		if other[0] == from[0] {
			sameFile++
		}
		if other[1] == from[1] {
			sameRank++
		}
	}
	switch {
	case rivals == 0:
		return 0, 0
	case sameFile == 0:
		return from[0], 0
	case sameRank == 0:
		return 0, from[1]
	}
	return from[0], from[1]
}

func (m *bitboardMove) UCI() string {
	mv := m.move
	return mv.String()
}

func (m *bitboardMove) Traits() Traits {
	board := m.board
	from, to := m.move.From(), m.move.To()
	piece := pieceOn(&board, from)
	t := Traits{
		Capture:   isCapture(&board, m.move),
		EnPassant: isEnPassant(&board, m.move),
		Castle:    piece == notation.King && absDiff(fileOf(from), fileOf(to)) == 2,
		Promotion: m.move.Promote() > 0,
	}
	next := m.after()
	if next.OurKingInCheck() {
		t.Check = true
		t.Checkmate = len(next.GenerateLegalMoves()) == 0
	}
	return t
}

func (m *bitboardMove) Apply() (string, error) {
	next := m.after()
	return next.ToFen(), nil
}
