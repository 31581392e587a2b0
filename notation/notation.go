// Package notation parses chess moves written in Standard Algebraic Notation.
//
// Parsing is purely syntactic: the parser never looks at a board, so "Ke4" from the
// starting position parses fine. Legality is the job of package validator.
package notation

import (
	"errors"
	"fmt"
	"strings"
)

// Piece is the kind of piece a move is made with, or a promotion target.
type Piece uint8

const (
	NoPiece Piece = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceNames = [...]string{"", "pawn", "knight", "bishop", "rook", "queen", "king"}
var pieceLetters = [...]string{"", "", "N", "B", "R", "Q", "K"}

// String returns the lowercase piece name ("knight"), or "" for NoPiece.
func (p Piece) String() string {
	if int(p) >= len(pieceNames) {
		return ""
	}
	return pieceNames[p]
}

// Letter returns the SAN letter for the piece. Pawns have none.
func (p Piece) Letter() string {
	if int(p) >= len(pieceLetters) {
		return ""
	}
	return pieceLetters[p]
}

// PieceFromLetter maps an uppercase SAN letter to a piece.
func PieceFromLetter(r byte) (Piece, bool) {
	switch r {
	case 'K':
		return King, true
	case 'Q':
		return Queen, true
	case 'R':
		return Rook, true
	case 'B':
		return Bishop, true
	case 'N':
		return Knight, true
	}
	return NoPiece, false
}

// Castle identifies castling moves.
type Castle uint8

const (
	NoCastle Castle = iota
	Kingside
	Queenside
)

func (c Castle) String() string {
	switch c {
	case Kingside:
		return "kingside"
	case Queenside:
		return "queenside"
	}
	return ""
}

// Move describes a parsed SAN token.
//
// Exactly one of a destination square or a castle side is set. FromFile and FromRank
// hold disambiguation characters ('a'-'h', '1'-'8') and are zero when absent.
type Move struct {
	Token       string
	Piece       Piece
	Destination string
	FromFile    byte
	FromRank    byte
	Capture     bool
	Check       bool
	Checkmate   bool
	Castle      Castle
	Promotion   Piece
}

// IsCastle reports whether the move is O-O or O-O-O.
func (m Move) IsCastle() bool {
	return m.Castle != NoCastle
}

// String re-encodes the move in SAN.
func (m Move) String() string {
	var sb strings.Builder
	switch m.Castle {
	case Kingside:
		sb.WriteString("O-O")
	case Queenside:
		sb.WriteString("O-O-O")
	default:
		sb.WriteString(m.Piece.Letter())
		if m.FromFile != 0 {
			sb.WriteByte(m.FromFile)
		}
		if m.FromRank != 0 {
			sb.WriteByte(m.FromRank)
		}
		if m.Capture {
			sb.WriteByte('x')
		}
		sb.WriteString(m.Destination)
		if m.Promotion != NoPiece {
			sb.WriteByte('=')
			sb.WriteString(m.Promotion.Letter())
		}
	}
	if m.Checkmate {
		sb.WriteByte('#')
	} else if m.Check {
		sb.WriteByte('+')
	}
	return sb.String()
}

// SyntaxError reports a malformed SAN token.
type SyntaxError struct {
	Token  string
	Reason string
	Detail string
}

func (e *SyntaxError) Error() string {
	if e.Detail == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func syntaxErr(token, reason, detail string) error {
	return &SyntaxError{Token: token, Reason: reason, Detail: detail}
}

// Parse turns a SAN token such as "Nxf7+", "e8=Q" or "O-O" into a Move.
// Every malformed token yields a *SyntaxError; Parse never panics.
func Parse(token string) (Move, error) {
	san := strings.TrimSpace(token)
	if san == "" {
		return Move{}, syntaxErr(token, "empty notation", "")
	}
	m := Move{Token: san}

	if strings.HasSuffix(san, "#") {
		m.Checkmate = true
		san = san[:len(san)-1]
	} else if strings.HasSuffix(san, "+") {
		m.Check = true
		san = san[:len(san)-1]
	}

	switch san {
	case "O-O":
		m.Piece = King
		m.Castle = Kingside
		return m, nil
	case "O-O-O":
		m.Piece = King
		m.Castle = Queenside
		return m, nil
	}

	if i := strings.LastIndexByte(san, '='); i >= 0 {
		promo := san[i+1:]
		p, ok := NoPiece, false
		if len(promo) == 1 {
			p, ok = PieceFromLetter(promo[0])
		}
		if !ok || p == King {
			return Move{}, syntaxErr(token, "invalid promotion piece", promo)
		}
		m.Promotion = p
		san = san[:i]
	}

	var piecePart, dest string
	if strings.Contains(san, "x") {
		parts := strings.Split(san, "x")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return Move{}, syntaxErr(token, "invalid capture notation", san)
		}
		m.Capture = true
		piecePart, dest = parts[0], parts[1]
	} else {
		if len(san) < 2 {
			return Move{}, syntaxErr(token, "invalid destination square", san)
		}
		piecePart, dest = san[:len(san)-2], san[len(san)-2:]
	}

	if !IsSquare(dest) {
		return Move{}, syntaxErr(token, "invalid destination square", dest)
	}
	m.Destination = dest

	if err := classify(&m, piecePart); err != nil {
		return Move{}, syntaxErr(token, "invalid piece notation", piecePart)
	}
	return m, nil
}

// MustParse is like Parse but panics if the token is malformed. Use it for
// notation known at compile time, not for user input.
func MustParse(token string) Move {
	m, err := Parse(token)
	if err != nil {
		panic(fmt.Sprintf("notation: Parse(%q): %v", token, err))
	}
	return m
}

// classify fills in the moving piece and disambiguation from the text before the
// destination. Accepted shapes:
//
//	""        pawn
//	"e"       pawn, from the e-file
//	"N"       knight (likewise K Q R B)
//	"Nb"      knight from the b-file
//	"N1"      knight from the first rank
//	"Nb1"     knight from b1
func classify(m *Move, part string) error {
	if part == "" {
		m.Piece = Pawn
		return nil
	}
	if len(part) == 1 && isFile(part[0]) {
		m.Piece = Pawn
		m.FromFile = part[0]
		return nil
	}
	p, ok := PieceFromLetter(part[0])
	if !ok {
		return errBadPiece
	}
	m.Piece = p
	rest := part[1:]
	if len(rest) > 0 && isFile(rest[0]) {
		m.FromFile = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 0 && isRank(rest[0]) {
		m.FromRank = rest[0]
		rest = rest[1:]
	}
	if rest != "" {
		m.FromFile, m.FromRank = 0, 0
		return errBadPiece
	}
	return nil
}

var errBadPiece = errors.New("bad piece part")

// IsSquare reports whether s names a board square, "a1" through "h8".
func IsSquare(s string) bool {
	return len(s) == 2 && isFile(s[0]) && isRank(s[1])
}

func isFile(b byte) bool { return b >= 'a' && b <= 'h' }
func isRank(b byte) bool { return b >= '1' && b <= '8' }
