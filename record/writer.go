// Package record writes and reads chess game records as PGN.
package record

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/corentings/chess/v2"

	"termchess-local/rules"
)

// Header holds the PGN tags of a record.
type Header struct {
	SessionID string
	White     string
	Black     string
	Date      time.Time
	StartFEN  string // empty for the standard start
	Result    string
}

// Record tracks a game in progress and keeps it written to disk as PGN.
type Record struct {
	FilePath string
	Header   Header
	moves    []string
	file     *os.File
	mu       sync.Mutex
}

// New creates a new PGN file in dir and writes the initial header.
func New(dir string, h Header) (*Record, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create games dir: %w", err)
	}
	if h.Date.IsZero() {
		h.Date = time.Now()
	}
	if h.Result == "" {
		h.Result = "*"
	}

	short := h.SessionID
	if len(short) > 8 {
		short = short[:8]
	}
	filename := h.Date.Format("2006-01-02_150405") + ".pgn"
	if short != "" {
		filename = fmt.Sprintf("%s_%s.pgn", h.Date.Format("2006-01-02_150405"), short)
	}
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create pgn file: %w", err)
	}

	rec := &Record{FilePath: path, Header: h, file: f}
	if err := rec.flush(); err != nil {
		f.Close()
		return nil, err
	}
	return rec, nil
}

// Update replaces the recorded moves and result and rewrites the file.
func (r *Record) Update(moves []string, st rules.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moves = append([]string(nil), moves...)
	r.Header.Result = ResultFor(st)
	return r.flush()
}

// Close performs a final flush and closes the file handle.
func (r *Record) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.flush()
	r.file.Close()
	r.file = nil
	return err
}

// flush rewrites the complete PGN file from scratch.
func (r *Record) flush() error {
	if r.file == nil {
		return fmt.Errorf("file already closed")
	}
	content, err := Encode(r.Header, r.moves)
	if err != nil {
		return err
	}
	if _, err := r.file.Seek(0, 0); err != nil {
		return err
	}
	if err := r.file.Truncate(0); err != nil {
		return err
	}
	if _, err := r.file.WriteString(content + "\n"); err != nil {
		return err
	}
	return r.file.Sync()
}

// Encode renders a game as PGN text. Moves are SAN from the header's start position.
func Encode(h Header, moves []string) (string, error) {
	g, err := newGame(h.StartFEN)
	if err != nil {
		return "", err
	}
	for i, san := range moves {
		if err := g.PushNotationMove(san, chess.AlgebraicNotation{}, nil); err != nil {
			return "", fmt.Errorf("move %d (%s): %w", i+1, san, err)
		}
	}

	date := h.Date
	if date.IsZero() {
		date = time.Now()
	}
	result := h.Result
	if result == "" {
		result = "*"
	}
	g.AddTagPair("Event", "Casual game")
	g.AddTagPair("Site", "termchess-local")
	g.AddTagPair("Date", date.Format("2006.01.02"))
	g.AddTagPair("Round", "-")
	g.AddTagPair("White", orUnknown(h.White))
	g.AddTagPair("Black", orUnknown(h.Black))
	g.AddTagPair("Result", result)
	if h.SessionID != "" {
		g.AddTagPair("SessionID", h.SessionID)
	}
	if h.StartFEN != "" && h.StartFEN != rules.StartFEN {
		g.AddTagPair("SetUp", "1")
		g.AddTagPair("FEN", h.StartFEN)
	}
	return g.String(), nil
}

// ResultFor maps a position status to a PGN result token.
func ResultFor(st rules.Status) string {
	switch st.Ending {
	case rules.Checkmate:
		if st.Winner == rules.White {
			return "1-0"
		}
		return "0-1"
	case rules.Stalemate, rules.InsufficientMaterial, rules.OtherDraw:
		return "1/2-1/2"
	}
	return "*"
}

func newGame(startFEN string) (*chess.Game, error) {
	if startFEN == "" || startFEN == rules.StartFEN {
		return chess.NewGame(), nil
	}
	opt, err := chess.FEN(startFEN)
	if err != nil {
		return nil, &rules.PositionError{FEN: startFEN, Err: err}
	}
	return chess.NewGame(opt), nil
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
