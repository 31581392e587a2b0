package record

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corentings/chess/v2"
)

// GameInfo holds metadata parsed from a PGN file's tags.
type GameInfo struct {
	FilePath  string
	FileName  string
	White     string
	Black     string
	Date      string
	Result    string
	SessionID string
	StartFEN  string
	MoveCount int
}

func readGame(filePath string) (*chess.Game, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	opt, err := chess.PGN(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(filePath), err)
	}
	return chess.NewGame(opt), nil
}

// ParseHeader reads a PGN file and extracts its tags.
func ParseHeader(filePath string) (*GameInfo, error) {
	g, err := readGame(filePath)
	if err != nil {
		return nil, err
	}
	return &GameInfo{
		FilePath:  filePath,
		FileName:  filepath.Base(filePath),
		White:     g.GetTagPair("White"),
		Black:     g.GetTagPair("Black"),
		Date:      g.GetTagPair("Date"),
		Result:    g.GetTagPair("Result"),
		SessionID: g.GetTagPair("SessionID"),
		StartFEN:  g.GetTagPair("FEN"),
		MoveCount: len(g.Moves()),
	}, nil
}

// Load returns the moves of a saved game in SAN, along with its start position
// (empty for the standard start).
func Load(filePath string) ([]string, string, error) {
	g, err := readGame(filePath)
	if err != nil {
		return nil, "", err
	}
	start := g.GetTagPair("FEN")
	replay, err := newGame(start)
	if err != nil {
		return nil, "", err
	}
	pos := replay.Position()
	var moves []string
	for _, m := range g.Moves() {
		moves = append(moves, chess.AlgebraicNotation{}.Encode(pos, m))
		pos = pos.Update(m)
	}
	return moves, start, nil
}

// List scans a directory for .pgn files and returns their parsed headers,
// sorted newest-first (by filename, which contains timestamps).
func List(dir string) ([]GameInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read games dir: %w", err)
	}

	var games []GameInfo
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".pgn") {
			continue
		}
		info, err := ParseHeader(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		games = append(games, *info)
	}
	return games, nil
}
