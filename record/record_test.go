package record

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termchess-local/rules"
)

var scholarsMate = []string{"e4", "e5", "Qh5", "Nc6", "Bc4", "Nf6", "Qxf7#"}

func TestResultFor(t *testing.T) {
	tests := []struct {
		st   rules.Status
		want string
	}{
		{rules.Status{}, "*"},
		{rules.Status{Ending: rules.Checkmate, Winner: rules.White}, "1-0"},
		{rules.Status{Ending: rules.Checkmate, Winner: rules.Black}, "0-1"},
		{rules.Status{Ending: rules.Stalemate}, "1/2-1/2"},
		{rules.Status{Ending: rules.InsufficientMaterial}, "1/2-1/2"},
		{rules.Status{Ending: rules.OtherDraw}, "1/2-1/2"},
	}
	for _, tt := range tests {
		if got := ResultFor(tt.st); got != tt.want {
			t.Errorf("ResultFor(%+v) = %q, want %q", tt.st, got, tt.want)
		}
	}
}

func TestRecordLifecycle(t *testing.T) {
	dir := t.TempDir()
	rec, err := New(dir, Header{
		SessionID: "0b5c3e0e-1111-2222-3333-444455556666",
		White:     "Player",
		Black:     "Stockfish (level 5)",
		Date:      time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2024-03-09_143000_0b5c3e0e.pgn"), rec.FilePath)

	data, err := os.ReadFile(rec.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `[SessionID "0b5c3e0e-1111-2222-3333-444455556666"]`)
	assert.Contains(t, string(data), `[Result "*"]`)

	require.NoError(t, rec.Update(scholarsMate[:2], rules.Status{}))
	require.NoError(t, rec.Update(scholarsMate, rules.Status{Ending: rules.Checkmate, Winner: rules.White}))
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close())

	data, err = os.ReadFile(rec.FilePath)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `[Result "1-0"]`)
	assert.Contains(t, text, `[Date "2024.03.09"]`)
	assert.Contains(t, text, "Qxf7#")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(text), "1-0"))

	info, err := ParseHeader(rec.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "Player", info.White)
	assert.Equal(t, "Stockfish (level 5)", info.Black)
	assert.Equal(t, "1-0", info.Result)
	assert.Equal(t, 7, info.MoveCount)
	assert.Equal(t, "0b5c3e0e-1111-2222-3333-444455556666", info.SessionID)

	moves, start, err := Load(rec.FilePath)
	require.NoError(t, err)
	assert.Equal(t, scholarsMate, moves)
	assert.Equal(t, "", start)
}

func TestUndoShrinksRecord(t *testing.T) {
	rec, err := New(t.TempDir(), Header{White: "Player", Black: "Random"})
	require.NoError(t, err)
	defer rec.Close()

	require.NoError(t, rec.Update([]string{"d4", "d5", "c4"}, rules.Status{}))
	require.NoError(t, rec.Update([]string{"d4"}, rules.Status{}))

	moves, _, err := Load(rec.FilePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"d4"}, moves)
}

func TestEncodeCustomStart(t *testing.T) {
	fen := "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"
	text, err := Encode(Header{StartFEN: fen}, []string{"O-O", "O-O-O"})
	require.NoError(t, err)
	assert.Contains(t, text, `[SetUp "1"]`)
	assert.Contains(t, text, `[FEN "`+fen+`"]`)

	path := filepath.Join(t.TempDir(), "custom.pgn")
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	moves, start, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, fen, start)
	assert.Equal(t, []string{"O-O", "O-O-O"}, moves)
}

func TestEncodeRejectsIllegalMove(t *testing.T) {
	_, err := Encode(Header{}, []string{"e4", "e4"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "move 2 (e4)")
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	older, err := New(dir, Header{SessionID: "aaaaaaaa", Date: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.NoError(t, older.Update([]string{"e4"}, rules.Status{}))
	older.Close()
	newer, err := New(dir, Header{SessionID: "bbbbbbbb", Date: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.NoError(t, newer.Update([]string{"d4"}, rules.Status{}))
	newer.Close()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	games, err := List(dir)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "bbbbbbbb", games[0].SessionID)
	assert.Equal(t, "aaaaaaaa", games[1].SessionID)

	games, err = List(filepath.Join(dir, "missing"))
	assert.NoError(t, err)
	assert.Nil(t, games)
}
