package ui

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termchess-local/config"
	"termchess-local/engine"
	"termchess-local/game"
	"termchess-local/record"
	"termchess-local/rules"
)

func TestMovePairs(t *testing.T) {
	tests := []struct {
		moves      []string
		first      int
		blackFirst bool
		want       []string
	}{
		{nil, 1, false, nil},
		{[]string{"e4"}, 1, false, []string{"1. e4"}},
		{[]string{"e4", "e5", "Nf3"}, 1, false, []string{"1. e4 e5", "2. Nf3"}},
		{[]string{"Kd7", "Ke2", "Kc6"}, 40, true, []string{"40... Kd7", "41. Ke2 Kc6"}},
		{[]string{"d4"}, 0, false, []string{"1. d4"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MovePairs(tt.moves, tt.first, tt.blackFirst), "%v", tt.moves)
	}
}

func TestPieceGlyph(t *testing.T) {
	symbols := config.DefaultTheme.Symbols
	assert.Equal(t, '♔', pieceGlyph(symbols, 'K'))
	assert.Equal(t, '♟', pieceGlyph(symbols, 'p'))
	letters := config.ConfigSymbols{White: "KQRBNP", Black: "kqrbnp"}
	assert.Equal(t, 'n', pieceGlyph(letters, 'n'))
	assert.Equal(t, 'x', pieceGlyph(letters, 'x'))
}

func newTestBoard(t *testing.T) *ChessBoardUI {
	t.Helper()
	cfg := config.DefaultConfig
	board := NewChessBoard(nil, &cfg, tview.NewTextView(), nil)
	s, err := game.New(game.Options{})
	require.NoError(t, err)
	board.Start(s, "nobody")
	t.Cleanup(board.Close)
	return board
}

func TestExecuteCommands(t *testing.T) {
	board := newTestBoard(t)

	assert.False(t, board.Execute("history"))
	assert.Equal(t, "No moves yet", board.Message())

	assert.False(t, board.Execute("e4"))
	assert.Equal(t, "You played e4", board.Message())
	assert.False(t, board.BoardState.WhiteToMove)

	board.Execute("legal")
	assert.Contains(t, board.Message(), "Legal moves (20):")

	board.Execute("Ke2")
	assert.Equal(t, "move 'Ke2' is not legal in current position", board.Message())

	board.Execute("e5")
	board.Execute("history")
	assert.Equal(t, "1. e4 e5", board.Message())

	board.Execute("status")
	assert.Contains(t, board.Message(), "Game in progress")

	board.Execute("undo")
	assert.Equal(t, "Move undone", board.Message())
	assert.Equal(t, []string{"e4"}, board.Session().Current().Moves)
	board.Execute("redo")
	assert.Equal(t, "Move redone", board.Message())

	board.Execute("hint")
	assert.Equal(t, "No engine available for analysis", board.Message())

	board.Execute("solo")
	assert.Equal(t, "Solo mode: Human controls both sides", board.Message())

	board.Execute("help")
	assert.Contains(t, board.Message(), "history")
	board.Execute("clear")
	assert.Empty(t, board.Message())

	assert.False(t, board.Execute("   "))
	assert.True(t, board.Execute("quit"))
}

func TestCursorMove(t *testing.T) {
	board := newTestBoard(t)

	board.MoveSelection(0, 0)
	require.NotNil(t, board.SelectedTile())
	assert.Equal(t, "e2", board.SelectedTile().String())

	board.Select()
	assert.Equal(t, "Moving from e2", board.Message())
	board.MoveSelection(0, -1)
	board.MoveSelection(0, -1)
	assert.Equal(t, "e4", board.SelectedTile().String())
	board.Select()
	assert.Equal(t, "You played e4", board.Message())

	board.MoveSelection(0, -1)
	board.Select()
	assert.Equal(t, "Select one of your pieces", board.Message(), "e5 is empty")
}

func TestFlip(t *testing.T) {
	board := newTestBoard(t)
	assert.Equal(t, "a8", board.posAt(0, 0).String())
	board.Execute("flip")
	assert.Equal(t, "h1", board.posAt(0, 0).String())
}

func TestSetupFromConfig(t *testing.T) {
	cfg := config.DefaultConfig
	cfg.Game.Color = "black"
	cfg.Engine.Kind = "random"
	cfg.Game.Rules = "bitboard"

	s := SetupFromConfig(&cfg)
	assert.Equal(t, Setup{
		Color:      rules.Black,
		Opponent:   engine.KindRandom,
		Difficulty: 10,
		Rules:      rules.KindBitboard,
		Sound:      true,
	}, s)

	s.Difficulty = 3
	s.Color = rules.White
	out := config.DefaultConfig
	s.Apply(&out)
	assert.Equal(t, "white", out.Game.Color)
	assert.Equal(t, "random", out.Engine.Kind)
	assert.Equal(t, 3, out.Engine.Difficulty)
	assert.Equal(t, "bitboard", out.Game.Rules)
	assert.NoError(t, out.Validate())
}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func TestSettings(t *testing.T) {
	var saved *config.Config
	s := NewSettings(config.DefaultConfig, func(c config.Config) { saved = &c }, nil)

	s.HandleKey(key(tcell.KeyDown)) // sound: off
	s.HandleKey(key(tcell.KeyTab))
	s.HandleKey(key(tcell.KeyLeft)) // volume: 60%
	s.HandleKey(key(tcell.KeyTab))
	s.HandleKey(key(tcell.KeyTab))
	s.HandleKey(key(tcell.KeyTab))
	s.HandleKey(key(tcell.KeyDown)) // pieces: letters
	s.HandleKey(key(tcell.KeyTab))
	s.HandleKey(key(tcell.KeyEnter)) // save

	require.NotNil(t, saved)
	assert.False(t, saved.Sound.Enabled)
	assert.InDelta(t, 0.6, saved.Sound.Volume, 1e-9)
	assert.Equal(t, "KQRBNP", saved.Theme.Symbols.White)
	assert.NoError(t, saved.Validate())
}

func TestWidgets(t *testing.T) {
	var last int
	slider := NewLevelSlider("Level", 0, 3, 5, nil, func(v int) { last = v })
	assert.Equal(t, 3, slider.Value(), "initial value is clamped")
	slider.HandleKey(key(tcell.KeyRight))
	assert.Equal(t, 3, slider.Value())
	slider.HandleKey(key(tcell.KeyLeft))
	assert.Equal(t, 2, last)

	radio := NewRadioSelect("Pick", []RadioOption{{Label: "a"}, {Label: "b"}}, 0, nil)
	radio.SetSelected(5)
	assert.Equal(t, 0, radio.Selected())
	radio.HandleKey(key(tcell.KeyDown))
	assert.Equal(t, 1, radio.Selected())

	var got float64
	input := NewNumberInput("Think", "s", 3, func(v float64) { got = v })
	input.HandleKey(key(tcell.KeyBackspace))
	assert.Equal(t, 3.0, input.Value(), "empty text keeps the last value")
	input.HandleKey(tcell.NewEventKey(tcell.KeyRune, '5', tcell.ModNone))
	input.HandleKey(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone))
	assert.Equal(t, 5.0, got)
	assert.Equal(t, 5.0, input.Value())
}

func TestFinalPosition(t *testing.T) {
	dir := t.TempDir()
	rec, err := record.New(dir, record.Header{White: "Player", Black: "Random"})
	require.NoError(t, err)
	require.NoError(t, rec.Update([]string{"e4", "e5", "Nf3"}, rules.Status{}))
	require.NoError(t, rec.Close())

	state, err := FinalPosition(rec.FilePath)
	require.NoError(t, err)
	assert.Equal(t, byte('N'), state.At(5, 2))
	assert.Equal(t, byte('p'), state.At(4, 4))
	assert.False(t, state.WhiteToMove)

	games, err := record.List(dir)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Contains(t, GameLabel(games[0]), "Player vs Random  ...")
}
