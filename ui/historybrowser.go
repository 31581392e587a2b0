package ui

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termchess-local/config"
	"termchess-local/record"
	"termchess-local/rules"
	"termchess-local/types"
)

// GameBrowserUI provides a screen for browsing saved PGN game records.
type GameBrowserUI struct {
	flex     *tview.Flex
	gameList *tview.List
	preview  *tview.Box
	hint     *tview.TextView
	dir      string
	cfg      *config.Config
	games    []record.GameInfo
	boards   map[int]*types.BoardState // cached final positions
	selected int
	onOpen   func(record.GameInfo)
	onDone   func()
}

// NewGameBrowser creates a browser over the records in dir. onOpen is called when the
// player presses Enter on a game.
func NewGameBrowser(dir string, cfg *config.Config, onOpen func(record.GameInfo), onDone func()) *GameBrowserUI {
	gb := &GameBrowserUI{
		dir:    dir,
		cfg:    cfg,
		onOpen: onOpen,
		onDone: onDone,
		boards: make(map[int]*types.BoardState),
	}

	gb.gameList = tview.NewList()
	gb.gameList.SetBorder(true)
	gb.gameList.SetTitle(" Saved Games ")
	gb.gameList.ShowSecondaryText(false)
	gb.gameList.SetHighlightFullLine(true)
	gb.gameList.SetMainTextStyle(tcell.StyleDefault.Foreground(MenuColors.Label))
	gb.gameList.SetSelectedStyle(tcell.StyleDefault.
		Foreground(MenuColors.ButtonText).
		Background(MenuColors.ButtonFocus))

	gb.preview = tview.NewBox()
	gb.preview.SetBorder(true)
	gb.preview.SetTitle(" Preview ")
	gb.preview.SetDrawFunc(gb.drawPreview)

	gb.hint = tview.NewTextView()
	gb.hint.SetDynamicColors(true)
	gb.hint.SetBorder(false)
	gb.hint.SetText("  [dimgray]⏎[-] review  [dimgray]d[-] delete  [dimgray]q[-] back")

	gb.gameList.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		gb.selected = index
	})
	gb.gameList.SetInputCapture(gb.handleInput)

	topRow := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(gb.gameList, 44, 0, true).
		AddItem(gb.preview, 0, 1, false)

	gb.flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(topRow, 0, 1, true).
		AddItem(gb.hint, 1, 0, false)

	gb.loadGames()
	return gb
}

// Flex returns the flex container for this UI.
func (gb *GameBrowserUI) Flex() *tview.Flex {
	return gb.flex
}

// Refresh reloads the game list from disk.
func (gb *GameBrowserUI) Refresh() {
	gb.boards = make(map[int]*types.BoardState)
	gb.loadGames()
}

// Games returns the records currently listed.
func (gb *GameBrowserUI) Games() []record.GameInfo {
	return gb.games
}

func (gb *GameBrowserUI) loadGames() {
	gb.gameList.Clear()
	gb.games = nil
	gb.selected = 0

	games, err := record.List(gb.dir)
	if err != nil || len(games) == 0 {
		gb.gameList.AddItem("[dimgray]No games found[-]", "", 0, nil)
		return
	}

	gb.games = games
	for _, g := range games {
		gb.gameList.AddItem(GameLabel(g), "", 0, nil)
	}
}

// GameLabel is the one-line description of a saved game.
func GameLabel(g record.GameInfo) string {
	result := g.Result
	if result == "" || result == "*" {
		result = "..."
	}
	return fmt.Sprintf("%s  %s vs %s  %s", g.Date, g.White, g.Black, result)
}

func (gb *GameBrowserUI) handleInput(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEscape:
		if gb.onDone != nil {
			gb.onDone()
		}
		return nil
	case tcell.KeyEnter:
		if gb.selected >= 0 && gb.selected < len(gb.games) && gb.onOpen != nil {
			gb.onOpen(gb.games[gb.selected])
		}
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q':
			if gb.onDone != nil {
				gb.onDone()
			}
			return nil
		case 'd':
			gb.deleteSelected()
			return nil
		}
	}
	return event
}

func (gb *GameBrowserUI) deleteSelected() {
	if gb.selected < 0 || gb.selected >= len(gb.games) {
		return
	}
	os.Remove(gb.games[gb.selected].FilePath)
	gb.Refresh()
}

// FinalPosition replays a saved game and returns its last position.
func FinalPosition(path string) (*types.BoardState, error) {
	moves, start, err := record.Load(path)
	if err != nil {
		return nil, err
	}
	if start == "" {
		start = rules.StartFEN
	}
	std := rules.NewStandard()
	fen, last := start, ""
	for _, san := range moves {
		h, err := std.Check(san, fen)
		if err != nil {
			return nil, err
		}
		if fen, err = h.Apply(); err != nil {
			return nil, err
		}
		last = h.UCI()
	}
	return types.NewBoardState(fen, last)
}

func (gb *GameBrowserUI) drawPreview(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	if gb.selected < 0 || gb.selected >= len(gb.games) {
		return x, y, width, height
	}
	game := gb.games[gb.selected]

	board, ok := gb.boards[gb.selected]
	if !ok {
		if b, err := FinalPosition(game.FilePath); err == nil {
			board = b
			gb.boards[gb.selected] = board
		}
	}
	if board == nil || width < 24 || height < 15 {
		return x, y, width, height
	}

	startX := x + 2
	startY := y + 1
	lightStyle := tcell.StyleDefault.Background(tcell.PaletteColor(gb.cfg.Theme.Colors.LightSquare))
	darkStyle := tcell.StyleDefault.Background(tcell.PaletteColor(gb.cfg.Theme.Colors.DarkSquare))
	whiteFG := tcell.PaletteColor(gb.cfg.Theme.Colors.WhitePiece)
	blackFG := tcell.PaletteColor(gb.cfg.Theme.Colors.BlackPiece)

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			style := darkStyle
			if (col+7-row)%2 == 1 {
				style = lightStyle
			}
			ch := ' '
			if p := board.At(col, 7-row); p != 0 {
				ch = pieceGlyph(gb.cfg.Theme.Symbols, p)
				if isWhite(p) {
					style = style.Foreground(whiteFG)
				} else {
					style = style.Foreground(blackFG)
				}
			}
			screen.SetContent(startX+col*2, startY+row, ch, nil, style)
			screen.SetContent(startX+col*2+1, startY+row, ' ', nil, style)
		}
	}

	infoY := startY + 9
	infoStyle := tcell.StyleDefault.Foreground(tcell.PaletteColor(250))
	dimStyle := tcell.StyleDefault.Foreground(tcell.PaletteColor(245))

	drawText(screen, startX, infoY, fmt.Sprintf("%d moves", game.MoveCount), infoStyle)
	infoY++
	drawText(screen, startX, infoY, fmt.Sprintf("White: %s", game.White), dimStyle)
	infoY++
	drawText(screen, startX, infoY, fmt.Sprintf("Black: %s", game.Black), dimStyle)
	infoY++
	result := game.Result
	if result == "" || result == "*" {
		result = "Unfinished"
	}
	drawText(screen, startX, infoY, fmt.Sprintf("Result: %s", result), tcell.StyleDefault.Foreground(MenuColors.Selected))

	return x, y, width, height
}

// drawText writes a string to the screen at the given position.
func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	i := 0
	for _, ch := range text {
		screen.SetContent(x+i, y, ch, nil, style)
		i++
	}
}
