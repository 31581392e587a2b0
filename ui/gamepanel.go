package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// PanelState is what the info panel shows.
type PanelState struct {
	Opponent   string
	Mode       string
	Status     string
	Eval       string
	Moves      []string // SAN
	FirstMove  int      // full-move number of the first move
	BlackFirst bool     // the game started with Black to move
}

// GameInfoPanel displays game information and move history alongside the board.
type GameInfoPanel struct {
	box   *tview.TextView
	state PanelState
}

// NewGameInfoPanel creates a new game info panel.
func NewGameInfoPanel() *GameInfoPanel {
	panel := &GameInfoPanel{
		box: tview.NewTextView(),
	}

	panel.box.SetDynamicColors(true)
	panel.box.SetBorder(false)
	panel.box.SetTextAlign(tview.AlignLeft)

	return panel
}

// Box returns the underlying tview component.
func (p *GameInfoPanel) Box() *tview.TextView {
	return p.box
}

// SetState updates the panel.
func (p *GameInfoPanel) SetState(state PanelState) {
	p.state = state
	p.refresh()
}

// refresh updates the panel text.
func (p *GameInfoPanel) refresh() {
	var text string

	text += "[white::b]Game Info[-:-:-]\n"
	text += "[dimgray]──────────────────────[-:-:-]\n"
	if p.state.Opponent != "" {
		text += fmt.Sprintf("[white]Opponent:[-:-:-] %s\n", p.state.Opponent)
	}
	if p.state.Mode != "" {
		text += fmt.Sprintf("[white]Mode:[-:-:-] %s\n", p.state.Mode)
	}
	if p.state.Status != "" {
		text += fmt.Sprintf("[white]Status:[-:-:-] %s\n", p.state.Status)
	}
	if p.state.Eval != "" {
		text += fmt.Sprintf("[white]Eval:[-:-:-] %s\n", p.state.Eval)
	}

	if len(p.state.Moves) > 0 {
		text += "\n[white::b]Moves[-:-:-]\n"
		text += "[dimgray]──────────────────────[-:-:-]\n"

		lines := MovePairs(p.state.Moves, p.state.FirstMove, p.state.BlackFirst)
		maxVisible := 12
		start := 0
		if len(lines) > maxVisible {
			start = len(lines) - maxVisible
		}
		for i := start; i < len(lines); i++ {
			marker := " "
			if i == len(lines)-1 {
				marker = "[white]>[-]"
			}
			text += fmt.Sprintf("%s %s\n", marker, lines[i])
		}
		if start > 0 {
			text += fmt.Sprintf("[dimgray]  ··· %d earlier[-]\n", start)
		}
	}

	p.box.SetText(text)
}

// MovePairs formats SAN moves as numbered lines, "1. e4 e5", "2. Nf3".
// A game that starts with Black to move opens with "n... move".
func MovePairs(moves []string, firstMove int, blackFirst bool) []string {
	if firstMove < 1 {
		firstMove = 1
	}
	var lines []string
	n, i := firstMove, 0
	if blackFirst && len(moves) > 0 {
		lines = append(lines, fmt.Sprintf("%d... %s", n, moves[0]))
		i, n = 1, n+1
	}
	for ; i < len(moves); i += 2 {
		if i+1 < len(moves) {
			lines = append(lines, fmt.Sprintf("%d. %s %s", n, moves[i], moves[i+1]))
		} else {
			lines = append(lines, fmt.Sprintf("%d. %s", n, moves[i]))
		}
		n++
	}
	return lines
}

// CreateGameLayout creates the main game layout: board and side panel on top, then the
// status lines and the command prompt.
func CreateGameLayout(board *ChessBoardUI, hint *tview.TextView, input *CommandInput) *tview.Flex {
	gameFrame := tview.NewFlex()
	RebuildNormalLayout(gameFrame, board, hint, input)
	return gameFrame
}

// CreateCenteredForm creates a centered form container for the setup screen.
func CreateCenteredForm(form tview.Primitive, maxWidth int) *tview.Flex {
	centered := tview.NewFlex().SetDirection(tview.FlexColumn)
	centered.AddItem(nil, 0, 1, false)
	centered.AddItem(form, maxWidth, 0, true)
	centered.AddItem(nil, 0, 1, false)

	return centered
}

// RebuildNormalLayout restores the normal game layout.
func RebuildNormalLayout(gameFrame *tview.Flex, board *ChessBoardUI, hint *tview.TextView, input *CommandInput) {
	gameFrame.Clear()

	infoPanel := NewGameInfoPanel()
	board.infoPanel = infoPanel
	infoPanel.SetState(board.panelState())

	boardRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	boardRow.AddItem(board.Box, 0, 1, true)
	boardRow.AddItem(infoPanel.Box(), 28, 0, false)

	gameFrame.SetDirection(tview.FlexRow)
	gameFrame.AddItem(boardRow, 0, 1, true)
	gameFrame.AddItem(hint, 4, 0, false)
	gameFrame.AddItem(input.Field(), 1, 0, false)
}

// BuildFocusLayout builds the focus mode layout with just the centered board.
func BuildFocusLayout(gameFrame *tview.Flex, board *ChessBoardUI, hint *tview.TextView) {
	gameFrame.Clear()

	boardWidth := 8*cellWidth + 3
	boardHeight := 9

	gameFrame.SetDirection(tview.FlexRow)
	gameFrame.AddItem(nil, 0, 1, false)

	centerRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	centerRow.AddItem(nil, 0, 1, false)
	centerRow.AddItem(board.Box, boardWidth, 0, true)
	centerRow.AddItem(nil, 0, 1, false)

	gameFrame.AddItem(centerRow, boardHeight, 0, true)
	gameFrame.AddItem(nil, 0, 1, false)
	gameFrame.AddItem(hint, 1, 0, false)
}
