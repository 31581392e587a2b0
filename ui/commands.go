package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termchess-local/game"
)

const helpText = `Enter moves in SAN (e4, Nf3, exd5, O-O, e8=Q). Commands:
help · history · legal · status · undo · redo · hint · eval · solo · flip · clear · quit`

// Execute runs one line typed at the command prompt: a command or a move.
// Returns true when the player asked to leave the game.
func (g *ChessBoardUI) Execute(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if g.session == nil {
		g.message = "No game in progress"
		g.refreshHint()
		return strings.EqualFold(line, "quit")
	}

	switch strings.ToLower(line) {
	case "quit", "exit":
		return true
	case "help", "?":
		g.message = helpText
	case "clear":
		g.message = ""
	case "history":
		moves := g.session.Current().Moves
		if len(moves) == 0 {
			g.message = "No moves yet"
		} else {
			st := g.panelState()
			g.message = strings.Join(MovePairs(moves, st.FirstMove, st.BlackFirst), "  ")
		}
	case "legal":
		moves, err := g.session.LegalMoves()
		switch {
		case err != nil:
			g.message = err.Error()
		case len(moves) == 0:
			g.message = "No legal moves"
		default:
			g.message = fmt.Sprintf("Legal moves (%d): %s", len(moves), strings.Join(moves, " "))
		}
	case "status":
		st, err := g.session.Status()
		if err != nil {
			g.message = err.Error()
		} else {
			g.message = fmt.Sprintf("%s · move %d · %s", st, st.FullMove, g.session.ModeDescription())
		}
	case "undo":
		g.Undo()
		return false
	case "redo":
		g.Redo()
		return false
	case "solo":
		g.ToggleSolo()
		return false
	case "flip":
		g.Flip()
		g.message = "Board flipped"
	case "hint":
		sess := g.session
		g.message = "Thinking..."
		g.background(func(ctx context.Context) func() {
			san, err := sess.Hint(ctx)
			return func() {
				if err != nil {
					g.message = analysisError(err)
					return
				}
				g.message = fmt.Sprintf("Hint: %s", san)
			}
		})
		return false
	case "eval":
		sess := g.session
		g.message = "Evaluating..."
		g.background(func(ctx context.Context) func() {
			sc, err := sess.Evaluate(ctx)
			return func() {
				if err != nil {
					g.message = analysisError(err)
					return
				}
				g.eval = sc.String()
				g.message = fmt.Sprintf("Evaluation: %s", sc)
			}
		})
		return false
	default:
		g.PlaySAN(line)
		return false
	}
	g.refreshHint()
	return false
}

func analysisError(err error) string {
	if errors.Is(err, game.ErrNoEngine) {
		return "No engine available for analysis"
	}
	return fmt.Sprintf("Analysis failed: %v", err)
}

// CommandInput is the move/command prompt below the board.
type CommandInput struct {
	field  *tview.InputField
	board  *ChessBoardUI
	onQuit func()
	onDone func()
}

// NewCommandInput creates the prompt. onDone is called when the prompt gives up focus,
// onQuit when the player leaves the game.
func NewCommandInput(board *ChessBoardUI, onDone, onQuit func()) *CommandInput {
	c := &CommandInput{
		field:  tview.NewInputField(),
		board:  board,
		onQuit: onQuit,
		onDone: onDone,
	}
	c.field.SetLabel(" move> ")
	c.field.SetFieldBackgroundColor(MenuColors.FieldBG)
	c.field.SetLabelColor(MenuColors.TitleAccent)
	c.field.SetPlaceholder("e4, Nf3, O-O or help")
	c.field.SetPlaceholderTextColor(MenuColors.Hint)
	c.field.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			line := c.field.GetText()
			c.field.SetText("")
			if c.board.Execute(line) {
				if c.onQuit != nil {
					c.onQuit()
				}
				return
			}
		case tcell.KeyEscape, tcell.KeyTab:
			if c.onDone != nil {
				c.onDone()
			}
		}
	})
	return c
}

// Field returns the underlying tview component.
func (c *CommandInput) Field() *tview.InputField {
	return c.field
}
