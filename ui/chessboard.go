// Package ui specifies custom controls for tview to play chess in the terminal.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termchess-local/config"
	"termchess-local/game"
	"termchess-local/rules"
	"termchess-local/types"
)

// cellWidth is the number of screen columns per square.
const cellWidth = 3

type ChessBoardUI struct {
	Box        *tview.Box
	BoardState *types.BoardState
	hint       *tview.TextView
	cfg        *config.Config
	app        *tview.Application
	session    *game.Session
	log        *log.Logger
	styles     []tcell.Color
	infoPanel  *GameInfoPanel
	opponent   string
	flipped    bool
	focusMode  bool
	selX       int
	selY       int
	picked     *types.BoardPos
	thinking   bool
	message    string
	eval       string
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewChessBoard(app *tview.Application, c *config.Config, hint *tview.TextView, logger *log.Logger) *ChessBoardUI {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	board := &ChessBoardUI{
		Box:  tview.NewBox(),
		hint: hint,
		app:  app,
		log:  logger,
		selX: -1,
		selY: -1,
	}
	board.SetConfig(c)
	board.Box.SetDrawFunc(func(screen tcell.Screen, x int, y int, width int, height int) (int, int, int, int) {
		if board.BoardState == nil {
			return x, y, 1, 1
		}
		for row := 0; row < 8; row++ {
			for col := 0; col < 8; col++ {
				board.drawSquare(screen, x+3+col*cellWidth, y+row, board.posAt(col, row))
			}
		}
		if board.cfg.Theme.ShowCoordinates {
			board.drawCoordinates(screen, x, y)
		}
		return x, y, 8*cellWidth + 3, 9
	})
	return board
}

// Start attaches a new session to the board, replacing any previous one.
func (g *ChessBoardUI) Start(s *game.Session, opponent string) {
	g.Close()
	g.ctx, g.cancel = context.WithCancel(context.Background())
	g.session = s
	g.opponent = opponent
	g.flipped = s.Human() == rules.Black
	g.picked = nil
	g.thinking = false
	g.message = ""
	g.eval = ""
	g.ResetSelection()
	g.refresh()
	g.maybeEngineMove()
}

// Session returns the attached session, or nil.
func (g *ChessBoardUI) Session() *game.Session {
	return g.session
}

// Close stops any engine search and ends the session.
func (g *ChessBoardUI) Close() {
	if g.cancel != nil {
		g.cancel()
	}
	if g.session == nil {
		return
	}
	if err := g.session.Close(); err != nil {
		g.log.Printf("ui: closing session %s: %v", g.session.ID(), err)
	}
	g.session = nil
}

func (g *ChessBoardUI) SetConfig(c *config.Config) {
	g.styles = []tcell.Color{
		tcell.PaletteColor(c.Theme.Colors.LightSquare),       // 0
		tcell.PaletteColor(c.Theme.Colors.DarkSquare),        // 1
		tcell.PaletteColor(c.Theme.Colors.WhitePiece),        // 2
		tcell.PaletteColor(c.Theme.Colors.BlackPiece),        // 3
		tcell.PaletteColor(c.Theme.Colors.Coordinates),       // 4
		tcell.PaletteColor(c.Theme.Colors.CursorColorBG),     // 5
		tcell.PaletteColor(c.Theme.Colors.LastPlayedColorBG), // 6
	}
	g.cfg = c
}

// Message returns the last feedback line shown to the player.
func (g *ChessBoardUI) Message() string {
	return g.message
}

// ToggleFocusMode toggles focus mode and returns the new state.
func (g *ChessBoardUI) ToggleFocusMode() bool {
	g.focusMode = !g.focusMode
	g.refreshHint()
	return g.focusMode
}

func (g *ChessBoardUI) FocusMode() bool {
	return g.focusMode
}

// Flip turns the board around.
func (g *ChessBoardUI) Flip() {
	g.flipped = !g.flipped
}

func (g *ChessBoardUI) SelectedTile() *types.BoardPos {
	if g.selX == -1 && g.selY == -1 {
		return nil
	}
	return &types.BoardPos{X: g.selX, Y: g.selY}
}

func (g *ChessBoardUI) ResetSelection() {
	g.selX = -1
	g.selY = -1
	g.picked = nil
}

// MoveSelection moves the cursor by h columns and v rows as seen on screen.
func (g *ChessBoardUI) MoveSelection(h, v int) {
	if g.BoardState == nil || g.BoardState.Finished() {
		g.ResetSelection()
		return
	}
	if g.SelectedTile() == nil {
		g.selX, g.selY = 4, 1
		if g.BoardState.LastMove.To >= 0 {
			g.selX, g.selY = g.BoardState.LastMove.To%8, g.BoardState.LastMove.To/8
		} else if g.flipped {
			g.selY = 6
		}
		return
	}
	dx, dy := h, -v
	if g.flipped {
		dx, dy = -dx, -dy
	}
	if g.selX+dx < 0 || g.selX+dx > 7 || g.selY+dy < 0 || g.selY+dy > 7 {
		return
	}
	g.selX += dx
	g.selY += dy
}

// Select picks up the piece under the cursor, or moves the picked-up piece there.
func (g *ChessBoardUI) Select() {
	sel := g.SelectedTile()
	if sel == nil || g.session == nil || g.BoardState == nil {
		return
	}
	if g.picked == nil {
		piece := g.BoardState.At(sel.X, sel.Y)
		if piece == 0 || isWhite(piece) != g.BoardState.WhiteToMove {
			g.message = "Select one of your pieces"
			g.refreshHint()
			return
		}
		g.picked = sel
		g.message = fmt.Sprintf("Moving from %s", sel)
		g.refreshHint()
		return
	}
	from := *g.picked
	g.picked = nil
	if from == *sel {
		g.message = ""
		g.refreshHint()
		return
	}
	uci := from.String() + sel.String()
	if p := g.BoardState.At(from.X, from.Y); (p == 'P' && sel.Y == 7) || (p == 'p' && sel.Y == 0) {
		uci += "q"
	}
	g.PlayUCI(uci)
}

// PlayUCI plays a coordinate move for the human.
func (g *ChessBoardUI) PlayUCI(uci string) {
	if !g.ready() {
		return
	}
	res, err := g.session.PlayUCI(uci)
	g.afterHumanMove(res, err)
}

// PlaySAN plays a move typed by the human.
func (g *ChessBoardUI) PlaySAN(token string) {
	if !g.ready() {
		return
	}
	res, err := g.session.Play(token)
	g.afterHumanMove(res, err)
}

func (g *ChessBoardUI) ready() bool {
	if g.session == nil {
		return false
	}
	if g.thinking {
		g.message = "Engine is thinking..."
		g.refreshHint()
		return false
	}
	return true
}

func (g *ChessBoardUI) afterHumanMove(res game.MoveResult, err error) {
	if err != nil {
		g.message = err.Error()
		g.refreshHint()
		return
	}
	g.message = fmt.Sprintf("You played %s", res.SAN)
	g.eval = ""
	g.refresh()
	g.maybeEngineMove()
}

// Undo takes back the last move (a move pair against the engine).
func (g *ChessBoardUI) Undo() {
	if !g.ready() {
		return
	}
	if g.session.Undo() {
		g.message = "Move undone"
	} else {
		g.message = "Nothing to undo"
	}
	g.picked = nil
	g.eval = ""
	g.refresh()
}

func (g *ChessBoardUI) Redo() {
	if !g.ready() {
		return
	}
	if g.session.Redo() {
		g.message = "Move redone"
	} else {
		g.message = "Nothing to redo"
	}
	g.picked = nil
	g.eval = ""
	g.refresh()
	g.maybeEngineMove()
}

// ToggleSolo switches between playing the engine and moving both sides.
func (g *ChessBoardUI) ToggleSolo() {
	if g.session == nil {
		return
	}
	g.session.ToggleSolo()
	g.message = g.session.ModeDescription()
	g.refresh()
	g.maybeEngineMove()
}

// maybeEngineMove starts an engine search in the background when it is the engine's turn.
func (g *ChessBoardUI) maybeEngineMove() {
	if g.session == nil || g.thinking || !g.session.EngineToMove() {
		return
	}
	g.thinking = true
	g.refreshHint()
	sess, ctx := g.session, g.ctx
	go func() {
		res, err := sess.EngineMove(ctx)
		g.queue(func() {
			g.thinking = false
			if sess != g.session {
				return
			}
			if errors.Is(err, game.ErrPositionChanged) {
				g.refresh()
				g.maybeEngineMove()
				return
			}
			if err != nil {
				g.log.Printf("ui: engine move: %v", err)
				g.message = fmt.Sprintf("Engine error: %v", err)
			} else {
				g.message = fmt.Sprintf("Engine played %s", res.SAN)
			}
			g.refresh()
		})
	}()
}

// background runs f off the UI goroutine; the func it returns is applied on the UI goroutine.
func (g *ChessBoardUI) background(f func(ctx context.Context) func()) {
	if g.app == nil {
		f(g.ctx)()
		g.refreshHint()
		return
	}
	g.refreshHint()
	ctx := g.ctx
	go func() {
		apply := f(ctx)
		g.queue(func() {
			apply()
			g.refreshHint()
		})
	}()
}

func (g *ChessBoardUI) queue(f func()) {
	if g.app == nil {
		f()
		return
	}
	g.app.QueueUpdateDraw(f)
}

// refresh rebuilds the board state from the session.
func (g *ChessBoardUI) refresh() {
	if g.session == nil {
		return
	}
	snap := g.session.Current()
	state, err := types.NewBoardState(snap.FEN, snap.LastMove)
	if err != nil {
		g.message = err.Error()
		g.refreshHint()
		return
	}
	if st, err := g.session.Status(); err == nil && st.Over() {
		state.Phase = "finished"
		state.Outcome = st.String()
		g.ResetSelection()
	}
	g.BoardState = state
	g.refreshHint()
}

func (g *ChessBoardUI) refreshHint() {
	if g.infoPanel != nil {
		g.infoPanel.SetState(g.panelState())
	}
	if g.hint == nil {
		return
	}
	if g.focusMode {
		g.hint.SetText("  f to toggle")
		return
	}

	var turnLine, controlsLine string
	switch {
	case g.BoardState == nil:
	case g.BoardState.Finished():
		turnLine = fmt.Sprintf("  Game over: %s\n", g.BoardState.Outcome)
		controlsLine = "  u undo · q return to menu"
	default:
		side := "White"
		if !g.BoardState.WhiteToMove {
			side = "Black"
		}
		if g.thinking {
			turnLine = "  ◌ Thinking...\n"
		} else {
			turnLine = fmt.Sprintf("  %s to move\n", side)
		}
		controlsLine = "  hjkl/↑↓←→ move  ⏎ pick/drop  : command  u/r undo/redo  f focus  q quit"
	}
	msg := ""
	if g.message != "" {
		msg = "  " + g.message + "\n"
	}
	g.hint.SetText(turnLine + msg + controlsLine)
}

func (g *ChessBoardUI) panelState() PanelState {
	st := PanelState{Opponent: g.opponent, Eval: g.eval}
	if g.session == nil {
		return st
	}
	start := g.session.StartFEN()
	st.FirstMove = rules.FullMoveNumber(start)
	st.BlackFirst = rules.SideToMove(start) == rules.Black
	st.Moves = g.session.Current().Moves
	st.Mode = "vs engine"
	if g.session.Solo() {
		st.Mode = "solo"
	}
	if status, err := g.session.Status(); err == nil {
		st.Status = status.String()
	}
	return st
}

// posAt maps a screen cell to a square, honouring the board orientation.
func (g *ChessBoardUI) posAt(col, row int) types.BoardPos {
	if g.flipped {
		return types.BoardPos{X: 7 - col, Y: row}
	}
	return types.BoardPos{X: col, Y: 7 - row}
}

func (g *ChessBoardUI) drawSquare(screen tcell.Screen, sx, sy int, pos types.BoardPos) {
	bg := g.styles[1]
	if (pos.X+pos.Y)%2 == 1 {
		bg = g.styles[0]
	}
	sq := pos.Square()
	switch {
	case pos.X == g.selX && pos.Y == g.selY:
		bg = g.styles[5]
	case g.picked != nil && *g.picked == pos:
		bg = g.styles[5]
	case g.cfg.Theme.DrawLastPlayedBackground && (sq == g.BoardState.LastMove.From || sq == g.BoardState.LastMove.To):
		bg = g.styles[6]
	}
	style := tcell.StyleDefault.Background(bg)
	piece := g.BoardState.At(pos.X, pos.Y)
	glyph := ' '
	if piece != 0 {
		glyph = g.glyph(piece)
		if isWhite(piece) {
			style = style.Foreground(g.styles[2])
		} else {
			style = style.Foreground(g.styles[3])
		}
	}
	screen.SetContent(sx, sy, ' ', nil, style)
	screen.SetContent(sx+1, sy, glyph, nil, style)
	screen.SetContent(sx+2, sy, ' ', nil, style)
}

func (g *ChessBoardUI) glyph(piece byte) rune {
	return pieceGlyph(g.cfg.Theme.Symbols, piece)
}

func (g *ChessBoardUI) drawCoordinates(s tcell.Screen, x, y int) {
	style := tcell.StyleDefault.Foreground(g.styles[4])
	highlight := tcell.StyleDefault.Background(g.styles[5])
	for i := 0; i < 8; i++ {
		pos := g.posAt(i, i)
		_style := style
		if pos.X == g.selX {
			_style = highlight
		}
		s.SetContent(x+3+i*cellWidth+1, y+8, rune('a'+pos.X), nil, _style)

		_style = style
		if pos.Y == g.selY {
			_style = highlight
		}
		s.SetContent(x+1, y+i, rune('1'+pos.Y), nil, _style)
	}
}

// pieceGlyph returns the configured symbol for a FEN piece letter.
func pieceGlyph(symbols config.ConfigSymbols, piece byte) rune {
	set := symbols.White
	if !isWhite(piece) {
		set = symbols.Black
	}
	idx := strings.IndexByte("KQRBNP", upper(piece))
	runes := []rune(set)
	if idx < 0 || idx >= len(runes) {
		return rune(piece)
	}
	return runes[idx]
}

func isWhite(piece byte) bool {
	return piece >= 'A' && piece <= 'Z'
}

func upper(piece byte) byte {
	if piece >= 'a' && piece <= 'z' {
		return piece - 'a' + 'A'
	}
	return piece
}
