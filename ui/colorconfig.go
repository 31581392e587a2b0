package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termchess-local/config"
)

type paletteEntry struct {
	code int
	name string
}

var lightSquareColors = []paletteEntry{
	{230, "Light Cream"},
	{229, "Pale Yellow"},
	{223, "Peach"},
	{222, "Gold"},
	{187, "Wheat"},
	{180, "Tan"},
	{188, "Light Beige"},
	{252, "Light Gray"},
	{250, "Gray"},
	{194, "Mint"},
	{153, "Sky"},
}

var darkSquareColors = []paletteEntry{
	{137, "Walnut"},
	{136, "Dark Brown"},
	{130, "Dark Orange"},
	{94, "Saddle Brown"},
	{88, "Dark Red"},
	{65, "Moss"},
	{22, "Dark Green"},
	{24, "Dark Cyan"},
	{60, "Slate"},
	{240, "Gray"},
	{236, "Dark Gray"},
}

// ColorConfigUI lets the player pick the board square colors with a live preview.
type ColorConfigUI struct {
	flex      *tview.Flex
	colorList *tview.List
	preview   *tview.Box
	cfg       *config.Config
	onSave    func()

	light       int
	dark        int
	editingDark bool
}

// NewColorConfig creates the color screen. The chosen colors are written into cfg and
// onSave is called after each confirmed choice.
func NewColorConfig(cfg *config.Config, onSave func()) *ColorConfigUI {
	cc := &ColorConfigUI{
		cfg:    cfg,
		onSave: onSave,
		light:  cfg.Theme.Colors.LightSquare,
		dark:   cfg.Theme.Colors.DarkSquare,
	}

	cc.colorList = tview.NewList()
	cc.colorList.SetBorder(true)
	cc.colorList.ShowSecondaryText(false)
	cc.populateColorList()

	cc.colorList.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		entries := cc.entries()
		if index < 0 || index >= len(entries) {
			return
		}
		if cc.editingDark {
			cc.dark = entries[index].code
		} else {
			cc.light = entries[index].code
		}
	})

	cc.colorList.SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		cc.cfg.Theme.Colors.LightSquare = cc.light
		cc.cfg.Theme.Colors.DarkSquare = cc.dark
		if onSave != nil {
			onSave()
		}
		if !cc.editingDark {
			cc.ToggleMode()
		}
	})

	cc.preview = tview.NewBox()
	cc.preview.SetBorder(true)
	cc.preview.SetTitle(" Board Preview ")
	cc.preview.SetDrawFunc(cc.drawPreview)

	cc.flex = tview.NewFlex().
		AddItem(cc.colorList, 34, 0, true).
		AddItem(cc.preview, 0, 1, false)

	return cc
}

func (cc *ColorConfigUI) entries() []paletteEntry {
	if cc.editingDark {
		return darkSquareColors
	}
	return lightSquareColors
}

func (cc *ColorConfigUI) populateColorList() {
	cc.colorList.Clear()
	current := cc.light
	title := " Light Squares (Tab: dark squares) "
	if cc.editingDark {
		current = cc.dark
		title = " Dark Squares (Tab: light squares) "
	}
	cc.colorList.SetTitle(title)
	for i, c := range cc.entries() {
		cc.colorList.AddItem(fmt.Sprintf("[#%06x]████[-] %s (%d)",
			tcell.PaletteColor(c.code).Hex(), c.name, c.code),
			"", rune('a'+i), nil)
	}
	for i, c := range cc.entries() {
		if c.code == current {
			cc.colorList.SetCurrentItem(i)
			break
		}
	}
}

// drawPreview draws the corner of a board in the selected colors.
func (cc *ColorConfigUI) drawPreview(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	if width < 30 || height < 8 {
		return x, y, width, height
	}
	rows := []string{"rnbqkbnr", "pppppppp", "........", "....P...", "PPPP.PPP", "RNBQKBNR"}
	whiteFG := tcell.PaletteColor(cc.cfg.Theme.Colors.WhitePiece)
	blackFG := tcell.PaletteColor(cc.cfg.Theme.Colors.BlackPiece)
	startX, startY := x+2, y+1
	for r, row := range rows {
		for c := 0; c < 8; c++ {
			bg := tcell.PaletteColor(cc.dark)
			if (r+c)%2 == 0 {
				bg = tcell.PaletteColor(cc.light)
			}
			style := tcell.StyleDefault.Background(bg)
			ch := ' '
			if p := row[c]; p != '.' {
				ch = pieceGlyph(cc.cfg.Theme.Symbols, p)
				if isWhite(p) {
					style = style.Foreground(whiteFG)
				} else {
					style = style.Foreground(blackFG)
				}
			}
			sx := startX + c*cellWidth
			screen.SetContent(sx, startY+r, ' ', nil, style)
			screen.SetContent(sx+1, startY+r, ch, nil, style)
			screen.SetContent(sx+2, startY+r, ' ', nil, style)
		}
	}
	info := fmt.Sprintf("Light: %d  Dark: %d", cc.light, cc.dark)
	drawText(screen, startX, startY+len(rows)+1, info, tcell.StyleDefault)
	return x, y, width, height
}

// Flex returns the flex container for this UI.
func (cc *ColorConfigUI) Flex() *tview.Flex {
	return cc.flex
}

// SetInputCapture sets the input capture for the color list.
func (cc *ColorConfigUI) SetInputCapture(capture func(event *tcell.EventKey) *tcell.EventKey) {
	cc.colorList.SetInputCapture(capture)
}

// ToggleMode switches between editing light and dark squares.
func (cc *ColorConfigUI) ToggleMode() {
	cc.editingDark = !cc.editingDark
	cc.populateColorList()
}
