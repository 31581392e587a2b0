package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// MenuCard is a styled card container with rounded borders and title.
type MenuCard struct {
	*tview.Box
	title   string
	footer  string
	focused bool
}

// NewMenuCard creates a new menu card with the given title.
func NewMenuCard(title string) *MenuCard {
	return &MenuCard{
		Box:   tview.NewBox(),
		title: title,
	}
}

// Draw renders the card frame and title. Content starts at ContentTop.
func (c *MenuCard) Draw(screen tcell.Screen) {
	c.Box.DrawForSubclass(screen, c)

	x, y, width, height := c.GetInnerRect()
	if width < 10 || height < 5 {
		return
	}

	borderStyle := c.borderStyle()
	bgStyle := tcell.StyleDefault.Background(MenuColors.CardBG)

	for row := y; row < y+height; row++ {
		for col := x; col < x+width; col++ {
			screen.SetContent(col, row, ' ', nil, bgStyle)
		}
	}

	screen.SetContent(x, y, '╭', nil, borderStyle)
	screen.SetContent(x+width-1, y, '╮', nil, borderStyle)
	screen.SetContent(x, y+height-1, '╰', nil, borderStyle)
	screen.SetContent(x+width-1, y+height-1, '╯', nil, borderStyle)
	for col := x + 1; col < x+width-1; col++ {
		screen.SetContent(col, y, '─', nil, borderStyle)
		screen.SetContent(col, y+height-1, '─', nil, borderStyle)
	}
	for row := y + 1; row < y+height-1; row++ {
		screen.SetContent(x, row, '│', nil, borderStyle)
		screen.SetContent(x+width-1, row, '│', nil, borderStyle)
	}

	if c.footer != "" {
		hint := tcell.StyleDefault.Foreground(MenuColors.Hint).Background(MenuColors.CardBG)
		fx := x + (width-len([]rune(c.footer)))/2
		if fx < x+1 {
			fx = x + 1
		}
		drawString(screen, fx, y+height-2, c.footer, hint)
	}

	if c.title == "" {
		return
	}
	titleStyle := tcell.StyleDefault.Foreground(MenuColors.Title).Background(MenuColors.CardBG).Bold(true)
	accentStyle := tcell.StyleDefault.Foreground(MenuColors.TitleAccent).Background(MenuColors.CardBG)

	// ♞  TITLE, centered on the second inner row.
	titleLen := len([]rune(c.title)) + 3
	titleX := x + (width-titleLen)/2
	screen.SetContent(titleX, y+2, '♞', nil, accentStyle)
	drawString(screen, titleX+3, y+2, c.title, titleStyle)
	c.DrawDivider(screen, y+4)
}

// ContentTop is the first row below the title divider.
func (c *MenuCard) ContentTop() int {
	_, y, _, _ := c.GetInnerRect()
	if c.title == "" {
		return y + 1
	}
	return y + 6
}

// DrawDivider draws a horizontal divider at the given y position.
func (c *MenuCard) DrawDivider(screen tcell.Screen, divY int) {
	x, _, width, _ := c.GetInnerRect()
	borderStyle := c.borderStyle()
	screen.SetContent(x, divY, '├', nil, borderStyle)
	for col := x + 1; col < x+width-1; col++ {
		screen.SetContent(col, divY, '─', nil, borderStyle)
	}
	screen.SetContent(x+width-1, divY, '┤', nil, borderStyle)
}

func (c *MenuCard) borderStyle() tcell.Style {
	color := MenuColors.Border
	if c.focused {
		color = MenuColors.BorderFocus
	}
	return tcell.StyleDefault.Foreground(color).Background(MenuColors.CardBG)
}

// SetFooter sets the key hint drawn on the last row of the card.
func (c *MenuCard) SetFooter(text string) {
	c.footer = text
}

// SetFocused sets the focus state of the card.
func (c *MenuCard) SetFocused(focused bool) {
	c.focused = focused
}
