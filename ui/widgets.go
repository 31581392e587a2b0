package ui

import (
	"strconv"

	"github.com/gdamore/tcell/v2"
)

// menuItem is a row on a MenuCard that can take focus and keys.
type menuItem interface {
	SetFocused(focused bool)
	HandleKey(event *tcell.EventKey) bool
	Draw(screen tcell.Screen, x, y, width int) int
}

// menuStyles returns the shared styles drawn on the card background.
func menuStyles() (bg, label, accent, selected, unselected, hint tcell.Style) {
	base := tcell.StyleDefault.Background(MenuColors.CardBG)
	return base,
		base.Foreground(MenuColors.Label),
		base.Foreground(MenuColors.TitleAccent),
		base.Foreground(MenuColors.Selected),
		base.Foreground(MenuColors.Unselected),
		base.Foreground(MenuColors.Hint)
}

// drawItemLabel draws "▸ ◈ Label" and returns the next free column.
func drawItemLabel(screen tcell.Screen, x, y int, label string, focused bool) int {
	bg, labelStyle, accent, selected, _, _ := menuStyles()
	col := x
	if focused {
		screen.SetContent(col, y, '▸', nil, selected)
	} else {
		screen.SetContent(col, y, ' ', nil, bg)
	}
	col += 2
	screen.SetContent(col, y, '◈', nil, accent)
	col += 2
	for _, ch := range label {
		screen.SetContent(col, y, ch, nil, labelStyle)
		col++
	}
	return col
}

func drawString(screen tcell.Screen, col, y int, s string, style tcell.Style) int {
	for _, ch := range s {
		screen.SetContent(col, y, ch, nil, style)
		col++
	}
	return col
}

// LevelSlider is a horizontal slider for an integer setting.
type LevelSlider struct {
	label    string
	min      int
	max      int
	value    int
	focused  bool
	format   func(int) string
	onChange func(int)
}

// NewLevelSlider creates a slider. format renders the value next to the bar; nil prints the number.
func NewLevelSlider(label string, min, max, initial int, format func(int) string, onChange func(int)) *LevelSlider {
	if format == nil {
		format = strconv.Itoa
	}
	s := &LevelSlider{label: label, min: min, max: max, format: format, onChange: onChange}
	s.value = s.clamp(initial)
	return s
}

func (s *LevelSlider) clamp(v int) int {
	if v < s.min {
		return s.min
	}
	if v > s.max {
		return s.max
	}
	return v
}

func (s *LevelSlider) SetFocused(focused bool) { s.focused = focused }

func (s *LevelSlider) HandleKey(event *tcell.EventKey) bool {
	switch event.Key() {
	case tcell.KeyLeft:
		s.SetValue(s.value - 1)
		return true
	case tcell.KeyRight:
		s.SetValue(s.value + 1)
		return true
	}
	return false
}

func (s *LevelSlider) Draw(screen tcell.Screen, x, y, width int) int {
	_, labelStyle, _, selected, unselected, _ := menuStyles()
	col := drawItemLabel(screen, x, y, s.label, s.focused) + 3

	arrowStyle := unselected
	if s.focused {
		arrowStyle = selected
	}
	screen.SetContent(col, y, '◀', nil, arrowStyle)
	col += 2
	for i := s.min; i <= s.max; i++ {
		if i <= s.value {
			screen.SetContent(col, y, '█', nil, selected)
		} else {
			screen.SetContent(col, y, '░', nil, unselected)
		}
		col++
	}
	col = drawString(screen, col+1, y, s.format(s.value), labelStyle)
	screen.SetContent(col+1, y, '▶', nil, arrowStyle)
	return 1
}

func (s *LevelSlider) Value() int { return s.value }

// SetValue sets the value, clamped to the slider's range.
func (s *LevelSlider) SetValue(v int) {
	v = s.clamp(v)
	if v == s.value {
		return
	}
	s.value = v
	if s.onChange != nil {
		s.onChange(v)
	}
}

// RadioOption represents a single radio button option.
type RadioOption struct {
	Label       string
	Description string
}

// RadioSelect is a radio button group.
type RadioSelect struct {
	label    string
	options  []RadioOption
	selected int
	focused  bool
	onChange func(int)
}

func NewRadioSelect(label string, options []RadioOption, initial int, onChange func(int)) *RadioSelect {
	return &RadioSelect{label: label, options: options, selected: initial, onChange: onChange}
}

func (r *RadioSelect) SetFocused(focused bool) { r.focused = focused }

func (r *RadioSelect) HandleKey(event *tcell.EventKey) bool {
	switch event.Key() {
	case tcell.KeyUp, tcell.KeyLeft:
		r.SetSelected(r.selected - 1)
		return true
	case tcell.KeyDown, tcell.KeyRight:
		r.SetSelected(r.selected + 1)
		return true
	}
	return false
}

func (r *RadioSelect) Draw(screen tcell.Screen, x, y, width int) int {
	bg, _, _, selected, unselected, hint := menuStyles()
	drawItemLabel(screen, x, y, r.label, false)
	row := y + 1
	for i, opt := range r.options {
		col := x + 2
		if r.focused && i == r.selected {
			screen.SetContent(col, row, '▸', nil, selected)
		} else {
			screen.SetContent(col, row, ' ', nil, bg)
		}
		col += 2
		style, bullet := unselected, '○'
		if i == r.selected {
			style, bullet = selected, '●'
		}
		screen.SetContent(col, row, bullet, nil, style)
		col = drawString(screen, col+2, row, opt.Label, style)
		if opt.Description != "" {
			drawString(screen, col+1, row, opt.Description, hint)
		}
		row++
	}
	return row - y
}

func (r *RadioSelect) Selected() int { return r.selected }

// SetSelected selects index if it is in range.
func (r *RadioSelect) SetSelected(index int) {
	if index < 0 || index >= len(r.options) || index == r.selected {
		return
	}
	r.selected = index
	if r.onChange != nil {
		r.onChange(index)
	}
}

// NumberInput is a small numeric text field.
type NumberInput struct {
	label    string
	unit     string
	value    float64
	text     string
	focused  bool
	cursor   int
	onChange func(float64)
}

func NewNumberInput(label, unit string, initial float64, onChange func(float64)) *NumberInput {
	n := &NumberInput{label: label, unit: unit, onChange: onChange}
	n.setText(initial)
	return n
}

func (n *NumberInput) setText(v float64) {
	n.value = v
	n.text = strconv.FormatFloat(v, 'f', -1, 64)
	n.cursor = len(n.text)
}

func (n *NumberInput) SetFocused(focused bool) { n.focused = focused }

func (n *NumberInput) HandleKey(event *tcell.EventKey) bool {
	switch event.Key() {
	case tcell.KeyLeft:
		if n.cursor > 0 {
			n.cursor--
		}
		return true
	case tcell.KeyRight:
		if n.cursor < len(n.text) {
			n.cursor++
		}
		return true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if n.cursor > 0 {
			n.text = n.text[:n.cursor-1] + n.text[n.cursor:]
			n.cursor--
			n.parse()
		}
		return true
	case tcell.KeyDelete:
		if n.cursor < len(n.text) {
			n.text = n.text[:n.cursor] + n.text[n.cursor+1:]
			n.parse()
		}
		return true
	case tcell.KeyRune:
		if ch := event.Rune(); (ch >= '0' && ch <= '9') || ch == '.' {
			n.text = n.text[:n.cursor] + string(ch) + n.text[n.cursor:]
			n.cursor++
			n.parse()
		}
		return true
	}
	return false
}

// parse keeps the last valid positive value when the text does not parse.
func (n *NumberInput) parse() {
	v, err := strconv.ParseFloat(n.text, 64)
	if err != nil || v <= 0 {
		return
	}
	n.value = v
	if n.onChange != nil {
		n.onChange(v)
	}
}

func (n *NumberInput) Draw(screen tcell.Screen, x, y, width int) int {
	_, labelStyle, _, _, _, hint := menuStyles()
	input := tcell.StyleDefault.Foreground(MenuColors.Label).Background(MenuColors.FieldBG)
	cursor := tcell.StyleDefault.Foreground(MenuColors.CardBG).Background(MenuColors.Selected)

	col := drawItemLabel(screen, x, y, n.label, n.focused) + 3
	screen.SetContent(col, y, '[', nil, labelStyle)
	col++
	start := col
	for i, ch := range n.text {
		style := input
		if n.focused && i == n.cursor {
			style = cursor
		}
		screen.SetContent(col, y, ch, nil, style)
		col++
	}
	if n.focused && n.cursor >= len(n.text) {
		screen.SetContent(col, y, ' ', nil, cursor)
		col++
	}
	for col < start+6 {
		screen.SetContent(col, y, ' ', nil, input)
		col++
	}
	screen.SetContent(col, y, ']', nil, labelStyle)
	drawString(screen, col+2, y, n.unit, hint)
	return 1
}

func (n *NumberInput) Value() float64 { return n.value }

// MenuButton is a styled button.
type MenuButton struct {
	label    string
	primary  bool
	focused  bool
	onSelect func()
}

func NewMenuButton(label string, primary bool, onSelect func()) *MenuButton {
	return &MenuButton{label: label, primary: primary, onSelect: onSelect}
}

func (b *MenuButton) SetFocused(focused bool) { b.focused = focused }

func (b *MenuButton) HandleKey(event *tcell.EventKey) bool {
	if event.Key() != tcell.KeyEnter {
		return false
	}
	if b.onSelect != nil {
		b.onSelect()
	}
	return true
}

func (b *MenuButton) text() string {
	if b.primary {
		return "▶ " + b.label
	}
	return b.label
}

// Draw renders the button as a filled pill when focused and in brackets otherwise.
func (b *MenuButton) Draw(screen tcell.Screen, x, y, width int) int {
	label := b.text()
	if b.focused {
		style := tcell.StyleDefault.Foreground(MenuColors.ButtonText).Background(MenuColors.ButtonFocus)
		w := len([]rune(label)) + 2
		for i := 0; i < w; i++ {
			screen.SetContent(x+i, y, ' ', nil, style)
		}
		drawString(screen, x+1, y, label, style)
		return 1
	}
	_, _, _, _, _, hint := menuStyles()
	bracket := tcell.StyleDefault.Foreground(MenuColors.Border).Background(MenuColors.CardBG)
	screen.SetContent(x, y, '[', nil, bracket)
	col := drawString(screen, x+1, y, label, hint)
	screen.SetContent(col, y, ']', nil, bracket)
	return 1
}

// Width returns the button width on screen.
func (b *MenuButton) Width() int {
	return len([]rune(b.text())) + 2
}
