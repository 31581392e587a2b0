package ui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termchess-local/config"
)

var pieceStyles = []config.ConfigSymbols{
	config.DefaultTheme.Symbols,
	{White: "KQRBNP", Black: "kqrbnp"},
}

// SettingsUI edits sound, engine timing and piece style on a menu card.
type SettingsUI struct {
	*MenuCard
	cfg     config.Config
	items   []menuItem
	buttons []*MenuButton
	focus   int
	onSave  func(config.Config)
	onDone  func()
}

// NewSettings creates the settings card over a copy of cfg. onSave receives the edited
// config; onDone is called when the card is left.
func NewSettings(cfg config.Config, onSave func(config.Config), onDone func()) *SettingsUI {
	s := &SettingsUI{
		MenuCard: NewMenuCard("SETTINGS"),
		cfg:      cfg,
		onSave:   onSave,
		onDone:   onDone,
	}

	pieces := 0
	if cfg.Theme.Symbols == pieceStyles[1] {
		pieces = 1
	}
	sound := 0
	if !cfg.Sound.Enabled {
		sound = 1
	}

	s.items = []menuItem{
		NewRadioSelect("Sound", []RadioOption{
			{Label: "On", Description: "bell on check, mate and errors"},
			{Label: "Off"},
		}, sound, func(i int) { s.cfg.Sound.Enabled = i == 0 }),
		NewLevelSlider("Volume", 0, 10, int(cfg.Sound.Volume*10+0.5), func(v int) string {
			return fmt.Sprintf("%d%%", v*10)
		}, func(v int) { s.cfg.Sound.Volume = float64(v) / 10 }),
		NewNumberInput("Think time", "seconds per engine move", float64(cfg.Engine.ThinkTimeMS)/1000, func(v float64) {
			s.cfg.Engine.ThinkTimeMS = int(v * float64(time.Second/time.Millisecond))
		}),
		NewLevelSlider("Eval depth", 1, 24, cfg.Engine.EvalDepth, nil, func(v int) { s.cfg.Engine.EvalDepth = v }),
		NewRadioSelect("Pieces", []RadioOption{
			{Label: "Symbols", Description: "♔ ♚"},
			{Label: "Letters", Description: "K k"},
		}, pieces, func(i int) { s.cfg.Theme.Symbols = pieceStyles[i] }),
	}
	s.buttons = []*MenuButton{
		NewMenuButton("Save", true, func() {
			if s.onSave != nil {
				s.onSave(s.cfg)
			}
		}),
		NewMenuButton("Back", false, func() {
			if s.onDone != nil {
				s.onDone()
			}
		}),
	}
	s.SetFooter("Tab next · ←→ change · ⏎ select · Esc back")
	s.setFocus(0)
	return s
}

// Config returns the edited config.
func (s *SettingsUI) Config() config.Config {
	return s.cfg
}

func (s *SettingsUI) all() []menuItem {
	all := append([]menuItem(nil), s.items...)
	for _, b := range s.buttons {
		all = append(all, b)
	}
	return all
}

func (s *SettingsUI) setFocus(i int) {
	all := s.all()
	s.focus = (i + len(all)) % len(all)
	for j, item := range all {
		item.SetFocused(j == s.focus)
	}
}

// HandleKey routes a key to the focused row. Tab and Shift+Tab move between rows.
func (s *SettingsUI) HandleKey(event *tcell.EventKey) bool {
	switch event.Key() {
	case tcell.KeyTab:
		s.setFocus(s.focus + 1)
		return true
	case tcell.KeyBacktab:
		s.setFocus(s.focus - 1)
		return true
	case tcell.KeyEscape:
		if s.onDone != nil {
			s.onDone()
		}
		return true
	}
	return s.all()[s.focus].HandleKey(event)
}

// InputHandler makes the card a tview primitive that takes keys.
func (s *SettingsUI) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return s.WrapInputHandler(func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
		s.HandleKey(event)
	})
}

func (s *SettingsUI) Draw(screen tcell.Screen) {
	s.MenuCard.Draw(screen)
	x, _, width, _ := s.GetInnerRect()
	row := s.ContentTop()
	for _, item := range s.items {
		row += item.Draw(screen, x+3, row, width-6) + 1
	}
	col := x + 5
	for _, b := range s.buttons {
		b.Draw(screen, col, row, width)
		col += b.Width() + 2
	}
}
