package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termchess-local/config"
	"termchess-local/engine"
	"termchess-local/rules"
)

// Setup is what the player chose on the new game screen.
type Setup struct {
	Color      rules.Color
	Opponent   engine.Kind
	Difficulty int
	Rules      rules.Kind
	Sound      bool
	Solo       bool
}

// SetupFromConfig returns the choices stored in cfg.
func SetupFromConfig(cfg *config.Config) Setup {
	color, err := rules.ParseColor(cfg.Game.Color)
	if err != nil {
		color = rules.White
	}
	opponent, _ := engine.ParseKind(cfg.Engine.Kind)
	kind, _ := rules.ParseKind(cfg.Game.Rules)
	return Setup{
		Color:      color,
		Opponent:   opponent,
		Difficulty: engine.ClampDifficulty(cfg.Engine.Difficulty),
		Rules:      kind,
		Sound:      cfg.Sound.Enabled,
		Solo:       cfg.Game.Solo,
	}
}

// Apply stores the choices back into cfg.
func (s Setup) Apply(cfg *config.Config) {
	cfg.Game.Color = s.Color.String()
	cfg.Engine.Kind = s.Opponent.String()
	cfg.Engine.Difficulty = s.Difficulty
	cfg.Game.Rules = s.Rules.String()
	cfg.Sound.Enabled = s.Sound
	cfg.Game.Solo = s.Solo
}

// GameSetupUI provides a form for configuring a new game.
type GameSetupUI struct {
	form  *tview.Form
	flex  *tview.Flex
	setup Setup
}

// NewGameSetup creates a new game setup form.
func NewGameSetup(initial Setup, onStart func(Setup), onCancel, onSettings, onColors, onBrowse func()) *GameSetupUI {
	s := &GameSetupUI{setup: initial}

	colors := []string{"White (move first)", "Black (move second)"}
	opponents := []string{"Stockfish (UCI)", "Random mover"}
	oracles := []string{"Standard", "Bitboard (strict SAN)"}
	levels := make([]string, engine.MaxDifficulty+1)
	for d := range levels {
		levels[d] = fmt.Sprintf("%d (~%d Elo)", d, engine.Elo(d))
	}
	levels[engine.MaxDifficulty] = fmt.Sprintf("%d (full strength)", engine.MaxDifficulty)

	colorIdx := 0
	if initial.Color == rules.Black {
		colorIdx = 1
	}

	form := tview.NewForm()

	form.AddDropDown("Your Color", colors, colorIdx, func(option string, index int) {
		s.setup.Color = rules.White
		if index == 1 {
			s.setup.Color = rules.Black
		}
	})

	form.AddDropDown("Opponent", opponents, int(initial.Opponent), func(option string, index int) {
		s.setup.Opponent = engine.Kind(index)
	})

	form.AddDropDown("Strength", levels, initial.Difficulty, func(option string, index int) {
		s.setup.Difficulty = index
	})

	form.AddDropDown("Move Checking", oracles, int(initial.Rules), func(option string, index int) {
		s.setup.Rules = rules.Kind(index)
	})

	form.AddCheckbox("Sound", initial.Sound, func(checked bool) {
		s.setup.Sound = checked
	})

	form.AddCheckbox("Solo (move both sides)", initial.Solo, func(checked bool) {
		s.setup.Solo = checked
	})

	form.AddButton("Start Game", func() {
		onStart(s.setup)
	})

	for _, b := range []struct {
		label string
		fn    func()
	}{
		{"Settings", onSettings},
		{"Board Color", onColors},
		{"Saved Games", onBrowse},
	} {
		fn := b.fn
		form.AddButton(b.label, func() {
			if fn != nil {
				fn()
			}
		})
	}

	form.AddButton("Quit", func() {
		onCancel()
	})

	form.SetBorder(true)
	form.SetTitle(" New Game ")
	form.SetTitleAlign(tview.AlignCenter)
	form.SetButtonBackgroundColor(MenuColors.ButtonBG)
	form.SetButtonTextColor(MenuColors.ButtonText)

	helpText := tview.NewTextView().
		SetText("Tab/Shift+Tab: navigate fields  |  Arrow keys: change dropdown  |  Enter: confirm").
		SetTextAlign(tview.AlignCenter)
	helpText.SetTextColor(MenuColors.Hint)

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(helpText, 1, 0, false)

	s.form = form
	s.flex = flex
	return s
}

// Form returns the flex container with form and help text.
func (s *GameSetupUI) Form() *tview.Flex {
	return s.flex
}

// Setup returns the current choices.
func (s *GameSetupUI) Setup() Setup {
	return s.setup
}

// SetInputCapture sets the input capture function for the form.
func (s *GameSetupUI) SetInputCapture(capture func(event *tcell.EventKey) *tcell.EventKey) {
	s.form.SetInputCapture(capture)
}
