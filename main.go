// termchess-local is a terminal application to play chess against a UCI engine offline.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/rivo/tview"

	"termchess-local/config"
	"termchess-local/engine"
	"termchess-local/engine/random"
	"termchess-local/engine/uci"
	"termchess-local/game"
	"termchess-local/record"
	"termchess-local/rules"
	"termchess-local/server"
	"termchess-local/sound"
	"termchess-local/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

// Command-line flags
var (
	flagColor      = flag.String("color", "", "Player color (white or black)")
	flagDifficulty = flag.Int("difficulty", -1, "Engine strength (0-20)")
	flagEngine     = flag.String("engine", "", "Path to the UCI engine binary")
	flagOpponent   = flag.String("opponent", "", "Opponent (uci or random)")
	flagRules      = flag.String("rules", "", "Move checking (standard or bitboard)")
	flagSound      = flag.String("sound", "", "Sound (on or off)")
	flagQuickStart = flag.Bool("play", false, "Start game immediately with defaults")
	flagFocus      = flag.Bool("focus", false, "Start in focus mode (fullscreen board)")
	flagServe      = flag.Bool("serve", false, "Serve the HTTP analysis API instead of starting the UI")
	flagAddr       = flag.String("addr", "", "Address for -serve")
	flagGames      = flag.Bool("games", false, "Open the saved games browser")
	flagDebug      = flag.Bool("debug", false, "Write a debug log")
	flagVersion    = flag.Bool("version", false, "Print version and exit")
)

const connectTimeout = 10 * time.Second

var app *tview.Application
var rootPage *tview.Pages
var gameBoard *ui.ChessBoardUI
var gameFrame *tview.Flex
var gameHint *tview.TextView
var gameInput *ui.CommandInput
var browser *ui.GameBrowserUI
var sounds *sound.Service
var cfg *config.Config
var logger *log.Logger

func main() {
	flag.Parse()

	if *flagVersion {
		fmt.Printf("termchess-local %s\n", Version)
		return
	}

	var err error
	cfg, err = config.InitConfig()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := applyFlags(cfg); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	var closeLog func()
	logger, closeLog = openLog(*flagDebug || cfg.DebugLog)
	defer closeLog()

	if *flagServe {
		if err := serve(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		return
	}

	// The UCI engine is optional in solo games only.
	if kind, _ := engine.ParseKind(cfg.Engine.Kind); kind == engine.KindUCI && !cfg.Game.Solo {
		if err := engine.Available(cfg.Engine.Path); err != nil {
			fmt.Println("Error: chess engine not found.")
			fmt.Println("Please install Stockfish:")
			fmt.Println("  macOS:  brew install stockfish")
			fmt.Println("  Ubuntu: sudo apt install stockfish")
			fmt.Println("  Fedora: sudo dnf install stockfish")
			fmt.Println("or play the random mover with -opponent random")
			return
		}
	}

	quickStart := *flagQuickStart || *flagColor != "" || *flagDifficulty >= 0 || *flagOpponent != "" || *flagFocus

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	sounds = sound.NewService(sound.NewBell(screen), cfg.Sound.Enabled, cfg.Sound.Volume, logger)

	app = tview.NewApplication().SetScreen(screen)
	rootPage = tview.NewPages()
	rootPage.SetBorder(true).SetTitle(" ♞ termchess ")

	// Game view setup
	gameHint = tview.NewTextView()
	gameHint.SetBorder(true)
	gameHint.SetBorderPadding(0, 0, 1, 1)
	gameHint.SetTitle(" Status ")
	gameHint.SetTitleAlign(tview.AlignLeft)
	gameBoard = ui.NewChessBoard(app, cfg, gameHint, logger)
	gameInput = ui.NewCommandInput(gameBoard, func() {
		app.SetFocus(gameBoard.Box)
	}, func() {
		leaveGame()
	})

	gameFrame = ui.CreateGameLayout(gameBoard, gameHint, gameInput)

	gameBoard.Box.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyUp:
			gameBoard.MoveSelection(0, -1)
		case tcell.KeyDown:
			gameBoard.MoveSelection(0, 1)
		case tcell.KeyLeft:
			gameBoard.MoveSelection(-1, 0)
		case tcell.KeyRight:
			gameBoard.MoveSelection(1, 0)
		case tcell.KeyEnter:
			gameBoard.Select()
		case tcell.KeyEsc:
			gameBoard.ResetSelection()
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q':
				if gameBoard.SelectedTile() != nil {
					gameBoard.ResetSelection()
				} else {
					leaveGame()
				}
				return nil
			case 'h':
				gameBoard.MoveSelection(-1, 0)
			case 'j':
				gameBoard.MoveSelection(0, 1)
			case 'k':
				gameBoard.MoveSelection(0, -1)
			case 'l':
				gameBoard.MoveSelection(1, 0)
			case 'u':
				gameBoard.Undo()
			case 'r':
				gameBoard.Redo()
			case 's':
				gameBoard.ToggleSolo()
			case 'x':
				gameBoard.Flip()
			case ':', '/':
				if gameBoard.FocusMode() {
					toggleFocus()
				}
				app.SetFocus(gameInput.Field())
				return nil
			case 'f':
				toggleFocus()
			}
		}
		return event
	})

	// Game setup screen
	setupUI := ui.NewGameSetup(ui.SetupFromConfig(cfg),
		startGame,
		func() {
			app.Stop()
		},
		showSettings,
		func() {
			rootPage.SwitchToPage("colors")
		},
		showBrowser,
	)

	// Color configuration screen
	colorConfig := ui.NewColorConfig(cfg, func() {
		gameBoard.SetConfig(cfg)
		saveConfig()
	})
	colorConfig.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc || (event.Key() == tcell.KeyRune && event.Rune() == 'q') {
			rootPage.SwitchToPage("setup")
			return nil
		}
		if event.Key() == tcell.KeyTab {
			colorConfig.ToggleMode()
			return nil
		}
		return event
	})

	dir, err := config.GamesDir()
	if err != nil {
		logger.Printf("main: games dir: %v", err)
	}
	browser = ui.NewGameBrowser(dir, cfg, reviewGame, func() {
		rootPage.SwitchToPage("setup")
	})

	// Add pages - start on setup by default, or gameview if quick start
	rootPage.AddPage("setup", ui.CreateCenteredForm(setupUI.Form(), 64), true, !quickStart && !*flagGames)
	rootPage.AddPage("gameview", gameFrame, true, quickStart)
	rootPage.AddPage("colors", colorConfig.Flex(), true, false)
	rootPage.AddPage("games", browser.Flex(), true, false)

	if quickStart {
		startGame(ui.SetupFromConfig(cfg))
		if *flagFocus {
			toggleFocus()
		}
	} else if *flagGames {
		showBrowser()
	}

	if err := app.SetRoot(rootPage, true).Run(); err != nil {
		panic(err)
	}
	gameBoard.Close()
	sounds.Close()
}

// applyFlags overrides the loaded config with the command line.
func applyFlags(c *config.Config) error {
	if *flagColor != "" {
		c.Game.Color = *flagColor
	}
	if *flagDifficulty >= 0 {
		c.Engine.Difficulty = *flagDifficulty
	}
	if *flagEngine != "" {
		c.Engine.Path = *flagEngine
	}
	if *flagOpponent != "" {
		c.Engine.Kind = *flagOpponent
	}
	if *flagRules != "" {
		c.Game.Rules = *flagRules
	}
	switch *flagSound {
	case "":
	case "on":
		c.Sound.Enabled = true
	case "off":
		c.Sound.Enabled = false
	default:
		return fmt.Errorf("-sound must be on or off, got %q", *flagSound)
	}
	if *flagAddr != "" {
		c.Server.Addr = *flagAddr
	}
	return c.Validate()
}

// openLog returns the debug logger and the function that closes its file.
func openLog(enabled bool) (*log.Logger, func()) {
	discard := log.New(io.Discard, "", 0)
	if !enabled {
		return discard, func() {}
	}
	path, err := config.LogFile()
	if err != nil {
		fmt.Printf("debug log disabled: %v\n", err)
		return discard, func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Printf("debug log disabled: %v\n", err)
		return discard, func() {}
	}
	return log.New(f, "", log.LstdFlags|log.Lmicroseconds), func() { f.Close() }
}

// serve runs the HTTP analysis API until interrupted.
func serve() error {
	srv := server.New(server.NewManager(logger), logger)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		if err := srv.Shutdown(); err != nil {
			logger.Printf("main: shutdown: %v", err)
		}
	}()

	fmt.Printf("termchess-local %s serving on http://%s\n", Version, cfg.Server.Addr)
	return srv.Listen(cfg.Server.Addr)
}

// newEngine creates the opponent for ec. The returned name is shown in the game panel.
func newEngine(ec engine.Config) (engine.Engine, string) {
	switch ec.Kind {
	case engine.KindRandom:
		return random.New(time.Now().UnixNano()), "Random mover"
	default:
		return uci.New(ec, logger), "Stockfish"
	}
}

// startGame starts a game with the given setup.
func startGame(setup ui.Setup) {
	setup.Apply(cfg)
	saveConfig()
	sounds.SetEnabled(cfg.Sound.Enabled)
	sounds.SetVolume(cfg.Sound.Volume)

	oracle, err := rules.New(setup.Rules)
	if err != nil {
		showError(err)
		return
	}

	ec := cfg.EngineSettings()
	eng, opponent := newEngine(ec)
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	err = eng.Connect(ctx)
	cancel()
	if err != nil {
		eng.Close()
		if !setup.Solo {
			showError(err)
			return
		}
		logger.Printf("main: playing solo without an engine: %v", err)
		eng, opponent = nil, "yourself"
	} else if u, ok := eng.(*uci.Engine); ok && u.Name() != "" {
		opponent = u.Name()
	}

	id := uuid.NewString()
	white, black := "Player", opponent
	if setup.Color == rules.Black {
		white, black = opponent, "Player"
	}
	var recorder game.Recorder
	if dir, err := config.GamesDir(); err != nil {
		logger.Printf("main: not saving game: %v", err)
	} else if rec, err := record.New(dir, record.Header{SessionID: id, White: white, Black: black}); err != nil {
		logger.Printf("main: not saving game: %v", err)
	} else {
		recorder = rec
	}

	session, err := game.New(game.Options{
		ID:        id,
		Oracle:    oracle,
		Engine:    eng,
		Sound:     sounds,
		Recorder:  recorder,
		Logger:    logger,
		Human:     setup.Color,
		Solo:      setup.Solo,
		ThinkTime: ec.ThinkTime,
	})
	if err != nil {
		if eng != nil {
			eng.Close()
		}
		if c, ok := recorder.(io.Closer); ok {
			c.Close()
		}
		showError(err)
		return
	}
	gameBoard.Start(session, opponent)
	rootPage.SwitchToPage("gameview")
	app.SetFocus(gameBoard.Box)
}

// reviewGame opens a saved game as a solo session at its final position.
func reviewGame(info record.GameInfo) {
	moves, start, err := record.Load(info.FilePath)
	if err != nil {
		showError(err)
		return
	}
	session, err := game.New(game.Options{Logger: logger, Solo: true, StartFEN: start})
	if err != nil {
		showError(err)
		return
	}
	for _, san := range moves {
		if _, err := session.Play(san); err != nil {
			session.Close()
			showError(fmt.Errorf("replaying %s: %w", info.FileName, err))
			return
		}
	}
	gameBoard.Start(session, fmt.Sprintf("%s vs %s", info.White, info.Black))
	rootPage.SwitchToPage("gameview")
	app.SetFocus(gameBoard.Box)
}

func leaveGame() {
	gameBoard.Close()
	rootPage.SwitchToPage("setup")
}

func toggleFocus() {
	if gameBoard.ToggleFocusMode() {
		ui.BuildFocusLayout(gameFrame, gameBoard, gameHint)
	} else {
		ui.RebuildNormalLayout(gameFrame, gameBoard, gameHint, gameInput)
	}
	app.SetFocus(gameBoard.Box)
}

func showSettings() {
	settings := ui.NewSettings(*cfg, func(c config.Config) {
		cfg.Sound = c.Sound
		cfg.Engine.ThinkTimeMS = c.Engine.ThinkTimeMS
		cfg.Engine.EvalDepth = c.Engine.EvalDepth
		cfg.Theme.Symbols = c.Theme.Symbols
		sounds.SetEnabled(cfg.Sound.Enabled)
		sounds.SetVolume(cfg.Sound.Volume)
		gameBoard.SetConfig(cfg)
		saveConfig()
		rootPage.SwitchToPage("setup")
	}, func() {
		rootPage.SwitchToPage("setup")
	})
	rootPage.AddPage("settings", ui.CreateCenteredForm(settings, 64), true, true)
	app.SetFocus(settings)
}

func showBrowser() {
	browser.Refresh()
	rootPage.SwitchToPage("games")
}

func saveConfig() {
	if err := cfg.Validate(); err != nil {
		logger.Printf("main: not saving config: %v", err)
		return
	}
	if err := cfg.Save(); err != nil {
		logger.Printf("main: saving config: %v", err)
	}
}

func showError(err error) {
	logger.Printf("main: %v", err)
	modal := tview.NewModal().
		SetText(fmt.Sprintf("Error:\n%s", err.Error())).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			rootPage.RemovePage("error")
		})
	rootPage.AddPage("error", modal, true, true)
}
