package config

import (
	"termchess-local/engine"
	"termchess-local/sound"
)

var DefaultConfig Config
var DefaultTheme Theme

func init() {
	DefaultTheme = Theme{
		DrawLastPlayedBackground: true,
		ShowCoordinates:          true,
		Colors: ConfigColors{
			LightSquare:       180,
			DarkSquare:        137,
			WhitePiece:        255,
			BlackPiece:        232,
			Coordinates:       244,
			CursorColorBG:     4,
			LastPlayedColorBG: 2,
		},
		Symbols: ConfigSymbols{
			White: "♔♕♖♗♘♙",
			Black: "♚♛♜♝♞♟",
		},
	}

	eng := engine.DefaultConfig()
	DefaultConfig = Config{
		Theme: DefaultTheme,
		Engine: EngineConfig{
			Path:        eng.Path,
			Kind:        eng.Kind.String(),
			Difficulty:  eng.Difficulty,
			ThinkTimeMS: int(eng.ThinkTime.Milliseconds()),
			EvalDepth:   eng.EvalDepth,
		},
		Game: GameConfig{
			Color: "white",
			Rules: "standard",
		},
		Sound: SoundConfig{
			Enabled: true,
			Volume:  sound.DefaultVolume,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}
