// Package config loads and saves the termchess-local settings file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"termchess-local/engine"
	"termchess-local/rules"
)

var (
	cfgFile  = "termchess-local/config.json"
	gamesDir = "termchess-local/games"
	logFile  = "termchess-local/debug.log"
)

type InvalidConfig struct {
	err string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("Config error: %s", e.err)
}

type ConfigColors struct {
	LightSquare       int `json:"light_square"`
	DarkSquare        int `json:"dark_square"`
	WhitePiece        int `json:"white_piece"`
	BlackPiece        int `json:"black_piece"`
	Coordinates       int `json:"coordinates"`
	CursorColorBG     int `json:"cursor_bg"`
	LastPlayedColorBG int `json:"last_played_bg"`
}

// ConfigSymbols holds the glyph drawn for each piece, indexed by "KQRBNP" for white
// and "kqrbnp" for black.
type ConfigSymbols struct {
	White string `json:"white"`
	Black string `json:"black"`
}

type Theme struct {
	DrawLastPlayedBackground bool          `json:"draw_last_played_bg"`
	ShowCoordinates          bool          `json:"show_coordinates"`
	Colors                   ConfigColors  `json:"colors"`
	Symbols                  ConfigSymbols `json:"symbols"`
}

// EngineConfig holds the opponent settings.
type EngineConfig struct {
	Path        string `json:"path"`
	Kind        string `json:"kind"` // "uci" or "random"
	Difficulty  int    `json:"difficulty"`
	ThinkTimeMS int    `json:"think_time_ms"`
	EvalDepth   int    `json:"eval_depth"`
}

type GameConfig struct {
	Color string `json:"color"` // "white" or "black"
	Rules string `json:"rules"` // "standard" or "bitboard"
	Solo  bool   `json:"solo"`
}

type SoundConfig struct {
	Enabled bool    `json:"enabled"`
	Volume  float64 `json:"volume"`
}

type ServerConfig struct {
	Addr string `json:"addr"`
}

type Config struct {
	Theme    Theme        `json:"theme"`
	Engine   EngineConfig `json:"engine"`
	Game     GameConfig   `json:"game"`
	Sound    SoundConfig  `json:"sound"`
	Server   ServerConfig `json:"server"`
	DebugLog bool         `json:"debug_log"`
}

// InitConfig reads the config file from the XDG config dirs, if there is one, over
// the defaults.
func InitConfig() (*Config, error) {
	absPath, err := xdg.SearchConfigFile(cfgFile)
	if err != nil {
		config := DefaultConfig
		return &config, nil
	}
	return LoadFile(absPath)
}

// LoadFile reads filePath over the defaults and validates the result.
// A missing file yields the defaults.
func LoadFile(filePath string) (*Config, error) {
	config := DefaultConfig
	if err := readCfgFile(filePath, &config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.Engine.Difficulty < 0 || c.Engine.Difficulty > engine.MaxDifficulty {
		return &InvalidConfig{fmt.Sprintf("difficulty must be between 0 and %d", engine.MaxDifficulty)}
	}
	if c.Engine.ThinkTimeMS <= 0 {
		return &InvalidConfig{"think_time_ms must be positive"}
	}
	if c.Engine.EvalDepth <= 0 {
		return &InvalidConfig{"eval_depth must be positive"}
	}
	if _, err := engine.ParseKind(c.Engine.Kind); err != nil {
		return &InvalidConfig{err.Error()}
	}
	if _, err := rules.ParseKind(c.Game.Rules); err != nil {
		return &InvalidConfig{err.Error()}
	}
	if _, err := rules.ParseColor(c.Game.Color); err != nil {
		return &InvalidConfig{err.Error()}
	}
	if c.Sound.Volume < 0 || c.Sound.Volume > 1 {
		return &InvalidConfig{"volume must be between 0 and 1"}
	}
	for _, set := range []string{c.Theme.Symbols.White, c.Theme.Symbols.Black} {
		if len([]rune(set)) != 6 {
			return &InvalidConfig{"piece symbols need exactly 6 characters (KQRBNP)"}
		}
		for _, r := range set {
			if r < 32 || (r >= 127 && r <= 159) {
				return &InvalidConfig{"Unicode characters 1-31 and 127-159 are not allowed"}
			}
		}
	}
	return nil
}

// EngineSettings converts the engine section for the engine packages.
func (c *Config) EngineSettings() engine.Config {
	kind, _ := engine.ParseKind(c.Engine.Kind)
	return engine.Config{
		Kind:       kind,
		Path:       c.Engine.Path,
		Difficulty: engine.ClampDifficulty(c.Engine.Difficulty),
		ThinkTime:  time.Duration(c.Engine.ThinkTimeMS) * time.Millisecond,
		EvalDepth:  c.Engine.EvalDepth,
	}
}

// Save writes the config to the user's XDG config dir.
func (c *Config) Save() error {
	absPath, err := xdg.ConfigFile(cfgFile)
	if err != nil {
		return err
	}
	return saveCfgFile(absPath, c, 0664)
}

// GamesDir is where game records are kept.
func GamesDir() (string, error) {
	path, err := xdg.DataFile(filepath.Join(gamesDir, ".keep"))
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}

// LogFile is the debug log location.
func LogFile() (string, error) {
	return xdg.StateFile(logFile)
}

func saveCfgFile(filePath string, a interface{}, perm fs.FileMode) error {
	jsonData, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, jsonData, perm)
}

func readCfgFile(filePath string, a interface{}) error {
	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, a); err != nil {
		return &InvalidConfig{fmt.Sprintf("%s: %v", filePath, err)}
	}
	return nil
}
