package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termchess-local/engine"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig
	require.NoError(t, cfg.Validate())

	eng := cfg.EngineSettings()
	assert.Equal(t, engine.KindUCI, eng.Kind)
	assert.Equal(t, "stockfish", eng.Path)
	assert.Equal(t, 10, eng.Difficulty)
	assert.Equal(t, 3*time.Second, eng.ThinkTime)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"full strength", func(c *Config) { c.Engine.Difficulty = 20 }, true},
		{"random opponent", func(c *Config) { c.Engine.Kind = "random" }, true},
		{"bitboard rules", func(c *Config) { c.Game.Rules = "bitboard" }, true},
		{"ascii pieces", func(c *Config) { c.Theme.Symbols.White = "KQRBNP"; c.Theme.Symbols.Black = "kqrbnp" }, true},
		{"difficulty too high", func(c *Config) { c.Engine.Difficulty = 21 }, false},
		{"negative difficulty", func(c *Config) { c.Engine.Difficulty = -1 }, false},
		{"zero think time", func(c *Config) { c.Engine.ThinkTimeMS = 0 }, false},
		{"zero depth", func(c *Config) { c.Engine.EvalDepth = 0 }, false},
		{"unknown opponent", func(c *Config) { c.Engine.Kind = "gnuchess" }, false},
		{"unknown rules", func(c *Config) { c.Game.Rules = "fischer" }, false},
		{"unknown color", func(c *Config) { c.Game.Color = "red" }, false},
		{"loud", func(c *Config) { c.Sound.Volume = 1.5 }, false},
		{"short symbol set", func(c *Config) { c.Theme.Symbols.White = "KQ" }, false},
		{"control character", func(c *Config) { c.Theme.Symbols.Black = "kqrbn\x07" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			var invalid *InvalidConfig
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFile(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig, *cfg)

	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"engine": {"difficulty": 3, "kind": "random"}, "sound": {"enabled": false}}`), 0644))
	cfg, err = LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Engine.Difficulty)
	assert.Equal(t, "random", cfg.Engine.Kind)
	assert.Equal(t, "stockfish", cfg.Engine.Path, "unset fields keep their defaults")
	assert.False(t, cfg.Sound.Enabled)
	assert.Equal(t, DefaultConfig.Sound.Volume, cfg.Sound.Volume)

	require.NoError(t, os.WriteFile(path, []byte(`{"engine": {"difficulty": 99}}`), 0644))
	_, err = LoadFile(path)
	var invalid *InvalidConfig
	assert.ErrorAs(t, err, &invalid)

	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))
	_, err = LoadFile(path)
	assert.ErrorAs(t, err, &invalid)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := DefaultConfig
	cfg.Game.Color = "black"
	cfg.Server.Addr = ":9000"
	require.NoError(t, saveCfgFile(path, &cfg, 0664))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)
}
