// Package sound picks the effect for each game event and hands it to a Player.
package sound

import (
	"io"
	"log"
	"sync"

	"github.com/gdamore/tcell/v2"

	"termchess-local/rules"
)

// Effect is a named game sound.
type Effect uint8

const (
	Move Effect = iota
	Capture
	Check
	Checkmate
	Castle
	Promotion
	Error
	GameStart
	GameEnd
)

var effectNames = [...]string{"move", "capture", "check", "checkmate", "castle", "promotion", "error", "game_start", "game_end"}

func (e Effect) String() string {
	if int(e) >= len(effectNames) {
		return "unknown"
	}
	return effectNames[e]
}

// ForMove chooses the effect for a move.
// Priority: checkmate, check, castle, promotion, capture, plain move.
func ForMove(t rules.Traits) Effect {
	switch {
	case t.Checkmate:
		return Checkmate
	case t.Check:
		return Check
	case t.Castle:
		return Castle
	case t.Promotion:
		return Promotion
	case t.Capture:
		return Capture
	}
	return Move
}

// Player produces an effect at the given volume (0..1).
type Player interface {
	Play(e Effect, volume float64) error
}

// Discard plays nothing.
type Discard struct{}

func (Discard) Play(Effect, float64) error { return nil }

// Bell rings the terminal bell for the effects that need the player's attention.
// Ordinary moves are silent.
type Bell struct {
	screen tcell.Screen
}

func NewBell(screen tcell.Screen) *Bell {
	return &Bell{screen: screen}
}

func (b *Bell) Play(e Effect, volume float64) error {
	switch e {
	case Check, Checkmate, Error, GameEnd:
		return b.screen.Beep()
	}
	return nil
}

// Service holds the sound settings for one program run. Create it once and pass it
// to whatever needs to make noise.
type Service struct {
	player  Player
	enabled bool
	volume  float64
	log     *log.Logger
	mu      sync.Mutex
}

// DefaultVolume is used when no volume is configured.
const DefaultVolume = 0.7

func NewService(player Player, enabled bool, volume float64, logger *log.Logger) *Service {
	if player == nil {
		player = Discard{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{player: player, enabled: enabled, volume: clampVolume(volume), log: logger}
}

// Play produces e unless sound is disabled or muted. Player errors are logged, not returned.
func (s *Service) Play(e Effect) {
	s.mu.Lock()
	enabled, volume, player := s.enabled, s.volume, s.player
	s.mu.Unlock()
	if !enabled || volume == 0 {
		return
	}
	if err := player.Play(e, volume); err != nil {
		s.log.Printf("sound: failed to play %s: %v", e, err)
	}
}

// PlayMove plays the effect ForMove picks for t.
func (s *Service) PlayMove(t rules.Traits) {
	s.Play(ForMove(t))
}

func (s *Service) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetVolume sets the master volume, clamped to 0..1.
func (s *Service) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = clampVolume(v)
}

func (s *Service) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Close disables the service and releases the player if it holds resources.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
	if c, ok := s.player.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
