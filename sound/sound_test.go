package sound

import (
	"errors"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termchess-local/rules"
)

type recorder struct {
	played  []Effect
	volumes []float64
	err     error
	closed  bool
}

func (r *recorder) Play(e Effect, v float64) error {
	r.played = append(r.played, e)
	r.volumes = append(r.volumes, v)
	return r.err
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

func TestForMovePriority(t *testing.T) {
	tests := []struct {
		traits rules.Traits
		want   Effect
	}{
		{rules.Traits{}, Move},
		{rules.Traits{Capture: true}, Capture},
		{rules.Traits{Capture: true, EnPassant: true}, Capture},
		{rules.Traits{Promotion: true, Capture: true}, Promotion},
		{rules.Traits{Castle: true}, Castle},
		{rules.Traits{Castle: true, Check: true}, Check},
		{rules.Traits{Promotion: true, Check: true}, Check},
		{rules.Traits{Capture: true, Check: true, Checkmate: true}, Checkmate},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ForMove(tt.traits), "%+v", tt.traits)
	}
}

func TestServicePlays(t *testing.T) {
	r := &recorder{}
	s := NewService(r, true, 0.5, nil)
	s.PlayMove(rules.Traits{Castle: true})
	s.Play(GameEnd)
	assert.Equal(t, []Effect{Castle, GameEnd}, r.played)
	assert.Equal(t, []float64{0.5, 0.5}, r.volumes)
}

func TestServiceDisabledAndMuted(t *testing.T) {
	r := &recorder{}
	s := NewService(r, false, 1, nil)
	s.Play(Move)
	assert.Empty(t, r.played)

	s.SetEnabled(true)
	s.SetVolume(0)
	s.Play(Move)
	assert.Empty(t, r.played)

	s.SetVolume(3)
	assert.Equal(t, 1.0, s.Volume())
	s.SetVolume(-1)
	assert.Equal(t, 0.0, s.Volume())
}

func TestServiceSwallowsPlayerErrors(t *testing.T) {
	r := &recorder{err: errors.New("no device")}
	s := NewService(r, true, DefaultVolume, nil)
	assert.NotPanics(t, func() { s.Play(Error) })
	assert.Equal(t, []Effect{Error}, r.played)
}

func TestServiceClose(t *testing.T) {
	r := &recorder{}
	s := NewService(r, true, 1, nil)
	require.NoError(t, s.Close())
	assert.True(t, r.closed)
	assert.False(t, s.Enabled())
	s.Play(Move)
	assert.Empty(t, r.played)

	require.NoError(t, NewService(nil, true, 1, nil).Close())
}

func TestBellRingsOnlyForAlerts(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	defer screen.Fini()

	b := NewBell(screen)
	for _, e := range []Effect{Move, Capture, Castle, Promotion, GameStart, Check, Checkmate, Error, GameEnd} {
		assert.NoError(t, b.Play(e, 1))
	}
}

func TestEffectNames(t *testing.T) {
	assert.Equal(t, "game_start", GameStart.String())
	assert.Equal(t, "checkmate", Checkmate.String())
	assert.Equal(t, "unknown", Effect(42).String())
}
