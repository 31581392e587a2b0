package history

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyLog(t *testing.T) {
	l := New[string](nil)
	_, ok := l.Current()
	assert.False(t, ok)
	assert.Equal(t, -1, l.Index())
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Undo())
	assert.False(t, l.Redo())
	assert.False(t, l.CanUndo())
	assert.False(t, l.CanRedo())
}

func TestAddUndoRedo(t *testing.T) {
	l := New[string](nil)
	l.Add("A")
	assert.False(t, l.CanUndo())

	l.Add("B")
	assert.True(t, l.CanUndo())
	cur, ok := l.Current()
	require.True(t, ok)
	assert.Equal(t, "B", cur)

	require.True(t, l.Undo())
	cur, _ = l.Current()
	assert.Equal(t, "A", cur)
	assert.True(t, l.CanRedo())

	l.Add("C")
	assert.False(t, l.CanRedo())
	cur, _ = l.Current()
	assert.Equal(t, "C", cur)
	assert.Equal(t, 2, l.Len())
}

func TestUndoToStart(t *testing.T) {
	l := New[string](nil)
	l.Add("P0")
	l.Add("P1")
	l.Add("P2")
	assert.True(t, l.Undo())
	assert.True(t, l.Undo())
	assert.False(t, l.Undo())

	cur, _ := l.Current()
	assert.Equal(t, "P0", cur)
	assert.False(t, l.CanUndo())
	assert.True(t, l.CanRedo())

	assert.True(t, l.Redo())
	assert.True(t, l.Redo())
	assert.False(t, l.Redo())
	cur, _ = l.Current()
	assert.Equal(t, "P2", cur)
	assert.Equal(t, 2, l.Index())
}

func TestRandomWalkKeepsCursorInRange(t *testing.T) {
	l := New[int](nil)
	ops := "aaururaaauuuuurrrraua"
	next := 0
	for _, op := range ops {
		switch op {
		case 'a':
			l.Add(next)
			next++
		case 'u':
			l.Undo()
		case 'r':
			l.Redo()
		}
		assert.GreaterOrEqual(t, l.Index(), 0)
		assert.Less(t, l.Index(), l.Len())
	}
}

type snap struct {
	moves []string
}

func cloneSnap(s snap) snap {
	return snap{moves: append([]string(nil), s.moves...)}
}

func TestCloneIsolatesCaller(t *testing.T) {
	l := New(cloneSnap)
	live := snap{moves: []string{"e4"}}
	l.Add(live)
	live.moves[0] = "d4"

	got, _ := l.Current()
	assert.Equal(t, []string{"e4"}, got.moves)

	got.moves[0] = "c4"
	again, _ := l.Current()
	assert.Equal(t, []string{"e4"}, again.moves)
}

func TestConcurrentUse(t *testing.T) {
	l := New[int](nil)
	l.Add(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				switch j % 3 {
				case 0:
					l.Add(i*1000 + j)
				case 1:
					l.Undo()
				default:
					l.Current()
				}
			}
		}(i)
	}
	wg.Wait()
	assert.GreaterOrEqual(t, l.Index(), 0)
	assert.Less(t, l.Index(), l.Len())
}
