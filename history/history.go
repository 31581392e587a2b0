// Package history keeps a linear undo/redo log of position snapshots.
package history

import "sync"

// Log is a linear list of snapshots with a cursor. Adding a snapshot after undoing
// discards everything past the cursor; there are no branches.
//
// A Log is safe for concurrent use.
type Log[T any] struct {
	mu      sync.Mutex
	entries []T
	current int
	clone   func(T) T
}

// New creates an empty log. clone copies snapshots going in and coming out so the log
// never shares memory with its callers; pass nil when T is a plain value.
func New[T any](clone func(T) T) *Log[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Log[T]{current: -1, clone: clone}
}

// Add truncates everything after the cursor, appends snapshot and moves the cursor to it.
func (l *Log[T]) Add(snapshot T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries[:l.current+1], l.clone(snapshot))
	l.current = len(l.entries) - 1
}

// Undo moves the cursor back one entry. Returns false if already at the first entry.
func (l *Log[T]) Undo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current <= 0 {
		return false
	}
	l.current--
	return true
}

// Redo moves the cursor forward one entry. Returns false if already at the last entry.
func (l *Log[T]) Redo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current >= len(l.entries)-1 {
		return false
	}
	l.current++
	return true
}

// Current returns the snapshot under the cursor. Returns false if the log is empty.
func (l *Log[T]) Current() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current < 0 {
		var zero T
		return zero, false
	}
	return l.clone(l.entries[l.current]), true
}

func (l *Log[T]) CanUndo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current > 0
}

func (l *Log[T]) CanRedo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current < len(l.entries)-1
}

// Len returns the number of stored snapshots, including any redo entries.
func (l *Log[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Index returns the cursor position, -1 for an empty log.
func (l *Log[T]) Index() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}
