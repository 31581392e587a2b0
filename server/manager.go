package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"termchess-local/game"
	"termchess-local/rules"
)

var ErrGameNotFound = errors.New("game not found")

// Subscriber receives state updates for one game. *websocket.Conn satisfies it.
type Subscriber interface {
	WriteJSON(v interface{}) error
}

// Subscription is a registered Subscriber. Writes through it are serialized with
// the ones made by Broadcast.
type Subscription struct {
	sub   Subscriber
	mu    sync.Mutex
	entry *entry
}

// Send writes one message to the subscriber.
func (s *Subscription) Send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub.WriteJSON(msg)
}

// Close unregisters the subscriber.
func (s *Subscription) Close() {
	s.entry.mu.Lock()
	delete(s.entry.subs, s)
	s.entry.mu.Unlock()
}

type entry struct {
	session *game.Session
	mu      sync.Mutex
	subs    map[*Subscription]struct{}
}

// Manager keeps the server's game sessions by id. Sessions run in solo mode.
type Manager struct {
	games map[string]*entry
	mu    sync.RWMutex
	log   *log.Logger
}

func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Manager{games: make(map[string]*entry), log: logger}
}

// Create starts a session from fen ("" for the start position) checked by the given oracle.
func (m *Manager) Create(fen string, kind rules.Kind) (*game.Session, error) {
	oracle, err := rules.New(kind)
	if err != nil {
		return nil, err
	}
	s, err := game.New(game.Options{
		Oracle:   oracle,
		Logger:   m.log,
		Solo:     true,
		StartFEN: fen,
	})
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.games[s.ID()] = &entry{session: s, subs: make(map[*Subscription]struct{})}
	m.mu.Unlock()
	m.log.Printf("server: created game %s (%s)", s.ID(), oracle.Name())
	return s, nil
}

func (m *Manager) get(id string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return e, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*game.Session, error) {
	e, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return e.session, nil
}

// Remove closes and forgets a session.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	e, ok := m.games[id]
	delete(m.games, id)
	m.mu.Unlock()
	if !ok {
		return ErrGameNotFound
	}
	return e.session.Close()
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

// Subscribe registers sub for state updates of game id.
func (m *Manager) Subscribe(id string, sub Subscriber) (*Subscription, error) {
	e, err := m.get(id)
	if err != nil {
		return nil, err
	}
	s := &Subscription{sub: sub, entry: e}
	e.mu.Lock()
	e.subs[s] = struct{}{}
	e.mu.Unlock()
	return s, nil
}

// Broadcast sends the current state of game id to all its subscribers.
func (m *Manager) Broadcast(id string) error {
	e, err := m.get(id)
	if err != nil {
		return err
	}
	msg, err := stateMessage(e.session)
	if err != nil {
		return err
	}
	e.mu.Lock()
	subs := make([]*Subscription, 0, len(e.subs))
	for s := range e.subs {
		subs = append(subs, s)
	}
	e.mu.Unlock()

	for _, s := range subs {
		if err := s.Send(msg); err != nil {
			m.log.Printf("server: game %s: dropping subscriber: %v", id, err)
			s.Close()
		}
	}
	return nil
}

// Close ends every session.
func (m *Manager) Close() error {
	m.mu.Lock()
	games := m.games
	m.games = make(map[string]*entry)
	m.mu.Unlock()
	var errs []error
	for id, e := range games {
		if err := e.session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("game %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func stateMessage(s *game.Session) (Message, error) {
	st, err := gameState(s)
	if err != nil {
		return Message{}, err
	}
	payload, err := json.Marshal(st)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: MessageTypeGameState, Payload: payload}, nil
}
