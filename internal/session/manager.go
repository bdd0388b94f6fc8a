// Package session tracks the live game orchestrators of the process, keyed
// by their generated session id.
package session

import (
	"log"
	"sync"

	"github.com/trutoman/Apalabrazos-sub000/internal/domain"
	"github.com/trutoman/Apalabrazos-sub000/internal/events"
	"github.com/trutoman/Apalabrazos-sub000/internal/game"
)

// Manager is the registry of active game sessions. Ids are uuids generated
// by the orchestrator and never reused.
type Manager struct {
	bus    *events.Bus
	source game.QuestionSource

	mu       sync.RWMutex
	sessions map[string]*game.Service
}

// NewManager builds a manager creating sessions on the given shared bus.
func NewManager(bus *events.Bus, source game.QuestionSource) *Manager {
	return &Manager{
		bus:      bus,
		source:   source,
		sessions: make(map[string]*game.Service),
	}
}

// Create builds and registers a new orchestrator and announces it with a
// SessionCreated event echoing the caller's temporary room code.
func (m *Manager) Create(roomCode string, cfg game.Config) (*game.Service, error) {
	svc, err := game.NewService(cfg, m.bus, m.source)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[svc.ID()] = svc
	total := len(m.sessions)
	m.mu.Unlock()
	log.Printf("session: created %s (active %d)", svc.ID(), total)
	m.bus.Publish(events.SessionCreated{Base: events.Now(), RoomCode: roomCode, GameID: svc.ID()})
	return svc, nil
}

// Get returns the orchestrator registered under id.
func (m *Manager) Get(id string) (*game.Service, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	svc, ok := m.sessions[id]
	return svc, ok
}

// Alive reports whether a session exists and has not reached its terminal
// state. The connection registry uses this to decide reconnect semantics.
func (m *Manager) Alive(id string) bool {
	svc, ok := m.Get(id)
	return ok && svc.Session().State() != game.StatePost
}

// Remove deregisters and closes a session. Removing an unknown id is a
// no-op.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	svc, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	total := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return
	}
	svc.Close()
	log.Printf("session: removed %s (active %d)", id, total)
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ClearAll closes and drops every active session.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	drained := make([]*game.Service, 0, len(m.sessions))
	for _, svc := range m.sessions {
		drained = append(drained, svc)
	}
	m.sessions = make(map[string]*game.Service)
	m.mu.Unlock()
	for _, svc := range drained {
		svc.Close()
	}
	if len(drained) > 0 {
		log.Printf("session: cleared %d sessions", len(drained))
	}
}

// Lookup resolves a session id to an orchestrator, with a sentinel error
// for callers that prefer error flow over the ok-bool.
func (m *Manager) Lookup(id string) (*game.Service, error) {
	svc, ok := m.Get(id)
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return svc, nil
}
