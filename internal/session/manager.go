package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/filemill/internal/users"
)

// Manager tracks one Gate per issued session ID.
type Manager struct {
	users *users.Service

	mu    sync.Mutex
	gates map[string]*Gate
}

func NewManager(us *users.Service) *Manager {
	return &Manager{users: us, gates: make(map[string]*Gate)}
}

// Create allocates a new session and its gate.
func (m *Manager) Create() (string, *Gate) {
	id := uuid.NewString()
	gate := NewGate(m.users)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gates[id] = gate
	return id, gate
}

// Get resolves a session ID to its gate.
func (m *Manager) Get(id string) (*Gate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gate, ok := m.gates[id]
	return gate, ok
}

// Remove drops a session after logout.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gates, id)
}
