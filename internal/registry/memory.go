package registry

import (
	"context"
	"sync"
)

// Memory is a Registry kept in process memory. Its contents are lost on
// restart.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	users  map[string]User
}

// NewMemory returns an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{users: make(map[string]User)}
}

func (m *Memory) FindByUsername(_ context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) Insert(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.Username]; ok {
		return ErrUserExists
	}
	m.nextID++
	u.ID = m.nextID
	m.users[u.Username] = *u
	return nil
}
