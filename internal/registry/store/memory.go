// Package store holds the role registry persistence implementations. The
// in-memory store is the default and backs the unit tests; the postgres
// store provides durable deployment.
package store

import (
	"context"
	"sync"

	id "firledger/pkg/domain"
)

// Memory keeps role assignments in a mutex-guarded map. Unset identities
// implicitly hold RoleNone.
type Memory struct {
	mu    sync.RWMutex
	roles map[id.Identity]id.Role
}

// NewMemory constructs an empty registry store.
func NewMemory() *Memory {
	return &Memory{roles: make(map[id.Identity]id.Role)}
}

// Set overwrites the target's role unconditionally. Assigning RoleNone
// removes the entry so the map only holds active grants.
func (m *Memory) Set(_ context.Context, target id.Identity, role id.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if role == id.RoleNone {
		delete(m.roles, target)
		return nil
	}
	m.roles[target] = role
	return nil
}

// Get is a pure lookup; it never fails.
func (m *Memory) Get(_ context.Context, identity id.Identity) (id.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if role, ok := m.roles[identity]; ok {
		return role, nil
	}
	return id.RoleNone, nil
}
