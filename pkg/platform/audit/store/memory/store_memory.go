package memory

import (
	"context"
	"sync"

	audit "firledger/pkg/platform/audit"
)

// Store keeps audit events in memory. Intended for tests and single-process
// deployments without a database.
type Store struct {
	mu     sync.RWMutex
	events []audit.Event
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// List returns a snapshot of all appended events in emission order.
func (s *Store) List(_ context.Context) []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}

var _ audit.Store = (*Store)(nil)
