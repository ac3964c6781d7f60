// Package store holds the FIR record persistence implementations.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"firledger/internal/fir/models"
	id "firledger/pkg/domain"
	"firledger/pkg/platform/sentinel"
)

// Memory is the in-process record store. One write lock covers id allocation
// and every mutation, which gives linearizable, gapless id assignment and a
// serialization point for transitions: the second of two racing calls always
// observes the first's committed status.
type Memory struct {
	mu      sync.RWMutex
	records map[id.FIRID]*models.FIRRecord
	order   []id.FIRID
	nextID  uint64
}

// NewMemory constructs an empty record store.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[id.FIRID]*models.FIRRecord),
		nextID:  1,
	}
}

// Create allocates the next id and files the record. Only successful creates
// consume an id, so the sequence has no gaps.
func (m *Memory) Create(_ context.Context, filer id.Identity, message string, now time.Time) (*models.FIRRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recordID := id.FIRID(m.nextID)
	m.nextID++

	record := models.NewFIRRecord(recordID, filer, message, now)
	m.records[recordID] = record
	m.order = append(m.order, recordID)
	return record.Clone(), nil
}

// ApplyTransition atomically re-checks the record's committed status against
// the action's required predecessor, then applies the status change and the
// history append together. A precondition miss mutates nothing.
func (m *Memory) ApplyTransition(_ context.Context, firID id.FIRID, action models.Action, actor id.Identity, message string, now time.Time) (*models.FIRRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[firID]
	if !ok {
		return nil, fmt.Errorf("%w: fir %s", sentinel.ErrNotFound, firID)
	}
	required, known := models.RequiredStatus(action)
	if !known {
		return nil, fmt.Errorf("%w: unknown action %q", sentinel.ErrInvalidState, action)
	}
	if record.Status != required {
		return nil, fmt.Errorf("%w: fir %s is %s, action %q requires %s",
			sentinel.ErrInvalidState, firID, record.Status, action, required)
	}

	next, _ := models.NextStatus(action)
	record.Status = next
	record.History = append(record.History, models.HistoryEntry{
		Actor:     actor,
		Action:    action,
		Message:   message,
		Timestamp: now,
	})
	return record.Clone(), nil
}

// Get returns a snapshot of one record.
func (m *Memory) Get(_ context.Context, firID id.FIRID) (*models.FIRRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[firID]
	if !ok {
		return nil, fmt.Errorf("%w: fir %s", sentinel.ErrNotFound, firID)
	}
	return record.Clone(), nil
}

// List returns snapshots of all records in id order.
func (m *Memory) List(_ context.Context) ([]*models.FIRRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.FIRRecord, 0, len(m.order))
	for _, firID := range m.order {
		out = append(out, m.records[firID].Clone())
	}
	return out, nil
}

// ListByStatus returns snapshots of records currently in the given status,
// in id order.
func (m *Memory) ListByStatus(_ context.Context, status id.Status) ([]*models.FIRRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.FIRRecord
	for _, firID := range m.order {
		if record := m.records[firID]; record.Status == status {
			out = append(out, record.Clone())
		}
	}
	return out, nil
}
