package models

import (
	"time"

	id "firledger/pkg/domain"
)

// Action names one accepted lifecycle operation. Every accepted operation
// appends exactly one history entry carrying its action.
type Action string

const (
	ActionCreate      Action = "create"
	ActionInvestigate Action = "investigate"
	ActionApprove     Action = "approve"
	ActionReject      Action = "reject"
	ActionClose       Action = "close"
)

// HistoryEntry is an immutable audit record of one accepted operation on a
// FIR. Entries are append-only: never edited, never removed.
type HistoryEntry struct {
	Actor     id.Identity `json:"actor"`
	Action    Action      `json:"action"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

// FIRRecord is the aggregate tracked by the system.
//
// Invariants:
//   - ID is unique, strictly increasing across the store, never reused
//   - Status only advances forward along the transition graph
//   - History length equals the number of accepted operations on the record
//   - CreatedAt is immutable after construction
type FIRRecord struct {
	ID        id.FIRID       `json:"id"`
	Filer     id.Identity    `json:"filer"`
	Status    id.Status      `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	History   []HistoryEntry `json:"history"`
}

// NewFIRRecord constructs a freshly filed record with its creation entry.
func NewFIRRecord(recordID id.FIRID, filer id.Identity, message string, now time.Time) *FIRRecord {
	return &FIRRecord{
		ID:        recordID,
		Filer:     filer,
		Status:    id.StatusFiled,
		CreatedAt: now,
		History: []HistoryEntry{{
			Actor:     filer,
			Action:    ActionCreate,
			Message:   message,
			Timestamp: now,
		}},
	}
}

// Clone returns a deep copy so snapshot reads never alias store-owned state.
func (r *FIRRecord) Clone() *FIRRecord {
	cp := *r
	cp.History = make([]HistoryEntry, len(r.History))
	copy(cp.History, r.History)
	return &cp
}

// transitions maps each mutating action to its required predecessor status
// and resulting status. Creation is not listed; it has no predecessor.
var transitions = map[Action]struct {
	From id.Status
	To   id.Status
}{
	ActionInvestigate: {From: id.StatusFiled, To: id.StatusInvestigated},
	ActionApprove:     {From: id.StatusInvestigated, To: id.StatusValidated},
	ActionReject:      {From: id.StatusInvestigated, To: id.StatusRejected},
	ActionClose:       {From: id.StatusValidated, To: id.StatusClosed},
}

// RequiredStatus returns the predecessor status the record must hold for the
// action to be accepted.
func RequiredStatus(action Action) (id.Status, bool) {
	t, ok := transitions[action]
	return t.From, ok
}

// NextStatus returns the status the action drives the record into.
func NextStatus(action Action) (id.Status, bool) {
	t, ok := transitions[action]
	return t.To, ok
}

// CanApply reports whether the action is accepted from the given status.
func CanApply(action Action, from id.Status) bool {
	t, ok := transitions[action]
	return ok && t.From == from
}
