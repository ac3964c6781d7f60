package audit

import (
	"context"
	"time"

	id "firledger/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance: role grants
	// and lifecycle decisions on case records. These require tamper-proof
	// storage and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring, such
	// as denied operations.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
//
// The per-record history inside a FIRRecord is the legal audit trail; these
// events are the operational one. They may be sampled or dropped under load
// without affecting core invariants.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Actor     id.Identity   `json:"actor"`
	FIRID     string        `json:"fir_id,omitempty"`
	Action    string        `json:"action"`
	Decision  string        `json:"decision,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	LedgerSeq uint64        `json:"ledger_seq,omitempty"`
}

// Publisher accepts events from domain services. Implementations must not
// block the caller on downstream sinks.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Store persists events for later inspection.
type Store interface {
	Append(ctx context.Context, event Event) error
}

type AuditEvent string

const (
	// Lifecycle events
	EventFIRCreated      AuditEvent = "fir_created"
	EventFIRInvestigated AuditEvent = "fir_investigated"
	EventFIRApproved     AuditEvent = "fir_approved"
	EventFIRRejected     AuditEvent = "fir_rejected"
	EventFIRClosed       AuditEvent = "fir_closed"

	// Registry events
	EventRoleAssigned AuditEvent = "role_assigned"
	EventRoleRevoked  AuditEvent = "role_revoked"

	// Access events
	EventPermissionDenied AuditEvent = "permission_denied"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventFIRCreated:      CategoryCompliance,
	EventFIRInvestigated: CategoryCompliance,
	EventFIRApproved:     CategoryCompliance,
	EventFIRRejected:     CategoryCompliance,
	EventFIRClosed:       CategoryCompliance,

	EventRoleAssigned: CategoryCompliance,
	EventRoleRevoked:  CategorySecurity,

	EventPermissionDenied: CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
