// Package service implements the FIR lifecycle state machine: it decides
// whether an action is permitted given the caller's role and the record's
// current status, and commits every accepted transition through the ledger
// exactly once, in order.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"firledger/internal/fir/models"
	"firledger/internal/ledger"
	"firledger/internal/platform/metrics"
	id "firledger/pkg/domain"
	dErrors "firledger/pkg/domain-errors"
	audit "firledger/pkg/platform/audit"
	"firledger/pkg/platform/sentinel"
)

var tracer = otel.Tracer("firledger/internal/fir")

// RecordStore persists FIR records. ApplyTransition must re-check the
// record's committed status atomically with the mutation so racing callers
// serialize correctly.
type RecordStore interface {
	Create(ctx context.Context, filer id.Identity, message string, now time.Time) (*models.FIRRecord, error)
	ApplyTransition(ctx context.Context, firID id.FIRID, action models.Action, actor id.Identity, message string, now time.Time) (*models.FIRRecord, error)
	Get(ctx context.Context, firID id.FIRID) (*models.FIRRecord, error)
	List(ctx context.Context) ([]*models.FIRRecord, error)
	ListByStatus(ctx context.Context, status id.Status) ([]*models.FIRRecord, error)
}

// RoleReader resolves a participant's role. Satisfied by the registry
// service; lookups never fail, unknown identities hold RoleNone.
type RoleReader interface {
	GetRole(ctx context.Context, identity id.Identity) id.Role
}

// Service is the lifecycle state machine over the record store.
type Service struct {
	records RecordStore
	roles   RoleReader
	ledger  ledger.Ledger
	logger  *slog.Logger
	auditor audit.Publisher
	metrics *metrics.Metrics
	clock   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock injects a timestamp source for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs a Service.
func New(records RecordStore, roles RoleReader, lg ledger.Ledger, opts ...Option) *Service {
	s := &Service{
		records: records,
		roles:   roles,
		ledger:  lg,
		logger:  slog.Default(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateFIR files a new report. Any identity holding RoleUser may call; the
// returned record carries the newly allocated id and its creation history
// entry.
func (s *Service) CreateFIR(ctx context.Context, filer id.Identity, message string) (*models.FIRRecord, error) {
	ctx, span := tracer.Start(ctx, "fir.CreateFIR")
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "message cannot be empty")
	}
	if filer.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "sender identity is required")
	}
	if err := s.requireRole(ctx, filer, "create", id.RoleUser); err != nil {
		return nil, err
	}

	var record *models.FIRRecord
	commit, err := s.commit(ctx, ledger.Tx{
		Actor: filer,
		Op:    "create_fir",
		Args:  map[string]string{"message": message},
		Apply: func(ctx context.Context) error {
			var applyErr error
			record, applyErr = s.records.Create(ctx, filer, message, s.clock())
			return applyErr
		},
	})
	if err != nil {
		s.countTransition(models.ActionCreate, "error")
		return nil, s.mapInfraError(err, "failed to create FIR")
	}

	span.SetAttributes(attribute.String("fir.id", record.ID.String()))
	s.countTransition(models.ActionCreate, "ok")
	if s.metrics != nil {
		s.metrics.FIRsCreated.Inc()
	}
	s.audited(ctx, audit.Event{
		Actor:     filer,
		FIRID:     record.ID.String(),
		Action:    string(audit.EventFIRCreated),
		LedgerSeq: commit.Seq,
	})
	s.logger.InfoContext(ctx, "fir created",
		"fir_id", record.ID.String(),
		"filer", filer.String(),
		"ledger_seq", commit.Seq,
	)
	return record, nil
}

// MarkInvestigated advances a Filed record to Investigated. Investigator only.
func (s *Service) MarkInvestigated(ctx context.Context, actor id.Identity, firID id.FIRID, message string) (*models.FIRRecord, error) {
	return s.transition(ctx, actor, firID, models.ActionInvestigate, message,
		audit.EventFIRInvestigated, id.RoleInvestigator)
}

// ValidateFIR decides an Investigated record: approved drives it to
// Validated, otherwise Rejected (terminal). Police or Admin only.
func (s *Service) ValidateFIR(ctx context.Context, actor id.Identity, firID id.FIRID, approved bool, message string) (*models.FIRRecord, error) {
	action, event := models.ActionApprove, audit.EventFIRApproved
	if !approved {
		action, event = models.ActionReject, audit.EventFIRRejected
	}
	return s.transition(ctx, actor, firID, action, message,
		event, id.RolePolice, id.RoleAdmin)
}

// CloseFIR closes a Validated record. Court only. Rejected is terminal and
// cannot be closed.
func (s *Service) CloseFIR(ctx context.Context, actor id.Identity, firID id.FIRID, message string) (*models.FIRRecord, error) {
	return s.transition(ctx, actor, firID, models.ActionClose, message,
		audit.EventFIRClosed, id.RoleCourt)
}

// transition runs the shared state-machine path: validate input, check the
// caller's role, pre-check the record against the action's required status,
// then commit the mutation through the ledger. The store re-checks the
// status inside the commit, so of two racing calls the second observes the
// first's effect and fails rather than both succeeding.
func (s *Service) transition(ctx context.Context, actor id.Identity, firID id.FIRID, action models.Action, message string, event audit.AuditEvent, allowed ...id.Role) (*models.FIRRecord, error) {
	ctx, span := tracer.Start(ctx, "fir.transition",
		trace.WithAttributes(
			attribute.String("fir.id", firID.String()),
			attribute.String("fir.action", string(action)),
		))
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "message cannot be empty")
	}
	if actor.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "sender identity is required")
	}
	if firID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "fir_id is required")
	}
	if err := s.requireRole(ctx, actor, string(action), allowed...); err != nil {
		return nil, err
	}

	// Precondition checks against the latest committed state, before the
	// ledger is contacted. The authoritative re-check happens inside the
	// commit; this one keeps doomed transactions off the ledger entirely.
	current, err := s.records.Get(ctx, firID)
	if err != nil {
		return nil, s.mapInfraError(err, "failed to load FIR")
	}
	if required, _ := models.RequiredStatus(action); current.Status != required {
		s.countTransition(action, "invalid_state")
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
			"FIR %s is %s; %s requires %s", firID, current.Status, action, required)
	}

	var record *models.FIRRecord
	commit, err := s.commit(ctx, ledger.Tx{
		Actor: actor,
		Op:    string(action) + "_fir",
		Args:  map[string]string{"fir_id": firID.String()},
		Apply: func(ctx context.Context) error {
			var applyErr error
			record, applyErr = s.records.ApplyTransition(ctx, firID, action, actor, message, s.clock())
			return applyErr
		},
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			s.countTransition(action, "invalid_state")
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidTransition, "FIR status changed concurrently")
		}
		s.countTransition(action, "error")
		return nil, s.mapInfraError(err, "failed to apply transition")
	}

	s.countTransition(action, "ok")
	s.audited(ctx, audit.Event{
		Actor:     actor,
		FIRID:     firID.String(),
		Action:    string(event),
		Decision:  record.Status.String(),
		LedgerSeq: commit.Seq,
	})
	s.logger.InfoContext(ctx, "fir transition",
		"fir_id", firID.String(),
		"action", string(action),
		"status", record.Status.String(),
		"actor", actor.String(),
		"ledger_seq", commit.Seq,
	)
	return record, nil
}

// ViewFIR returns the full record including history. Any role except None.
func (s *Service) ViewFIR(ctx context.Context, caller id.Identity, firID id.FIRID) (*models.FIRRecord, error) {
	if err := s.requireAnyRole(ctx, caller, "view"); err != nil {
		return nil, err
	}
	record, err := s.records.Get(ctx, firID)
	if err != nil {
		return nil, s.mapInfraError(err, "failed to load FIR")
	}
	return record, nil
}

// ViewAllFIRs returns every record. Admin and Police only.
func (s *Service) ViewAllFIRs(ctx context.Context, caller id.Identity) ([]*models.FIRRecord, error) {
	if err := s.requireRole(ctx, caller, "view_all", id.RoleAdmin, id.RolePolice); err != nil {
		return nil, err
	}
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, s.mapInfraError(err, "failed to list FIRs")
	}
	return records, nil
}

// ViewAllFIRsForCourt returns the records awaiting closure. Court only.
func (s *Service) ViewAllFIRsForCourt(ctx context.Context, caller id.Identity) ([]*models.FIRRecord, error) {
	if err := s.requireRole(ctx, caller, "view_court", id.RoleCourt); err != nil {
		return nil, err
	}
	records, err := s.records.ListByStatus(ctx, id.StatusValidated)
	if err != nil {
		return nil, s.mapInfraError(err, "failed to list FIRs")
	}
	return records, nil
}

// ViewAllFIRsForInvestigator returns the records awaiting investigation.
// Investigator only.
func (s *Service) ViewAllFIRsForInvestigator(ctx context.Context, caller id.Identity) ([]*models.FIRRecord, error) {
	if err := s.requireRole(ctx, caller, "view_investigator", id.RoleInvestigator); err != nil {
		return nil, err
	}
	records, err := s.records.ListByStatus(ctx, id.StatusFiled)
	if err != nil {
		return nil, s.mapInfraError(err, "failed to list FIRs")
	}
	return records, nil
}

func (s *Service) requireRole(ctx context.Context, caller id.Identity, op string, allowed ...id.Role) error {
	role := s.roles.GetRole(ctx, caller)
	for _, a := range allowed {
		if role == a {
			return nil
		}
	}
	s.audited(ctx, audit.Event{
		Actor:  caller,
		Action: string(audit.EventPermissionDenied),
		Reason: op,
	})
	return dErrors.Newf(dErrors.CodePermissionDenied, "role %s is not permitted to %s", role, op)
}

func (s *Service) requireAnyRole(ctx context.Context, caller id.Identity, op string) error {
	if role := s.roles.GetRole(ctx, caller); role != id.RoleNone {
		return nil
	}
	s.audited(ctx, audit.Event{
		Actor:  caller,
		Action: string(audit.EventPermissionDenied),
		Reason: op,
	})
	return dErrors.New(dErrors.CodePermissionDenied, "caller holds no role")
}

// commit submits through the ledger, timing the round trip.
func (s *Service) commit(ctx context.Context, tx ledger.Tx) (*ledger.Commit, error) {
	start := time.Now()
	commit, err := s.ledger.SubmitTransaction(ctx, tx)
	if s.metrics != nil {
		s.metrics.ObserveCommit(time.Since(start))
	}
	return commit, err
}

// mapInfraError translates store and ledger sentinels into coded errors.
// Already-coded errors pass through unchanged.
func (s *Service) mapInfraError(err error, fallback string) error {
	var coded *dErrors.Error
	switch {
	case errors.As(err, &coded):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "FIR not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeInvalidTransition, "FIR is not in the required status")
	case errors.Is(err, sentinel.ErrUnavailable), errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeLedger, "ledger commit failed")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, fallback)
	}
}

func (s *Service) countTransition(action models.Action, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordTransition(string(action), outcome)
	}
}

func (s *Service) audited(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock()
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
