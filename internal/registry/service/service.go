// Package service implements the role registry: at most one role per
// identity, mutated only by an Admin caller, with every accepted write
// committed through the ledger.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"firledger/internal/ledger"
	"firledger/internal/platform/metrics"
	id "firledger/pkg/domain"
	dErrors "firledger/pkg/domain-errors"
	audit "firledger/pkg/platform/audit"
	"firledger/pkg/platform/sentinel"
)

// RoleStore persists role assignments. Get returns RoleNone for unset
// identities.
type RoleStore interface {
	Set(ctx context.Context, target id.Identity, role id.Role) error
	Get(ctx context.Context, identity id.Identity) (id.Role, error)
}

// Service orchestrates role assignment and lookup.
type Service struct {
	roles   RoleStore
	ledger  ledger.Ledger
	logger  *slog.Logger
	auditor audit.Publisher
	metrics *metrics.Metrics
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

// New constructs a Service.
func New(roles RoleStore, lg ledger.Ledger, opts ...Option) *Service {
	s := &Service{roles: roles, ledger: lg, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AssignRole overwrites target's role unconditionally, including to RoleNone
// (revocation). Only an Admin caller may assign; the check happens before the
// ledger is contacted, so a denied call never mutates state.
func (s *Service) AssignRole(ctx context.Context, caller, target id.Identity, role id.Role) error {
	if caller.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "caller identity is required")
	}
	if target.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "target identity is required")
	}
	if !role.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown role: %s", role)
	}

	if callerRole := s.GetRole(ctx, caller); callerRole != id.RoleAdmin {
		s.audited(ctx, audit.Event{
			Actor:  caller,
			Action: string(audit.EventPermissionDenied),
			Reason: "assign_role requires Admin",
		})
		return dErrors.New(dErrors.CodePermissionDenied, "only Admin may assign roles")
	}

	commit, err := s.ledger.SubmitTransaction(ctx, ledger.Tx{
		Actor: caller,
		Op:    "assign_role",
		Args: map[string]string{
			"target": target.String(),
			"role":   role.String(),
		},
		Apply: func(ctx context.Context) error {
			return s.roles.Set(ctx, target, role)
		},
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) {
			return dErrors.Wrap(err, dErrors.CodeLedger, "role assignment not committed")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign role")
	}

	action := audit.EventRoleAssigned
	if role == id.RoleNone {
		action = audit.EventRoleRevoked
	}
	s.audited(ctx, audit.Event{
		Actor:     caller,
		Action:    string(action),
		Decision:  role.String(),
		Reason:    "target " + target.String(),
		LedgerSeq: commit.Seq,
	})
	if s.metrics != nil {
		s.metrics.RoleAssignments.Inc()
	}
	s.logger.InfoContext(ctx, "role assigned",
		"caller", caller.String(),
		"target", target.String(),
		"role", role.String(),
		"ledger_seq", commit.Seq,
	)
	return nil
}

// GetRole is a pure lookup that never fails: unset identities hold RoleNone,
// and a store outage degrades to RoleNone so authorization fails closed.
func (s *Service) GetRole(ctx context.Context, identity id.Identity) id.Role {
	if identity.IsNil() {
		return id.RoleNone
	}
	role, err := s.roles.Get(ctx, identity)
	if err != nil {
		s.logger.WarnContext(ctx, "role lookup failed, treating as None",
			"identity", identity.String(),
			"error", err,
		)
		return id.RoleNone
	}
	return role
}

// Bootstrap seeds the configured admin identity. It writes only when the
// identity currently holds no role, so restarts never clobber a later
// reassignment.
func (s *Service) Bootstrap(ctx context.Context, admin id.Identity) error {
	if admin.IsNil() {
		return nil
	}
	if current := s.GetRole(ctx, admin); current != id.RoleNone {
		return nil
	}
	_, err := s.ledger.SubmitTransaction(ctx, ledger.Tx{
		Actor: "system",
		Op:    "bootstrap_admin",
		Args:  map[string]string{"target": admin.String()},
		Apply: func(ctx context.Context) error {
			return s.roles.Set(ctx, admin, id.RoleAdmin)
		},
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeLedger, "bootstrap admin not committed")
	}
	s.logger.InfoContext(ctx, "bootstrap admin seeded", "identity", admin.String())
	return nil
}

func (s *Service) audited(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
