// Package handler exposes the ledger's committed-transaction log for
// inspection. Admin only: the log attributes every mutation to an identity.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"firledger/internal/ledger"
	"firledger/internal/platform/middleware"
	"firledger/internal/transport/http/shared"
	id "firledger/pkg/domain"
	dErrors "firledger/pkg/domain-errors"
)

// RoleReader resolves the caller's role for the admin gate.
type RoleReader interface {
	GetRole(ctx context.Context, identity id.Identity) id.Role
}

// Handler handles ledger inspection endpoints.
type Handler struct {
	ledger ledger.Ledger
	roles  RoleReader
	logger *slog.Logger
}

// New creates a ledger Handler.
func New(lg ledger.Ledger, roles RoleReader, logger *slog.Logger) *Handler {
	return &Handler{ledger: lg, roles: roles, logger: logger}
}

// Register mounts the ledger routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/ledger/commits", h.handleCommits)
}

func (h *Handler) handleCommits(w http.ResponseWriter, r *http.Request) {
	caller := r.URL.Query().Get("from")
	if caller == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "'from' address is required"))
		return
	}
	if role := h.roles.GetRole(r.Context(), id.Identity(caller)); role != id.RoleAdmin {
		shared.WriteError(w, dErrors.New(dErrors.CodePermissionDenied, "only Admin may inspect the ledger"))
		return
	}

	args := map[string]string{}
	if after := r.URL.Query().Get("after"); after != "" {
		args["after"] = after
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		args["limit"] = limit
	}

	commits, err := h.ledger.Query(r.Context(), ledger.QueryCommits, args)
	if err != nil {
		h.logger.WarnContext(r.Context(), "ledger query failed",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(r.Context()),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid ledger query"))
		return
	}
	shared.WriteSuccess(w, http.StatusOK, "OK", commits)
}
