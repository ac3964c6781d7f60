// Package handler exposes role assignment over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"firledger/internal/platform/middleware"
	"firledger/internal/transport/http/shared"
	id "firledger/pkg/domain"
	dErrors "firledger/pkg/domain-errors"
)

// Service defines the registry operations the handler delegates to.
type Service interface {
	AssignRole(ctx context.Context, caller, target id.Identity, role id.Role) error
	GetRole(ctx context.Context, identity id.Identity) id.Role
}

// Handler handles registry endpoints.
type Handler struct {
	registry Service
	logger   *slog.Logger
}

// New creates a registry Handler.
func New(registry Service, logger *slog.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

// Register mounts the registry routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/assign-role", h.handleAssignRole)
	r.Get("/role", h.handleGetRole)
}

type assignRoleRequest struct {
	Address       string `json:"address"`
	Role          string `json:"role"`
	SenderAddress string `json:"sender_address"`
}

func (h *Handler) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	var req assignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	if req.SenderAddress == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "sender identity is required"))
		return
	}
	if bound := middleware.GetTokenIdentity(r.Context()); bound != "" && bound != req.SenderAddress {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token identity does not match sender"))
		return
	}
	role, err := id.ParseRole(req.Role)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	err = h.registry.AssignRole(r.Context(), id.Identity(req.SenderAddress), id.Identity(req.Address), role)
	if err != nil {
		h.logger.WarnContext(r.Context(), "assign role failed",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(r.Context()),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteSuccess(w, http.StatusOK, "Role assigned successfully", map[string]string{
		"address": req.Address,
		"role":    role.String(),
	})
}

// handleGetRole reports the role an identity currently holds. Lookup is
// pure and unauthenticated like the registry's GetRole contract.
func (h *Handler) handleGetRole(w http.ResponseWriter, r *http.Request) {
	identity := r.URL.Query().Get("address")
	if identity == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "'address' is required"))
		return
	}
	role := h.registry.GetRole(r.Context(), id.Identity(identity))
	shared.WriteSuccess(w, http.StatusOK, "OK", map[string]string{
		"address": identity,
		"role":    role.String(),
	})
}
