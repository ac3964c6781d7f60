// Package handler exposes the FIR lifecycle over HTTP. Routes, field names,
// and envelopes match the service's original public surface: mutating calls
// carry sender_address in the JSON body, reads carry from as a query
// parameter, and record ids travel as decimal strings.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"firledger/internal/fir/models"
	"firledger/internal/platform/middleware"
	"firledger/internal/transport/http/shared"
	id "firledger/pkg/domain"
	dErrors "firledger/pkg/domain-errors"
)

// Service defines the lifecycle operations the handler delegates to.
type Service interface {
	CreateFIR(ctx context.Context, filer id.Identity, message string) (*models.FIRRecord, error)
	MarkInvestigated(ctx context.Context, actor id.Identity, firID id.FIRID, message string) (*models.FIRRecord, error)
	ValidateFIR(ctx context.Context, actor id.Identity, firID id.FIRID, approved bool, message string) (*models.FIRRecord, error)
	CloseFIR(ctx context.Context, actor id.Identity, firID id.FIRID, message string) (*models.FIRRecord, error)
	ViewFIR(ctx context.Context, caller id.Identity, firID id.FIRID) (*models.FIRRecord, error)
	ViewAllFIRs(ctx context.Context, caller id.Identity) ([]*models.FIRRecord, error)
	ViewAllFIRsForCourt(ctx context.Context, caller id.Identity) ([]*models.FIRRecord, error)
	ViewAllFIRsForInvestigator(ctx context.Context, caller id.Identity) ([]*models.FIRRecord, error)
}

// Handler handles FIR endpoints.
type Handler struct {
	fir    Service
	logger *slog.Logger
}

// New creates a FIR Handler.
func New(fir Service, logger *slog.Logger) *Handler {
	return &Handler{fir: fir, logger: logger}
}

// Register mounts the FIR routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/new-fir", h.handleCreate)
	r.Post("/investigate-fir", h.handleInvestigate)
	r.Post("/validate-fir", h.handleValidate)
	r.Post("/close-fir", h.handleClose)
	r.Get("/view-fir", h.handleView)
	r.Get("/view-all-fir", h.handleViewAll)
	r.Get("/view-all-fir-court", h.handleViewAllCourt)
	r.Get("/view-all-fir-investigate", h.handleViewAllInvestigator)
}

type createRequest struct {
	Message       string `json:"message"`
	SenderAddress string `json:"sender_address"`
}

type transitionRequest struct {
	FIRID         id.FIRID `json:"fir_id"`
	Message       string   `json:"message"`
	SenderAddress string   `json:"sender_address"`
}

type validateRequest struct {
	FIRID         id.FIRID `json:"fir_id"`
	IsApproved    *bool    `json:"isApproved"`
	Message       string   `json:"message"`
	SenderAddress string   `json:"sender_address"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	sender, err := h.sender(r, req.SenderAddress)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	record, err := h.fir.CreateFIR(r.Context(), sender, req.Message)
	if err != nil {
		h.logFailure(r, "create fir failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteSuccess(w, http.StatusOK, "New FIR created successfully", record)
}

func (h *Handler) handleInvestigate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "FIR marked as investigated", h.fir.MarkInvestigated)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "FIR closed successfully", h.fir.CloseFIR)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, message string,
	op func(ctx context.Context, actor id.Identity, firID id.FIRID, message string) (*models.FIRRecord, error)) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	sender, err := h.sender(r, req.SenderAddress)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	record, err := op(r.Context(), sender, req.FIRID, req.Message)
	if err != nil {
		h.logFailure(r, "fir transition failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteSuccess(w, http.StatusOK, message, record)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	if req.IsApproved == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "'isApproved' is required"))
		return
	}
	sender, err := h.sender(r, req.SenderAddress)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	record, err := h.fir.ValidateFIR(r.Context(), sender, req.FIRID, *req.IsApproved, req.Message)
	if err != nil {
		h.logFailure(r, "fir validation failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteSuccess(w, http.StatusOK, "FIR validated successfully", record)
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	caller, err := h.sender(r, r.URL.Query().Get("from"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	firID, err := id.ParseFIRID(r.URL.Query().Get("fir_id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	record, err := h.fir.ViewFIR(r.Context(), caller, firID)
	if err != nil {
		h.logFailure(r, "view fir failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteSuccess(w, http.StatusOK, "OK", record)
}

func (h *Handler) handleViewAll(w http.ResponseWriter, r *http.Request) {
	h.viewAll(w, r, h.fir.ViewAllFIRs)
}

func (h *Handler) handleViewAllCourt(w http.ResponseWriter, r *http.Request) {
	h.viewAll(w, r, h.fir.ViewAllFIRsForCourt)
}

func (h *Handler) handleViewAllInvestigator(w http.ResponseWriter, r *http.Request) {
	h.viewAll(w, r, h.fir.ViewAllFIRsForInvestigator)
}

func (h *Handler) viewAll(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, caller id.Identity) ([]*models.FIRRecord, error)) {
	caller, err := h.sender(r, r.URL.Query().Get("from"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	records, err := op(r.Context(), caller)
	if err != nil {
		h.logFailure(r, "view firs failed", err)
		shared.WriteError(w, err)
		return
	}
	if records == nil {
		records = []*models.FIRRecord{}
	}
	shared.WriteSuccess(w, http.StatusOK, "OK", records)
}

// sender resolves the acting identity. The claimed sender is required; when
// the request carries a verified token, the two must agree so a caller
// cannot act as someone else's identity.
func (h *Handler) sender(r *http.Request, claimed string) (id.Identity, error) {
	if claimed == "" {
		return "", dErrors.New(dErrors.CodeValidation, "sender identity is required")
	}
	if bound := middleware.GetTokenIdentity(r.Context()); bound != "" && bound != claimed {
		return "", dErrors.New(dErrors.CodeUnauthorized, "token identity does not match sender")
	}
	return id.Identity(claimed), nil
}

func (h *Handler) logFailure(r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(ctx),
	)
}
