package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/caredesk/golang_services/internal/care_service/app"
	"github.com/caredesk/golang_services/internal/care_service/domain"
	"github.com/caredesk/golang_services/internal/care_service/middleware"
)

// DispatchRunner runs one dispatch cycle.
type DispatchRunner interface {
	RunCycle(ctx context.Context) (app.CycleResult, error)
}

// ScanRunner runs one eligibility scan.
type ScanRunner interface {
	Scan(ctx context.Context) (int, error)
}

// DraftRunner executes one draft attempt.
type DraftRunner interface {
	Draft(ctx context.Context, userID uuid.UUID, threadID string) error
}

type CareHandler struct {
	dispatcher DispatchRunner
	scanner    ScanRunner
	drafter    DraftRunner
	logger     *slog.Logger
	validate   *validator.Validate
}

func NewCareHandler(dispatcher DispatchRunner, scanner ScanRunner, drafter DraftRunner, logger *slog.Logger, validate *validator.Validate) *CareHandler {
	return &CareHandler{
		dispatcher: dispatcher,
		scanner:    scanner,
		drafter:    drafter,
		logger:     logger,
		validate:   validate,
	}
}

// DraftRequestDTO is the body of POST /api/v1/care/draft. UserID is
// honored only for scanner/admin callers drafting on behalf of a user.
type DraftRequestDTO struct {
	ThreadID string `json:"threadId" validate:"required"`
	UserID   string `json:"userId,omitempty" validate:"omitempty,uuid"`
}

type scanResponseDTO struct {
	Triggered int `json:"triggered"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Dispatch runs one claim-and-send cycle. A claim failure returns 500 so
// the external trigger retries the whole cycle; nothing was mutated.
func (h *CareHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.dispatcher.RunCycle(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Dispatch cycle failed", "error", err)
		http.Error(w, "Dispatch cycle failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Scan fans out draft jobs for eligible customers.
func (h *CareHandler) Scan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	triggered, err := h.scanner.Scan(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Eligibility scan failed", "error", err)
		http.Error(w, "Eligibility scan failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, scanResponseDTO{Triggered: triggered})
}

// Draft requests an AI-generated care message for a thread.
func (h *CareHandler) Draft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO DraftRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		h.logger.WarnContext(ctx, "Failed to decode draft request body", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		h.logger.WarnContext(ctx, "Validation failed for draft request", "error", err)
		http.Error(w, fmt.Sprintf("Validation error: %s", err.Error()), http.StatusBadRequest)
		return
	}

	authUser, ok := ctx.Value(middleware.AuthenticatedUserContextKey).(middleware.AuthenticatedUser)
	if !ok {
		h.logger.ErrorContext(ctx, "AuthenticatedUser not found in context for draft request")
		http.Error(w, "User authentication details not found", http.StatusUnauthorized)
		return
	}

	targetUserID := authUser.ID
	if reqDTO.UserID != "" {
		requested, err := uuid.Parse(reqDTO.UserID)
		if err != nil {
			http.Error(w, "Invalid userId", http.StatusBadRequest)
			return
		}
		if !authUser.CanActFor(requested) {
			h.logger.WarnContext(ctx, "Caller not authorized to draft for another user",
				"caller_id", authUser.ID, "target_user_id", requested)
			http.Error(w, "Not authorized to draft for another user", http.StatusForbidden)
			return
		}
		targetUserID = requested
	}

	if err := h.drafter.Draft(ctx, targetUserID, reqDTO.ThreadID); err != nil {
		h.respondDraftError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "scheduled"})
}

func (h *CareHandler) respondDraftError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var derr *domain.DraftError
	if !errors.As(err, &derr) {
		h.logger.ErrorContext(ctx, "Draft failed with internal error", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.WarnContext(ctx, "Draft rejected", "reason", derr.Reason, "error", derr)

	status := http.StatusInternalServerError
	switch derr.Reason {
	case domain.DraftUnauthorized:
		status = http.StatusUnauthorized
	case domain.DraftAlreadyScheduled:
		status = http.StatusConflict
	case domain.DraftNotConfigured:
		status = http.StatusUnprocessableEntity
	case domain.DraftCustomerNotFound:
		status = http.StatusNotFound
	case domain.DraftUpstreamCallFailed, domain.DraftUnparseableResponse, domain.DraftInvalidResponseShape:
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]string{
		"error":  string(derr.Reason),
		"detail": derr.Error(),
	})
}
