package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/rental-dashboard/internal/application"
)

type operatorService interface {
	CreateOperator(ctx context.Context, params application.CreateOperatorParams) (application.Operator, error)
	UpdateOperator(ctx context.Context, params application.UpdateOperatorParams) (application.Operator, error)
	DeleteOperator(ctx context.Context, principal application.Principal, operatorID string) error
	ListOperators(ctx context.Context, principal application.Principal) ([]application.Operator, error)
}

type OperatorHandler struct {
	service   operatorService
	responder responder
	logger    *slog.Logger
}

func NewOperatorHandler(service operatorService, logger *slog.Logger) *OperatorHandler {
	base := defaultLogger(logger)
	return &OperatorHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *OperatorHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "OperatorHandler", operation, attrs...)
}

func (h *OperatorHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req operatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.OperatorID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode operator request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.OperatorID)

	operator, err := h.service.CreateOperator(r.Context(), application.CreateOperatorParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "operator creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("operator_id", operator.ID).InfoContext(r.Context(), "operator created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, operatorResponse{Operator: toOperatorDTO(operator)})
}

func (h *OperatorHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	operatorID, ok := OperatorIDFromContext(r.Context())
	if !ok || strings.TrimSpace(operatorID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing operator id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidOperatorID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req operatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.OperatorID, "operator_id", operatorID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode operator update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.OperatorID, "operator_id", operatorID)

	operator, err := h.service.UpdateOperator(r.Context(), application.UpdateOperatorParams{
		Principal:  principal,
		OperatorID: operatorID,
		Input:      req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "operator update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "operator updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, operatorResponse{Operator: toOperatorDTO(operator)})
}

func (h *OperatorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	operatorID, ok := OperatorIDFromContext(r.Context())
	if !ok || strings.TrimSpace(operatorID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing operator id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidOperatorID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.OperatorID, "operator_id", operatorID)

	if err := h.service.DeleteOperator(r.Context(), principal, operatorID); err != nil {
		logger.ErrorContext(r.Context(), "operator delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "operator deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *OperatorHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok || strings.TrimSpace(principal.OperatorID) == "" {
		h.log(r.Context(), "List", "error_kind", "unauthorized").ErrorContext(r.Context(), "missing authenticated principal")
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.OperatorID)
	operators, err := h.service.ListOperators(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "operator list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(operators)).InfoContext(r.Context(), "operators listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listOperatorsResponse{Operators: toOperatorDTOs(operators)})
}

type operatorRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
	IsAdmin     bool   `json:"is_admin"`
}

func (r operatorRequest) toInput() application.OperatorInput {
	return application.OperatorInput{
		Email:       strings.TrimSpace(r.Email),
		DisplayName: strings.TrimSpace(r.DisplayName),
		Password:    r.Password,
		IsAdmin:     r.IsAdmin,
	}
}

type operatorResponse struct {
	Operator operatorDTO `json:"operator"`
}

type listOperatorsResponse struct {
	Operators []operatorDTO `json:"operators"`
}

type operatorDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	IsAdmin     bool   `json:"is_admin"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toOperatorDTO(operator application.Operator) operatorDTO {
	return operatorDTO{
		ID:          operator.ID,
		Email:       operator.Email,
		DisplayName: operator.DisplayName,
		IsAdmin:     operator.IsAdmin,
		CreatedAt:   operator.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   operator.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toOperatorDTOs(operators []application.Operator) []operatorDTO {
	if len(operators) == 0 {
		return nil
	}
	out := make([]operatorDTO, 0, len(operators))
	for _, operator := range operators {
		out = append(out, toOperatorDTO(operator))
	}
	return out
}
