package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/example/rental-dashboard/internal/persistence"
)

// OperatorRepository captures the persistence operations needed by the operator service.
type OperatorRepository interface {
	CreateOperator(ctx context.Context, operator Operator, passwordHash string) (Operator, error)
	GetOperator(ctx context.Context, id string) (Operator, error)
	UpdateOperator(ctx context.Context, operator Operator) (Operator, error)
	DeleteOperator(ctx context.Context, id string) error
	ListOperators(ctx context.Context) ([]Operator, error)
}

// PasswordHasher derives a storable hash from a plaintext password.
type PasswordHasher func(password string) (string, error)

// OperatorService orchestrates validation, authorization, and persistence for operator accounts.
type OperatorService struct {
	operators    OperatorRepository
	hashPassword PasswordHasher
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewOperatorService wires dependencies for the operator service.
func NewOperatorService(operators OperatorRepository, hash PasswordHasher, idGenerator func() string, now func() time.Time) *OperatorService {
	return NewOperatorServiceWithLogger(operators, hash, idGenerator, now, nil)
}

// NewOperatorServiceWithLogger constructs an operator service with a specified logger.
func NewOperatorServiceWithLogger(operators OperatorRepository, hash PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *OperatorService {
	if hash == nil {
		hash = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &OperatorService{operators: operators, hashPassword: hash, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *OperatorService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "OperatorService", operation, attrs...)
}

// CreateOperator validates input and persists a new operator for administrators.
func (s *OperatorService) CreateOperator(ctx context.Context, params CreateOperatorParams) (operator Operator, err error) {
	if s == nil {
		err = fmt.Errorf("OperatorService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateOperator",
		"principal_id", params.Principal.OperatorID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create operator", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("operator_id", operator.ID).InfoContext(ctx, "operator created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	normalized := normalizeOperatorInput(params.Input)
	vErr := validateOperatorInput(normalized, true)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	hash, err = s.hashPassword(normalized.Password)
	if err != nil {
		return
	}

	operator = Operator{
		ID:          s.idGenerator(),
		Email:       normalized.Email,
		DisplayName: normalized.DisplayName,
		IsAdmin:     normalized.IsAdmin,
		CreatedAt:   s.now(),
	}
	operator.UpdatedAt = operator.CreatedAt

	if s.operators == nil {
		return
	}

	var persisted Operator
	persisted, err = s.operators.CreateOperator(ctx, operator, hash)
	if err != nil {
		err = mapOperatorRepoError(err)
		return
	}

	operator = persisted
	return
}

// UpdateOperator validates input and updates an existing operator for administrators.
func (s *OperatorService) UpdateOperator(ctx context.Context, params UpdateOperatorParams) (operator Operator, err error) {
	if s == nil {
		err = fmt.Errorf("OperatorService is nil")
		return
	}
	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if s.operators == nil {
		err = fmt.Errorf("operator repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateOperator",
		"principal_id", params.Principal.OperatorID,
		"operator_id", params.OperatorID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update operator", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("operator_id", operator.ID).InfoContext(ctx, "operator updated")
	}()

	var existing Operator
	existing, err = s.operators.GetOperator(ctx, params.OperatorID)
	if err != nil {
		err = mapOperatorRepoError(err)
		return
	}

	normalized := normalizeOperatorInput(params.Input)
	vErr := validateOperatorInput(normalized, false)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Email = normalized.Email
	updated.DisplayName = normalized.DisplayName
	updated.IsAdmin = normalized.IsAdmin
	updated.UpdatedAt = s.now()

	operator, err = s.operators.UpdateOperator(ctx, updated)
	if err != nil {
		err = mapOperatorRepoError(err)
		return
	}

	return
}

// DeleteOperator removes an operator when requested by an administrator.
func (s *OperatorService) DeleteOperator(ctx context.Context, principal Principal, operatorID string) error {
	if s == nil {
		return fmt.Errorf("OperatorService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if s.operators == nil {
		return fmt.Errorf("operator repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteOperator",
		"principal_id", principal.OperatorID,
		"operator_id", operatorID,
	)

	if err := s.operators.DeleteOperator(ctx, operatorID); err != nil {
		err = mapOperatorRepoError(err)
		logger.ErrorContext(ctx, "failed to delete operator", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "operator deleted")
	return nil
}

// ListOperators returns all operators for administrators.
func (s *OperatorService) ListOperators(ctx context.Context, principal Principal) (operators []Operator, err error) {
	if s == nil {
		err = fmt.Errorf("OperatorService is nil")
		return
	}
	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if s.operators == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListOperators",
		"principal_id", principal.OperatorID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list operators", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(operators)).InfoContext(ctx, "operators listed")
	}()

	var raw []Operator
	raw, err = s.operators.ListOperators(ctx)
	if err != nil {
		return
	}

	operators = make([]Operator, len(raw))
	copy(operators, raw)

	sort.Slice(operators, func(i, j int) bool {
		if strings.EqualFold(operators[i].Email, operators[j].Email) {
			return operators[i].ID < operators[j].ID
		}
		return strings.ToLower(operators[i].Email) < strings.ToLower(operators[j].Email)
	})

	return
}

func normalizeOperatorInput(input OperatorInput) OperatorInput {
	return OperatorInput{
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Password:    input.Password,
		IsAdmin:     input.IsAdmin,
	}
}

func validateOperatorInput(input OperatorInput, passwordRequired bool) *ValidationError {
	vErr := &ValidationError{}

	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}

	if input.DisplayName == "" {
		vErr.add("display_name", "display name is required")
	}

	if passwordRequired && len(input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}

	return vErr
}

func mapOperatorRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}
