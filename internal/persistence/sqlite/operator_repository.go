package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/rental-dashboard/internal/persistence"
)

// OperatorRepository implements persistence.OperatorRepository using SQLite.
type OperatorRepository struct {
	pool *ConnectionPool
}

// NewOperatorRepository creates a new SQLite operator repository.
func NewOperatorRepository(pool *ConnectionPool) *OperatorRepository {
	return &OperatorRepository{pool: pool}
}

// CreateOperator inserts a new operator account.
func (r *OperatorRepository) CreateOperator(ctx context.Context, operator persistence.Operator) error {
	if operator.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO operators (id, email, display_name, password_hash, is_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		operator.ID,
		strings.ToLower(operator.Email),
		operator.DisplayName,
		operator.PasswordHash,
		boolToInt(operator.IsAdmin),
		operator.CreatedAt.UTC().Format(time.RFC3339),
		operator.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// UpdateOperator updates an existing operator account.
func (r *OperatorRepository) UpdateOperator(ctx context.Context, operator persistence.Operator) error {
	query := `
		UPDATE operators
		SET email = ?, display_name = ?, password_hash = ?, is_admin = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		strings.ToLower(operator.Email),
		operator.DisplayName,
		operator.PasswordHash,
		boolToInt(operator.IsAdmin),
		operator.UpdatedAt.UTC().Format(time.RFC3339),
		operator.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// GetOperator retrieves an operator by ID.
func (r *OperatorRepository) GetOperator(ctx context.Context, id string) (persistence.Operator, error) {
	if id == "" {
		return persistence.Operator{}, persistence.ErrNotFound
	}
	return scanOperator(r.pool.db.QueryRowContext(ctx, operatorSelect+" WHERE id = ?", id))
}

// GetOperatorByEmail retrieves an operator by email address.
func (r *OperatorRepository) GetOperatorByEmail(ctx context.Context, email string) (persistence.Operator, error) {
	return scanOperator(r.pool.db.QueryRowContext(ctx, operatorSelect+" WHERE email = ?", strings.ToLower(email)))
}

// ListOperators returns all operators ordered by creation time.
func (r *OperatorRepository) ListOperators(ctx context.Context) ([]persistence.Operator, error) {
	rows, err := r.pool.db.QueryContext(ctx, operatorSelect+" ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var operators []persistence.Operator
	for rows.Next() {
		operator, err := scanOperator(rows)
		if err != nil {
			return nil, err
		}
		operators = append(operators, operator)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return operators, nil
}

// DeleteOperator removes an operator and cascades to their sessions.
func (r *OperatorRepository) DeleteOperator(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM operators WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

const operatorSelect = `
	SELECT id, email, display_name, password_hash, is_admin, created_at, updated_at
	FROM operators`

func scanOperator(row rowScanner) (persistence.Operator, error) {
	var operator persistence.Operator
	var isAdmin int
	var createdAt, updatedAt string

	err := row.Scan(
		&operator.ID,
		&operator.Email,
		&operator.DisplayName,
		&operator.PasswordHash,
		&isAdmin,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Operator{}, persistence.ErrNotFound
		}
		return persistence.Operator{}, mapError(err)
	}

	operator.IsAdmin = isAdmin != 0
	if operator.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.Operator{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if operator.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.Operator{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return operator, nil
}
