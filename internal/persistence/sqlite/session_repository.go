package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/rental-dashboard/internal/persistence"
)

// AuthSessionRepository implements persistence.AuthSessionRepository using SQLite.
type AuthSessionRepository struct {
	pool *ConnectionPool
}

// NewAuthSessionRepository creates a new SQLite auth session repository.
func NewAuthSessionRepository(pool *ConnectionPool) *AuthSessionRepository {
	return &AuthSessionRepository{pool: pool}
}

// CreateSession inserts a new session and returns the stored row.
func (r *AuthSessionRepository) CreateSession(ctx context.Context, session persistence.AuthSession) (persistence.AuthSession, error) {
	if session.ID == "" || session.Token == "" {
		return persistence.AuthSession{}, persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO auth_sessions (id, operator_id, token, expires_at, created_at, updated_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		session.ID,
		session.OperatorID,
		session.Token,
		session.ExpiresAt.UTC().Format(time.RFC3339),
		session.CreatedAt.UTC().Format(time.RFC3339),
		session.UpdatedAt.UTC().Format(time.RFC3339),
		nullableTime(session.RevokedAt),
	)
	if err != nil {
		return persistence.AuthSession{}, mapError(err)
	}
	return r.GetSession(ctx, session.Token)
}

// GetSession retrieves a session by its token.
func (r *AuthSessionRepository) GetSession(ctx context.Context, token string) (persistence.AuthSession, error) {
	if token == "" {
		return persistence.AuthSession{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, operator_id, token, expires_at, created_at, updated_at, revoked_at
		FROM auth_sessions
		WHERE token = ?
	`
	return scanAuthSession(r.pool.db.QueryRowContext(ctx, query, token))
}

// RevokeSession stamps a session revoked and returns the updated row.
func (r *AuthSessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.AuthSession, error) {
	query := `
		UPDATE auth_sessions
		SET revoked_at = ?, updated_at = ?
		WHERE token = ?
	`
	stamp := revokedAt.UTC().Format(time.RFC3339)
	result, err := r.pool.db.ExecContext(ctx, query, stamp, stamp, token)
	if err != nil {
		return persistence.AuthSession{}, mapError(err)
	}
	if err := requireRowAffected(result); err != nil {
		return persistence.AuthSession{}, err
	}
	return r.GetSession(ctx, token)
}

// DeleteExpiredSessions prunes sessions whose expiry precedes the reference time.
func (r *AuthSessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.pool.db.ExecContext(ctx,
		"DELETE FROM auth_sessions WHERE expires_at < ?",
		reference.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

func scanAuthSession(row rowScanner) (persistence.AuthSession, error) {
	var session persistence.AuthSession
	var expiresAt, createdAt, updatedAt string
	var revokedAt sql.NullString

	err := row.Scan(
		&session.ID,
		&session.OperatorID,
		&session.Token,
		&expiresAt,
		&createdAt,
		&updatedAt,
		&revokedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.AuthSession{}, persistence.ErrNotFound
		}
		return persistence.AuthSession{}, mapError(err)
	}

	if session.ExpiresAt, err = time.Parse(time.RFC3339, expiresAt); err != nil {
		return persistence.AuthSession{}, fmt.Errorf("failed to parse expires_at: %w", err)
	}
	if session.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.AuthSession{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if session.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.AuthSession{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if revokedAt.Valid {
		parsed, err := time.Parse(time.RFC3339, revokedAt.String)
		if err != nil {
			return persistence.AuthSession{}, fmt.Errorf("failed to parse revoked_at: %w", err)
		}
		session.RevokedAt = &parsed
	}
	return session, nil
}

func nullableTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339)
}
