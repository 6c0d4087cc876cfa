package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/rental-dashboard/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	pool *ConnectionPool
}

// NewRoomRepository creates a new SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

// CreateRoom inserts a new room.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if room.HourCost < 0 {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO rooms (id, name, available, hour_cost, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		room.ID,
		room.Name,
		boolToInt(room.Available),
		room.HourCost,
		room.CreatedAt.UTC().Format(time.RFC3339),
		room.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// UpdateRoom updates an existing room.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.HourCost < 0 {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE rooms
		SET name = ?, available = ?, hour_cost = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		room.Name,
		boolToInt(room.Available),
		room.HourCost,
		room.UpdatedAt.UTC().Format(time.RFC3339),
		room.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// GetRoom retrieves a room by ID.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, name, available, hour_cost, created_at, updated_at
		FROM rooms
		WHERE id = ?
	`
	room, err := scanRoom(r.pool.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}

// ListRooms returns all rooms ordered by name then ID.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	query := `
		SELECT id, name, available, hour_cost, created_at, updated_at
		FROM rooms
		ORDER BY name ASC, id ASC
	`
	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return rooms, nil
}

// DeleteRoom removes a room by ID. Bookings keep their room name; the join is
// by name, so history stays intact.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var room persistence.Room
	var available int
	var createdAt, updatedAt string

	if err := row.Scan(&room.ID, &room.Name, &available, &room.HourCost, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, mapError(err)
	}

	room.Available = available != 0

	var err error
	if room.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.Room{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if room.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.Room{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return room, nil
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
