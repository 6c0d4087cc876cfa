package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/rental-dashboard/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository using SQLite.
type BookingRepository struct {
	pool *ConnectionPool
}

// NewBookingRepository creates a new SQLite booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// CreateBooking inserts a new booking.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO bookings (id, room_name, customer_name, calendar_date, start_time, end_time, cancelled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		booking.ID,
		booking.RoomName,
		booking.CustomerName,
		booking.CalendarDate,
		booking.StartTime,
		nullableString(booking.EndTime),
		boolToInt(booking.Cancelled),
		booking.CreatedAt.UTC().Format(time.RFC3339),
		booking.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// UpdateBooking updates an existing booking.
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	query := `
		UPDATE bookings
		SET room_name = ?, customer_name = ?, calendar_date = ?, start_time = ?, end_time = ?, cancelled = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		booking.RoomName,
		booking.CustomerName,
		booking.CalendarDate,
		booking.StartTime,
		nullableString(booking.EndTime),
		boolToInt(booking.Cancelled),
		booking.UpdatedAt.UTC().Format(time.RFC3339),
		booking.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// GetBooking retrieves a booking by ID.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}

	query := bookingSelect + " WHERE id = ?"
	booking, err := scanBooking(r.pool.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}

// ListBookings returns bookings matching the filter, newest creation first.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	query := bookingSelect
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 1)

	if !filter.IncludeCancelled {
		clauses = append(clauses, "cancelled = 0")
	}
	if filter.RoomName != "" {
		clauses = append(clauses, "room_name = ?")
		args = append(args, filter.RoomName)
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY created_at DESC, id ASC"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return bookings, nil
}

// DeleteBooking removes a booking by ID.
func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM bookings WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

const bookingSelect = `
	SELECT id, room_name, customer_name, calendar_date, start_time, end_time, cancelled, created_at, updated_at
	FROM bookings`

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var booking persistence.Booking
	var endTime sql.NullString
	var cancelled int
	var createdAt, updatedAt string

	err := row.Scan(
		&booking.ID,
		&booking.RoomName,
		&booking.CustomerName,
		&booking.CalendarDate,
		&booking.StartTime,
		&endTime,
		&cancelled,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Booking{}, persistence.ErrNotFound
		}
		return persistence.Booking{}, mapError(err)
	}

	if endTime.Valid {
		value := endTime.String
		booking.EndTime = &value
	}
	booking.Cancelled = cancelled != 0

	if booking.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if booking.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return booking, nil
}

func nullableString(value *string) any {
	if value == nil || *value == "" {
		return nil
	}
	return *value
}
