package persistence

import (
	"context"
	"time"
)

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// BookingFilter narrows booking queries.
type BookingFilter struct {
	RoomName         string
	IncludeCancelled bool
}

// BookingRepository stores customer rental bookings.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) error
	UpdateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

// OperatorRepository exposes CRUD operations for operator accounts.
type OperatorRepository interface {
	CreateOperator(ctx context.Context, operator Operator) error
	UpdateOperator(ctx context.Context, operator Operator) error
	GetOperator(ctx context.Context, id string) (Operator, error)
	GetOperatorByEmail(ctx context.Context, email string) (Operator, error)
	ListOperators(ctx context.Context) ([]Operator, error)
	DeleteOperator(ctx context.Context, id string) error
}

// AuthSessionRepository stores authentication session state.
type AuthSessionRepository interface {
	CreateSession(ctx context.Context, session AuthSession) (AuthSession, error)
	GetSession(ctx context.Context, token string) (AuthSession, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (AuthSession, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
