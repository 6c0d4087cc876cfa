package application

import "time"

// Principal represents the authenticated operator invoking a service method.
type Principal struct {
	OperatorID string
	IsAdmin    bool
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name      string
	Available bool
	HourCost  int64
}

// Room represents a rentable room in the catalog. Available is the persisted
// flag staff maintain by hand; the dashboard derives the displayed state from
// it and from running bookings.
type Room struct {
	ID        string
	Name      string
	Available bool
	HourCost  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// BookingInput captures caller provided booking fields. Date and times are
// kept as the localized strings operators type in; the timer layer parses
// them on every tick.
type BookingInput struct {
	RoomName     string
	CustomerName string
	CalendarDate string
	StartTime    string
	EndTime      *string
}

// Booking represents a persisted room rental.
type Booking struct {
	ID           string
	RoomName     string
	CustomerName string
	CalendarDate string
	StartTime    string
	EndTime      *string
	Cancelled    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// UpdateBookingParams wraps the data required to update an existing booking.
type UpdateBookingParams struct {
	Principal Principal
	BookingID string
	Input     BookingInput
}

// ListBookingsParams wraps the data required to list bookings.
type ListBookingsParams struct {
	Principal        Principal
	RoomName         string
	IncludeCancelled bool
}

// OperatorInput captures caller provided operator attributes.
type OperatorInput struct {
	Email       string
	DisplayName string
	Password    string
	IsAdmin     bool
}

// Operator represents a staff account exposed by the application services.
type Operator struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateOperatorParams wraps the data required to create an operator.
type CreateOperatorParams struct {
	Principal Principal
	Input     OperatorInput
}

// UpdateOperatorParams wraps the data required to update an operator.
type UpdateOperatorParams struct {
	Principal  Principal
	OperatorID string
	Input      OperatorInput
}

// OperatorCredentials models the authentication attributes persisted for an operator.
type OperatorCredentials struct {
	Operator     Operator
	PasswordHash string
}

// Session represents an authenticated session issued to an operator.
type Session struct {
	ID         string
	OperatorID string
	Token      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	RevokedAt  *time.Time
}

// AuthenticateParams captures the data required to authenticate an operator.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	Operator Operator
	Session  Session
}
