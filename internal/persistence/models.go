package persistence

import "time"

// Room represents a rentable room catalog entry.
type Room struct {
	ID        string
	Name      string
	Available bool
	HourCost  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Booking represents a customer rental stored in persistence. The date and
// time fields keep the localized string forms the dashboard displays; RoomName
// is the join key to the room catalog, not a foreign key.
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

// Operator represents a dashboard operator account.
type Operator struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthSession represents an authentication session issued to an operator.
type AuthSession struct {
	ID         string
	OperatorID string
	Token      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	RevokedAt  *time.Time
}
