package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/rental-dashboard/internal/application"
	"github.com/example/rental-dashboard/internal/persistence"
)

var (
	operatorCounter uint64
	roomCounter     uint64
	bookingCounter  uint64
	sessionCounter  uint64
)

var referenceTime = time.Date(2026, time.March, 14, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// --------------------------- Operator fixtures ---------------------------

// OperatorFixture represents a deterministic operator record that can be
// materialised for application or persistence tests.
type OperatorFixture struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OperatorOption configures the generated operator fixture.
type OperatorOption func(*OperatorFixture)

// NewOperatorFixture returns a deterministic operator fixture with optional overrides.
func NewOperatorFixture(opts ...OperatorOption) OperatorFixture {
	idx := atomic.AddUint64(&operatorCounter, 1)
	id := fmt.Sprintf("operator-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := OperatorFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("Operator %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		IsAdmin:      false,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithOperatorID overrides the generated operator ID.
func WithOperatorID(id string) OperatorOption {
	return func(f *OperatorFixture) {
		f.ID = id
	}
}

// WithOperatorEmail overrides the generated email address.
func WithOperatorEmail(email string) OperatorOption {
	return func(f *OperatorFixture) {
		f.Email = email
	}
}

// WithOperatorDisplayName overrides the generated display name.
func WithOperatorDisplayName(name string) OperatorOption {
	return func(f *OperatorFixture) {
		f.DisplayName = name
	}
}

// WithOperatorPasswordHash overrides the generated password hash.
func WithOperatorPasswordHash(hash string) OperatorOption {
	return func(f *OperatorFixture) {
		f.PasswordHash = hash
	}
}

// WithOperatorAdmin sets the admin flag on the generated fixture.
func WithOperatorAdmin(isAdmin bool) OperatorOption {
	return func(f *OperatorFixture) {
		f.IsAdmin = isAdmin
	}
}

// WithOperatorTimestamps sets both created and updated timestamps on the fixture.
func WithOperatorTimestamps(created, updated time.Time) OperatorOption {
	return func(f *OperatorFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.Operator value.
func (f OperatorFixture) Application() application.Operator {
	return application.Operator{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		IsAdmin:     f.IsAdmin,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.OperatorCredentials.
func (f OperatorFixture) Credentials() application.OperatorCredentials {
	return application.OperatorCredentials{
		Operator:     f.Application(),
		PasswordHash: f.PasswordHash,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f OperatorFixture) Principal() application.Principal {
	return application.Principal{OperatorID: f.ID, IsAdmin: f.IsAdmin}
}

// Persistence returns the fixture as a persistence.Operator value.
func (f OperatorFixture) Persistence() persistence.Operator {
	return persistence.Operator{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		PasswordHash: f.PasswordHash,
		IsAdmin:      f.IsAdmin,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Input returns the fixture as an application.OperatorInput.
func (f OperatorFixture) Input() application.OperatorInput {
	return application.OperatorInput{
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Password:    "correct horse battery",
		IsAdmin:     f.IsAdmin,
	}
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture represents a deterministic rentable room record.
type RoomFixture struct {
	ID        string
	Name      string
	Available bool
	HourCost  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a deterministic room fixture with optional overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	id := fmt.Sprintf("room-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := RoomFixture{
		ID:        id,
		Name:      fmt.Sprintf("ژووری %03d", idx),
		Available: true,
		HourCost:  int64(10000 + idx*500),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) {
		f.ID = id
	}
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) {
		f.Name = name
	}
}

// WithRoomAvailable sets the persisted availability flag.
func WithRoomAvailable(available bool) RoomOption {
	return func(f *RoomFixture) {
		f.Available = available
	}
}

// WithRoomHourCost overrides the generated hourly cost.
func WithRoomHourCost(cost int64) RoomOption {
	return func(f *RoomFixture) {
		f.HourCost = cost
	}
}

// WithRoomTimestamps sets both created and updated timestamps.
func WithRoomTimestamps(created, updated time.Time) RoomOption {
	return func(f *RoomFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.Room value.
func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:        f.ID,
		Name:      f.Name,
		Available: f.Available,
		HourCost:  f.HourCost,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Room value.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		Name:      f.Name,
		Available: f.Available,
		HourCost:  f.HourCost,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input returns the fixture as an application.RoomInput.
func (f RoomFixture) Input() application.RoomInput {
	return application.RoomInput{
		Name:      f.Name,
		Available: f.Available,
		HourCost:  f.HourCost,
	}
}

// ---------------------------- Booking fixtures ---------------------------

// BookingFixture represents a deterministic booking record. Date and time
// fields default to localized strings the way operators enter them.
type BookingFixture struct {
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

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a deterministic booking fixture with optional overrides.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	id := fmt.Sprintf("booking-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := BookingFixture{
		ID:           id,
		RoomName:     "ژووری ١",
		CustomerName: fmt.Sprintf("کڕیار %03d", idx),
		CalendarDate: "١٤-٣-٢٠٢٦",
		StartTime:    "٤:٠٠ ئێوارە",
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the generated booking ID.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) {
		f.ID = id
	}
}

// WithBookingRoomName sets the room the booking refers to.
func WithBookingRoomName(name string) BookingOption {
	return func(f *BookingFixture) {
		f.RoomName = name
	}
}

// WithBookingCustomerName overrides the generated customer name.
func WithBookingCustomerName(name string) BookingOption {
	return func(f *BookingFixture) {
		f.CustomerName = name
	}
}

// WithBookingCalendarDate sets the localized calendar date string.
func WithBookingCalendarDate(date string) BookingOption {
	return func(f *BookingFixture) {
		f.CalendarDate = date
	}
}

// WithBookingStartTime sets the localized start time string.
func WithBookingStartTime(start string) BookingOption {
	return func(f *BookingFixture) {
		f.StartTime = start
	}
}

// WithBookingEndTime sets the optional localized end time string.
func WithBookingEndTime(end string) BookingOption {
	return func(f *BookingFixture) {
		value := end
		f.EndTime = &value
	}
}

// WithoutBookingEndTime clears the end time so the booking counts up.
func WithoutBookingEndTime() BookingOption {
	return func(f *BookingFixture) {
		f.EndTime = nil
	}
}

// WithBookingCancelled marks the booking as cancelled.
func WithBookingCancelled() BookingOption {
	return func(f *BookingFixture) {
		f.Cancelled = true
	}
}

// WithBookingTimestamps sets both created and updated timestamps.
func WithBookingTimestamps(created, updated time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.Booking value.
func (f BookingFixture) Application() application.Booking {
	return application.Booking{
		ID:           f.ID,
		RoomName:     f.RoomName,
		CustomerName: f.CustomerName,
		CalendarDate: f.CalendarDate,
		StartTime:    f.StartTime,
		EndTime:      copyStringPtr(f.EndTime),
		Cancelled:    f.Cancelled,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Booking value.
func (f BookingFixture) Persistence() persistence.Booking {
	return persistence.Booking{
		ID:           f.ID,
		RoomName:     f.RoomName,
		CustomerName: f.CustomerName,
		CalendarDate: f.CalendarDate,
		StartTime:    f.StartTime,
		EndTime:      copyStringPtr(f.EndTime),
		Cancelled:    f.Cancelled,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Input returns the fixture as an application.BookingInput.
func (f BookingFixture) Input() application.BookingInput {
	return application.BookingInput{
		RoomName:     f.RoomName,
		CustomerName: f.CustomerName,
		CalendarDate: f.CalendarDate,
		StartTime:    f.StartTime,
		EndTime:      copyStringPtr(f.EndTime),
	}
}

// ---------------------------- Session fixtures ---------------------------

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
	ID         string
	OperatorID string
	Token      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	RevokedAt  *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	id := fmt.Sprintf("session-%03d", idx)
	created := referenceTime
	fixture := SessionFixture{
		ID:         id,
		OperatorID: fmt.Sprintf("operator-%03d", idx),
		Token:      fmt.Sprintf("token-%03d", idx),
		ExpiresAt:  created.Add(8 * time.Hour),
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionID overrides the session ID.
func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.ID = id
	}
}

// WithSessionOperatorID sets the operator ID.
func WithSessionOperatorID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.OperatorID = id
	}
}

// WithSessionToken overrides the token value.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiresAt sets the expiration timestamp.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

// WithSessionRevokedAt sets the optional revoked timestamp.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		revoked := t
		f.RevokedAt = &revoked
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	var revoked *time.Time
	if f.RevokedAt != nil {
		t := *f.RevokedAt
		revoked = &t
	}
	return application.Session{
		ID:         f.ID,
		OperatorID: f.OperatorID,
		Token:      f.Token,
		ExpiresAt:  f.ExpiresAt,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
		RevokedAt:  revoked,
	}
}

// Persistence returns the fixture as a persistence.AuthSession value.
func (f SessionFixture) Persistence() persistence.AuthSession {
	var revoked *time.Time
	if f.RevokedAt != nil {
		t := *f.RevokedAt
		revoked = &t
	}
	return persistence.AuthSession{
		ID:         f.ID,
		OperatorID: f.OperatorID,
		Token:      f.Token,
		ExpiresAt:  f.ExpiresAt,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
		RevokedAt:  revoked,
	}
}

// helper to deep copy optional strings.
func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}
