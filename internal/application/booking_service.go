package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/rental-dashboard/internal/persistence"
	"github.com/example/rental-dashboard/internal/timetext"
)

// BookingRepository captures the persistence interactions needed by the service.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) (Booking, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	UpdateBooking(ctx context.Context, booking Booking) (Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	ListBookings(ctx context.Context, filter BookingRepositoryFilter) ([]Booking, error)
}

// BookingRepositoryFilter narrows queries issued to the booking repository.
type BookingRepositoryFilter struct {
	RoomName         string
	IncludeCancelled bool
}

// RoomCatalog exposes the room lookups the booking service needs. Bookings
// reference rooms by display name, not ID.
type RoomCatalog interface {
	ListRooms(ctx context.Context) ([]Room, error)
}

// BookingService orchestrates validation and persistence for booking operations.
type BookingService struct {
	bookings    BookingRepository
	rooms       RoomCatalog
	feedSync    *FeedSync
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(bookings BookingRepository, rooms RoomCatalog, feedSync *FeedSync, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(bookings, rooms, feedSync, idGenerator, now, nil)
}

// NewBookingServiceWithLogger constructs a booking service with a specified logger.
func NewBookingServiceWithLogger(bookings BookingRepository, rooms RoomCatalog, feedSync *FeedSync, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:    bookings,
		rooms:       rooms,
		feedSync:    feedSync,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// CreateBooking validates the request before delegating to persistence.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateBooking",
		"principal_id", params.Principal.OperatorID,
		"room_name", params.Input.RoomName,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", booking.ID).InfoContext(ctx, "booking created")
	}()

	input := normalizeBookingInput(params.Input)
	vErr := validateBookingInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.ensureRoomExists(ctx, input.RoomName); err != nil {
		return
	}

	createdAt := s.now()
	booking = Booking{
		ID:           s.idGenerator(),
		RoomName:     input.RoomName,
		CustomerName: input.CustomerName,
		CalendarDate: input.CalendarDate,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	if s.bookings == nil {
		return
	}

	var persisted Booking
	persisted, err = s.bookings.CreateBooking(ctx, booking)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}

	booking = persisted
	s.feedSync.refresh(ctx)
	return
}

// UpdateBooking applies validation before updating persistence state.
func (s *BookingService) UpdateBooking(ctx context.Context, params UpdateBookingParams) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateBooking",
		"principal_id", params.Principal.OperatorID,
		"booking_id", params.BookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", booking.ID).InfoContext(ctx, "booking updated")
	}()

	var existing Booking
	existing, err = s.bookings.GetBooking(ctx, params.BookingID)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}

	input := normalizeBookingInput(params.Input)
	vErr := validateBookingInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.ensureRoomExists(ctx, input.RoomName); err != nil {
		return
	}

	updated := existing
	updated.RoomName = input.RoomName
	updated.CustomerName = input.CustomerName
	updated.CalendarDate = input.CalendarDate
	updated.StartTime = input.StartTime
	updated.EndTime = input.EndTime
	updated.UpdatedAt = s.now()

	booking, err = s.bookings.UpdateBooking(ctx, updated)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}

	s.feedSync.refresh(ctx)
	return
}

// CancelBooking marks a booking cancelled. The row is kept for history; the
// dashboard's visibility filter drops cancelled bookings from every tick.
func (s *BookingService) CancelBooking(ctx context.Context, principal Principal, bookingID string) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CancelBooking",
		"principal_id", principal.OperatorID,
		"booking_id", bookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", booking.ID).InfoContext(ctx, "booking cancelled")
	}()

	var existing Booking
	existing, err = s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}

	if existing.Cancelled {
		booking = existing
		return
	}

	existing.Cancelled = true
	existing.UpdatedAt = s.now()

	booking, err = s.bookings.UpdateBooking(ctx, existing)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}

	s.feedSync.refresh(ctx)
	return
}

// DeleteBooking permanently removes a booking when requested by an administrator.
func (s *BookingService) DeleteBooking(ctx context.Context, principal Principal, bookingID string) error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if s.bookings == nil {
		return fmt.Errorf("booking repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteBooking",
		"principal_id", principal.OperatorID,
		"booking_id", bookingID,
	)

	if err := s.bookings.DeleteBooking(ctx, bookingID); err != nil {
		err = mapBookingRepoError(err)
		logger.ErrorContext(ctx, "failed to delete booking", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "booking deleted")
	s.feedSync.refresh(ctx)
	return nil
}

// ListBookings enumerates bookings matching the filter and republishes the
// dashboard feed so the next tick works from the same data the caller saw.
func (s *BookingService) ListBookings(ctx context.Context, params ListBookingsParams) (bookings []Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListBookings",
		"principal_id", params.Principal.OperatorID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(bookings)).InfoContext(ctx, "bookings listed")
	}()

	var raw []Booking
	raw, err = s.bookings.ListBookings(ctx, BookingRepositoryFilter{
		RoomName:         strings.TrimSpace(params.RoomName),
		IncludeCancelled: params.IncludeCancelled,
	})
	if err != nil {
		return
	}

	bookings = make([]Booking, len(raw))
	copy(bookings, raw)

	sort.SliceStable(bookings, func(i, j int) bool {
		if bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].ID < bookings[j].ID
		}
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})

	s.feedSync.refresh(ctx)
	return
}

func (s *BookingService) ensureRoomExists(ctx context.Context, roomName string) error {
	if s.rooms == nil {
		return nil
	}
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return err
	}
	for _, room := range rooms {
		if room.Name == roomName {
			return nil
		}
	}
	vErr := &ValidationError{}
	vErr.add("room_name", "room does not exist")
	return vErr
}

func normalizeBookingInput(input BookingInput) BookingInput {
	var endTime *string
	if input.EndTime != nil {
		if trimmed := strings.TrimSpace(*input.EndTime); trimmed != "" {
			endTime = &trimmed
		}
	}
	return BookingInput{
		RoomName:     strings.TrimSpace(input.RoomName),
		CustomerName: strings.TrimSpace(input.CustomerName),
		CalendarDate: strings.TrimSpace(input.CalendarDate),
		StartTime:    strings.TrimSpace(input.StartTime),
		EndTime:      endTime,
	}
}

func validateBookingInput(input BookingInput) *ValidationError {
	vErr := &ValidationError{}

	if input.RoomName == "" {
		vErr.add("room_name", "room name is required")
	}
	if input.CustomerName == "" {
		vErr.add("customer_name", "customer name is required")
	}

	if input.CalendarDate == "" {
		vErr.add("calendar_date", "calendar date is required")
	} else if _, _, _, err := timetext.ParseCalendarDate(input.CalendarDate); err != nil {
		vErr.add("calendar_date", "calendar date is invalid")
	}

	if input.StartTime == "" {
		vErr.add("start_time", "start time is required")
	}

	return vErr
}

func mapBookingRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("room_name", "related records are missing")
		return vErr
	}
	return err
}
