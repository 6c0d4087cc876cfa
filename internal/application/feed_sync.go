package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/rental-dashboard/internal/availability"
	"github.com/example/rental-dashboard/internal/dashboard"
	"github.com/example/rental-dashboard/internal/timer"
)

// DashboardFeed receives the authoritative booking and room collections the
// per-second recomputation loop works from.
type DashboardFeed interface {
	Publish(bookings []dashboard.BookingRecord, rooms []availability.Room)
}

// FeedSync republishes the full booking and room collections to the dashboard
// feed. Services call it after every mutation so the next tick already sees
// the new data; the snapshot is replaced wholesale, never patched.
type FeedSync struct {
	bookings BookingRepository
	rooms    RoomRepository
	feed     DashboardFeed
	logger   *slog.Logger
}

// NewFeedSync wires a feed sync over the given repositories and feed.
func NewFeedSync(bookings BookingRepository, rooms RoomRepository, feed DashboardFeed, logger *slog.Logger) *FeedSync {
	return &FeedSync{bookings: bookings, rooms: rooms, feed: feed, logger: defaultLogger(logger)}
}

// Refresh loads the current collections and publishes them to the feed.
// Cancelled bookings are included; the scheduler's visibility predicate
// filters them on every tick.
func (f *FeedSync) Refresh(ctx context.Context) error {
	if f == nil || f.feed == nil {
		return nil
	}
	if f.bookings == nil || f.rooms == nil {
		return fmt.Errorf("feed sync repositories not configured")
	}

	bookings, err := f.bookings.ListBookings(ctx, BookingRepositoryFilter{IncludeCancelled: true})
	if err != nil {
		return err
	}
	rooms, err := f.rooms.ListRooms(ctx)
	if err != nil {
		return err
	}

	records := make([]dashboard.BookingRecord, 0, len(bookings))
	for _, booking := range bookings {
		records = append(records, toBookingRecord(booking))
	}
	catalog := make([]availability.Room, 0, len(rooms))
	for _, room := range rooms {
		catalog = append(catalog, availability.Room{
			ID:        room.ID,
			Name:      room.Name,
			Available: room.Available,
			HourCost:  room.HourCost,
		})
	}

	f.feed.Publish(records, catalog)
	return nil
}

// refresh logs instead of failing; a mutation that already persisted should
// not be reported as an error because the display refresh lagged.
func (f *FeedSync) refresh(ctx context.Context) {
	if f == nil {
		return
	}
	if err := f.Refresh(ctx); err != nil {
		serviceLogger(ctx, f.logger, "FeedSync", "Refresh").
			ErrorContext(ctx, "failed to refresh dashboard feed", "error", err, "error_kind", ErrorKind(err))
	}
}

func toBookingRecord(booking Booking) dashboard.BookingRecord {
	endTime := ""
	if booking.EndTime != nil {
		endTime = *booking.EndTime
	}
	return dashboard.BookingRecord{
		Booking: timer.Booking{
			ID:           booking.ID,
			RoomName:     booking.RoomName,
			CalendarDate: booking.CalendarDate,
			StartTime:    booking.StartTime,
			EndTime:      endTime,
		},
		Cancelled: booking.Cancelled,
	}
}
