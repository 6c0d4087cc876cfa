// Package dashboard owns the per-second recomputation loop that keeps the
// displayed booking states and room availabilities current.
package dashboard

import (
	"sync"

	"github.com/example/rental-dashboard/internal/availability"
	"github.com/example/rental-dashboard/internal/timer"
)

// BookingRecord is a booking as the data layer last published it, together
// with the flags the visibility predicate inspects.
type BookingRecord struct {
	timer.Booking
	Cancelled bool
}

// Feed holds the most recently published booking and room collections. The
// data layer replaces them wholesale after every load or mutation; the
// scheduler reads whatever is current at the moment of each tick and never
// blocks waiting for a refresh.
type Feed struct {
	mu       sync.RWMutex
	bookings []BookingRecord
	rooms    []availability.Room
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Publish installs a new authoritative collection pair. The slices are copied
// so later caller mutations cannot leak into readers.
func (f *Feed) Publish(bookings []BookingRecord, rooms []availability.Room) {
	if f == nil {
		return
	}
	clonedBookings := cloneBookings(bookings)
	clonedRooms := cloneRooms(rooms)

	f.mu.Lock()
	f.bookings = clonedBookings
	f.rooms = clonedRooms
	f.mu.Unlock()
}

// Collection returns independent copies of the latest published collections.
func (f *Feed) Collection() ([]BookingRecord, []availability.Room) {
	if f == nil {
		return nil, nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return cloneBookings(f.bookings), cloneRooms(f.rooms)
}

func cloneBookings(bookings []BookingRecord) []BookingRecord {
	if len(bookings) == 0 {
		return nil
	}
	out := make([]BookingRecord, len(bookings))
	copy(out, bookings)
	return out
}

func cloneRooms(rooms []availability.Room) []availability.Room {
	if len(rooms) == 0 {
		return nil
	}
	out := make([]availability.Room, len(rooms))
	copy(out, rooms)
	return out
}
