// Package availability projects the per-tick booking states onto the room
// catalog to derive each room's displayed availability.
package availability

import (
	"sort"

	"github.com/example/rental-dashboard/internal/timer"
)

// Labels shown next to the availability flag on the dashboard.
const (
	// LabelAvailable marks a room that can be rented right now.
	LabelAvailable = "بەردەستە"
	// LabelBusy marks a room occupied by a running booking.
	LabelBusy = "داگیراوە"
)

// Room is the catalog entry the projection seeds from. Available is the
// backend-owned flag; the projection may override it but never writes it back.
type Room struct {
	ID        string
	Name      string
	Available bool
	HourCost  int64
}

// BookingState pairs a booking with its computed timer state for one tick.
type BookingState struct {
	BookingID string
	RoomName  string
	State     timer.State
}

// RoomStatus is the derived, display-only availability of one room. It is
// recomputed every tick and never persisted.
type RoomStatus struct {
	RoomID    string
	RoomName  string
	Available bool
	Label     string
	HourCost  int64
}

// Warning reports that more than one running booking claimed the same room
// during a tick. The projection still applies the last booking processed,
// matching the dashboard's long-standing behaviour, but surfaces the overlap
// so operators can repair the double booking.
type Warning struct {
	RoomName   string
	BookingIDs []string
}

// Project derives a RoomStatus for every room.
//
// Each room is seeded from its persisted flag. Bookings are then applied in
// the order given: a running booking marks the room busy, a finished booking
// releases it even before the backend flag catches up, and an upcoming
// booking reverts the room to its persisted flag. When several bookings name
// the same room the last one processed wins; rooms are expected to hold at
// most one active booking, and Project reports a Warning whenever more than
// one running booking violates that assumption.
func Project(rooms []Room, states []BookingState) ([]RoomStatus, []Warning) {
	statuses := make([]RoomStatus, len(rooms))
	byName := make(map[string]int, len(rooms))
	for i, room := range rooms {
		statuses[i] = seedStatus(room)
		byName[room.Name] = i
	}

	running := make(map[string][]string)
	for _, bs := range states {
		idx, ok := byName[bs.RoomName]
		if !ok {
			continue
		}
		if bs.State.Running() {
			running[bs.RoomName] = append(running[bs.RoomName], bs.BookingID)
		}

		switch bs.State.Kind() {
		case timer.KindCountUp, timer.KindCountdown:
			statuses[idx].Available = false
			statuses[idx].Label = LabelBusy
		case timer.KindFinished:
			statuses[idx].Available = true
			statuses[idx].Label = LabelAvailable
		case timer.KindUpcoming:
			statuses[idx] = seedStatus(rooms[idx])
		}
	}

	var warnings []Warning
	for name, ids := range running {
		if len(ids) < 2 {
			continue
		}
		warnings = append(warnings, Warning{RoomName: name, BookingIDs: ids})
	}
	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].RoomName < warnings[j].RoomName
	})

	return statuses, warnings
}

func seedStatus(room Room) RoomStatus {
	label := LabelBusy
	if room.Available {
		label = LabelAvailable
	}
	return RoomStatus{
		RoomID:    room.ID,
		RoomName:  room.Name,
		Available: room.Available,
		Label:     label,
		HourCost:  room.HourCost,
	}
}
