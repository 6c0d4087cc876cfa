package timer

import (
	"strings"
	"time"

	"github.com/example/rental-dashboard/internal/timetext"
)

// Booking carries the temporal fields the clock reads. The strings are the
// localized forms produced by the data layer; the clock never touches the
// backend itself.
type Booking struct {
	ID           string
	RoomName     string
	CalendarDate string
	StartTime    string
	EndTime      string
}

// Compute classifies a booking relative to the supplied instant.
//
// The booking's calendar date is compared with now's date ignoring
// time-of-day. An end time-of-day earlier than the start marks an overnight
// booking whose end falls on the following day. A booking dated in the past
// that still has an end time is treated as finished even when the end instant
// lies ahead of now; its calendar day has elapsed, so it must not keep
// counting down. Any parse failure degrades to Upcoming with zero planned
// duration so a single malformed record cannot break a tick.
func Compute(b Booking, now time.Time) State {
	day, month, year, err := timetext.ParseCalendarDate(b.CalendarDate)
	if err != nil {
		return Upcoming(0)
	}

	loc := now.Location()
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)

	startMinutes := timetext.ParseTimeOfDay(b.StartTime)
	start := date.Add(time.Duration(startMinutes) * time.Minute)

	var end time.Time
	hasEnd := strings.TrimSpace(b.EndTime) != ""
	if hasEnd {
		endMinutes := timetext.ParseTimeOfDay(b.EndTime)
		endDate := date
		if endMinutes < startMinutes {
			// Overnight booking, the end belongs to the next day.
			endDate = date.AddDate(0, 0, 1)
		}
		end = endDate.Add(time.Duration(endMinutes) * time.Minute)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch {
	case date.After(today):
		return Upcoming(plannedSeconds(start, end, hasEnd))
	case date.Equal(today):
		if now.Before(start) {
			return Upcoming(plannedSeconds(start, end, hasEnd))
		}
		if hasEnd {
			remaining := end.Sub(now)
			if remaining > 0 {
				return Countdown(int64(remaining / time.Second))
			}
			return Finished()
		}
		return CountUp(int64(now.Sub(start) / time.Second))
	default:
		if hasEnd {
			return Finished()
		}
		return CountUp(int64(now.Sub(start) / time.Second))
	}
}

func plannedSeconds(start, end time.Time, hasEnd bool) int64 {
	if !hasEnd {
		return 0
	}
	return int64(end.Sub(start) / time.Second)
}

func clampSeconds(seconds int64) int64 {
	if seconds < 0 {
		return 0
	}
	return seconds
}
