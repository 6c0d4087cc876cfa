// Package timer derives the temporal state of a booking from its localized
// date and time strings and an injected current instant.
package timer

import (
	"fmt"

	"github.com/example/rental-dashboard/internal/timetext"
)

// Kind enumerates the temporal classifications a booking can be in.
type Kind int

const (
	// KindUpcoming means the booking has not started yet.
	KindUpcoming Kind = iota
	// KindCountUp means the booking is running with no known end.
	KindCountUp
	// KindCountdown means the booking is running toward a known end.
	KindCountdown
	// KindFinished means the booking's known end has passed.
	KindFinished
)

// String returns a stable label for logging and serialization.
func (k Kind) String() string {
	switch k {
	case KindUpcoming:
		return "upcoming"
	case KindCountUp:
		return "count_up"
	case KindCountdown:
		return "countdown"
	case KindFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// State is the classification of a booking at one instant. The single
// duration field means what the kind says it means: planned length for
// upcoming, elapsed seconds while counting up, remaining seconds while
// counting down, and always zero once finished. Construct values through
// the constructors so invalid combinations cannot exist.
type State struct {
	kind    Kind
	seconds int64
}

// Upcoming returns a state for a booking that has not begun. The seconds
// carry the planned length of the booking, not a countdown to its start,
// so the dashboard can preview how long it will run.
func Upcoming(plannedSeconds int64) State {
	return State{kind: KindUpcoming, seconds: clampSeconds(plannedSeconds)}
}

// CountUp returns a running state with the elapsed seconds since start.
func CountUp(elapsedSeconds int64) State {
	return State{kind: KindCountUp, seconds: clampSeconds(elapsedSeconds)}
}

// Countdown returns a running state with the seconds remaining until the end.
func Countdown(remainingSeconds int64) State {
	return State{kind: KindCountdown, seconds: clampSeconds(remainingSeconds)}
}

// Finished returns the terminal state. It carries no duration.
func Finished() State {
	return State{kind: KindFinished}
}

// Kind reports the classification of the state.
func (s State) Kind() Kind {
	return s.kind
}

// Seconds reports the non-negative duration associated with the state.
func (s State) Seconds() int64 {
	return s.seconds
}

// Running reports whether the booking currently occupies its room.
func (s State) Running() bool {
	return s.kind == KindCountUp || s.kind == KindCountdown
}

// Components decomposes the state's duration into display parts.
func (s State) Components() (hours, minutes, seconds int64) {
	return s.seconds / 3600, (s.seconds % 3600) / 60, s.seconds % 60
}

// Display renders the duration as hh:mm:ss in localized digits.
func (s State) Display() string {
	h, m, sec := s.Components()
	return timetext.ToLocalizedDigits(fmt.Sprintf("%02d:%02d:%02d", h, m, sec))
}
