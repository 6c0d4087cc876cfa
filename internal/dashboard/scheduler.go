package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/example/rental-dashboard/internal/availability"
	"github.com/example/rental-dashboard/internal/timer"
)

// Snapshot is one complete, immutable result of a tick. A new snapshot is
// installed wholesale each tick, so readers never observe a mix of old and
// new states and can share a snapshot without synchronization.
type Snapshot struct {
	TakenAt      time.Time
	States       map[string]timer.State
	RoomStatuses map[string]availability.RoomStatus
	Warnings     []availability.Warning
}

// Source supplies the latest published collections for a tick.
type Source interface {
	Collection() ([]BookingRecord, []availability.Room)
}

// VisibilityPredicate decides whether a booking participates in timer
// computation at all. It is re-evaluated on every tick, never cached.
type VisibilityPredicate func(BookingRecord) bool

// DefaultVisibility hides cancelled bookings.
func DefaultVisibility(record BookingRecord) bool {
	return !record.Cancelled
}

// Scheduler recomputes every visible booking's timer state and the derived
// room availabilities on a fixed period.
type Scheduler struct {
	source   Source
	visible  VisibilityPredicate
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu     sync.RWMutex
	latest Snapshot

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

// NewScheduler constructs a scheduler with the provided dependencies. A zero
// interval defaults to one second; nil now defaults to the system clock.
func NewScheduler(source Source, interval time.Duration, now func() time.Time, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		source:   source,
		visible:  DefaultVisibility,
		interval: interval,
		now:      now,
		logger:   logger,
		subs:     make(map[int]chan Snapshot),
	}
}

// SetVisibility replaces the visibility predicate. Intended for wiring before
// Run is started.
func (s *Scheduler) SetVisibility(predicate VisibilityPredicate) {
	if s == nil || predicate == nil {
		return
	}
	s.visible = predicate
}

// Run drives the tick loop until ctx is cancelled. One tick executes
// immediately so the first snapshot is available without waiting a full
// period. Cancelling ctx is the only teardown primitive; each tick is an
// independent computation with no partial effects to drain.
func (s *Scheduler) Run(ctx context.Context) {
	if s == nil {
		return
	}

	s.Tick()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "dashboard scheduler stopped")
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick performs one complete recomputation: it reads the current collections,
// filters through the visibility predicate, classifies every booking,
// projects room availability, and installs the resulting snapshot.
func (s *Scheduler) Tick() Snapshot {
	if s == nil {
		return Snapshot{}
	}

	now := s.now()

	var records []BookingRecord
	var rooms []availability.Room
	if s.source != nil {
		records, rooms = s.source.Collection()
	}

	states := make(map[string]timer.State, len(records))
	bookingStates := make([]availability.BookingState, 0, len(records))
	for _, record := range records {
		if s.visible != nil && !s.visible(record) {
			continue
		}
		state := s.computeState(record.Booking, now)
		states[record.ID] = state
		bookingStates = append(bookingStates, availability.BookingState{
			BookingID: record.ID,
			RoomName:  record.RoomName,
			State:     state,
		})
	}

	statuses, warnings := availability.Project(rooms, bookingStates)
	roomStatuses := make(map[string]availability.RoomStatus, len(statuses))
	for _, status := range statuses {
		roomStatuses[status.RoomID] = status
	}

	snapshot := Snapshot{
		TakenAt:      now,
		States:       states,
		RoomStatuses: roomStatuses,
		Warnings:     warnings,
	}

	s.mu.Lock()
	s.latest = snapshot
	s.mu.Unlock()

	s.broadcast(snapshot)
	return snapshot
}

// Latest returns the most recently installed snapshot.
func (s *Scheduler) Latest() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Subscribe registers a consumer for per-tick snapshots. Delivery is
// non-blocking: a consumer that falls behind misses ticks instead of stalling
// the loop. The returned cancel function releases the subscription.
func (s *Scheduler) Subscribe() (<-chan Snapshot, func()) {
	if s == nil {
		ch := make(chan Snapshot)
		close(ch)
		return ch, func() {}
	}

	ch := make(chan Snapshot, 1)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		if existing, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(existing)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

func (s *Scheduler) broadcast(snapshot Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// computeState isolates a single booking's classification. A panic inside the
// computation degrades that booking to the upcoming-zero default instead of
// taking the whole tick down.
func (s *Scheduler) computeState(booking timer.Booking, now time.Time) (state timer.State) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("booking state computation panicked", "booking_id", booking.ID, "panic", r)
			state = timer.Upcoming(0)
		}
	}()
	return timer.Compute(booking, now)
}
