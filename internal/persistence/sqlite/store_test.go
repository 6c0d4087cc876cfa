package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/rental-dashboard/internal/persistence"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open("file:" + filepath.Join(t.TempDir(), "dashboard.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return store
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate must be a no-op, got %v", err)
	}
}

func TestRoomRepositoryCRUD(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 11, 25, 9, 0, 0, 0, time.UTC)

	room := persistence.Room{
		ID:        "room-1",
		Name:      "hall",
		Available: true,
		HourCost:  5000,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.Rooms.CreateRoom(ctx, room); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := store.Rooms.CreateRoom(ctx, persistence.Room{
		ID: "room-2", Name: "hall", CreatedAt: now, UpdatedAt: now,
	}); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected duplicate name rejection, got %v", err)
	}

	stored, err := store.Rooms.GetRoom(ctx, "room-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !stored.Available || stored.HourCost != 5000 || stored.Name != "hall" {
		t.Fatalf("unexpected stored room %+v", stored)
	}

	stored.Available = false
	stored.UpdatedAt = now.Add(time.Hour)
	if err := store.Rooms.UpdateRoom(ctx, stored); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	updated, err := store.Rooms.GetRoom(ctx, "room-1")
	if err != nil {
		t.Fatalf("get after update failed: %v", err)
	}
	if updated.Available {
		t.Fatalf("expected availability flag persisted")
	}

	rooms, err := store.Rooms.ListRooms(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rooms) != 1 {
		t.Fatalf("expected one room, got %d", len(rooms))
	}

	if err := store.Rooms.DeleteRoom(ctx, "room-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Rooms.GetRoom(ctx, "room-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := store.Rooms.DeleteRoom(ctx, "room-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected not found on repeat delete, got %v", err)
	}
}

func TestBookingRepositoryCRUDAndFilter(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 11, 25, 9, 0, 0, 0, time.UTC)

	end := "٤:٠٠ ئێوارە"
	active := persistence.Booking{
		ID:           "b1",
		RoomName:     "hall",
		CustomerName: "ئاری",
		CalendarDate: "٢٥-١١-٢٠٢٤",
		StartTime:    "٢:٠٠ ئێوارە",
		EndTime:      &end,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	openEnded := persistence.Booking{
		ID:           "b2",
		RoomName:     "annex",
		CustomerName: "دلان",
		CalendarDate: "٢٥-١١-٢٠٢٤",
		StartTime:    "٩:٠٠ بەیانی",
		CreatedAt:    now.Add(time.Minute),
		UpdatedAt:    now.Add(time.Minute),
	}
	for _, booking := range []persistence.Booking{active, openEnded} {
		if err := store.Bookings.CreateBooking(ctx, booking); err != nil {
			t.Fatalf("create %s failed: %v", booking.ID, err)
		}
	}

	stored, err := store.Bookings.GetBooking(ctx, "b1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.EndTime == nil || *stored.EndTime != end {
		t.Fatalf("expected end time preserved, got %+v", stored.EndTime)
	}

	openStored, err := store.Bookings.GetBooking(ctx, "b2")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if openStored.EndTime != nil {
		t.Fatalf("expected open-ended booking to have no end time")
	}

	stored.Cancelled = true
	stored.UpdatedAt = now.Add(time.Hour)
	if err := store.Bookings.UpdateBooking(ctx, stored); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	visible, err := store.Bookings.ListBookings(ctx, persistence.BookingFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != "b2" {
		t.Fatalf("expected cancelled booking filtered out, got %+v", visible)
	}

	all, err := store.Bookings.ListBookings(ctx, persistence.BookingFilter{IncludeCancelled: true})
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both bookings, got %d", len(all))
	}

	byRoom, err := store.Bookings.ListBookings(ctx, persistence.BookingFilter{RoomName: "annex"})
	if err != nil {
		t.Fatalf("list by room failed: %v", err)
	}
	if len(byRoom) != 1 || byRoom[0].RoomName != "annex" {
		t.Fatalf("expected room filter applied, got %+v", byRoom)
	}

	if err := store.Bookings.DeleteBooking(ctx, "b2"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Bookings.GetBooking(ctx, "b2"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestOperatorAndSessionRepositories(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 11, 25, 9, 0, 0, 0, time.UTC)

	operator := persistence.Operator{
		ID:           "op-1",
		Email:        "Admin@Example.com",
		DisplayName:  "Admin",
		PasswordHash: "hash",
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.Operators.CreateOperator(ctx, operator); err != nil {
		t.Fatalf("create operator failed: %v", err)
	}

	byEmail, err := store.Operators.GetOperatorByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("lookup by email failed: %v", err)
	}
	if byEmail.ID != "op-1" || !byEmail.IsAdmin {
		t.Fatalf("unexpected operator %+v", byEmail)
	}

	session := persistence.AuthSession{
		ID:         "sess-1",
		OperatorID: "op-1",
		Token:      "token-1",
		ExpiresAt:  now.Add(time.Hour),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	created, err := store.Sessions.CreateSession(ctx, session)
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if created.RevokedAt != nil {
		t.Fatalf("fresh session must not be revoked")
	}

	revoked, err := store.Sessions.RevokeSession(ctx, "token-1", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if revoked.RevokedAt == nil {
		t.Fatalf("expected revoked stamp")
	}

	if err := store.Sessions.DeleteExpiredSessions(ctx, now.Add(2*time.Hour)); err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if _, err := store.Sessions.GetSession(ctx, "token-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected expired session pruned, got %v", err)
	}

	// Deleting the operator cascades to any remaining sessions.
	if _, err := store.Sessions.CreateSession(ctx, persistence.AuthSession{
		ID: "sess-2", OperatorID: "op-1", Token: "token-2",
		ExpiresAt: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("create second session failed: %v", err)
	}
	if err := store.Operators.DeleteOperator(ctx, "op-1"); err != nil {
		t.Fatalf("delete operator failed: %v", err)
	}
	if _, err := store.Sessions.GetSession(ctx, "token-2"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected cascade delete of sessions, got %v", err)
	}
}
