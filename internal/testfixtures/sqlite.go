package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/rental-dashboard/internal/persistence"
	"github.com/example/rental-dashboard/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite storage
// instance for integration-style persistence tests.
type SQLiteHarness struct {
	Rooms     persistence.RoomRepository
	Bookings  persistence.BookingRepository
	Operators persistence.OperatorRepository
	Sessions  persistence.AuthSessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "dashboard.db")

	storage, err := sqlite.Open("file:" + path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Rooms:     storage.Rooms,
		Bookings:  storage.Bookings,
		Operators: storage.Operators,
		Sessions:  storage.Sessions,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
