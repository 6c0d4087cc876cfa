package sqlite

import (
	"context"
)

// Store bundles the SQLite-backed repositories behind one connection pool.
type Store struct {
	pool      *ConnectionPool
	Rooms     *RoomRepository
	Bookings  *BookingRepository
	Operators *OperatorRepository
	Sessions  *AuthSessionRepository
}

// Open opens the database at dsn and wires the repositories. Migrate must be
// called before first use.
func Open(dsn string) (*Store, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}
	return &Store{
		pool:      pool,
		Rooms:     NewRoomRepository(pool),
		Bookings:  NewBookingRepository(pool),
		Operators: NewOperatorRepository(pool),
		Sessions:  NewAuthSessionRepository(pool),
	}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
