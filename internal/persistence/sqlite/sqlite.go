// Package sqlite implements the persistence contracts on SQLite using the
// pure-Go modernc.org driver.
package sqlite

import (
	"context"
)

// Storage bundles the SQLite-backed repositories behind one handle.
type Storage struct {
	pool         *ConnectionPool
	Reservations *ReservationRepository
	Rooms        *RoomRepository
	Periods      *PeriodRepository
	Counters     *CounterRepository
}

// Open connects to the database identified by the DSN.
func Open(dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}
	return &Storage{
		pool:         pool,
		Reservations: NewReservationRepository(pool),
		Rooms:        NewRoomRepository(pool),
		Periods:      NewPeriodRepository(pool),
		Counters:     NewCounterRepository(pool),
	}, nil
}

// Ping verifies the connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}
