package application

import (
	"context"

	"github.com/example/roombook/internal/booking"
	"github.com/example/roombook/internal/persistence"
	"github.com/example/roombook/internal/series"
)

// seriesStore adapts the persistence repositories to the store contract the
// series engine depends on.
type seriesStore struct {
	reservations persistence.ReservationRepository
	counters     persistence.CounterRepository
}

// NewSeriesStore combines the reservation and counter repositories into a
// series engine store.
func NewSeriesStore(reservations persistence.ReservationRepository, counters persistence.CounterRepository) series.Store {
	return &seriesStore{reservations: reservations, counters: counters}
}

func (s *seriesStore) FindByRoomAndDate(ctx context.Context, roomID int64, date string) ([]booking.Reservation, error) {
	return s.reservations.FindByRoomAndDate(ctx, roomID, date)
}

func (s *seriesStore) FindBySeriesID(ctx context.Context, seriesID string) ([]booking.Reservation, error) {
	return s.reservations.FindBySeriesID(ctx, seriesID)
}

func (s *seriesStore) Insert(ctx context.Context, reservation booking.Reservation) error {
	return s.reservations.CreateReservation(ctx, reservation)
}

func (s *seriesStore) UpdateSeriesTotal(ctx context.Context, seriesID string, total int) (int64, error) {
	return s.reservations.UpdateSeriesTotal(ctx, seriesID, total)
}

func (s *seriesStore) NextSequence(ctx context.Context, name string) (int64, error) {
	return s.counters.NextSequence(ctx, name)
}
