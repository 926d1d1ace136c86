// Package persistence defines the storage contracts the application layer
// depends on. Implementations live in subpackages.
package persistence

import (
	"context"

	"github.com/example/roombook/internal/booking"
)

// ReservationFilter narrows reservation listings.
type ReservationFilter struct {
	RoomID   *int64
	DateFrom string
	DateTo   string
	SeriesID string
}

// ReservationRepository stores reservations and the series metadata written
// across them.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation booking.Reservation) error
	GetReservation(ctx context.Context, id int64) (booking.Reservation, error)
	UpdateReservation(ctx context.Context, reservation booking.Reservation) error
	DeleteReservation(ctx context.Context, id int64) error
	ListReservations(ctx context.Context, filter ReservationFilter) ([]booking.Reservation, error)
	FindByRoomAndDate(ctx context.Context, roomID int64, date string) ([]booking.Reservation, error)
	FindBySeriesID(ctx context.Context, seriesID string) ([]booking.Reservation, error)
	UpdateSeriesTotal(ctx context.Context, seriesID string, total int) (int64, error)
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room booking.Room) error
	UpdateRoom(ctx context.Context, room booking.Room) error
	GetRoom(ctx context.Context, id int64) (booking.Room, error)
	ListRooms(ctx context.Context) ([]booking.Room, error)
	DeleteRoom(ctx context.Context, id int64) error
}

// PeriodRepository stores the named daily period schedule.
type PeriodRepository interface {
	CreatePeriod(ctx context.Context, period booking.SchedulePeriod) error
	UpdatePeriod(ctx context.Context, period booking.SchedulePeriod) error
	GetPeriod(ctx context.Context, id int64) (booking.SchedulePeriod, error)
	ListPeriods(ctx context.Context) ([]booking.SchedulePeriod, error)
	DeletePeriod(ctx context.Context, id int64) error
}

// CounterRepository allocates monotonic identifiers. NextSequence is atomic
// with respect to concurrent callers.
type CounterRepository interface {
	NextSequence(ctx context.Context, name string) (int64, error)
}
