package application

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/example/roombook/internal/booking"
	"github.com/example/roombook/internal/persistence"
	"github.com/example/roombook/internal/timeutil"
)

// memStore backs every persistence interface the services need with maps,
// plus per-operation failure injection.
type memStore struct {
	mu           sync.Mutex
	reservations map[int64]booking.Reservation
	rooms        map[int64]booking.Room
	periods      map[int64]booking.SchedulePeriod
	sequences    map[string]int64

	failFindDates map[string]error
	failInsertFor map[string]error
	failDeleteIDs map[int64]error
}

func newMemStore() *memStore {
	return &memStore{
		reservations:  make(map[int64]booking.Reservation),
		rooms:         make(map[int64]booking.Room),
		periods:       make(map[int64]booking.SchedulePeriod),
		sequences:     make(map[string]int64),
		failFindDates: make(map[string]error),
		failInsertFor: make(map[string]error),
		failDeleteIDs: make(map[int64]error),
	}
}

func (m *memStore) seedRoom(id int64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[id] = booking.Room{ID: id, Name: name}
}

func (m *memStore) seedPeriod(period booking.SchedulePeriod) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periods[period.ID] = period
}

func (m *memStore) seedReservation(reservation booking.Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations[reservation.ID] = reservation
	if reservation.ID > m.sequences["reservations"] {
		m.sequences["reservations"] = reservation.ID
	}
}

func (m *memStore) CreateReservation(ctx context.Context, reservation booking.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failInsertFor[reservation.CalendarDate()]; err != nil {
		return err
	}
	if _, exists := m.reservations[reservation.ID]; exists {
		return persistence.ErrConstraintViolation
	}
	m.reservations[reservation.ID] = reservation
	return nil
}

func (m *memStore) GetReservation(ctx context.Context, id int64) (booking.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reservation, ok := m.reservations[id]
	if !ok {
		return booking.Reservation{}, persistence.ErrNotFound
	}
	return reservation, nil
}

func (m *memStore) UpdateReservation(ctx context.Context, reservation booking.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[reservation.ID]; !ok {
		return persistence.ErrNotFound
	}
	m.reservations[reservation.ID] = reservation
	return nil
}

func (m *memStore) DeleteReservation(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failDeleteIDs[id]; err != nil {
		return err
	}
	if _, ok := m.reservations[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.reservations, id)
	return nil
}

func (m *memStore) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]booking.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []booking.Reservation
	for _, reservation := range m.reservations {
		if filter.RoomID != nil && reservation.RoomID != *filter.RoomID {
			continue
		}
		if filter.SeriesID != "" && reservation.SeriesID != filter.SeriesID {
			continue
		}
		date := reservation.CalendarDate()
		if filter.DateFrom != "" && timeutil.DateBefore(date, filter.DateFrom) {
			continue
		}
		if filter.DateTo != "" && timeutil.DateBefore(filter.DateTo, date) {
			continue
		}
		out = append(out, reservation)
	}
	return out, nil
}

func (m *memStore) FindByRoomAndDate(ctx context.Context, roomID int64, date string) ([]booking.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFindDates[date]; err != nil {
		return nil, err
	}
	var out []booking.Reservation
	for _, reservation := range m.reservations {
		if reservation.RoomID == roomID && reservation.CalendarDate() == date {
			out = append(out, reservation)
		}
	}
	return out, nil
}

func (m *memStore) FindBySeriesID(ctx context.Context, seriesID string) ([]booking.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []booking.Reservation
	for _, reservation := range m.reservations {
		if reservation.SeriesID == seriesID {
			out = append(out, reservation)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeriesIndex < out[j].SeriesIndex })
	return out, nil
}

func (m *memStore) UpdateSeriesTotal(ctx context.Context, seriesID string, total int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var modified int64
	for id, reservation := range m.reservations {
		if reservation.SeriesID != seriesID {
			continue
		}
		reservation.SeriesTotal = total
		m.reservations[id] = reservation
		modified++
	}
	return modified, nil
}

func (m *memStore) NextSequence(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences[name]++
	return m.sequences[name], nil
}

func (m *memStore) CreateRoom(ctx context.Context, room booking.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
	return nil
}

func (m *memStore) UpdateRoom(ctx context.Context, room booking.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.ID]; !ok {
		return persistence.ErrNotFound
	}
	m.rooms[room.ID] = room
	return nil
}

func (m *memStore) GetRoom(ctx context.Context, id int64) (booking.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return booking.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (m *memStore) ListRooms(ctx context.Context) ([]booking.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []booking.Room
	for _, room := range m.rooms {
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) DeleteRoom(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return persistence.ErrNotFound
	}
	for _, reservation := range m.reservations {
		if reservation.RoomID == id {
			return fmt.Errorf("room %d: %w", id, persistence.ErrConstraintViolation)
		}
	}
	delete(m.rooms, id)
	return nil
}

func (m *memStore) CreatePeriod(ctx context.Context, period booking.SchedulePeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periods[period.ID] = period
	return nil
}

func (m *memStore) UpdatePeriod(ctx context.Context, period booking.SchedulePeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.periods[period.ID]; !ok {
		return persistence.ErrNotFound
	}
	m.periods[period.ID] = period
	return nil
}

func (m *memStore) GetPeriod(ctx context.Context, id int64) (booking.SchedulePeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	period, ok := m.periods[id]
	if !ok {
		return booking.SchedulePeriod{}, persistence.ErrNotFound
	}
	return period, nil
}

func (m *memStore) ListPeriods(ctx context.Context) ([]booking.SchedulePeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []booking.SchedulePeriod
	for _, period := range m.periods {
		out = append(out, period)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (m *memStore) DeletePeriod(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.periods[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.periods, id)
	return nil
}
