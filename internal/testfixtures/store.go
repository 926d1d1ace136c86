package testfixtures

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/example/roombook/internal/booking"
	"github.com/example/roombook/internal/timeutil"
)

// MemoryStore is an in-memory reservation store satisfying the contracts of
// the series engine and the application services. Failures can be injected
// per operation to exercise partial-batch behavior.
type MemoryStore struct {
	mu           sync.Mutex
	reservations map[int64]booking.Reservation
	sequences    map[string]int64

	// FailInsertDates makes Insert fail for reservations on these dates.
	FailInsertDates map[string]bool
	// FailFindDates makes FindByRoomAndDate fail for these dates.
	FailFindDates map[string]bool
	// FailNextSequenceAfter, when positive, fails every NextSequence call
	// after that many successes.
	FailNextSequenceAfter int

	sequenceCalls int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reservations:    make(map[int64]booking.Reservation),
		sequences:       make(map[string]int64),
		FailInsertDates: make(map[string]bool),
		FailFindDates:   make(map[string]bool),
	}
}

// Seed inserts reservations directly, bypassing failure injection. The
// reservation counter advances past every seeded id, matching a store whose
// sequence already covers the existing rows.
func (s *MemoryStore) Seed(reservations ...booking.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reservation := range reservations {
		s.reservations[reservation.ID] = reservation
		if reservation.ID > s.sequences["reservations"] {
			s.sequences["reservations"] = reservation.ID
		}
	}
}

// All returns every stored reservation ordered by id.
func (s *MemoryStore) All() []booking.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]booking.Reservation, 0, len(s.reservations))
	for _, reservation := range s.reservations {
		out = append(out, reservation)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a stored reservation by id.
func (s *MemoryStore) Get(id int64) (booking.Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reservation, ok := s.reservations[id]
	return reservation, ok
}

// FindByRoomAndDate returns the reservations for one room on one date.
func (s *MemoryStore) FindByRoomAndDate(ctx context.Context, roomID int64, date string) ([]booking.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailFindDates[date] {
		return nil, fmt.Errorf("store read failed for %s", date)
	}
	var out []booking.Reservation
	for _, reservation := range s.reservations {
		if reservation.RoomID != roomID {
			continue
		}
		if resolved, ok := reservation.ResolvedDate(); ok && resolved == date {
			out = append(out, reservation)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindBySeriesID returns the members of a series ordered by series index.
func (s *MemoryStore) FindBySeriesID(ctx context.Context, seriesID string) ([]booking.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []booking.Reservation
	for _, reservation := range s.reservations {
		if reservation.SeriesID == seriesID {
			out = append(out, reservation)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeriesIndex < out[j].SeriesIndex })
	return out, nil
}

// Insert stores a reservation.
func (s *MemoryStore) Insert(ctx context.Context, reservation booking.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if date, ok := reservation.ResolvedDate(); ok && s.FailInsertDates[date] {
		return fmt.Errorf("store write failed for %s", date)
	}
	s.reservations[reservation.ID] = reservation
	return nil
}

// UpdateSeriesTotal rewrites the series total across all members.
func (s *MemoryStore) UpdateSeriesTotal(ctx context.Context, seriesID string, total int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var modified int64
	for id, reservation := range s.reservations {
		if reservation.SeriesID == seriesID {
			reservation.SeriesTotal = total
			s.reservations[id] = reservation
			modified++
		}
	}
	return modified, nil
}

// NextSequence allocates the next monotonic id for the named counter.
func (s *MemoryStore) NextSequence(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNextSequenceAfter > 0 && s.sequenceCalls >= s.FailNextSequenceAfter {
		return 0, fmt.Errorf("sequence %s unavailable", name)
	}
	s.sequenceCalls++
	s.sequences[name]++
	return s.sequences[name], nil
}

// ReservationFixture builds a reservation with sensible defaults for tests.
type ReservationFixture struct {
	ID          int64
	RoomID      int64
	Title       string
	Date        string
	Start       string
	End         string
	SeriesID    string
	SeriesIndex int
	SeriesTotal int
}

// Build turns the fixture into a domain reservation.
func (f ReservationFixture) Build() booking.Reservation {
	if f.RoomID == 0 {
		f.RoomID = 1
	}
	if f.Date == "" {
		f.Date = "2024-03-04"
	}
	if f.Start == "" {
		f.Start = "09:00"
	}
	if f.End == "" {
		f.End = "10:00"
	}
	if f.Title == "" {
		f.Title = "Reservierung"
	}
	return booking.Reservation{
		ID:          f.ID,
		RoomID:      f.RoomID,
		Title:       f.Title,
		Date:        f.Date,
		Start:       timeutil.ParseLocalTime(f.Start),
		End:         timeutil.ParseLocalTime(f.End),
		SeriesID:    f.SeriesID,
		SeriesIndex: f.SeriesIndex,
		SeriesTotal: f.SeriesTotal,
		CreatedAt:   ReferenceTime(),
		UpdatedAt:   ReferenceTime(),
	}
}
