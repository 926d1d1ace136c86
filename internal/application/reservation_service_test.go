package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/roombook/internal/booking"
	"github.com/example/roombook/internal/events"
	"github.com/example/roombook/internal/timeutil"
)

func fixedNow() time.Time {
	return time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T, store *memStore) (*ReservationService, *events.Broker) {
	t.Helper()
	broker := events.NewBroker(32)
	service := NewReservationService(ReservationServiceConfig{
		Reservations: store,
		Rooms:        store,
		Periods:      store,
		Counters:     store,
		Events:       broker,
		Now:          fixedNow,
	})
	return service, broker
}

func seededReservation(id int64, date, start, end string) booking.Reservation {
	return booking.Reservation{
		ID:     id,
		RoomID: 1,
		Title:  "Belegt",
		Date:   date,
		Start:  timeutil.ParseLocalTime(start),
		End:    timeutil.ParseLocalTime(end),
	}
}

func TestCreateReservationSingle(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.seedRoom(1, "Raum 101")
	service, broker := newTestService(t, store)
	eventCh, cancel := broker.Subscribe(context.Background())
	defer cancel()

	result, err := service.CreateReservation(context.Background(), CreateReservationParams{
		Input: ReservationInput{
			RoomID: 1,
			Title:  "Mathe 10b",
			Date:   "2024-03-04",
			Start:  "09:45",
			End:    "10:35",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Reservation)
	assert.Nil(t, result.Series)
	assert.Equal(t, int64(1), result.Reservation.ID)
	assert.Equal(t, "2024-03-04T09:45:00.000Z", result.Reservation.Start.Raw())

	event := <-eventCh
	assert.Equal(t, events.ReservationCreated, event.Type)
}

func TestCreateReservationISOWindow(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.seedRoom(1, "Raum 101")
	service, _ := newTestService(t, store)

	// A full local datetime supplies the date too.
	result, err := service.CreateReservation(context.Background(), CreateReservationParams{
		Input: ReservationInput{
			RoomID: 1,
			Title:  "Physik LK",
			Start:  "2024-03-05T11:30:00.000Z",
			End:    "2024-03-05T12:15:00.000Z",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", result.Reservation.Date)
}

func TestCreateReservationPeriodReference(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.seedRoom(1, "Raum 101")
	start, _ := timeutil.ClockTimeOf(9, 45)
	end, _ := timeutil.ClockTimeOf(10, 35)
	store.seedPeriod(booking.SchedulePeriod{ID: 3, Name: "3. Stunde", Start: start, End: end})
	service, _ := newTestService(t, store)

	periodID := int64(3)
	result, err := service.CreateReservation(context.Background(), CreateReservationParams{
		Input: ReservationInput{
			RoomID:   1,
			Title:    "Chemie",
			Date:     "2024-03-04",
			PeriodID: &periodID,
		},
	})
	require.NoError(t, err)
	hhmm, _ := result.Reservation.Start.HHMM()
	assert.Equal(t, "09:45", hhmm)
}

func TestCreateReservationConflictBlocked(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.seedRoom(1, "Raum 101")
	store.seedReservation(seededReservation(10, "2024-03-04", "09:00", "10:00"))
	service, _ := newTestService(t, store)

	_, err := service.CreateReservation(context.Background(), CreateReservationParams{
		Input: ReservationInput{RoomID: 1, Title: "Mathe", Date: "2024-03-04", Start: "09:30", End: "10:30"},
	})
	var cErr *ConflictError
	require.ErrorAs(t, err, &cErr)
	require.Len(t, cErr.Blocking, 1)
	assert.Equal(t, int64(10), cErr.Blocking[0].ID)
	assert.Equal(t, "09:00", cErr.Blocking[0].Start)
}

func TestCreateReservationBackToBackAllowed(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.seedRoom(1, "Raum 101")
	store.seedReservation(seededReservation(10, "2024-03-04", "09:00", "10:00"))
	service, _ := newTestService(t, store)

	_, err := service.CreateReservation(context.Background(), CreateReservationParams{
		Input: ReservationInput{RoomID: 1, Title: "Mathe", Date: "2024-03-04", Start: "10:00", End: "11:00"},
	})
	require.NoError(t, err)
}

func TestCreateReservationValidation(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.seedRoom(1, "Raum 101")
	service, _ := newTestService(t, store)

	cases := []struct {
		name  string
		input ReservationInput
		field string
	}{
		{"missing title", ReservationInput{RoomID: 1, Date: "2024-03-04", Start: "09:00", End: "10:00"}, "title"},
		{"unknown room", ReservationInput{RoomID: 99, Title: "x", Date: "2024-03-04", Start: "09:00", End: "10:00"}, "room_id"},
		{"missing date", ReservationInput{RoomID: 1, Title: "x", Start: "09:00", End: "10:00"}, "date"},
		{"inverted window", ReservationInput{RoomID: 1, Title: "x", Date: "2024-03-04", Start: "10:00", End: "09:00"}, "time"},
		{"garbage start", ReservationInput{RoomID: 1, Title: "x", Date: "2024-03-04", Start: "morgens", End: "10:00"}, "start"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.CreateReservation(context.Background(), CreateReservationParams{Input: tc.input})
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.FieldErrors, tc.field)
		})
	}
}

func TestCreateWeeklySeriesSkipsConflictingWeeks(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.seedRoom(1, "Raum 101")
	// Week 3 of the requested run is occupied.
	store.seedReservation(seededReservation(10, "2024-03-18", "09:00", "10:00"))
	service, _ := newTestService(t, store)

	result, err := service.CreateReservation(context.Background(), CreateReservationParams{
		Input:      ReservationInput{RoomID: 1, Title: "Mathe 10b", Date: "2024-03-04", Start: "09:30", End: "10:15"},
		Recurrence: &RecurrenceOptions{WeeklyCount: 5},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Series)

	report := result.Series
	assert.Equal(t, 5, report.SeriesTotal)
	require.Len(t, report.Created, 4)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, 3, report.Conflicts[0].SeriesIndex)
	assert.Equal(t, "2024-03-18", report.Conflicts[0].Date)

	// The stored occurrences keep the full requested total despite the gap.
	for _, created := range report.Created {
		assert.Equal(t, 5, created.SeriesTotal)
		assert.Equal(t, report.SeriesID, created.SeriesID)
	}
	indexes := []int{report.Created[0].SeriesIndex, report.Created[1].SeriesIndex, report.Created[2].SeriesIndex, report.Created[3].SeriesIndex}
	assert.Equal(t, []int{1, 2, 4, 5}, indexes)
}

func TestCreateWeeklySeriesDryRunWritesNothing(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.seedRoom(1, "Raum 101")
	service, _ := newTestService(t, store)

	result, err := service.CreateReservation(context.Background(), CreateReservationParams{
		Input:      ReservationInput{RoomID: 1, Title: "Mathe 10b", Date: "2024-03-04", Start: "09:30", End: "10:15"},
		Recurrence: &RecurrenceOptions{WeeklyCount: 3, DryRun: true},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Series)
	assert.True(t, result.Series.DryRun)
	assert.Len(t, result.Series.Created, 3)
	assert.Empty(t, store.reservations)
}

func TestCreateWeeklySeriesInvalidCount(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.seedRoom(1, "Raum 101")
	service, _ := newTestService(t, store)

	_, err := service.CreateReservation(context.Background(), CreateReservationParams{
		Input:      ReservationInput{RoomID: 1, Title: "Mathe", Date: "2024-03-04", Start: "09:00", End: "10:00"},
		Recurrence: &RecurrenceOptions{WeeklyCount: 0},
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "weekly_count")
}

func seedSeries(store *memStore, seriesID string, total int, dates ...string) {
	for i, date := range dates {
		member := seededReservation(int64(100+i), date, "09:00", "10:00")
		member.Title = fmt.Sprintf("Mathe 10b (Woche %d/%d)", i+1, total)
		member.SeriesID = seriesID
		member.SeriesIndex = i + 1
		member.SeriesTotal = total
		store.seedReservation(member)
	}
}

func TestUpdateReservationSeriesScope(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.seedRoom(1, "Raum 101")
	seedSeries(store, "series-a", 3, "2024-03-04", "2024-03-11", "2024-03-18")
	service, _ := newTestService(t, store)

	result, err := service.UpdateReservation(context.Background(), UpdateReservationParams{
		ReservationID: 100,
		Scope:         ScopeSeries,
		Input:         ReservationInput{RoomID: 1, Title: "Mathe 10c", Start: "11:00", End: "12:00"},
	})
	require.NoError(t, err)
	require.Len(t, result.Updated, 3)
	assert.Empty(t, result.Conflicts)

	for _, updated := range result.Updated {
		hhmm, _ := updated.Start.HHMM()
		assert.Equal(t, "11:00", hhmm)
	}
	first, _ := store.GetReservation(context.Background(), 100)
	assert.Equal(t, "Mathe 10c (Woche 1/3)", first.Title)
}

func TestUpdateReservationSeriesScopeConflictIsolation(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.seedRoom(1, "Raum 101")
	seedSeries(store, "series-a", 3, "2024-03-04", "2024-03-11", "2024-03-18")
	// The new 11:00 slot is taken on the second week.
	store.seedReservation(seededReservation(50, "2024-03-11", "11:00", "12:00"))
	service, _ := newTestService(t, store)

	result, err := service.UpdateReservation(context.Background(), UpdateReservationParams{
		ReservationID: 100,
		Scope:         ScopeSeries,
		Input:         ReservationInput{RoomID: 1, Title: "Mathe 10b", Start: "11:00", End: "12:00"},
	})
	require.NoError(t, err)
	assert.Len(t, result.Updated, 2)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, 2, result.Conflicts[0].SeriesIndex)

	// The blocked member keeps its original slot.
	blocked, _ := store.GetReservation(context.Background(), 101)
	hhmm, _ := blocked.Start.HHMM()
	assert.Equal(t, "09:00", hhmm)
}

func TestUpdateReservationSeriesScopeUndatedMember(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.seedRoom(1, "Raum 101")
	seedSeries(store, "series-a", 3, "2024-03-04", "2024-03-11", "2024-03-18")
	// Corrupt the second member: no date field and bare clock times.
	damaged, _ := store.GetReservation(context.Background(), 101)
	damaged.Date = ""
	damaged.Start = timeutil.ParseLocalTime("09:00")
	damaged.End = timeutil.ParseLocalTime("10:00")
	store.seedReservation(damaged)
	service, _ := newTestService(t, store)

	result, err := service.UpdateReservation(context.Background(), UpdateReservationParams{
		ReservationID: 100,
		Scope:         ScopeSeries,
		Input:         ReservationInput{RoomID: 1, Title: "Mathe 10b", Start: "11:00", End: "12:00"},
	})
	require.NoError(t, err)
	assert.Len(t, result.Updated, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 2, result.Failures[0].Index)

	// The damaged member is left untouched.
	skipped, _ := store.GetReservation(context.Background(), 101)
	hhmm, _ := skipped.Start.HHMM()
	assert.Equal(t, "09:00", hhmm)
}

func TestUpdateReservationFutureScope(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.seedRoom(1, "Raum 101")
	seedSeries(store, "series-a", 3, "2024-03-04", "2024-03-11", "2024-03-18")
	service, _ := newTestService(t, store)

	result, err := service.UpdateReservation(context.Background(), UpdateReservationParams{
		ReservationID: 101,
		Scope:         ScopeFuture,
		Input:         ReservationInput{RoomID: 1, Title: "Mathe 10b", Start: "14:00", End: "15:00"},
	})
	require.NoError(t, err)
	assert.Len(t, result.Updated, 2)

	untouched, _ := store.GetReservation(context.Background(), 100)
	hhmm, _ := untouched.Start.HHMM()
	assert.Equal(t, "09:00", hhmm)
}

func TestUpdateReservationScopeRequiresSeries(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.seedRoom(1, "Raum 101")
	store.seedReservation(seededReservation(10, "2024-03-04", "09:00", "10:00"))
	service, _ := newTestService(t, store)

	_, err := service.UpdateReservation(context.Background(), UpdateReservationParams{
		ReservationID: 10,
		Scope:         ScopeSeries,
		Input:         ReservationInput{RoomID: 1, Title: "x", Start: "09:00", End: "10:00"},
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "scope")
}

func TestUpdateReservationNotFound(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	service, _ := newTestService(t, store)

	_, err := service.UpdateReservation(context.Background(), UpdateReservationParams{ReservationID: 404})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteReservationPasswordGate(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.seedRoom(1, "Raum 101")
	store.seedReservation(seededReservation(10, "2024-03-04", "09:00", "10:00"))

	hash, err := CreatePasswordHash("geheim", DefaultArgon2idParams)
	require.NoError(t, err)

	broker := events.NewBroker(8)
	service := NewReservationService(ReservationServiceConfig{
		Reservations:       store,
		Rooms:              store,
		Periods:            store,
		Counters:           store,
		Events:             broker,
		DeletePasswordHash: hash,
		Now:                fixedNow,
	})

	_, err = service.DeleteReservation(context.Background(), DeleteReservationParams{ReservationID: 10, Password: "falsch"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	result, err := service.DeleteReservation(context.Background(), DeleteReservationParams{ReservationID: 10, Password: "geheim"})
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, result.DeletedIDs)
}

func TestDeleteReservationFutureScope(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.seedRoom(1, "Raum 101")
	seedSeries(store, "series-a", 3, "2024-03-04", "2024-03-11", "2024-03-18")
	service, _ := newTestService(t, store)

	result, err := service.DeleteReservation(context.Background(), DeleteReservationParams{ReservationID: 101, Scope: ScopeFuture})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{101, 102}, result.DeletedIDs)

	_, err = store.GetReservation(context.Background(), 100)
	assert.NoError(t, err)
}

func TestDeleteReservationFailureIsolation(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.seedRoom(1, "Raum 101")
	seedSeries(store, "series-a", 3, "2024-03-04", "2024-03-11", "2024-03-18")
	store.failDeleteIDs[101] = errors.New("disk full")
	service, _ := newTestService(t, store)

	result, err := service.DeleteReservation(context.Background(), DeleteReservationParams{ReservationID: 100, Scope: ScopeSeries})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{100, 102}, result.DeletedIDs)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 2, result.Failures[0].Index)
}

func TestListReservationsOrdering(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.seedReservation(seededReservation(1, "2024-03-11", "09:00", "10:00"))
	store.seedReservation(seededReservation(2, "2024-03-04", "11:00", "12:00"))
	store.seedReservation(seededReservation(3, "2024-03-04", "08:00", "09:00"))
	service, _ := newTestService(t, store)

	listed, err := service.ListReservations(context.Background(), ListReservationsParams{})
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, int64(3), listed[0].ID)
	assert.Equal(t, int64(2), listed[1].ID)
	assert.Equal(t, int64(1), listed[2].ID)
}
