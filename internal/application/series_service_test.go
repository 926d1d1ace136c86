package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/roombook/internal/events"
	"github.com/example/roombook/internal/series"
)

func newSeriesTestService(store *memStore) (*SeriesService, *events.Broker) {
	broker := events.NewBroker(8)
	return NewSeriesService(store, store, broker, fixedNow, nil), broker
}

func TestInspectSeriesClassifiesWeeks(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	// Weeks 1 and 3 of a 4 week series exist; week 2 is free, week 4 is
	// blocked by an unrelated booking.
	seedSeries(store, "series-a", 4, "2024-03-04")
	member := seededReservation(102, "2024-03-18", "09:00", "10:00")
	member.SeriesID = "series-a"
	member.SeriesIndex = 3
	member.SeriesTotal = 4
	store.seedReservation(member)
	store.seedReservation(seededReservation(60, "2024-03-25", "09:30", "10:30"))

	service, _ := newSeriesTestService(store)

	analysis, err := service.InspectSeries(context.Background(), "series-a", SeriesRepairOptions{})
	require.NoError(t, err)
	require.Len(t, analysis.Weeks, 4)
	assert.Equal(t, series.WeekPresent, analysis.Weeks[0].State)
	assert.Equal(t, series.WeekMissing, analysis.Weeks[1].State)
	assert.Equal(t, series.WeekPresent, analysis.Weeks[2].State)
	assert.Equal(t, series.WeekConflict, analysis.Weeks[3].State)
}

func TestInspectSeriesUnknown(t *testing.T) {
	t.Parallel()
	service, _ := newSeriesTestService(newMemStore())

	_, err := service.InspectSeries(context.Background(), "missing", SeriesRepairOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepairSeriesFillsMissingWeeks(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	seedSeries(store, "series-a", 3, "2024-03-04", "2024-03-11")
	service, broker := newSeriesTestService(store)
	eventCh, cancel := broker.Subscribe(context.Background())
	defer cancel()

	report, err := service.RepairSeries(context.Background(), "series-a", SeriesRepairOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Result.InsertedCount)
	require.Len(t, report.Result.Candidates, 1)
	assert.Equal(t, "2024-03-18", report.Result.Candidates[0].Date)
	assert.Equal(t, "Mathe 10b (Woche 3/3)", report.Result.Candidates[0].Title)

	event := <-eventCh
	assert.Equal(t, events.SeriesRepaired, event.Type)

	// A second pass finds nothing left to do.
	again, err := service.RepairSeries(context.Background(), "series-a", SeriesRepairOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Result.InsertedCount)
}

func TestRepairSeriesDryRun(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	seedSeries(store, "series-a", 3, "2024-03-04", "2024-03-11")
	service, _ := newSeriesTestService(store)

	report, err := service.RepairSeries(context.Background(), "series-a", SeriesRepairOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Result.InsertedCount)
	assert.Len(t, report.Result.Candidates, 1)

	members, _ := store.FindBySeriesID(context.Background(), "series-a")
	assert.Len(t, members, 2)
}

func TestExtendSeries(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	seedSeries(store, "series-a", 3, "2024-03-04", "2024-03-11", "2024-03-18")
	service, _ := newSeriesTestService(store)

	report, err := service.ExtendSeries(context.Background(), "series-a", 5, SeriesRepairOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Result.InsertedCount)

	members, _ := store.FindBySeriesID(context.Background(), "series-a")
	require.Len(t, members, 5)
	for _, member := range members {
		assert.Equal(t, 5, member.SeriesTotal)
	}
}

func TestExtendSeriesRejectsShrink(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	seedSeries(store, "series-a", 3, "2024-03-04", "2024-03-11", "2024-03-18")
	service, _ := newSeriesTestService(store)

	_, err := service.ExtendSeries(context.Background(), "series-a", 2, SeriesRepairOptions{})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "total")
}

func TestExtendSeriesDryRunKeepsTotals(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	seedSeries(store, "series-a", 3, "2024-03-04", "2024-03-11", "2024-03-18")
	service, _ := newSeriesTestService(store)

	report, err := service.ExtendSeries(context.Background(), "series-a", 5, SeriesRepairOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Result.InsertedCount)
	assert.Len(t, report.Result.Candidates, 2)

	members, _ := store.FindBySeriesID(context.Background(), "series-a")
	for _, member := range members {
		assert.Equal(t, 3, member.SeriesTotal)
	}
}
