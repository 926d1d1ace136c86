package series

import (
	"context"
	"fmt"
	"time"

	"github.com/example/roombook/internal/booking"
	"github.com/example/roombook/internal/timeutil"
)

// MaterializeOptions controls a materialization pass.
type MaterializeOptions struct {
	// DryRun computes the candidate occurrences without allocating ids or
	// writing anything.
	DryRun bool
}

// MaterializeResult reports what a materialization pass did, or in dry-run
// mode would do. Candidates always lists the computed occurrences; only a
// live run fills InsertedIDs.
type MaterializeResult struct {
	InsertedCount int
	InsertedIDs   []int64
	Candidates    []booking.Reservation
	Failures      []WeekFailure
}

// Materializer persists the missing weeks of an analyzed series.
type Materializer struct {
	store Store
	now   func() time.Time
}

// NewMaterializer wires a materializer against the reservation store. When
// now is nil the wall clock is used.
func NewMaterializer(store Store, now func() time.Time) *Materializer {
	return &Materializer{store: store, now: nowOrDefault(now)}
}

// Materialize creates one reservation per missing week of the analysis.
// Present, conflicting, and past weeks are never touched, so repeating the
// call on an unchanged series inserts nothing the second time.
//
// Each week is processed independently: a failed id allocation or store
// write is recorded and the remaining weeks still proceed.
func (m *Materializer) Materialize(ctx context.Context, analysis Analysis, opts MaterializeOptions) (MaterializeResult, error) {
	var result MaterializeResult

	for _, week := range analysis.Missing() {
		occurrence := m.buildOccurrence(analysis, week)

		if opts.DryRun {
			result.Candidates = append(result.Candidates, occurrence)
			continue
		}

		id, err := m.store.NextSequence(ctx, SequenceName)
		if err != nil {
			result.Failures = append(result.Failures, WeekFailure{
				Index: week.Index,
				Date:  week.Date,
				Err:   fmt.Errorf("allocate id: %w", err),
			})
			continue
		}
		occurrence.ID = id

		if err := m.store.Insert(ctx, occurrence); err != nil {
			result.Failures = append(result.Failures, WeekFailure{
				Index: week.Index,
				Date:  week.Date,
				Err:   fmt.Errorf("insert occurrence: %w", err),
			})
			continue
		}

		result.Candidates = append(result.Candidates, occurrence)
		result.InsertedIDs = append(result.InsertedIDs, id)
		result.InsertedCount++
	}

	return result, nil
}

// RewriteSeriesTotal updates the stored total on every member of a series,
// changing what "the full set of expected weeks" means for the next
// analysis. It is the explicit first step of a series extension.
//
// Shrinking below an existing member index is undefined and rejected.
func (m *Materializer) RewriteSeriesTotal(ctx context.Context, seriesID string, newTotal int) (int64, error) {
	if newTotal < 1 {
		return 0, ErrInvalidWeekCount
	}

	members, err := m.store.FindBySeriesID(ctx, seriesID)
	if err != nil {
		return 0, fmt.Errorf("load series %s: %w", seriesID, err)
	}
	if len(members) == 0 {
		return 0, ErrNoMembers
	}

	for _, member := range members {
		if member.SeriesIndex > newTotal {
			return 0, ErrTotalShrink
		}
	}

	modified, err := m.store.UpdateSeriesTotal(ctx, seriesID, newTotal)
	if err != nil {
		return 0, fmt.Errorf("rewrite series total: %w", err)
	}
	return modified, nil
}

func (m *Materializer) buildOccurrence(analysis Analysis, week Week) booking.Reservation {
	now := m.now()
	return booking.Reservation{
		RoomID:      analysis.Anchor.RoomID,
		Title:       FormatTitle(analysis.Anchor.BaseTitle, week.Index, analysis.SeriesTotal),
		Date:        week.Date,
		Start:       timeutil.LocalTimeOf(week.Date, analysis.Anchor.Start),
		End:         timeutil.LocalTimeOf(week.Date, analysis.Anchor.End),
		SeriesID:    analysis.SeriesID,
		SeriesIndex: week.Index,
		SeriesTotal: analysis.SeriesTotal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
