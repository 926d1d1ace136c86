package series

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/roombook/internal/booking"
	"github.com/example/roombook/internal/timeutil"
)

// Mode selects which expected weeks an analysis inspects.
type Mode string

const (
	// ModeAll inspects every week of the series.
	ModeAll Mode = "all"
	// ModeFuture marks weeks before today as past and skips their slot
	// checks.
	ModeFuture Mode = "future"
)

// AnalyzeOptions tunes a series analysis.
type AnalyzeOptions struct {
	Mode Mode
	// AssumedTotal is an extra signal for the intended week count, used
	// when the caller knows the series is meant to be longer than its
	// stored metadata claims.
	AssumedTotal int
}

// Analyzer derives the canonical shape of a weekly series from its surviving
// members and classifies every expected week.
type Analyzer struct {
	store Store
	now   func() time.Time
}

// NewAnalyzer wires an analyzer against the reservation store. When now is
// nil the wall clock is used.
func NewAnalyzer(store Store, now func() time.Time) *Analyzer {
	return &Analyzer{store: store, now: nowOrDefault(now)}
}

// Analyze inspects the members of one series and reports, for each expected
// week from the anchor, whether its occurrence is present, missing, blocked
// by a conflicting reservation, or in the past.
//
// The intended week count is the maximum of every available signal: the
// highest stored series index, the highest stored series total, any week
// marker parsed from member titles, and the caller's assumed total. Taking
// the maximum tolerates partially migrated data where members disagree.
func (a *Analyzer) Analyze(ctx context.Context, members []booking.Reservation, opts AnalyzeOptions) (Analysis, error) {
	if len(members) == 0 {
		return Analysis{}, ErrNoMembers
	}
	if opts.Mode == "" {
		opts.Mode = ModeAll
	}

	anchorMember := selectAnchor(members)
	anchor, err := buildAnchor(anchorMember)
	if err != nil {
		return Analysis{}, err
	}

	analysis := Analysis{
		SeriesID:    resolveSeriesID(members),
		Anchor:      anchor,
		SeriesTotal: resolveSeriesTotal(members, opts.AssumedTotal),
	}

	today := timeutil.FormatDate(a.now())

	for i := 1; i <= analysis.SeriesTotal; i++ {
		expectedDate, ok := timeutil.AddDays(anchor.Date, (i-1)*7)
		if !ok {
			return Analysis{}, ErrAnchorDate
		}
		week := Week{Index: i, Date: expectedDate}

		if opts.Mode == ModeFuture && timeutil.DateBefore(expectedDate, today) {
			week.State = WeekPast
			analysis.Weeks = append(analysis.Weeks, week)
			continue
		}

		onDate, err := a.store.FindByRoomAndDate(ctx, anchor.RoomID, expectedDate)
		if err != nil {
			return Analysis{}, fmt.Errorf("load reservations for week %d (%s): %w", i, expectedDate, err)
		}

		if existing := findPresent(onDate, analysis, i); existing != nil {
			week.State = WeekPresent
			week.Existing = existing
			analysis.Weeks = append(analysis.Weeks, week)
			continue
		}

		if blocking := booking.FindConflicts(onDate, anchor.Start.Minutes(), anchor.End.Minutes(), 0); len(blocking) > 0 {
			week.State = WeekConflict
			conflict := blocking[0]
			week.Conflict = &conflict
			analysis.Weeks = append(analysis.Weeks, week)
			continue
		}

		week.State = WeekMissing
		analysis.Weeks = append(analysis.Weeks, week)
	}

	return analysis, nil
}

// AnalyzeByID loads the members of a stored series and analyzes them.
func (a *Analyzer) AnalyzeByID(ctx context.Context, seriesID string, opts AnalyzeOptions) (Analysis, error) {
	members, err := a.store.FindBySeriesID(ctx, seriesID)
	if err != nil {
		return Analysis{}, fmt.Errorf("load series %s: %w", seriesID, err)
	}
	if len(members) == 0 {
		return Analysis{}, ErrNoMembers
	}
	return a.Analyze(ctx, members, opts)
}

// selectAnchor prefers the member stored with series index 1. When that
// occurrence was deleted or never written, the earliest-dated member stands
// in for it.
func selectAnchor(members []booking.Reservation) booking.Reservation {
	for _, member := range members {
		if member.SeriesIndex == 1 {
			return member
		}
	}

	anchor := members[0]
	anchorDate, _ := anchor.ResolvedDate()
	for _, member := range members[1:] {
		date, ok := member.ResolvedDate()
		if !ok {
			continue
		}
		if anchorDate == "" || timeutil.DateBefore(date, anchorDate) {
			anchor = member
			anchorDate = date
		}
	}
	return anchor
}

func buildAnchor(member booking.Reservation) (Anchor, error) {
	date, ok := member.ResolvedDate()
	if !ok {
		return Anchor{}, ErrAnchorDate
	}
	start, sok := member.Start.Clock()
	end, eok := member.End.Clock()
	if !sok || !eok {
		return Anchor{}, ErrAnchorWindow
	}
	return Anchor{
		RoomID:    member.RoomID,
		Date:      date,
		Start:     start,
		End:       end,
		BaseTitle: BaseTitle(member.Title),
	}, nil
}

func resolveSeriesID(members []booking.Reservation) string {
	for _, member := range members {
		if member.SeriesID != "" {
			return member.SeriesID
		}
	}
	// Legacy series carry no identifier at all; mint one so repaired weeks
	// can share it. Presence matching still works for the old members via
	// their title markers.
	return uuid.NewString()
}

func resolveSeriesTotal(members []booking.Reservation, assumedTotal int) int {
	total := assumedTotal
	for _, member := range members {
		if member.SeriesIndex > total {
			total = member.SeriesIndex
		}
		if member.SeriesTotal > total {
			total = member.SeriesTotal
		}
		if _, index, titleTotal, ok := ParseTitleSuffix(member.Title); ok {
			if titleTotal > total {
				total = titleTotal
			}
			if index > total {
				total = index
			}
		}
	}
	if total < 1 {
		total = 1
	}
	return total
}

// findPresent reports the reservation occupying week i's exact slot, if any.
// A slot counts as present only when the window matches the anchor to the
// minute and the reservation is identifiably part of this series, either by
// shared series id or, for legacy rows, by its title marker.
func findPresent(onDate []booking.Reservation, analysis Analysis, weekIndex int) *booking.Reservation {
	for _, candidate := range onDate {
		startMin, endMin, ok := candidate.Window()
		if !ok {
			continue
		}
		if startMin != analysis.Anchor.Start.Minutes() || endMin != analysis.Anchor.End.Minutes() {
			continue
		}
		if candidate.SeriesID == analysis.SeriesID || hasWeekSuffix(candidate.Title, weekIndex, analysis.SeriesTotal) {
			found := candidate
			return &found
		}
	}
	return nil
}
