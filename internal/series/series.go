// Package series implements the weekly-recurrence engine: analysis of an
// existing series against its expected week grid, materialization of missing
// occurrences, and pre-flight planning of new series.
//
// All timestamps are local wall-clock values; dates advance in exact 7-day
// steps from a single anchor occurrence.
package series

import (
	"context"
	"errors"
	"time"

	"github.com/example/roombook/internal/booking"
	"github.com/example/roombook/internal/timeutil"
)

// Store is the reservation store contract the engine depends on. Reads and
// writes are independent operations against shared external storage; the
// engine holds no state across calls.
type Store interface {
	FindByRoomAndDate(ctx context.Context, roomID int64, date string) ([]booking.Reservation, error)
	FindBySeriesID(ctx context.Context, seriesID string) ([]booking.Reservation, error)
	Insert(ctx context.Context, reservation booking.Reservation) error
	UpdateSeriesTotal(ctx context.Context, seriesID string, total int) (int64, error)
	NextSequence(ctx context.Context, name string) (int64, error)
}

// SequenceName is the counter used for reservation id allocation.
const SequenceName = "reservations"

var (
	// ErrNoMembers indicates a series analysis was requested for an empty
	// member set.
	ErrNoMembers = errors.New("series: no members to analyze")
	// ErrAnchorWindow indicates the anchor occurrence's time window cannot
	// be normalized.
	ErrAnchorWindow = errors.New("series: anchor time window is not parseable")
	// ErrAnchorDate indicates the anchor occurrence carries no usable date.
	ErrAnchorDate = errors.New("series: anchor date is not parseable")
	// ErrInvalidWeekCount indicates a requested week count below one.
	ErrInvalidWeekCount = errors.New("series: week count must be at least 1")
	// ErrInvalidWindow indicates a candidate window that does not start
	// before it ends.
	ErrInvalidWindow = errors.New("series: start must be before end")
	// ErrTotalShrink indicates an attempt to rewrite a series total below
	// an existing member index. Only growth is defined.
	ErrTotalShrink = errors.New("series: total cannot shrink below existing member indexes")
)

// WeekState classifies one expected week of a series.
type WeekState string

const (
	// WeekPresent marks a week whose occurrence already exists.
	WeekPresent WeekState = "present"
	// WeekMissing marks a week with no occurrence and a free slot.
	WeekMissing WeekState = "missing"
	// WeekConflict marks a week whose slot is blocked by an unrelated
	// reservation.
	WeekConflict WeekState = "conflict"
	// WeekPast marks a week skipped because its date precedes today in
	// future-only mode.
	WeekPast WeekState = "past"
)

// Week is the status of a single expected occurrence.
type Week struct {
	Index    int
	Date     string
	State    WeekState
	Conflict *booking.Reservation
	Existing *booking.Reservation
}

// Anchor is the canonical reference occurrence of a series: the room, time
// window, and base title all other weeks derive from.
type Anchor struct {
	RoomID    int64
	Date      string
	Start     timeutil.ClockTime
	End       timeutil.ClockTime
	BaseTitle string
}

// Analysis is a complete week-by-week report for a series. It is produced
// without mutating anything and feeds both dry-run reporting and
// materialization.
type Analysis struct {
	SeriesID    string
	Anchor      Anchor
	SeriesTotal int
	Weeks       []Week
}

// Missing returns the weeks the next materialization pass would create.
func (a Analysis) Missing() []Week {
	var missing []Week
	for _, week := range a.Weeks {
		if week.State == WeekMissing {
			missing = append(missing, week)
		}
	}
	return missing
}

// Counts summarises week states for user-facing batch reports.
func (a Analysis) Counts() (present, missing, conflict, past int) {
	for _, week := range a.Weeks {
		switch week.State {
		case WeekPresent:
			present++
		case WeekMissing:
			missing++
		case WeekConflict:
			conflict++
		case WeekPast:
			past++
		}
	}
	return present, missing, conflict, past
}

// WeekFailure records a per-week hard failure (id allocation or store write)
// inside a batch operation. One week's failure never aborts the others.
type WeekFailure struct {
	Index int
	Date  string
	Err   error
}

func nowOrDefault(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
