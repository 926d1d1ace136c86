package application

import (
	"github.com/example/roombook/internal/booking"
	"github.com/example/roombook/internal/series"
)

// EditScope selects which occurrences of a series an update or delete
// touches.
type EditScope string

const (
	// ScopeSingle affects only the addressed reservation.
	ScopeSingle EditScope = "single"
	// ScopeSeries affects every member of the reservation's series.
	ScopeSeries EditScope = "series"
	// ScopeFuture affects the addressed reservation and every later
	// member of its series.
	ScopeFuture EditScope = "future"
)

// ReservationInput carries caller-supplied reservation fields. The time
// window is given either as a schedule period reference or as explicit
// start and end values, which may be "HH:MM" strings or full local
// datetimes.
type ReservationInput struct {
	RoomID      int64
	Title       string
	Description string
	Date        string
	Start       string
	End         string
	PeriodID    *int64
}

// RecurrenceOptions requests a weekly series instead of a single
// reservation.
type RecurrenceOptions struct {
	WeeklyCount int
	DryRun      bool
}

// CreateReservationParams bundles the input for reservation creation.
type CreateReservationParams struct {
	Input      ReservationInput
	Recurrence *RecurrenceOptions
}

// CreateReservationResult reports what a create call produced. Exactly one
// of Reservation and Series is set.
type CreateReservationResult struct {
	Reservation *booking.Reservation
	Series      *SeriesPlanReport
}

// SeriesPlanReport summarises a weekly series creation: what was (or in a
// dry run would be) stored, what was blocked, and what failed.
type SeriesPlanReport struct {
	SeriesID    string
	SeriesTotal int
	DryRun      bool
	Created     []booking.Reservation
	Conflicts   []series.ConflictReport
	Failures    []series.WeekFailure
}

// UpdateReservationParams bundles the input for a scoped update.
type UpdateReservationParams struct {
	ReservationID int64
	Scope         EditScope
	Input         ReservationInput
}

// UpdateReservationResult reports the outcome per touched occurrence.
type UpdateReservationResult struct {
	Updated   []booking.Reservation
	Conflicts []series.ConflictReport
	Failures  []series.WeekFailure
}

// DeleteReservationParams bundles the input for a scoped delete. Password
// is checked against the configured deletion gate when one is set.
type DeleteReservationParams struct {
	ReservationID int64
	Scope         EditScope
	Password      string
}

// DeleteReservationResult reports which occurrences were removed.
type DeleteReservationResult struct {
	DeletedIDs []int64
	Failures   []series.WeekFailure
}

// ListReservationsParams narrows a reservation listing.
type ListReservationsParams struct {
	RoomID   *int64
	DateFrom string
	DateTo   string
	SeriesID string
}

// RoomInput carries caller-supplied room fields.
type RoomInput struct {
	Name        string
	Capacity    int
	Location    string
	Equipment   []string
	Description string
}

// PeriodInput carries caller-supplied schedule period fields. Start and End
// are "HH:MM" strings.
type PeriodInput struct {
	Name  string
	Start string
	End   string
}

// SeriesRepairOptions tunes a series inspection or repair pass.
type SeriesRepairOptions struct {
	DryRun       bool
	FutureOnly   bool
	AssumedTotal int
}

// SeriesReport combines the week-by-week analysis of a series with the
// outcome of a materialization pass over its missing weeks.
type SeriesReport struct {
	Analysis series.Analysis
	Result   series.MaterializeResult
	DryRun   bool
}
