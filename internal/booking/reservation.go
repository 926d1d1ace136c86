// Package booking holds the reservation domain model and the interval
// conflict rules shared by single bookings and weekly series.
package booking

import (
	"time"

	"github.com/example/roombook/internal/timeutil"
)

// Reservation is a single booked slot: one room, one calendar date, one
// half-open time window. Members of a weekly series additionally carry the
// shared series identifier and their position within it.
type Reservation struct {
	ID          int64
	RoomID      int64
	Title       string
	Description string
	Date        string
	Start       timeutil.LocalTimeValue
	End         timeutil.LocalTimeValue
	SeriesID    string
	SeriesIndex int
	SeriesTotal int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ResolvedDate returns the reservation's calendar date, preferring the
// explicit date field and falling back to the date embedded in the start
// time for legacy rows that stored full ISO timestamps.
func (r Reservation) ResolvedDate() (string, bool) {
	if date, ok := timeutil.ParseDateOnly(r.Date); ok {
		return date, true
	}
	return r.Start.DateOnly()
}

// CalendarDate is the single-value form of ResolvedDate for callers that
// treat an unresolvable date as empty.
func (r Reservation) CalendarDate() string {
	date, _ := r.ResolvedDate()
	return date
}

// Window returns the reservation's time window in minutes since midnight.
func (r Reservation) Window() (startMin, endMin int, ok bool) {
	startMin, sok := r.Start.Minutes()
	endMin, eok := r.End.Minutes()
	if !sok || !eok {
		return 0, 0, false
	}
	return startMin, endMin, true
}
