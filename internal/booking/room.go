package booking

import (
	"time"

	"github.com/example/roombook/internal/timeutil"
)

// Room is a bookable room catalog entry.
type Room struct {
	ID          int64
	Name        string
	Capacity    int
	Location    string
	Equipment   []string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SchedulePeriod is a named daily time window ("period 3" = 09:45-10:35).
// Reservations reference periods to spare users typing clock times; the
// engine only ever sees the resolved window.
type SchedulePeriod struct {
	ID    int64
	Name  string
	Start timeutil.ClockTime
	End   timeutil.ClockTime
}
