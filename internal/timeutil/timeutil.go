// Package timeutil provides canonical wall-clock time handling for the
// reservation domain.
//
// Reservations historically store their start and end either as a bare
// "HH:MM" string paired with a separate calendar date, or as a full ISO-8601
// datetime with the date embedded. This package normalizes both shapes into a
// single in-memory representation at parse time. All values are treated as
// local wall-clock readings: the hour and minute digits are taken literally
// and no timezone conversion is performed.
package timeutil

import (
	"fmt"
	"regexp"
	"time"
)

const dateLayout = "2006-01-02"

var (
	clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	isoPattern   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[T ](\d{1,2}):(\d{2})`)
)

// ClockTime is a time of day expressed as minutes since local midnight.
type ClockTime struct {
	minutes int
}

// ClockTimeOf builds a ClockTime from an hour and minute pair. It reports
// false when the pair does not describe a valid 24-hour time.
func ClockTimeOf(hour, minute int) (ClockTime, bool) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ClockTime{}, false
	}
	return ClockTime{minutes: hour*60 + minute}, true
}

// ClockTimeFromMinutes builds a ClockTime from minutes since midnight.
func ClockTimeFromMinutes(minutes int) (ClockTime, bool) {
	if minutes < 0 || minutes >= 24*60 {
		return ClockTime{}, false
	}
	return ClockTime{minutes: minutes}, true
}

// Minutes returns the minutes elapsed since local midnight.
func (c ClockTime) Minutes() int {
	return c.minutes
}

// Hour returns the hour component in the 24-hour clock.
func (c ClockTime) Hour() int {
	return c.minutes / 60
}

// Minute returns the minute component.
func (c ClockTime) Minute() int {
	return c.minutes % 60
}

// String renders the canonical zero-padded "HH:MM" form.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Before reports whether c is strictly earlier in the day than other.
func (c ClockTime) Before(other ClockTime) bool {
	return c.minutes < other.minutes
}

// ParseClockTime extracts a time of day from either an "H:MM"/"HH:MM" string
// or an ISO-8601 datetime. The clock digits are read as written; an embedded
// zone designator is ignored.
func ParseClockTime(value string) (ClockTime, bool) {
	if m := clockPattern.FindStringSubmatch(value); m != nil {
		return ClockTimeOf(atoi(m[1]), atoi(m[2]))
	}
	if m := isoPattern.FindStringSubmatch(value); m != nil {
		if _, err := time.Parse(dateLayout, m[1]); err != nil {
			return ClockTime{}, false
		}
		return ClockTimeOf(atoi(m[2]), atoi(m[3]))
	}
	return ClockTime{}, false
}

// ParseDateOnly extracts the "YYYY-MM-DD" calendar date from a date string or
// an ISO-8601 datetime.
func ParseDateOnly(value string) (string, bool) {
	candidate := value
	if m := isoPattern.FindStringSubmatch(value); m != nil {
		candidate = m[1]
	}
	if _, err := time.Parse(dateLayout, candidate); err != nil {
		return "", false
	}
	return candidate, true
}

// AddDays shifts a "YYYY-MM-DD" date by the given number of calendar days.
func AddDays(date string, days int) (string, bool) {
	parsed, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", false
	}
	return parsed.AddDate(0, 0, days).Format(dateLayout), true
}

// DateBefore reports whether date a falls strictly before date b, comparing
// calendar dates only. Malformed inputs compare as not-before.
func DateBefore(a, b string) bool {
	first, err := time.Parse(dateLayout, a)
	if err != nil {
		return false
	}
	second, err := time.Parse(dateLayout, b)
	if err != nil {
		return false
	}
	return first.Before(second)
}

// FormatDate renders a time.Time as a "YYYY-MM-DD" calendar date.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// FormatISO combines a calendar date with a clock time into the ISO-8601
// datetime form the store historically uses for series occurrences.
func FormatISO(date string, clock ClockTime) string {
	return fmt.Sprintf("%sT%s:00.000Z", date, clock)
}

// LocalTimeValue is a reservation time field normalized once at load. It
// remembers the raw stored text so callers can round-trip legacy rows, while
// exposing the parsed clock time and, when the raw form embeds one, the
// calendar date.
type LocalTimeValue struct {
	raw   string
	clock ClockTime
	date  string
	valid bool
}

// ParseLocalTime normalizes a stored time value. The zero LocalTimeValue and
// any unparseable input report Valid() == false.
func ParseLocalTime(raw string) LocalTimeValue {
	clock, ok := ParseClockTime(raw)
	if !ok {
		return LocalTimeValue{raw: raw}
	}
	value := LocalTimeValue{raw: raw, clock: clock, valid: true}
	if m := isoPattern.FindStringSubmatch(raw); m != nil {
		value.date = m[1]
	}
	return value
}

// LocalTimeOf builds an already-normalized value, used when constructing new
// reservations in memory.
func LocalTimeOf(date string, clock ClockTime) LocalTimeValue {
	return LocalTimeValue{
		raw:   FormatISO(date, clock),
		clock: clock,
		date:  date,
		valid: true,
	}
}

// Valid reports whether the raw input could be normalized.
func (v LocalTimeValue) Valid() bool {
	return v.valid
}

// Raw returns the stored textual form.
func (v LocalTimeValue) Raw() string {
	return v.raw
}

// Clock returns the normalized time of day.
func (v LocalTimeValue) Clock() (ClockTime, bool) {
	return v.clock, v.valid
}

// Minutes returns minutes since local midnight.
func (v LocalTimeValue) Minutes() (int, bool) {
	if !v.valid {
		return 0, false
	}
	return v.clock.Minutes(), true
}

// HHMM returns the canonical zero-padded "HH:MM" rendering.
func (v LocalTimeValue) HHMM() (string, bool) {
	if !v.valid {
		return "", false
	}
	return v.clock.String(), true
}

// DateOnly returns the embedded calendar date, when the raw form carried one.
func (v LocalTimeValue) DateOnly() (string, bool) {
	if !v.valid || v.date == "" {
		return "", false
	}
	return v.date, true
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
