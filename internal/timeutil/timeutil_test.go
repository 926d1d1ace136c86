package timeutil

import (
	"testing"
)

func TestParseClockTime(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		input   string
		minutes int
		ok      bool
	}{
		{name: "zero padded", input: "09:45", minutes: 585, ok: true},
		{name: "single digit hour", input: "9:45", minutes: 585, ok: true},
		{name: "midnight", input: "00:00", minutes: 0, ok: true},
		{name: "end of day", input: "23:59", minutes: 23*60 + 59, ok: true},
		{name: "iso datetime with zone", input: "2024-03-04T09:45:00.000Z", minutes: 585, ok: true},
		{name: "iso datetime without zone", input: "2024-03-04T09:45:00", minutes: 585, ok: true},
		{name: "iso with space separator", input: "2024-03-04 09:45:00", minutes: 585, ok: true},
		{name: "hour out of range", input: "24:00", ok: false},
		{name: "minute out of range", input: "09:60", ok: false},
		{name: "invalid embedded date", input: "2024-13-04T09:45:00", ok: false},
		{name: "garbage", input: "soon", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			clock, ok := ParseClockTime(tc.input)
			if ok != tc.ok {
				t.Fatalf("ParseClockTime(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			}
			if ok && clock.Minutes() != tc.minutes {
				t.Fatalf("ParseClockTime(%q) = %d minutes, want %d", tc.input, clock.Minutes(), tc.minutes)
			}
		})
	}
}

func TestClockTimeFormatEquivalence(t *testing.T) {
	t.Parallel()

	fromISO, ok := ParseClockTime("2024-03-04T09:45:00.000Z")
	if !ok {
		t.Fatal("failed to parse ISO form")
	}
	fromClock, ok := ParseClockTime("09:45")
	if !ok {
		t.Fatal("failed to parse HH:MM form")
	}
	if fromISO.Minutes() != fromClock.Minutes() {
		t.Fatalf("ISO form yields %d minutes, HH:MM form yields %d", fromISO.Minutes(), fromClock.Minutes())
	}
	if got := fromISO.String(); got != "09:45" {
		t.Fatalf("String() = %q, want %q", got, "09:45")
	}
}

func TestParseDateOnly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		want  string
		ok    bool
	}{
		{input: "2024-03-04", want: "2024-03-04", ok: true},
		{input: "2024-03-04T09:45:00.000Z", want: "2024-03-04", ok: true},
		{input: "2024-02-30", ok: false},
		{input: "04.03.2024", ok: false},
		{input: "", ok: false},
	}

	for _, tc := range cases {
		got, ok := ParseDateOnly(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseDateOnly(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestAddDays(t *testing.T) {
	t.Parallel()

	got, ok := AddDays("2024-03-04", 7)
	if !ok || got != "2024-03-11" {
		t.Fatalf("AddDays week = (%q, %v)", got, ok)
	}
	got, ok = AddDays("2024-02-26", 7)
	if !ok || got != "2024-03-04" {
		t.Fatalf("AddDays month boundary = (%q, %v)", got, ok)
	}
	if _, ok := AddDays("not-a-date", 7); ok {
		t.Fatal("AddDays accepted malformed date")
	}
}

func TestDateBefore(t *testing.T) {
	t.Parallel()

	if !DateBefore("2024-03-04", "2024-03-05") {
		t.Fatal("expected earlier date to compare before")
	}
	if DateBefore("2024-03-04", "2024-03-04") {
		t.Fatal("equal dates must not compare before")
	}
	if DateBefore("bogus", "2024-03-04") {
		t.Fatal("malformed dates must compare as not-before")
	}
}

func TestParseLocalTime(t *testing.T) {
	t.Parallel()

	t.Run("bare clock", func(t *testing.T) {
		t.Parallel()
		v := ParseLocalTime("9:05")
		if !v.Valid() {
			t.Fatal("expected valid value")
		}
		if hhmm, _ := v.HHMM(); hhmm != "09:05" {
			t.Fatalf("HHMM = %q", hhmm)
		}
		if _, ok := v.DateOnly(); ok {
			t.Fatal("bare clock must not report an embedded date")
		}
	})

	t.Run("iso datetime", func(t *testing.T) {
		t.Parallel()
		v := ParseLocalTime("2024-03-04T09:45:00.000Z")
		if !v.Valid() {
			t.Fatal("expected valid value")
		}
		date, ok := v.DateOnly()
		if !ok || date != "2024-03-04" {
			t.Fatalf("DateOnly = (%q, %v)", date, ok)
		}
		if minutes, _ := v.Minutes(); minutes != 585 {
			t.Fatalf("Minutes = %d", minutes)
		}
	})

	t.Run("unparseable", func(t *testing.T) {
		t.Parallel()
		v := ParseLocalTime("whenever")
		if v.Valid() {
			t.Fatal("expected invalid value")
		}
		if v.Raw() != "whenever" {
			t.Fatalf("Raw = %q", v.Raw())
		}
		if _, ok := v.Minutes(); ok {
			t.Fatal("invalid value must not yield minutes")
		}
	})
}

func TestLocalTimeOf(t *testing.T) {
	t.Parallel()

	clock, _ := ClockTimeOf(9, 45)
	v := LocalTimeOf("2024-03-04", clock)
	if v.Raw() != "2024-03-04T09:45:00.000Z" {
		t.Fatalf("Raw = %q", v.Raw())
	}
	date, _ := v.DateOnly()
	if date != "2024-03-04" {
		t.Fatalf("DateOnly = %q", date)
	}
	round := ParseLocalTime(v.Raw())
	if minutes, _ := round.Minutes(); minutes != clock.Minutes() {
		t.Fatalf("round trip minutes = %d, want %d", minutes, clock.Minutes())
	}
}
