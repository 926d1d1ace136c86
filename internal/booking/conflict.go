package booking

import "github.com/example/roombook/internal/timeutil"

// Overlaps reports whether the half-open intervals [s1,e1) and [s2,e2)
// intersect. Back-to-back windows sharing a boundary minute do not overlap.
func Overlaps(s1, e1, s2, e2 int) bool {
	return s1 < e2 && e1 > s2
}

// FindConflicts returns the reservations whose time windows overlap the
// candidate window. The caller is expected to have filtered the slice to a
// single room and date already; this function only applies the interval rule.
//
// A reservation with the exclude id is skipped, so an edit never conflicts
// with itself. Reservations whose stored times cannot be normalized are
// skipped rather than treated as blocking.
func FindConflicts(existing []Reservation, candidateStartMin, candidateEndMin int, excludeID int64) []Reservation {
	var conflicts []Reservation
	for _, reservation := range existing {
		if excludeID != 0 && reservation.ID == excludeID {
			continue
		}
		startMin, endMin, ok := reservation.Window()
		if !ok {
			continue
		}
		if Overlaps(candidateStartMin, candidateEndMin, startMin, endMin) {
			conflicts = append(conflicts, reservation)
		}
	}
	return conflicts
}

// FindConflictsWindow is FindConflicts over possibly-unnormalized candidate
// bounds. When either bound fails to parse the result is empty: unparseable
// input is a reportable condition for the caller, never a panic.
func FindConflictsWindow(existing []Reservation, start, end timeutil.LocalTimeValue, excludeID int64) []Reservation {
	startMin, sok := start.Minutes()
	endMin, eok := end.Minutes()
	if !sok || !eok {
		return nil
	}
	return FindConflicts(existing, startMin, endMin, excludeID)
}
