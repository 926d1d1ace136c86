package series

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/example/roombook/internal/booking"
	"github.com/example/roombook/internal/timeutil"
)

// PlanRequest describes a weekly series a caller wants to create. The time
// window normally comes from resolving schedule period references; the
// planner only sees concrete clock times.
type PlanRequest struct {
	RoomID      int64
	BaseTitle   string
	AnchorDate  string
	Start       timeutil.ClockTime
	End         timeutil.ClockTime
	WeeklyCount int
}

// Candidate is a week the planner found free. The service layer turns
// candidates into stored reservations once the caller accepts the plan.
type Candidate struct {
	SeriesIndex int
	Date        string
	Title       string
}

// BlockingRef identifies a reservation occupying a requested slot, with
// enough detail for user-facing conflict reporting.
type BlockingRef struct {
	ID    int64
	Title string
	Start string
	End   string
}

// ConflictReport lists what blocks one requested week.
type ConflictReport struct {
	SeriesIndex int
	Date        string
	Blocking    []BlockingRef
}

// Plan partitions the requested weeks. All creatable candidates share the
// fresh SeriesID; SeriesTotal stays at the requested week count even when
// weeks are dropped for conflicts, so the stored series keeps a permanent
// record of the gap.
type Plan struct {
	SeriesID    string
	SeriesTotal int
	Creatable   []Candidate
	Conflicting []ConflictReport
	Failures    []WeekFailure
}

// Planner pre-checks a requested weekly series against the store without
// writing anything.
type Planner struct {
	store Store
}

// NewPlanner wires a planner against the reservation store.
func NewPlanner(store Store) *Planner {
	return &Planner{store: store}
}

// Plan checks every requested week for conflicts and partitions the result.
// The per-week checks are independent reads, so they fan out concurrently;
// results are assembled in week order afterwards to keep series index
// assignment deterministic. A failed read marks only its own week.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (Plan, error) {
	if req.WeeklyCount < 1 {
		return Plan{}, ErrInvalidWeekCount
	}
	if !req.Start.Before(req.End) {
		return Plan{}, ErrInvalidWindow
	}
	if _, ok := timeutil.ParseDateOnly(req.AnchorDate); !ok {
		return Plan{}, ErrAnchorDate
	}

	type weekCheck struct {
		index  int
		date   string
		onDate []booking.Reservation
		err    error
	}

	checks := make([]weekCheck, req.WeeklyCount)
	var wg sync.WaitGroup
	for week := 0; week < req.WeeklyCount; week++ {
		date, _ := timeutil.AddDays(req.AnchorDate, week*7)
		checks[week] = weekCheck{index: week + 1, date: date}

		wg.Add(1)
		go func(check *weekCheck) {
			defer wg.Done()
			check.onDate, check.err = p.store.FindByRoomAndDate(ctx, req.RoomID, check.date)
		}(&checks[week])
	}
	wg.Wait()

	plan := Plan{
		SeriesID:    uuid.NewString(),
		SeriesTotal: req.WeeklyCount,
	}

	for _, check := range checks {
		if check.err != nil {
			plan.Failures = append(plan.Failures, WeekFailure{Index: check.index, Date: check.date, Err: check.err})
			continue
		}

		blocking := booking.FindConflicts(check.onDate, req.Start.Minutes(), req.End.Minutes(), 0)
		if len(blocking) == 0 {
			plan.Creatable = append(plan.Creatable, Candidate{
				SeriesIndex: check.index,
				Date:        check.date,
				Title:       FormatTitle(req.BaseTitle, check.index, req.WeeklyCount),
			})
			continue
		}

		report := ConflictReport{SeriesIndex: check.index, Date: check.date}
		for _, blocked := range blocking {
			report.Blocking = append(report.Blocking, blockingRef(blocked))
		}
		plan.Conflicting = append(plan.Conflicting, report)
	}

	sort.Slice(plan.Creatable, func(i, j int) bool {
		return plan.Creatable[i].SeriesIndex < plan.Creatable[j].SeriesIndex
	})
	sort.Slice(plan.Conflicting, func(i, j int) bool {
		return plan.Conflicting[i].SeriesIndex < plan.Conflicting[j].SeriesIndex
	})

	return plan, nil
}

func blockingRef(reservation booking.Reservation) BlockingRef {
	ref := BlockingRef{ID: reservation.ID, Title: reservation.Title}
	if hhmm, ok := reservation.Start.HHMM(); ok {
		ref.Start = hhmm
	}
	if hhmm, ok := reservation.End.HHMM(); ok {
		ref.End = hhmm
	}
	return ref
}
