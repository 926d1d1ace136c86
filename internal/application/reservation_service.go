package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/roombook/internal/booking"
	"github.com/example/roombook/internal/events"
	"github.com/example/roombook/internal/persistence"
	"github.com/example/roombook/internal/series"
	"github.com/example/roombook/internal/timeutil"
)

// ReservationServiceConfig wires the dependencies of a ReservationService.
type ReservationServiceConfig struct {
	Reservations persistence.ReservationRepository
	Rooms        persistence.RoomRepository
	Periods      persistence.PeriodRepository
	Counters     persistence.CounterRepository
	Events       *events.Broker
	// DeletePasswordHash guards deletions when non-empty. The value is an
	// argon2id hash produced by CreatePasswordHash.
	DeletePasswordHash string
	Now                func() time.Time
	Logger             *slog.Logger
}

// ReservationService orchestrates validation, conflict checking, and
// persistence for single reservations and weekly series.
type ReservationService struct {
	reservations persistence.ReservationRepository
	rooms        persistence.RoomRepository
	periods      persistence.PeriodRepository
	counters     persistence.CounterRepository
	planner      *series.Planner
	broker       *events.Broker
	deleteGate   string
	now          func() time.Time
	logger       *slog.Logger
}

// NewReservationService wires dependencies for reservation operations.
func NewReservationService(cfg ReservationServiceConfig) *ReservationService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		reservations: cfg.Reservations,
		rooms:        cfg.Rooms,
		periods:      cfg.Periods,
		counters:     cfg.Counters,
		planner:      series.NewPlanner(NewSeriesStore(cfg.Reservations, cfg.Counters)),
		broker:       cfg.Events,
		deleteGate:   cfg.DeletePasswordHash,
		now:          now,
		logger:       defaultLogger(cfg.Logger),
	}
}

// GetReservation loads a single reservation.
func (s *ReservationService) GetReservation(ctx context.Context, id int64) (booking.Reservation, error) {
	if s == nil || s.reservations == nil {
		return booking.Reservation{}, fmt.Errorf("reservation repository not configured")
	}
	reservation, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		return booking.Reservation{}, mapRepoError(err)
	}
	return reservation, nil
}

// ListReservations enumerates reservations matching the given filter,
// ordered by date and start time.
func (s *ReservationService) ListReservations(ctx context.Context, params ListReservationsParams) ([]booking.Reservation, error) {
	if s == nil || s.reservations == nil {
		return nil, fmt.Errorf("reservation repository not configured")
	}

	reservations, err := s.reservations.ListReservations(ctx, persistence.ReservationFilter{
		RoomID:   params.RoomID,
		DateFrom: params.DateFrom,
		DateTo:   params.DateTo,
		SeriesID: params.SeriesID,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	sort.SliceStable(reservations, func(i, j int) bool {
		di, dj := reservations[i].CalendarDate(), reservations[j].CalendarDate()
		if di != dj {
			return timeutil.DateBefore(di, dj)
		}
		si, _, iok := reservations[i].Window()
		sj, _, jok := reservations[j].Window()
		if iok && jok && si != sj {
			return si < sj
		}
		return reservations[i].ID < reservations[j].ID
	})

	return reservations, nil
}

// CreateReservation stores a single reservation, or plans and stores a
// weekly series when recurrence options are present. Creation is refused
// when the requested slot is occupied; for a series, conflicting weeks are
// skipped while the remaining weeks are still created.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (CreateReservationResult, error) {
	if s == nil || s.reservations == nil {
		return CreateReservationResult{}, fmt.Errorf("reservation repository not configured")
	}

	input := params.Input
	date, start, end, err := s.resolveSlot(ctx, &input)
	if err != nil {
		return CreateReservationResult{}, err
	}

	if params.Recurrence != nil {
		return s.createWeekly(ctx, input, date, start, end, *params.Recurrence)
	}

	logger := serviceLogger(ctx, s.logger, "ReservationService", "CreateReservation", "room_id", input.RoomID, "date", date)

	onDate, err := s.reservations.FindByRoomAndDate(ctx, input.RoomID, date)
	if err != nil {
		return CreateReservationResult{}, err
	}
	if blocking := booking.FindConflicts(onDate, start.Minutes(), end.Minutes(), 0); len(blocking) > 0 {
		return CreateReservationResult{}, &ConflictError{Blocking: toBlockingRefs(blocking)}
	}

	id, err := s.counters.NextSequence(ctx, series.SequenceName)
	if err != nil {
		return CreateReservationResult{}, err
	}

	now := s.now()
	reservation := booking.Reservation{
		ID:          id,
		RoomID:      input.RoomID,
		Title:       input.Title,
		Description: input.Description,
		Date:        date,
		Start:       timeutil.LocalTimeOf(date, start),
		End:         timeutil.LocalTimeOf(date, end),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.reservations.CreateReservation(ctx, reservation); err != nil {
		if errors.Is(err, persistence.ErrConstraintViolation) {
			return CreateReservationResult{}, &ConflictError{}
		}
		return CreateReservationResult{}, err
	}

	logger.With("reservation_id", id).InfoContext(ctx, "reservation created")
	s.publish(events.ReservationCreated, reservation)

	return CreateReservationResult{Reservation: &reservation}, nil
}

func (s *ReservationService) createWeekly(ctx context.Context, input ReservationInput, date string, start, end timeutil.ClockTime, rec RecurrenceOptions) (CreateReservationResult, error) {
	logger := serviceLogger(ctx, s.logger, "ReservationService", "CreateWeeklySeries",
		"room_id", input.RoomID, "anchor_date", date, "weeks", rec.WeeklyCount, "dry_run", rec.DryRun)

	plan, err := s.planner.Plan(ctx, series.PlanRequest{
		RoomID:      input.RoomID,
		BaseTitle:   input.Title,
		AnchorDate:  date,
		Start:       start,
		End:         end,
		WeeklyCount: rec.WeeklyCount,
	})
	if err != nil {
		return CreateReservationResult{}, mapSeriesError(err)
	}

	report := &SeriesPlanReport{
		SeriesID:    plan.SeriesID,
		SeriesTotal: plan.SeriesTotal,
		DryRun:      rec.DryRun,
		Conflicts:   plan.Conflicting,
		Failures:    plan.Failures,
	}

	now := s.now()
	for _, candidate := range plan.Creatable {
		occurrence := booking.Reservation{
			RoomID:      input.RoomID,
			Title:       candidate.Title,
			Description: input.Description,
			Date:        candidate.Date,
			Start:       timeutil.LocalTimeOf(candidate.Date, start),
			End:         timeutil.LocalTimeOf(candidate.Date, end),
			SeriesID:    plan.SeriesID,
			SeriesIndex: candidate.SeriesIndex,
			SeriesTotal: plan.SeriesTotal,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if rec.DryRun {
			report.Created = append(report.Created, occurrence)
			continue
		}

		id, err := s.counters.NextSequence(ctx, series.SequenceName)
		if err != nil {
			report.Failures = append(report.Failures, series.WeekFailure{Index: candidate.SeriesIndex, Date: candidate.Date, Err: err})
			continue
		}
		occurrence.ID = id
		if err := s.reservations.CreateReservation(ctx, occurrence); err != nil {
			report.Failures = append(report.Failures, series.WeekFailure{Index: candidate.SeriesIndex, Date: candidate.Date, Err: err})
			continue
		}

		report.Created = append(report.Created, occurrence)
		s.publish(events.ReservationCreated, occurrence)
	}

	logger.With("series_id", plan.SeriesID, "created", len(report.Created), "conflicts", len(report.Conflicts)).
		InfoContext(ctx, "weekly series planned")

	return CreateReservationResult{Series: report}, nil
}

// UpdateReservation applies new fields to a reservation, or across its
// series when a wider scope is requested. Members whose new slot would
// collide with an unrelated reservation are reported and left unchanged.
func (s *ReservationService) UpdateReservation(ctx context.Context, params UpdateReservationParams) (UpdateReservationResult, error) {
	if s == nil || s.reservations == nil {
		return UpdateReservationResult{}, fmt.Errorf("reservation repository not configured")
	}

	existing, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		return UpdateReservationResult{}, mapRepoError(err)
	}

	input := params.Input
	if input.RoomID == 0 {
		input.RoomID = existing.RoomID
	}
	if input.Date == "" {
		input.Date = existing.CalendarDate()
	}
	date, start, end, err := s.resolveSlot(ctx, &input)
	if err != nil {
		return UpdateReservationResult{}, err
	}

	scope := params.Scope
	if scope == "" {
		scope = ScopeSingle
	}

	logger := serviceLogger(ctx, s.logger, "ReservationService", "UpdateReservation",
		"reservation_id", params.ReservationID, "scope", string(scope))

	if scope == ScopeSingle {
		result, err := s.updateSingle(ctx, existing, input, date, start, end)
		if err != nil {
			return UpdateReservationResult{}, err
		}
		logger.InfoContext(ctx, "reservation updated")
		return result, nil
	}

	members, err := s.scopedMembers(ctx, existing, scope)
	if err != nil {
		return UpdateReservationResult{}, err
	}

	result := UpdateReservationResult{}
	for _, member := range members {
		memberDate, ok := member.ResolvedDate()
		if !ok {
			result.Failures = append(result.Failures, series.WeekFailure{
				Index: member.SeriesIndex,
				Date:  member.Date,
				Err:   fmt.Errorf("member %d has no resolvable date", member.ID),
			})
			continue
		}

		onDate, err := s.reservations.FindByRoomAndDate(ctx, input.RoomID, memberDate)
		if err != nil {
			result.Failures = append(result.Failures, series.WeekFailure{Index: member.SeriesIndex, Date: memberDate, Err: err})
			continue
		}
		if blocking := booking.FindConflicts(onDate, start.Minutes(), end.Minutes(), member.ID); len(blocking) > 0 {
			result.Conflicts = append(result.Conflicts, series.ConflictReport{
				SeriesIndex: member.SeriesIndex,
				Date:        memberDate,
				Blocking:    toBlockingRefs(blocking),
			})
			continue
		}

		updated := member
		updated.RoomID = input.RoomID
		updated.Title = memberTitle(input.Title, member)
		updated.Description = input.Description
		updated.Start = timeutil.LocalTimeOf(memberDate, start)
		updated.End = timeutil.LocalTimeOf(memberDate, end)
		updated.UpdatedAt = s.now()

		if err := s.reservations.UpdateReservation(ctx, updated); err != nil {
			result.Failures = append(result.Failures, series.WeekFailure{Index: member.SeriesIndex, Date: memberDate, Err: err})
			continue
		}
		result.Updated = append(result.Updated, updated)
		s.publish(events.ReservationUpdated, updated)
	}

	logger.With("updated", len(result.Updated), "conflicts", len(result.Conflicts)).InfoContext(ctx, "series updated")
	return result, nil
}

func (s *ReservationService) updateSingle(ctx context.Context, existing booking.Reservation, input ReservationInput, date string, start, end timeutil.ClockTime) (UpdateReservationResult, error) {
	onDate, err := s.reservations.FindByRoomAndDate(ctx, input.RoomID, date)
	if err != nil {
		return UpdateReservationResult{}, err
	}
	if blocking := booking.FindConflicts(onDate, start.Minutes(), end.Minutes(), existing.ID); len(blocking) > 0 {
		return UpdateReservationResult{}, &ConflictError{Blocking: toBlockingRefs(blocking)}
	}

	updated := existing
	updated.RoomID = input.RoomID
	updated.Title = input.Title
	updated.Description = input.Description
	updated.Date = date
	updated.Start = timeutil.LocalTimeOf(date, start)
	updated.End = timeutil.LocalTimeOf(date, end)
	updated.UpdatedAt = s.now()

	if err := s.reservations.UpdateReservation(ctx, updated); err != nil {
		if errors.Is(err, persistence.ErrConstraintViolation) {
			return UpdateReservationResult{}, &ConflictError{}
		}
		return UpdateReservationResult{}, mapRepoError(err)
	}

	s.publish(events.ReservationUpdated, updated)
	return UpdateReservationResult{Updated: []booking.Reservation{updated}}, nil
}

// DeleteReservation removes a reservation, or its whole series or future
// tail when a wider scope is requested. When a deletion password gate is
// configured the supplied password must match it.
func (s *ReservationService) DeleteReservation(ctx context.Context, params DeleteReservationParams) (DeleteReservationResult, error) {
	if s == nil || s.reservations == nil {
		return DeleteReservationResult{}, fmt.Errorf("reservation repository not configured")
	}

	if s.deleteGate != "" {
		if err := VerifyPassword(s.deleteGate, params.Password); err != nil {
			return DeleteReservationResult{}, ErrInvalidCredentials
		}
	}

	existing, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		return DeleteReservationResult{}, mapRepoError(err)
	}

	scope := params.Scope
	if scope == "" {
		scope = ScopeSingle
	}

	logger := serviceLogger(ctx, s.logger, "ReservationService", "DeleteReservation",
		"reservation_id", params.ReservationID, "scope", string(scope))

	targets := []booking.Reservation{existing}
	if scope != ScopeSingle {
		targets, err = s.scopedMembers(ctx, existing, scope)
		if err != nil {
			return DeleteReservationResult{}, err
		}
	}

	result := DeleteReservationResult{}
	for _, target := range targets {
		if err := s.reservations.DeleteReservation(ctx, target.ID); err != nil {
			result.Failures = append(result.Failures, series.WeekFailure{Index: target.SeriesIndex, Date: target.CalendarDate(), Err: err})
			continue
		}
		result.DeletedIDs = append(result.DeletedIDs, target.ID)
		s.publish(events.ReservationDeleted, target)
	}

	logger.With("deleted", len(result.DeletedIDs)).InfoContext(ctx, "reservation deleted")
	return result, nil
}

// scopedMembers resolves which series members a series or future scoped
// operation touches. Members without index metadata fall back to date
// comparison against the addressed reservation.
func (s *ReservationService) scopedMembers(ctx context.Context, existing booking.Reservation, scope EditScope) ([]booking.Reservation, error) {
	if existing.SeriesID == "" {
		vErr := &ValidationError{}
		vErr.add("scope", "reservation is not part of a series")
		return nil, vErr
	}

	members, err := s.reservations.FindBySeriesID(ctx, existing.SeriesID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if scope == ScopeSeries {
		return members, nil
	}

	anchorDate := existing.CalendarDate()
	future := make([]booking.Reservation, 0, len(members))
	for _, member := range members {
		if existing.SeriesIndex > 0 && member.SeriesIndex > 0 {
			if member.SeriesIndex >= existing.SeriesIndex {
				future = append(future, member)
			}
			continue
		}
		if !timeutil.DateBefore(member.CalendarDate(), anchorDate) {
			future = append(future, member)
		}
	}
	return future, nil
}

// resolveSlot validates the input and normalizes its time window to a date
// plus clock times. Period references are resolved against the stored
// schedule; explicit values accept both "HH:MM" and full local datetimes.
func (s *ReservationService) resolveSlot(ctx context.Context, input *ReservationInput) (string, timeutil.ClockTime, timeutil.ClockTime, error) {
	vErr := &ValidationError{}

	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		vErr.add("title", "title is required")
	}

	if input.RoomID <= 0 {
		vErr.add("room_id", "room is required")
	} else if s.rooms != nil {
		if _, err := s.rooms.GetRoom(ctx, input.RoomID); err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				vErr.add("room_id", "room does not exist")
			} else {
				return "", timeutil.ClockTime{}, timeutil.ClockTime{}, err
			}
		}
	}

	var start, end timeutil.ClockTime
	var haveWindow bool

	switch {
	case input.PeriodID != nil:
		if s.periods == nil {
			vErr.add("period_id", "schedule periods are not available")
			break
		}
		period, err := s.periods.GetPeriod(ctx, *input.PeriodID)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				vErr.add("period_id", "schedule period does not exist")
				break
			}
			return "", timeutil.ClockTime{}, timeutil.ClockTime{}, err
		}
		start, end = period.Start, period.End
		haveWindow = true
	default:
		startValue := timeutil.ParseLocalTime(input.Start)
		endValue := timeutil.ParseLocalTime(input.End)
		startClock, startOK := startValue.Clock()
		endClock, endOK := endValue.Clock()
		if !startOK {
			vErr.add("start", "start time is required")
		}
		if !endOK {
			vErr.add("end", "end time is required")
		}
		if startOK && endOK {
			start, end = startClock, endClock
			haveWindow = true
		}
		if input.Date == "" {
			if derived, ok := startValue.DateOnly(); ok {
				input.Date = derived
			}
		}
	}

	if haveWindow && !start.Before(end) {
		vErr.add("time", "start must be before end")
	}

	date, ok := timeutil.ParseDateOnly(strings.TrimSpace(input.Date))
	if !ok {
		vErr.add("date", "date is required")
	}

	if vErr.HasErrors() {
		return "", timeutil.ClockTime{}, timeutil.ClockTime{}, vErr
	}
	return date, start, end, nil
}

func (s *ReservationService) publish(kind events.Type, reservation booking.Reservation) {
	if s.broker == nil {
		return
	}
	s.broker.Publish(events.Event{Type: kind, Payload: reservation, OccurredAt: s.now().UTC()})
}

// memberTitle applies a new base title to a series member, preserving its
// week marker when the member carries series metadata.
func memberTitle(base string, member booking.Reservation) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return member.Title
	}
	if member.SeriesIndex > 0 && member.SeriesTotal > 0 {
		return series.FormatTitle(base, member.SeriesIndex, member.SeriesTotal)
	}
	return base
}

func toBlockingRefs(reservations []booking.Reservation) []series.BlockingRef {
	refs := make([]series.BlockingRef, 0, len(reservations))
	for _, reservation := range reservations {
		ref := series.BlockingRef{ID: reservation.ID, Title: reservation.Title}
		if hhmm, ok := reservation.Start.HHMM(); ok {
			ref.Start = hhmm
		}
		if hhmm, ok := reservation.End.HHMM(); ok {
			ref.End = hhmm
		}
		refs = append(refs, ref)
	}
	return refs
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func mapSeriesError(err error) error {
	if err == nil {
		return nil
	}
	vErr := &ValidationError{}
	switch {
	case errors.Is(err, series.ErrInvalidWeekCount):
		vErr.add("weekly_count", "week count must be at least 1")
	case errors.Is(err, series.ErrInvalidWindow):
		vErr.add("time", "start must be before end")
	case errors.Is(err, series.ErrAnchorDate):
		vErr.add("date", "date is required")
	default:
		return err
	}
	return vErr
}
