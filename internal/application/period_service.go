package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/roombook/internal/booking"
	"github.com/example/roombook/internal/persistence"
	"github.com/example/roombook/internal/timeutil"
)

const periodSequenceName = "periods"

// PeriodService manages the named daily schedule periods reservations can
// reference instead of explicit clock times.
type PeriodService struct {
	periods  persistence.PeriodRepository
	counters persistence.CounterRepository
	now      func() time.Time
	logger   *slog.Logger
}

// NewPeriodService wires dependencies for schedule period operations.
func NewPeriodService(periods persistence.PeriodRepository, counters persistence.CounterRepository, now func() time.Time, logger *slog.Logger) *PeriodService {
	if now == nil {
		now = time.Now
	}
	return &PeriodService{periods: periods, counters: counters, now: now, logger: defaultLogger(logger)}
}

// CreatePeriod validates and stores a new schedule period.
func (s *PeriodService) CreatePeriod(ctx context.Context, input PeriodInput) (booking.SchedulePeriod, error) {
	if s == nil || s.periods == nil {
		return booking.SchedulePeriod{}, fmt.Errorf("period repository not configured")
	}

	start, end, err := validatePeriodInput(input)
	if err != nil {
		return booking.SchedulePeriod{}, err
	}

	id, err := s.counters.NextSequence(ctx, periodSequenceName)
	if err != nil {
		return booking.SchedulePeriod{}, err
	}

	period := booking.SchedulePeriod{
		ID:    id,
		Name:  strings.TrimSpace(input.Name),
		Start: start,
		End:   end,
	}
	if err := s.periods.CreatePeriod(ctx, period); err != nil {
		return booking.SchedulePeriod{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "PeriodService", "CreatePeriod", "period_id", id).InfoContext(ctx, "period created")
	return period, nil
}

// UpdatePeriod validates and stores new fields for an existing period.
func (s *PeriodService) UpdatePeriod(ctx context.Context, id int64, input PeriodInput) (booking.SchedulePeriod, error) {
	if s == nil || s.periods == nil {
		return booking.SchedulePeriod{}, fmt.Errorf("period repository not configured")
	}

	start, end, err := validatePeriodInput(input)
	if err != nil {
		return booking.SchedulePeriod{}, err
	}

	existing, err := s.periods.GetPeriod(ctx, id)
	if err != nil {
		return booking.SchedulePeriod{}, mapRepoError(err)
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Start = start
	existing.End = end

	if err := s.periods.UpdatePeriod(ctx, existing); err != nil {
		return booking.SchedulePeriod{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "PeriodService", "UpdatePeriod", "period_id", id).InfoContext(ctx, "period updated")
	return existing, nil
}

// GetPeriod loads a single schedule period.
func (s *PeriodService) GetPeriod(ctx context.Context, id int64) (booking.SchedulePeriod, error) {
	if s == nil || s.periods == nil {
		return booking.SchedulePeriod{}, fmt.Errorf("period repository not configured")
	}
	period, err := s.periods.GetPeriod(ctx, id)
	if err != nil {
		return booking.SchedulePeriod{}, mapRepoError(err)
	}
	return period, nil
}

// ListPeriods enumerates the schedule periods ordered by start time.
func (s *PeriodService) ListPeriods(ctx context.Context) ([]booking.SchedulePeriod, error) {
	if s == nil || s.periods == nil {
		return nil, fmt.Errorf("period repository not configured")
	}
	periods, err := s.periods.ListPeriods(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return periods, nil
}

// DeletePeriod removes a schedule period.
func (s *PeriodService) DeletePeriod(ctx context.Context, id int64) error {
	if s == nil || s.periods == nil {
		return fmt.Errorf("period repository not configured")
	}
	if err := s.periods.DeletePeriod(ctx, id); err != nil {
		return mapRepoError(err)
	}
	serviceLogger(ctx, s.logger, "PeriodService", "DeletePeriod", "period_id", id).InfoContext(ctx, "period deleted")
	return nil
}

func validatePeriodInput(input PeriodInput) (timeutil.ClockTime, timeutil.ClockTime, error) {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}

	start, startOK := timeutil.ParseClockTime(input.Start)
	if !startOK {
		vErr.add("start", "start must be a HH:MM time")
	}
	end, endOK := timeutil.ParseClockTime(input.End)
	if !endOK {
		vErr.add("end", "end must be a HH:MM time")
	}
	if startOK && endOK && !start.Before(end) {
		vErr.add("time", "start must be before end")
	}

	if vErr.HasErrors() {
		return timeutil.ClockTime{}, timeutil.ClockTime{}, vErr
	}
	return start, end, nil
}
