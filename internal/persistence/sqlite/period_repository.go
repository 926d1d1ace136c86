package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/roombook/internal/booking"
	"github.com/example/roombook/internal/persistence"
	"github.com/example/roombook/internal/timeutil"
)

// PeriodRepository implements persistence.PeriodRepository on SQLite.
type PeriodRepository struct {
	pool *ConnectionPool
}

// NewPeriodRepository creates a SQLite schedule period repository.
func NewPeriodRepository(pool *ConnectionPool) *PeriodRepository {
	return &PeriodRepository{pool: pool}
}

// CreatePeriod inserts a schedule period row.
func (r *PeriodRepository) CreatePeriod(ctx context.Context, period booking.SchedulePeriod) error {
	if period.ID == 0 {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.DB().ExecContext(ctx,
		"INSERT INTO schedule_periods (id, name, start_time, end_time) VALUES (?, ?, ?, ?)",
		period.ID, period.Name, period.Start.String(), period.End.String())
	if err != nil {
		return mapSQLiteError(err)
	}
	return nil
}

// UpdatePeriod rewrites a schedule period row.
func (r *PeriodRepository) UpdatePeriod(ctx context.Context, period booking.SchedulePeriod) error {
	result, err := r.pool.DB().ExecContext(ctx,
		"UPDATE schedule_periods SET name = ?, start_time = ?, end_time = ? WHERE id = ?",
		period.Name, period.Start.String(), period.End.String(), period.ID)
	if err != nil {
		return mapSQLiteError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetPeriod loads one schedule period by id.
func (r *PeriodRepository) GetPeriod(ctx context.Context, id int64) (booking.SchedulePeriod, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		"SELECT id, name, start_time, end_time FROM schedule_periods WHERE id = ?", id)
	period, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.SchedulePeriod{}, persistence.ErrNotFound
		}
		return booking.SchedulePeriod{}, err
	}
	return period, nil
}

// ListPeriods returns the daily schedule ordered by start time.
func (r *PeriodRepository) ListPeriods(ctx context.Context) ([]booking.SchedulePeriod, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		"SELECT id, name, start_time, end_time FROM schedule_periods ORDER BY start_time, id")
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var periods []booking.SchedulePeriod
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, period)
	}
	return periods, rows.Err()
}

// DeletePeriod removes a schedule period by id.
func (r *PeriodRepository) DeletePeriod(ctx context.Context, id int64) error {
	result, err := r.pool.DB().ExecContext(ctx, "DELETE FROM schedule_periods WHERE id = ?", id)
	if err != nil {
		return mapSQLiteError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanPeriod(row rowScanner) (booking.SchedulePeriod, error) {
	var (
		period     booking.SchedulePeriod
		start, end string
	)
	if err := row.Scan(&period.ID, &period.Name, &start, &end); err != nil {
		return booking.SchedulePeriod{}, err
	}
	startClock, ok := timeutil.ParseClockTime(start)
	if !ok {
		return booking.SchedulePeriod{}, fmt.Errorf("period %d: malformed start time %q", period.ID, start)
	}
	endClock, ok := timeutil.ParseClockTime(end)
	if !ok {
		return booking.SchedulePeriod{}, fmt.Errorf("period %d: malformed end time %q", period.ID, end)
	}
	period.Start = startClock
	period.End = endClock
	return period, nil
}
