package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/roombook/internal/booking"
	"github.com/example/roombook/internal/persistence"
	"github.com/example/roombook/internal/timeutil"
)

const reservationColumns = "id, room_id, title, description, date, start_time, end_time, series_id, series_index, series_total, created_at, updated_at"

// ReservationRepository implements persistence.ReservationRepository on SQLite.
type ReservationRepository struct {
	pool *ConnectionPool
}

// NewReservationRepository creates a SQLite reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

// CreateReservation inserts a reservation row.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation booking.Reservation) error {
	if reservation.ID == 0 {
		return persistence.ErrConstraintViolation
	}

	// start_hhmm feeds the uniqueness backstop and is recomputed on every
	// write from the normalized start time.
	query := `
		INSERT INTO reservations (id, room_id, title, description, date, start_time, end_time,
		                          start_hhmm, series_id, series_index, series_total, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.pool.DB().ExecContext(ctx, query,
		reservation.ID,
		reservation.RoomID,
		reservation.Title,
		reservation.Description,
		reservation.Date,
		reservation.Start.Raw(),
		reservation.End.Raw(),
		startHHMM(reservation),
		nullString(reservation.SeriesID),
		nullInt(reservation.SeriesIndex),
		nullInt(reservation.SeriesTotal),
		reservation.CreatedAt.UTC().Format(time.RFC3339),
		reservation.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	return nil
}

// GetReservation loads one reservation by id.
func (r *ReservationRepository) GetReservation(ctx context.Context, id int64) (booking.Reservation, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id)
	reservation, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.Reservation{}, persistence.ErrNotFound
		}
		return booking.Reservation{}, err
	}
	return reservation, nil
}

// UpdateReservation rewrites a reservation row.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, reservation booking.Reservation) error {
	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE reservations
		SET room_id = ?, title = ?, description = ?, date = ?,
		    start_time = ?, end_time = ?, start_hhmm = ?,
		    series_id = ?, series_index = ?, series_total = ?, updated_at = ?
		WHERE id = ?
	`,
		reservation.RoomID,
		reservation.Title,
		reservation.Description,
		reservation.Date,
		reservation.Start.Raw(),
		reservation.End.Raw(),
		startHHMM(reservation),
		nullString(reservation.SeriesID),
		nullInt(reservation.SeriesIndex),
		nullInt(reservation.SeriesTotal),
		reservation.UpdatedAt.UTC().Format(time.RFC3339),
		reservation.ID,
	)
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

// DeleteReservation removes a reservation by id.
func (r *ReservationRepository) DeleteReservation(ctx context.Context, id int64) error {
	result, err := r.pool.DB().ExecContext(ctx, "DELETE FROM reservations WHERE id = ?", id)
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

// ListReservations returns reservations matching the filter, ordered by
// date then start time.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]booking.Reservation, error) {
	query := "SELECT " + reservationColumns + " FROM reservations"
	var conditions []string
	var args []any

	if filter.RoomID != nil {
		conditions = append(conditions, "room_id = ?")
		args = append(args, *filter.RoomID)
	}
	if filter.DateFrom != "" {
		conditions = append(conditions, "date >= ?")
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conditions = append(conditions, "date <= ?")
		args = append(args, filter.DateTo)
	}
	if filter.SeriesID != "" {
		conditions = append(conditions, "series_id = ?")
		args = append(args, filter.SeriesID)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date, start_hhmm, id"

	return r.queryReservations(ctx, query, args...)
}

// FindByRoomAndDate returns the reservations for one room on one date.
func (r *ReservationRepository) FindByRoomAndDate(ctx context.Context, roomID int64, date string) ([]booking.Reservation, error) {
	return r.queryReservations(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE room_id = ? AND date = ? ORDER BY start_hhmm, id",
		roomID, date)
}

// FindBySeriesID returns the members of a series ordered by series index.
func (r *ReservationRepository) FindBySeriesID(ctx context.Context, seriesID string) ([]booking.Reservation, error) {
	return r.queryReservations(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE series_id = ? ORDER BY series_index, date, id",
		seriesID)
}

// UpdateSeriesTotal rewrites the stored total on every member of a series.
// The guard and the update run in one transaction so a member inserted by a
// concurrent writer cannot end up with an index above the new total.
func (r *ReservationRepository) UpdateSeriesTotal(ctx context.Context, seriesID string, total int) (int64, error) {
	var affected int64
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var maxIndex sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			"SELECT MAX(series_index) FROM reservations WHERE series_id = ?",
			seriesID).Scan(&maxIndex); err != nil {
			return mapSQLiteError(err)
		}
		if maxIndex.Valid && total < int(maxIndex.Int64) {
			return fmt.Errorf("series total %d below highest index %d: %w", total, maxIndex.Int64, persistence.ErrConstraintViolation)
		}
		result, err := tx.ExecContext(ctx,
			"UPDATE reservations SET series_total = ?, updated_at = ? WHERE series_id = ?",
			total, time.Now().UTC().Format(time.RFC3339), seriesID)
		if err != nil {
			return mapSQLiteError(err)
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (r *ReservationRepository) queryReservations(ctx context.Context, query string, args ...any) ([]booking.Reservation, error) {
	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var reservations []booking.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	return reservations, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (booking.Reservation, error) {
	var (
		reservation          booking.Reservation
		startRaw, endRaw     string
		seriesID             sql.NullString
		seriesIdx, seriesTot sql.NullInt64
		createdAt, updatedAt string
	)

	err := row.Scan(
		&reservation.ID,
		&reservation.RoomID,
		&reservation.Title,
		&reservation.Description,
		&reservation.Date,
		&startRaw,
		&endRaw,
		&seriesID,
		&seriesIdx,
		&seriesTot,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return booking.Reservation{}, err
	}

	// Normalize once on load; callers never see the raw shape ambiguity.
	reservation.Start = timeutil.ParseLocalTime(startRaw)
	reservation.End = timeutil.ParseLocalTime(endRaw)
	reservation.SeriesID = seriesID.String
	reservation.SeriesIndex = int(seriesIdx.Int64)
	reservation.SeriesTotal = int(seriesTot.Int64)
	reservation.CreatedAt = parseTimestamp(createdAt)
	reservation.UpdatedAt = parseTimestamp(updatedAt)
	return reservation, nil
}

func startHHMM(reservation booking.Reservation) sql.NullString {
	if hhmm, ok := reservation.Start.HHMM(); ok {
		return sql.NullString{String: hhmm, Valid: true}
	}
	return sql.NullString{}
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullInt(value int) sql.NullInt64 {
	if value == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(value), Valid: true}
}

func parseTimestamp(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed") {
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	return err
}
