package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/roombook/internal/booking"
	"github.com/example/roombook/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository on SQLite.
type RoomRepository struct {
	pool *ConnectionPool
}

// NewRoomRepository creates a SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

// CreateRoom inserts a room row.
func (r *RoomRepository) CreateRoom(ctx context.Context, room booking.Room) error {
	if room.ID == 0 {
		return persistence.ErrConstraintViolation
	}
	equipment, err := json.Marshal(equipmentOrEmpty(room.Equipment))
	if err != nil {
		return err
	}

	_, err = r.pool.DB().ExecContext(ctx, `
		INSERT INTO rooms (id, name, capacity, location, equipment, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		room.ID,
		room.Name,
		room.Capacity,
		room.Location,
		string(equipment),
		room.Description,
		room.CreatedAt.UTC().Format(time.RFC3339),
		room.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	return nil
}

// UpdateRoom rewrites a room row.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room booking.Room) error {
	equipment, err := json.Marshal(equipmentOrEmpty(room.Equipment))
	if err != nil {
		return err
	}

	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE rooms
		SET name = ?, capacity = ?, location = ?, equipment = ?, description = ?, updated_at = ?
		WHERE id = ?
	`,
		room.Name,
		room.Capacity,
		room.Location,
		string(equipment),
		room.Description,
		room.UpdatedAt.UTC().Format(time.RFC3339),
		room.ID,
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

// GetRoom loads one room by id.
func (r *RoomRepository) GetRoom(ctx context.Context, id int64) (booking.Room, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		"SELECT id, name, capacity, location, equipment, description, created_at, updated_at FROM rooms WHERE id = ?", id)
	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.Room{}, persistence.ErrNotFound
		}
		return booking.Room{}, err
	}
	return room, nil
}

// ListRooms returns every room ordered by id.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]booking.Room, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		"SELECT id, name, capacity, location, equipment, description, created_at, updated_at FROM rooms ORDER BY id")
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var rooms []booking.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// DeleteRoom removes a room by id.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id int64) error {
	result, err := r.pool.DB().ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
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

func scanRoom(row rowScanner) (booking.Room, error) {
	var (
		room                 booking.Room
		equipment            string
		createdAt, updatedAt string
	)
	err := row.Scan(&room.ID, &room.Name, &room.Capacity, &room.Location, &equipment, &room.Description, &createdAt, &updatedAt)
	if err != nil {
		return booking.Room{}, err
	}
	if err := json.Unmarshal([]byte(equipment), &room.Equipment); err != nil {
		room.Equipment = nil
	}
	room.CreatedAt = parseTimestamp(createdAt)
	room.UpdatedAt = parseTimestamp(updatedAt)
	return room, nil
}

func equipmentOrEmpty(equipment []string) []string {
	if equipment == nil {
		return []string{}
	}
	return equipment
}
