package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/roombook/internal/booking"
	"github.com/example/roombook/internal/persistence"
)

const roomSequenceName = "rooms"

// RoomService manages the room catalog.
type RoomService struct {
	rooms    persistence.RoomRepository
	counters persistence.CounterRepository
	now      func() time.Time
	logger   *slog.Logger
}

// NewRoomService wires dependencies for room operations.
func NewRoomService(rooms persistence.RoomRepository, counters persistence.CounterRepository, now func() time.Time, logger *slog.Logger) *RoomService {
	if now == nil {
		now = time.Now
	}
	return &RoomService{rooms: rooms, counters: counters, now: now, logger: defaultLogger(logger)}
}

// CreateRoom validates and stores a new room.
func (s *RoomService) CreateRoom(ctx context.Context, input RoomInput) (booking.Room, error) {
	if s == nil || s.rooms == nil {
		return booking.Room{}, fmt.Errorf("room repository not configured")
	}

	if err := validateRoomInput(input); err != nil {
		return booking.Room{}, err
	}

	id, err := s.counters.NextSequence(ctx, roomSequenceName)
	if err != nil {
		return booking.Room{}, err
	}

	now := s.now()
	room := booking.Room{
		ID:          id,
		Name:        strings.TrimSpace(input.Name),
		Capacity:    input.Capacity,
		Location:    strings.TrimSpace(input.Location),
		Equipment:   input.Equipment,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.rooms.CreateRoom(ctx, room); err != nil {
		return booking.Room{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "RoomService", "CreateRoom", "room_id", id).InfoContext(ctx, "room created")
	return room, nil
}

// UpdateRoom validates and stores new fields for an existing room.
func (s *RoomService) UpdateRoom(ctx context.Context, id int64, input RoomInput) (booking.Room, error) {
	if s == nil || s.rooms == nil {
		return booking.Room{}, fmt.Errorf("room repository not configured")
	}

	if err := validateRoomInput(input); err != nil {
		return booking.Room{}, err
	}

	existing, err := s.rooms.GetRoom(ctx, id)
	if err != nil {
		return booking.Room{}, mapRepoError(err)
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Capacity = input.Capacity
	existing.Location = strings.TrimSpace(input.Location)
	existing.Equipment = input.Equipment
	existing.Description = input.Description
	existing.UpdatedAt = s.now()

	if err := s.rooms.UpdateRoom(ctx, existing); err != nil {
		return booking.Room{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "RoomService", "UpdateRoom", "room_id", id).InfoContext(ctx, "room updated")
	return existing, nil
}

// GetRoom loads a single room.
func (s *RoomService) GetRoom(ctx context.Context, id int64) (booking.Room, error) {
	if s == nil || s.rooms == nil {
		return booking.Room{}, fmt.Errorf("room repository not configured")
	}
	room, err := s.rooms.GetRoom(ctx, id)
	if err != nil {
		return booking.Room{}, mapRepoError(err)
	}
	return room, nil
}

// ListRooms enumerates the room catalog.
func (s *RoomService) ListRooms(ctx context.Context) ([]booking.Room, error) {
	if s == nil || s.rooms == nil {
		return nil, fmt.Errorf("room repository not configured")
	}
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return rooms, nil
}

// DeleteRoom removes a room. Rooms that still have reservations are kept
// and reported as a validation issue.
func (s *RoomService) DeleteRoom(ctx context.Context, id int64) error {
	if s == nil || s.rooms == nil {
		return fmt.Errorf("room repository not configured")
	}
	if err := s.rooms.DeleteRoom(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrConstraintViolation) {
			vErr := &ValidationError{}
			vErr.add("room_id", "room still has reservations")
			return vErr
		}
		return mapRepoError(err)
	}
	serviceLogger(ctx, s.logger, "RoomService", "DeleteRoom", "room_id", id).InfoContext(ctx, "room deleted")
	return nil
}

func validateRoomInput(input RoomInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Capacity < 0 {
		vErr.add("capacity", "capacity must not be negative")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
