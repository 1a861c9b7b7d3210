package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	roomserrors "roomly/internal/rooms/errors"
	"roomly/internal/rooms/repository"
	"roomly/internal/rooms/validator"
	"roomly/pkg/config"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/model"
	"roomly/pkg/sanitizer"
)

type RoomService interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Room, int64, error)
	Update(ctx context.Context, id string, update *model.RoomUpdate) (*model.Room, error)
	Delete(ctx context.Context, id string) error

	// Find is the lookup used by other services: a missing room or a
	// malformed id yields nil, nil.
	Find(ctx context.Context, id string) (*model.Room, error)
}

type roomService struct {
	repo      repository.RoomRepository
	validator *validator.RoomValidator
	cfg       *config.Config
}

func NewRoomService(repo repository.RoomRepository, validator *validator.RoomValidator, cfg *config.Config) RoomService {
	return &roomService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *roomService) Create(ctx context.Context, room *model.Room) error {
	sanitizer.SanitizeRoom(room)
	if err := s.validator.Validate(room); err != nil {
		s.cfg.Log.Warn("Room validation failed", "name", room.Name, "error", err)
		return err
	}

	if err := s.repo.Create(ctx, room); err != nil {
		s.cfg.Log.Error("Failed to create room", "name", room.Name, "error", err)
		return apperrors.Internal("Failed to create room", err)
	}

	s.cfg.Log.Info("Room created successfully", "room_id", room.ID, "name", room.Name)
	return nil
}

func (s *roomService) GetByID(ctx context.Context, id string) (*model.Room, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID is required")
	}

	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}
	return room, nil
}

func (s *roomService) Find(ctx context.Context, id string) (*model.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) || errors.Is(err, roomserrors.ErrInvalidID) {
			return nil, nil
		}
		return nil, fmt.Errorf("room lookup %s: %w", id, err)
	}
	return room, nil
}

func (s *roomService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Room, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var (
		wg                sync.WaitGroup
		rooms             []*model.Room
		count             int64
		findErr, countErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		rooms, findErr = s.repo.FindAll(ctx, limit, offset)
	}()
	go func() {
		defer wg.Done()
		count, countErr = s.repo.Count(ctx)
	}()
	wg.Wait()

	if findErr != nil {
		s.cfg.Log.Error("Failed to list rooms", "limit", limit, "offset", offset, "error", findErr)
		return nil, 0, apperrors.Internal("Failed to list rooms", findErr)
	}
	if countErr != nil {
		s.cfg.Log.Error("Failed to count rooms", "error", countErr)
		return nil, 0, apperrors.Internal("Failed to count rooms", countErr)
	}
	return rooms, count, nil
}

func (s *roomService) Update(ctx context.Context, id string, update *model.RoomUpdate) (*model.Room, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID is required")
	}

	sanitizer.SanitizeRoomUpdate(update)
	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Room update validation failed", "room_id", id, "error", err)
		return nil, err
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}

	merged := update.Apply(current)
	if err := s.validator.Validate(merged); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, merged); err != nil {
		return nil, s.translate(err, id)
	}

	s.cfg.Log.Info("Room updated successfully", "room_id", id)
	return merged, nil
}

func (s *roomService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Room ID is required")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translate(err, id)
	}

	// Bookings that reference the room are left in place.
	s.cfg.Log.Info("Room deleted successfully", "room_id", id)
	return nil
}

func (s *roomService) translate(err error, id string) error {
	switch {
	case errors.Is(err, roomserrors.ErrNotFound), errors.Is(err, roomserrors.ErrInvalidID):
		return apperrors.NotFoundWithID("Room", id)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("Room store did not respond in time")
	default:
		s.cfg.Log.Error("Room store failure", "room_id", id, "error", err)
		return apperrors.Internal("Room store failure", err)
	}
}
