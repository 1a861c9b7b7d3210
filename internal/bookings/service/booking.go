package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingserrors "roomly/internal/bookings/errors"
	"roomly/internal/bookings/events"
	"roomly/internal/bookings/repository"
	"roomly/internal/bookings/validator"
	"roomly/pkg/config"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/model"
	"roomly/pkg/sanitizer"

	"github.com/google/uuid"
)

const (
	initialLockBackoff = 10 * time.Millisecond
	maxLockBackoff     = 200 * time.Millisecond
	publishTimeout     = 5 * time.Second
	maxUpdateAttempts  = 3
)

// errStaleRead is returned inside the critical section when the booking
// changed between the unlocked read and taking the lock.
var errStaleRead = errors.New("booking changed while waiting for the slot lock")

type RoomLookup interface {
	// Find returns nil, nil when the room does not exist.
	Find(ctx context.Context, id string) (*model.Room, error)
}

type UserLookup interface {
	// Find returns nil, nil when the user does not exist.
	Find(ctx context.Context, id string) (*model.User, error)
}

type BookingService interface {
	Create(ctx context.Context, userID string, req *model.BookingRequest) (*model.Reservation, error)
	GetByID(ctx context.Context, id string) (*model.BookingDetails, error)
	GetAll(ctx context.Context) ([]*model.Booking, error)
	Search(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
	Update(ctx context.Context, id string, update *model.BookingUpdate) (*model.Reservation, error)
	Delete(ctx context.Context, id string) (*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	checker   *ConflictChecker
	validator *validator.BookingValidator
	rooms     RoomLookup
	users     UserLookup
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	validator *validator.BookingValidator,
	rooms RoomLookup,
	users UserLookup,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		checker:   NewConflictChecker(repo),
		validator: validator,
		rooms:     rooms,
		users:     users,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, userID string, req *model.BookingRequest) (*model.Reservation, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	sanitizer.SanitizeBookingRequest(req)
	interval, err := s.validator.Validate(req)
	if err != nil {
		s.cfg.Log.Warn("Booking validation failed", "room_id", req.RoomID, "error", err)
		return nil, err
	}
	if err := s.requireRoom(ctx, req.RoomID); err != nil {
		return nil, err
	}

	booking := &model.Booking{
		UserID:      userID,
		RoomID:      req.RoomID,
		BookingDate: req.BookingDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	candidate := model.Candidate{
		RoomID:      booking.RoomID,
		BookingDate: booking.BookingDate,
		Interval:    interval,
	}

	existing, err := s.commit(ctx, candidate, func(txCtx context.Context) error {
		return s.repo.Create(txCtx, booking)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "room_id", booking.RoomID, "booking_date", booking.BookingDate, "error", err)
		return nil, s.translate(err, "")
	}
	if existing != nil {
		s.logConflict(candidate, existing)
		return model.Conflicted(existing), nil
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"user_id", booking.UserID,
		"room_id", booking.RoomID,
		"booking_date", booking.BookingDate,
		"start_time", booking.StartTime,
		"end_time", booking.EndTime,
	)
	s.publish(ctx, model.EventBookingCreated, booking)
	return model.Booked(booking), nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.BookingDetails, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}

	details := &model.BookingDetails{Booking: booking}
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		user, err := s.users.Find(ctx, booking.UserID)
		if err != nil {
			s.cfg.Log.Warn("Failed to resolve booking user", "id", id, "user_id", booking.UserID, "error", err)
			return
		}
		details.User = user
	}()

	go func() {
		defer wg.Done()
		room, err := s.rooms.Find(ctx, booking.RoomID)
		if err != nil {
			s.cfg.Log.Warn("Failed to resolve booking room", "id", id, "room_id", booking.RoomID, "error", err)
			return
		}
		details.Room = room
	}()

	wg.Wait()
	return details, nil
}

func (s *bookingService) GetAll(ctx context.Context) ([]*model.Booking, error) {
	bookings, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) Search(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	if filter.BookingDate != "" {
		if _, err := model.ParseDate(filter.BookingDate); err != nil {
			return nil, apperrors.InvalidInput("booking_date must be in YYYY-MM-DD format")
		}
	}

	bookings, err := s.repo.Search(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to search bookings",
			"room_id", filter.RoomID,
			"booking_date", filter.BookingDate,
			"user_id", filter.UserID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to search bookings", err)
	}

	s.cfg.Log.Debug("Booking search completed", "room_id", filter.RoomID, "booking_date", filter.BookingDate, "count", len(bookings))
	return bookings, nil
}

func (s *bookingService) Update(ctx context.Context, id string, update *model.BookingUpdate) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	sanitizer.SanitizeBookingUpdate(update)
	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		reservation, err := s.updateOnce(ctx, id, update)
		if !errors.Is(err, errStaleRead) {
			return reservation, err
		}
		if attempt == maxUpdateAttempts {
			s.cfg.Log.Warn("Booking kept changing during update", "id", id, "attempts", attempt)
			return nil, apperrors.Conflict("Booking was modified concurrently, please retry")
		}
	}
}

// updateOnce merges the update over the current booking, then re-checks
// the merged slot under that slot's lock. The booking is re-read inside
// the critical section and errStaleRead is returned if it moved.
func (s *bookingService) updateOnce(ctx context.Context, id string, update *model.BookingUpdate) (*model.Reservation, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}

	merged := update.Apply(existing)
	interval, err := s.validator.ValidateMerged(merged)
	if err != nil {
		s.cfg.Log.Warn("Merged booking validation failed", "id", id, "error", err)
		return nil, err
	}
	if merged.RoomID != existing.RoomID {
		if err := s.requireRoom(ctx, merged.RoomID); err != nil {
			return nil, err
		}
	}

	candidate := model.Candidate{
		RoomID:      merged.RoomID,
		BookingDate: merged.BookingDate,
		Interval:    interval,
		ExcludeID:   id,
	}

	conflict, err := s.commit(ctx, candidate, func(txCtx context.Context) error {
		current, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if !sameSlot(update.Apply(current), merged) {
			return errStaleRead
		}
		return s.repo.Update(txCtx, merged)
	})
	if errors.Is(err, errStaleRead) {
		return nil, err
	}
	if err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return nil, s.translate(err, id)
	}
	if conflict != nil {
		s.logConflict(candidate, conflict)
		return model.Conflicted(conflict), nil
	}

	s.cfg.Log.Info("Booking updated successfully",
		"id", id,
		"room_id", merged.RoomID,
		"booking_date", merged.BookingDate,
		"start_time", merged.StartTime,
		"end_time", merged.EndTime,
	)
	s.publish(ctx, model.EventBookingUpdated, merged)
	return model.Booked(merged), nil
}

func (s *bookingService) Delete(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		if !errors.Is(err, bookingserrors.ErrNotFound) {
			s.cfg.Log.Error("Failed to delete booking", "id", id, "error", err)
		}
		return nil, s.translate(err, id)
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id, "room_id", removed.RoomID, "booking_date", removed.BookingDate)
	s.publish(ctx, model.EventBookingDeleted, removed)
	return removed, nil
}

// --- Helpers ---

// commit runs write inside a transaction that first re-checks the
// candidate, all while holding the candidate's slot lock. It returns the
// blocking booking when the slot is taken, in which case nothing was written.
func (s *bookingService) commit(ctx context.Context, candidate model.Candidate, write func(ctx context.Context) error) (*model.Booking, error) {
	var conflict *model.Booking

	err := s.withSlotLock(ctx, candidate.RoomID, candidate.BookingDate, func(lockCtx context.Context) error {
		return s.repo.ExecuteTransaction(lockCtx, func(txCtx context.Context) error {
			// The transaction body may be retried.
			conflict = nil

			existing, err := s.checker.FindConflict(txCtx, candidate)
			if err != nil {
				return err
			}
			if existing != nil {
				conflict = existing
				return nil
			}
			return write(txCtx)
		})
	})

	if errors.Is(err, bookingserrors.ErrTimeConflict) {
		// The store's own overlap constraint fired. Report it the same way.
		existing, findErr := s.checker.FindConflict(ctx, candidate)
		if findErr != nil || existing == nil {
			existing = &model.Booking{RoomID: candidate.RoomID, BookingDate: candidate.BookingDate}
		}
		return existing, nil
	}
	return conflict, err
}

// withSlotLock runs fn while holding the lock for one room and date. fn's
// context ends when the lock expires, so work can never outlive the lock.
func (s *bookingService) withSlotLock(ctx context.Context, roomID, bookingDate string, fn func(ctx context.Context) error) error {
	lock, err := s.acquireSlotLock(ctx, roomID, bookingDate)
	if err != nil {
		return err
	}
	defer s.releaseSlotLock(ctx, lock)

	lockCtx, cancel := context.WithDeadline(ctx, lock.ExpiresAt)
	defer cancel()
	return fn(lockCtx)
}

// acquireSlotLock retries with exponential backoff until BookingLockWait
// has elapsed. Waiters are served in no particular order.
func (s *bookingService) acquireSlotLock(ctx context.Context, roomID, bookingDate string) (*model.BookingLock, error) {
	owner := uuid.NewString()
	deadline := time.Now().Add(s.cfg.BookingLockWait)
	backoff := initialLockBackoff

	for {
		lock := &model.BookingLock{
			ID:        model.BookingLockID(roomID, bookingDate),
			Owner:     owner,
			ExpiresAt: time.Now().Add(s.cfg.BookingLockTTL).UTC(),
		}

		err := s.lockRepo.Acquire(ctx, lock)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, bookingserrors.ErrLockHeld) {
			return nil, apperrors.Internal("Failed to acquire booking lock", err)
		}
		if time.Now().Add(backoff).After(deadline) {
			s.cfg.Log.Warn("Timed out waiting for booking lock", "lock_id", lock.ID, "wait", s.cfg.BookingLockWait)
			return nil, apperrors.Timeout("This room is busy for the selected date, please retry")
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, apperrors.Timeout("Request cancelled while waiting for booking lock")
		case <-timer.C:
		}
		backoff = min(backoff*2, maxLockBackoff)
	}
}

func (s *bookingService) releaseSlotLock(ctx context.Context, lock *model.BookingLock) {
	if err := s.lockRepo.Release(context.WithoutCancel(ctx), lock); err != nil {
		s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lock.ID, "error", err)
	}
}

// requireRoom rejects references to rooms that do not exist.
func (s *bookingService) requireRoom(ctx context.Context, roomID string) error {
	room, err := s.rooms.Find(ctx, roomID)
	if err != nil {
		s.cfg.Log.Error("Failed to look up room", "room_id", roomID, "error", err)
		return apperrors.Internal("Failed to verify room", err)
	}
	if room == nil {
		return apperrors.Validation("Validation failed", map[string]any{
			"room_id": "room " + roomID + " does not exist",
		})
	}
	return nil
}

func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, eventType, booking); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event", "type", eventType, "id", booking.ID, "error", err)
	}
}

func (s *bookingService) logConflict(candidate model.Candidate, existing *model.Booking) {
	s.cfg.Log.Info("Booking rejected by conflict",
		"room_id", candidate.RoomID,
		"booking_date", candidate.BookingDate,
		"requested", candidate.Interval.String(),
		"conflicting_id", existing.ID,
	)
}

// translate maps repository errors to AppErrors. AppErrors pass through.
func (s *bookingService) translate(err error, id string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		if id == "" {
			return apperrors.Validation("Validation failed", map[string]any{"room_id": "room_id has an invalid format"})
		}
		return apperrors.InvalidInput("Invalid booking ID format")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("Booking operation timed out")
	default:
		return apperrors.Internal("Failed to save booking", err)
	}
}

func sameSlot(a, b *model.Booking) bool {
	return a.RoomID == b.RoomID &&
		a.BookingDate == b.BookingDate &&
		a.StartTime == b.StartTime &&
		a.EndTime == b.EndTime
}
