package service

import (
	"context"
	"fmt"

	"roomly/internal/bookings/repository"
	"roomly/pkg/model"
)

// ConflictChecker finds an existing booking that collides with a candidate
// reservation. It never writes.
type ConflictChecker struct {
	repo repository.BookingRepository
}

func NewConflictChecker(repo repository.BookingRepository) *ConflictChecker {
	return &ConflictChecker{repo: repo}
}

// FindConflict returns the earliest booking on the candidate's room and date
// whose interval overlaps the candidate, or nil when the slot is free.
func (c *ConflictChecker) FindConflict(ctx context.Context, candidate model.Candidate) (*model.Booking, error) {
	existing, err := c.repo.FindByRoomAndDate(ctx, candidate.RoomID, candidate.BookingDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for room %s on %s: %w", candidate.RoomID, candidate.BookingDate, err)
	}

	for _, b := range existing {
		if candidate.ExcludeID != "" && b.ID == candidate.ExcludeID {
			continue
		}
		interval, err := b.Interval()
		if err != nil {
			// A stored row that no longer parses cannot be proven free.
			return b, nil
		}
		if interval.Overlaps(candidate.Interval) {
			return b, nil
		}
	}
	return nil, nil
}
