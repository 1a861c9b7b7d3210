package model

import (
	"fmt"
	"time"
)

// BookingLock is an advisory lock over one room on one date. Holding it
// serialises the overlap check and the write for that slot.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func BookingLockID(roomID, bookingDate string) string {
	return fmt.Sprintf("booking_lock_%s_%s", roomID, bookingDate)
}

func (l *BookingLock) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}
