package model

import (
	"time"
)

type Booking struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID      string    `json:"user_id" bson:"user_id"`
	RoomID      string    `json:"room_id" bson:"room_id"`
	BookingDate string    `json:"booking_date" bson:"booking_date"`
	StartTime   string    `json:"start_time" bson:"start_time"`
	EndTime     string    `json:"end_time" bson:"end_time"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Interval parses the stored start and end times.
func (b *Booking) Interval() (Interval, error) {
	return ParseInterval(b.StartTime, b.EndTime)
}

// BookingRequest is the create payload. The user id comes from the caller's
// identity, not from the body.
type BookingRequest struct {
	RoomID      string `json:"room_id" validate:"required,max=64"`
	BookingDate string `json:"booking_date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time" validate:"required,clock_time"`
	EndTime     string `json:"end_time" validate:"required,clock_time"`
}

// BookingUpdate carries only the fields being changed. Nil fields keep the
// stored value.
type BookingUpdate struct {
	RoomID      *string `json:"room_id,omitempty" validate:"omitempty,min=1,max=64"`
	BookingDate *string `json:"booking_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartTime   *string `json:"start_time,omitempty" validate:"omitempty,clock_time"`
	EndTime     *string `json:"end_time,omitempty" validate:"omitempty,clock_time"`
}

func (u *BookingUpdate) IsEmpty() bool {
	return u.RoomID == nil && u.BookingDate == nil && u.StartTime == nil && u.EndTime == nil
}

// Apply overlays the update onto a copy of the booking.
func (u *BookingUpdate) Apply(b *Booking) *Booking {
	merged := *b
	if u.RoomID != nil {
		merged.RoomID = *u.RoomID
	}
	if u.BookingDate != nil {
		merged.BookingDate = *u.BookingDate
	}
	if u.StartTime != nil {
		merged.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		merged.EndTime = *u.EndTime
	}
	return &merged
}

// BookingDetails is a booking joined with its user and room at read time.
// User or Room is nil when the reference no longer resolves.
type BookingDetails struct {
	*Booking
	User *User `json:"user"`
	Room *Room `json:"room"`
}

type BookingFilter struct {
	RoomID      string
	BookingDate string
	UserID      string
}

// Candidate is a reservation being checked before commit. ExcludeID names a
// booking to ignore, used when a booking is moved.
type Candidate struct {
	RoomID      string
	BookingDate string
	Interval    Interval
	ExcludeID   string
}

type Outcome string

const (
	OutcomeBooked   Outcome = "booked"
	OutcomeConflict Outcome = "conflict"
)

// Conflict describes the existing booking that blocked a reservation.
type Conflict struct {
	BookingID   string `json:"booking_id"`
	RoomID      string `json:"room_id"`
	BookingDate string `json:"booking_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

func NewConflict(b *Booking) *Conflict {
	return &Conflict{
		BookingID:   b.ID,
		RoomID:      b.RoomID,
		BookingDate: b.BookingDate,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
	}
}

// Reservation is the result of a create or update. Exactly one of Booking
// and Conflict is set, matching Outcome.
type Reservation struct {
	Outcome  Outcome   `json:"outcome"`
	Booking  *Booking  `json:"booking,omitempty"`
	Conflict *Conflict `json:"conflict,omitempty"`
}

func Booked(b *Booking) *Reservation {
	return &Reservation{Outcome: OutcomeBooked, Booking: b}
}

func Conflicted(existing *Booking) *Reservation {
	return &Reservation{Outcome: OutcomeConflict, Conflict: NewConflict(existing)}
}

func (r *Reservation) IsConflict() bool {
	return r.Outcome == OutcomeConflict
}
