package model

import "time"

const (
	EventBookingCreated = "booking.created"
	EventBookingUpdated = "booking.updated"
	EventBookingDeleted = "booking.deleted"
)

// BookingEvent is published after a booking write commits.
type BookingEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Booking    *Booking  `json:"booking"`
	OccurredAt time.Time `json:"occurred_at"`
}

type AuditEntry struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	EventID     string    `json:"event_id" bson:"event_id"`
	EventType   string    `json:"event_type" bson:"event_type"`
	BookingID   string    `json:"booking_id" bson:"booking_id"`
	UserID      string    `json:"user_id" bson:"user_id"`
	RoomID      string    `json:"room_id" bson:"room_id"`
	BookingDate string    `json:"booking_date" bson:"booking_date"`
	StartTime   string    `json:"start_time" bson:"start_time"`
	EndTime     string    `json:"end_time" bson:"end_time"`
	OccurredAt  time.Time `json:"occurred_at" bson:"occurred_at"`
	RecordedAt  time.Time `json:"recorded_at" bson:"recorded_at"`
}

func NewAuditEntry(e *BookingEvent) *AuditEntry {
	entry := &AuditEntry{
		EventID:    e.ID,
		EventType:  e.Type,
		OccurredAt: e.OccurredAt,
	}
	if b := e.Booking; b != nil {
		entry.BookingID = b.ID
		entry.UserID = b.UserID
		entry.RoomID = b.RoomID
		entry.BookingDate = b.BookingDate
		entry.StartTime = b.StartTime
		entry.EndTime = b.EndTime
	}
	return entry
}
