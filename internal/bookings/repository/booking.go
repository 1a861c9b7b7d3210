package repository

import (
	"context"

	"roomly/pkg/db"
	"roomly/pkg/model"
)

const (
	CollectionName = "Bookings"
	TableName      = "bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context) ([]*model.Booking, error)
	// FindByRoomAndDate returns every booking of the room on that exact date,
	// ordered by start time.
	FindByRoomAndDate(ctx context.Context, roomID, bookingDate string) ([]*model.Booking, error)
	Search(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
	Update(ctx context.Context, booking *model.Booking) error
	Delete(ctx context.Context, id string) (*model.Booking, error)
	Count(ctx context.Context) (int64, error)
	ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) error
}
