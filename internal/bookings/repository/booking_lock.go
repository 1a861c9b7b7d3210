package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	bookingserrors "roomly/internal/bookings/errors"
	"roomly/pkg/config"
	mongotx "roomly/pkg/db/mongo"
	pgtx "roomly/pkg/db/postgres"
	"roomly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Booking_locks"

// BookingLockRepository stores advisory slot locks.
type BookingLockRepository interface {
	// Acquire takes the lock, replacing an expired holder. It returns
	// ErrLockHeld while another owner holds an unexpired lock.
	Acquire(ctx context.Context, lock *model.BookingLock) error
	// Release removes the lock if it is still owned by lock.Owner.
	Release(ctx context.Context, lock *model.BookingLock) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type mongoBookingLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingLockRepository(cfg *config.Config) BookingLockRepository {
	database := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		cfg:        cfg,
		collection: database.Collection(LockCollectionName),
	}
}

func (r *mongoBookingLockRepository) Acquire(ctx context.Context, lock *model.BookingLock) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	lock.CreatedAt = now

	_, err := r.collection.InsertOne(ctx, lock)
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to create booking lock: %w", err)
	}

	// Take over a lock whose holder let it expire.
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": lock.ID, "expires_at": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{
			"owner":      lock.Owner,
			"expires_at": lock.ExpiresAt,
			"created_at": lock.CreatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to take over booking lock: %w", err)
	}
	if result.ModifiedCount == 0 {
		return bookingserrors.ErrLockHeld
	}
	return nil
}

func (r *mongoBookingLockRepository) Release(ctx context.Context, lock *model.BookingLock) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lock.ID, "owner": lock.Owner})
	if err != nil {
		return fmt.Errorf("failed to release booking lock: %w", err)
	}
	return nil
}

func (r *mongoBookingLockRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired booking locks: %w", err)
	}
	return result.DeletedCount, nil
}

type postgresBookingLockRepository struct {
	db *sql.DB
}

func NewPostgresBookingLockRepository(conn *sql.DB) BookingLockRepository {
	return &postgresBookingLockRepository{db: conn}
}

func (r *postgresBookingLockRepository) Acquire(ctx context.Context, lock *model.BookingLock) error {
	now := time.Now().UTC()
	lock.CreatedAt = now

	result, err := pgtx.Conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO booking_locks (id, owner, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		   SET owner = EXCLUDED.owner, expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at
		   WHERE booking_locks.expires_at <= $4`,
		lock.ID, lock.Owner, lock.ExpiresAt, now,
	)
	if err != nil {
		return fmt.Errorf("failed to acquire booking lock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to acquire booking lock: %w", err)
	}
	if affected == 0 {
		return bookingserrors.ErrLockHeld
	}
	return nil
}

func (r *postgresBookingLockRepository) Release(ctx context.Context, lock *model.BookingLock) error {
	_, err := pgtx.Conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM booking_locks WHERE id = $1 AND owner = $2`, lock.ID, lock.Owner)
	if err != nil {
		return fmt.Errorf("failed to release booking lock: %w", err)
	}
	return nil
}

func (r *postgresBookingLockRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := pgtx.Conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM booking_locks WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired booking locks: %w", err)
	}
	return result.RowsAffected()
}
