package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	bookingserrors "roomly/internal/bookings/errors"
	"roomly/pkg/db"
	pgtx "roomly/pkg/db/postgres"
	"roomly/pkg/model"
)

const bookingColumns = `id, user_id, room_id, to_char(booking_date, 'YYYY-MM-DD'),
	to_char(start_time, 'HH24:MI:SS'), to_char(end_time, 'HH24:MI:SS'), created_at, updated_at`

const slotOrderSQL = ` ORDER BY booking_date, start_time, id`

type postgresBookingRepository struct {
	db        *sql.DB
	txManager db.TransactionManager
}

func NewPostgresBookingRepository(conn *sql.DB) BookingRepository {
	return &postgresBookingRepository{
		db:        conn,
		txManager: pgtx.NewTransactionManager(conn),
	}
}

func (r *postgresBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	userID, roomID, err := parseRefs(booking)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	var id int64
	err = pgtx.Conn(ctx, r.db).QueryRowContext(ctx,
		`INSERT INTO bookings (user_id, room_id, booking_date, start_time, end_time, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
		userID, roomID, booking.BookingDate, booking.StartTime, booking.EndTime, now,
	).Scan(&id)
	if err != nil {
		if pgtx.IsExclusionViolation(err) {
			return bookingserrors.ErrTimeConflict
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	booking.ID = strconv.FormatInt(id, 10)
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (r *postgresBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	bookingID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	row := pgtx.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, bookingID)

	booking, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return booking, nil
}

func (r *postgresBookingRepository) FindAll(ctx context.Context) ([]*model.Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings`+slotOrderSQL)
}

func (r *postgresBookingRepository) FindByRoomAndDate(ctx context.Context, roomID, bookingDate string) ([]*model.Booking, error) {
	room, err := strconv.ParseInt(roomID, 10, 64)
	if err != nil {
		return []*model.Booking{}, nil
	}
	return r.query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE room_id = $1 AND booking_date = $2`+slotOrderSQL,
		room, bookingDate)
}

func (r *postgresBookingRepository) Search(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.RoomID != "" {
		room, err := strconv.ParseInt(filter.RoomID, 10, 64)
		if err != nil {
			return []*model.Booking{}, nil
		}
		add("room_id = $%d", room)
	}
	if filter.BookingDate != "" {
		add("booking_date = $%d", filter.BookingDate)
	}
	if filter.UserID != "" {
		user, err := strconv.ParseInt(filter.UserID, 10, 64)
		if err != nil {
			return []*model.Booking{}, nil
		}
		add("user_id = $%d", user)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	return r.query(ctx, query+slotOrderSQL, args...)
}

func (r *postgresBookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	bookingID, err := parseID(booking.ID)
	if err != nil {
		return err
	}
	room, err := strconv.ParseInt(booking.RoomID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: room %s", bookingserrors.ErrInvalidID, booking.RoomID)
	}

	booking.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	result, err := pgtx.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE bookings SET room_id = $1, booking_date = $2, start_time = $3, end_time = $4, updated_at = $5
		 WHERE id = $6`,
		room, booking.BookingDate, booking.StartTime, booking.EndTime, booking.UpdatedAt, bookingID,
	)
	if err != nil {
		if pgtx.IsExclusionViolation(err) {
			return bookingserrors.ErrTimeConflict
		}
		return fmt.Errorf("failed to update booking: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if affected == 0 {
		return bookingserrors.ErrNotFound
	}
	return nil
}

func (r *postgresBookingRepository) Delete(ctx context.Context, id string) (*model.Booking, error) {
	bookingID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	row := pgtx.Conn(ctx, r.db).QueryRowContext(ctx,
		`DELETE FROM bookings WHERE id = $1 RETURNING `+bookingColumns, bookingID)

	removed, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete booking: %w", err)
	}
	return removed, nil
}

func (r *postgresBookingRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := pgtx.Conn(ctx, r.db).QueryRowContext(ctx, `SELECT count(*) FROM bookings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *postgresBookingRepository) ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *postgresBookingRepository) query(ctx context.Context, query string, args ...any) ([]*model.Booking, error) {
	rows, err := pgtx.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode bookings: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var (
		b                  model.Booking
		id, userID, roomID int64
		startTime, endTime string
	)
	if err := row.Scan(&id, &userID, &roomID, &b.BookingDate, &startTime, &endTime, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.ID = strconv.FormatInt(id, 10)
	b.UserID = strconv.FormatInt(userID, 10)
	b.RoomID = strconv.FormatInt(roomID, 10)
	b.StartTime = canonicalClock(startTime)
	b.EndTime = canonicalClock(endTime)
	return &b, nil
}

// canonicalClock drops a zero seconds part, so "09:00:00" reads back as "09:00".
func canonicalClock(s string) string {
	t, err := model.ParseTimeOfDay(s)
	if err != nil {
		return s
	}
	return t.String()
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	return n, nil
}

func parseRefs(b *model.Booking) (int64, int64, error) {
	userID, err := strconv.ParseInt(b.UserID, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: user %s", bookingserrors.ErrInvalidID, b.UserID)
	}
	roomID, err := strconv.ParseInt(b.RoomID, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: room %s", bookingserrors.ErrInvalidID, b.RoomID)
	}
	return userID, roomID, nil
}
