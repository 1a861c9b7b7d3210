package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	pgtx "roomly/pkg/db/postgres"
	"roomly/pkg/model"
)

type postgresAuditRepository struct {
	db *sql.DB
}

func NewPostgresAuditRepository(conn *sql.DB) AuditRepository {
	return &postgresAuditRepository{db: conn}
}

func (r *postgresAuditRepository) Append(ctx context.Context, entry *model.AuditEntry) (bool, error) {
	entry.RecordedAt = time.Now().UTC().Truncate(time.Microsecond)

	var id int64
	err := pgtx.Conn(ctx, r.db).QueryRowContext(ctx,
		`INSERT INTO booking_audit
		   (event_id, event_type, booking_id, user_id, room_id, booking_date, start_time, end_time, occurred_at, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (event_id) DO NOTHING
		 RETURNING id`,
		entry.EventID, entry.EventType, entry.BookingID, entry.UserID, entry.RoomID,
		entry.BookingDate, entry.StartTime, entry.EndTime, entry.OccurredAt, entry.RecordedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to append audit entry: %w", err)
	}

	entry.ID = strconv.FormatInt(id, 10)
	return true, nil
}

func (r *postgresAuditRepository) FindByBooking(ctx context.Context, bookingID string) ([]*model.AuditEntry, error) {
	rows, err := pgtx.Conn(ctx, r.db).QueryContext(ctx,
		`SELECT id, event_id, event_type, booking_id, user_id, room_id, booking_date, start_time, end_time, occurred_at, recorded_at
		 FROM booking_audit WHERE booking_id = $1 ORDER BY occurred_at, id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	entries := []*model.AuditEntry{}
	for rows.Next() {
		var (
			e  model.AuditEntry
			id int64
		)
		if err := rows.Scan(&id, &e.EventID, &e.EventType, &e.BookingID, &e.UserID, &e.RoomID,
			&e.BookingDate, &e.StartTime, &e.EndTime, &e.OccurredAt, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to decode audit entries: %w", err)
		}
		e.ID = strconv.FormatInt(id, 10)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}
