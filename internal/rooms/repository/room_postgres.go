package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	roomserrors "roomly/internal/rooms/errors"
	pgtx "roomly/pkg/db/postgres"
	"roomly/pkg/model"
)

const roomColumns = `id, name, description, capacity, created_at, updated_at`

type postgresRoomRepository struct {
	db *sql.DB
}

func NewPostgresRoomRepository(conn *sql.DB) RoomRepository {
	return &postgresRoomRepository{db: conn}
}

func (r *postgresRoomRepository) Create(ctx context.Context, room *model.Room) error {
	now := time.Now().UTC().Truncate(time.Microsecond)

	var id int64
	err := pgtx.Conn(ctx, r.db).QueryRowContext(ctx,
		`INSERT INTO rooms (name, description, capacity, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4) RETURNING id`,
		room.Name, room.Description, room.Capacity, now,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	room.ID = strconv.FormatInt(id, 10)
	room.CreatedAt = now
	room.UpdatedAt = now
	return nil
}

func (r *postgresRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	roomID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	row := pgtx.Conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, roomID)
	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", roomserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return room, nil
}

func (r *postgresRoomRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Room, error) {
	rows, err := pgtx.Conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+roomColumns+` FROM rooms ORDER BY name, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	rooms := []*model.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode rooms: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return rooms, nil
}

func (r *postgresRoomRepository) Update(ctx context.Context, room *model.Room) error {
	roomID, err := parseID(room.ID)
	if err != nil {
		return err
	}

	room.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	result, err := pgtx.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE rooms SET name = $1, description = $2, capacity = $3, updated_at = $4 WHERE id = $5`,
		room.Name, room.Description, room.Capacity, room.UpdatedAt, roomID,
	)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	return expectOne(result, room.ID)
}

func (r *postgresRoomRepository) Delete(ctx context.Context, id string) error {
	roomID, err := parseID(id)
	if err != nil {
		return err
	}

	result, err := pgtx.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, roomID)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	return expectOne(result, id)
}

func (r *postgresRoomRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := pgtx.Conn(ctx, r.db).QueryRowContext(ctx, `SELECT count(*) FROM rooms`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rooms: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*model.Room, error) {
	var (
		room model.Room
		id   int64
	)
	if err := row.Scan(&id, &room.Name, &room.Description, &room.Capacity, &room.CreatedAt, &room.UpdatedAt); err != nil {
		return nil, err
	}
	room.ID = strconv.FormatInt(id, 10)
	return &room, nil
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s", roomserrors.ErrInvalidID, id)
	}
	return n, nil
}

func expectOne(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", roomserrors.ErrNotFound, id)
	}
	return nil
}
