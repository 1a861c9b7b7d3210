package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	userserrors "roomly/internal/users/errors"
	pgtx "roomly/pkg/db/postgres"
	"roomly/pkg/model"
)

const userColumns = `id, name, id_number, phone, position, role, created_at, updated_at`

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(conn *sql.DB) UserRepository {
	return &postgresUserRepository{db: conn}
}

func (r *postgresUserRepository) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC().Truncate(time.Microsecond)

	var id int64
	err := pgtx.Conn(ctx, r.db).QueryRowContext(ctx,
		`INSERT INTO users (name, id_number, phone, position, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
		user.Name, user.IDNumber, user.Phone, user.Position, user.Role, now,
	).Scan(&id)
	if err != nil {
		if pgtx.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", userserrors.ErrDuplicate, user.IDNumber)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = strconv.FormatInt(id, 10)
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *postgresUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	userID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, id, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
}

func (r *postgresUserRepository) FindByCredentials(ctx context.Context, idNumber, phone string) (*model.User, error) {
	return r.findOne(ctx, idNumber, `SELECT `+userColumns+` FROM users WHERE id_number = $1 AND phone = $2`, idNumber, phone)
}

func (r *postgresUserRepository) findOne(ctx context.Context, key, query string, args ...any) (*model.User, error) {
	user, err := scanUser(pgtx.Conn(ctx, r.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", userserrors.ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (r *postgresUserRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.User, error) {
	rows, err := pgtx.Conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY name, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode users: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func (r *postgresUserRepository) Update(ctx context.Context, user *model.User) error {
	userID, err := parseID(user.ID)
	if err != nil {
		return err
	}

	user.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	result, err := pgtx.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE users SET name = $1, id_number = $2, phone = $3, position = $4, role = $5, updated_at = $6
		 WHERE id = $7`,
		user.Name, user.IDNumber, user.Phone, user.Position, user.Role, user.UpdatedAt, userID,
	)
	if err != nil {
		if pgtx.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", userserrors.ErrDuplicate, user.IDNumber)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectOne(result, user.ID)
}

func (r *postgresUserRepository) Delete(ctx context.Context, id string) error {
	userID, err := parseID(id)
	if err != nil {
		return err
	}

	result, err := pgtx.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return expectOne(result, id)
}

func (r *postgresUserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := pgtx.Conn(ctx, r.db).QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		user model.User
		id   int64
	)
	err := row.Scan(&id, &user.Name, &user.IDNumber, &user.Phone, &user.Position, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.ID = strconv.FormatInt(id, 10)
	return &user, nil
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}
	return n, nil
}

func expectOne(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", userserrors.ErrNotFound, id)
	}
	return nil
}
