package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"roomly/pkg/logger"
)

type Step struct {
	Name string
	SQL  string
}

// Steps are idempotent and run in order inside one transaction.
var Steps = []Step{
	{
		Name: "btree_gist extension",
		SQL:  `CREATE EXTENSION IF NOT EXISTS btree_gist`,
	},
	{
		Name: "rooms",
		SQL: `CREATE TABLE IF NOT EXISTS rooms (
			id          BIGSERIAL PRIMARY KEY,
			name        VARCHAR(100) NOT NULL,
			description VARCHAR(500) NOT NULL DEFAULT '',
			capacity    INTEGER NOT NULL CHECK (capacity BETWEEN 1 AND 1000),
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		Name: "users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
			id         BIGSERIAL PRIMARY KEY,
			name       VARCHAR(100) NOT NULL,
			id_number  VARCHAR(32) NOT NULL UNIQUE,
			phone      VARCHAR(16) NOT NULL UNIQUE,
			position   VARCHAR(100) NOT NULL DEFAULT '',
			role       VARCHAR(16) NOT NULL CHECK (role IN ('admin', 'user')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		// No foreign keys: bookings may outlive their room or user.
		Name: "bookings",
		SQL: `CREATE TABLE IF NOT EXISTS bookings (
			id           BIGSERIAL PRIMARY KEY,
			user_id      BIGINT NOT NULL,
			room_id      BIGINT NOT NULL,
			booking_date DATE NOT NULL,
			start_time   TIME NOT NULL,
			end_time     TIME NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT bookings_valid_range CHECK (start_time < end_time)
		)`,
	},
	{
		Name: "bookings no-overlap constraint",
		SQL: `DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_no_overlap') THEN
				ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap EXCLUDE USING gist (
					room_id WITH =,
					tsrange(booking_date + start_time, booking_date + end_time, '[)') WITH &&
				);
			END IF;
		END $$`,
	},
	{
		Name: "bookings slot index",
		SQL:  `CREATE INDEX IF NOT EXISTS bookings_room_date_start_idx ON bookings (room_id, booking_date, start_time)`,
	},
	{
		Name: "bookings user index",
		SQL:  `CREATE INDEX IF NOT EXISTS bookings_user_idx ON bookings (user_id)`,
	},
	{
		Name: "booking_locks",
		SQL: `CREATE TABLE IF NOT EXISTS booking_locks (
			id         VARCHAR(128) PRIMARY KEY,
			owner      VARCHAR(64) NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		Name: "booking_locks expiry index",
		SQL:  `CREATE INDEX IF NOT EXISTS booking_locks_expires_at_idx ON booking_locks (expires_at)`,
	},
	{
		Name: "booking_audit",
		SQL: `CREATE TABLE IF NOT EXISTS booking_audit (
			id           BIGSERIAL PRIMARY KEY,
			event_id     VARCHAR(64) NOT NULL UNIQUE,
			event_type   VARCHAR(32) NOT NULL,
			booking_id   VARCHAR(64) NOT NULL DEFAULT '',
			user_id      VARCHAR(64) NOT NULL DEFAULT '',
			room_id      VARCHAR(64) NOT NULL DEFAULT '',
			booking_date VARCHAR(10) NOT NULL DEFAULT '',
			start_time   VARCHAR(8) NOT NULL DEFAULT '',
			end_time     VARCHAR(8) NOT NULL DEFAULT '',
			occurred_at  TIMESTAMPTZ NOT NULL,
			recorded_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		Name: "booking_audit booking index",
		SQL:  `CREATE INDEX IF NOT EXISTS booking_audit_booking_idx ON booking_audit (booking_id, occurred_at)`,
	},
}

func RunMigration(ctx context.Context, db *sql.DB, log *logger.Logger) error {
	log.Info("Running Postgres migrations", "steps", len(Steps))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}

	for _, step := range Steps {
		if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Error("Failed to roll back migration", "error", rbErr)
			}
			return fmt.Errorf("migration step %q failed: %w", step.Name, err)
		}
		log.Info("Applied migration step", "step", step.Name)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	log.Info("All Postgres migrations applied successfully")
	return nil
}
