package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"family_ledger/internal/common/security"
)

// Bootstrap credentials for the seed owner account. The password is stored
// bcrypt-hashed; the plaintext exists only here for first-run seeding.
const (
	bootstrapUsername = "admin"
	bootstrapPassword = "admin123"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'user',
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS debts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    from_user TEXT NOT NULL,
    to_user TEXT NOT NULL,
    amount REAL NOT NULL,
    paid REAL NOT NULL DEFAULT 0,
    description TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    username TEXT UNIQUE NOT NULL,
    password TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'user',
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS debts (
    id BIGSERIAL PRIMARY KEY,
    from_user TEXT NOT NULL,
    to_user TEXT NOT NULL,
    amount DOUBLE PRECISION NOT NULL,
    paid DOUBLE PRECISION NOT NULL DEFAULT 0,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL
);
`

// Migrate creates the schema for the given driver ("sqlite" or "postgres")
// and seeds the bootstrap owner account if it is absent.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var schema string
	switch driver {
	case "sqlite":
		schema = sqliteSchema
	case "postgres":
		schema = postgresSchema
	default:
		return fmt.Errorf("unknown storage driver %q", driver)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return seedOwner(ctx, db, driver)
}

// seedOwner inserts the id=1 owner account on first run. Existing
// installations are left untouched.
func seedOwner(ctx context.Context, db *sql.DB, driver string) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hashed, err := security.HashPassword(bootstrapPassword)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap password: %w", err)
	}

	switch driver {
	case "sqlite":
		_, err = db.ExecContext(ctx,
			`INSERT INTO users (id, username, password, role, created_at) VALUES (1, ?, ?, 'owner', ?)`,
			bootstrapUsername, hashed, sqliteTime(time.Now()),
		)
	case "postgres":
		_, err = db.ExecContext(ctx,
			`INSERT INTO users (id, username, password, role, created_at) VALUES (1, $1, $2, 'owner', $3)`,
			bootstrapUsername, hashed, time.Now(),
		)
		if err == nil {
			// Explicit id insert does not advance the sequence.
			_, err = db.ExecContext(ctx,
				`SELECT setval('users_id_seq', (SELECT MAX(id) FROM users))`)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to seed owner account: %w", err)
	}
	return nil
}
