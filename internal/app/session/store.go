// Package session keeps the per-login projection of the authenticated user.
// A record is created at login, rewritten when the user edits their own
// account, and removed at logout. Nothing here reads the users table; the
// projection stays as saved until the next explicit save.
package session

import (
	"context"
	"errors"
	"time"

	"family_ledger/internal/domain/model"
)

// ErrNotFound is returned when a session id is unknown, expired or revoked.
var ErrNotFound = errors.New("session not found")

type Store interface {
	Save(ctx context.Context, sid string, session model.Session, ttl time.Duration) error
	Get(ctx context.Context, sid string) (model.Session, error)
	Delete(ctx context.Context, sid string) error
	Close() error
}
