package model

import (
	"fmt"
	"time"
)

// Role is the closed set of authorization roles. Anything outside the three
// constants is rejected at the boundary by ParseRole, so downstream code can
// compare roles directly instead of string-matching at every call site.
type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole validates a raw role string. An empty string falls back to
// RoleUser, the default the original store applied on insert.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleUser:
		return Role(s), nil
	case "":
		return RoleUser, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// AdminEquivalent reports whether the role may manage debts and see the
// management screens.
func (r Role) AdminEquivalent() bool {
	return r == RoleAdmin || r == RoleOwner
}

// Owner reports whether the role is the owner role.
func (r Role) Owner() bool {
	return r == RoleOwner
}

// BootstrapUserID is the seed owner account created on first migration.
// It can never be deleted, and only the owner itself may edit it.
const BootstrapUserID int64 = 1

type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"` // Not exposed
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}
