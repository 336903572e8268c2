package model

// Session is the reduced projection of the authenticated user that is kept
// for the lifetime of a login. It never carries credentials. The projection
// is not re-validated against the users table on each request; it stays as
// written until the next explicit save (login or self-edit refresh).
type Session struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}
