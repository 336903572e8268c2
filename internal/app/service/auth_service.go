package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"family_ledger/internal/app/session"
	"family_ledger/internal/common"
	"family_ledger/internal/common/security"
	"family_ledger/internal/domain/model"
	"family_ledger/internal/domain/repository"
	"family_ledger/internal/platform/config"

	"github.com/google/uuid"
)

// Caller identifies the authenticated session behind a request: the live
// projection plus the session id it is stored under.
type Caller struct {
	SID string
	model.Session
}

type AuthService struct {
	userRepo repository.UserRepository
	sessions session.Store
}

func NewAuthService(userRepo repository.UserRepository, sessions session.Store) *AuthService {
	return &AuthService{userRepo: userRepo, sessions: sessions}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	model.Session
	Token string `json:"token"`
}

// Login authenticates by exact username match and bcrypt comparison. On
// success it persists the reduced projection under a fresh session id and
// issues a token carrying that id.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, fmt.Errorf("username and password are required: %w", common.ErrValidation)
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials // Generic message for security
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.ErrInvalidCredentials
	}

	projection := model.Session{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}

	sid := uuid.NewString()
	if err := s.sessions.Save(ctx, sid, projection, config.AppConfig.JWTExp); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	token, err := security.GenerateToken(sid, projection)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &LoginResponse{Session: projection, Token: token}, nil
}

// Current returns the stored projection for an active session. The users
// table is deliberately not consulted; a stale projection is accepted until
// the next explicit save.
func (s *AuthService) Current(ctx context.Context, sid string) (model.Session, error) {
	projection, err := s.sessions.Get(ctx, sid)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return model.Session{}, common.ErrUnauthorized
		}
		return model.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	return projection, nil
}

// Logout destroys the session unconditionally. Logging out an already
// destroyed session is not an error.
func (s *AuthService) Logout(ctx context.Context, sid string) error {
	if err := s.sessions.Delete(ctx, sid); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
