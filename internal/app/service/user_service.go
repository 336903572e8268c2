package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"family_ledger/internal/app/session"
	"family_ledger/internal/common"
	"family_ledger/internal/common/security"
	"family_ledger/internal/domain/model"
	"family_ledger/internal/domain/repository"
	"family_ledger/internal/platform/config"
)

type UserService struct {
	userRepo repository.UserRepository
	debtRepo repository.DebtRepository
	sessions session.Store
}

func NewUserService(userRepo repository.UserRepository, debtRepo repository.DebtRepository, sessions session.Store) *UserService {
	return &UserService{userRepo: userRepo, debtRepo: debtRepo, sessions: sessions}
}

type UserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// canManage reports whether the caller may mutate user accounts. The owner
// always may; admins only under the configured policy.
func canManage(caller Caller) bool {
	if caller.Role.Owner() {
		return true
	}
	return config.AppConfig.AdminManagesUsers && caller.Role.AdminEquivalent()
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.userRepo.FindAll(ctx)
}

func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

func (s *UserService) Create(ctx context.Context, caller Caller, in UserInput) (*model.User, error) {
	if !canManage(caller) {
		return nil, fmt.Errorf("not allowed to manage users: %w", common.ErrForbidden)
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", common.ErrValidation)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("password is required: %w", common.ErrValidation)
	}

	role, err := model.ParseRole(in.Role)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, common.ErrValidation)
	}
	if role.Owner() && !caller.Role.Owner() {
		return nil, fmt.Errorf("only the owner may assign the owner role: %w", common.ErrForbidden)
	}

	hashed, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       username,
		HashedPassword: hashed,
		Role:           role,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo returns common.ErrConflict on duplicate usernames.
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Update replaces username and role wholesale. Password is the one optional
// field: empty keeps the stored credential. When the caller edits their own
// account the persisted session projection is rewritten so the change is
// visible on the next request without a fresh login.
func (s *UserService) Update(ctx context.Context, caller Caller, id int64, in UserInput) (*model.User, error) {
	if !canManage(caller) {
		return nil, fmt.Errorf("not allowed to manage users: %w", common.ErrForbidden)
	}
	if id == model.BootstrapUserID && caller.UserID != model.BootstrapUserID {
		return nil, fmt.Errorf("bootstrap account can only be edited by itself: %w", common.ErrForbidden)
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", common.ErrValidation)
	}

	role, err := model.ParseRole(in.Role)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, common.ErrValidation)
	}

	existing, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if (role.Owner() || existing.Role.Owner()) && !caller.Role.Owner() {
		return nil, fmt.Errorf("only the owner may manage owner accounts: %w", common.ErrForbidden)
	}

	hashed := existing.HashedPassword
	if in.Password != "" {
		if hashed, err = security.HashPassword(in.Password); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	user := &model.User{
		ID:             existing.ID,
		Username:       username,
		HashedPassword: hashed,
		Role:           role,
		CreatedAt:      existing.CreatedAt,
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if caller.UserID == id {
		projection := model.Session{UserID: user.ID, Username: user.Username, Role: user.Role}
		if err := s.sessions.Save(ctx, caller.SID, projection, config.AppConfig.JWTExp); err != nil {
			return nil, fmt.Errorf("failed to refresh session: %w", err)
		}
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, caller Caller, id int64) error {
	if !canManage(caller) {
		return fmt.Errorf("not allowed to manage users: %w", common.ErrForbidden)
	}
	if id == model.BootstrapUserID {
		return fmt.Errorf("bootstrap account cannot be deleted: %w", common.ErrForbidden)
	}
	if id == caller.UserID {
		return fmt.Errorf("cannot delete your own account: %w", common.ErrForbidden)
	}

	target, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if target.Role.Owner() && !caller.Role.Owner() {
		return fmt.Errorf("only the owner may manage owner accounts: %w", common.ErrForbidden)
	}

	if config.AppConfig.BlockDeleteWithDebts {
		count, err := s.debtRepo.CountByParty(ctx, target.Username)
		if err != nil {
			return fmt.Errorf("failed to check debts: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("cannot delete user with active debts: %w", common.ErrConflict)
		}
	}

	return s.userRepo.Delete(ctx, id)
}
