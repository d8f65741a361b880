// Package access authenticates users and manages login accounts.
package access

import (
	"context"
	"strings"

	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/internal/stockroom/store"
	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/logger"
	"github.com/medflow/stockroom/pkg/validation"
)

// Service handles authentication and user management
type Service struct {
	store  store.UserRepository
	logger *logger.Logger
}

// NewService creates an access service
func NewService(users store.UserRepository, log *logger.Logger) *Service {
	return &Service{store: users, logger: log.WithComponent("access")}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

// CreateUserRequest represents a new account. Role defaults to viewer.
type CreateUserRequest struct {
	Username string      `json:"username" validate:"notblank,max=100"`
	Password string      `json:"password" validate:"required"`
	Role     domain.Role `json:"role" validate:"omitempty,oneof=gestor visualizador"`
	IsActive *bool       `json:"is_active"`
}

// UpdateUserRequest edits an account. A blank password keeps the current one.
type UpdateUserRequest struct {
	Username string      `json:"username" validate:"notblank,max=100"`
	Role     domain.Role `json:"role" validate:"required,oneof=gestor visualizador"`
	IsActive bool        `json:"is_active"`
	Password string      `json:"password"`
}

// Authenticate checks credentials. Unknown users, inactive accounts and wrong
// passwords all produce the same error.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if err := validation.Struct(LoginRequest{Username: username, Password: password}); err != nil {
		return nil, errors.InvalidCredentials()
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.InvalidCredentials()
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.InvalidCredentials()
	}

	ok, legacy := checkPassword(user.PasswordHash, password)
	if !ok {
		return nil, errors.InvalidCredentials()
	}
	if legacy {
		s.upgradeHash(ctx, user, password)
	}

	s.logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user logged in")
	return user, nil
}

// upgradeHash replaces a legacy SHA-256 hash with bcrypt. Failures are logged only.
func (s *Service) upgradeHash(ctx context.Context, user *domain.User, password string) {
	hash, err := HashPassword(password)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to hash password for upgrade")
		return
	}
	upgraded := *user
	upgraded.PasswordHash = hash
	if err := s.store.UpdateUser(ctx, &upgraded); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to upgrade legacy password hash")
		return
	}
	user.PasswordHash = hash
	s.logger.Info().Int64("user_id", user.ID).Msg("legacy password hash upgraded")
}

// GetUser retrieves an account by ID
func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.store.GetUser(ctx, id)
}

// ListUsers returns every account ordered by username
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.store.ListUsers(ctx)
}

// CreateUser adds an account
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         domain.RoleViewer,
		IsActive:     true,
	}
	if req.Role != "" {
		user.Role = req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Str("role", string(user.Role)).Msg("user created")
	return user, nil
}

// UpdateUser edits username, role and active flag, and the password when one is given
func (s *Service) UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (*domain.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Username = req.Username
	user.Role = req.Role
	user.IsActive = req.IsActive
	if req.Password != "" {
		hash, err := HashPassword(req.Password)
		if err != nil {
			return nil, errors.Internal("failed to hash password")
		}
		user.PasswordHash = hash
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", id).Str("username", user.Username).Msg("user updated")
	return user, nil
}

// DeleteUser removes an account. The account named admin can never be deleted.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if user.Username == domain.AdminUsername {
		return errors.Conflict("errors.admin_protected", "the default admin account cannot be deleted", nil)
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", id).Str("username", user.Username).Msg("user deleted")
	return nil
}

// EnsureBootstrapAdmin creates admin/admin as an active manager when no
// account named admin exists. Errors are logged and swallowed so the service
// still starts against an unreachable backend.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context) {
	_, err := s.store.GetUserByUsername(ctx, domain.AdminUsername)
	if err == nil {
		return
	}
	if !errors.IsNotFound(err) {
		s.logger.Warn().Err(err).Msg("could not check for bootstrap admin")
		return
	}

	hash, err := HashPassword(domain.AdminUsername)
	if err != nil {
		s.logger.Warn().Err(err).Msg("could not hash bootstrap admin password")
		return
	}
	admin := &domain.User{
		Username:     domain.AdminUsername,
		PasswordHash: hash,
		Role:         domain.RoleManager,
		IsActive:     true,
	}
	if err := s.store.CreateUser(ctx, admin); err != nil {
		s.logger.Warn().Err(err).Msg("could not create bootstrap admin")
		return
	}
	s.logger.Info().Int64("user_id", admin.ID).Msg("bootstrap admin created")
}
