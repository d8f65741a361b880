package sqlstore

import (
	"context"

	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/pkg/database"
)

const userColumns = `id, username, password_hash, role, is_active`

// GetUserByUsername retrieves a user by username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := s.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE username = ?`, username); err != nil {
		return nil, database.MapError(err, "user", "get user")
	}
	return &u, nil
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := s.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return nil, database.MapError(err, "user", "get user")
	}
	return &u, nil
}

// ListUsers returns every account ordered by username
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := s.selectAll(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY username`); err != nil {
		return nil, database.MapError(err, "user", "list users")
	}
	return users, nil
}

// CreateUser inserts an account and sets its ID
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	err := s.get(ctx, &u.ID, `
		INSERT INTO users (username, password_hash, role, is_active) VALUES (?, ?, ?, ?) RETURNING id`,
		u.Username, u.PasswordHash, string(u.Role), u.IsActive)
	return database.MapError(err, "user", "create user")
}

// UpdateUser overwrites username, hash, role and active flag
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	return s.execOne(ctx, "user", "update user", `
		UPDATE users SET username = ?, password_hash = ?, role = ?, is_active = ? WHERE id = ?`,
		u.Username, u.PasswordHash, string(u.Role), u.IsActive, u.ID)
}

// DeleteUser removes an account
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.execOne(ctx, "user", "delete user", `DELETE FROM users WHERE id = ?`, id)
}
