package domain

import "github.com/medflow/stockroom/pkg/permissions"

// Role is the access level of a user
type Role string

const (
	RoleManager Role = permissions.RoleManager
	RoleViewer  Role = permissions.RoleViewer
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleManager || r == RoleViewer
}

// AdminUsername is the bootstrap account that can never be deleted
const AdminUsername = "admin"

// User is a login account
type User struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         Role   `json:"role" db:"role"`
	IsActive     bool   `json:"is_active" db:"is_active"`
}
