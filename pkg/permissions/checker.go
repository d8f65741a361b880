// Package permissions maps stock room roles to permission strings and checks them
// with wildcard support.
//
// Permission Format:
//   - "*" - Full access (all permissions)
//   - "resource.*" - All actions on a resource (e.g., "movements.*")
//   - "resource.action" - Specific action (e.g., "report.read")
package permissions

import (
	"strings"
)

// Permissions checked by the HTTP layers
const (
	ReportRead     = "report.read"
	MovementsRead  = "movements.read"
	MovementsWrite = "movements.write"
	CatalogRead    = "catalog.read"
	CatalogWrite   = "catalog.write"
	UsersManage    = "users.manage"
)

// Role names as persisted in the users table
const (
	RoleManager = "gestor"
	RoleViewer  = "visualizador"
)

var roleGrants = map[string][]string{
	RoleManager: {"*"},
	RoleViewer:  {ReportRead},
}

// ForRole returns the permissions granted to a role. Unknown roles get nothing.
func ForRole(role string) []string {
	return roleGrants[role]
}

// Allowed reports whether role holds the required permission
func Allowed(role, required string) bool {
	return HasPermission(ForRole(role), required)
}

// HasPermission checks if the user's permissions include the required permission.
// Supports wildcard matching:
//   - "*" matches everything
//   - "movements.*" matches "movements.read", "movements.write", etc.
//   - Exact match for specific permissions
func HasPermission(userPerms []string, required string) bool {
	if required == "" {
		return true
	}

	for _, p := range userPerms {
		if p == "*" || p == required {
			return true
		}
		if strings.HasSuffix(p, ".*") {
			prefix := strings.TrimSuffix(p, ".*")
			if strings.HasPrefix(required, prefix+".") {
				return true
			}
		}
	}
	return false
}
