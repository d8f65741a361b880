package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name     string
		perms    []string
		required string
		want     bool
	}{
		{"empty requirement", nil, "", true},
		{"full access", []string{"*"}, UsersManage, true},
		{"exact match", []string{ReportRead}, ReportRead, true},
		{"resource wildcard", []string{"movements.*"}, MovementsWrite, true},
		{"wildcard does not cross resources", []string{"movements.*"}, CatalogWrite, false},
		{"no permissions", nil, ReportRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.perms, tt.required))
		})
	}
}

func TestAllowed(t *testing.T) {
	for _, p := range []string{ReportRead, MovementsRead, MovementsWrite, CatalogWrite, UsersManage} {
		assert.True(t, Allowed(RoleManager, p), p)
	}

	assert.True(t, Allowed(RoleViewer, ReportRead))
	for _, p := range []string{MovementsRead, MovementsWrite, CatalogWrite, UsersManage} {
		assert.False(t, Allowed(RoleViewer, p), p)
	}

	assert.False(t, Allowed("intruso", ReportRead))
}
