package access

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/internal/stockroom/stocktest"
	"github.com/medflow/stockroom/internal/stockroom/store"
	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	st := stocktest.NewStore(t)
	return NewService(st, logger.Nop()), st
}

func boolPtr(b bool) *bool { return &b }

func TestAuthenticate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserRequest{Username: "maria", Password: "s3nha", Role: domain.RoleManager})
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, CreateUserRequest{Username: "joao", Password: "s3nha", IsActive: boolPtr(false)})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, " maria ", "s3nha")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, user.Role)

	failures := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "maria", "errada"},
		{"unknown user", "ninguem", "s3nha"},
		{"inactive account", "joao", "s3nha"},
		{"blank username", "", "s3nha"},
	}

	var messages []string
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authenticate(ctx, tt.username, tt.password)
			require.Error(t, err)
			var appErr *errors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
			messages = append(messages, appErr.Localize(ctx))
		})
	}
	for _, m := range messages {
		assert.Equal(t, messages[0], m)
	}
}

func TestAuthenticate_UpgradesLegacyHash(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	sum := sha256.Sum256([]byte("antiga"))
	legacy := &domain.User{Username: "ana", PasswordHash: hex.EncodeToString(sum[:]), Role: domain.RoleViewer, IsActive: true}
	require.NoError(t, st.CreateUser(ctx, legacy))

	_, err := svc.Authenticate(ctx, "ana", "errada")
	assert.Error(t, err)

	user, err := svc.Authenticate(ctx, "ana", "antiga")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(user.PasswordHash, "$2"))

	stored, err := st.GetUserByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.False(t, isLegacyHash(stored.PasswordHash))

	_, err = svc.Authenticate(ctx, "ana", "antiga")
	assert.NoError(t, err)
}

func TestCreateUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserRequest{Username: "  bia ", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "bia", user.Username)
	assert.Equal(t, domain.RoleViewer, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "x", user.PasswordHash)

	_, err = svc.CreateUser(ctx, CreateUserRequest{Username: "bia", Password: "y"})
	assert.True(t, errors.IsConflict(err))

	_, err = svc.CreateUser(ctx, CreateUserRequest{Username: "", Password: "y"})
	assert.True(t, errors.IsValidation(err))

	_, err = svc.CreateUser(ctx, CreateUserRequest{Username: "caio", Password: ""})
	assert.True(t, errors.IsValidation(err))

	_, err = svc.CreateUser(ctx, CreateUserRequest{Username: "caio", Password: "y", Role: "root"})
	assert.True(t, errors.IsValidation(err))
}

func TestUpdateUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserRequest{Username: "bia", Password: "velha"})
	require.NoError(t, err)
	oldHash := user.PasswordHash

	updated, err := svc.UpdateUser(ctx, user.ID, UpdateUserRequest{Username: "beatriz", Role: domain.RoleManager, IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, oldHash, updated.PasswordHash)
	assert.Equal(t, domain.RoleManager, updated.Role)

	_, err = svc.Authenticate(ctx, "beatriz", "velha")
	require.NoError(t, err)

	_, err = svc.UpdateUser(ctx, user.ID, UpdateUserRequest{Username: "beatriz", Role: domain.RoleManager, IsActive: true, Password: "nova"})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "beatriz", "velha")
	assert.Error(t, err)
	_, err = svc.Authenticate(ctx, "beatriz", "nova")
	assert.NoError(t, err)

	_, err = svc.UpdateUser(ctx, user.ID, UpdateUserRequest{Username: "beatriz", Role: domain.RoleViewer, IsActive: false})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "beatriz", "nova")
	assert.Error(t, err)

	_, err = svc.UpdateUser(ctx, 999, UpdateUserRequest{Username: "x", Role: domain.RoleViewer})
	assert.True(t, errors.IsNotFound(err))
}

func TestDeleteUser_AdminIsProtected(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	svc.EnsureBootstrapAdmin(ctx)
	admin, err := svc.Authenticate(ctx, "admin", "admin")
	require.NoError(t, err)

	err = svc.DeleteUser(ctx, admin.ID)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	other, err := svc.CreateUser(ctx, CreateUserRequest{Username: "bia", Password: "x"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteUser(ctx, other.ID))
	assert.True(t, errors.IsNotFound(svc.DeleteUser(ctx, other.ID)))

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Username)
}

func TestEnsureBootstrapAdmin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	svc.EnsureBootstrapAdmin(ctx)
	svc.EnsureBootstrapAdmin(ctx)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, domain.RoleManager, users[0].Role)
	assert.True(t, users[0].IsActive)
}

// downUsers fails every call the way an unreachable backend does
type downUsers struct {
	store.UserRepository
}

func (downUsers) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return nil, errors.Backend("get user", fmt.Errorf("connection refused"))
}

func TestEnsureBootstrapAdmin_SwallowsBackendErrors(t *testing.T) {
	svc := NewService(downUsers{}, logger.Nop())
	assert.NotPanics(t, func() { svc.EnsureBootstrapAdmin(context.Background()) })

	_, err := svc.Authenticate(context.Background(), "admin", "admin")
	assert.True(t, errors.IsBackend(err))
}
