package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/userhub/internal/model"
)

type adminCreator struct{ mock.Mock }

func (m *adminCreator) CreateAdmin(ctx context.Context, email, password, nickname string) (model.User, error) {
	args := m.Called(ctx, email, password, nickname)
	return args.Get(0).(model.User), args.Error(1)
}

type roleAssigner struct{ mock.Mock }

func (m *roleAssigner) AssignRole(ctx context.Context, userID uuid.UUID, role model.Role) (model.User, error) {
	args := m.Called(ctx, userID, role)
	return args.Get(0).(model.User), args.Error(1)
}

func newCLI(t *testing.T, stdin string) (*CLI, *adminCreator, *roleAssigner, *bytes.Buffer) {
	admins := &adminCreator{}
	roles := &roleAssigner{}
	t.Cleanup(func() {
		admins.AssertExpectations(t)
		roles.AssertExpectations(t)
	})
	out := &bytes.Buffer{}
	return &CLI{
		Admins:   admins,
		Roles:    roles,
		Password: linePassword(bufio.NewReader(strings.NewReader(stdin))),
		Out:      out,
	}, admins, roles, out
}

func TestCLI_Run_Usage(t *testing.T) {
	cli, _, _, _ := newCLI(t, "")

	assert.ErrorIs(t, cli.Run(context.Background(), nil), errUsage)
	assert.ErrorIs(t, cli.Run(context.Background(), []string{"drop-db"}), errUsage)
}

func TestCLI_CreateAdmin(t *testing.T) {
	t.Run("creates admin", func(t *testing.T) {
		cli, admins, _, out := newCLI(t, "Str0ng!pass\nStr0ng!pass\n")
		id := uuid.New()
		admins.On("CreateAdmin", mock.Anything, "root@example.com", "Str0ng!pass", "root").
			Return(model.User{ID: id, Email: "root@example.com", Nickname: "root", Role: model.RoleAdmin}, nil)

		err := cli.Run(context.Background(), []string{"create-admin", "-email", "root@example.com", "-nickname", "root"})

		require.NoError(t, err)
		assert.Contains(t, out.String(), "created admin root@example.com (root) id="+id.String())
	})

	t.Run("password without trailing newline", func(t *testing.T) {
		cli, admins, _, _ := newCLI(t, "Str0ng!pass\nStr0ng!pass")
		admins.On("CreateAdmin", mock.Anything, "root@example.com", "Str0ng!pass", "").
			Return(model.User{ID: uuid.New()}, nil)

		require.NoError(t, cli.Run(context.Background(), []string{"create-admin", "-email", "root@example.com"}))
	})

	t.Run("email required", func(t *testing.T) {
		cli, _, _, _ := newCLI(t, "")

		err := cli.Run(context.Background(), []string{"create-admin"})
		assert.EqualError(t, err, "create-admin: -email is required")
	})

	t.Run("passwords differ", func(t *testing.T) {
		cli, _, _, _ := newCLI(t, "Str0ng!pass\nother\n")

		err := cli.Run(context.Background(), []string{"create-admin", "-email", "root@example.com"})
		assert.EqualError(t, err, "create-admin: passwords do not match")
	})

	t.Run("no password input", func(t *testing.T) {
		cli, _, _, _ := newCLI(t, "")

		err := cli.Run(context.Background(), []string{"create-admin", "-email", "root@example.com"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read password")
	})

	t.Run("service rejects", func(t *testing.T) {
		cli, admins, _, _ := newCLI(t, "weak\nweak\n")
		admins.On("CreateAdmin", mock.Anything, "root@example.com", "weak", "").
			Return(model.User{}, &model.ValidationError{Constraint: "password", Message: "too short"})

		err := cli.Run(context.Background(), []string{"create-admin", "-email", "root@example.com"})

		var verr *model.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestCLI_SetRole(t *testing.T) {
	t.Run("assigns role", func(t *testing.T) {
		cli, _, roles, out := newCLI(t, "")
		id := uuid.New()
		roles.On("AssignRole", mock.Anything, id, model.RoleManager).
			Return(model.User{ID: id, Role: model.RoleManager}, nil)

		err := cli.Run(context.Background(), []string{"set-role", "-user-id", id.String(), "-role", "manager"})

		require.NoError(t, err)
		assert.Equal(t, "user "+id.String()+" is now MANAGER\n", out.String())
	})

	t.Run("bad user id", func(t *testing.T) {
		cli, _, _, _ := newCLI(t, "")

		err := cli.Run(context.Background(), []string{"set-role", "-user-id", "42", "-role", "ADMIN"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid -user-id")
	})

	t.Run("unknown role", func(t *testing.T) {
		cli, _, _, _ := newCLI(t, "")

		err := cli.Run(context.Background(), []string{"set-role", "-user-id", uuid.NewString(), "-role", "ROOT"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown role")
	})

	t.Run("user missing", func(t *testing.T) {
		cli, _, roles, _ := newCLI(t, "")
		id := uuid.New()
		roles.On("AssignRole", mock.Anything, id, model.RoleAdmin).Return(model.User{}, model.ErrNotFound)

		err := cli.Run(context.Background(), []string{"set-role", "-user-id", id.String(), "-role", "ADMIN"})
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})
}
