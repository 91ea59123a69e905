package context

import (
	stdctx "context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dtroode/userhub/internal/model"
)

func TestManager_SetAndGetPrincipal(t *testing.T) {
	m := NewManager()
	p := model.Principal{UserID: uuid.New(), Role: model.RoleManager}
	ctx := m.SetPrincipalToContext(stdctx.Background(), p)

	got, ok := m.GetPrincipalFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, p, got)
}

func TestManager_GetPrincipal_NotFound(t *testing.T) {
	m := NewManager()
	_, ok := m.GetPrincipalFromContext(stdctx.Background())
	assert.False(t, ok)
}

func TestManager_GetPrincipal_NilUser(t *testing.T) {
	m := NewManager()
	ctx := m.SetPrincipalToContext(stdctx.Background(), model.Principal{Role: model.RoleAdmin})
	_, ok := m.GetPrincipalFromContext(ctx)
	assert.False(t, ok)
}

func TestManager_OverridesPrincipal(t *testing.T) {
	m := NewManager()
	first := model.Principal{UserID: uuid.New(), Role: model.RoleAnonymous}
	second := model.Principal{UserID: uuid.New(), Role: model.RoleAuthenticated}

	ctx := m.SetPrincipalToContext(m.SetPrincipalToContext(stdctx.Background(), first), second)
	got, ok := m.GetPrincipalFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, second, got)
}
