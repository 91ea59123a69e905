package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dtroode/userhub/internal/model"
)

func TestCanModifyProfile(t *testing.T) {
	self := uuid.New()
	other := uuid.New()

	tests := []struct {
		name    string
		actor   model.Principal
		target  uuid.UUID
		allowed bool
	}{
		{name: "self authenticated", actor: model.Principal{UserID: self, Role: model.RoleAuthenticated}, target: self, allowed: true},
		{name: "self anonymous", actor: model.Principal{UserID: self, Role: model.RoleAnonymous}, target: self, allowed: true},
		{name: "other authenticated", actor: model.Principal{UserID: self, Role: model.RoleAuthenticated}, target: other},
		{name: "other anonymous", actor: model.Principal{UserID: self, Role: model.RoleAnonymous}, target: other},
		{name: "manager on other", actor: model.Principal{UserID: self, Role: model.RoleManager}, target: other, allowed: true},
		{name: "admin on other", actor: model.Principal{UserID: self, Role: model.RoleAdmin}, target: other, allowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanModifyProfile(tt.actor, tt.target)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			var authErr *model.AuthorizationError
			assert.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.target, authErr.TargetID)
		})
	}
}

func TestRequireRole(t *testing.T) {
	actor := model.Principal{UserID: uuid.New(), Role: model.RoleAnonymous}
	err := RequireRole(actor, model.RoleAuthenticated, model.RoleManager, model.RoleAdmin)
	var authErr *model.AuthorizationError
	assert.ErrorAs(t, err, &authErr)

	actor.Role = model.RoleManager
	assert.NoError(t, RequireRole(actor, model.RoleAuthenticated, model.RoleManager, model.RoleAdmin))
}
