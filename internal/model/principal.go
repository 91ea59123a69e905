package model

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated identity performing an action.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

// ContextManager stores and loads the acting principal in a request context.
type ContextManager interface {
	SetPrincipalToContext(ctx context.Context, principal Principal) context.Context
	GetPrincipalFromContext(ctx context.Context) (Principal, bool)
}
