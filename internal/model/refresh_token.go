package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshTokenStore keeps one row per issued refresh token. Only the hash of
// the token is stored; a rotated token stays behind, revoked, so a replay can
// be recognised.
type RefreshTokenStore interface {
	Create(ctx context.Context, token RefreshToken) error
	GetByJTI(ctx context.Context, jti string) (RefreshToken, error)
	// Rotate revokes prevJTI and stores next in one transaction. It returns
	// ErrTokenRevoked when prevJTI was already revoked by a concurrent refresh.
	Rotate(ctx context.Context, prevJTI string, next RefreshToken) error
	RevokeByJTI(ctx context.Context, jti string) error
	RevokeAllByUser(ctx context.Context, userID uuid.UUID) error
}

type RefreshToken struct {
	ID             uuid.UUID
	JTI            string
	UserID         uuid.UUID
	TokenHash      []byte
	IssuedAt       time.Time
	ExpiresAt      time.Time
	RevokedAt      *time.Time
	RotatedFromJTI *string
}
