package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// VerificationStore persists email verification tokens.
type VerificationStore interface {
	Create(ctx context.Context, token VerificationToken) error
	GetByHash(ctx context.Context, hash []byte) (VerificationToken, error)
	LatestForUser(ctx context.Context, userID uuid.UUID) (VerificationToken, error)
	// ConsumeAndVerify marks the token consumed and the user verified in one transaction.
	ConsumeAndVerify(ctx context.Context, hash []byte, promoteTo Role) (User, error)
}

// VerificationToken is a pending email verification. Only the token hash is stored.
type VerificationToken struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	TokenHash  []byte
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// Mailer delivers account emails.
type Mailer interface {
	SendVerification(ctx context.Context, to, nickname, link string) error
}
