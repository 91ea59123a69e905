package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/userhub/internal/logger"
	"github.com/dtroode/userhub/internal/model"
)

// TokenService provides high-level operations for issuing, refreshing,
// and revoking tokens. It composes the TokenManager and RefreshTokenStore.
type TokenService struct {
	manager    model.TokenManager
	store      model.RefreshTokenStore
	users      model.UserStore
	refreshTTL time.Duration
	logger     *logger.Logger
	now        func() time.Time
}

func NewTokenService(
	manager model.TokenManager,
	store model.RefreshTokenStore,
	users model.UserStore,
	refreshTTL time.Duration,
	logger *logger.Logger,
) *TokenService {
	return &TokenService{
		manager:    manager,
		store:      store,
		users:      users,
		refreshTTL: refreshTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Issue creates a new access/refresh pair and persists the refresh token.
func (s *TokenService) Issue(ctx context.Context, userID uuid.UUID, role model.Role) (model.TokenPair, error) {
	return s.issue(ctx, userID, role, nil)
}

// Refresh rotates a refresh token. The role placed in the new access token is
// re-read from the user record, so role changes take effect on refresh.
func (s *TokenService) Refresh(ctx context.Context, presentedRefresh string) (model.TokenPair, error) {
	userID, jti, err := s.manager.ParseRefreshToken(presentedRefresh)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("%w: %v", model.ErrInvalidCredentials, err)
	}

	rt, err := s.store.GetByJTI(ctx, jti)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TokenPair{}, fmt.Errorf("%w: unknown refresh token", model.ErrInvalidCredentials)
		}
		return model.TokenPair{}, fmt.Errorf("failed to get refresh token: %w", err)
	}

	if err := validateRecord(rt, hashRefresh(presentedRefresh), s.now()); err != nil {
		if errors.Is(err, model.ErrTokenRevoked) {
			// A revoked token being replayed means the chain may be stolen.
			s.logger.Warn("Token service: revoked refresh token reused, revoking all sessions",
				"user_id", userID, "jti", jti)
			if rerr := s.store.RevokeAllByUser(ctx, userID); rerr != nil {
				s.logger.Error("Token service: failed to revoke sessions",
					"user_id", userID, "error", rerr.Error())
			}
		}
		return model.TokenPair{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TokenPair{}, fmt.Errorf("%w: user no longer exists", model.ErrInvalidCredentials)
		}
		return model.TokenPair{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	if user.IsLocked {
		return model.TokenPair{}, model.ErrAccountLocked
	}

	pair, next, err := s.newPair(userID, user.Role, &rt.JTI)
	if err != nil {
		return model.TokenPair{}, err
	}
	if err := s.store.Rotate(ctx, jti, next); err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return pair, nil
}

func (s *TokenService) issue(ctx context.Context, userID uuid.UUID, role model.Role, rotatedFrom *string) (model.TokenPair, error) {
	pair, rt, err := s.newPair(userID, role, rotatedFrom)
	if err != nil {
		return model.TokenPair{}, err
	}
	if err := s.store.Create(ctx, rt); err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to persist refresh token: %w", err)
	}
	return pair, nil
}

// newPair signs both tokens and builds the row that records the refresh token.
func (s *TokenService) newPair(userID uuid.UUID, role model.Role, rotatedFrom *string) (model.TokenPair, model.RefreshToken, error) {
	access, err := s.manager.GenerateAccessToken(userID, role)
	if err != nil {
		return model.TokenPair{}, model.RefreshToken{}, fmt.Errorf("failed to issue access token: %w", err)
	}

	refresh, jti, err := s.manager.GenerateRefreshToken(userID)
	if err != nil {
		return model.TokenPair{}, model.RefreshToken{}, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	now := s.now()
	rt := model.RefreshToken{
		ID:             uuid.New(),
		JTI:            jti,
		UserID:         userID,
		TokenHash:      hashRefresh(refresh),
		IssuedAt:       now,
		ExpiresAt:      now.Add(s.refreshTTL),
		RotatedFromJTI: rotatedFrom,
	}

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, rt, nil
}

// RevokeByToken revokes a single refresh token (logout).
func (s *TokenService) RevokeByToken(ctx context.Context, presentedRefresh string) error {
	_, jti, err := s.manager.ParseRefreshToken(presentedRefresh)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidCredentials, err)
	}
	return s.store.RevokeByJTI(ctx, jti)
}

func (s *TokenService) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return s.store.RevokeAllByUser(ctx, userID)
}

// Authenticate resolves an access token into the principal it was issued to.
func (s *TokenService) Authenticate(_ context.Context, token string) (model.Principal, error) {
	principal, err := s.manager.ParseAccessToken(token)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: %v", model.ErrInvalidCredentials, err)
	}
	return principal, nil
}

func hashRefresh(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}

func validateRecord(rt model.RefreshToken, presentedHash []byte, now time.Time) error {
	if rt.RevokedAt != nil {
		return model.ErrTokenRevoked
	}
	if now.After(rt.ExpiresAt) {
		return model.ErrTokenExpired
	}
	if !equalBytes(rt.TokenHash, presentedHash) {
		return model.ErrTokenMismatch
	}
	return nil
}

func equalBytes(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
