package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/userhub/internal/config"
	"github.com/dtroode/userhub/internal/logger"
	"github.com/dtroode/userhub/internal/model"
)

// TokenIssuer issues token pairs after a successful login.
type TokenIssuer interface {
	Issue(ctx context.Context, userID uuid.UUID, role model.Role) (model.TokenPair, error)
}

const nicknameAttempts = 5

type Auth struct {
	userStore         model.UserStore
	verificationStore model.VerificationStore
	tokens            TokenIssuer
	hasher            *PasswordHasher
	mailer            model.Mailer
	cfg               config.Auth
	baseURL           string
	logger            *logger.Logger
	now               func() time.Time
}

func NewAuth(
	userStore model.UserStore,
	verificationStore model.VerificationStore,
	tokens TokenIssuer,
	hasher *PasswordHasher,
	mailer model.Mailer,
	cfg config.Auth,
	baseURL string,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		userStore:         userStore,
		verificationStore: verificationStore,
		tokens:            tokens,
		hasher:            hasher,
		mailer:            mailer,
		cfg:               cfg,
		baseURL:           strings.TrimRight(baseURL, "/"),
		logger:            logger,
		now:               time.Now,
	}
}

// Register creates an account. The very first account becomes ADMIN, every
// other one starts ANONYMOUS until its email is verified.
func (a *Auth) Register(ctx context.Context, params model.RegisterParams) (model.User, error) {
	email, err := normalizeEmail(params.Email)
	if err != nil {
		return model.User{}, err
	}
	if err := ValidatePasswordStrength(params.Password); err != nil {
		return model.User{}, err
	}
	if params.Nickname != "" {
		if err := ValidateNickname(params.Nickname); err != nil {
			return model.User{}, err
		}
	}

	a.logger.Debug("Auth service: starting user registration", "email", email)

	count, err := a.userStore.Count(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to count users: %w", err)
	}
	role := model.RoleAnonymous
	if count == 0 {
		role = model.RoleAdmin
	}

	hashed, err := a.hasher.Hash(params.Password)
	if err != nil {
		a.logger.Error("Auth service: failed to hash password", "email", email, "error", err.Error())
		return model.User{}, err
	}

	user := model.User{
		Email:          email,
		Nickname:       params.Nickname,
		FirstName:      params.FirstName,
		LastName:       params.LastName,
		Bio:            params.Bio,
		Role:           role,
		HashedPassword: hashed,
	}

	created, err := a.createWithNickname(ctx, user, params.Nickname == "")
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			a.logger.Info("Auth service: user already exists", "email", email)
		}
		return model.User{}, err
	}

	a.logger.Info("Auth service: user registered",
		"user_id", created.ID, "email", email, "role", created.Role)

	if err := a.sendVerification(ctx, created); err != nil {
		// The account exists, the user can ask for another email later.
		a.logger.Error("Auth service: failed to send verification email",
			"user_id", created.ID, "error", err.Error())
	}

	return created, nil
}

// CreateAdmin creates a verified ADMIN account. It is used by operator tooling.
func (a *Auth) CreateAdmin(ctx context.Context, email, password, nickname string) (model.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return model.User{}, err
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return model.User{}, err
	}
	if nickname != "" {
		if err := ValidateNickname(nickname); err != nil {
			return model.User{}, err
		}
	}

	hashed, err := a.hasher.Hash(password)
	if err != nil {
		return model.User{}, err
	}

	user, err := a.createWithNickname(ctx, model.User{
		Email:          email,
		Nickname:       nickname,
		Role:           model.RoleAdmin,
		HashedPassword: hashed,
		EmailVerified:  true,
	}, nickname == "")
	if err != nil {
		return model.User{}, err
	}

	a.logger.Info("Auth service: admin created", "user_id", user.ID, "email", email)
	return user, nil
}

func (a *Auth) createWithNickname(ctx context.Context, user model.User, generate bool) (model.User, error) {
	attempts := 1
	if generate {
		attempts = nicknameAttempts
	}

	var err error
	for i := 0; i < attempts; i++ {
		if generate {
			user.Nickname = GenerateNickname()
		}
		user.ID = uuid.New()

		var created model.User
		created, err = a.userStore.Create(ctx, user)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, model.ErrConflict) {
			return model.User{}, fmt.Errorf("failed to create user: %w", err)
		}
		if !generate {
			break
		}
		// A generated nickname may collide, an email collision will not go away.
		if _, lookupErr := a.userStore.GetByEmail(ctx, user.Email); lookupErr == nil {
			break
		}
	}

	return model.User{}, fmt.Errorf("email or nickname is taken: %w", err)
}

// Login checks credentials and returns a token pair. Repeated failures lock the account.
func (a *Auth) Login(ctx context.Context, email, password string) (model.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := a.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			a.logger.Info("Auth service: login for unknown email", "email", email)
			return model.TokenPair{}, model.ErrInvalidCredentials
		}
		return model.TokenPair{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if user.IsLocked {
		a.logger.Info("Auth service: login for locked account", "user_id", user.ID)
		return model.TokenPair{}, model.ErrAccountLocked
	}

	ok, err := a.hasher.Compare(user.HashedPassword, password)
	if err != nil {
		a.logger.Error("Auth service: failed to verify password", "user_id", user.ID, "error", err.Error())
		return model.TokenPair{}, err
	}
	if !ok {
		locked, err := a.userStore.RecordLoginFailure(ctx, user.ID, a.cfg.MaxLoginAttempts)
		if err != nil {
			return model.TokenPair{}, fmt.Errorf("failed to record login failure: %w", err)
		}
		if locked {
			a.logger.Warn("Auth service: account locked after failed logins", "user_id", user.ID)
			return model.TokenPair{}, model.ErrAccountLocked
		}
		return model.TokenPair{}, model.ErrInvalidCredentials
	}

	if err := a.userStore.RecordLoginSuccess(ctx, user.ID); err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to record login: %w", err)
	}

	pair, err := a.tokens.Issue(ctx, user.ID, user.Role)
	if err != nil {
		a.logger.Error("Auth service: failed to issue tokens", "user_id", user.ID, "error", err.Error())
		return model.TokenPair{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	a.logger.Info("Auth service: user logged in", "user_id", user.ID)
	return pair, nil
}

// VerifyEmail consumes a verification token. alreadyVerified is true when the
// account had been verified before, in which case nothing changes.
func (a *Auth) VerifyEmail(ctx context.Context, token string) (user model.User, alreadyVerified bool, err error) {
	if token == "" {
		return model.User{}, false, fmt.Errorf("verification token: %w", model.ErrNotFound)
	}
	hash := hashVerificationToken(token)

	vt, err := a.verificationStore.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, false, fmt.Errorf("verification token: %w", model.ErrNotFound)
		}
		return model.User{}, false, fmt.Errorf("failed to get verification token: %w", err)
	}

	user, err = a.userStore.GetByID(ctx, vt.UserID)
	if err != nil {
		return model.User{}, false, fmt.Errorf("failed to get user by id: %w", err)
	}
	if user.EmailVerified || vt.ConsumedAt != nil {
		return user, true, nil
	}
	if a.now().After(vt.ExpiresAt) {
		a.logger.Info("Auth service: expired verification token", "user_id", vt.UserID)
		return model.User{}, false, model.ErrVerificationExpired
	}

	user, err = a.verificationStore.ConsumeAndVerify(ctx, hash, model.RoleAuthenticated)
	if err != nil {
		a.logger.Error("Auth service: failed to verify email", "user_id", vt.UserID, "error", err.Error())
		return model.User{}, false, fmt.Errorf("failed to verify email: %w", err)
	}

	a.logger.Info("Auth service: email verified", "user_id", user.ID, "role", user.Role)
	return user, false, nil
}

// ResendVerification sends a fresh verification email, at most once per resend interval.
func (a *Auth) ResendVerification(ctx context.Context, actor model.Principal) error {
	user, err := a.userStore.GetByID(ctx, actor.UserID)
	if err != nil {
		return fmt.Errorf("failed to get user by id: %w", err)
	}
	if user.EmailVerified {
		return model.ErrAlreadyVerified
	}

	latest, err := a.verificationStore.LatestForUser(ctx, user.ID)
	switch {
	case err == nil:
		if a.now().Sub(latest.CreatedAt) < a.cfg.ResendInterval {
			return model.ErrTooManyRequests
		}
	case !errors.Is(err, model.ErrNotFound):
		return fmt.Errorf("failed to get latest verification token: %w", err)
	}

	return a.sendVerification(ctx, user)
}

func (a *Auth) sendVerification(ctx context.Context, user model.User) error {
	token, err := newVerificationToken()
	if err != nil {
		return err
	}

	now := a.now()
	err = a.verificationStore.Create(ctx, model.VerificationToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashVerificationToken(token),
		ExpiresAt: now.Add(a.cfg.VerificationTTL),
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	link := a.baseURL + "/verify-email?token=" + url.QueryEscape(token)
	if err := a.mailer.SendVerification(ctx, user.Email, user.Nickname, link); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

func newVerificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate verification token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashVerificationToken(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}

func normalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return "", model.NewValidationError(model.ConstraintField, "invalid email address")
	}
	return strings.ToLower(addr.Address), nil
}
