package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/userhub/internal/model"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLength = 72
	passwordSpecials  = `!@#$%^&*(),.?":{}|<>`
)

// PasswordHasher hashes and checks passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher; out of range costs fall back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare reports whether password matches hashed. A malformed hash is an error.
func (h *PasswordHasher) Compare(hashed, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("failed to compare password: %w", err)
}

// ValidatePasswordStrength enforces the account password policy.
func ValidatePasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return model.NewValidationError(model.ConstraintPassword, "password must be at least %d characters long", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return model.NewValidationError(model.ConstraintPassword, "password must be at most %d bytes long", maxPasswordLength)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}

	switch {
	case !upper:
		return model.NewValidationError(model.ConstraintPassword, "password must contain at least one uppercase letter")
	case !lower:
		return model.NewValidationError(model.ConstraintPassword, "password must contain at least one lowercase letter")
	case !digit:
		return model.NewValidationError(model.ConstraintPassword, "password must contain at least one digit")
	case !special:
		return model.NewValidationError(model.ConstraintPassword, "password must contain at least one special character")
	}
	return nil
}
