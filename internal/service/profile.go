package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/dtroode/userhub/internal/logger"
	"github.com/dtroode/userhub/internal/model"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

var profileURLPattern = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)

// Profile reads and updates user profiles.
type Profile struct {
	userStore model.UserStore
	logger    *logger.Logger
}

func NewProfile(userStore model.UserStore, logger *logger.Logger) *Profile {
	return &Profile{userStore: userStore, logger: logger}
}

// Get returns the profile of userID if actor may see it.
func (s *Profile) Get(ctx context.Context, actor model.Principal, userID uuid.UUID) (model.User, error) {
	if err := CanModifyProfile(actor, userID); err != nil {
		return model.User{}, err
	}

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// List pages through all users. Only staff may list.
func (s *Profile) List(ctx context.Context, actor model.Principal, skip, limit int) (model.Page, error) {
	if err := RequireRole(actor, model.RoleManager, model.RoleAdmin); err != nil {
		return model.Page{}, err
	}
	if skip < 0 {
		return model.Page{}, model.NewValidationError(model.ConstraintField, "skip must not be negative")
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	total, err := s.userStore.Count(ctx)
	if err != nil {
		return model.Page{}, fmt.Errorf("failed to count users: %w", err)
	}
	users, err := s.userStore.List(ctx, skip, limit)
	if err != nil {
		return model.Page{}, fmt.Errorf("failed to list users: %w", err)
	}

	return model.Page{Items: users, Total: total, Skip: skip, Limit: limit}, nil
}

// Update applies a partial profile change. Role changes need ADMIN and the
// professional flag needs staff.
func (s *Profile) Update(ctx context.Context, actor model.Principal, userID uuid.UUID, update model.ProfileUpdate) (model.User, error) {
	if err := CanModifyProfile(actor, userID); err != nil {
		return model.User{}, err
	}
	if update.Role != nil && actor.Role != model.RoleAdmin {
		return model.User{}, &model.AuthorizationError{ActorID: actor.UserID, TargetID: userID, Reason: "only admins may change roles"}
	}
	if update.IsProfessional != nil && !actor.Role.IsStaff() {
		return model.User{}, &model.AuthorizationError{ActorID: actor.UserID, TargetID: userID, Reason: "only staff may change professional status"}
	}
	if err := validateProfileUpdate(update); err != nil {
		return model.User{}, err
	}

	user, err := s.userStore.Update(ctx, userID, update)
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return model.User{}, fmt.Errorf("nickname is taken: %w", err)
		}
		return model.User{}, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("Profile service: profile updated",
		"user_id", userID, "actor_id", actor.UserID)
	return user, nil
}

// AssignRole sets the role of userID without an acting principal. It is used by operator tooling.
func (s *Profile) AssignRole(ctx context.Context, userID uuid.UUID, role model.Role) (model.User, error) {
	user, err := s.userStore.UpdateRole(ctx, userID, role)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to update role: %w", err)
	}
	s.logger.Info("Profile service: role assigned", "user_id", userID, "role", role)
	return user, nil
}

func validateProfileUpdate(update model.ProfileUpdate) error {
	if update.IsEmpty() {
		return model.NewValidationError(model.ConstraintField, "at least one field must be provided for update")
	}
	if update.Nickname != nil {
		if err := ValidateNickname(*update.Nickname); err != nil {
			return err
		}
	}
	for name, value := range map[string]*string{
		"linkedin_profile_url": update.LinkedInProfileURL,
		"github_profile_url":   update.GitHubProfileURL,
	} {
		if value != nil && *value != "" && !profileURLPattern.MatchString(*value) {
			return model.NewValidationError(model.ConstraintURL, "%s has an invalid URL format", name)
		}
	}
	return nil
}
