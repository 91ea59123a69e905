package service

import (
	"github.com/google/uuid"

	"github.com/dtroode/userhub/internal/model"
)

// CanModifyProfile is the single permission check for reading private profile
// data or mutating a profile. Staff may act on anyone, others only on themselves.
func CanModifyProfile(actor model.Principal, target uuid.UUID) error {
	if actor.Role.IsStaff() || actor.UserID == target {
		return nil
	}
	return &model.AuthorizationError{ActorID: actor.UserID, TargetID: target}
}

// RequireRole fails unless the actor holds one of roles.
func RequireRole(actor model.Principal, roles ...model.Role) error {
	if actor.Role.In(roles...) {
		return nil
	}
	return &model.AuthorizationError{ActorID: actor.UserID, Reason: "role " + actor.Role.String() + " is not permitted"}
}
