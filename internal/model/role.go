package model

import (
	"fmt"
	"strings"
)

// Role enumerates user roles.
type Role string

const (
	// RoleAnonymous is a registered user whose email is not verified yet.
	RoleAnonymous Role = "ANONYMOUS"
	// RoleAuthenticated is a verified regular user.
	RoleAuthenticated Role = "AUTHENTICATED"
	// RoleManager may manage other users' profiles.
	RoleManager Role = "MANAGER"
	// RoleAdmin may do everything a manager can and change roles.
	RoleAdmin Role = "ADMIN"
)

// ParseRole converts a case-insensitive role name into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleAnonymous, RoleAuthenticated, RoleManager, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IsStaff reports whether the role may act on other users' profiles.
func (r Role) IsStaff() bool {
	return r == RoleManager || r == RoleAdmin
}

// In reports whether r is one of roles.
func (r Role) In(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
