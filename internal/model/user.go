package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, offset, limit int) ([]User, error)
	Update(ctx context.Context, id uuid.UUID, update ProfileUpdate) (User, error)
	UpdateProfilePicture(ctx context.Context, id uuid.UUID, url string) (User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) (User, error)
	RecordLoginSuccess(ctx context.Context, id uuid.UUID) error
	RecordLoginFailure(ctx context.Context, id uuid.UUID, maxAttempts int) (locked bool, err error)
}

// User represents a stored user with its profile and authentication state.
type User struct {
	ID                          uuid.UUID
	Email                       string
	Nickname                    string
	FirstName                   *string
	LastName                    *string
	Bio                         *string
	ProfilePictureURL           *string
	LinkedInProfileURL          *string
	GitHubProfileURL            *string
	Role                        Role
	IsProfessional              bool
	ProfessionalStatusUpdatedAt *time.Time
	HashedPassword              string
	EmailVerified               bool
	FailedLoginAttempts         int
	IsLocked                    bool
	LastLoginAt                 *time.Time
	CreatedAt                   time.Time
	UpdatedAt                   time.Time
}

// ProfileUpdate carries optional profile changes. Nil fields are left untouched.
type ProfileUpdate struct {
	Nickname           *string
	FirstName          *string
	LastName           *string
	Bio                *string
	LinkedInProfileURL *string
	GitHubProfileURL   *string
	Role               *Role
	IsProfessional     *bool
}

// IsEmpty reports whether the update changes nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return u.Nickname == nil && u.FirstName == nil && u.LastName == nil && u.Bio == nil &&
		u.LinkedInProfileURL == nil && u.GitHubProfileURL == nil && u.Role == nil && u.IsProfessional == nil
}

// RegisterParams contains parameters to register a user.
type RegisterParams struct {
	Email     string
	Password  string
	Nickname  string
	FirstName *string
	LastName  *string
	Bio       *string
}

// Page is a window of users together with the total count.
type Page struct {
	Items []User
	Total int
	Skip  int
	Limit int
}
