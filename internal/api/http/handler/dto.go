package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/userhub/internal/model"
)

// ProfileResponse is the public view of a user.
type ProfileResponse struct {
	ID                 uuid.UUID `json:"id"`
	Email              string    `json:"email"`
	Nickname           string    `json:"nickname"`
	FirstName          *string   `json:"first_name"`
	LastName           *string   `json:"last_name"`
	Bio                *string   `json:"bio"`
	ProfilePictureURL  *string   `json:"profile_picture_url"`
	LinkedInProfileURL *string   `json:"linkedin_profile_url"`
	GitHubProfileURL   *string   `json:"github_profile_url"`
	Role               string    `json:"role" example:"AUTHENTICATED"`
	IsProfessional     bool      `json:"is_professional"`
}

func newProfileResponse(u model.User) ProfileResponse {
	return ProfileResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Nickname:           u.Nickname,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Bio:                u.Bio,
		ProfilePictureURL:  u.ProfilePictureURL,
		LinkedInProfileURL: u.LinkedInProfileURL,
		GitHubProfileURL:   u.GitHubProfileURL,
		Role:               u.Role.String(),
		IsProfessional:     u.IsProfessional,
	}
}

// ProfileListResponse is one page of profiles.
type ProfileListResponse struct {
	Items []ProfileResponse `json:"items"`
	Total int               `json:"total"`
	Skip  int               `json:"skip"`
	Limit int               `json:"limit"`
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Email     string  `json:"email" binding:"required" example:"jane@example.com"`
	Password  string  `json:"password" binding:"required" example:"Str0ng!pass"`
	Nickname  string  `json:"nickname" example:"jane_doe"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type" example:"bearer"`
}

func newTokenResponse(pair model.TokenPair) TokenResponse {
	return TokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, TokenType: "bearer"}
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// UpdateProfileRequest is the body of PUT /users/{user_id}. Absent fields are
// left unchanged.
type UpdateProfileRequest struct {
	Nickname           *string `json:"nickname"`
	FirstName          *string `json:"first_name"`
	LastName           *string `json:"last_name"`
	Bio                *string `json:"bio"`
	LinkedInProfileURL *string `json:"linkedin_profile_url"`
	GitHubProfileURL   *string `json:"github_profile_url"`
	Role               *string `json:"role" example:"MANAGER"`
	IsProfessional     *bool   `json:"is_professional"`
}

func (r UpdateProfileRequest) toModel() (model.ProfileUpdate, error) {
	update := model.ProfileUpdate{
		Nickname:           r.Nickname,
		FirstName:          r.FirstName,
		LastName:           r.LastName,
		Bio:                r.Bio,
		LinkedInProfileURL: r.LinkedInProfileURL,
		GitHubProfileURL:   r.GitHubProfileURL,
		IsProfessional:     r.IsProfessional,
	}
	if r.Role != nil {
		role, err := model.ParseRole(*r.Role)
		if err != nil {
			return model.ProfileUpdate{}, model.NewValidationError(model.ConstraintField, "%s", err.Error())
		}
		update.Role = &role
	}
	return update, nil
}

// PictureHistoryItem is one archived upload.
type PictureHistoryItem struct {
	Key        string    `json:"key" example:"4f0c.../archive/profile_01J9Z6Q8ZK3YV2M3T8T0W1X2Y3.jpg"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// PictureHistoryResponse lists archived uploads, newest first.
type PictureHistoryResponse struct {
	Items []PictureHistoryItem `json:"items"`
}

// HealthResponse reports liveness or readiness.
type HealthResponse struct {
	Status  string            `json:"status" example:"ok"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}
