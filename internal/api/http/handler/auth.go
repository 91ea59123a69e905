package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/userhub/internal/logger"
	"github.com/dtroode/userhub/internal/model"
)

// AuthService defines registration, login and email verification operations.
type AuthService interface {
	Register(ctx context.Context, params model.RegisterParams) (model.User, error)
	Login(ctx context.Context, email, password string) (model.TokenPair, error)
	VerifyEmail(ctx context.Context, token string) (model.User, bool, error)
	ResendVerification(ctx context.Context, actor model.Principal) error
}

// TokenService defines token refresh and revoke operations.
type TokenService interface {
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	RevokeByToken(ctx context.Context, refreshToken string) error
}

// Auth handles HTTP endpoints for authentication.
type Auth struct {
	authService    AuthService
	tokenService   TokenService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, tokenService TokenService, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		tokenService:   tokenService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Register godoc
//
//	@Summary	Register a new user
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		RegisterRequest	true	"registration data"
//	@Success	201		{object}	ProfileResponse
//	@Failure	409		{object}	ErrorResponse	"email or nickname taken"
//	@Failure	422		{object}	ErrorResponse	"password policy or field validation"
//	@Router		/register [post]
func (h *Auth) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), model.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		Nickname:  req.Nickname,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
	})
	if err != nil {
		h.logger.Info("Auth handler: registration failed", "error", err.Error())
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newProfileResponse(user))
}

// Login godoc
//
//	@Summary	Log in with email and password
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		LoginRequest	true	"credentials"
//	@Success	200		{object}	TokenResponse
//	@Failure	401		{object}	ErrorResponse
//	@Failure	403		{object}	ErrorResponse	"account locked"
//	@Failure	429		{object}	ErrorResponse
//	@Router		/login [post]
func (h *Auth) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	pair, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTokenResponse(pair))
}

// Refresh godoc
//
//	@Summary	Rotate a refresh token
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		RefreshRequest	true	"refresh token"
//	@Success	200		{object}	TokenResponse
//	@Failure	401		{object}	ErrorResponse
//	@Router		/token/refresh [post]
func (h *Auth) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refresh token is required")
		return
	}

	pair, err := h.tokenService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.logger.Info("Auth handler: token refresh failed", "error", err.Error())
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTokenResponse(pair))
}

// Logout godoc
//
//	@Summary	Revoke a refresh token
//	@Tags		Auth
//	@Accept		json
//	@Param		body	body	RefreshRequest	true	"refresh token"
//	@Success	204
//	@Failure	401	{object}	ErrorResponse
//	@Router		/logout [post]
func (h *Auth) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refresh token is required")
		return
	}

	if err := h.tokenService.RevokeByToken(c.Request.Context(), req.RefreshToken); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// VerifyEmail godoc
//
//	@Summary	Confirm an email address
//	@Tags		Auth
//	@Produce	json
//	@Param		token	query		string	true	"verification token"
//	@Success	200		{object}	MessageResponse
//	@Failure	400		{object}	ErrorResponse	"token expired"
//	@Failure	404		{object}	ErrorResponse	"unknown token"
//	@Router		/verify-email [get]
func (h *Auth) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		badRequest(c, "token is required")
		return
	}

	user, alreadyVerified, err := h.authService.VerifyEmail(c.Request.Context(), token)
	if err != nil {
		writeError(c, err)
		return
	}

	if alreadyVerified {
		c.JSON(http.StatusOK, MessageResponse{Message: "email already verified"})
		return
	}

	h.logger.Info("Auth handler: email verified", "user_id", user.ID)
	c.JSON(http.StatusOK, MessageResponse{Message: "email verified"})
}

// ResendVerification godoc
//
//	@Summary	Send a new verification email
//	@Tags		Auth
//	@Security	BearerAuth
//	@Produce	json
//	@Success	202	{object}	MessageResponse
//	@Failure	409	{object}	ErrorResponse	"already verified"
//	@Failure	429	{object}	ErrorResponse
//	@Router		/resend-verification [post]
func (h *Auth) ResendVerification(c *gin.Context) {
	principal, ok := h.contextManager.GetPrincipalFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Detail: "missing authorization token"})
		return
	}

	if err := h.authService.ResendVerification(c.Request.Context(), principal); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, MessageResponse{Message: "verification email sent"})
}
