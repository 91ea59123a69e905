package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dtroode/userhub/internal/logger"
	"github.com/dtroode/userhub/internal/model"
)

// ProfileService defines profile read and update operations.
type ProfileService interface {
	Get(ctx context.Context, actor model.Principal, userID uuid.UUID) (model.User, error)
	List(ctx context.Context, actor model.Principal, skip, limit int) (model.Page, error)
	Update(ctx context.Context, actor model.Principal, userID uuid.UUID, update model.ProfileUpdate) (model.User, error)
}

// User handles HTTP endpoints for user profiles.
type User struct {
	profileService ProfileService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewUser creates a new User handler.
func NewUser(profileService ProfileService, contextManager model.ContextManager, logger *logger.Logger) *User {
	return &User{profileService: profileService, contextManager: contextManager, logger: logger}
}

// List godoc
//
//	@Summary	List users
//	@Tags		Users
//	@Security	BearerAuth
//	@Produce	json
//	@Param		skip	query		int	false	"offset"	default(0)
//	@Param		limit	query		int	false	"page size"	default(10)
//	@Success	200		{object}	ProfileListResponse
//	@Failure	403		{object}	ErrorResponse
//	@Router		/users [get]
func (h *User) List(c *gin.Context) {
	principal, ok := principalOrAbort(c, h.contextManager)
	if !ok {
		return
	}

	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		badRequest(c, "skip must be an integer")
		return
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		badRequest(c, "limit must be an integer")
		return
	}

	page, err := h.profileService.List(c.Request.Context(), principal, skip, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := ProfileListResponse{
		Items: make([]ProfileResponse, 0, len(page.Items)),
		Total: page.Total,
		Skip:  page.Skip,
		Limit: page.Limit,
	}
	for _, u := range page.Items {
		resp.Items = append(resp.Items, newProfileResponse(u))
	}

	c.JSON(http.StatusOK, resp)
}

// Get godoc
//
//	@Summary	Get a user profile
//	@Tags		Users
//	@Security	BearerAuth
//	@Produce	json
//	@Param		user_id	path		string	true	"user id"
//	@Success	200		{object}	ProfileResponse
//	@Failure	403		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/users/{user_id} [get]
func (h *User) Get(c *gin.Context) {
	principal, ok := principalOrAbort(c, h.contextManager)
	if !ok {
		return
	}
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	user, err := h.profileService.Get(c.Request.Context(), principal, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(user))
}

// Update godoc
//
//	@Summary	Update a user profile
//	@Tags		Users
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		user_id	path		string					true	"user id"
//	@Param		body	body		UpdateProfileRequest	true	"fields to change"
//	@Success	200		{object}	ProfileResponse
//	@Failure	403		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse	"nickname taken"
//	@Failure	422		{object}	ErrorResponse
//	@Router		/users/{user_id} [put]
func (h *User) Update(c *gin.Context) {
	principal, ok := principalOrAbort(c, h.contextManager)
	if !ok {
		return
	}
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	update, err := req.toModel()
	if err != nil {
		writeError(c, err)
		return
	}

	user, err := h.profileService.Update(c.Request.Context(), principal, userID, update)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(user))
}

func principalOrAbort(c *gin.Context, contextManager model.ContextManager) (model.Principal, bool) {
	principal, ok := contextManager.GetPrincipalFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Detail: "missing authorization token"})
		return model.Principal{}, false
	}
	return principal, true
}

func userIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		badRequest(c, "user_id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
