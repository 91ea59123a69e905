package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/userhub/internal/model"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error" example:"validation_failed"`
	Detail string `json:"detail" example:"file exceeds maximum size of 5MB"`
}

func errorStatus(err error) (int, string, string) {
	var (
		authErr        *model.AuthorizationError
		validationErr  *model.ValidationError
		storageErr     *model.StorageError
		persistenceErr *model.PersistenceError
	)

	switch {
	case errors.As(err, &authErr):
		return http.StatusForbidden, "forbidden", authErr.Error()
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity, "validation_failed", validationErr.Message
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found", "resource not found"
	case errors.As(err, &storageErr):
		return http.StatusBadGateway, "storage_unavailable", "object storage is unavailable"
	case errors.As(err, &persistenceErr):
		return http.StatusInternalServerError, "persistence_failed", "failed to save changes"
	case errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrAlreadyVerified):
		return http.StatusConflict, "conflict", err.Error()
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", "invalid credentials"
	case errors.Is(err, model.ErrTokenRevoked), errors.Is(err, model.ErrTokenExpired), errors.Is(err, model.ErrTokenMismatch):
		return http.StatusUnauthorized, "invalid_token", err.Error()
	case errors.Is(err, model.ErrAccountLocked):
		return http.StatusForbidden, "account_locked", "account is locked"
	case errors.Is(err, model.ErrVerificationExpired):
		return http.StatusBadRequest, "verification_expired", "verification token expired"
	case errors.Is(err, model.ErrTooManyRequests):
		return http.StatusTooManyRequests, "rate_limited", "too many requests, try again later"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

// writeError maps err to its status code and aborts the request.
func writeError(c *gin.Context, err error) {
	status, code, detail := errorStatus(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: code, Detail: detail})
}

func badRequest(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Detail: detail})
}
