package handler

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dtroode/userhub/internal/logger"
	"github.com/dtroode/userhub/internal/model"
)

const (
	pictureFormField = "file"
	// multipartOverhead is the allowance for multipart boundaries and part
	// headers on top of the maximum picture size.
	multipartOverhead = 1 << 20
)

// PictureService defines profile picture operations.
type PictureService interface {
	Upload(ctx context.Context, actor model.Principal, req model.UploadRequest) (model.User, error)
	History(ctx context.Context, actor model.Principal, userID uuid.UUID) ([]model.ArchivedPicture, error)
	Open(ctx context.Context, userID uuid.UUID) (model.Object, error)
}

// Picture handles HTTP endpoints for profile pictures.
type Picture struct {
	pictureService PictureService
	contextManager model.ContextManager
	maxSize        int64
	logger         *logger.Logger
}

// NewPicture creates a new Picture handler. maxSize bounds the accepted
// request body.
func NewPicture(pictureService PictureService, contextManager model.ContextManager, maxSize int64, logger *logger.Logger) *Picture {
	return &Picture{
		pictureService: pictureService,
		contextManager: contextManager,
		maxSize:        maxSize,
		logger:         logger,
	}
}

// Upload godoc
//
//	@Summary		Upload a profile picture
//	@Description	Stores the image as a new archive entry and as the user's active picture, then updates profile_picture_url.
//	@Tags			Pictures
//	@Security		BearerAuth
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			user_id	path		string	true	"user id"
//	@Param			file	formData	file	true	"image file"
//	@Success		200		{object}	ProfileResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/users/{user_id}/profile-picture [post]
func (h *Picture) Upload(c *gin.Context) {
	principal, ok := principalOrAbort(c, h.contextManager)
	if !ok {
		return
	}
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSize+multipartOverhead)

	req, err := h.readUpload(c)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(c, model.NewValidationError(model.ConstraintOversize,
				"file exceeds maximum size of %s", formatSize(h.maxSize)))
			return
		}
		h.logger.Warn("Picture handler: failed to read upload", "user_id", userID, "error", err.Error())
		badRequest(c, "invalid multipart body")
		return
	}
	req.UserID = userID

	user, err := h.pictureService.Upload(c.Request.Context(), principal, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(user))
}

// readUpload extracts the picture part. A missing part gives an empty request,
// which the service rejects after the access check.
func (h *Picture) readUpload(c *gin.Context) (model.UploadRequest, error) {
	header, err := c.FormFile(pictureFormField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return model.UploadRequest{}, nil
		}
		return model.UploadRequest{}, err
	}

	f, err := header.Open()
	if err != nil {
		return model.UploadRequest{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxSize+1))
	if err != nil {
		return model.UploadRequest{}, err
	}

	return model.UploadRequest{
		Filename:    header.Filename,
		ContentType: partContentType(header.Header.Get("Content-Type"), data),
		Data:        data,
	}, nil
}

// partContentType trusts the declared type unless it is missing or generic.
func partContentType(declared string, data []byte) string {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil || mediaType == "" || mediaType == "application/octet-stream" {
		return http.DetectContentType(data)
	}
	return declared
}

func formatSize(n int64) string {
	if n%(1<<20) == 0 {
		return strconv.FormatInt(n>>20, 10) + "MB"
	}
	return strconv.FormatInt(n, 10) + " bytes"
}

// History godoc
//
//	@Summary	List archived profile pictures
//	@Tags		Pictures
//	@Security	BearerAuth
//	@Produce	json
//	@Param		user_id	path		string	true	"user id"
//	@Success	200		{object}	PictureHistoryResponse
//	@Failure	403		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Failure	502		{object}	ErrorResponse
//	@Router		/users/{user_id}/profile-picture/history [get]
func (h *Picture) History(c *gin.Context) {
	principal, ok := principalOrAbort(c, h.contextManager)
	if !ok {
		return
	}
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	history, err := h.pictureService.History(c.Request.Context(), principal, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := PictureHistoryResponse{Items: make([]PictureHistoryItem, 0, len(history))}
	for _, p := range history {
		resp.Items = append(resp.Items, PictureHistoryItem{Key: p.Key, Size: p.Size, UploadedAt: p.UploadedAt})
	}
	c.JSON(http.StatusOK, resp)
}

// Serve godoc
//
//	@Summary	Download the current profile picture
//	@Tags		Pictures
//	@Produce	image/jpeg,image/png,image/gif
//	@Param		user_id	path	string	true	"user id"
//	@Success	200
//	@Failure	404	{object}	ErrorResponse
//	@Failure	502	{object}	ErrorResponse
//	@Router		/profiles/{user_id}/picture [get]
func (h *Picture) Serve(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	obj, err := h.pictureService.Open(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	defer obj.Body.Close()

	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, map[string]string{
		"Cache-Control": "no-cache",
	})
}
