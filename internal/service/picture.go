package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/userhub/internal/idgen"
	"github.com/dtroode/userhub/internal/logger"
	"github.com/dtroode/userhub/internal/model"
)

// Validator checks an uploaded picture before anything is stored.
type Validator interface {
	Validate(data []byte, contentType, filename string) (model.ImageMeta, error)
}

// KeyGenerator mints sortable unique suffixes for archive keys.
type KeyGenerator interface {
	Next() string
}

// Picture manages the profile picture lifecycle: every accepted upload is
// written to a new archive key and to the user's single active key before the
// stable public URL is stored on the user record.
type Picture struct {
	store     model.ObjectStore
	userStore model.UserStore
	validator Validator
	ids       KeyGenerator
	baseURL   string
	logger    *logger.Logger
}

func NewPicture(
	store model.ObjectStore,
	userStore model.UserStore,
	validator Validator,
	ids KeyGenerator,
	baseURL string,
	logger *logger.Logger,
) *Picture {
	return &Picture{
		store:     store,
		userStore: userStore,
		validator: validator,
		ids:       ids,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

// ActiveKey is the object key of the user's current picture.
func ActiveKey(userID uuid.UUID, ext string) string {
	return activePrefix(userID) + strings.TrimPrefix(ext, ".")
}

// ArchiveKey is the object key of one historical upload.
func ArchiveKey(userID uuid.UUID, stamp, ext string) string {
	return archivePrefix(userID) + "profile_" + stamp + ext
}

func activePrefix(userID uuid.UUID) string {
	return userID.String() + "/profile."
}

func archivePrefix(userID uuid.UUID) string {
	return userID.String() + "/archive/"
}

// PictureURL is the public retrieval URL for a user's picture. It does not
// depend on the storage layout.
func (s *Picture) PictureURL(userID uuid.UUID) string {
	return s.baseURL + "/profiles/" + userID.String() + "/picture"
}

// Upload stores a new profile picture for req.UserID on behalf of actor and
// returns the updated user.
func (s *Picture) Upload(ctx context.Context, actor model.Principal, req model.UploadRequest) (model.User, error) {
	if err := CanModifyProfile(actor, req.UserID); err != nil {
		s.logger.Warn("Picture service: upload denied",
			"actor_id", actor.UserID, "actor_role", actor.Role, "user_id", req.UserID)
		return model.User{}, err
	}

	meta, err := s.validator.Validate(req.Data, req.ContentType, req.Filename)
	if err != nil {
		s.logger.Info("Picture service: upload rejected",
			"user_id", req.UserID, "size", len(req.Data), "content_type", req.ContentType, "error", err.Error())
		return model.User{}, err
	}

	if _, err := s.userStore.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, fmt.Errorf("user %s: %w", req.UserID, model.ErrNotFound)
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	if err := s.store.EnsureBucket(ctx); err != nil {
		s.logger.Error("Picture service: failed to ensure bucket",
			"bucket", s.store.Bucket(), "user_id", req.UserID, "error", err.Error())
		return model.User{}, &model.StorageError{Op: "ensure_bucket", Key: s.store.Bucket(), Err: err}
	}

	archiveKey := ArchiveKey(req.UserID, s.ids.Next(), meta.Extension)
	activeKey := ActiveKey(req.UserID, meta.Extension)

	if err := s.store.Put(ctx, archiveKey, req.Data, meta.ContentType); err != nil {
		s.logger.Error("Picture service: failed to write archive copy",
			"user_id", req.UserID, "bucket", s.store.Bucket(), "key", archiveKey, "error", err.Error())
		return model.User{}, &model.StorageError{Op: "put_archive", Key: archiveKey, Err: err}
	}

	if err := s.store.Put(ctx, activeKey, req.Data, meta.ContentType); err != nil {
		s.logger.Error("Picture service: partial write, archive stored but active copy failed",
			"user_id", req.UserID, "bucket", s.store.Bucket(), "archive_key", archiveKey, "active_key", activeKey,
			"error", err.Error())
		return model.User{}, &model.StorageError{Op: "put_active", Key: activeKey, Err: err}
	}

	s.removeStaleActive(ctx, req.UserID, activeKey)

	url := s.PictureURL(req.UserID)
	user, err := s.userStore.UpdateProfilePicture(ctx, req.UserID, url)
	if err != nil {
		s.logger.Error("Picture service: orphaned profile picture objects",
			"user_id", req.UserID, "bucket", s.store.Bucket(), "archive_key", archiveKey, "active_key", activeKey,
			"error", err.Error())
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, fmt.Errorf("user %s: %w", req.UserID, model.ErrNotFound)
		}
		return model.User{}, &model.PersistenceError{UserID: req.UserID, Err: err}
	}

	s.logger.Info("Picture service: profile picture updated",
		"user_id", req.UserID, "actor_id", actor.UserID, "archive_key", archiveKey, "active_key", activeKey,
		"width", meta.Width, "height", meta.Height)

	return user, nil
}

// removeStaleActive deletes active objects that are older than keep, so that
// concurrent uploads with different extensions leave exactly one active key:
// the newest write. Age is taken from the store's LastModified with the key as
// tie-breaker, so every racer agrees on the survivor. When keep is already gone
// a newer upload has replaced it and nothing is removed.
func (s *Picture) removeStaleActive(ctx context.Context, userID uuid.UUID, keep string) {
	objects, err := s.store.List(ctx, activePrefix(userID))
	if err != nil {
		s.logger.Warn("Picture service: failed to list active pictures",
			"user_id", userID, "error", err.Error())
		return
	}

	var own *model.ObjectInfo
	for i := range objects {
		if objects[i].Key == keep {
			own = &objects[i]
			break
		}
	}
	if own == nil {
		return
	}

	for _, obj := range objects {
		if obj.Key == keep || !newerObject(*own, obj) {
			continue
		}
		if err := s.store.Remove(ctx, obj.Key); err != nil {
			s.logger.Warn("Picture service: failed to remove stale active picture",
				"user_id", userID, "key", obj.Key, "error", err.Error())
		}
	}
}

// newerObject orders objects by modification time, then by key.
func newerObject(a, b model.ObjectInfo) bool {
	if !a.LastModified.Equal(b.LastModified) {
		return a.LastModified.After(b.LastModified)
	}
	return a.Key > b.Key
}

// History lists the archived pictures of userID, newest first.
func (s *Picture) History(ctx context.Context, actor model.Principal, userID uuid.UUID) ([]model.ArchivedPicture, error) {
	if err := CanModifyProfile(actor, userID); err != nil {
		return nil, err
	}

	if _, err := s.userStore.GetByID(ctx, userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	objects, err := s.store.List(ctx, archivePrefix(userID))
	if err != nil {
		return nil, &model.StorageError{Op: "list_archive", Key: archivePrefix(userID), Err: err}
	}

	history := make([]model.ArchivedPicture, 0, len(objects))
	for _, obj := range objects {
		entry := model.ArchivedPicture{Key: obj.Key, Size: obj.Size, UploadedAt: obj.LastModified}
		if stamp := archiveStamp(obj.Key); stamp != "" {
			if t := idgen.Time(stamp); !t.IsZero() {
				entry.UploadedAt = t
			}
		}
		history = append(history, entry)
	}

	// Archive keys embed a ULID, so reverse key order is newest first.
	sort.Slice(history, func(i, j int) bool { return history[i].Key > history[j].Key })

	return history, nil
}

func archiveStamp(key string) string {
	base := path.Base(key)
	base = strings.TrimSuffix(base, path.Ext(base))
	return strings.TrimPrefix(base, "profile_")
}

// Open returns the current active picture of userID. Callers must close the body.
func (s *Picture) Open(ctx context.Context, userID uuid.UUID) (model.Object, error) {
	objects, err := s.store.List(ctx, activePrefix(userID))
	if err != nil {
		return model.Object{}, &model.StorageError{Op: "list_active", Key: activePrefix(userID), Err: err}
	}
	if len(objects) == 0 {
		return model.Object{}, fmt.Errorf("picture of user %s: %w", userID, model.ErrNotFound)
	}

	// More than one active key only exists briefly during a concurrent upload.
	latest := objects[0]
	for _, obj := range objects[1:] {
		if newerObject(obj, latest) {
			latest = obj
		}
	}

	obj, err := s.store.Get(ctx, latest.Key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Object{}, fmt.Errorf("picture of user %s: %w", userID, model.ErrNotFound)
		}
		return model.Object{}, &model.StorageError{Op: "get_active", Key: latest.Key, Err: err}
	}
	if obj.ContentType == "" {
		obj.ContentType = contentTypeForKey(obj.Key)
	}

	return obj, nil
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	}
	return "application/octet-stream"
}
