package model

import (
	"time"

	"github.com/google/uuid"
)

// UploadRequest is a single profile picture upload.
type UploadRequest struct {
	UserID      uuid.UUID
	Filename    string
	ContentType string
	Data        []byte
}

// ImageMeta is what the validator learned about an accepted image.
type ImageMeta struct {
	ContentType string
	Extension   string
	Width       int
	Height      int
}

// ArchivedPicture is one entry of a user's picture history.
type ArchivedPicture struct {
	Key        string
	Size       int64
	UploadedAt time.Time
}
