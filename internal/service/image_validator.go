package service

import (
	"bytes"
	"image"
	// Decoders for the formats accepted as profile pictures.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dtroode/userhub/internal/config"
	"github.com/dtroode/userhub/internal/model"
)

const (
	MinImageDimension = 10
	MaxImageDimension = 5000
)

type imageFormat struct {
	decoder    string
	extensions []string
}

// Formats that can be decoded and dimension checked. The first extension is canonical.
var knownFormats = map[string]imageFormat{
	"image/jpeg": {decoder: "jpeg", extensions: []string{".jpg", ".jpeg"}},
	"image/png":  {decoder: "png", extensions: []string{".png"}},
	"image/gif":  {decoder: "gif", extensions: []string{".gif"}},
}

// ImageValidator accepts or rejects uploaded picture payloads. It does no I/O.
type ImageValidator struct {
	maxSize int64
	allowed map[string]struct{}
}

// NewImageValidator builds a validator from upload configuration.
func NewImageValidator(cfg config.Upload) *ImageValidator {
	allowed := make(map[string]struct{}, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[normalizeContentType(t)] = struct{}{}
	}
	return &ImageValidator{maxSize: cfg.MaxSize, allowed: allowed}
}

// MaxSize returns the largest accepted payload in bytes.
func (v *ImageValidator) MaxSize() int64 {
	return v.maxSize
}

// Validate checks data against size, type, extension and image constraints.
// The first violated constraint is reported as a *model.ValidationError.
func (v *ImageValidator) Validate(data []byte, contentType, filename string) (model.ImageMeta, error) {
	if len(data) == 0 {
		return model.ImageMeta{}, model.NewValidationError(model.ConstraintEmpty, "file is empty")
	}
	if int64(len(data)) > v.maxSize {
		return model.ImageMeta{}, model.NewValidationError(model.ConstraintOversize,
			"file size exceeds maximum allowed size of %s", formatMB(v.maxSize))
	}

	ct := normalizeContentType(contentType)
	if _, ok := v.allowed[ct]; !ok {
		return model.ImageMeta{}, model.NewValidationError(model.ConstraintUnsupportedType,
			"content type %q is not allowed", contentType)
	}

	format, known := knownFormats[ct]
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != "" && !extensionMatches(ct, format, known, ext) {
		return model.ImageMeta{}, model.NewValidationError(model.ConstraintExtension,
			"file extension %q does not match content type %s", ext, ct)
	}

	meta := model.ImageMeta{ContentType: ct, Extension: canonicalExtension(ct, format, known, ext)}
	if !known {
		return meta, nil
	}

	cfg, decoded, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return model.ImageMeta{}, model.NewValidationError(model.ConstraintCorrupt, "file is not a valid image")
	}
	if decoded != format.decoder {
		return model.ImageMeta{}, model.NewValidationError(model.ConstraintFormatMismatch,
			"file content is %s but declared as %s", decoded, ct)
	}
	if cfg.Width < MinImageDimension || cfg.Height < MinImageDimension {
		return model.ImageMeta{}, model.NewValidationError(model.ConstraintDimensions,
			"image dimensions %dx%d are below the minimum of %dx%d", cfg.Width, cfg.Height, MinImageDimension, MinImageDimension)
	}
	if cfg.Width > MaxImageDimension || cfg.Height > MaxImageDimension {
		return model.ImageMeta{}, model.NewValidationError(model.ConstraintDimensions,
			"image dimensions %dx%d exceed the maximum of %dx%d", cfg.Width, cfg.Height, MaxImageDimension, MaxImageDimension)
	}

	meta.Width, meta.Height = cfg.Width, cfg.Height
	return meta, nil
}

func normalizeContentType(ct string) string {
	if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
		return strings.ToLower(mediaType)
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func extensionMatches(ct string, format imageFormat, known bool, ext string) bool {
	if known {
		for _, e := range format.extensions {
			if e == ext {
				return true
			}
		}
		return false
	}
	exts, _ := mime.ExtensionsByType(ct)
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return len(exts) == 0
}

func canonicalExtension(ct string, format imageFormat, known bool, ext string) string {
	if known {
		return format.extensions[0]
	}
	if ext != "" {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(ct); len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

func formatMB(size int64) string {
	return strconv.FormatFloat(float64(size)/(1024*1024), 'f', -1, 64) + "MB"
}
