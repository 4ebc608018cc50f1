// Package storage hosts uploaded product and review images.
package storage

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"abaya-store/internal/model"

	"github.com/google/uuid"
)

// MaxImageSize is the largest accepted upload, in bytes.
const MaxImageSize = 5 << 20

// ImageStore persists an image and returns the public URL it is served from.
type ImageStore interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

var (
	ErrNotImage      = model.NewValidationError("Only image files can be uploaded.")
	ErrImageTooLarge = model.NewValidationError("Images must be 5 MB or smaller.")
)

// Validate checks an upload before it reaches a store. A missing content type is sniffed
// from the data.
func Validate(img *model.ImageUpload) error {
	if len(img.Data) > MaxImageSize {
		return ErrImageTooLarge
	}
	if img.ContentType == "" || img.ContentType == "application/octet-stream" {
		img.ContentType = http.DetectContentType(img.Data)
	}
	if !strings.HasPrefix(img.ContentType, "image/") {
		return ErrNotImage
	}
	return nil
}

// objectName builds a collision-free object name that keeps the upload's extension.
func objectName(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	return uuid.NewString() + ext
}

func joinURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + name
}
