package services

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxImageBytes = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageStore writes uploaded pictures under the public upload directory.
type ImageStore struct {
	root string
}

func NewImageStore(root string) *ImageStore {
	return &ImageStore{root: root}
}

// Save stores data in subdir and returns its path relative to the upload
// root, e.g. "lairs/<uuid>.png".
func (s *ImageStore) Save(data []byte, subdir string) (string, error) {
	if len(data) == 0 {
		return "", errInvalidInput("The image is empty.")
	}
	if len(data) > maxImageBytes {
		return "", errInvalidInput("The image must be at most %d MB.", maxImageBytes>>20)
	}
	ext, ok := imageExtensions[http.DetectContentType(data)]
	if !ok {
		return "", errInvalidInput("Only JPEG, PNG, GIF and WebP images are accepted.")
	}

	dir := filepath.Join(s.root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir uploads dir: %w", err)
	}

	filename := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return filepath.ToSlash(filepath.Join(subdir, filename)), nil
}

// SaveBase64 accepts raw base64 or a data URL.
func (s *ImageStore) SaveBase64(b64, subdir string) (string, error) {
	if idx := strings.Index(b64, "base64,"); idx >= 0 {
		b64 = b64[idx+7:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return "", errInvalidInput("The image is not valid base64.")
	}
	return s.Save(data, subdir)
}

// Remove deletes a stored image; a missing file is not an error.
func (s *ImageStore) Remove(rel string) error {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return nil
	}
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if inside, err := filepath.Rel(s.root, full); err != nil || strings.HasPrefix(inside, "..") {
		return nil
	}
	err := os.Remove(full)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove image %s: %w", rel, err)
	}
	return nil
}
