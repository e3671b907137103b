package media

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gramly/internal/core/apperror"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// LocalStore writes uploaded images into a directory that the HTTP server exposes under BaseURL.
type LocalStore struct {
	Dir     string
	BaseURL string
	Logger  *zap.Logger
}

func NewLocalStore(dir, baseURL string, logger *zap.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &LocalStore{
		Dir:     dir,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Logger:  logger,
	}, nil
}

// Upload stores data under a fresh name and returns its public URL.
func (s *LocalStore) Upload(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperror.Validation("image required")
	}
	if err := ctx.Err(); err != nil {
		return "", apperror.Store("upload image", err)
	}

	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return "", apperror.Validation("unsupported image type")
	}

	name := uuid.Must(uuid.NewV4()).String() + ext
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return "", apperror.Store("write image", err)
	}

	s.Logger.Debug("image stored", zap.String("file", name), zap.String("contentType", contentType), zap.Int("bytes", len(data)))
	return s.BaseURL + "/" + name, nil
}

// Remove deletes a file previously returned by Upload.
func (s *LocalStore) Remove(ctx context.Context, url string) error {
	name, ok := strings.CutPrefix(url, s.BaseURL+"/")
	if !ok || name == "" || name != filepath.Base(name) {
		return fmt.Errorf("%q is not a media url of this store", url)
	}
	if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove image: %w", err)
	}
	s.Logger.Debug("image removed", zap.String("file", name))
	return nil
}
