package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// localStore writes images into a directory served by the API itself.
type localStore struct {
	dir     string
	baseURL string
	logger  zerolog.Logger
}

// NewLocalStore creates the directory if needed and returns a store writing into it.
func NewLocalStore(dir, baseURL string, logger zerolog.Logger) (ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %s: %w", dir, err)
	}

	return &localStore{
		dir:     dir,
		baseURL: baseURL,
		logger:  logger.With().Str("component", "local-image-store").Logger(),
	}, nil
}

func (s *localStore) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	name := objectName(filename, contentType)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("failed to create image file")
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		_ = os.Remove(path)
		s.logger.Error().Err(err).Str("path", path).Msg("failed to write image file")
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to close image file: %w", err)
	}

	s.logger.Debug().Str("path", path).Msg("image stored locally")
	return joinURL(s.baseURL, name), nil
}
