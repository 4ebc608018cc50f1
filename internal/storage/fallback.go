package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// fallbackStore tries the primary store first and writes locally when it fails.
type fallbackStore struct {
	primary ImageStore
	local   ImageStore
	logger  zerolog.Logger
}

// NewFallbackStore creates a store that uploads to primary and falls back to local.
// If primary is nil, only the local store is used.
func NewFallbackStore(primary, local ImageStore, logger zerolog.Logger) ImageStore {
	return &fallbackStore{
		primary: primary,
		local:   local,
		logger:  logger.With().Str("component", "fallback-image-store").Logger(),
	}
}

func (s *fallbackStore) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	if s.primary == nil {
		return s.local.Upload(ctx, filename, contentType, body)
	}

	// the body is replayed if the primary store fails
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	url, err := s.primary.Upload(ctx, filename, contentType, bytes.NewReader(data))
	if err == nil {
		return url, nil
	}

	s.logger.Warn().
		Err(err).
		Str("filename", filename).
		Msg("primary image store failed, falling back to local directory")

	return s.local.Upload(ctx, filename, contentType, bytes.NewReader(data))
}
