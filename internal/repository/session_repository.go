package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"abaya-store/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const sessionKeyPrefix = "session:"

// sessionRepository stores sessions as Redis hashes with a sliding expiry.
type sessionRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewSessionRepository creates a Redis-backed session store.
func NewSessionRepository(client *redis.Client, ttl time.Duration, logger zerolog.Logger) SessionRepository {
	return &sessionRepository{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("repository", "session").Logger(),
	}
}

// Create issues a new session token for the user.
func (r *sessionRepository) Create(ctx context.Context, userID uuid.UUID, role string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	token := hex.EncodeToString(buf)
	key := sessionKeyPrefix + token

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    userID.String(),
		"role":       role,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	})
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to create session")
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	r.logger.Debug().Str("user_id", userID.String()).Msg("session created")
	return token, nil
}

// Get resolves a token to its principal and extends its expiry.
func (r *sessionRepository) Get(ctx context.Context, token string) (*model.Principal, error) {
	if token == "" {
		return nil, nil
	}
	key := sessionKeyPrefix + token

	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to read session")
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	userID, err := uuid.Parse(fields["user_id"])
	if err != nil {
		r.logger.Warn().Err(err).Msg("dropping malformed session")
		_ = r.client.Del(ctx, key).Err()
		return nil, nil
	}

	if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		r.logger.Warn().Err(err).Msg("failed to extend session")
	}

	return &model.Principal{
		UserID:    userID,
		Role:      fields["role"],
		SessionID: token,
	}, nil
}

// Delete revokes a session.
func (r *sessionRepository) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		r.logger.Error().Err(err).Msg("failed to delete session")
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
