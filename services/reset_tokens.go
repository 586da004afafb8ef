package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const ResetTokenTTL = 900 * time.Second

const resetTokenPrefix = "pswd_reset:"

// ResetTokenStore keeps one hashed password reset token per user in Redis.
// Keys expire after the TTL, so stale tokens disappear on their own.
type ResetTokenStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewResetTokenStore(rdb redis.Cmdable) *ResetTokenStore {
	return &ResetTokenStore{rdb: rdb, ttl: ResetTokenTTL}
}

// Save stores hash for userID, replacing any previous token.
func (s *ResetTokenStore) Save(ctx context.Context, userID, hash string) error {
	if err := s.rdb.Set(ctx, resetTokenPrefix+userID, hash, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

// Get returns the stored hash, or ErrInvalidResetToken when there is none.
func (s *ResetTokenStore) Get(ctx context.Context, userID string) (string, error) {
	hash, err := s.rdb.Get(ctx, resetTokenPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrInvalidResetToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to load reset token: %w", err)
	}
	return hash, nil
}

func (s *ResetTokenStore) Delete(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, resetTokenPrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to delete reset token: %w", err)
	}
	return nil
}
