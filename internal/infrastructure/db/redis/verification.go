package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jingally/booking-system/internal/core/domain"
)

// VerificationCodeStore keeps one live e-mail verification code per user.
// Key format: verify:<user_id>
type VerificationCodeStore struct {
	client redis.Cmdable
}

func NewVerificationCodeStore(client redis.Cmdable) *VerificationCodeStore {
	return &VerificationCodeStore{client: client}
}

// Save replaces any existing code for the user.
func (s *VerificationCodeStore) Save(ctx context.Context, userID, code string, ttl time.Duration) error {
	return s.client.Set(ctx, verificationKey(userID), code, ttl).Err()
}

func (s *VerificationCodeStore) Get(ctx context.Context, userID string) (string, error) {
	code, err := s.client.Get(ctx, verificationKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrInvalidVerificationCode
	}
	if err != nil {
		return "", fmt.Errorf("verification code lookup: %w", err)
	}
	return code, nil
}

func (s *VerificationCodeStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, verificationKey(userID)).Err()
}

func verificationKey(userID string) string {
	return "verify:" + userID
}
