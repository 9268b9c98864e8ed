package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers which shipment an Idempotency-Key produced.
// Key format: idem:shipments:<owner_id>:<key>
type IdempotencyStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given client.
func NewIdempotencyStore(client redis.Cmdable) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: idempotencyTTL}
}

// pendingMarker holds a reserved key until the shipment id is known.
const pendingMarker = "pending"

// Reserve claims the key with SETNX. The loser of a race reads back whatever
// the winner stored.
func (s *IdempotencyStore) Reserve(ctx context.Context, ownerID, key string) (string, bool, error) {
	k := idempotencyKey(ownerID, key)
	ok, err := s.client.SetNX(ctx, k, pendingMarker, s.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("idempotency reserve: %w", err)
	}
	if ok {
		return "", true, nil
	}

	id, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Released between the two calls; the caller sees it as in progress.
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("idempotency reserve: %w", err)
	}
	if id == pendingMarker {
		return "", false, nil
	}
	return id, false, nil
}

// Complete replaces the pending marker with the shipment id.
func (s *IdempotencyStore) Complete(ctx context.Context, ownerID, key, shipmentID string) error {
	if err := s.client.Set(ctx, idempotencyKey(ownerID, key), shipmentID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, ownerID, key string) error {
	if err := s.client.Del(ctx, idempotencyKey(ownerID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func idempotencyKey(ownerID, key string) string {
	return fmt.Sprintf("idem:shipments:%s:%s", ownerID, key)
}
