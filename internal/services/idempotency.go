package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrRequestInProgress = errors.New("a request with this idempotency key is still in progress")

const pendingMarker = "PENDING"

// IdempotencyStore remembers the response of a write request by its
// Idempotency-Key so a retried request is answered without writing twice.
// A store built on a nil client is disabled: Begin always lets the request
// through and the other methods do nothing.
type IdempotencyStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{redis: rdb, ttl: ttl}
}

func (s *IdempotencyStore) Enabled() bool {
	return s != nil && s.redis != nil
}

func idempotencyKey(key string) string {
	return fmt.Sprintf("idempotency:%s", key)
}

// Begin claims key. It returns the stored response when the key has
// already completed, ErrRequestInProgress when another request holds it,
// and (nil, nil) when the caller should go ahead.
func (s *IdempotencyStore) Begin(ctx context.Context, key string) ([]byte, error) {
	if !s.Enabled() {
		return nil, nil
	}

	claimed, err := s.redis.SetNX(ctx, idempotencyKey(key), pendingMarker, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("claiming idempotency key: %w", err)
	}
	if claimed {
		return nil, nil
	}

	stored, err := s.redis.Get(ctx, idempotencyKey(key)).Bytes()
	if err == redis.Nil {
		// Expired between SETNX and GET; treat as a fresh request.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading idempotency key: %w", err)
	}
	if string(stored) == pendingMarker {
		return nil, ErrRequestInProgress
	}
	return stored, nil
}

// Complete stores the response for key.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, response []byte) error {
	if !s.Enabled() {
		return nil
	}
	return s.redis.Set(ctx, idempotencyKey(key), response, s.ttl).Err()
}

// Abort releases key after a failed request so it can be retried.
func (s *IdempotencyStore) Abort(ctx context.Context, key string) error {
	if !s.Enabled() {
		return nil
	}
	return s.redis.Del(ctx, idempotencyKey(key)).Err()
}
