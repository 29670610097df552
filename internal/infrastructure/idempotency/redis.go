package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"retailops/internal/core/apperror"
)

const keyPrefix = "idempotency:"

// record is the JSON value stored under each key.
type record struct {
	UserID      string    `json:"userId"`
	Operation   string    `json:"operation"`
	RequestHash string    `json:"requestHash"`
	Status      Status    `json:"status"`
	StatusCode  int       `json:"statusCode,omitempty"`
	ContentType string    `json:"contentType,omitempty"`
	Body        []byte    `json:"body,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RedisStore keeps keys in Redis with a TTL. Ownership is taken with SETNX.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store whose keys expire after ttl.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

func (s *RedisStore) AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*Replay, error) {
	rec := record{
		UserID:      userID,
		Operation:   operation,
		RequestHash: requestHash,
		Status:      StatusPending,
		UpdatedAt:   s.now(),
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal idempotency record: %w", err)
	}

	ok, err := s.client.SetNX(ctx, keyPrefix+key, value, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if ok {
		return nil, nil
	}

	existing, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		// Expired between SETNX and GET; try once more.
		ok, err = s.client.SetNX(ctx, keyPrefix+key, value, s.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire idempotency key: %w", err)
		}
		if ok {
			return nil, nil
		}
		return nil, apperror.NewIdempotencyConflict(key)
	}

	if existing.UserID != userID || existing.Operation != operation || existing.RequestHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key).
			WithDetail("stored_operation", existing.Operation).
			WithDetail("request_operation", operation)
	}

	switch existing.Status {
	case StatusSuccess, StatusFailed:
		return &Replay{
			StatusCode:  NormalizeStatus(existing.StatusCode),
			ContentType: NormalizeContentType(existing.ContentType),
			Body:        existing.Body,
		}, nil
	case StatusPending:
		if s.now().Sub(existing.UpdatedAt) > StaleAfter {
			if err := s.client.Set(ctx, keyPrefix+key, value, s.ttl).Err(); err != nil {
				return nil, fmt.Errorf("reclaim stale key: %w", err)
			}
			return nil, nil
		}
	}
	return nil, apperror.NewIdempotencyConflict(key)
}

func (s *RedisStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(ctx, key, StatusSuccess, statusCode, contentType, response)
}

func (s *RedisStore) FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(ctx, key, StatusFailed, statusCode, contentType, response)
}

func (s *RedisStore) finish(ctx context.Context, key string, status Status, statusCode int, contentType string, response any) error {
	rec, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	body, err := json.Marshal(response)
	if err != nil {
		body, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	rec.Status = status
	rec.StatusCode = statusCode
	rec.ContentType = contentType
	rec.Body = body
	rec.UpdatedAt = s.now()

	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal idempotency record: %w", err)
	}
	return s.client.Set(ctx, keyPrefix+key, value, redis.KeepTTL).Err()
}

func (s *RedisStore) load(ctx context.Context, key string) (*record, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load idempotency key: %w", err)
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode idempotency key: %w", err)
	}
	return &rec, nil
}
