package idempotency

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
)

func redisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStore_AcquireCompleteReplay(t *testing.T) {
	store := NewRedisStore(redisClient(t), time.Minute)
	ctx := context.Background()
	key := id.New().String()

	replay, err := store.AcquireKey(ctx, key, "u1", "POST /api/v1/sales", "h1")
	require.NoError(t, err)
	assert.Nil(t, replay)

	_, err = store.AcquireKey(ctx, key, "u1", "POST /api/v1/sales", "h1")
	assert.True(t, isIdempotency(err))

	require.NoError(t, store.CompleteKey(ctx, key, http.StatusCreated, "application/json", map[string]string{"id": "s1"}))

	replay, err = store.AcquireKey(ctx, key, "u1", "POST /api/v1/sales", "h1")
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, http.StatusCreated, replay.StatusCode)
	assert.JSONEq(t, `{"id":"s1"}`, string(replay.Body))
}

func TestRedisStore_Mismatch(t *testing.T) {
	store := NewRedisStore(redisClient(t), time.Minute)
	ctx := context.Background()
	key := id.New().String()

	_, err := store.AcquireKey(ctx, key, "u1", "POST /api/v1/sales", "h1")
	require.NoError(t, err)

	_, err = store.AcquireKey(ctx, key, "u1", "POST /api/v1/sales", "other")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Idempotency key mismatch", appErr.Message)
}

func TestRedisStore_ReclaimsStalePending(t *testing.T) {
	store := NewRedisStore(redisClient(t), time.Minute)
	ctx := context.Background()
	key := id.New().String()

	past := time.Now().UTC().Add(-2 * StaleAfter)
	store.now = func() time.Time { return past }
	_, err := store.AcquireKey(ctx, key, "u1", "op", "h")
	require.NoError(t, err)

	store.now = func() time.Time { return time.Now().UTC() }
	replay, err := store.AcquireKey(ctx, key, "u1", "op", "h")
	require.NoError(t, err)
	assert.Nil(t, replay)
}

func isIdempotency(err error) bool {
	appErr, ok := apperror.AsAppError(err)
	return ok && appErr.Code == apperror.CodeIdempotency
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, http.StatusOK, NormalizeStatus(0))
	assert.Equal(t, http.StatusAccepted, NormalizeStatus(http.StatusAccepted))
	assert.Equal(t, "application/json", NormalizeContentType(""))
	assert.Equal(t, "text/plain", NormalizeContentType("text/plain"))
}
