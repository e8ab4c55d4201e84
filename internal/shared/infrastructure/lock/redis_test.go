package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a live server: HUDDLE_TEST_REDIS_URL=redis://localhost:6379/15
func TestRedis_LockAndRelease(t *testing.T) {
	url := os.Getenv("HUDDLE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("HUDDLE_TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	defer client.Close()

	locker := NewRedis(client, RedisConfig{Prefix: "huddle:test:", TTL: time.Second}, nil)
	key := uuid.NewString()

	release, err := locker.Lock(context.Background(), key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, key)
	assert.ErrorIs(t, err, ErrNotAcquired)

	release()
	release2, err := locker.Lock(context.Background(), key)
	require.NoError(t, err)
	release2()
}
