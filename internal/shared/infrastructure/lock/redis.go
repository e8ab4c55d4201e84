package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another holder is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig tunes the distributed lock.
type RedisConfig struct {
	Prefix     string
	TTL        time.Duration
	RetryDelay time.Duration
}

// DefaultRedisConfig returns settings sized for short attendance commands.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Prefix:     "huddle:lock:",
		TTL:        10 * time.Second,
		RetryDelay: 25 * time.Millisecond,
	}
}

// Redis implements Locker with SET NX PX and a token-checked release.
type Redis struct {
	client *redis.Client
	config RedisConfig
	logger *slog.Logger
}

// NewRedis creates a distributed locker.
func NewRedis(client *redis.Client, config RedisConfig, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TTL <= 0 {
		config.TTL = DefaultRedisConfig().TTL
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultRedisConfig().RetryDelay
	}
	return &Redis{client: client, config: config, logger: logger}
}

// Lock polls until the key is set by us or ctx is done.
func (r *Redis) Lock(ctx context.Context, key string) (Release, error) {
	fullKey := r.config.Prefix + key
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	for {
		ok, err := r.client.SetNX(ctx, fullKey, token, r.config.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(r.config.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, r.client, []string{fullKey}, token).Err(); err != nil {
				r.logger.Warn("failed to release redis lock", "key", fullKey, "error", err)
			}
		})
	}, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
