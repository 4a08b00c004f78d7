package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionBusy = errors.New("session is already applying a batch")
)

// Guard serializes draft mutations per booking session. A batch arriving
// while another is mid-flight is dropped with ErrSessionBusy and the caller
// retries; batches are never interleaved, even across process instances.
type Guard interface {
	WithSession(ctx context.Context, sessionID uuid.UUID, fn func(ctx context.Context) error) error
}

type redisSessionGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionGuard creates a guard backed by a per-session Redis key.
func NewRedisSessionGuard(client *redis.Client, ttl time.Duration) Guard {
	return &redisSessionGuard{
		client: client,
		ttl:    ttl,
	}
}

func (g *redisSessionGuard) WithSession(ctx context.Context, sessionID uuid.UUID, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("guard:session:%s", sessionID.String())
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire session guard: %w", err)
	}
	if !ok {
		return ErrSessionBusy
	}

	defer func() {
		// A canceled request must still release, or the session stays locked
		// until the TTL expires.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = g.release(releaseCtx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, g.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

// Only the holder's token may delete the key, so a guard that expired and was
// re-acquired by another instance is not released by the old holder.
var releaseScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (g *redisSessionGuard) release(ctx context.Context, key, token string) error {
	_, err := releaseScript.Run(ctx, g.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release session guard: %w", err)
	}
	return nil
}
