package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL matches how long a fetched patient record stays warm.
const DefaultCacheTTL = 5 * time.Minute

// CachedDirectory is a read-through Redis cache in front of another
// Directory. Cache failures degrade to a direct fetch; they never surface to
// the caller. Not-found results are not cached.
type CachedDirectory struct {
	inner  Directory
	client *redis.Client
	ttl    time.Duration
}

func NewCachedDirectory(inner Directory, client *redis.Client, ttl time.Duration) *CachedDirectory {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedDirectory{inner: inner, client: client, ttl: ttl}
}

func cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("patient:%s", id)
}

func (c *CachedDirectory) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	key := cacheKey(id)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var p Patient
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		log.Printf("patient cache entry %s is corrupt, refetching", key)
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("patient cache read error for %s: %v", key, err)
	}

	p, err := c.inner.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Printf("patient cache write error for %s: %v", key, err)
		}
	}

	return p, nil
}

// Invalidate drops a patient from the cache, used after directory updates.
func (c *CachedDirectory) Invalidate(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("invalidate patient cache: %w", err)
	}
	return nil
}
