package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyHeader  = "Idempotency-Key"
	DefaultIdempotency = 24 * time.Hour
)

// IdempotencyStore claims request keys. Claim returns false when the key was
// already claimed and has not expired.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisIdempotencyStore claims keys with SETNX.
type RedisIdempotencyStore struct {
	client *redis.Client
	prefix string
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, prefix: "idempotency:"}
}

func (s *RedisIdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// MemoryIdempotencyStore is used when no redis is configured.
type MemoryIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]time.Time
	now  func() time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{keys: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryIdempotencyStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if exp, ok := s.keys[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.keys[key] = now.Add(ttl)
	return true, nil
}

func (s *MemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

// Idempotency rejects a repeated mutation carrying an Idempotency-Key that
// the same user already submitted. Requests without the header pass through.
// Keys of requests that end in a server error are released so they can be
// retried. Store failures let the request through.
func Idempotency(store IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = DefaultIdempotency
	}
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
		if key == "" {
			c.Next()
			return
		}
		scoped := fmt.Sprintf("%d:%s:%s", c.GetUint(ContextUserID), c.FullPath(), key)

		claimed, err := store.Claim(c.Request.Context(), scoped, ttl)
		if err != nil {
			utils.LogError("Idempotency store unavailable, continuing without it: %v", err)
			c.Next()
			return
		}
		if !claimed {
			utils.LogError("Duplicate request rejected - Key: %s", scoped)
			utils.Conflict(c, "This request has already been submitted", nil)
			c.Abort()
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			if err := store.Release(c.Request.Context(), scoped); err != nil {
				utils.LogError("Failed to release idempotency key %s: %v", scoped, err)
			}
		}
	}
}
