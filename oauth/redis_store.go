package oauth

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisTokenStore is a Redis-backed TokenStore for deployments where
// multiple server instances must share one OAuth token cache.
type RedisTokenStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisTokenStore creates a Redis-backed TokenStore. ttl, if positive,
// bounds how long an entry survives in Redis even if never refreshed; 0
// means no TTL (rely on Put overwriting/Delete).
func NewRedisTokenStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisTokenStore {
	if prefix == "" {
		prefix = "mcp:oauth:"
	}
	return &RedisTokenStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisTokenStore) key(resource string) string { return s.prefix + resource }

func (s *RedisTokenStore) Get(ctx context.Context, resource string) (*Token, bool, error) {
	raw, err := s.rdb.Get(ctx, s.key(resource)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	t := &Token{}
	if err := json.Unmarshal(raw, t); err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (s *RedisTokenStore) Put(ctx context.Context, resource string, token *Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(resource), data, s.ttl).Err()
}

func (s *RedisTokenStore) Delete(ctx context.Context, resource string) error {
	return s.rdb.Del(ctx, s.key(resource)).Err()
}
