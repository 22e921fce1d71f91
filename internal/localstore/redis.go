package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisProvider struct {
	rdb *redis.Client
}

func NewRedisProvider(rdb *redis.Client) *RedisProvider {
	return &RedisProvider{rdb: rdb}
}

func (p *RedisProvider) For(namespace string) Storage {
	return &RedisStorage{rdb: p.rdb, namespace: namespace}
}

// RedisStorage keeps each entry as a JSON envelope under {namespace}:{key}.
type RedisStorage struct {
	rdb       *redis.Client
	namespace string
}

func (s *RedisStorage) redisKey(key string) string {
	return s.namespace + ":" + key
}

func (s *RedisStorage) Load(ctx context.Context, key string) (Entry, error) {
	b, err := s.rdb.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("load %s: %w", key, err)
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, fmt.Errorf("load %s: %w", key, err)
	}
	return e, nil
}

func (s *RedisStorage) Save(ctx context.Context, key string, value any) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	b, err := json.Marshal(Entry{Value: raw, SavedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, s.redisKey(key), b, 0).Err(); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *RedisStorage) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.redisKey(k)
	}
	if err := s.rdb.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("remove %v: %w", keys, err)
	}
	return nil
}

// OpenRedis parses a redis:// URL and pings the server.
func OpenRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse cache url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
