package endpoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the endpoint under a single key with no expiry.
type RedisStore struct {
	rdb    *redis.Client
	key    string
	def    string
	logger *slog.Logger
}

func NewRedisStore(rdb *redis.Client, key, defaultEndpoint string, log *slog.Logger) *RedisStore {
	if key == "" {
		key = "homectl:" + Key
	}
	return &RedisStore{rdb: rdb, key: key, def: orDefault(defaultEndpoint), logger: log}
}

func (s *RedisStore) Configure(ctx context.Context, url string) error {
	if err := s.rdb.Set(ctx, s.key, url, 0).Err(); err != nil {
		return fmt.Errorf("storing endpoint: %w", err)
	}
	return nil
}

func (s *RedisStore) Current(ctx context.Context) string {
	v, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) || (err == nil && v == "") {
		return s.def
	}
	if err != nil {
		s.logger.Warn("reading stored endpoint, using default", "error", err, "default", s.def)
		return s.def
	}
	return v
}
