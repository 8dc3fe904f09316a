package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultRedisPrefix = "investflow:prefs:"

// RedisSlot stores each array as a JSON string under prefix+key.
type RedisSlot struct {
	redis  *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedis connects and pings before returning.
func NewRedis(ctx context.Context, addr string, db int, password, prefix string, logger *zap.Logger) (*RedisSlot, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       db,
		Password: password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisFromClient(rdb, prefix, logger), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb *redis.Client, prefix string, logger *zap.Logger) *RedisSlot {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisSlot{redis: rdb, prefix: prefix, logger: logger}
}

func (s *RedisSlot) Load(ctx context.Context, key string) ([]string, bool, error) {
	if s.redis == nil {
		return nil, false, errors.New("redis not initialized")
	}
	data, err := s.redis.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return cloneStrings(values), true, nil
}

func (s *RedisSlot) Save(ctx context.Context, key string, values []string) error {
	if s.redis == nil {
		return errors.New("redis not initialized")
	}
	data, err := json.Marshal(cloneStrings(values))
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.prefix+key, data, 0).Err(); err != nil {
		s.logger.Error("store.redis.set_failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (s *RedisSlot) HealthCheck(ctx context.Context) error {
	if s.redis == nil {
		return fmt.Errorf("redis not initialized")
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisSlot) Close() error {
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}
