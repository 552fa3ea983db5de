package viewstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every Redis key written by RedisSink.
const DefaultRedisPrefix = "listpage"

// RedisConfig holds RedisSink configuration.
type RedisConfig struct {
	// Prefix is prepended to every key as "<prefix>:<key>"
	Prefix string

	// TTL expires pushed entries (0 keeps them until overwritten)
	TTL time.Duration
}

// DefaultRedisConfig returns the default RedisSink configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Prefix: DefaultRedisPrefix,
		TTL:    0,
	}
}

// RedisSink stores pushed state in Redis as JSON entries.
type RedisSink struct {
	redis  *redis.Client
	config RedisConfig
}

// NewRedisSink creates a sink backed by redisClient.
func NewRedisSink(redisClient *redis.Client, cfg RedisConfig) *RedisSink {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultRedisPrefix
	}
	return &RedisSink{
		redis:  redisClient,
		config: cfg,
	}
}

// Push stores value under key, replacing any previous entry.
func (s *RedisSink) Push(ctx context.Context, key Key, value any) error {
	if key.IsZero() {
		return ErrEmptyKey
	}

	entry, err := newEntry(key, value, s.config.TTL)
	if err != nil {
		SinkErrors.WithLabelValues("push").Inc()
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		SinkErrors.WithLabelValues("push").Inc()
		return fmt.Errorf("marshal view state entry: %w", err)
	}

	if err := s.redis.Set(ctx, s.redisKey(key), data, s.config.TTL).Err(); err != nil {
		SinkErrors.WithLabelValues("push").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	SinkPushes.WithLabelValues("redis").Inc()
	SinkBytes.Add(float64(len(data)))

	return nil
}

// Get retrieves the latest entry pushed under key.
// Returns ErrNotFound if nothing was pushed or the entry expired.
func (s *RedisSink) Get(ctx context.Context, key Key) (*Entry, error) {
	data, err := s.redis.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		SinkErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		SinkErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired() {
		_ = s.Delete(ctx, key)
		return nil, ErrNotFound
	}

	return &entry, nil
}

// Delete removes the entry stored under key.
func (s *RedisSink) Delete(ctx context.Context, key Key) error {
	if err := s.redis.Del(ctx, s.redisKey(key)).Err(); err != nil {
		SinkErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// redisKey maps a view key to its Redis key.
func (s *RedisSink) redisKey(key Key) string {
	return s.config.Prefix + ":" + key.String()
}
