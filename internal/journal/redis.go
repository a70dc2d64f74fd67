package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rzpsarthak13/msgsql/internal/config"
	"github.com/rzpsarthak13/msgsql/internal/core"
)

// redisLister is the part of *redis.Client the sink uses.
type redisLister interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	Close() error
}

// RedisSink appends events as JSON to a Redis list, keeping at most
// maxLen of the newest entries when maxLen is positive.
type RedisSink struct {
	client redisLister
	key    string
	maxLen int64
	closed bool
}

// NewRedisSink connects to Redis and verifies the connection with a ping.
func NewRedisSink(cfg config.RedisJournalConfig) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Endpoint,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisSink(client, cfg.Key, cfg.MaxLen), nil
}

func newRedisSink(client redisLister, key string, maxLen int64) *RedisSink {
	return &RedisSink{
		client: client,
		key:    key,
		maxLen: maxLen,
	}
}

// Emit implements core.Sink.
func (s *RedisSink) Emit(ctx context.Context, event *core.Event) error {
	if s.closed {
		return fmt.Errorf("redis journal is closed")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal journal event: %w", err)
	}

	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push journal event to %s: %w", s.key, err)
	}
	if s.maxLen > 0 {
		if err := s.client.LTrim(ctx, s.key, -s.maxLen, -1).Err(); err != nil {
			return fmt.Errorf("failed to trim journal %s: %w", s.key, err)
		}
	}
	return nil
}

// Close implements core.Sink.
func (s *RedisSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}

// RedisSinkFactory creates Redis sinks.
type RedisSinkFactory struct{}

// Type returns the type identifier for this factory.
func (f *RedisSinkFactory) Type() string {
	return "redis"
}

// Validate validates the Redis journal configuration.
func (f *RedisSinkFactory) Validate(cfg config.JournalConfig) error {
	if cfg.Redis.Endpoint == "" {
		return fmt.Errorf("journal.redis.endpoint is required")
	}
	if cfg.Redis.Key == "" {
		return fmt.Errorf("journal.redis.key is required")
	}
	if cfg.Redis.MaxLen < 0 {
		return fmt.Errorf("journal.redis.max_len must be non-negative")
	}
	if cfg.Redis.DB < 0 {
		return fmt.Errorf("journal.redis.db must be non-negative")
	}
	return nil
}

// Create creates a Redis sink.
func (f *RedisSinkFactory) Create(cfg config.JournalConfig) (core.Sink, error) {
	return NewRedisSink(cfg.Redis)
}

func init() {
	register(&RedisSinkFactory{})
}
