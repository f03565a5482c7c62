// Package queue provides the Redis-backed waiting-room sequencer.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	chatapp "github.com/atiendo/atiendo/internal/application/chat"
)

var _ chatapp.Sequencer = (*RedisSequencer)(nil)

const (
	defaultSequencerPrefix = "queue:position:"
	defaultSequenceTTL     = 24 * time.Hour
	defaultDepartmentKey   = "default"
)

// RedisSequencer hands out strictly monotonic waiting-room positions
// per department using an atomic Redis counter. Unlike the count-based
// estimate, two visitors joining concurrently always receive distinct
// positions.
type RedisSequencer struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisSequencerConfig contains configuration for RedisSequencer.
type RedisSequencerConfig struct {
	Client    *redis.Client
	KeyPrefix string
	// TTL caps counter lifetime so an idle department eventually
	// restarts from 1. Zero keeps the default of 24 hours.
	TTL time.Duration
}

// NewRedisSequencer creates a new Redis-based position sequencer.
func NewRedisSequencer(cfg RedisSequencerConfig) *RedisSequencer {
	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = defaultSequencerPrefix
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultSequenceTTL
	}

	return &RedisSequencer{
		client:    cfg.Client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// sequenceKey generates the Redis key for a department counter.
func (s *RedisSequencer) sequenceKey(department string) string {
	if department == "" {
		department = defaultDepartmentKey
	}
	return s.keyPrefix + department
}

// Next atomically increments the department counter and returns the new
// value. The TTL is refreshed on every call so an active queue never
// expires mid-day.
func (s *RedisSequencer) Next(ctx context.Context, department string) (int, error) {
	key := s.sequenceKey(department)

	position, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to advance queue sequence: %w", err)
	}

	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return 0, fmt.Errorf("failed to refresh queue sequence ttl: %w", err)
	}

	return int(position), nil
}

// Reset clears the counter for a department, restarting positions at 1.
func (s *RedisSequencer) Reset(ctx context.Context, department string) error {
	if err := s.client.Del(ctx, s.sequenceKey(department)).Err(); err != nil {
		return fmt.Errorf("failed to reset queue sequence: %w", err)
	}
	return nil
}

// Current reads the counter without advancing it. Returns 0 when no
// visitor has joined the department yet.
func (s *RedisSequencer) Current(ctx context.Context, department string) (int, error) {
	value, err := s.client.Get(ctx, s.sequenceKey(department)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read queue sequence: %w", err)
	}
	return value, nil
}
