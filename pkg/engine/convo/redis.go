package convo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores conversation sessions in redis so that a multi-process
// deployment can resume a session on any instance. Entries expire after ttl
// as a safety net; normal eviction still happens through Delete.
type RedisBackend struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisBackend creates a redis-backed conversation backend.
func NewRedisBackend(client *redis.Client, ttl time.Duration) *RedisBackend {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisBackend{client: client, ttl: ttl, prefix: "convo:"}
}

func (b *RedisBackend) key(sessionID string) string { return b.prefix + sessionID }

// Load implements Backend.
func (b *RedisBackend) Load(ctx context.Context, sessionID string) (*Session, bool, error) {
	raw, err := b.client.Get(ctx, b.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &s, true, nil
}

// Save implements Backend.
func (b *RedisBackend) Save(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	if err := b.client.Set(ctx, b.key(s.ID), raw, b.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements Backend.
func (b *RedisBackend) Delete(ctx context.Context, sessionID string) error {
	if err := b.client.Del(ctx, b.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
