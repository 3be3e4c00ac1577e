package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	presenceKeyPrefix = "presence:"
	connKeyPrefix     = "presence:conn:"
)

// Presence tracks which users hold at least one live connection.
type Presence interface {
	Connect(ctx context.Context, userID string) error
	Refresh(ctx context.Context, userID string) error
	// Disconnect reports true when the user's last connection went away.
	Disconnect(ctx context.Context, userID string) (bool, error)
	IsOnline(ctx context.Context, userID string) (bool, error)
}

// RedisPresence keeps a TTL'd liveness key and a connection counter per user.
// Keys expire on their own when a process dies without cleaning up.
type RedisPresence struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisPresence(rdb redis.Cmdable, ttl time.Duration) *RedisPresence {
	return &RedisPresence{rdb: rdb, ttl: ttl}
}

func (p *RedisPresence) Connect(ctx context.Context, userID string) error {
	_, err := p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, connKeyPrefix+userID)
		pipe.Expire(ctx, connKeyPrefix+userID, p.ttl)
		pipe.Set(ctx, presenceKeyPrefix+userID, 1, p.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("presence connect: %w", err)
	}
	return nil
}

func (p *RedisPresence) Refresh(ctx context.Context, userID string) error {
	_, err := p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, presenceKeyPrefix+userID, 1, p.ttl)
		pipe.Expire(ctx, connKeyPrefix+userID, p.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("presence refresh: %w", err)
	}
	return nil
}

func (p *RedisPresence) Disconnect(ctx context.Context, userID string) (bool, error) {
	remaining, err := p.rdb.Decr(ctx, connKeyPrefix+userID).Result()
	if err != nil {
		return false, fmt.Errorf("presence disconnect: %w", err)
	}
	if remaining > 0 {
		return false, nil
	}
	if err := p.rdb.Del(ctx, connKeyPrefix+userID, presenceKeyPrefix+userID).Err(); err != nil {
		return true, fmt.Errorf("presence clear: %w", err)
	}
	return true, nil
}

func (p *RedisPresence) IsOnline(ctx context.Context, userID string) (bool, error) {
	n, err := p.rdb.Exists(ctx, presenceKeyPrefix+userID).Result()
	if err != nil {
		return false, fmt.Errorf("presence lookup: %w", err)
	}
	return n > 0, nil
}
