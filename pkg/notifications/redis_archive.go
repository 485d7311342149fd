package notifications

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

const defaultArchiveKey = "notifications:archive"

// RedisArchive persists notifications to a capped Redis list, newest first.
type RedisArchive struct {
	client *redis.Client
	key    string
	cap    int64
}

// RedisArchiveOption configures a RedisArchive.
type RedisArchiveOption func(*RedisArchive)

// WithArchiveKey overrides the Redis list key.
func WithArchiveKey(key string) RedisArchiveOption {
	return func(a *RedisArchive) {
		if key != "" {
			a.key = key
		}
	}
}

// NewRedisArchive creates an archive backed by client, keeping at most
// capacity entries. A non-positive capacity defaults to 100.
func NewRedisArchive(client *redis.Client, capacity int, opts ...RedisArchiveOption) (*RedisArchive, error) {
	if client == nil {
		return nil, ErrNilRedisClient
	}
	if capacity <= 0 {
		capacity = 100
	}

	a := &RedisArchive{
		client: client,
		key:    defaultArchiveKey,
		cap:    int64(capacity),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *RedisArchive) Save(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return errors.Join(ErrArchiveSave, err)
	}

	pipe := a.client.TxPipeline()
	pipe.LPush(ctx, a.key, payload)
	pipe.LTrim(ctx, a.key, 0, a.cap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Join(ErrArchiveSave, err)
	}
	return nil
}

func (a *RedisArchive) Recent(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = int(a.cap)
	}

	raw, err := a.client.LRange(ctx, a.key, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, errors.Join(ErrArchiveLoad, err)
	}

	out := make([]Notification, 0, len(raw))
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			// Skip corrupt entries rather than failing the whole listing.
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
