package state

import (
	"context"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/SoarinFerret/ReadRemind/internal/presence"
)

// DefaultRedisKey is used when no key is configured.
const DefaultRedisKey = "readremind:state"

// RedisStore keeps the same JSON record under a single Redis key.
type RedisStore struct {
	client *backend.Client
	key    string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *backend.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (r *RedisStore) Load(ctx context.Context) (presence.State, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return presence.Fresh(), nil
		}
		return presence.State{}, fmt.Errorf("redis get %s: %w", r.key, err)
	}

	s, err := Decode(data)
	if err != nil {
		return presence.State{}, fmt.Errorf("redis key %s: %w", r.key, err)
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s presence.State) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

// Close releases the underlying client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
