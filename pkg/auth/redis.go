package auth

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

// RedisFlagStore persists the admin bypass flag under a single key, read at
// process start and cleared on sign-out.
type RedisFlagStore struct {
	client *redis.Client
	key    string
}

func NewRedisFlagStore(client *redis.Client, key string) *RedisFlagStore {
	return &RedisFlagStore{client: client, key: key}
}

func (f *RedisFlagStore) SetAdminSession(ctx context.Context) error {
	return f.client.Set(ctx, f.key, "true", 0).Err()
}

func (f *RedisFlagStore) AdminSession(ctx context.Context) (bool, error) {
	val, err := f.client.Get(ctx, f.key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == "true", nil
}

func (f *RedisFlagStore) ClearAdminSession(ctx context.Context) error {
	return f.client.Del(ctx, f.key).Err()
}
