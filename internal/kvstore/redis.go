package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

var _ Store = (*Redis)(nil)

// Redis keeps each namespace in one hash, "kv:<namespace>".
type Redis struct {
	client *redis.Client
}

// NewRedis connects to addr and verifies the connection with a PING.
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("kvstore: connecting to redis at %s: %w", addr, err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func hashKey(namespace string) string {
	return "kv:" + namespace
}

func (r *Redis) Get(ctx context.Context, namespace, key string) (string, error) {
	v, err := r.client.HGet(ctx, hashKey(namespace), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("kvstore: redis HGET %s: %w", key, err)
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, namespace, key, value string) error {
	if err := r.client.HSet(ctx, hashKey(namespace), key, value).Err(); err != nil {
		return fmt.Errorf("kvstore: redis HSET %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, namespace, key string) error {
	if err := r.client.HDel(ctx, hashKey(namespace), key).Err(); err != nil {
		return fmt.Errorf("kvstore: redis HDEL %s: %w", key, err)
	}
	return nil
}

// List reads the whole hash and filters client-side. HSCAN MATCH would
// treat '*' and '?' in the prefix as wildcards.
func (r *Redis) List(ctx context.Context, namespace, prefix string) (map[string]string, error) {
	all, err := r.client.HGetAll(ctx, hashKey(namespace)).Result()
	if err != nil {
		return nil, fmt.Errorf("kvstore: redis HGETALL %s: %w", namespace, err)
	}
	out := make(map[string]string, len(all))
	for k, v := range all {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out, nil
}
