package instance

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

type Redis interface {
	Get(ctx context.Context, key string) (string, error)
	SetEX(ctx context.Context, key string, value interface{}, expiry time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, expiry time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

var ErrRedisNil = redis.Nil

type redisInst struct {
	client *redis.Client
}

func WrapRedis(client *redis.Client) Redis {
	return &redisInst{client: client}
}

func (r *redisInst) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *redisInst) SetEX(ctx context.Context, key string, value interface{}, expiry time.Duration) error {
	return r.client.SetEX(ctx, key, value, expiry).Err()
}

func (r *redisInst) SetNX(ctx context.Context, key string, value interface{}, expiry time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, expiry).Result()
}

func (r *redisInst) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}
