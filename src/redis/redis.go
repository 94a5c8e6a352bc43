package redis

import (
	"context"

	"github.com/troydota/lotr-quotes/src/configure"
	"github.com/troydota/lotr-quotes/src/instance"

	"github.com/go-redis/redis/v8"
)

func Setup(ctx context.Context, cfg *configure.Config) (instance.Redis, error) {
	options, err := redis.ParseURL(cfg.Redis.URI)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return instance.WrapRedis(client), nil
}
