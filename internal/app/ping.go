package app

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

type redisPinger struct {
	client redis.Cmdable
}

func (p redisPinger) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	return nil
}
