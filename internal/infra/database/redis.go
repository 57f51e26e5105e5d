package database

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

func NewRedis(addr string, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// PingRedis fails when the server is unreachable.
func PingRedis(ctx context.Context, rdb *redis.Client) error {
	err := rdb.Ping(ctx).Err()
	if err != nil {
		return errors.Wrap(err, "ping redis")
	}
	return nil
}
