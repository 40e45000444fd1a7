package redis_client

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Options struct {
	Host     string
	Port     uint16
	Password string
	DB       int
}

// NewRedisClient connects and pings; the room mirror is the only writer.
func NewRedisClient(opts Options) (*redis.Client, error) {
	maxPool := runtime.NumCPU() * 4
	if maxPool > 128 {
		maxPool = 128
	}

	rc := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: maxPool,
	})

	ctx, cancelFunc := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFunc()
	_, err := rc.Ping(ctx).Result()
	if err != nil {
		_ = rc.Close()
		err = errors.New("redis connection failed: " + err.Error())
		zap.L().Error("redis_connect", zap.Error(err))
		return nil, err
	}
	return rc, nil
}
