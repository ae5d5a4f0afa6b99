package dep

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayushbirla71/survey-backend/config"
	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var ErrEmptyRedisAddr = errors.New("empty redis addr")

// NewRedisClient connects to redis and pings it, retrying while the server starts up.
func NewRedisClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, ErrEmptyRedisAddr
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := backoff.Retry(func() error {
		err := client.Ping(ctx).Err()
		if err != nil {
			log.Ctx(ctx).Warn().Msgf("ping redis failed, retrying: %v", err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}

	return client, nil
}
