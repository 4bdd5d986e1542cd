package redis

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/imtaco/rtc-room-client/internal/log"
)

// Nil is returned by Get when the key does not exist.
const Nil = redis.Nil

// Forever wraps go-redis client with automatic retry using exponential backoff.
// All operations retry forever until successful or context is cancelled.
// A missing key (Nil) is an answer, not a failure, and is returned at once.
type Forever interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Expire(ctx context.Context, key string, expiration time.Duration) error
	SAdd(ctx context.Context, key string, members ...any) error
	SRem(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

type redisForeverImpl struct {
	client          redis.UniversalClient
	logger          *log.Logger
	initialInterval time.Duration
	maxInterval     time.Duration
}

// NewForever creates a new Redis utility with forever backoff retry logic.
// initialInterval: starting backoff interval (e.g., 100ms)
// maxInterval: maximum backoff interval (e.g., 10s)
func NewForever(
	client redis.UniversalClient,
	initialInterval time.Duration,
	maxInterval time.Duration,
	logger *log.Logger,
) Forever {
	if client == nil {
		panic("redis client is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	if initialInterval <= 0 {
		initialInterval = 100 * time.Millisecond
	}
	if maxInterval <= 0 {
		maxInterval = 10 * time.Second
	}

	return &redisForeverImpl{
		client:          client,
		logger:          logger,
		initialInterval: initialInterval,
		maxInterval:     maxInterval,
	}
}

func (r *redisForeverImpl) newForeverBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = 0 // 0 means forever
	return b
}

// retryWithBackoff tries operation once first, only creates backoff object if first attempt fails.
func (r *redisForeverImpl) retryWithBackoff(ctx context.Context, operation func() error, operationName string) error {
	err := operation()
	if err == nil || stderrors.Is(err, redis.Nil) {
		return err
	}

	r.logger.Warn("Redis operation failed, entering retry mode",
		log.String("operation", operationName),
		log.Error(err))

	b := r.newForeverBackoff()
	attempt := 1

	return backoff.Retry(func() error {
		select {
		case <-ctx.Done():
			return backoff.Permanent(ctx.Err())
		default:
		}

		attempt++
		err := operation()
		if stderrors.Is(err, redis.Nil) {
			return backoff.Permanent(err)
		}
		if err != nil {
			r.logger.Warn("Redis operation retry failed",
				log.String("operation", operationName),
				log.Int("attempt", attempt),
				log.Error(err))
			return err
		}

		r.logger.Info("Redis operation recovered",
			log.String("operation", operationName),
			log.Int("total_attempts", attempt))
		return nil
	}, backoff.WithContext(b, ctx))
}

func (r *redisForeverImpl) Get(ctx context.Context, key string) (string, error) {
	var result string
	err := r.retryWithBackoff(ctx, func() error {
		val, err := r.client.Get(ctx, key).Result()
		if err != nil {
			return err
		}
		result = val
		return nil
	}, "Get")
	return result, err
}

func (r *redisForeverImpl) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return r.retryWithBackoff(ctx, func() error {
		return r.client.Set(ctx, key, value, expiration).Err()
	}, "Set")
}

func (r *redisForeverImpl) Del(ctx context.Context, keys ...string) error {
	return r.retryWithBackoff(ctx, func() error {
		return r.client.Del(ctx, keys...).Err()
	}, "Del")
}

func (r *redisForeverImpl) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return r.retryWithBackoff(ctx, func() error {
		return r.client.Expire(ctx, key, expiration).Err()
	}, "Expire")
}

func (r *redisForeverImpl) SAdd(ctx context.Context, key string, members ...any) error {
	return r.retryWithBackoff(ctx, func() error {
		return r.client.SAdd(ctx, key, members...).Err()
	}, "SAdd")
}

func (r *redisForeverImpl) SRem(ctx context.Context, key string, members ...any) error {
	return r.retryWithBackoff(ctx, func() error {
		return r.client.SRem(ctx, key, members...).Err()
	}, "SRem")
}

func (r *redisForeverImpl) SMembers(ctx context.Context, key string) ([]string, error) {
	var result []string
	err := r.retryWithBackoff(ctx, func() error {
		val, err := r.client.SMembers(ctx, key).Result()
		if err != nil {
			return err
		}
		result = val
		return nil
	}, "SMembers")
	return result, err
}
