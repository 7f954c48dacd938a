package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const maxUpdateAttempts = 10

// RedisStore keeps views in Redis so several viewer instances can serve the
// same visit. Keys expire after the TTL, refreshed on every write.
type RedisStore[T any] struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
}

func NewRedisStore[T any](redisClient *redis.Client, keyPrefix, kind string, ttl time.Duration) *RedisStore[T] {
	return &RedisStore[T]{
		redisClient: redisClient,
		keyPrefix:   keyPrefix + kind + ":",
		ttl:         ttl,
	}
}

func (s *RedisStore[T]) Create(ctx context.Context, id string, view *T) error {
	data, err := encode(view)
	if err != nil {
		return err
	}

	if err := s.redisClient.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save view %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore[T]) Get(ctx context.Context, id string) (*T, error) {
	data, err := s.redisClient.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrViewNotFound
		}
		return nil, fmt.Errorf("failed to get view %s: %w", id, err)
	}
	return decode[T](data)
}

// Update runs fn inside a WATCH/MULTI transaction and retries when another
// writer touched the view in between.
func (s *RedisStore[T]) Update(ctx context.Context, id string, fn func(view *T) error) (*T, error) {
	key := s.key(id)

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		var updated *T

		err := s.redisClient.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ErrViewNotFound
				}
				return err
			}

			view, err := decode[T](data)
			if err != nil {
				return err
			}
			if err := fn(view); err != nil {
				return err
			}

			out, err := encode(view)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, out, s.ttl)
				return nil
			})
			if err == nil {
				updated = view
			}
			return err
		}, key)

		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			log.Debugf("View %s changed during update, retrying (attempt %d)", id, attempt)
			continue
		}
		if errors.Is(err, ErrViewNotFound) {
			return nil, ErrViewNotFound
		}
		return nil, fmt.Errorf("failed to update view %s: %w", id, err)
	}

	return nil, fmt.Errorf("failed to update view %s: too much contention", id)
}

func (s *RedisStore[T]) key(id string) string {
	return s.keyPrefix + id
}
