// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package kv

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/pulse/internal/config"
)

// RedisStore is the production Store backed by a Redis server.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to cfg.Addr. The connection is lazy; call Ping to
// verify the server is reachable.
func NewRedisStore(cfg *config.KVConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("kv: redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, translateRedisErr(err)
	}
	return n, nil
}

func (r *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Expire(ctx, key, ttl).Err()
}

func (r *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisStore) HasKey(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (int64, bool, error) {
	v, err := r.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, translateRedisErr(err)
	}
	return v, true, nil
}

func (r *RedisStore) MGet(ctx context.Context, keys ...string) (map[string]int64, error) {
	out := make(map[string]int64, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, raw := range vals {
		s, ok := raw.(string)
		if !ok {
			continue // nil for absent keys
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, ErrNotInteger
		}
		out[keys[i]] = n
	}
	return out, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	err := r.client.Close()
	if errors.Is(err, redis.ErrClosed) {
		return nil
	}
	return err
}

// translateRedisErr maps server-side type errors onto ErrNotInteger.
func translateRedisErr(err error) error {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return ErrNotInteger
	}
	if rerr, ok := err.(redis.Error); ok && isNotIntegerReply(rerr.Error()) {
		return ErrNotInteger
	}
	return err
}

func isNotIntegerReply(msg string) bool {
	return msg == "ERR value is not an integer or out of range"
}
