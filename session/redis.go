// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VA7DBI/tokenguard/codec"
	"github.com/VA7DBI/tokenguard/config"
	"github.com/VA7DBI/tokenguard/token"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store for Redis. Sessions expire through Redis key
// TTLs.
type RedisStore struct {
	client *redis.Client
	codec  codec.Codec
	ttl    time.Duration
	prefix string
}

func NewRedisStore(cfg *config.Config, c codec.Codec) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Session.Redis.Host, cfg.Session.Redis.Port),
		Password: cfg.Session.Redis.Password,
		DB:       cfg.Session.Redis.DB,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{
		client: client,
		codec:  c,
		ttl:    time.Duration(cfg.Session.TTL) * time.Second,
		prefix: cfg.Session.Redis.KeyPrefix,
	}, nil
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Save(ctx context.Context, id string, t token.Authenticatable) error {
	timer := startTimer("redis", "save")
	data, err := codec.EncodeToken(s.codec, t)
	if err != nil {
		return observe("redis", "save", timer, err)
	}
	if err := s.client.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
		return observe("redis", "save", timer, fmt.Errorf("redis set failed: %w", err))
	}
	return observe("redis", "save", timer, nil)
}

func (s *RedisStore) Load(ctx context.Context, id string) (token.Authenticatable, error) {
	timer := startTimer("redis", "load")
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, observe("redis", "load", timer, ErrSessionNotFound)
	}
	if err != nil {
		return nil, observe("redis", "load", timer, fmt.Errorf("redis get failed: %w", err))
	}

	t, err := codec.DecodeToken(s.codec, data)
	return t, observe("redis", "load", timer, err)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	timer := startTimer("redis", "delete")
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return observe("redis", "delete", timer, fmt.Errorf("redis del failed: %w", err))
	}
	return observe("redis", "delete", timer, nil)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
