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
	"github.com/VA7DBI/tokenguard/metrics"
	"github.com/VA7DBI/tokenguard/token"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrSessionNotFound is returned by Load when no unexpired session exists
// for an id.
var ErrSessionNotFound = errors.New("session not found")

// Store persists tokens across requests. Every Load returns a freshly
// decoded token that the caller owns exclusively.
type Store interface {
	Save(ctx context.Context, id string, t token.Authenticatable) error
	Load(ctx context.Context, id string) (token.Authenticatable, error)
	// Delete removes a session. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
	Close() error
}

// NewID returns a fresh random session id.
func NewID() (string, error) {
	return uuid.GenerateUUID()
}

type storeConstructor func(*config.Config, codec.Codec) (Store, error)

// builder picks the session backend from config.
type builder struct {
	cfg    *config.Config
	logger hclog.Logger

	redisConstructor    storeConstructor
	postgresConstructor storeConstructor
}

// NewStore builds the session store described by cfg. With both Redis and
// Postgres enabled, Redis caches in front of Postgres. With neither, sessions
// live in process memory.
func NewStore(cfg *config.Config, logger hclog.Logger) (Store, error) {
	b := &builder{
		cfg:    cfg,
		logger: logger,
		redisConstructor: func(cfg *config.Config, c codec.Codec) (Store, error) {
			return NewRedisStore(cfg, c)
		},
		postgresConstructor: func(cfg *config.Config, c codec.Codec) (Store, error) {
			return NewPostgresStore(cfg, c)
		},
	}
	return b.build()
}

func (b *builder) build() (Store, error) {
	c, err := codec.New(b.cfg.Session.Codec)
	if err != nil {
		return nil, err
	}

	var cache, primary Store
	if b.cfg.Session.Redis.Enabled {
		cache, err = b.redisConstructor(b.cfg, c)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis store: %w", err)
		}
	}
	if b.cfg.Session.Postgres.Enabled {
		primary, err = b.postgresConstructor(b.cfg, c)
		if err != nil {
			if cache != nil {
				_ = cache.Close()
			}
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
	}

	switch {
	case cache != nil && primary != nil:
		b.logger.Info("using tiered session store", "cache", "redis", "primary", "postgres", "codec", c.Name())
		return NewTieredStore(cache, primary, b.logger), nil
	case cache != nil:
		b.logger.Info("using redis session store", "codec", c.Name())
		return cache, nil
	case primary != nil:
		b.logger.Info("using postgres session store", "codec", c.Name())
		return primary, nil
	default:
		b.logger.Info("using in-memory session store", "codec", c.Name())
		return NewMemoryStore(c, time.Duration(b.cfg.Session.TTL)*time.Second), nil
	}
}

// observe records the outcome and latency of one store operation. It
// returns err unchanged so callers can end with `return observe(...)`.
func observe(store, op string, timer *prometheus.Timer, err error) error {
	timer.ObserveDuration()
	status := "ok"
	switch {
	case errors.Is(err, ErrSessionNotFound):
		status = "miss"
	case err != nil:
		status = "error"
	}
	metrics.SessionOperations.WithLabelValues(store, op, status).Inc()
	return err
}

func startTimer(store, op string) *prometheus.Timer {
	return prometheus.NewTimer(metrics.SessionOperationDuration.WithLabelValues(store, op))
}
