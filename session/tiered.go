// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package session

import (
	"context"
	"errors"

	"github.com/VA7DBI/tokenguard/token"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// TieredStore serves reads from a cache and falls back to a primary store,
// backfilling the cache on a primary hit. The primary is authoritative:
// writes that fail there fail the call, cache failures are only logged.
type TieredStore struct {
	cache   Store
	primary Store
	logger  hclog.Logger
}

func NewTieredStore(cache, primary Store, logger hclog.Logger) *TieredStore {
	return &TieredStore{
		cache:   cache,
		primary: primary,
		logger:  logger.Named("tiered"),
	}
}

func (s *TieredStore) Save(ctx context.Context, id string, t token.Authenticatable) error {
	if err := s.primary.Save(ctx, id, t); err != nil {
		return err
	}
	if err := s.cache.Save(ctx, id, t); err != nil {
		s.logger.Warn("cache save failed", "error", err)
	}
	return nil
}

func (s *TieredStore) Load(ctx context.Context, id string) (token.Authenticatable, error) {
	t, err := s.cache.Load(ctx, id)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		s.logger.Warn("cache load failed, falling back to primary", "error", err)
	}

	t, err = s.primary.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Save(ctx, id, t); err != nil {
		s.logger.Warn("cache backfill failed", "error", err)
	}
	return t, nil
}

func (s *TieredStore) Delete(ctx context.Context, id string) error {
	var result *multierror.Error
	if err := s.primary.Delete(ctx, id); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func (s *TieredStore) Close() error {
	var result *multierror.Error
	if err := s.primary.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.cache.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
