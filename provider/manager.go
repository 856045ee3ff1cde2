// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/VA7DBI/tokenguard/metrics"
	"github.com/VA7DBI/tokenguard/token"
	"github.com/hashicorp/go-hclog"
)

var ErrNoProvider = errors.New("no provider supports token")

// Manager hands tokens to the first provider that supports them.
type Manager struct {
	providers        []Provider
	eraseCredentials bool
	logger           hclog.Logger
}

// NewManager returns a manager over providers, tried in order. When
// eraseCredentials is set, successful results have their credentials erased
// before being returned.
func NewManager(logger hclog.Logger, eraseCredentials bool, providers ...Provider) *Manager {
	return &Manager{
		providers:        providers,
		eraseCredentials: eraseCredentials,
		logger:           logger.Named("provider"),
	}
}

func (m *Manager) find(t token.Authenticatable) Provider {
	for _, p := range m.providers {
		if p.Supports(t) {
			return p
		}
	}
	return nil
}

func (m *Manager) Authenticate(ctx context.Context, t token.Authenticatable) (token.Authenticatable, error) {
	source := sourceOf(t)
	p := m.find(t)
	if p == nil {
		metrics.AuthenticationAttempts.WithLabelValues(source, "unsupported").Inc()
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, t.Kind())
	}

	result, err := p.Authenticate(ctx, t)
	if err != nil {
		status := "error"
		if errors.Is(err, ErrBadCredentials) {
			status = "failure"
		}
		metrics.AuthenticationAttempts.WithLabelValues(source, status).Inc()
		m.logger.Info("authentication failed", "user", t.Principal().Identifier(), "source", source, "error", err)
		return nil, err
	}

	if m.eraseCredentials {
		result.EraseCredentials()
	}
	metrics.AuthenticationAttempts.WithLabelValues(source, "success").Inc()
	m.logger.Debug("authenticated", "token", result.String())
	return result, nil
}

// Refresh rebuilds t from the current account record through the provider
// that issued it.
func (m *Manager) Refresh(ctx context.Context, t token.Authenticatable) (token.Authenticatable, error) {
	p := m.find(t)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, t.Kind())
	}
	return p.Refresh(ctx, t)
}

func sourceOf(t token.Authenticatable) string {
	if s, ok := t.(interface{ SourceKey() string }); ok {
		return s.SourceKey()
	}
	return t.Kind()
}
