// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/VA7DBI/tokenguard/config"
	"github.com/VA7DBI/tokenguard/metrics"
	"github.com/VA7DBI/tokenguard/provider"
	"github.com/VA7DBI/tokenguard/session"
	"github.com/VA7DBI/tokenguard/token"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
)

const (
	// TokenKey is the gin context key holding the request's token.
	TokenKey = "tokenguard.token"
	// SessionIDKey is the gin context key holding the request's session id.
	SessionIDKey = "tokenguard.session_id"
)

// Authenticator issues and refreshes tokens. provider.Manager implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, t token.Authenticatable) (token.Authenticatable, error)
	Refresh(ctx context.Context, t token.Authenticatable) (token.Authenticatable, error)
}

// AuthMiddleware resolves the token for each request from its session, or
// from a pre-authentication header when one is configured.
type AuthMiddleware struct {
	cfg    *config.Config
	store  session.Store
	auth   Authenticator
	logger hclog.Logger
}

func NewAuthMiddleware(cfg *config.Config, store session.Store, auth Authenticator, logger hclog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		cfg:    cfg,
		store:  store,
		auth:   auth,
		logger: logger.Named("middleware"),
	}
}

// Handler returns the gin middleware handler function
func (m *AuthMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Fast path: if auth is disabled, allow all requests
		if !m.cfg.Auth.Enabled {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		if id := m.extractSessionID(c); id != "" {
			t, err := m.store.Load(ctx, id)
			switch {
			case err == nil:
				c.Set(SessionIDKey, id)
				c.Set(TokenKey, m.refresh(ctx, id, t))
				c.Next()
				return
			case !errors.Is(err, session.ErrSessionNotFound):
				m.logger.Error("session load failed", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Session store unavailable"})
				c.Abort()
				return
			}
		}

		if m.cfg.Auth.PreAuth.Enabled {
			if name := c.GetHeader(m.cfg.Auth.PreAuth.Header); name != "" {
				if t := m.preAuthenticate(ctx, name); t != nil {
					c.Set(TokenKey, t)
				}
			}
		}

		c.Next()
	}
}

// refresh compares the stored token with one rebuilt from the current
// account. If the account is gone or changed, the stored token loses its
// trust and the session is dropped. If the account could not be checked,
// the token is untrusted for this request only.
func (m *AuthMiddleware) refresh(ctx context.Context, id string, t token.Authenticatable) token.Authenticatable {
	if !t.Authenticated() {
		return t
	}

	refreshed, err := m.auth.Refresh(ctx, t)
	var reason string
	switch {
	case errors.Is(err, provider.ErrUserNotFound):
		reason = "user_removed"
	case err != nil:
		m.logger.Error("token refresh failed", "user", t.Principal().Identifier(), "error", err)
		metrics.TrustDowngrades.WithLabelValues("refresh_failed").Inc()
		_ = t.SetAuthenticated(false)
		return t
	case !refreshed.Equal(t):
		reason = "user_changed"
	default:
		return refreshed
	}

	m.logger.Info("dropping trust for stored token", "user", t.Principal().Identifier(), "reason", reason)
	metrics.TrustDowngrades.WithLabelValues(reason).Inc()
	_ = t.SetAuthenticated(false)
	if err := m.store.Delete(ctx, id); err != nil {
		m.logger.Warn("session delete failed", "error", err)
	}
	return t
}

func (m *AuthMiddleware) preAuthenticate(ctx context.Context, name string) token.Authenticatable {
	t, err := token.NewPreAuthenticatedToken(token.Name(name), nil, m.cfg.Auth.PreAuth.SourceKey)
	if err != nil {
		m.logger.Warn("rejecting pre-authentication header", "error", err)
		return nil
	}
	authed, err := m.auth.Authenticate(ctx, t)
	if err != nil {
		return nil
	}
	return authed
}

// extractSessionID reads the session cookie, falling back to a bearer
// Authorization header.
func (m *AuthMiddleware) extractSessionID(c *gin.Context) string {
	if id, err := c.Cookie(m.cfg.Session.CookieName); err == nil && id != "" {
		return id
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

// TokenFromContext returns the token resolved for this request, if any.
func TokenFromContext(c *gin.Context) (token.Authenticatable, bool) {
	v, ok := c.Get(TokenKey)
	if !ok {
		return nil, false
	}
	t, ok := v.(token.Authenticatable)
	return t, ok
}

// SessionIDFromContext returns the id of the session the token came from.
func SessionIDFromContext(c *gin.Context) (string, bool) {
	id := c.GetString(SessionIDKey)
	return id, id != ""
}
