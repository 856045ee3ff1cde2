// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/VA7DBI/tokenguard/config"
	"github.com/VA7DBI/tokenguard/middleware"
	"github.com/VA7DBI/tokenguard/provider"
	"github.com/VA7DBI/tokenguard/session"
	"github.com/VA7DBI/tokenguard/token"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
)

type SessionService struct {
	config *config.Config
	store  session.Store
	auth   middleware.Authenticator
	logger hclog.Logger
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	SessionID   string    `json:"session_id"`
	User        string    `json:"user"`
	Authorities []string  `json:"authorities"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type TokenResponse struct {
	User          string         `json:"user"`
	Kind          string         `json:"kind"`
	Source        string         `json:"source,omitempty"`
	Authenticated bool           `json:"authenticated"`
	Authorities   []string       `json:"authorities"`
	Attributes    map[string]any `json:"attributes,omitempty"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

func NewSessionService(cfg *config.Config, store session.Store, auth middleware.Authenticator, logger hclog.Logger) *SessionService {
	return &SessionService{
		config: cfg,
		store:  store,
		auth:   auth,
		logger: logger.Named("service"),
	}
}

func (s *SessionService) Close() error {
	return s.store.Close()
}

// @Summary     Log in with a username and password
// @Description Verify credentials and open a session
// @Tags        session
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "Credentials"
// @Success     200 {object} LoginResponse
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /login [post]
func (s *SessionService) LoginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "username and password are required"})
		return
	}

	ctx := c.Request.Context()

	unverified, err := token.NewUsernamePasswordToken(token.Name(req.Username), req.Password, s.config.Auth.SourceKey)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	unverified.SetAttribute("remote_addr", c.ClientIP())

	authed, err := s.auth.Authenticate(ctx, unverified)
	switch {
	case errors.Is(err, provider.ErrBadCredentials), errors.Is(err, provider.ErrNoProvider):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid username or password"})
		return
	case err != nil:
		s.logger.Error("authentication failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Authentication failed"})
		return
	}

	// Never reuse a session id presented before login.
	if old, ok := s.presentedSessionID(c); ok {
		if err := s.store.Delete(ctx, old); err != nil {
			s.logger.Warn("failed to drop previous session", "error", err)
		}
	}

	id, err := session.NewID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create session"})
		return
	}
	if err := s.store.Save(ctx, id, authed); err != nil {
		s.logger.Error("session save failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create session"})
		return
	}

	ttl := time.Duration(s.config.Session.TTL) * time.Second
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(s.config.Session.CookieName, id, s.config.Session.TTL, "/", "", c.Request.TLS != nil, true)

	s.logger.Info("session opened", "user", authed.Principal().Identifier())
	c.JSON(http.StatusOK, LoginResponse{
		SessionID:   id,
		User:        authed.Principal().Identifier(),
		Authorities: authed.Authorities().Strings(),
		ExpiresAt:   time.Now().Add(ttl).UTC(),
	})
}

// @Summary     Log out
// @Description Delete the current session
// @Tags        session
// @Success     204
// @Failure     500 {object} ErrorResponse
// @Router      /logout [post]
func (s *SessionService) LogoutHandler(c *gin.Context) {
	if id, ok := s.presentedSessionID(c); ok {
		if err := s.store.Delete(c.Request.Context(), id); err != nil {
			s.logger.Error("session delete failed", "error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to close session"})
			return
		}
	}
	if t, ok := middleware.TokenFromContext(c); ok {
		_ = t.SetAuthenticated(false)
		t.EraseCredentials()
	}
	c.SetCookie(s.config.Session.CookieName, "", -1, "/", "", c.Request.TLS != nil, true)
	c.Status(http.StatusNoContent)
}

// @Summary     Current token
// @Description Describe the token attached to this request
// @Tags        session
// @Produce     json
// @Success     200 {object} TokenResponse
// @Failure     401 {object} ErrorResponse
// @Router      /me [get]
func (s *SessionService) WhoAmIHandler(c *gin.Context) {
	t, ok := middleware.TokenFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}
	resp := TokenResponse{
		User:          t.Principal().Identifier(),
		Kind:          t.Kind(),
		Authenticated: t.Authenticated(),
		Authorities:   t.Authorities().Strings(),
		Attributes:    t.Attributes(),
	}
	if src, ok := t.(interface{ SourceKey() string }); ok {
		resp.Source = src.SourceKey()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *SessionService) presentedSessionID(c *gin.Context) (string, bool) {
	if id, ok := middleware.SessionIDFromContext(c); ok {
		return id, true
	}
	if id, err := c.Cookie(s.config.Session.CookieName); err == nil && id != "" {
		return id, true
	}
	return "", false
}
