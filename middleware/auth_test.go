// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/VA7DBI/tokenguard/codec"
	"github.com/VA7DBI/tokenguard/config"
	"github.com/VA7DBI/tokenguard/provider"
	"github.com/VA7DBI/tokenguard/session"
	"github.com/VA7DBI/tokenguard/token"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	cfg     *config.Config
	store   *session.MemoryStore
	users   provider.StaticUsers
	manager *provider.Manager
}

func setupAuthTest(t *testing.T) *authFixture {
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("wonderland"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.Auth.Enabled = true
	cfg.Auth.Users = []config.User{
		{Name: "alice", PasswordHash: string(hash), Roles: []string{"ROLE_USER", "ROLE_ADMIN"}},
		{Name: "bob", PasswordHash: string(hash), Roles: []string{"ROLE_USER"}},
	}

	users, err := provider.NewStaticUsers(cfg.Auth.Users)
	require.NoError(t, err)

	manager := provider.NewManager(hclog.NewNullLogger(), true,
		provider.NewPasswordProvider(users, cfg.Auth.SourceKey),
		provider.NewPreAuthenticatedProvider(users, cfg.Auth.PreAuth.SourceKey),
	)

	return &authFixture{
		cfg:     cfg,
		store:   session.NewMemoryStore(codec.JSON{}, time.Hour),
		users:   users,
		manager: manager,
	}
}

// login authenticates name and stores the result under a new session id.
func (f *authFixture) login(t *testing.T, name string) string {
	in, err := token.NewUsernamePasswordToken(token.Name(name), "wonderland", f.cfg.Auth.SourceKey)
	require.NoError(t, err)
	out, err := f.manager.Authenticate(context.Background(), in)
	require.NoError(t, err)

	id, err := session.NewID()
	require.NoError(t, err)
	require.NoError(t, f.store.Save(context.Background(), id, out))
	return id
}

func (f *authFixture) router(auth Authenticator, store session.Store) *gin.Engine {
	m := NewAuthMiddleware(f.cfg, store, auth, hclog.NewNullLogger())

	r := gin.New()
	r.Use(m.Handler())
	r.GET("/test", m.RequireAuthenticated(), func(c *gin.Context) {
		t, _ := TokenFromContext(c)
		c.String(http.StatusOK, t.Principal().Identifier())
	})
	r.GET("/admin", m.RequireAuthority("ROLE_ADMIN"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func do(r *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	f := setupAuthTest(t)
	r := f.router(f.manager, f.store)

	t.Run("AuthDisabled", func(t *testing.T) {
		cfg := *f.cfg
		cfg.Auth.Enabled = false
		m := NewAuthMiddleware(&cfg, f.store, f.manager, hclog.NewNullLogger())

		r := gin.New()
		r.GET("/test", m.Handler(), m.RequireAuthenticated(), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := do(r, "/test", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ValidSessionCookie", func(t *testing.T) {
		id := f.login(t, "alice")
		w := do(r, "/test", map[string]string{"Cookie": f.cfg.Session.CookieName + "=" + id})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", w.Body.String())
	})

	t.Run("ValidBearerSession", func(t *testing.T) {
		id := f.login(t, "alice")
		w := do(r, "/test", map[string]string{"Authorization": "Bearer " + id})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("MalformedAuthHeader", func(t *testing.T) {
		id := f.login(t, "alice")
		w := do(r, "/test", map[string]string{"Authorization": "Basic " + id})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("UnknownSession", func(t *testing.T) {
		w := do(r, "/test", map[string]string{"Authorization": "Bearer unknown"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("MissingAuthHeader", func(t *testing.T) {
		w := do(r, "/test", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("UnauthenticatedStoredToken", func(t *testing.T) {
		tok, err := token.NewUsernamePasswordToken(token.Name("alice"), nil, f.cfg.Auth.SourceKey)
		require.NoError(t, err)
		require.NoError(t, f.store.Save(context.Background(), "pending", tok))

		w := do(r, "/test", map[string]string{"Authorization": "Bearer pending"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireAuthority(t *testing.T) {
	f := setupAuthTest(t)
	r := f.router(f.manager, f.store)

	w := do(r, "/admin", map[string]string{"Authorization": "Bearer " + f.login(t, "alice")})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, "/admin", map[string]string{"Authorization": "Bearer " + f.login(t, "bob")})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, "/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStoredTokenRefresh(t *testing.T) {
	t.Run("UserChanged", func(t *testing.T) {
		f := setupAuthTest(t)
		r := f.router(f.manager, f.store)
		id := f.login(t, "alice")

		f.users["alice"].Roles = []string{"ROLE_USER"}

		w := do(r, "/test", map[string]string{"Authorization": "Bearer " + id})
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		_, err := f.store.Load(context.Background(), id)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("UserRemoved", func(t *testing.T) {
		f := setupAuthTest(t)
		r := f.router(f.manager, f.store)
		id := f.login(t, "bob")

		delete(f.users, "bob")

		w := do(r, "/test", map[string]string{"Authorization": "Bearer " + id})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, 0, f.store.Len())
	})

	t.Run("RefreshFailureKeepsSession", func(t *testing.T) {
		f := setupAuthTest(t)
		id := f.login(t, "alice")
		r := f.router(&brokenAuthenticator{err: errors.New("directory unavailable")}, f.store)

		w := do(r, "/test", map[string]string{"Authorization": "Bearer " + id})
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		stored, err := f.store.Load(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, stored.Authenticated())
	})
}

func TestPreAuthentication(t *testing.T) {
	f := setupAuthTest(t)
	f.cfg.Auth.PreAuth.Enabled = true
	r := f.router(f.manager, f.store)

	w := do(r, "/test", map[string]string{"X-Remote-User": "bob"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bob", w.Body.String())

	w = do(r, "/test", map[string]string{"X-Remote-User": "mallory"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	f.cfg.Auth.PreAuth.Enabled = false
	w = do(r, "/test", map[string]string{"X-Remote-User": "bob"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionStoreFailure(t *testing.T) {
	f := setupAuthTest(t)
	r := f.router(f.manager, &brokenStore{err: errors.New("redis down")})

	w := do(r, "/test", map[string]string{"Authorization": "Bearer whatever"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type brokenAuthenticator struct {
	err error
}

func (b *brokenAuthenticator) Authenticate(ctx context.Context, t token.Authenticatable) (token.Authenticatable, error) {
	return nil, b.err
}

func (b *brokenAuthenticator) Refresh(ctx context.Context, t token.Authenticatable) (token.Authenticatable, error) {
	return nil, b.err
}

type brokenStore struct {
	err error
}

func (b *brokenStore) Save(ctx context.Context, id string, t token.Authenticatable) error {
	return b.err
}

func (b *brokenStore) Load(ctx context.Context, id string) (token.Authenticatable, error) {
	return nil, b.err
}

func (b *brokenStore) Delete(ctx context.Context, id string) error {
	return b.err
}

func (b *brokenStore) Close() error {
	return nil
}
