// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAuthenticated rejects requests without an authenticated token.
func (m *AuthMiddleware) RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.cfg.Auth.Enabled {
			c.Next()
			return
		}
		t, ok := TokenFromContext(c)
		if !ok || !t.Authenticated() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAuthority rejects requests whose token lacks the given authority.
// Unauthenticated requests get 401, authenticated ones without the
// authority get 403.
func (m *AuthMiddleware) RequireAuthority(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.cfg.Auth.Enabled {
			c.Next()
			return
		}
		t, ok := TokenFromContext(c)
		if !ok || !t.Authenticated() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		if !t.Authorities().Contains(id) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}
