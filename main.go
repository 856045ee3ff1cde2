// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/VA7DBI/tokenguard/config"
	"github.com/VA7DBI/tokenguard/docs"
	"github.com/VA7DBI/tokenguard/middleware"
	"github.com/VA7DBI/tokenguard/provider"
	"github.com/VA7DBI/tokenguard/session"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var (
	configFile = flag.String("config", "config.yaml", "Path to configuration file")
)

// @title           tokenguard
// @version         1.0
// @description     Session-backed authentication tokens with password and pre-authenticated login.
// @BasePath       /
func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	docs.SwaggerInfo.Host = cfg.API.SwaggerHost
	docs.SwaggerInfo.BasePath = cfg.API.BasePath

	store, err := session.NewStore(cfg, logger.Named("session"))
	if err != nil {
		logger.Error("failed to initialize session store", "error", err)
		os.Exit(1)
	}

	manager, err := newManager(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize providers", "error", err)
		os.Exit(1)
	}

	service := NewSessionService(cfg, store, manager, logger)
	defer service.Close()

	authMiddleware := middleware.NewAuthMiddleware(cfg, store, manager, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	registerRoutes(r, cfg, service, authMiddleware)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server", "addr", addr)
	if err := r.Run(addr); err != nil {
		logger.Error("server stopped", "error", err)
	}
}

func newLogger(cfg *config.Config) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "tokenguard",
		Level:      hclog.LevelFromString(cfg.Log.Level),
		JSONFormat: cfg.Log.JSON,
	})
}

func newManager(cfg *config.Config, logger hclog.Logger) (*provider.Manager, error) {
	users, err := provider.NewStaticUsers(cfg.Auth.Users)
	if err != nil {
		return nil, err
	}
	providers := []provider.Provider{provider.NewPasswordProvider(users, cfg.Auth.SourceKey)}
	if cfg.Auth.PreAuth.Enabled {
		providers = append(providers, provider.NewPreAuthenticatedProvider(users, cfg.Auth.PreAuth.SourceKey))
	}
	return provider.NewManager(logger, !cfg.Auth.KeepCredentials, providers...), nil
}

func registerRoutes(r *gin.Engine, cfg *config.Config, service *SessionService, auth *middleware.AuthMiddleware) {
	api := r.Group(cfg.API.BasePath)
	api.POST("/login", service.LoginHandler)
	api.POST("/logout", auth.Handler(), service.LogoutHandler)
	api.GET("/me", auth.Handler(), auth.RequireAuthenticated(), service.WhoAmIHandler)

	// These endpoints remain public
	r.GET("/health", healthCheck)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Add Prometheus metrics endpoint if enabled
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// @Summary     Health check endpoint
// @Description Get API health status
// @Tags        health
// @Produce     json
// @Success     200 {object} HealthResponse
// @Router      /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(200, HealthResponse{Status: "ok"})
}
