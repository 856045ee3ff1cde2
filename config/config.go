// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// User is a statically configured account. PasswordHash is a bcrypt hash.
type User struct {
	Name         string   `yaml:"name"`
	PasswordHash string   `yaml:"password_hash"`
	Roles        []string `yaml:"roles"`
}

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	API struct {
		BasePath    string `yaml:"base_path"`
		SwaggerHost string `yaml:"swagger_host"`
	} `yaml:"api"`

	Log struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Auth struct {
		Enabled         bool   `yaml:"enabled"`
		SourceKey       string `yaml:"source_key"`       // Key stamped on password tokens
		KeepCredentials bool   `yaml:"keep_credentials"` // Skip erasure after login
		Users           []User `yaml:"users"`
		PreAuth         struct {
			Enabled   bool   `yaml:"enabled"`
			Header    string `yaml:"header"` // Header carrying the upstream-asserted user
			SourceKey string `yaml:"source_key"`
		} `yaml:"preauth"`
	} `yaml:"auth"`

	Session struct {
		CookieName string `yaml:"cookie_name"`
		TTL        int    `yaml:"ttl"` // TTL in seconds
		Codec      string `yaml:"codec"`
		Redis      struct {
			Enabled   bool   `yaml:"enabled"`
			Host      string `yaml:"host"`
			Port      int    `yaml:"port"`
			DB        int    `yaml:"db"`
			Password  string `yaml:"password"`
			KeyPrefix string `yaml:"key_prefix"`
		} `yaml:"redis"`
		Postgres struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			DBName   string `yaml:"dbname"`
			SSLMode  string `yaml:"sslmode"`
			Table    string `yaml:"table"`
		} `yaml:"postgres"`
	} `yaml:"session"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	config.SetDefaults()
	return config, nil
}

// SetDefaults fills in every unset field that has a default.
func (c *Config) SetDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.API.BasePath == "" {
		c.API.BasePath = "/"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Auth.SourceKey == "" {
		c.Auth.SourceKey = "main"
	}
	if c.Auth.PreAuth.Header == "" {
		c.Auth.PreAuth.Header = "X-Remote-User"
	}
	if c.Auth.PreAuth.SourceKey == "" {
		c.Auth.PreAuth.SourceKey = "preauth"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "tokenguard_session"
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 3600
	}
	if c.Session.Codec == "" {
		c.Session.Codec = "json"
	}
	if c.Session.Redis.KeyPrefix == "" {
		c.Session.Redis.KeyPrefix = "session:"
	}
	if c.Session.Postgres.Table == "" {
		c.Session.Postgres.Table = "sessions"
	}
	if c.Session.Postgres.SSLMode == "" {
		c.Session.Postgres.SSLMode = "disable"
	}
}
