// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/VA7DBI/tokenguard/codec"
	"github.com/VA7DBI/tokenguard/config"
	"github.com/VA7DBI/tokenguard/token"
	"github.com/lib/pq"
)

// PostgresStore implements Store for PostgreSQL. The table needs columns
// id (text primary key), data (bytea) and expires_at (timestamptz).
type PostgresStore struct {
	db    *sql.DB
	codec codec.Codec
	ttl   time.Duration
	now   func() time.Time

	saveQuery   string
	loadQuery   string
	deleteQuery string
}

func NewPostgresStore(cfg *config.Config, c codec.Codec) (*PostgresStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Session.Postgres.Host,
		cfg.Session.Postgres.Port,
		cfg.Session.Postgres.User,
		cfg.Session.Postgres.Password,
		cfg.Session.Postgres.DBName,
		cfg.Session.Postgres.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return newPostgresStore(db, c, cfg), nil
}

func newPostgresStore(db *sql.DB, c codec.Codec, cfg *config.Config) *PostgresStore {
	table := pq.QuoteIdentifier(cfg.Session.Postgres.Table)
	return &PostgresStore{
		db:    db,
		codec: c,
		ttl:   time.Duration(cfg.Session.TTL) * time.Second,
		now:   time.Now,
		saveQuery: fmt.Sprintf(`INSERT INTO %s (id, data, expires_at) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`, table),
		loadQuery:   fmt.Sprintf(`SELECT data FROM %s WHERE id = $1 AND expires_at > NOW()`, table),
		deleteQuery: fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table),
	}
}

func (s *PostgresStore) Save(ctx context.Context, id string, t token.Authenticatable) error {
	timer := startTimer("postgres", "save")
	data, err := codec.EncodeToken(s.codec, t)
	if err != nil {
		return observe("postgres", "save", timer, err)
	}
	if _, err := s.db.ExecContext(ctx, s.saveQuery, id, data, s.now().Add(s.ttl)); err != nil {
		return observe("postgres", "save", timer, fmt.Errorf("postgres save failed: %w", err))
	}
	return observe("postgres", "save", timer, nil)
}

func (s *PostgresStore) Load(ctx context.Context, id string) (token.Authenticatable, error) {
	timer := startTimer("postgres", "load")
	var data []byte
	err := s.db.QueryRowContext(ctx, s.loadQuery, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, observe("postgres", "load", timer, ErrSessionNotFound)
	}
	if err != nil {
		return nil, observe("postgres", "load", timer, fmt.Errorf("postgres load failed: %w", err))
	}

	t, err := codec.DecodeToken(s.codec, data)
	return t, observe("postgres", "load", timer, err)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	timer := startTimer("postgres", "delete")
	if _, err := s.db.ExecContext(ctx, s.deleteQuery, id); err != nil {
		return observe("postgres", "delete", timer, fmt.Errorf("postgres delete failed: %w", err))
	}
	return observe("postgres", "delete", timer, nil)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
