// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package session

import (
	"context"
	"sync"
	"time"

	"github.com/VA7DBI/tokenguard/codec"
	"github.com/VA7DBI/tokenguard/token"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps encoded sessions in process memory. Expired entries are
// dropped when they are read, and Save sweeps the whole map at most once
// per TTL so abandoned sessions do not accumulate.
type MemoryStore struct {
	mu        sync.RWMutex
	codec     codec.Codec
	ttl       time.Duration
	now       func() time.Time
	nextSweep time.Time
	entries   map[string]memoryEntry
}

func NewMemoryStore(c codec.Codec, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		codec:   c,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Save(ctx context.Context, id string, t token.Authenticatable) error {
	timer := startTimer("memory", "save")
	data, err := codec.EncodeToken(s.codec, t)
	if err != nil {
		return observe("memory", "save", timer, err)
	}

	s.mu.Lock()
	now := s.now()
	if !now.Before(s.nextSweep) {
		s.sweep(now)
		s.nextSweep = now.Add(s.ttl)
	}
	s.entries[id] = memoryEntry{data: data, expiresAt: now.Add(s.ttl)}
	s.mu.Unlock()
	return observe("memory", "save", timer, nil)
}

func (s *MemoryStore) Load(ctx context.Context, id string) (token.Authenticatable, error) {
	timer := startTimer("memory", "load")
	s.mu.Lock()
	entry, ok := s.entries[id]
	if ok && !s.now().Before(entry.expiresAt) {
		delete(s.entries, id)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return nil, observe("memory", "load", timer, ErrSessionNotFound)
	}

	t, err := codec.DecodeToken(s.codec, entry.data)
	return t, observe("memory", "load", timer, err)
}

// sweep drops every expired entry. Callers hold mu.
func (s *MemoryStore) sweep(now time.Time) {
	for id, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, id)
		}
	}
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	timer := startTimer("memory", "delete")
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return observe("memory", "delete", timer, nil)
}

// Len reports how many sessions are held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error {
	return nil
}
