// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/larder/internal/config"
	"github.com/tomtom215/larder/internal/logging"
	"github.com/tomtom215/larder/internal/metrics"
)

// Revocation store backends.
const (
	TokenStoreMemory = "memory"
	TokenStoreBadger = "badger"
)

// ErrRevocationStoreClosed is returned after Close.
var ErrRevocationStoreClosed = errors.New("revocation store is closed")

// RevocationStore remembers logged-out token ids until the tokens expire.
type RevocationStore interface {
	// Revoke records jti as logged out until expiresAt. Revoking an already
	// expired token is a no-op.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error

	// IsRevoked reports whether jti was revoked and has not yet expired.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// CleanupExpired removes entries whose token has expired and returns
	// how many were removed.
	CleanupExpired(ctx context.Context) (int, error)

	// Size returns the number of stored entries.
	Size(ctx context.Context) (int, error)

	Close() error
}

// NewRevocationStore opens the backend selected by cfg.TokenStore.
func NewRevocationStore(cfg *config.SecurityConfig) (RevocationStore, error) {
	switch cfg.TokenStore {
	case "", TokenStoreMemory:
		return NewMemoryRevocationStore(), nil
	case TokenStoreBadger:
		if cfg.TokenStorePath == "" {
			return nil, fmt.Errorf("token_store_path is required for the badger token store")
		}
		opts := badger.DefaultOptions(cfg.TokenStorePath)
		opts.Logger = nil // badger is chatty at INFO

		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open badger db for token revocation: %w", err)
		}
		store := NewBadgerRevocationStore(db, "")
		store.ownsDB = true
		return store, nil
	default:
		return nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
	}
}

// MemoryRevocationStore keeps revocations in a map. Entries are lost on
// restart, which lets logged-out tokens work again until they expire.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	closed  bool
	now     func() time.Time
}

// NewMemoryRevocationStore creates an empty in-memory store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke records jti until expiresAt.
func (s *MemoryRevocationStore) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrRevocationStoreClosed
	}
	if !expiresAt.After(s.now()) {
		return nil
	}
	s.entries[jti] = expiresAt
	metrics.SetRevokedTokens(len(s.entries))
	return nil
}

// IsRevoked reports whether jti is revoked.
func (s *MemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, ErrRevocationStoreClosed
	}
	expiresAt, ok := s.entries[jti]
	return ok && s.now().Before(expiresAt), nil
}

// CleanupExpired drops expired entries.
func (s *MemoryRevocationStore) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrRevocationStoreClosed
	}
	now := s.now()
	count := 0
	for jti, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, jti)
			count++
		}
	}
	metrics.SetRevokedTokens(len(s.entries))
	return count, nil
}

// Size returns the number of entries.
func (s *MemoryRevocationStore) Size(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrRevocationStoreClosed
	}
	return len(s.entries), nil
}

// Close releases the map.
func (s *MemoryRevocationStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	return nil
}

// revocationEntry is the BadgerDB value of a revoked token.
type revocationEntry struct {
	JTI       string    `json:"jti"`
	RevokedAt time.Time `json:"revoked_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BadgerRevocationStore persists revocations in BadgerDB so logouts survive
// restarts. Keys carry a TTL matching the token expiry.
type BadgerRevocationStore struct {
	db     *badger.DB
	prefix []byte
	ownsDB bool

	mu     sync.RWMutex
	closed bool
	now    func() time.Time
}

// NewBadgerRevocationStore wraps an open BadgerDB. prefix defaults to
// "revoked:". The caller keeps ownership of db.
func NewBadgerRevocationStore(db *badger.DB, prefix string) *BadgerRevocationStore {
	if prefix == "" {
		prefix = "revoked:"
	}
	return &BadgerRevocationStore{
		db:     db,
		prefix: []byte(prefix),
		now:    time.Now,
	}
}

func (s *BadgerRevocationStore) makeKey(jti string) []byte {
	key := make([]byte, 0, len(s.prefix)+len(jti))
	key = append(key, s.prefix...)
	return append(key, jti...)
}

func (s *BadgerRevocationStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrRevocationStoreClosed
	}
	return nil
}

// Revoke records jti until expiresAt.
func (s *BadgerRevocationStore) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	now := s.now()
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(revocationEntry{JTI: jti, RevokedAt: now, ExpiresAt: expiresAt})
	if err != nil {
		return fmt.Errorf("marshal revocation: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(s.makeKey(jti), data).WithTTL(ttl))
	})
	if err != nil {
		return fmt.Errorf("store revocation: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti is revoked.
func (s *BadgerRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	var revoked bool
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.makeKey(jti))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var entry revocationEntry
			if err := json.Unmarshal(val, &entry); err != nil {
				return err
			}
			revoked = s.now().Before(entry.ExpiresAt)
			return nil
		})
	})
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return revoked, nil
}

// CleanupExpired deletes expired entries. Badger drops TTL'd keys during
// compaction on its own; this makes removal immediate and keeps Size honest.
func (s *BadgerRevocationStore) CleanupExpired(_ context.Context) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	now := s.now()
	count := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.prefix
		it := txn.NewIterator(opts)

		var expired [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var entry revocationEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				continue
			}
			if !now.Before(entry.ExpiresAt) {
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		it.Close()

		for _, key := range expired {
			if err := txn.Delete(key); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cleanup revocations: %w", err)
	}
	return count, nil
}

// Size counts stored entries.
func (s *BadgerRevocationStore) Size(_ context.Context) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Close marks the store closed and closes the database if the store
// opened it.
func (s *BadgerRevocationStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

// DefaultCleanupInterval is how often CleanupService sweeps the store.
const DefaultCleanupInterval = 10 * time.Minute

// CleanupService periodically removes expired revocations. It implements
// suture.Service.
type CleanupService struct {
	store    RevocationStore
	interval time.Duration
}

// NewCleanupService creates the service. interval <= 0 uses
// DefaultCleanupInterval.
func NewCleanupService(store RevocationStore, interval time.Duration) *CleanupService {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &CleanupService{store: store, interval: interval}
}

// Serve sweeps until ctx is canceled.
func (c *CleanupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *CleanupService) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	removed, err := c.store.CleanupExpired(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("Token revocation cleanup failed")
		return
	}
	metrics.RecordRevocationCleanup(removed)
	if size, err := c.store.Size(ctx); err == nil {
		metrics.SetRevokedTokens(size)
	}
	if removed > 0 {
		logging.Debug().Int("removed", removed).Msg("Token revocation cleanup completed")
	}
}

// String names the service in supervisor logs.
func (c *CleanupService) String() string {
	return "token-revocation-cleanup"
}
