// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// maxConflictRetries bounds the retries of a read-modify-write that lost
// an optimistic transaction race.
const maxConflictRetries = 16

// BadgerStore is an embedded Store for single-node deployments.
// Counters and markers survive restarts.
type BadgerStore struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// OpenBadgerStore opens (or creates) a store at path. An empty path opens
// an in-memory database.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger kv at %q: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	return nil
}

// update runs fn in a read-write transaction, retrying on conflicts.
func (b *BadgerStore) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = b.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func readInt(item *badger.Item) (int64, error) {
	var n int64
	err := item.Value(func(val []byte) error {
		v, err := strconv.ParseInt(string(val), 10, 64)
		if err != nil {
			return ErrNotInteger
		}
		n = v
		return nil
	})
	return n, err
}

func (b *BadgerStore) Incr(ctx context.Context, key string) (int64, error) {
	if err := b.check(ctx); err != nil {
		return 0, err
	}
	k := []byte(key)
	var n int64
	err := b.update(ctx, func(txn *badger.Txn) error {
		var expiresAt uint64
		item, err := txn.Get(k)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			n = 0
		case err != nil:
			return err
		default:
			if n, err = readInt(item); err != nil {
				return err
			}
			expiresAt = item.ExpiresAt()
		}
		n++
		e := badger.NewEntry(k, []byte(strconv.FormatInt(n, 10)))
		e.ExpiresAt = expiresAt
		return txn.SetEntry(e)
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (b *BadgerStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := b.check(ctx); err != nil {
		return err
	}
	k := []byte(key)
	return b.update(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if ttl <= 0 {
			return txn.Delete(k)
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(k, val).WithTTL(ttl))
	})
}

func (b *BadgerStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := b.check(ctx); err != nil {
		return err
	}
	e := badger.NewEntry([]byte(key), []byte(value))
	if ttl > 0 {
		e = e.WithTTL(ttl)
	}
	return b.update(ctx, func(txn *badger.Txn) error {
		return txn.SetEntry(e)
	})
}

func (b *BadgerStore) HasKey(ctx context.Context, key string) (bool, error) {
	if err := b.check(ctx); err != nil {
		return false, err
	}
	var found bool
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

func (b *BadgerStore) Get(ctx context.Context, key string) (int64, bool, error) {
	if err := b.check(ctx); err != nil {
		return 0, false, err
	}
	var (
		n     int64
		found bool
	)
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		n, err = readInt(item)
		return err
	})
	if err != nil {
		return 0, false, err
	}
	return n, found, nil
}

func (b *BadgerStore) MGet(ctx context.Context, keys ...string) (map[string]int64, error) {
	if err := b.check(ctx); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(keys))
	err := b.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			n, err := readInt(item)
			if err != nil {
				return err
			}
			out[key] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *BadgerStore) Ping(ctx context.Context) error {
	if err := b.check(ctx); err != nil {
		return err
	}
	if b.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

// RunGC reclaims value log space. It returns nil when there was nothing to
// rewrite.
func (b *BadgerStore) RunGC(discardRatio float64) error {
	if err := b.check(context.Background()); err != nil {
		return err
	}
	err := b.db.RunValueLogGC(discardRatio)
	if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
		return nil
	}
	return err
}

func (b *BadgerStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}
