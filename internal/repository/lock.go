package repository

import (
	"context"
	"hash/fnv"
	"log"
	"sync"

	"gorm.io/gorm"
)

// AdvisoryLocker is a named mutual-exclusion primitive. On PostgreSQL it maps
// the name onto a session-scoped advisory lock; on SQLite, which has no
// advisory locks, it falls back to an in-process lock table keyed by name.
//
// The lock serializes ID allocation for a (family, year) pair. It is an
// optimization, not the sole correctness mechanism: if it cannot be acquired
// the critical section still runs and the caller's collision-retry loop picks
// up the slack.
type AdvisoryLocker struct {
	db *gorm.DB

	mu    sync.Mutex
	local map[string]*sync.Mutex
}

func NewAdvisoryLocker(db *gorm.DB) *AdvisoryLocker {
	return &AdvisoryLocker{db: db, local: make(map[string]*sync.Mutex)}
}

// WithLock runs fn while holding the named lock when possible. fn always
// runs, locked or not.
func (l *AdvisoryLocker) WithLock(ctx context.Context, key string, fn func() error) error {
	if l.db.Dialector.Name() == "postgres" {
		return l.withPgLock(ctx, key, fn)
	}
	return l.withLocalLock(key, fn)
}

func (l *AdvisoryLocker) withPgLock(ctx context.Context, key string, fn func() error) error {
	id := lockKey(key)

	// Advisory locks are session scoped. Acquire, fn and release must share
	// one pooled connection or the unlock lands on the wrong session and the
	// lock leaks until that connection closes.
	ran := false
	err := l.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		ran = true

		var acquired bool
		if err := conn.Raw("SELECT pg_try_advisory_lock(?)", id).Scan(&acquired).Error; err != nil {
			log.Printf("advisory_lock acquire_failed key=%s err=%v", key, err)
			return fn()
		}
		if !acquired {
			// Proceed unserialized; the caller's existence check handles races.
			return fn()
		}
		defer func() {
			if err := conn.Exec("SELECT pg_advisory_unlock(?)", id).Error; err != nil {
				log.Printf("advisory_lock release_failed key=%s err=%v", key, err)
			}
		}()
		return fn()
	})
	if !ran {
		log.Printf("advisory_lock connection_failed key=%s err=%v", key, err)
		return fn()
	}
	return err
}

func (l *AdvisoryLocker) withLocalLock(key string, fn func() error) error {
	l.mu.Lock()
	m, ok := l.local[key]
	if !ok {
		m = &sync.Mutex{}
		l.local[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn()
}

func lockKey(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64())
}
