package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrInvalidLockTTL is returned when a lock is requested without a positive TTL
var ErrInvalidLockTTL = errors.New("cache: lock ttl must be positive")

// JobLock prevents a job from running concurrently with itself.
// Acquire returns acquired=false without error when another holder owns the lock.
// The release function is safe to call more than once and never nil when acquired is true.
type JobLock interface {
	Acquire(ctx context.Context, job string, ttl time.Duration) (release func(), acquired bool, err error)
}

// InMemoryJobLock implements JobLock within a single process.
// Suitable for single-instance deployments and testing.
type InMemoryJobLock struct {
	mu    sync.Mutex
	held  map[string]lockEntry
	nowFn func() time.Time
	seq   uint64
}

type lockEntry struct {
	token     uint64
	expiresAt time.Time
}

// NewInMemoryJobLock creates a new in-memory job lock
func NewInMemoryJobLock() *InMemoryJobLock {
	return &InMemoryJobLock{
		held:  make(map[string]lockEntry),
		nowFn: time.Now,
	}
}

// Acquire takes the lock for job until release is called or ttl elapses
func (l *InMemoryJobLock) Acquire(_ context.Context, job string, ttl time.Duration) (func(), bool, error) {
	if ttl <= 0 {
		return nil, false, ErrInvalidLockTTL
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	if entry, ok := l.held[job]; ok && now.Before(entry.expiresAt) {
		return nil, false, nil
	}

	l.seq++
	token := l.seq
	l.held[job] = lockEntry{token: token, expiresAt: now.Add(ttl)}

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			// an expired lock may have been taken over; only the owner releases
			if entry, ok := l.held[job]; ok && entry.token == token {
				delete(l.held, job)
			}
		})
	}
	return release, true, nil
}

// Ensure InMemoryJobLock implements JobLock
var _ JobLock = (*InMemoryJobLock)(nil)
