package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLockHeld is returned by Acquire when another holder owns the key.
var ErrLockHeld = errors.New("lock already held")

// Locker hands out short-lived exclusive leases on keys.
type Locker interface {
	// Acquire takes the lease on key for at most ttl. The returned release func is
	// safe to call more than once and only frees the lease it acquired.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// MemoryLocker is a process-local Locker, used when no Redis is configured.
type MemoryLocker struct {
	mu     sync.Mutex
	leases map[string]memoryLease
	now    func() time.Time
	seq    uint64
}

type memoryLease struct {
	token   uint64
	expires time.Time
}

// NewMemoryLocker creates an empty MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{leases: make(map[string]memoryLease), now: time.Now}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if lease, ok := l.leases[key]; ok && now.Before(lease.expires) {
		return nil, ErrLockHeld
	}
	l.seq++
	token := l.seq
	l.leases[key] = memoryLease{token: token, expires: now.Add(ttl)}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if lease, ok := l.leases[key]; ok && lease.token == token {
				delete(l.leases, key)
			}
		})
	}, nil
}
