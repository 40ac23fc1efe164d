package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemory is a process-local revocation list. Entries expire when the token
// they revoke would have expired anyway.
type InMemory struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	clock   Clock
}

// InMemoryOption configures an InMemory list.
type InMemoryOption func(*InMemory)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) InMemoryOption {
	return func(l *InMemory) {
		if clock != nil {
			l.clock = clock
		}
	}
}

func NewInMemory(opts ...InMemoryOption) *InMemory {
	l := &InMemory{revoked: make(map[string]time.Time), clock: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Revoke marks jti revoked for ttl.
func (l *InMemory) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revoked[jti] = l.clock().Add(ttl)
	return nil
}

// IsRevoked reports whether jti is revoked and not yet expired.
func (l *InMemory) IsRevoked(_ context.Context, jti string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	expiresAt, ok := l.revoked[jti]
	if !ok {
		return false, nil
	}
	return l.clock().Before(expiresAt), nil
}

// Sweep drops expired entries.
func (l *InMemory) Sweep(_ context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	removed := 0
	for jti, expiresAt := range l.revoked {
		if !now.Before(expiresAt) {
			delete(l.revoked, jti)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (l *InMemory) StartSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Sweep(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
